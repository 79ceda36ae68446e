package gen

import (
	"os"
	"path/filepath"
	"strings"
)

// ArtifactPath derives the baseline path for a test source: the source
// extension is stripped and the output suffix appended. The mapping is a
// pure function of the input path, so same-named sources in different
// directories produce artifacts in their own directories and never collide.
//
// A path that does not end in sourceExt is returned with the suffix
// appended to the full name; discovery guarantees that case never reaches
// the writer.
func ArtifactPath(file, sourceExt, outputSuffix string) string {
	return strings.TrimSuffix(file, sourceExt) + outputSuffix
}

// Writer persists captured output as a baseline artifact.
type Writer struct{}

// Write atomically replaces the artifact at path with exactly the given
// bytes. Any pre-existing content is discarded. Failures (permissions,
// missing parent directory) are returned as a WriteError and abort the
// batch; there is no retry.
func (Writer) Write(path string, content []byte) error {
	if err := writeFileAtomic(path, content, 0o644); err != nil {
		return &WriteError{Path: path, Cause: err}
	}
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	_ = tmp.Sync() // best-effort durability
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
