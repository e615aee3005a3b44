// Package staging prepares output folders and writes label documents so
// that a target file is either complete or absent.
package staging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Sternrassler/boxnow-labels/pkg/parcel"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// EnsureFolder creates name under the process working directory and
// returns its absolute path. Existing folders are left as they are.
func EnsureFolder(name string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", ioError("resolve working directory", err)
	}
	return EnsureFolderIn(cwd, name)
}

// EnsureFolderIn creates name under root and returns its absolute path.
func EnsureFolderIn(root, name string) (string, error) {
	if name == "" {
		return "", &parcel.Error{Kind: parcel.KindPrecondition, Message: "folder name must not be empty"}
	}

	path, err := filepath.Abs(filepath.Join(root, name))
	if err != nil {
		return "", ioError("resolve folder path", err)
	}

	if err := os.MkdirAll(path, dirPerm); err != nil {
		return "", ioError(fmt.Sprintf("create folder %s", path), err)
	}

	return path, nil
}

// WriteFileAtomic writes data to dir/name through a temporary file in the
// same directory followed by a rename. On failure the target is untouched
// and the temporary file is removed.
func WriteFileAtomic(dir, name string, data []byte) (string, error) {
	target := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", ioError("create temporary file", err)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", ioError("write temporary file", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", ioError("sync temporary file", err)
	}
	if err := tmp.Close(); err != nil {
		return "", ioError("close temporary file", err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		return "", ioError("set file mode", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return "", ioError(fmt.Sprintf("move file into place at %s", target), err)
	}

	committed = true
	return target, nil
}

func ioError(msg string, err error) *parcel.Error {
	return &parcel.Error{Kind: parcel.KindIO, Message: msg, Err: err}
}
