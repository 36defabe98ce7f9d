package world

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/mcsync/pkg/errors"
)

// replaceDirectory moves `src` to `dst`. If `dst` already exists, it's
// deleted first, so the result is a full replacement rather than a merge.
func replaceDirectory(fs afero.Fs, src, dst string) error {
	if err := fs.RemoveAll(dst); err != nil {
		return errors.WithContext(err, "remove existing")
	}

	if err := fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.WithContext(err, "create parent")
	}

	if err := moveDir(fs, src, dst); err != nil {
		return errors.WithContext(err, "move")
	}
	return nil
}

// moveDir renames `src` to `dst`. Renames fail when the paths are on
// different devices, in which case the directory is copied and then removed.
func moveDir(fs afero.Fs, src, dst string) error {
	err := fs.Rename(src, dst)
	if err == nil {
		return nil
	}
	log.WithError(err).WithField("src", src).Debug("Rename failed. Falling back to copy")

	if err := copyDir(fs, src, dst); err != nil {
		return errors.WithContext(err, "copy")
	}
	return fs.RemoveAll(src)
}

func copyDir(fs afero.Fs, src, dst string) error {
	return afero.Walk(fs, src, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case fi.IsDir():
			return fs.MkdirAll(target, fi.Mode().Perm()|0700)
		case fi.Mode().IsRegular():
			return copyFile(fs, path, target, fi.Mode().Perm())
		default:
			log.WithField("path", path).Debug("Skipping irregular file")
			return nil
		}
	})
}

func copyFile(fs afero.Fs, src, dst string, perm os.FileMode) error {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// clearDir empties `dir`, creating it if it doesn't exist.
func clearDir(fs afero.Fs, dir string) error {
	if err := fs.RemoveAll(dir); err != nil {
		return err
	}
	return fs.MkdirAll(dir, 0755)
}

func isEmptyDir(fs afero.Fs, dir string) (bool, error) {
	names, err := afero.ReadDir(fs, dir)
	if err != nil {
		return false, err
	}
	return len(names) == 0, nil
}
