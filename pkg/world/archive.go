package world

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/mcsync/pkg/errors"
)

// archiveEntry is a directory to add to an archive. Its contents are stored
// under `root`, or at the top level of the archive if `root` is empty.
type archiveEntry struct {
	src  string
	root string
}

func writeArchive(fs afero.Fs, dst string, entries []archiveEntry) error {
	f, err := fs.Create(dst)
	if err != nil {
		return errors.WithContext(err, "create")
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, entry := range entries {
		if err := addToArchive(fs, zw, entry); err != nil {
			return errors.WithContext(err, fmt.Sprintf("add %s", entry.src))
		}
	}

	if err := zw.Close(); err != nil {
		return errors.WithContext(err, "finish archive")
	}
	return f.Close()
}

func addToArchive(fs afero.Fs, zw *zip.Writer, entry archiveEntry) error {
	return afero.Walk(fs, entry.src, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(entry.src, p)
		if err != nil {
			return err
		}

		name := path.Join(entry.root, filepath.ToSlash(rel))
		if rel == "." {
			if entry.root == "" {
				return nil
			}
			name = entry.root
		}

		switch {
		case fi.IsDir():
			hdr := &zip.FileHeader{Name: name + "/", Method: zip.Store}
			hdr.Modified = fi.ModTime()
			hdr.SetMode(fi.Mode())
			_, err := zw.CreateHeader(hdr)
			return err
		case fi.Mode().IsRegular():
			return addFile(fs, zw, p, name, fi)
		default:
			log.WithField("path", p).Debug("Skipping irregular file")
			return nil
		}
	})
}

func addFile(fs afero.Fs, zw *zip.Writer, src, name string, fi os.FileInfo) error {
	hdr, err := zip.FileInfoHeader(fi)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}

	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	_, err = io.Copy(w, in)
	return err
}

func extractArchive(fs afero.Fs, src, dst string) error {
	f, err := fs.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.FileNotFound{Path: src}
		}
		return errors.WithContext(err, "open")
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return errors.WithContext(err, "stat")
	}

	zr, err := zip.NewReader(f, fi.Size())
	if err != nil {
		return errors.WithContext(err, "read archive")
	}

	for _, zf := range zr.File {
		if err := extractFile(fs, zf, dst); err != nil {
			return errors.WithContext(err, fmt.Sprintf("extract %s", zf.Name))
		}
	}
	return nil
}

func extractFile(fs afero.Fs, zf *zip.File, dst string) error {
	target, err := archiveTarget(dst, zf.Name)
	if err != nil {
		return err
	}

	if zf.FileInfo().IsDir() {
		return fs.MkdirAll(target, 0755)
	}

	if err := fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	// Archives written by other tools don't always record permissions.
	perm := zf.Mode().Perm()
	if perm == 0 {
		perm = 0644
	}

	in, err := zf.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// archiveTarget resolves the path that the archive entry `name` should be
// extracted to, and rejects entries that would land outside of `dst`.
func archiveTarget(dst, name string) (string, error) {
	dst = filepath.Clean(dst)
	target := filepath.Join(dst, filepath.FromSlash(name))
	if target != dst && !strings.HasPrefix(target, dst+string(filepath.Separator)) {
		return "", fmt.Errorf("illegal path in archive: %q", name)
	}
	return target, nil
}
