// Package world converts Minecraft worlds between their on-disk layouts and a
// single portable archive.
//
// A singleplayer world is one directory that stores the nether and the end in
// its DIM-1 and DIM1 sub-folders. A server stores them in sibling folders:
// world, world_nether/DIM-1 and world_the_end/DIM1. Archives keep the layout
// of the world they were packed from, and unpacking reconciles the archive's
// layout with the layout of the destination.
package world

import (
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/mcsync/pkg/errors"
)

// BackupPrefix is prepended to the username to name the backup of a
// singleplayer world that gets replaced by a download.
const BackupPrefix = "backupSync"

// Archiver packs worlds into archives and unpacks them.
type Archiver struct {
	fs afero.Fs

	// scratchDir is where archives are extracted before being moved into
	// place. It's cleared before and after every unpack.
	scratchDir string

	// username names the backup of replaced singleplayer worlds.
	username string
}

// NewArchiver creates an Archiver that extracts into `scratchDir`.
func NewArchiver(fs afero.Fs, scratchDir, username string) *Archiver {
	return &Archiver{fs: fs, scratchDir: scratchDir, username: username}
}

// Pack archives the world in `sourceDir` to `archivePath`, replacing any
// existing archive. No archive is written if the source doesn't have the
// expected layout.
func (a *Archiver) Pack(kind Kind, sourceDir, archivePath string) error {
	var entries []archiveEntry
	switch kind {
	case Server:
		if err := ValidateServerDir(a.fs, sourceDir); err != nil {
			return err
		}
		for _, folder := range ServerFolders {
			entries = append(entries, archiveEntry{
				src:  filepath.Join(sourceDir, folder),
				root: folder,
			})
		}
	default:
		ok, err := isDir(a.fs, sourceDir)
		if err != nil {
			return errors.WithContext(err, "stat source")
		}
		if !ok {
			return errors.FileNotFound{Path: sourceDir}
		}
		entries = []archiveEntry{{src: sourceDir}}
	}

	log.WithFields(log.Fields{
		"kind":    kind,
		"source":  sourceDir,
		"archive": archivePath,
	}).Debug("Packing world")

	// Write to a temporary file so that a failure never leaves a partial
	// archive where the sync directory expects a complete one.
	tmpPath := archivePath + ".tmp"
	if err := writeArchive(a.fs, tmpPath, entries); err != nil {
		if rmErr := a.fs.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			log.WithError(rmErr).Warn("Failed to remove partial archive")
		}
		return errors.WithContext(err, "write archive")
	}

	if err := a.fs.Rename(tmpPath, archivePath); err != nil {
		return errors.WithContext(err, "move archive into place")
	}
	return nil
}

// Unpack extracts `archivePath` into `destDir`, converting the archive's
// layout into `destKind`. Existing world folders at the destination are
// replaced, not merged. The archive is deleted once it has been applied.
//
// If reconciliation fails partway, the destination may be left partially
// overwritten.
func (a *Archiver) Unpack(archivePath, destDir string, destKind Kind) (err error) {
	logger := log.WithFields(log.Fields{
		"archive": archivePath,
		"dest":    destDir,
	})

	if err := clearDir(a.fs, a.scratchDir); err != nil {
		return errors.WithContext(err, "clear scratch directory")
	}
	defer func() {
		logger.WithField("state", "cleaning up").Debug("Unpack state")
		if clearErr := clearDir(a.fs, a.scratchDir); clearErr != nil {
			if err == nil {
				err = errors.WithContext(clearErr, "clear scratch directory")
			} else {
				logger.WithError(clearErr).Warn("Failed to clear scratch directory")
			}
		}
	}()

	logger.WithField("state", "extracting").Debug("Unpack state")
	if err := extractArchive(a.fs, archivePath, a.scratchDir); err != nil {
		return errors.WithContext(err, "extract")
	}

	logger.WithField("state", "detecting layout").Debug("Unpack state")
	srcKind, err := DetectLayout(a.fs, a.scratchDir)
	if err != nil {
		return errors.WithContext(err, "detect layout")
	}

	logger.WithFields(log.Fields{
		"state": "reconciling",
		"from":  srcKind,
		"to":    destKind,
	}).Debug("Unpack state")

	switch {
	case srcKind == Singleplayer && destKind == Singleplayer:
		err = a.replaceSingleplayer(a.scratchDir, destDir)
	case srcKind == Server && destKind == Singleplayer:
		err = a.serverToSingleplayer(a.scratchDir, destDir)
	case srcKind == Singleplayer && destKind == Server:
		err = singleplayerToServer(a.fs, a.scratchDir, destDir)
	default:
		err = serverToServer(a.fs, a.scratchDir, destDir)
	}
	if err != nil {
		return errors.WithContext(err, "reconcile")
	}

	if err := a.fs.Remove(archivePath); err != nil {
		return errors.WithContext(err, "remove archive")
	}
	return nil
}

// serverToSingleplayer splices the nether and end into the overworld folder,
// and installs the result as the singleplayer world.
func (a *Archiver) serverToSingleplayer(serverDir, destDir string) error {
	overworld := filepath.Join(serverDir, OverworldFolder)
	for _, serverFolder := range []string{NetherFolder, EndFolder} {
		for _, dim := range []string{NetherDimension, EndDimension} {
			src := filepath.Join(serverDir, serverFolder, dim)
			ok, err := isDir(a.fs, src)
			if err != nil {
				return errors.WithContext(err, "stat")
			}
			if !ok {
				continue
			}

			if err := replaceDirectory(a.fs, src, filepath.Join(overworld, dim)); err != nil {
				return errors.WithContext(err, "splice "+serverFolder)
			}
		}
	}
	return a.replaceSingleplayer(overworld, destDir)
}

// replaceSingleplayer backs up the world at `destDir` and replaces it with
// `src`.
func (a *Archiver) replaceSingleplayer(src, destDir string) error {
	if err := a.backup(destDir); err != nil {
		return errors.WithContext(err, "backup")
	}
	return replaceDirectory(a.fs, src, destDir)
}

// backup moves a non-empty world at `dir` next to it under the user's backup
// name, deleting the previous backup.
func (a *Archiver) backup(dir string) error {
	exists, err := isDir(a.fs, dir)
	if err != nil || !exists {
		return err
	}

	empty, err := isEmptyDir(a.fs, dir)
	if err != nil || empty {
		return err
	}

	backupDir := BackupPath(dir, a.username)
	if err := a.fs.RemoveAll(backupDir); err != nil {
		return errors.WithContext(err, "remove old backup")
	}

	log.WithField("backup", backupDir).Info("Backing up your current world")
	return moveDir(a.fs, dir, backupDir)
}

// BackupPath returns where the world at `dir` is backed up to before being
// replaced by a download.
func BackupPath(dir, username string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(dir)), BackupPrefix+username)
}

// singleplayerToServer splits the dimensions out of a singleplayer world into
// the server's dimension folders, and installs the rest as the overworld.
func singleplayerToServer(fs afero.Fs, worldDir, destDir string) error {
	for _, df := range dimensionFolders {
		src := filepath.Join(worldDir, df.dimension)
		ok, err := isDir(fs, src)
		if err != nil {
			return errors.WithContext(err, "stat")
		}
		if !ok {
			continue
		}

		dst := filepath.Join(destDir, df.serverFolder, df.dimension)
		if err := replaceDirectory(fs, src, dst); err != nil {
			return errors.WithContext(err, "split "+df.dimension)
		}
	}
	return replaceDirectory(fs, worldDir, filepath.Join(destDir, OverworldFolder))
}

func serverToServer(fs afero.Fs, serverDir, destDir string) error {
	for _, folder := range ServerFolders {
		err := replaceDirectory(fs, filepath.Join(serverDir, folder),
			filepath.Join(destDir, folder))
		if err != nil {
			return errors.WithContext(err, "replace "+folder)
		}
	}
	return nil
}
