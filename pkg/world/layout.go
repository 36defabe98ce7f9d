package world

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/sidkik/mcsync/pkg/errors"
)

// Kind is the on-disk shape of a Minecraft world.
type Kind int

const (
	// Singleplayer is a single world directory with the nether and end
	// stored in its DIM-1 and DIM1 sub-folders.
	Singleplayer Kind = iota

	// Server is a directory containing the world, world_nether and
	// world_the_end folders.
	Server
)

// KindFor returns Server if `server` is true, and Singleplayer otherwise.
func KindFor(server bool) Kind {
	if server {
		return Server
	}
	return Singleplayer
}

func (k Kind) String() string {
	if k == Server {
		return "server"
	}
	return "singleplayer"
}

const (
	// OverworldFolder holds the overworld in a server layout.
	OverworldFolder = "world"
	// NetherFolder holds the nether in a server layout.
	NetherFolder = "world_nether"
	// EndFolder holds the end in a server layout.
	EndFolder = "world_the_end"

	// NetherDimension is the folder the nether is stored in, both inside a
	// singleplayer world and inside NetherFolder.
	NetherDimension = "DIM-1"
	// EndDimension is the folder the end is stored in, both inside a
	// singleplayer world and inside EndFolder.
	EndDimension = "DIM1"
)

// ServerFolders are the folders that make a directory server-shaped.
var ServerFolders = []string{OverworldFolder, NetherFolder, EndFolder}

// dimensionFolders maps the server folder that hosts each dimension to the
// dimension's folder name. Splitting follows the game, which keeps the
// nether in DIM-1 and the end in DIM1, rather than pairing world_nether with
// DIM1. Splicing copies whichever dimension folders each server folder holds,
// so worlds that use the other pairing still end up with both dimensions.
var dimensionFolders = []struct {
	serverFolder, dimension string
}{
	{NetherFolder, NetherDimension},
	{EndFolder, EndDimension},
}

// DetectLayout returns Server if `dir` contains all of ServerFolders, and
// Singleplayer otherwise.
func DetectLayout(fs afero.Fs, dir string) (Kind, error) {
	missing, err := missingServerFolders(fs, dir)
	if err != nil {
		return Singleplayer, err
	}
	return KindFor(len(missing) == 0), nil
}

// ValidateServerDir returns an InvalidLayoutError naming the server folders
// that `dir` doesn't contain.
func ValidateServerDir(fs afero.Fs, dir string) error {
	missing, err := missingServerFolders(fs, dir)
	if err != nil {
		return err
	}
	if len(missing) != 0 {
		return errors.InvalidLayoutError{Path: dir, Missing: missing}
	}
	return nil
}

func missingServerFolders(fs afero.Fs, dir string) (missing []string, err error) {
	for _, folder := range ServerFolders {
		ok, err := isDir(fs, filepath.Join(dir, folder))
		if err != nil {
			return nil, errors.WithContext(err, "stat")
		}
		if !ok {
			missing = append(missing, folder)
		}
	}
	return missing, nil
}

func isDir(fs afero.Fs, path string) (bool, error) {
	fi, err := fs.Stat(path)
	switch {
	case os.IsNotExist(err):
		return false, nil
	case err != nil:
		return false, err
	}
	return fi.IsDir(), nil
}
