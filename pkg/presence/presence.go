// Package presence tracks which players are currently playing the shared
// world. The registry is a JSON map from username to an online flag that
// lives in the sync directory, so every read pulls first and every write is
// pushed.
//
// Checking who's online and then flagging yourself online aren't atomic. Two
// players that start at the same moment can both pass the check; the loser's
// push is rejected by the remote.
package presence

import (
	"context"
	"encoding/json"
	"os"
	"sort"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/mcsync/pkg/errors"
)

//go:generate mockery -name Repo

// Repo is the subset of the repository gateway that the registry needs.
type Repo interface {
	Pull(ctx context.Context) error
	Push(ctx context.Context) error
	PresencePath() string
}

// Registry reads and writes the presence map.
type Registry struct {
	fs   afero.Fs
	repo Repo
}

// New creates a Registry backed by the presence map in `repo`.
func New(fs afero.Fs, repo Repo) *Registry {
	return &Registry{fs: fs, repo: repo}
}

// OnlineUsers pulls and returns the sorted names of every user flagged
// online. A missing or unparsable presence map is a DataCorruptError.
func (r *Registry) OnlineUsers(ctx context.Context) ([]string, error) {
	if err := r.repo.Pull(ctx); err != nil {
		return nil, errors.WithContext(err, "pull")
	}

	presence, err := r.read()
	if err != nil {
		return nil, err
	}
	if presence == nil {
		return nil, errors.DataCorruptError{Path: r.repo.PresencePath(),
			Err: errors.New("file does not exist")}
	}

	var online []string
	for user, isOnline := range presence {
		if isOnline {
			online = append(online, user)
		}
	}
	sort.Strings(online)
	return online, nil
}

// SetPresence pulls, flags `username` as online or offline, and pushes.
// Nothing is pushed if the flag already has that value. A rejected push is
// returned rather than retried.
func (r *Registry) SetPresence(ctx context.Context, username string, online bool) error {
	if err := r.repo.Pull(ctx); err != nil {
		return errors.WithContext(err, "pull")
	}

	presence, err := r.read()
	if err != nil {
		return err
	}
	if presence == nil {
		presence = map[string]bool{}
	} else if current, ok := presence[username]; ok && current == online {
		log.WithFields(log.Fields{
			"user":   username,
			"online": online,
		}).Debug("Presence already set")
		return nil
	}

	presence[username] = online
	if err := r.write(presence); err != nil {
		return errors.WithContext(err, "write presence")
	}

	log.WithFields(log.Fields{
		"user":   username,
		"online": online,
	}).Debug("Pushing presence")
	if err := r.repo.Push(ctx); err != nil {
		return errors.WithContext(err, "push")
	}
	return nil
}

// OthersOnline returns the users in `online` other than `self`.
func OthersOnline(online []string, self string) (others []string) {
	for _, user := range online {
		if user != self {
			others = append(others, user)
		}
	}
	return others
}

// read returns the presence map, or nil if it doesn't exist.
func (r *Registry) read() (map[string]bool, error) {
	path := r.repo.PresencePath()
	contents, err := afero.ReadFile(r.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WithContext(err, "read presence")
	}

	presence := map[string]bool{}
	if err := json.Unmarshal(contents, &presence); err != nil {
		return nil, errors.DataCorruptError{Path: path, Err: err}
	}

	// `null` decodes to a nil map.
	if presence == nil {
		presence = map[string]bool{}
	}
	return presence, nil
}

func (r *Registry) write(presence map[string]bool) error {
	contents, err := json.MarshalIndent(presence, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(r.fs, r.repo.PresencePath(), contents, 0644)
}
