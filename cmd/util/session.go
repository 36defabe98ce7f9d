package util

import (
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"

	"github.com/sidkik/mcsync/pkg/config"
	"github.com/sidkik/mcsync/pkg/errors"
	"github.com/sidkik/mcsync/pkg/notify"
	"github.com/sidkik/mcsync/pkg/presence"
	"github.com/sidkik/mcsync/pkg/process"
	"github.com/sidkik/mcsync/pkg/prompt"
	"github.com/sidkik/mcsync/pkg/repo"
	"github.com/sidkik/mcsync/pkg/sync"
	"github.com/sidkik/mcsync/pkg/world"
)

// Mocked for unit testing.
var parseUserConfig = config.ParseUser

// SessionOptions are the command line options shared by the commands that
// sync worlds.
type SessionOptions struct {
	Server    bool
	NoConfirm bool
}

// NewSession reads and validates the user config, and builds a sync session
// backed by the real repository, archiver and game process. Nothing on disk
// is modified until the session is run.
func NewSession(opts SessionOptions) (*sync.Session, error) {
	cfg, err := parseUserConfig()
	if err != nil {
		return nil, errors.WithContext(err, "read config")
	}

	if err := cfg.Validate(opts.Server); err != nil {
		return nil, errors.WithContext(err, "validate config")
	}

	gateway, err := repo.New(cfg.SyncDirectory, cfg.RepoLink, cfg.GetBranch(), cfg.Username)
	if err != nil {
		return nil, errors.WithContext(err, "create repository gateway")
	}

	fs := afero.NewOsFs()
	return sync.New(sync.Options{
		Username:      cfg.Username,
		WorldDir:      cfg.WorldDirectory(opts.Server),
		Kind:          world.KindFor(opts.Server),
		NoConfirm:     opts.NoConfirm,
		ConfirmRounds: cfg.GetConfirmRounds(),
	}, sync.Components{
		Repo:     gateway,
		Presence: presence.New(fs, gateway),
		Archiver: world.NewArchiver(fs, gateway.ScratchPath(), cfg.Username),
		Waiter: process.NewWaiter(process.Table{}, clockwork.NewRealClock(),
			cfg.GetProcessName(), cfg.GetPollInterval()),
		Prompter: prompt.New(os.Stdin, os.Stdout),
		Notifier: notify.Desktop{},
	}), nil
}
