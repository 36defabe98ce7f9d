package sync

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/mcsync/pkg/errors"
	"github.com/sidkik/mcsync/pkg/notify"
	"github.com/sidkik/mcsync/pkg/presence"
	"github.com/sidkik/mcsync/pkg/world"
)

//go:generate mockery -name Repo
//go:generate mockery -name Presence
//go:generate mockery -name Archiver
//go:generate mockery -name GameWaiter
//go:generate mockery -name Prompter

// Repo syncs the sync directory with the shared repository.
type Repo interface {
	EnsureBootstrapped(ctx context.Context) error
	IsUpToDate(ctx context.Context) (bool, error)
	Pull(ctx context.Context) error
	Push(ctx context.Context) error
	ArchivePath() string
}

// Presence tracks which players are online.
type Presence interface {
	OnlineUsers(ctx context.Context) ([]string, error)
	SetPresence(ctx context.Context, username string, online bool) error
}

// Archiver converts worlds to and from archives.
type Archiver interface {
	Pack(kind world.Kind, sourceDir, archivePath string) error
	Unpack(archivePath, destDir string, destKind world.Kind) error
}

// GameWaiter blocks until the game starts or stops.
type GameWaiter interface {
	WaitForStart(ctx context.Context) error
	WaitForStop(ctx context.Context) error
}

// Prompter asks the user for confirmation.
type Prompter interface {
	YesOrNo(question string) (bool, error)
	Confirm(question string, rounds int) (bool, error)
}

// Options configures a Session.
type Options struct {
	// Username identifies the player in the presence map.
	Username string

	// WorldDir is the world that's uploaded and downloaded.
	WorldDir string
	Kind     world.Kind

	// NoConfirm skips every confirmation, and resolves a stale world by
	// downloading.
	NoConfirm bool

	// ConfirmRounds is how many escalating confirmations are asked before
	// an automatic upload.
	ConfirmRounds int
}

// Components are the collaborators a Session drives.
type Components struct {
	Repo     Repo
	Presence Presence
	Archiver Archiver
	Waiter   GameWaiter
	Prompter Prompter
	Notifier notify.Notifier
}

// Session syncs a single world.
type Session struct {
	Options
	Components
}

// New creates a Session.
func New(opts Options, components Components) *Session {
	return &Session{Options: opts, Components: components}
}

// State names the step that a Session is in. It's attached to debug logs.
type State string

// The states that Run, Upload and Download move through.
const (
	Bootstrapping       State = "bootstrapping"
	CheckingStaleness   State = "checking staleness"
	ResolvingStaleness  State = "resolving staleness"
	WaitingForGameOpen  State = "waiting for game open"
	CheckingPresence    State = "checking presence"
	SignalingOnline     State = "signaling online"
	WaitingForGameClose State = "waiting for game close"
	SignalingOffline    State = "signaling offline"
	ConfirmingUpload    State = "confirming upload"
	Uploading           State = "uploading"
	Downloading         State = "downloading"
	Idle                State = "idle"
)

func setState(state State) {
	log.WithField("state", state).Debug("Sync state")
}

// Run performs the automatic flow: download if stale, wait for the game to
// open and close while flagged online, and then upload.
//
// It returns ErrUserAbort if the user declines to resolve a stale world, and
// a PresenceGateError if another player is online or presence can't be
// verified.
func (s *Session) Run(ctx context.Context) error {
	setState(Bootstrapping)
	if err := s.Repo.EnsureBootstrapped(ctx); err != nil {
		return errors.WithContext(err, "bootstrap sync directory")
	}

	setState(CheckingStaleness)
	upToDate, err := s.Repo.IsUpToDate(ctx)
	if err != nil {
		return errors.WithContext(err, "check for remote changes")
	}

	if !upToDate {
		setState(ResolvingStaleness)
		if err := s.resolveStaleness(ctx); err != nil {
			return err
		}
	}

	setState(WaitingForGameOpen)
	log.Info("Waiting for Minecraft to open...")
	if err := s.Waiter.WaitForStart(ctx); err != nil {
		return errors.WithContext(err, "wait for game to open")
	}

	setState(CheckingPresence)
	if err := s.checkPresence(ctx); err != nil {
		return err
	}

	setState(SignalingOnline)
	if err := s.Presence.SetPresence(ctx, s.Username, true); err != nil {
		return errors.WithContext(err, "signal online")
	}

	setState(WaitingForGameClose)
	log.Info("Waiting for Minecraft to close...")
	if err := s.Waiter.WaitForStop(ctx); err != nil {
		return errors.WithContext(err, "wait for game to close")
	}

	setState(SignalingOffline)
	if err := s.Presence.SetPresence(ctx, s.Username, false); err != nil {
		return errors.WithContext(err, "signal offline")
	}

	setState(ConfirmingUpload)
	if !s.NoConfirm {
		ok, err := s.Prompter.Confirm("Would you like to upload your changes?",
			s.ConfirmRounds)
		if err != nil {
			return errors.WithContext(err, "confirm upload")
		}

		if !ok {
			log.Info("Exiting without saving your changes...")
			setState(Idle)
			return nil
		}
	}

	setState(Uploading)
	if err := s.upload(ctx); err != nil {
		return errors.WithContext(err, "upload")
	}

	setState(Idle)
	return nil
}

func (s *Session) resolveStaleness(ctx context.Context) error {
	if s.NoConfirm {
		log.Info("Your world is out of sync. Retrieving data from the cloud...")
	} else {
		ok, err := s.Prompter.YesOrNo("Your world is out of sync. Do you want " +
			"to download the most recent changes from the cloud?")
		if err != nil {
			return errors.WithContext(err, "confirm download")
		}
		if !ok {
			return errors.ErrUserAbort
		}
	}

	setState(Downloading)
	err := s.download(ctx)
	if errors.Is(err, errors.ErrNoWorldUploaded) {
		log.Info("Nobody has uploaded a world yet. Keeping your current world")
		return nil
	}
	return errors.WithContext(err, "download")
}

// checkPresence returns a PresenceGateError if it's not safe to start
// playing. The user is notified before the error is returned.
func (s *Session) checkPresence(ctx context.Context) error {
	online, err := s.Presence.OnlineUsers(ctx)
	if err != nil {
		log.WithError(err).Debug("Failed to get online users")
		gateErr := errors.PresenceGateError{Err: err}
		notify.BestEffort(s.Notifier, gateErr.FriendlyMessage(), "Minecraft")
		return gateErr
	}

	if others := presence.OthersOnline(online, s.Username); len(others) > 0 {
		gateErr := errors.PresenceGateError{Online: others}
		notify.BestEffort(s.Notifier, gateErr.FriendlyMessage(), "Minecraft")
		return gateErr
	}
	return nil
}

// Upload performs the manual upload flow.
func (s *Session) Upload(ctx context.Context) error {
	return s.transfer(ctx, "upload", Uploading, s.upload)
}

// Download performs the manual download flow.
func (s *Session) Download(ctx context.Context) error {
	return s.transfer(ctx, "download", Downloading, s.download)
}

func (s *Session) transfer(ctx context.Context, op string, state State,
	fn func(context.Context) error) error {

	setState(Bootstrapping)
	if err := s.Repo.EnsureBootstrapped(ctx); err != nil {
		return errors.WithContext(err, "bootstrap sync directory")
	}

	setState(CheckingPresence)
	online, err := s.Presence.OnlineUsers(ctx)
	if err != nil {
		log.WithError(err).Debug("Failed to get online users")
		log.Warn("Unable to verify if other players are online. Proceed with caution")
	} else if others := presence.OthersOnline(online, s.Username); len(others) > 0 {
		log.Warn(errors.PresenceGateError{Online: others}.FriendlyMessage())
	}

	setState(CheckingStaleness)
	upToDate, err := s.Repo.IsUpToDate(ctx)
	if err != nil {
		return errors.WithContext(err, "check for remote changes")
	}
	if !upToDate && op == "upload" {
		log.Warn("Your world is out of sync with the cloud version! " +
			"Consider downloading first")
	}

	if !s.NoConfirm {
		ok, err := s.Prompter.Confirm(fmt.Sprintf("Are you sure you want to %s?", op), 1)
		if err != nil {
			return errors.WithContext(err, "confirm "+op)
		}
		if !ok {
			log.Info("Exiting...")
			return errors.ErrUserAbort
		}
	}

	setState(state)
	if err := fn(ctx); err != nil {
		return errors.WithContext(err, op)
	}

	setState(Idle)
	return nil
}

func (s *Session) upload(ctx context.Context) error {
	log.Info("Uploading changes to the cloud...")
	if err := s.Archiver.Pack(s.Kind, s.WorldDir, s.Repo.ArchivePath()); err != nil {
		return errors.WithContext(err, "pack world")
	}

	err := s.Repo.Push(ctx)
	switch {
	case errors.Is(err, errors.ErrNothingToCommit):
		log.Info("Your world hasn't changed since it was last uploaded")
		return nil
	case err != nil:
		return errors.WithContext(err, "push")
	}
	log.Info("Uploaded your world")
	return nil
}

func (s *Session) download(ctx context.Context) error {
	log.Info("Downloading from the cloud...")
	if err := s.Repo.Pull(ctx); err != nil {
		return errors.WithContext(err, "pull")
	}

	err := s.Archiver.Unpack(s.Repo.ArchivePath(), s.WorldDir, s.Kind)
	if err != nil {
		var notFound errors.FileNotFound
		if errors.As(err, &notFound) && notFound.Path == s.Repo.ArchivePath() {
			return errors.ErrNoWorldUploaded
		}
		return errors.WithContext(err, "unpack world")
	}
	log.Info("Downloaded the latest world")
	return nil
}
