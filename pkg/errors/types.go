package errors

import (
	"fmt"
	"strings"
)

var (
	// ErrUserAbort is returned when the user declines a confirmation prompt.
	// It ends the current flow without performing an upload or download.
	ErrUserAbort = New("aborted by user")

	// ErrPushRejected is returned when the remote refuses a push because
	// another user pushed first.
	ErrPushRejected = New("push rejected because the remote has changes " +
		"that are not present locally")

	// ErrNothingToCommit is returned when a push is requested but the sync
	// directory has no changes.
	ErrNothingToCommit = New("nothing to commit")

	// ErrNoWorldUploaded is returned when downloading from a repository that
	// doesn't have a world archive yet.
	ErrNoWorldUploaded = New("no world has been uploaded yet")
)

// MissingFieldError represents a missing required field.
type MissingFieldError struct {
	Field string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", err.Field)
}

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// ConfigError represents a missing or invalid field in the local
// configuration. It's always fixable by re-running `mcsync config`.
type ConfigError struct {
	Field  string
	Reason string
}

func (err ConfigError) Error() string {
	return fmt.Sprintf("invalid config field %s: %s", err.Field, err.Reason)
}

func (err ConfigError) FriendlyMessage() string {
	return fmt.Sprintf("Your configuration is invalid (%s): %s\n"+
		"Run `mcsync config` to fix it.", err.Field, err.Reason)
}

// RepoError represents a failed git operation on the sync directory.
type RepoError struct {
	Op  string
	Err error
}

func (err RepoError) Error() string {
	return fmt.Sprintf("git %s: %s", err.Op, err.Err)
}

func (err RepoError) Unwrap() error {
	return err.Err
}

// FriendlyMessage returns a hint for errors the user can act on. Other git
// failures are printed with their full context.
func (err RepoError) FriendlyMessage() string {
	switch {
	case Is(err.Err, ErrPushRejected):
		return "Another player pushed changes before you could.\n" +
			"Consider downloading first, then try again."
	case Is(err.Err, ErrNothingToCommit):
		return "There is nothing new to upload."
	}
	return ""
}

// InvalidLayoutError represents a directory or archive that doesn't have the
// expected singleplayer or server shape.
type InvalidLayoutError struct {
	Path    string
	Missing []string
}

func (err InvalidLayoutError) Error() string {
	return fmt.Sprintf("%q is missing the required sub folders: %s",
		err.Path, strings.Join(err.Missing, ", "))
}

func (err InvalidLayoutError) FriendlyMessage() string {
	return fmt.Sprintf("The server directory %q is missing the required "+
		"sub folders: %s", err.Path, strings.Join(err.Missing, ", "))
}

// DataCorruptError represents a presence file that is missing or can't be
// parsed after a successful pull.
type DataCorruptError struct {
	Path string
	Err  error
}

func (err DataCorruptError) Error() string {
	if err.Err == nil {
		return fmt.Sprintf("presence data %q is corrupt", err.Path)
	}
	return fmt.Sprintf("presence data %q is corrupt: %s", err.Path, err.Err)
}

func (err DataCorruptError) Unwrap() error {
	return err.Err
}

// PresenceGateError is returned when it's not safe to start playing: either
// other players are online, or their presence couldn't be verified. It's a
// fatal condition rather than a recoverable error.
type PresenceGateError struct {
	Online []string
	Err    error
}

func (err PresenceGateError) Error() string {
	return err.FriendlyMessage()
}

func (err PresenceGateError) Unwrap() error {
	return err.Err
}

func (err PresenceGateError) FriendlyMessage() string {
	if len(err.Online) == 0 {
		return "Can't verify whether other players are online! " +
			"Your changes won't be saved"
	}
	return fmt.Sprintf("(%s) are online! Your changes won't be saved",
		strings.Join(err.Online, ", "))
}
