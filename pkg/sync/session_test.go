package sync

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
	logrusTest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sidkik/mcsync/pkg/errors"
	notifyMocks "github.com/sidkik/mcsync/pkg/notify/mocks"
	"github.com/sidkik/mcsync/pkg/sync/mocks"
	"github.com/sidkik/mcsync/pkg/world"
)

const (
	archivePath = "/sync/worldData.zip"
	worldDir    = "/saves/World"
	username    = "steve"

	uploadQuestion   = "Would you like to upload your changes?"
	downloadQuestion = "Your world is out of sync. Do you want " +
		"to download the most recent changes from the cloud?"
)

type testSession struct {
	*Session
	repo     *mocks.Repo
	presence *mocks.Presence
	archiver *mocks.Archiver
	waiter   *mocks.GameWaiter
	prompter *mocks.Prompter
	notifier *notifyMocks.Notifier
}

func newTestSession(noConfirm bool) testSession {
	ts := testSession{
		repo:     &mocks.Repo{},
		presence: &mocks.Presence{},
		archiver: &mocks.Archiver{},
		waiter:   &mocks.GameWaiter{},
		prompter: &mocks.Prompter{},
		notifier: &notifyMocks.Notifier{},
	}
	ts.repo.On("ArchivePath").Return(archivePath).Maybe()
	ts.Session = New(Options{
		Username:      username,
		WorldDir:      worldDir,
		Kind:          world.Singleplayer,
		NoConfirm:     noConfirm,
		ConfirmRounds: 3,
	}, Components{
		Repo:     ts.repo,
		Presence: ts.presence,
		Archiver: ts.archiver,
		Waiter:   ts.waiter,
		Prompter: ts.prompter,
		Notifier: ts.notifier,
	})
	return ts
}

// expectSession sets up a session that's up to date, finds nobody else
// online, and plays without errors.
func (ts testSession) expectSession() {
	ts.repo.On("EnsureBootstrapped", mock.Anything).Return(nil)
	ts.repo.On("IsUpToDate", mock.Anything).Return(true, nil)
	ts.waiter.On("WaitForStart", mock.Anything).Return(nil)
	ts.waiter.On("WaitForStop", mock.Anything).Return(nil)
	ts.presence.On("OnlineUsers", mock.Anything).Return([]string{username}, nil)
	ts.presence.On("SetPresence", mock.Anything, username, true).Return(nil)
	ts.presence.On("SetPresence", mock.Anything, username, false).Return(nil)
}

func (ts testSession) expectUpload() {
	ts.archiver.On("Pack", world.Singleplayer, worldDir, archivePath).Return(nil)
	ts.repo.On("Push", mock.Anything).Return(nil)
}

func (ts testSession) assertExpectations(t *testing.T) {
	ts.repo.AssertExpectations(t)
	ts.presence.AssertExpectations(t)
	ts.archiver.AssertExpectations(t)
	ts.waiter.AssertExpectations(t)
	ts.prompter.AssertExpectations(t)
	ts.notifier.AssertExpectations(t)
}

func statesLogged(hook *logrusTest.Hook) (states []State) {
	for _, entry := range hook.AllEntries() {
		if state, ok := entry.Data["state"].(State); ok {
			states = append(states, state)
		}
	}
	return states
}

func TestRun(t *testing.T) {
	hook := logrusTest.NewGlobal()
	defer hook.Reset()
	log.SetLevel(log.DebugLevel)
	defer log.SetLevel(log.InfoLevel)

	ts := newTestSession(true)
	ts.expectSession()
	ts.expectUpload()

	assert.NoError(t, ts.Run(context.Background()))
	ts.assertExpectations(t)
	ts.prompter.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)

	assert.Equal(t, []State{
		Bootstrapping,
		CheckingStaleness,
		WaitingForGameOpen,
		CheckingPresence,
		SignalingOnline,
		WaitingForGameClose,
		SignalingOffline,
		ConfirmingUpload,
		Uploading,
		Idle,
	}, statesLogged(hook))
}

func TestRunConfirmUpload(t *testing.T) {
	tests := []struct {
		name      string
		confirmed bool
		expUpload bool
	}{
		{name: "Confirmed", confirmed: true, expUpload: true},
		{name: "Declined"},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			ts := newTestSession(false)
			ts.expectSession()
			ts.prompter.On("Confirm", uploadQuestion, 3).Return(test.confirmed, nil)
			if test.expUpload {
				ts.expectUpload()
			}

			assert.NoError(t, ts.Run(context.Background()))
			ts.assertExpectations(t)
			if !test.expUpload {
				ts.archiver.AssertNotCalled(t, "Pack", mock.Anything, mock.Anything, mock.Anything)
				ts.repo.AssertNotCalled(t, "Push", mock.Anything)
			}
		})
	}
}

func TestRunStale(t *testing.T) {
	waitErr := errors.New("stop after resolving staleness")
	tests := []struct {
		name        string
		noConfirm   bool
		answer      *bool
		unpackErr   error
		expDownload bool
		expErr      error
	}{
		{
			name:        "NoConfirm",
			noConfirm:   true,
			expDownload: true,
			expErr:      errors.WithContext(waitErr, "wait for game to open"),
		},
		{
			name:        "Accepted",
			answer:      boolPtr(true),
			expDownload: true,
			expErr:      errors.WithContext(waitErr, "wait for game to open"),
		},
		{
			name:   "Declined",
			answer: boolPtr(false),
			expErr: errors.ErrUserAbort,
		},
		{
			name:        "NothingUploaded",
			noConfirm:   true,
			expDownload: true,
			unpackErr: errors.WithContext(
				errors.FileNotFound{Path: archivePath}, "extract"),
			expErr: errors.WithContext(waitErr, "wait for game to open"),
		},
		{
			name:        "UnpackFailed",
			noConfirm:   true,
			expDownload: true,
			unpackErr:   assert.AnError,
			expErr: errors.WithContext(errors.WithContext(
				assert.AnError, "unpack world"), "download"),
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			ts := newTestSession(test.noConfirm)
			ts.repo.On("EnsureBootstrapped", mock.Anything).Return(nil)
			ts.repo.On("IsUpToDate", mock.Anything).Return(false, nil)
			ts.waiter.On("WaitForStart", mock.Anything).Return(waitErr).Maybe()
			if test.answer != nil {
				ts.prompter.On("YesOrNo", downloadQuestion).Return(*test.answer, nil)
			}
			if test.expDownload {
				ts.repo.On("Pull", mock.Anything).Return(nil)
				ts.archiver.On("Unpack", archivePath, worldDir, world.Singleplayer).
					Return(test.unpackErr)
			}

			err := ts.Run(context.Background())
			assert.Equal(t, test.expErr, err)
			ts.assertExpectations(t)
			if !test.expDownload {
				ts.archiver.AssertNotCalled(t, "Unpack", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestRunPresenceGate(t *testing.T) {
	tests := []struct {
		name       string
		online     []string
		onlineErr  error
		notifyErr  error
		expErr     errors.PresenceGateError
		expMessage string
	}{
		{
			name:       "OthersOnline",
			online:     []string{"alex", username, "herobrine"},
			expErr:     errors.PresenceGateError{Online: []string{"alex", "herobrine"}},
			expMessage: "(alex, herobrine) are online! Your changes won't be saved",
		},
		{
			name:      "Unverifiable",
			onlineErr: assert.AnError,
			expErr:    errors.PresenceGateError{Err: assert.AnError},
			expMessage: "Can't verify whether other players are online! " +
				"Your changes won't be saved",
		},
		{
			name:       "NotificationFailed",
			online:     []string{"alex"},
			notifyErr:  assert.AnError,
			expErr:     errors.PresenceGateError{Online: []string{"alex"}},
			expMessage: "(alex) are online! Your changes won't be saved",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			ts := newTestSession(true)
			ts.repo.On("EnsureBootstrapped", mock.Anything).Return(nil)
			ts.repo.On("IsUpToDate", mock.Anything).Return(true, nil)
			ts.waiter.On("WaitForStart", mock.Anything).Return(nil)
			ts.presence.On("OnlineUsers", mock.Anything).Return(test.online, test.onlineErr)
			ts.notifier.On("Notify", test.expMessage, "Minecraft").Return(test.notifyErr)

			err := ts.Run(context.Background())
			assert.Equal(t, test.expErr, err)
			ts.assertExpectations(t)
			ts.presence.AssertNotCalled(t, "SetPresence", mock.Anything, mock.Anything, mock.Anything)
			ts.waiter.AssertNotCalled(t, "WaitForStop", mock.Anything)
		})
	}
}

func TestRunSignalFailures(t *testing.T) {
	t.Run("Online", func(t *testing.T) {
		ts := newTestSession(true)
		ts.repo.On("EnsureBootstrapped", mock.Anything).Return(nil)
		ts.repo.On("IsUpToDate", mock.Anything).Return(true, nil)
		ts.waiter.On("WaitForStart", mock.Anything).Return(nil)
		ts.presence.On("OnlineUsers", mock.Anything).Return(nil, nil)
		ts.presence.On("SetPresence", mock.Anything, username, true).Return(assert.AnError)

		err := ts.Run(context.Background())
		assert.Equal(t, errors.WithContext(assert.AnError, "signal online"), err)
		ts.waiter.AssertNotCalled(t, "WaitForStop", mock.Anything)
	})

	t.Run("Offline", func(t *testing.T) {
		ts := newTestSession(true)
		ts.repo.On("EnsureBootstrapped", mock.Anything).Return(nil)
		ts.repo.On("IsUpToDate", mock.Anything).Return(true, nil)
		ts.waiter.On("WaitForStart", mock.Anything).Return(nil)
		ts.waiter.On("WaitForStop", mock.Anything).Return(nil)
		ts.presence.On("OnlineUsers", mock.Anything).Return(nil, nil)
		ts.presence.On("SetPresence", mock.Anything, username, true).Return(nil)
		ts.presence.On("SetPresence", mock.Anything, username, false).Return(assert.AnError)

		err := ts.Run(context.Background())
		assert.Equal(t, errors.WithContext(assert.AnError, "signal offline"), err)
		ts.archiver.AssertNotCalled(t, "Pack", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRunBootstrapFailed(t *testing.T) {
	ts := newTestSession(true)
	ts.repo.On("EnsureBootstrapped", mock.Anything).Return(assert.AnError)

	err := ts.Run(context.Background())
	assert.Equal(t, errors.WithContext(assert.AnError, "bootstrap sync directory"), err)
	ts.repo.AssertNotCalled(t, "IsUpToDate", mock.Anything)
}

func TestUploadNothingChanged(t *testing.T) {
	ts := newTestSession(true)
	ts.archiver.On("Pack", world.Singleplayer, worldDir, archivePath).Return(nil)
	ts.repo.On("Push", mock.Anything).Return(
		errors.RepoError{Op: "commit", Err: errors.ErrNothingToCommit})

	assert.NoError(t, ts.upload(context.Background()))
}

func TestUploadPushRejected(t *testing.T) {
	rejected := errors.RepoError{Op: "push", Err: errors.ErrPushRejected}
	ts := newTestSession(true)
	ts.archiver.On("Pack", world.Singleplayer, worldDir, archivePath).Return(nil)
	ts.repo.On("Push", mock.Anything).Return(rejected).Once()

	err := ts.upload(context.Background())
	assert.Equal(t, errors.WithContext(rejected, "push"), err)
	assert.Equal(t, "Another player pushed changes before you could.\n"+
		"Consider downloading first, then try again.", errors.GetPrintableMessage(err))
	ts.repo.AssertNumberOfCalls(t, "Push", 1)
}

func TestManualTransfer(t *testing.T) {
	tests := []struct {
		name       string
		download   bool
		noConfirm  bool
		confirmed  bool
		online     []string
		onlineErr  error
		upToDate   bool
		expErr     error
		expWarning string
	}{
		{
			name:      "UploadConfirmed",
			confirmed: true,
			upToDate:  true,
		},
		{
			name:     "UploadDeclined",
			upToDate: true,
			expErr:   errors.ErrUserAbort,
		},
		{
			name:       "UploadWhileOthersOnline",
			noConfirm:  true,
			online:     []string{"alex"},
			upToDate:   true,
			expWarning: "(alex) are online! Your changes won't be saved",
		},
		{
			name:       "UploadUnverifiable",
			noConfirm:  true,
			onlineErr:  assert.AnError,
			upToDate:   true,
			expWarning: "Unable to verify if other players are online. Proceed with caution",
		},
		{
			name:       "UploadStale",
			noConfirm:  true,
			expWarning: "Your world is out of sync with the cloud version! Consider downloading first",
		},
		{
			name:      "DownloadConfirmed",
			download:  true,
			confirmed: true,
		},
		{
			name:     "DownloadDeclined",
			download: true,
			expErr:   errors.ErrUserAbort,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			hook := logrusTest.NewGlobal()
			defer hook.Reset()

			ts := newTestSession(test.noConfirm)
			ts.repo.On("EnsureBootstrapped", mock.Anything).Return(nil)
			ts.repo.On("IsUpToDate", mock.Anything).Return(test.upToDate, nil)
			ts.presence.On("OnlineUsers", mock.Anything).Return(test.online, test.onlineErr)

			op := "upload"
			if test.download {
				op = "download"
			}
			if !test.noConfirm {
				ts.prompter.On("Confirm", "Are you sure you want to "+op+"?", 1).
					Return(test.confirmed, nil)
			}

			expTransfer := test.expErr == nil
			if expTransfer && test.download {
				ts.repo.On("Pull", mock.Anything).Return(nil)
				ts.archiver.On("Unpack", archivePath, worldDir, world.Singleplayer).Return(nil)
			} else if expTransfer {
				ts.expectUpload()
			}

			var err error
			if test.download {
				err = ts.Download(context.Background())
			} else {
				err = ts.Upload(context.Background())
			}
			assert.Equal(t, test.expErr, err)
			ts.assertExpectations(t)

			ts.presence.AssertNotCalled(t, "SetPresence", mock.Anything, mock.Anything, mock.Anything)
			if !expTransfer {
				ts.repo.AssertNotCalled(t, "Push", mock.Anything)
				ts.repo.AssertNotCalled(t, "Pull", mock.Anything)
			}

			var warnings []string
			for _, entry := range hook.AllEntries() {
				if entry.Level == log.WarnLevel {
					warnings = append(warnings, entry.Message)
				}
			}
			if test.expWarning == "" {
				assert.Empty(t, warnings)
			} else {
				assert.Equal(t, []string{test.expWarning}, warnings)
			}
		})
	}
}

func TestManualDownloadNothingUploaded(t *testing.T) {
	ts := newTestSession(true)
	ts.repo.On("EnsureBootstrapped", mock.Anything).Return(nil)
	ts.repo.On("IsUpToDate", mock.Anything).Return(true, nil)
	ts.presence.On("OnlineUsers", mock.Anything).Return(nil, nil)
	ts.repo.On("Pull", mock.Anything).Return(nil)
	ts.archiver.On("Unpack", archivePath, worldDir, world.Singleplayer).Return(
		errors.WithContext(errors.FileNotFound{Path: archivePath}, "extract"))

	err := ts.Download(context.Background())
	assert.True(t, errors.Is(err, errors.ErrNoWorldUploaded), "got %v", err)
}

func boolPtr(b bool) *bool {
	return &b
}
