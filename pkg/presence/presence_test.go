package presence

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/mcsync/pkg/errors"
	"github.com/sidkik/mcsync/pkg/presence/mocks"
)

const presencePath = "/sync/playerData.json"

func newMockRepo() *mocks.Repo {
	repo := &mocks.Repo{}
	repo.On("PresencePath").Return(presencePath)
	return repo
}

func TestOnlineUsers(t *testing.T) {
	tests := []struct {
		name      string
		contents  *string
		pullErr   error
		expOnline []string
		expError  error
	}{
		{
			name:      "Sorted",
			contents:  strPtr(`{"steve": true, "alex": true, "herobrine": false}`),
			expOnline: []string{"alex", "steve"},
		},
		{
			name:     "NobodyOnline",
			contents: strPtr(`{"steve": false}`),
		},
		{
			name:     "Empty",
			contents: strPtr(`{}`),
		},
		{
			name:     "Null",
			contents: strPtr(`null`),
		},
		{
			name: "Missing",
			expError: errors.DataCorruptError{Path: presencePath,
				Err: errors.New("file does not exist")},
		},
		{
			name:     "PullFailed",
			pullErr:  assert.AnError,
			expError: errors.WithContext(assert.AnError, "pull"),
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if test.contents != nil {
				require.NoError(t, afero.WriteFile(fs, presencePath, []byte(*test.contents), 0644))
			}

			repo := newMockRepo()
			repo.On("Pull", mock.Anything).Return(test.pullErr)

			online, err := New(fs, repo).OnlineUsers(context.Background())
			assert.Equal(t, test.expError, err)
			assert.Equal(t, test.expOnline, online)
			repo.AssertNotCalled(t, "Push", mock.Anything)
		})
	}
}

func TestOnlineUsersCorrupt(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, presencePath, []byte("{not json"), 0644))

	repo := newMockRepo()
	repo.On("Pull", mock.Anything).Return(nil)

	_, err := New(fs, repo).OnlineUsers(context.Background())
	var corrupt errors.DataCorruptError
	assert.True(t, errors.As(err, &corrupt))
	assert.Equal(t, presencePath, corrupt.Path)
}

func TestSetPresenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	repo := newMockRepo()
	repo.On("Pull", mock.Anything).Return(nil)
	repo.On("Push", mock.Anything).Return(nil)
	registry := New(fs, repo)

	// A missing map is created.
	require.NoError(t, registry.SetPresence(ctx, "steve", true))
	online, err := registry.OnlineUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"steve"}, online)

	require.NoError(t, registry.SetPresence(ctx, "alex", true))
	require.NoError(t, registry.SetPresence(ctx, "steve", false))
	online, err = registry.OnlineUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alex"}, online)

	contents, err := afero.ReadFile(fs, presencePath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"alex": true, "steve": false}`, string(contents))

	repo.AssertNumberOfCalls(t, "Push", 3)
	repo.AssertNumberOfCalls(t, "Pull", 5)
}

func TestSetPresenceUnchanged(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		online   bool
		expPush  bool
	}{
		{
			name:     "LeftoverOnline",
			contents: `{"steve": true}`,
			online:   true,
		},
		{
			name:     "AlreadyOffline",
			contents: `{"steve": false, "alex": true}`,
			online:   false,
		},
		{
			name:     "NotListed",
			contents: `{"alex": true}`,
			online:   false,
			expPush:  true,
		},
		{
			name:     "Null",
			contents: `null`,
			online:   true,
			expPush:  true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, presencePath, []byte(test.contents), 0644))

			repo := newMockRepo()
			repo.On("Pull", mock.Anything).Return(nil)
			repo.On("Push", mock.Anything).Return(nil)

			require.NoError(t, New(fs, repo).SetPresence(context.Background(), "steve", test.online))
			if test.expPush {
				repo.AssertNumberOfCalls(t, "Push", 1)
				return
			}

			repo.AssertNotCalled(t, "Push", mock.Anything)
			contents, err := afero.ReadFile(fs, presencePath)
			require.NoError(t, err)
			assert.Equal(t, test.contents, string(contents))
		})
	}
}

func TestSetPresenceErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("PullFailed", func(t *testing.T) {
		repo := newMockRepo()
		repo.On("Pull", mock.Anything).Return(assert.AnError)

		err := New(afero.NewMemMapFs(), repo).SetPresence(ctx, "steve", true)
		assert.Equal(t, errors.WithContext(assert.AnError, "pull"), err)
		repo.AssertNotCalled(t, "Push", mock.Anything)
	})

	t.Run("Corrupt", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, presencePath, []byte("[]"), 0644))
		repo := newMockRepo()
		repo.On("Pull", mock.Anything).Return(nil)

		err := New(fs, repo).SetPresence(ctx, "steve", true)
		var corrupt errors.DataCorruptError
		assert.True(t, errors.As(err, &corrupt))
		repo.AssertNotCalled(t, "Push", mock.Anything)
	})

	t.Run("PushRejected", func(t *testing.T) {
		rejected := errors.RepoError{Op: "push", Err: errors.ErrPushRejected}
		repo := newMockRepo()
		repo.On("Pull", mock.Anything).Return(nil)
		repo.On("Push", mock.Anything).Return(rejected).Once()

		err := New(afero.NewMemMapFs(), repo).SetPresence(ctx, "steve", true)
		assert.Equal(t, errors.WithContext(rejected, "push"), err)
		assert.True(t, errors.Is(err, errors.ErrPushRejected))
		repo.AssertNumberOfCalls(t, "Push", 1)
	})
}

func TestOthersOnline(t *testing.T) {
	assert.Equal(t, []string{"alex"}, OthersOnline([]string{"alex", "steve"}, "steve"))
	assert.Empty(t, OthersOnline([]string{"steve"}, "steve"))
	assert.Empty(t, OthersOnline(nil, "steve"))
}

func strPtr(s string) *string {
	return &s
}
