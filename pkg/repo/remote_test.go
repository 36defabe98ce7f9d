package repo

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/assert"

	"github.com/sidkik/mcsync/pkg/errors"
)

func TestIdentity(t *testing.T) {
	tests := []struct {
		url, exp string
	}{
		{"git@github.com:alice/world.git", "alice/world"},
		{"https://github.com/alice/world", "alice/world"},
		{"https://github.com/alice/world.git/", "alice/world"},
		{"ssh://git@github.com:22/alice/world.git", "alice/world"},
		{"https://user@gitlab.com/group/sub/world.git", "sub/world"},
		{"/srv/git/world.git", "git/world"},
		{"world", "world"},
	}

	for _, test := range tests {
		id, err := Identity(test.url)
		assert.NoError(t, err, test.url)
		assert.Equal(t, test.exp, id, test.url)
	}
}

func TestSameRemote(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		exp  bool
	}{
		{
			name: "SSHAndHTTPS",
			a:    "git@github.com:Alice/World.git",
			b:    "https://github.com/alice/world",
			exp:  true,
		},
		{
			name: "DifferentRepo",
			a:    "git@github.com:alice/world.git",
			b:    "git@github.com:alice/server.git",
		},
		{
			name: "DifferentOwner",
			a:    "git@github.com:alice/world.git",
			b:    "git@github.com:bob/world.git",
		},
		{
			name: "Unparsable",
			a:    "https://[::1",
			b:    "https://[::1",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.exp, SameRemote(test.a, test.b))
		})
	}
}

type fakeAuth struct{ user string }

func (fakeAuth) Name() string   { return "fake" }
func (fakeAuth) String() string { return "fake" }

func TestAuthFor(t *testing.T) {
	origGetenv, origAgent := getenv, sshAgentAuth
	defer func() {
		getenv, sshAgentAuth = origGetenv, origAgent
	}()

	tests := []struct {
		name     string
		url      string
		token    string
		agentErr error
		exp      transport.AuthMethod
	}{
		{
			name: "SCP",
			url:  "git@github.com:alice/world.git",
			exp:  fakeAuth{"git"},
		},
		{
			name: "SSHUser",
			url:  "ssh://steve@example.com/alice/world.git",
			exp:  fakeAuth{"steve"},
		},
		{
			name:     "NoAgent",
			url:      "git@github.com:alice/world.git",
			agentErr: errors.New("no agent"),
		},
		{
			name:  "HTTPSToken",
			url:   "https://github.com/alice/world",
			token: "secret",
			exp:   &http.BasicAuth{Username: "mcsync", Password: "secret"},
		},
		{
			name: "HTTPSNoToken",
			url:  "https://github.com/alice/world",
		},
		{
			name:  "Local",
			url:   "/srv/git/world.git",
			token: "secret",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			getenv = func(key string) string {
				assert.Equal(t, TokenEnv, key)
				return test.token
			}
			sshAgentAuth = func(user string) (transport.AuthMethod, error) {
				if test.agentErr != nil {
					return nil, test.agentErr
				}
				return fakeAuth{user}, nil
			}

			auth, err := authFor(test.url)
			assert.NoError(t, err)
			assert.Equal(t, test.exp, auth)
		})
	}
}
