package repo

import (
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	log "github.com/sirupsen/logrus"

	"github.com/sidkik/mcsync/pkg/errors"
)

// TokenEnv is the environment variable holding the access token used for
// HTTPS remotes.
const TokenEnv = "MCSYNC_GIT_TOKEN"

// Mocked for unit testing.
var (
	getenv       = os.Getenv
	sshAgentAuth = func(user string) (transport.AuthMethod, error) {
		return gitssh.NewSSHAgentAuth(user)
	}
)

// authFor picks the credentials for `url`. A nil AuthMethod means that
// go-git's defaults are used.
func authFor(url string) (transport.AuthMethod, error) {
	ep, err := transport.NewEndpoint(url)
	if err != nil {
		return nil, errors.WithContext(err, "parse remote url")
	}

	switch ep.Protocol {
	case "ssh":
		user := ep.User
		if user == "" {
			user = "git"
		}

		auth, err := sshAgentAuth(user)
		if err != nil {
			log.WithError(err).Debug("SSH agent unavailable. " +
				"Falling back to default SSH credentials")
			return nil, nil
		}
		return auth, nil
	case "http", "https":
		token := getenv(TokenEnv)
		if token == "" {
			return nil, nil
		}

		user := ep.User
		if user == "" {
			user = "mcsync"
		}
		return &http.BasicAuth{Username: user, Password: token}, nil
	}
	return nil, nil
}
