package repo

import (
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/sidkik/mcsync/pkg/errors"
)

// Identity returns the canonical `owner/repo` name of a remote URL. The
// scheme, user, host, port and `.git` suffix are ignored, so the SSH and
// HTTPS URLs of the same repository have the same identity.
func Identity(url string) (string, error) {
	ep, err := transport.NewEndpoint(strings.TrimSpace(url))
	if err != nil {
		return "", errors.WithContext(err, "parse remote url")
	}

	path := strings.Trim(ep.Path, "/")
	path = strings.TrimSuffix(path, ".git")
	path = strings.TrimRight(path, "/")
	if path == "" {
		return "", errors.New("remote url has no repository path")
	}

	parts := strings.Split(path, "/")
	if len(parts) > 2 {
		parts = parts[len(parts)-2:]
	}
	return strings.Join(parts, "/"), nil
}

// SameRemote returns whether `a` and `b` refer to the same repository.
// Unparsable URLs are never the same.
func SameRemote(a, b string) bool {
	aID, err := Identity(a)
	if err != nil {
		return false
	}

	bID, err := Identity(b)
	if err != nil {
		return false
	}
	return strings.EqualFold(aID, bID)
}
