// Package repo keeps the sync directory in step with the shared git
// repository. The remote is always authoritative: every read starts by
// resetting the working copy to the remote tip, and every write is a single
// commit pushed on top of it.
package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/mcsync/pkg/errors"
)

const (
	// PresenceFile is the name of the presence map in the sync directory.
	PresenceFile = "playerData.json"

	// ArchiveFile is the name of the world archive in the sync directory.
	ArchiveFile = "worldData.zip"

	// ScratchDir is the folder in the sync directory that archives are
	// extracted into. It's never committed.
	ScratchDir = "worldFiles"

	gitignoreFile = ".gitignore"
	remoteName    = "origin"
	commitMessage = "sync"
)

// Gateway performs git operations on the sync directory.
type Gateway struct {
	fs        afero.Fs
	dir       string
	remoteURL string
	branch    plumbing.ReferenceName
	username  string
	auth      transport.AuthMethod
}

// New creates a Gateway that syncs `dir` with `branch` of `remoteURL`.
// Commits are authored by `username`.
func New(dir, remoteURL, branch, username string) (*Gateway, error) {
	auth, err := authFor(remoteURL)
	if err != nil {
		return nil, errors.WithContext(err, "get credentials")
	}

	return &Gateway{
		fs:        afero.NewOsFs(),
		dir:       dir,
		remoteURL: remoteURL,
		branch:    plumbing.NewBranchReferenceName(branch),
		username:  username,
		auth:      auth,
	}, nil
}

// Path returns the path to `name` within the sync directory.
func (g *Gateway) Path(name string) string {
	return filepath.Join(g.dir, name)
}

// ArchivePath returns the path to the world archive.
func (g *Gateway) ArchivePath() string {
	return g.Path(ArchiveFile)
}

// ScratchPath returns the path to the extraction scratch folder.
func (g *Gateway) ScratchPath() string {
	return g.Path(ScratchDir)
}

// PresencePath returns the path to the presence map.
func (g *Gateway) PresencePath() string {
	return g.Path(PresenceFile)
}

// Pull fetches the tracked branch and hard resets the working copy to it.
// Local changes are discarded.
func (g *Gateway) Pull(ctx context.Context) error {
	repo, err := g.open()
	if err != nil {
		return err
	}

	remoteHash, err := g.fetch(ctx, repo)
	if err != nil {
		return err
	}
	return g.resetTo(repo, remoteHash)
}

// IsUpToDate returns whether the local copy matched the remote tip, and then
// pulls.
func (g *Gateway) IsUpToDate(ctx context.Context) (bool, error) {
	repo, err := g.open()
	if err != nil {
		return false, err
	}

	head, err := repo.Reference(g.branch, true)
	if err != nil {
		return false, errors.RepoError{Op: "resolve HEAD", Err: err}
	}

	remoteHash, err := g.fetch(ctx, repo)
	if err != nil {
		return false, err
	}

	upToDate := head.Hash() == remoteHash
	log.WithFields(log.Fields{
		"local":  head.Hash(),
		"remote": remoteHash,
	}).Debug("Checked for remote changes")

	if err := g.resetTo(repo, remoteHash); err != nil {
		return false, err
	}
	return upToDate, nil
}

// Push commits every change in the sync directory and pushes it. It fails
// with ErrNothingToCommit if nothing changed, and with ErrPushRejected if
// someone else pushed first. Failed pushes are not retried. After a
// rejection the tracked branch is moved back to where it was, and the
// changes are left in the working copy.
func (g *Gateway) Push(ctx context.Context) error {
	repo, err := g.open()
	if err != nil {
		return err
	}

	before, err := repo.Reference(g.branch, true)
	if err != nil {
		return errors.RepoError{Op: "resolve HEAD", Err: err}
	}

	wt, err := repo.Worktree()
	if err != nil {
		return errors.RepoError{Op: "open worktree", Err: err}
	}

	patterns, err := gitignore.ReadPatterns(wt.Filesystem, nil)
	if err != nil {
		return errors.RepoError{Op: "read .gitignore", Err: err}
	}
	wt.Excludes = append(wt.Excludes, patterns...)

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return errors.RepoError{Op: "add", Err: err}
	}

	status, err := wt.Status()
	if err != nil {
		return errors.RepoError{Op: "status", Err: err}
	}
	if status.IsClean() {
		return errors.RepoError{Op: "commit", Err: errors.ErrNothingToCommit}
	}

	if err := g.commit(wt); err != nil {
		return err
	}

	err = g.push(ctx, repo)
	if errors.Is(err, errors.ErrPushRejected) {
		if resetErr := g.unwindCommit(wt, before.Hash()); resetErr != nil {
			log.WithError(resetErr).Warn("Failed to undo the rejected commit")
		}
	}
	return err
}

// unwindCommit points the tracked branch back at `hash` without touching the
// working copy. A local commit the remote never accepted would otherwise be
// offered to the remote during the next fetch.
func (g *Gateway) unwindCommit(wt *git.Worktree, hash plumbing.Hash) error {
	err := wt.Reset(&git.ResetOptions{Commit: hash, Mode: git.MixedReset})
	if err != nil {
		return errors.RepoError{Op: "reset", Err: err}
	}
	return nil
}

func (g *Gateway) open() (*git.Repository, error) {
	repo, err := git.PlainOpen(g.dir)
	if err != nil {
		return nil, errors.RepoError{Op: "open", Err: err}
	}
	return repo, nil
}

func (g *Gateway) refSpec() config.RefSpec {
	remoteRef := plumbing.NewRemoteReferenceName(remoteName, g.branch.Short())
	return config.RefSpec(fmt.Sprintf("+%s:%s", g.branch, remoteRef))
}

// fetch updates the remote-tracking ref of the tracked branch and returns
// the commit it points to.
func (g *Gateway) fetch(ctx context.Context, repo *git.Repository) (plumbing.Hash, error) {
	if err := g.dropUnpushed(repo); err != nil {
		return plumbing.ZeroHash, err
	}

	err := repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remoteName,
		RefSpecs:   []config.RefSpec{g.refSpec()},
		Auth:       g.auth,
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return plumbing.ZeroHash, errors.RepoError{Op: "fetch", Err: err}
	}

	remoteRef := plumbing.NewRemoteReferenceName(remoteName, g.branch.Short())
	ref, err := repo.Reference(remoteRef, true)
	if err != nil {
		return plumbing.ZeroHash, errors.RepoError{Op: "fetch", Err: err}
	}
	return ref.Hash(), nil
}

// dropUnpushed moves the tracked branch back to the last known remote tip if
// it has diverged from it. Fetching with commits the remote doesn't have
// fails, and the working copy is reset to the remote right after anyway.
func (g *Gateway) dropUnpushed(repo *git.Repository) error {
	remoteRef := plumbing.NewRemoteReferenceName(remoteName, g.branch.Short())
	tracking, err := repo.Reference(remoteRef, true)
	if err == plumbing.ErrReferenceNotFound {
		return nil
	} else if err != nil {
		return errors.RepoError{Op: "resolve " + remoteRef.Short(), Err: err}
	}

	local, err := repo.Reference(g.branch, true)
	if err == nil && local.Hash() == tracking.Hash() {
		return nil
	}

	log.WithField("remote", tracking.Hash()).Debug("Dropping unpushed local commits")
	ref := plumbing.NewHashReference(g.branch, tracking.Hash())
	if err := repo.Storer.SetReference(ref); err != nil {
		return errors.RepoError{Op: "reset branch", Err: err}
	}
	return nil
}

// resetTo points the tracked branch at `hash`, and makes the index and
// working copy match it.
func (g *Gateway) resetTo(repo *git.Repository, hash plumbing.Hash) error {
	wt, err := repo.Worktree()
	if err != nil {
		return errors.RepoError{Op: "open worktree", Err: err}
	}

	err = wt.Reset(&git.ResetOptions{Commit: hash, Mode: git.HardReset})
	if err != nil {
		return errors.RepoError{Op: "reset", Err: err}
	}
	return nil
}

func (g *Gateway) commit(wt *git.Worktree) error {
	_, err := wt.Commit(commitMessage, &git.CommitOptions{
		All:    true,
		Author: g.signature(),
	})
	if err != nil {
		return errors.RepoError{Op: "commit", Err: err}
	}
	return nil
}

func (g *Gateway) push(ctx context.Context, repo *git.Repository) error {
	err := repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []config.RefSpec{config.RefSpec(fmt.Sprintf("%s:%s", g.branch, g.branch))},
		Auth:       g.auth,
	})
	switch {
	case err == nil, err == git.NoErrAlreadyUpToDate:
		log.WithField("branch", g.branch.Short()).Debug("Pushed")
		return nil
	case isRejection(err):
		log.WithError(err).Debug("Push rejected")
		return errors.RepoError{Op: "push", Err: errors.ErrPushRejected}
	default:
		return errors.RepoError{Op: "push", Err: err}
	}
}

// isRejection returns whether a push failed because the remote has commits
// that aren't present locally. The remote's commit is usually unknown to the
// local object store, in which case the fast-forward check can't find it.
func isRejection(err error) bool {
	return errors.Is(err, plumbing.ErrObjectNotFound) ||
		strings.Contains(err.Error(), "non-fast-forward") ||
		strings.Contains(err.Error(), "fetch first")
}

func (g *Gateway) signature() *object.Signature {
	return &object.Signature{
		Name:  g.username,
		Email: g.username + "@mcsync",
		When:  time.Now(),
	}
}
