package repo

import (
	"context"
	"os"

	billyutil "github.com/go-git/go-billy/v5/util"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/mcsync/pkg/errors"
)

// gitignoreContents keeps extraction scratch space and partially written archives
// out of the repository.
const gitignoreContents = ScratchDir + "/\n" + ArchiveFile + ".tmp\n"

// EnsureBootstrapped makes the sync directory a working copy of the
// configured remote. It's a no-op if the directory is already bound to the
// same repository. Otherwise any existing git metadata is discarded, the
// tracked branch is checked out, and the presence map and .gitignore are
// created and pushed if the remote doesn't have them yet. An empty remote is
// initialized with those two files.
//
// A failed bootstrap can be retried by calling EnsureBootstrapped again.
func (g *Gateway) EnsureBootstrapped(ctx context.Context) error {
	if err := g.fs.MkdirAll(g.dir, 0755); err != nil {
		return errors.WithContext(err, "create sync directory")
	}

	if g.isBootstrapped() {
		log.WithField("dir", g.dir).Debug("Sync directory already bootstrapped")
		return nil
	}

	log.WithFields(log.Fields{
		"dir":    g.dir,
		"remote": g.remoteURL,
	}).Info("Setting up the sync directory")

	// The archive is removed too so that a stale copy from another
	// repository is never committed. It's restored by the checkout if the
	// remote has one.
	for _, stale := range []string{".git", ScratchDir, ArchiveFile} {
		if err := g.fs.RemoveAll(g.Path(stale)); err != nil {
			return errors.WithContext(err, "remove "+stale)
		}
	}

	repo, err := g.init()
	if err != nil {
		return err
	}

	remoteHash, err := g.fetch(ctx, repo)
	emptyRemote := isMissingBranch(err)
	switch {
	case emptyRemote:
		log.WithField("branch", g.branch.Short()).Info(
			"The remote doesn't have the branch yet. Creating it")
	case err != nil:
		return err
	default:
		ref := plumbing.NewHashReference(g.branch, remoteHash)
		if err := repo.Storer.SetReference(ref); err != nil {
			return errors.RepoError{Op: "create branch", Err: err}
		}

		if err := g.resetTo(repo, remoteHash); err != nil {
			return err
		}
	}

	wt, err := repo.Worktree()
	if err != nil {
		return errors.RepoError{Op: "open worktree", Err: err}
	}

	changed, err := g.addInitialFiles(wt)
	if err != nil {
		return err
	}

	if !changed && !emptyRemote {
		return nil
	}

	if err := g.commit(wt); err != nil {
		return err
	}

	if err := g.push(ctx, repo); err != nil {
		// Start over on the next attempt rather than keep a commit the
		// remote refused.
		if rmErr := g.fs.RemoveAll(g.Path(".git")); rmErr != nil {
			log.WithError(rmErr).Warn("Failed to clean up the sync directory")
		}
		return err
	}
	return nil
}

// isBootstrapped returns whether the sync directory is a working copy of the
// configured remote with the tracked branch checked out.
func (g *Gateway) isBootstrapped() bool {
	repo, err := git.PlainOpen(g.dir)
	if err != nil {
		return false
	}

	remote, err := repo.Remote(remoteName)
	if err != nil {
		return false
	}

	urls := remote.Config().URLs
	if len(urls) == 0 || !SameRemote(urls[0], g.remoteURL) {
		log.WithField("current", urls).Debug("Sync directory is bound to a different remote")
		return false
	}

	head, err := repo.Head()
	if err != nil || head.Name() != g.branch {
		return false
	}

	exists, err := afero.Exists(g.fs, g.PresencePath())
	return err == nil && exists
}

// init creates a repository with HEAD on the tracked branch and `origin`
// pointing at the remote.
func (g *Gateway) init() (*git.Repository, error) {
	repo, err := git.PlainInit(g.dir, false)
	if err != nil {
		return nil, errors.RepoError{Op: "init", Err: err}
	}

	head := plumbing.NewSymbolicReference(plumbing.HEAD, g.branch)
	if err := repo.Storer.SetReference(head); err != nil {
		return nil, errors.RepoError{Op: "set HEAD", Err: err}
	}

	_, err = repo.CreateRemote(&config.RemoteConfig{
		Name: remoteName,
		URLs: []string{g.remoteURL},
	})
	if err != nil {
		return nil, errors.RepoError{Op: "add remote", Err: err}
	}

	cfg, err := repo.Config()
	if err != nil {
		return nil, errors.RepoError{Op: "read config", Err: err}
	}

	cfg.Raw.Section("pull").SetOption("rebase", "true")
	if err := repo.SetConfig(cfg); err != nil {
		return nil, errors.RepoError{Op: "write config", Err: err}
	}
	return repo, nil
}

// addInitialFiles creates the presence map and .gitignore if they're missing,
// and stages them. It returns whether anything was staged.
func (g *Gateway) addInitialFiles(wt *git.Worktree) (bool, error) {
	initial := []struct{ name, contents string }{
		{PresenceFile, "{}"},
		{gitignoreFile, gitignoreContents},
	}

	// Paths are relative to the root of the working copy.
	root := wt.Filesystem
	for _, f := range initial {
		_, err := root.Stat(f.name)
		switch {
		case os.IsNotExist(err):
			err := billyutil.WriteFile(root, f.name, []byte(f.contents), 0644)
			if err != nil {
				return false, errors.WithContext(err, "write "+f.name)
			}
		case err != nil:
			return false, errors.WithContext(err, "stat "+f.name)
		}

		// Files left over from a previous working copy are untracked, so
		// they're always staged.
		if _, err := wt.Add(f.name); err != nil {
			return false, errors.RepoError{Op: "add", Err: err}
		}
	}

	status, err := wt.Status()
	if err != nil {
		return false, errors.RepoError{Op: "status", Err: err}
	}

	for _, s := range status {
		if s.Staging != git.Unmodified && s.Staging != git.Untracked {
			return true, nil
		}
	}
	return false, nil
}

// isMissingBranch returns whether a fetch failed because the remote doesn't
// have the tracked branch.
func isMissingBranch(err error) bool {
	if err == nil {
		return false
	}

	var noMatch git.NoMatchingRefSpecError
	return errors.Is(err, transport.ErrEmptyRemoteRepository) ||
		errors.Is(err, plumbing.ErrReferenceNotFound) ||
		errors.As(err, &noMatch)
}
