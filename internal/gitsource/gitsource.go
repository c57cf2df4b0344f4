// Package gitsource keeps a local checkout of a documentation repository.
//
// The first fetch clones the repository below the workspace; later fetches
// update the same checkout and hard-reset it to the remote branch. The
// checkout is a cache: local changes in it are discarded.
package gitsource

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/docrender/internal/config"
	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
	"git.home.luguber.info/inful/docrender/internal/logfields"
	"git.home.luguber.info/inful/docrender/internal/retry"
)

// Checkout is the result of a fetch.
type Checkout struct {
	Dir    string // root of the working tree
	Branch string
	Commit string
}

// Fetcher clones and updates repositories below a workspace directory.
type Fetcher struct {
	workspace string
	retry     retry.Policy
}

// NewFetcher creates a fetcher keeping its checkouts below workspace.
// Transient clone and fetch failures are retried with policy.
func NewFetcher(workspace string, policy retry.Policy) *Fetcher {
	return &Fetcher{workspace: workspace, retry: policy}
}

// Fetch brings the checkout of repo up to date with its remote branch.
func (f *Fetcher) Fetch(ctx context.Context, repo config.RepositoryConfig) (*Checkout, error) {
	dir := filepath.Join(f.workspace, checkoutName(repo.URL))

	var co *Checkout
	err := f.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		if _, statErr := os.Stat(filepath.Join(dir, ".git")); statErr == nil {
			co, err = update(ctx, dir, repo)
		} else {
			co, err = clone(ctx, dir, repo)
		}
		if err != nil && isPermanent(err) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		return nil, classify(repo.URL, err)
	}
	slog.Info("Source repository ready",
		logfields.URL(repo.URL),
		slog.String("branch", co.Branch),
		slog.String("commit", shortHash(co.Commit)),
		logfields.Path(co.Dir))
	return co, nil
}

func clone(ctx context.Context, dir string, repo config.RepositoryConfig) (*Checkout, error) {
	slog.Debug("Cloning source repository", logfields.URL(repo.URL), logfields.Path(dir))
	if err := os.RemoveAll(dir); err != nil {
		return nil, err
	}
	opts := &git.CloneOptions{URL: repo.URL, Auth: auth(repo), Depth: repo.Depth, Tags: git.NoTags}
	if repo.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(repo.Branch)
		opts.SingleBranch = true
	}
	r, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	return checkout(dir, r)
}

func update(ctx context.Context, dir string, repo config.RepositoryConfig) (*Checkout, error) {
	r, err := git.PlainOpen(dir)
	if err != nil {
		return nil, err
	}
	err = r.FetchContext(ctx, &git.FetchOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   []ggitcfg.RefSpec{"+refs/heads/*:refs/remotes/origin/*"},
		Auth:       auth(repo),
		Depth:      repo.Depth,
		Tags:       git.NoTags,
		Force:      true,
	})
	if err != nil && !stderrors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil, err
	}

	branch := repo.Branch
	if branch == "" {
		head, err := r.Head()
		if err != nil {
			return nil, err
		}
		branch = head.Name().Short()
	}
	remote, err := r.Reference(plumbing.NewRemoteReferenceName(git.DefaultRemoteName, branch), true)
	if err != nil {
		return nil, err
	}
	wt, err := r.Worktree()
	if err != nil {
		return nil, err
	}
	opts := &git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(branch), Force: true}
	if !hasBranch(r, branch) {
		opts.Hash = remote.Hash()
		opts.Create = true
	}
	if err := wt.Checkout(opts); err != nil {
		return nil, err
	}
	if err := wt.Reset(&git.ResetOptions{Commit: remote.Hash(), Mode: git.HardReset}); err != nil {
		return nil, err
	}
	return checkout(dir, r)
}

func hasBranch(r *git.Repository, branch string) bool {
	_, err := r.Reference(plumbing.NewBranchReferenceName(branch), false)
	return err == nil
}

func checkout(dir string, r *git.Repository) (*Checkout, error) {
	head, err := r.Head()
	if err != nil {
		return nil, err
	}
	return &Checkout{Dir: dir, Branch: head.Name().Short(), Commit: head.Hash().String()}, nil
}

func auth(repo config.RepositoryConfig) transport.AuthMethod {
	if repo.Token == "" {
		return nil
	}
	user := repo.Username
	if user == "" {
		user = "token"
	}
	return &http.BasicAuth{Username: user, Password: repo.Token}
}

// checkoutName derives a stable directory name from a repository URL.
func checkoutName(url string) string {
	trimmed := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	if i := strings.LastIndexAny(trimmed, ":/"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	name := path.Clean(trimmed)
	if name == "." || name == "" || name == ".." {
		return "source"
	}
	return name
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}

// isPermanent reports failures a retry cannot fix.
func isPermanent(err error) bool {
	var noRef git.NoMatchingRefSpecError
	switch {
	case stderrors.As(err, &noRef):
		return true
	case stderrors.Is(err, transport.ErrAuthenticationRequired),
		stderrors.Is(err, transport.ErrAuthorizationFailed),
		stderrors.Is(err, transport.ErrRepositoryNotFound),
		stderrors.Is(err, transport.ErrEmptyRemoteRepository),
		stderrors.Is(err, plumbing.ErrReferenceNotFound):
		return true
	}
	return false
}

func classify(url string, err error) error {
	category := errors.CategoryRuntime
	if isPermanent(err) {
		category = errors.CategoryConfig
	}
	return errors.WrapError(err, category, "cannot fetch source repository").
		WithContext("url", url).
		Build()
}
