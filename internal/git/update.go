package git

import (
	"errors"
	"fmt"
	"log/slog"

	appcfg "git.home.luguber.info/inful/coursebuilder/internal/config"
	"git.home.luguber.info/inful/coursebuilder/internal/logfields"
	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// refreshClone brings an already-cloned repository up to date with its
// remote. The local branch only ever moves to the remote tip: a
// fast-forward is applied directly, and a diverged branch is an error
// unless the sync config permits a hard reset.
func (c *Client) refreshClone(repoPath string, repo appcfg.Repository) (string, error) {
	repository, err := git.PlainOpen(repoPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", repoPath, err)
	}
	slog.Info("Refreshing repository", logfields.Name(repo.Name), logfields.Path(repoPath))

	if err := c.fetchRemote(repository, repo); err != nil {
		return "", classifyFetchError(repo.URL, err)
	}

	branch := targetBranch(repository, repo)
	if err := c.alignBranch(repository, repo, branch); err != nil {
		return "", err
	}

	if head, herr := repository.Head(); herr == nil {
		slog.Info("Repository updated",
			logfields.Name(repo.Name),
			slog.String("branch", branch),
			slog.String("commit", shortHash(head.Hash())))
	}
	return repoPath, nil
}

func (c *Client) fetchRemote(repository *git.Repository, repo appcfg.Repository) error {
	opts := &git.FetchOptions{
		RemoteName: "origin",
		RefSpecs:   []ggitcfg.RefSpec{"+refs/heads/*:refs/remotes/origin/*"},
		Tags:       git.NoTags,
	}
	if c.syncCfg != nil && c.syncCfg.ShallowDepth > 0 {
		opts.Depth = c.syncCfg.ShallowDepth
	}
	if repo.Auth != nil {
		method, err := c.getAuthentication(repo.Auth)
		if err != nil {
			return err
		}
		opts.Auth = method
	}
	if err := repository.Fetch(opts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetch: %w", err)
	}
	return nil
}

// targetBranch picks the branch to sync: the configured branch wins,
// then whatever branch HEAD is on, then the remote's advertised
// default, then "main".
func targetBranch(repository *git.Repository, repo appcfg.Repository) string {
	if repo.Branch != "" {
		return repo.Branch
	}
	if head, err := repository.Head(); err == nil && head.Name().IsBranch() {
		return head.Name().Short()
	}
	originHead, err := repository.Reference("refs/remotes/origin/HEAD", false)
	if err == nil && originHead.Type() == plumbing.SymbolicReference {
		return originHead.Target().Short()
	}
	return "main"
}

// alignBranch checks out the branch and moves it to origin's tip.
func (c *Client) alignBranch(repository *git.Repository, repo appcfg.Repository, branch string) error {
	remoteRef, err := repository.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		return fmt.Errorf("remote ref for %s: %w", branch, err)
	}

	wt, err := repository.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}

	localName := plumbing.NewBranchReferenceName(branch)
	_, lerr := repository.Reference(localName, true)
	checkout := &git.CheckoutOptions{Branch: localName, Create: lerr != nil, Force: true}
	if err := wt.Checkout(checkout); err != nil {
		return fmt.Errorf("checkout %s: %w", branch, err)
	}
	localRef, err := repository.Reference(localName, true)
	if err != nil {
		return fmt.Errorf("local ref for %s: %w", branch, err)
	}

	if localRef.Hash() == remoteRef.Hash() {
		slog.Info("Repository already up to date",
			logfields.Name(repo.Name),
			slog.String("branch", branch),
			slog.String("commit", shortHash(remoteRef.Hash())))
		return nil
	}

	behind, werr := reachableFrom(repository, localRef.Hash(), remoteRef.Hash())
	if werr != nil {
		slog.Warn("History walk failed, treating branch as diverged", logfields.Error(werr))
	}
	if !behind {
		if c.syncCfg == nil || !c.syncCfg.HardResetOnDiverge {
			return &RemoteDivergedError{
				Op:     "update",
				URL:    repo.URL,
				Branch: branch,
				Err:    fmt.Errorf("local %s not reachable from origin/%s (enable hard_reset_on_diverge to discard local commits)", shortHash(localRef.Hash()), branch),
			}
		}
		slog.Warn("Branch diverged, hard resetting to remote",
			logfields.Name(repo.Name),
			slog.String("branch", branch))
	}

	if err := wt.Reset(&git.ResetOptions{Commit: remoteRef.Hash(), Mode: git.HardReset}); err != nil {
		return fmt.Errorf("reset to %s: %w", shortHash(remoteRef.Hash()), err)
	}
	slog.Info("Branch moved to remote tip",
		logfields.Name(repo.Name),
		slog.String("branch", branch),
		slog.String("from", shortHash(localRef.Hash())),
		slog.String("to", shortHash(remoteRef.Hash())))
	return nil
}

// reachableFrom walks the commit graph from one hash and reports
// whether it reaches another. Equal hashes are trivially reachable,
// even when the commit does not exist locally.
func reachableFrom(repository *git.Repository, needle, from plumbing.Hash) (bool, error) {
	if needle == from {
		return true, nil
	}
	visited := make(map[plumbing.Hash]struct{})
	frontier := []plumbing.Hash{from}
	for len(frontier) > 0 {
		h := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		if h == needle {
			return true, nil
		}
		if _, done := visited[h]; done {
			continue
		}
		visited[h] = struct{}{}
		commit, err := repository.CommitObject(h)
		if err != nil {
			return false, fmt.Errorf("load commit %s: %w", shortHash(h), err)
		}
		frontier = append(frontier, commit.ParentHashes...)
	}
	return false, nil
}

func shortHash(h plumbing.Hash) string { return h.String()[:8] }
