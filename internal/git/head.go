package git

import (
	"fmt"

	"github.com/go-git/go-git/v5"
)

// ReadRepoHead reports the commit hash a repository's HEAD resolves to.
// Build runs record this so manifests can name the exact revision of
// each content repository that went in.
func ReadRepoHead(repoPath string) (string, error) {
	repository, err := git.PlainOpen(repoPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", repoPath, err)
	}
	head, err := repository.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD in %s: %w", repoPath, err)
	}
	return head.Hash().String(), nil
}
