// Package repohost talks to the GitHub contents API to commit submitted
// solutions into student repositories. Commits are create-or-update by path:
// the existing file's SHA is looked up first so a resubmission overwrites the
// file instead of conflicting.
package repohost

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v62/github"
)

type Client struct {
	// newClient is swapped in tests.
	newClient func(token string) *github.Client
}

func NewClient() *Client {
	return &Client{
		newClient: func(token string) *github.Client {
			return github.NewClient(nil).WithAuthToken(token)
		},
	}
}

// UpsertFile commits content to repoFullName ("owner/name") at path and
// returns the commit URL. A missing file (404 on the SHA lookup) is treated
// as "create"; any other lookup failure aborts the commit.
func (c *Client) UpsertFile(ctx context.Context, token, repoFullName, path, message, content string) (string, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return "", err
	}
	gh := c.newClient(token)

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: []byte(content),
	}

	file, _, resp, err := gh.Repositories.GetContents(ctx, owner, repo, path, nil)
	switch {
	case err == nil && file != nil:
		opts.SHA = file.SHA
	case resp != nil && resp.StatusCode == http.StatusNotFound:
		// no existing file, plain create
	case err != nil:
		return "", fmt.Errorf("failed to look up existing file %s: %w", path, err)
	}

	var res *github.RepositoryContentResponse
	if opts.SHA != nil {
		res, _, err = gh.Repositories.UpdateFile(ctx, owner, repo, path, opts)
	} else {
		res, _, err = gh.Repositories.CreateFile(ctx, owner, repo, path, opts)
	}
	if err != nil {
		return "", fmt.Errorf("failed to commit %s to %s: %w", path, repoFullName, err)
	}
	return res.Commit.GetHTMLURL(), nil
}

func splitRepo(fullName string) (owner, repo string, err error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository %q is not in owner/name form", fullName)
	}
	return parts[0], parts[1], nil
}
