package publish

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/go-github/v66/github"
)

type GitHubOptions struct {
	Token string
	// Owner defaults to the login of the token's user.
	Owner  string
	Repo   string
	Branch string
	// BaseURL points at a GitHub Enterprise or test API root.
	BaseURL    string
	HTTPClient *http.Client
}

// GitHub stores files at the root of a repository through the contents API.
type GitHub struct {
	client *github.Client
	repo   string
	branch string

	mu      sync.Mutex
	owner   string
	checked bool
}

func NewGitHub(opts GitHubOptions) (*GitHub, error) {
	client := github.NewClient(opts.HTTPClient).WithAuthToken(opts.Token)
	if opts.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github base url: %w", err)
		}
		client.BaseURL = base
	}

	owner, repo := opts.Owner, opts.Repo
	if o, r, ok := strings.Cut(repo, "/"); ok && owner == "" {
		owner, repo = o, r
	}

	return &GitHub{
		client: client,
		repo:   repo,
		branch: opts.Branch,
		owner:  owner,
	}, nil
}

// resolveOwner finds the repository owner and confirms the repository exists, once.
func (g *GitHub) resolveOwner(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.checked {
		return g.owner, nil
	}

	if g.owner == "" {
		user, _, err := g.client.Users.Get(ctx, "")
		if err != nil {
			return "", classify(err)
		}
		g.owner = user.GetLogin()
	}

	if _, _, err := g.client.Repositories.Get(ctx, g.owner, g.repo); err != nil {
		if statusOf(err) == http.StatusNotFound {
			return "", fmt.Errorf("%w: %s/%s", ErrNoRepository, g.owner, g.repo)
		}
		return "", classify(err)
	}
	g.checked = true
	return g.owner, nil
}

func (g *GitHub) Get(ctx context.Context, name string) (Lookup, error) {
	owner, err := g.resolveOwner(ctx)
	if err != nil {
		return Lookup{}, err
	}

	var opts *github.RepositoryContentGetOptions
	if g.branch != "" {
		opts = &github.RepositoryContentGetOptions{Ref: g.branch}
	}
	file, _, _, err := g.client.Repositories.GetContents(ctx, owner, g.repo, name, opts)
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return Lookup{}, nil
		}
		return Lookup{}, classify(err)
	}
	if file == nil {
		return Lookup{}, fmt.Errorf("%s is a directory", name)
	}
	return Lookup{Found: true, Entry: Entry{Name: file.GetPath(), Revision: file.GetSHA()}}, nil
}

func (g *GitHub) Update(ctx context.Context, name, message string, content []byte, revision string) error {
	opts := g.fileOptions(message, content)
	opts.SHA = github.String(revision)
	return g.put(ctx, name, opts, g.client.Repositories.UpdateFile)
}

func (g *GitHub) Create(ctx context.Context, name, message string, content []byte) error {
	return g.put(ctx, name, g.fileOptions(message, content), g.client.Repositories.CreateFile)
}

type putFunc func(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentFileOptions) (*github.RepositoryContentResponse, *github.Response, error)

func (g *GitHub) put(ctx context.Context, name string, opts *github.RepositoryContentFileOptions, fn putFunc) error {
	owner, err := g.resolveOwner(ctx)
	if err != nil {
		return err
	}
	if _, _, err := fn(ctx, owner, g.repo, name, opts); err != nil {
		return classify(err)
	}
	return nil
}

func (g *GitHub) fileOptions(message string, content []byte) *github.RepositoryContentFileOptions {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
	}
	if g.branch != "" {
		opts.Branch = github.String(g.branch)
	}
	return opts
}

func statusOf(err error) int {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode
	}
	return 0
}

func classify(err error) error {
	switch statusOf(err) {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	case http.StatusConflict:
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
