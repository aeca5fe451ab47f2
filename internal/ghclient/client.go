// Package ghclient is the adapter between the sync core and the GitHub REST
// API. It exposes only the calls the fetcher and commit sequencer need and
// normalizes every failure into RequestError or WriteConflictError.
package ghclient

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/github"
	"golang.org/x/oauth2"
)

// DefaultAPIURL is the public GitHub API endpoint.
const DefaultAPIURL = "https://api.github.com/"

// Config identifies the repository and credentials.
type Config struct {
	Owner  string
	Repo   string
	APIURL string
	Token  string
	HTTP   *http.Client
}

// Client talks to one repository.
type Client struct {
	gh    *github.Client
	owner string
	repo  string
}

// New creates a client. An empty token yields unauthenticated access.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, errors.New("ghclient: repository owner and name are required")
	}
	httpClient := cfg.HTTP
	if cfg.Token != "" {
		if httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		}
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	}
	gh := github.NewClient(httpClient)

	if cfg.APIURL != "" {
		raw := cfg.APIURL
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("ghclient: parse api url: %w", err)
		}
		gh.BaseURL = u
	}
	return &Client{gh: gh, owner: cfg.Owner, repo: cfg.Repo}, nil
}

// Repo returns "owner/name".
func (c *Client) Repo() string { return c.owner + "/" + c.repo }

// Entry is one item of a directory or tree listing.
type Entry struct {
	Name string
	Path string
	Type string // "blob"/"file" or "tree"/"dir"
	URL  string
	SHA  string
	Size int
}

// IsDir reports whether the entry is a folder.
func (e Entry) IsDir() bool { return e.Type == "tree" || e.Type == "dir" }

// ListDir lists the immediate children of dir at ref.
func (c *Client) ListDir(ctx context.Context, dir, ref string) ([]Entry, error) {
	var opt *github.RepositoryContentGetOptions
	if ref != "" {
		opt = &github.RepositoryContentGetOptions{Ref: ref}
	}
	_, items, _, err := c.gh.Repositories.GetContents(ctx, c.owner, c.repo, dir, opt)
	if err != nil {
		return nil, wrapErr("list "+dir, err)
	}
	out := make([]Entry, 0, len(items))
	for _, it := range items {
		out = append(out, Entry{
			Name: it.GetName(),
			Path: it.GetPath(),
			Type: it.GetType(),
			URL:  it.GetGitURL(),
			SHA:  it.GetSHA(),
			Size: it.GetSize(),
		})
	}
	return out, nil
}

// GetTree returns the recursive listing of the tree sha. Entry paths are
// relative to that tree. A truncated listing is an error.
func (c *Client) GetTree(ctx context.Context, sha string) ([]Entry, error) {
	t, _, err := c.gh.Git.GetTree(ctx, c.owner, c.repo, sha, true)
	if err != nil {
		return nil, wrapErr("get tree "+sha, err)
	}
	if t.Truncated != nil && *t.Truncated {
		return nil, fmt.Errorf("get tree %s: listing truncated by remote", sha)
	}
	out := make([]Entry, 0, len(t.Entries))
	for _, e := range t.Entries {
		out = append(out, Entry{
			Name: lastSegment(e.GetPath()),
			Path: e.GetPath(),
			Type: e.GetType(),
			URL:  e.GetURL(),
			SHA:  e.GetSHA(),
			Size: e.GetSize(),
		})
	}
	return out, nil
}

func lastSegment(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

// GetBlob returns the decoded content of blob sha.
func (c *Client) GetBlob(ctx context.Context, sha string) ([]byte, error) {
	b, _, err := c.gh.Git.GetBlob(ctx, c.owner, c.repo, sha)
	if err != nil {
		return nil, wrapErr("get blob "+sha, err)
	}
	data, err := DecodeContent(b.GetContent(), b.GetEncoding())
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", sha, err)
	}
	return data, nil
}

// DecodeContent decodes a blob payload. Base64 content from the API is
// wrapped with newlines, which are removed before decoding.
func DecodeContent(content, encoding string) ([]byte, error) {
	switch encoding {
	case "base64":
		clean := strings.Map(func(r rune) rune {
			if r == '\n' || r == '\r' {
				return -1
			}
			return r
		}, content)
		data, err := base64.StdEncoding.DecodeString(clean)
		if err != nil {
			return nil, fmt.Errorf("decode base64: %w", err)
		}
		return data, nil
	case "", "utf-8":
		return []byte(content), nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", encoding)
}

// Branch is a branch name and its tip commit.
type Branch struct {
	Name string
	SHA  string
}

// BranchHead returns the tip commit sha of branch.
func (c *Client) BranchHead(ctx context.Context, branch string) (string, error) {
	b, _, err := c.gh.Repositories.GetBranch(ctx, c.owner, c.repo, branch)
	if err != nil {
		return "", wrapErr("get branch "+branch, err)
	}
	return b.GetCommit().GetSHA(), nil
}

// ListBranches returns every branch, following pagination.
func (c *Client) ListBranches(ctx context.Context) ([]Branch, error) {
	opt := &github.ListOptions{PerPage: 100}
	var out []Branch
	for {
		page, resp, err := c.gh.Repositories.ListBranches(ctx, c.owner, c.repo, opt)
		if err != nil {
			return nil, wrapErr("list branches", err)
		}
		for _, b := range page {
			out = append(out, Branch{Name: b.GetName(), SHA: b.GetCommit().GetSHA()})
		}
		if resp == nil || resp.NextPage == 0 {
			return out, nil
		}
		opt.Page = resp.NextPage
	}
}

// CreateRef creates ref (e.g. "refs/heads/x") pointing at sha.
func (c *Client) CreateRef(ctx context.Context, ref, sha string) error {
	_, _, err := c.gh.Git.CreateRef(ctx, c.owner, c.repo, &github.Reference{
		Ref:    github.String(ref),
		Object: &github.GitObject{SHA: github.String(sha)},
	})
	return wrapErr("create ref "+ref, err)
}

// FileWrite is one conditional contents write.
type FileWrite struct {
	Path    string
	Branch  string
	Message string
	Content []byte
	// SHA is the identity marker of the file being replaced; empty for a
	// file that does not exist yet.
	SHA string
}

// UpdateFile writes w and returns the new blob sha. A stale or missing sha
// is reported as *WriteConflictError.
func (c *Client) UpdateFile(ctx context.Context, w FileWrite) (string, error) {
	opt := &github.RepositoryContentFileOptions{
		Message: github.String(w.Message),
		Content: w.Content,
		Branch:  github.String(w.Branch),
	}
	if w.SHA != "" {
		opt.SHA = github.String(w.SHA)
	}
	res, _, err := c.gh.Repositories.UpdateFile(ctx, c.owner, c.repo, w.Path, opt)
	if err != nil {
		err = wrapErr("update "+w.Path, err)
		var re *RequestError
		if errors.As(err, &re) && isConflict(re) {
			return "", &WriteConflictError{Path: w.Path, SHA: w.SHA, Err: re}
		}
		return "", err
	}
	if res == nil || res.Content == nil {
		return "", nil
	}
	return res.Content.GetSHA(), nil
}

// PullRequest is the subset of a pull request the session tracks.
type PullRequest struct {
	Number int
	Title  string
	Body   string
	Head   string
	Base   string
	State  string
	URL    string
	Author string
}

func fromGitHub(pr *github.PullRequest) *PullRequest {
	if pr == nil {
		return nil
	}
	return &PullRequest{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		Body:   pr.GetBody(),
		Head:   pr.GetHead().GetRef(),
		Base:   pr.GetBase().GetRef(),
		State:  pr.GetState(),
		URL:    pr.GetHTMLURL(),
		Author: pr.GetUser().GetLogin(),
	}
}

// CreatePull opens a pull request from head into base.
func (c *Client) CreatePull(ctx context.Context, head, base, title, body string) (*PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Create(ctx, c.owner, c.repo, &github.NewPullRequest{
		Title: github.String(title),
		Head:  github.String(head),
		Base:  github.String(base),
		Body:  github.String(body),
	})
	if err != nil {
		return nil, wrapErr("create pull request", err)
	}
	return fromGitHub(pr), nil
}

// EditPull patches the title and body of pull request number. Empty
// arguments are left untouched.
func (c *Client) EditPull(ctx context.Context, number int, title, body string) (*PullRequest, error) {
	patch := &github.PullRequest{}
	if title != "" {
		patch.Title = github.String(title)
	}
	if body != "" {
		patch.Body = github.String(body)
	}
	pr, _, err := c.gh.PullRequests.Edit(ctx, c.owner, c.repo, number, patch)
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("edit pull request #%d", number), err)
	}
	return fromGitHub(pr), nil
}

// GetPull fetches pull request number.
func (c *Client) GetPull(ctx context.Context, number int) (*PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("get pull request #%d", number), err)
	}
	return fromGitHub(pr), nil
}

// ListPulls returns pull requests in state ("open", "closed" or "all").
func (c *Client) ListPulls(ctx context.Context, state string) ([]*PullRequest, error) {
	opt := &github.PullRequestListOptions{State: state, ListOptions: github.ListOptions{PerPage: 100}}
	var out []*PullRequest
	for {
		page, resp, err := c.gh.PullRequests.List(ctx, c.owner, c.repo, opt)
		if err != nil {
			return nil, wrapErr("list pull requests", err)
		}
		for _, pr := range page {
			out = append(out, fromGitHub(pr))
		}
		if resp == nil || resp.NextPage == 0 {
			return out, nil
		}
		opt.Page = resp.NextPage
	}
}

// AddLabels attaches labels to pull request number.
func (c *Client) AddLabels(ctx context.Context, number int, labels ...string) error {
	_, _, err := c.gh.Issues.AddLabelsToIssue(ctx, c.owner, c.repo, number, labels)
	return wrapErr(fmt.Sprintf("label pull request #%d", number), err)
}

// CurrentUser returns the login of the authenticated user.
func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	u, _, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return "", wrapErr("get user", err)
	}
	return u.GetLogin(), nil
}

// IsCollaborator reports whether login has access to the repository.
func (c *Client) IsCollaborator(ctx context.Context, login string) (bool, error) {
	ok, _, err := c.gh.Repositories.IsCollaborator(ctx, c.owner, c.repo, login)
	if err != nil {
		return false, wrapErr("check access", err)
	}
	return ok, nil
}

// Release is a published release of the repository.
type Release struct {
	Tag string
	URL string
}

// LatestRelease returns the newest non-prerelease release.
func (c *Client) LatestRelease(ctx context.Context) (*Release, error) {
	r, _, err := c.gh.Repositories.GetLatestRelease(ctx, c.owner, c.repo)
	if err != nil {
		return nil, wrapErr("get latest release", err)
	}
	return &Release{Tag: r.GetTagName(), URL: r.GetHTMLURL()}, nil
}
