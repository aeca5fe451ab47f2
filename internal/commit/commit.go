// Package commit writes a session's staged edits back to the remote as a
// branch, one commit per changed file, and a pull request.
package commit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/marcus/plansync/internal/ghclient"
	"github.com/marcus/plansync/internal/session"
)

// DefaultTitle is used when a new pull request is opened without a title.
const DefaultTitle = "auto PR creation"

// Labels are attached to every pull request the sequencer opens.
var Labels = []string{"data-composer-submission", "requires-data-accuracy-review"}

// ErrWrongState is returned when a step runs out of order.
var ErrWrongState = errors.New("commit step out of order")

// Remote is the subset of the remote API the sequencer writes through.
type Remote interface {
	BranchHead(ctx context.Context, branch string) (string, error)
	CreateRef(ctx context.Context, ref, sha string) error
	UpdateFile(ctx context.Context, w ghclient.FileWrite) (string, error)
	CreatePull(ctx context.Context, head, base, title, body string) (*ghclient.PullRequest, error)
	EditPull(ctx context.Context, number int, title, body string) (*ghclient.PullRequest, error)
	AddLabels(ctx context.Context, number int, labels ...string) error
}

// FileFailure is one write that did not land.
type FileFailure struct {
	Path string
	Err  error
}

// BatchResult reports the outcome of CommitAll. Paths are repository paths.
type BatchResult struct {
	Succeeded []string
	Failures  []FileFailure
}

// OK reports whether every write landed.
func (r BatchResult) OK() bool { return len(r.Failures) == 0 }

// Err joins the failures, or returns nil.
func (r BatchResult) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = fmt.Errorf("%s: %w", f.Path, f.Err)
	}
	return errors.Join(errs...)
}

// RequestOptions overrides the pull request title and body.
type RequestOptions struct {
	Title string
	Body  string
}

// Sequencer drives one session through the submit cycle.
type Sequencer struct {
	sess     *session.Session
	remote   Remote
	dataRoot string

	// Now is the clock used for branch names.
	Now func() time.Time
}

// New returns a sequencer writing files under dataRoot.
func New(sess *session.Session, remote Remote, dataRoot string) *Sequencer {
	return &Sequencer{sess: sess, remote: remote, dataRoot: dataRoot, Now: time.Now}
}

// BranchName returns the working branch name for username at t.
func BranchName(username string, t time.Time) string {
	return username + "-policy-" + strconv.FormatInt(t.UnixMilli(), 10)
}

// EnsureBranch associates a working branch with the session, creating it
// from the base branch head when none exists yet.
func (q *Sequencer) EnsureBranch(ctx context.Context) (string, error) {
	s := q.sess
	if s.Branch == "" && s.PullRequest != nil {
		s.Branch = s.PullRequest.Head
	}
	if s.Branch != "" {
		s.State = session.BranchEnsured
		return s.Branch, nil
	}
	head, err := q.remote.BranchHead(ctx, s.BaseBranch)
	if err != nil {
		return "", fmt.Errorf("ensure branch: %w", err)
	}
	name := BranchName(s.Username, q.Now())
	if err := q.remote.CreateRef(ctx, "refs/heads/"+name, head); err != nil {
		return "", fmt.Errorf("ensure branch: %w", err)
	}
	slog.Info("created branch", "branch", name, "from", s.BaseBranch, "sha", head)
	s.Branch = name
	s.State = session.BranchEnsured
	return name, nil
}

// CommitAll writes every dirty slot in commit order. Each write is attempted
// even after an earlier one failed.
func (q *Sequencer) CommitAll(ctx context.Context) (BatchResult, error) {
	s := q.sess
	if s.State != session.BranchEnsured {
		return BatchResult{}, fmt.Errorf("commit all in state %s: %w", s.State, ErrWrongState)
	}
	var res BatchResult
	for _, d := range s.DirtySlots() {
		p := d.RemotePath(q.dataRoot)
		content, err := d.Slot.Encode()
		if err != nil {
			res.Failures = append(res.Failures, FileFailure{Path: p, Err: err})
			continue
		}
		sha, err := q.remote.UpdateFile(ctx, ghclient.FileWrite{
			Path:    p,
			Branch:  s.Branch,
			Message: "updated " + p,
			Content: content,
			SHA:     d.Slot.SHA,
		})
		if err != nil {
			slog.Warn("commit failed", "path", p, "err", err)
			res.Failures = append(res.Failures, FileFailure{Path: p, Err: err})
			continue
		}
		d.Slot.Committed(sha)
		res.Succeeded = append(res.Succeeded, p)
		slog.Debug("committed", "path", p, "sha", sha)
	}
	s.State = session.FilesCommitted
	return res, nil
}

// OpenOrUpdateRequest opens the session's pull request or patches the
// fields of an existing one that the options change.
func (q *Sequencer) OpenOrUpdateRequest(ctx context.Context, opts RequestOptions) (*ghclient.PullRequest, error) {
	s := q.sess
	if s.State == session.Idle {
		return nil, fmt.Errorf("open request in state %s: %w", s.State, ErrWrongState)
	}

	if s.PullRequest == nil {
		title := opts.Title
		if title == "" {
			title = DefaultTitle
		}
		pr, err := q.remote.CreatePull(ctx, s.Branch, s.BaseBranch, title, opts.Body)
		if err != nil {
			return nil, fmt.Errorf("open request: %w", err)
		}
		if err := q.remote.AddLabels(ctx, pr.Number, Labels...); err != nil {
			return nil, fmt.Errorf("label request #%d: %w", pr.Number, err)
		}
		slog.Info("opened pull request", "number", pr.Number, "head", s.Branch)
		s.PullRequest = pr
		s.State = session.RequestOpened
		return pr, nil
	}

	pr := s.PullRequest
	var title, body string
	if opts.Title != "" && opts.Title != pr.Title {
		title = opts.Title
	}
	if opts.Body != "" && opts.Body != pr.Body {
		body = opts.Body
	}
	if title != "" || body != "" {
		updated, err := q.remote.EditPull(ctx, pr.Number, title, body)
		if err != nil {
			return nil, fmt.Errorf("update request #%d: %w", pr.Number, err)
		}
		s.PullRequest = updated
		pr = updated
	}
	s.State = session.RequestOpened
	return pr, nil
}

// Submit runs the whole cycle and returns the session to Idle. The commit
// step is skipped when nothing is pending; pending edits are cleared only
// when every write landed.
func (q *Sequencer) Submit(ctx context.Context, opts RequestOptions) (BatchResult, *ghclient.PullRequest, error) {
	s := q.sess
	defer func() { s.State = session.Idle }()

	if _, err := q.EnsureBranch(ctx); err != nil {
		return BatchResult{}, nil, err
	}
	var res BatchResult
	if s.Pending() {
		var err error
		if res, err = q.CommitAll(ctx); err != nil {
			return res, nil, err
		}
		if res.OK() {
			s.ClearPending()
		}
	}
	pr, err := q.OpenOrUpdateRequest(ctx, opts)
	if err != nil {
		return res, nil, err
	}
	return res, pr, nil
}
