package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/marcus/plansync/internal/db"
	"github.com/marcus/plansync/internal/edits"
	"github.com/marcus/plansync/internal/fetch"
	"github.com/marcus/plansync/internal/ghclient"
	"github.com/marcus/plansync/internal/models"
	"github.com/marcus/plansync/internal/output"
	"github.com/marcus/plansync/internal/session"
	"github.com/marcus/plansync/internal/suggest"
	"github.com/marcus/plansync/internal/syncconfig"
)

// workspace is everything a command needs to read or edit the remote data:
// settings, the local journal, the open session row, a client and, once
// loaded, the live editing session with pending actions replayed.
type workspace struct {
	settings *syncconfig.Settings
	db       *db.DB
	row      *db.SessionRow
	gh       *ghclient.Client
	sess     *session.Session
}

// openWorkspace loads settings, opens the journal and a client, and makes
// sure an editing session row exists. The tree is not fetched yet.
func openWorkspace(ctx context.Context) (*workspace, error) {
	settings, err := syncconfig.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w (set %s and %s)", err, syncconfig.EnvRepoOwner, syncconfig.EnvRepoName)
	}

	gh, err := ghclient.New(ctx, ghclient.Config{
		Owner:  settings.RepoOwner,
		Repo:   settings.RepoName,
		APIURL: settings.APIURL,
		Token:  settings.Token,
	})
	if err != nil {
		return nil, err
	}

	database, err := db.Open(getBaseDir())
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	ws := &workspace{settings: settings, db: database, gh: gh}

	row, err := database.OpenSession()
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("load session: %w", err)
	}
	if row == nil {
		row, err = ws.startSession(ctx)
		if err != nil {
			database.Close()
			return nil, err
		}
	}
	ws.row = row
	return ws, nil
}

func (ws *workspace) startSession(ctx context.Context) (*db.SessionRow, error) {
	login := ws.settings.Login
	if login == "" && ws.settings.Token != "" {
		var err error
		if login, err = ws.gh.CurrentUser(ctx); err != nil {
			slog.Warn("could not resolve login", "err", err)
		}
	}
	row := &db.SessionRow{
		Username:   login,
		BaseBranch: ws.settings.BaseBranch,
		Language:   ws.settings.Language,
	}
	if err := ws.db.StartSession(row); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	slog.Info("started session", "id", row.ID, "base", row.BaseBranch)
	return row, nil
}

func (ws *workspace) Close() error {
	return ws.db.Close()
}

// ref is the branch the session reads from: its working branch once one
// exists, otherwise the base branch.
func (ws *workspace) ref() string {
	if ws.row.Branch != "" {
		return ws.row.Branch
	}
	return ws.row.BaseBranch
}

// load fetches the session ref and replays pending actions onto it.
func (ws *workspace) load(ctx context.Context) error {
	fetcher, err := fetch.New(ws.gh, fetch.Options{
		DataRoot:    ws.settings.DataRoot,
		Concurrency: ws.settings.FetchConcurrency,
		Store:       ws.db,
	})
	if err != nil {
		return err
	}
	snap, err := fetcher.Fetch(ctx, ws.ref())
	if err != nil {
		return err
	}

	cfg := session.Config{
		Username:   ws.row.Username,
		Language:   ws.row.Language,
		BaseBranch: ws.row.BaseBranch,
		Branch:     ws.row.Branch,
	}
	if ws.row.PRNumber > 0 {
		cfg.PullRequest = &ghclient.PullRequest{
			Number: ws.row.PRNumber,
			Title:  ws.row.PRTitle,
			Body:   ws.row.PRBody,
			Head:   ws.row.Branch,
			Base:   ws.row.BaseBranch,
		}
	}
	ws.sess = session.New(snap, cfg)

	pending, err := ws.db.PendingActions(ws.row.ID)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	actions := make([]edits.Action, len(pending))
	for i, p := range pending {
		actions[i] = p.Action
	}
	if err := edits.Replay(ws.sess, actions); err != nil {
		return fmt.Errorf("%w (run 'plansync undo' or 'plansync reset')", err)
	}
	slog.Debug("session loaded", "ref", ws.ref(), "replayed", len(actions))
	return nil
}

// apply validates a against the loaded session and journals it.
func (ws *workspace) apply(a edits.Action) (edits.Result, error) {
	res, err := edits.Apply(ws.sess, a)
	if err != nil {
		return res, fmt.Errorf("%w%s", err, ws.hint(a, err))
	}
	if _, err := ws.db.RecordAction(ws.row.ID, a); err != nil {
		return res, fmt.Errorf("journal action: %w", err)
	}
	return res, nil
}

// hint suggests close keys for a missing location, region or phase.
func (ws *workspace) hint(a edits.Action, err error) string {
	switch {
	case errors.Is(err, session.ErrLocationNotFound):
		return suggest.Hint(a.Location, ws.sess.Tree.Locations())
	case errors.Is(err, session.ErrRegionNotFound):
		if loc, ok := ws.sess.Tree.Location(a.Location); ok {
			return suggest.Hint(a.Region, loc.Regions())
		}
	case errors.Is(err, session.ErrPhaseNotFound):
		phases, _, perr := ws.sess.Phases(a.Target())
		if perr != nil {
			return ""
		}
		return suggest.Hint(a.Phase, phaseIDs(phases))
	}
	return ""
}

func phaseIDs(phases []models.Phase) []string {
	ids := make([]string, len(phases))
	for i, ph := range phases {
		ids[i] = ph.ID
	}
	return ids
}

// parseTarget splits "location[/region]" into its keys.
func parseTarget(s string) (location, region string, err error) {
	s = strings.ToLower(strings.Trim(s, "/"))
	parts := strings.Split(s, "/")
	switch {
	case s == "":
		return "", "", errors.New("target is empty")
	case len(parts) == 1:
		return parts[0], "", nil
	case len(parts) == 2 && parts[1] != "":
		return parts[0], parts[1], nil
	}
	return "", "", fmt.Errorf("invalid target %q (want location or location/region)", s)
}

// runEdit opens the workspace, applies a and reports the outcome.
func runEdit(ctx context.Context, a edits.Action, done func(res edits.Result)) error {
	ws, err := openWorkspace(ctx)
	if err != nil {
		output.Error("%v", err)
		return err
	}
	defer ws.Close()

	if err := ws.load(ctx); err != nil {
		output.Error("%v", err)
		return err
	}
	res, err := ws.apply(a)
	if err != nil {
		output.Error("%v", err)
		return err
	}
	if jsonOutput {
		return output.JSON(map[string]any{"action": a, "id": res.ID})
	}
	done(res)
	return nil
}
