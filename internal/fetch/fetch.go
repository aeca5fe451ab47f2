// Package fetch reads the policy data tree from the remote into memory.
//
// A fetch lists the data root, pulls the recursive listings of the policies
// and localization subtrees, downloads every policies blob concurrently and
// the three global string tables, and only returns once every download has
// finished. Any failure discards the whole result.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/marcus/plansync/internal/ghclient"
	"github.com/marcus/plansync/internal/resolver"
	"github.com/marcus/plansync/internal/tree"
)

// Subtree names under the data root.
const (
	PoliciesDir     = "policies"
	LocalizationDir = "localization"
)

// Global localization files, in commit order.
const (
	CustomStrings = "custom-strings.csv"
	StateNames    = "cdc-state-names.csv"
	StateLinks    = "cdc-state-links.csv"
)

// GlobalFiles lists the global localization files in commit order.
var GlobalFiles = []string{CustomStrings, StateNames, StateLinks}

const (
	DefaultConcurrency = 8
	DefaultCacheSize   = 2048
)

// Source is the subset of the remote API the fetcher reads from.
type Source interface {
	ListDir(ctx context.Context, dir, ref string) ([]ghclient.Entry, error)
	GetTree(ctx context.Context, sha string) ([]ghclient.Entry, error)
	GetBlob(ctx context.Context, sha string) ([]byte, error)
}

// BlobStore persists blob contents by sha across processes. PutBlobs is
// called once per fetch with every blob read from the remote.
type BlobStore interface {
	GetBlob(sha string) ([]byte, bool, error)
	PutBlobs(blobs map[string][]byte) error
}

// MissingSubtreeError reports an expected folder or file absent on the remote.
type MissingSubtreeError struct {
	Name string
}

func (e *MissingSubtreeError) Error() string {
	return fmt.Sprintf("missing %q in remote data tree", e.Name)
}

// FetchFailureError reports the remote read that aborted a fetch.
type FetchFailureError struct {
	Path string
	Err  error
}

func (e *FetchFailureError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Path, e.Err)
}

func (e *FetchFailureError) Unwrap() error { return e.Err }

// Globals holds the three localization tables shared by every location.
type Globals struct {
	slots map[string]*tree.FileSlot
}

// NewGlobals builds a Globals from slots keyed by file name.
func NewGlobals(slots map[string]*tree.FileSlot) *Globals {
	g := &Globals{slots: make(map[string]*tree.FileSlot, len(slots))}
	for k, v := range slots {
		g.slots[k] = v
	}
	return g
}

// Slot returns the slot for one of GlobalFiles.
func (g *Globals) Slot(name string) *tree.FileSlot {
	if g == nil {
		return nil
	}
	return g.slots[name]
}

// Slots returns the present slots in commit order.
func (g *Globals) Slots() []*tree.FileSlot {
	var out []*tree.FileSlot
	for _, name := range GlobalFiles {
		if s := g.Slot(name); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Snapshot is one fully populated read of the data tree.
type Snapshot struct {
	Ref     string
	Tree    *tree.Node
	Globals *Globals
}

// Options configures a Fetcher.
type Options struct {
	DataRoot    string
	Concurrency int
	CacheSize   int
	Store       BlobStore
}

// Fetcher reads snapshots from a Source.
type Fetcher struct {
	src   Source
	opts  Options
	cache *lru.Cache[string, []byte]
}

// New creates a fetcher.
func New(src Source, opts Options) (*Fetcher, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, []byte](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("blob cache: %w", err)
	}
	return &Fetcher{src: src, opts: opts, cache: cache}, nil
}

type fetched struct {
	blob resolver.Blob
	slot *tree.FileSlot
	// remote is the content when it came from the remote rather than a cache.
	remote []byte
}

// Fetch reads the data tree at ref.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (*Snapshot, error) {
	root := f.opts.DataRoot
	top, err := f.src.ListDir(ctx, root, ref)
	if err != nil {
		return nil, &FetchFailureError{Path: root, Err: err}
	}
	var policies, localization *ghclient.Entry
	for i := range top {
		switch top[i].Name {
		case PoliciesDir:
			policies = &top[i]
		case LocalizationDir:
			localization = &top[i]
		}
	}
	if policies == nil {
		return nil, &MissingSubtreeError{Name: PoliciesDir}
	}
	if localization == nil {
		return nil, &MissingSubtreeError{Name: LocalizationDir}
	}

	policyEntries, err := f.src.GetTree(ctx, policies.SHA)
	if err != nil {
		return nil, &FetchFailureError{Path: path.Join(root, PoliciesDir), Err: err}
	}
	locEntries, err := f.src.GetTree(ctx, localization.SHA)
	if err != nil {
		return nil, &FetchFailureError{Path: path.Join(root, LocalizationDir), Err: err}
	}

	globalEntries := make([]ghclient.Entry, len(GlobalFiles))
	for i, name := range GlobalFiles {
		found := false
		for _, e := range locEntries {
			if e.Path == name && !e.IsDir() {
				globalEntries[i], found = e, true
				break
			}
		}
		if !found {
			return nil, &MissingSubtreeError{Name: path.Join(LocalizationDir, name)}
		}
	}

	var blobs []ghclient.Entry
	var dirs []string
	for _, e := range policyEntries {
		if e.IsDir() {
			dirs = append(dirs, e.Path)
			continue
		}
		if _, ok := resolver.Role(e.Name); !ok {
			slog.Debug("skipping unrecognized file", "path", e.Path)
			continue
		}
		blobs = append(blobs, e)
	}

	policyResults := make([]fetched, len(blobs))
	globalResults := make([]fetched, len(globalEntries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Concurrency)
	load := func(prefix string, e ghclient.Entry, dst *fetched) {
		g.Go(func() error {
			full := path.Join(root, prefix, e.Path)
			content, remote, err := f.blob(gctx, e.SHA)
			if err != nil {
				return &FetchFailureError{Path: full, Err: err}
			}
			if remote {
				dst.remote = content
			}
			b := resolver.Blob{Path: e.Path, SHA: e.SHA, URL: e.URL}
			slot, ok, err := resolver.Resolve(b, content)
			if err != nil {
				return &FetchFailureError{Path: full, Err: err}
			}
			if ok {
				dst.blob, dst.slot = b, slot
			}
			return nil
		})
	}
	for i, e := range blobs {
		load(PoliciesDir, e, &policyResults[i])
	}
	for i, e := range globalEntries {
		load(LocalizationDir, e, &globalResults[i])
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &FetchFailureError{Path: root, Err: err}
	}
	f.persist(blobs, policyResults, globalEntries, globalResults)

	t := tree.New()
	for _, d := range dirs {
		t.Insert(d, nil)
	}
	for _, r := range policyResults {
		if r.slot != nil {
			t.Insert(r.blob.Dir(), r.slot)
		}
	}
	globals := make(map[string]*tree.FileSlot, len(GlobalFiles))
	for i, name := range GlobalFiles {
		globals[name] = globalResults[i].slot
	}

	slog.Debug("fetched data tree", "ref", ref, "files", len(blobs)+len(globalEntries), "folders", len(dirs))
	return &Snapshot{Ref: ref, Tree: t, Globals: NewGlobals(globals)}, nil
}

// blob returns content for sha, consulting the in-memory cache and the
// persistent store before the remote. remote reports a remote read.
func (f *Fetcher) blob(ctx context.Context, sha string) (data []byte, remote bool, err error) {
	if data, ok := f.cache.Get(sha); ok {
		return data, false, nil
	}
	if f.opts.Store != nil {
		data, ok, err := f.opts.Store.GetBlob(sha)
		if err != nil {
			slog.Warn("blob store read failed", "sha", sha, "err", err)
		} else if ok {
			f.cache.Add(sha, data)
			return data, false, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	data, err = f.src.GetBlob(ctx, sha)
	if err != nil {
		return nil, false, err
	}
	f.cache.Add(sha, data)
	return data, true, nil
}

// persist writes blobs read from the remote to the store in one batch. A
// failed write only costs a later re-download.
func (f *Fetcher) persist(policies []ghclient.Entry, policyResults []fetched, globals []ghclient.Entry, globalResults []fetched) {
	if f.opts.Store == nil {
		return
	}
	batch := make(map[string][]byte)
	for i, r := range policyResults {
		if r.remote != nil {
			batch[policies[i].SHA] = r.remote
		}
	}
	for i, r := range globalResults {
		if r.remote != nil {
			batch[globals[i].SHA] = r.remote
		}
	}
	if len(batch) == 0 {
		return
	}
	if err := f.opts.Store.PutBlobs(batch); err != nil {
		slog.Warn("blob store write failed", "blobs", len(batch), "err", err)
	}
}

// IsFetchError reports whether err aborted a fetch.
func IsFetchError(err error) bool {
	var fe *FetchFailureError
	var me *MissingSubtreeError
	return errors.As(err, &fe) || errors.As(err, &me)
}
