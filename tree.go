package fragmentdiff

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Tree bundles decode, merge, and render for a single connection: each
// incoming wire frame is applied in turn, and Render always reflects
// the most recently applied frame. It exists so a caller doesn't have
// to juggle Root/RootDiff bookkeeping by hand (spec.md §6).
//
// A Tree's methods are safe for concurrent use; state is guarded by a
// mutex the way Page guards its data in the teacher's connection
// model, since a caller may apply a new frame on one goroutine while
// rendering the current one on another.
type Tree struct {
	mu      sync.RWMutex
	cfg     Config
	root    Root
	applied bool
}

// TreeOption configures a Tree at construction.
type TreeOption func(*Tree)

// WithConfig overrides the Config a Tree uses for every Apply call.
func WithConfig(cfg Config) TreeOption {
	return func(t *Tree) { t.cfg = cfg }
}

// NewTree creates an empty Tree. It has no state until the first
// ApplyJSON call, which must carry a full (non-sparse) description —
// there is nothing yet to merge a partial diff against.
func NewTree(opts ...TreeOption) *Tree {
	t := &Tree{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ApplyJSON decodes one wire frame and folds it into the tree's state:
// the first call installs state via RootFromDiff, every later call
// merges via Merge. Returns an error without mutating the tree if
// either step fails.
func (t *Tree) ApplyJSON(data []byte) error {
	diff, err := t.cfg.DecodeRootDiff(data)
	if err != nil {
		return err
	}
	return t.Apply(diff)
}

// Apply folds an already-decoded RootDiff into the tree's state, the
// same install-then-merge rule ApplyJSON follows.
func (t *Tree) Apply(diff RootDiff) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.applied {
		root, err := RootFromDiff(diff)
		if err != nil {
			return err
		}
		t.root = root
		t.applied = true
		return nil
	}

	root, err := t.cfg.Merge(t.root, diff)
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

// Render flattens the tree's current state to the final output
// string. Render on a Tree with no applied frame yet returns an empty
// string and no error; the zero Root is never rendered in that case.
func (t *Tree) Render() (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.applied {
		return "", nil
	}
	return Render(t.root)
}

// Root returns a copy of the tree's decoded state, for callers that
// need to inspect or serialize it directly rather than only its
// rendered text.
func (t *Tree) Root() Root {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root
}

// MarshalJSON round-trips a Tree's rendered output as a JSON string,
// convenient for logging or snapshotting a connection's current view
// without a caller needing to call Render separately.
func (t *Tree) MarshalJSON() ([]byte, error) {
	out, err := t.Render()
	if err != nil {
		return nil, fmt.Errorf("fragmentdiff: marshaling tree: %w", err)
	}
	return json.Marshal(out)
}
