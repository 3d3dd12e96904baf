// Package fragmentdiff implements the client side of a server-driven
// live-view protocol: decoding sparse JSON diffs, merging them into a
// persistent tree that mirrors server state, and flattening that tree
// back into the exact string the server rendered.
//
// The package is pure — there is no transport, no event/action
// handling, and no DOM patching here. Callers own a Root, decode each
// incoming diff with DecodeRootDiff, fold it in with Merge (or
// RootFromDiff for the first snapshot), and produce output with
// Render. The Tree type bundles that sequence for a single connection.
package fragmentdiff

// Root is the decoded, authoritative state tree for one connection: a
// top-level Fragment plus a flat pool of Components keyed by id.
// Components is nil when the server has never sent a "c" key.
type Root struct {
	Fragment   Fragment
	Components map[string]Component
}

// RootDiff is the wire shape of a single update: a FragmentDiff plus an
// optional components-pool diff. The first RootDiff a connection
// receives must be a full (non-sparse) description; RootFromDiff
// enforces that by construction (there is no prior state to merge
// against).
type RootDiff struct {
	Fragment   FragmentDiff
	Components map[string]ComponentDiff
}

// FragmentKind discriminates the two Fragment/FragmentDiff shapes.
type FragmentKind int

const (
	// FragmentRegular is a fragment with a children map and statics
	// that interleave with them.
	FragmentRegular FragmentKind = iota
	// FragmentComprehension is a fragment whose dynamics are rows of
	// children, optionally sharing statics from a template or cousin.
	FragmentComprehension
)

// Fragment is the tagged union described in spec.md §3. Exactly one of
// the two shapes is populated, selected by Kind.
//
// Regular:
//   - Children: decimal-string index -> Child
//   - Statics:  always present (a state tree never lacks statics)
//
// Comprehension:
//   - Dynamics:  ordered rows of Child
//   - Statics:   optional; absent means "use cousin statics at render time"
//   - Templates: optional template-id -> static-sequence dictionary
type Fragment struct {
	Kind FragmentKind

	// Regular
	Children map[string]Child
	Statics  Statics

	// Comprehension
	Dynamics      [][]Child
	HasStatics    bool
	CompStatics   Statics
	Templates     map[string][]string
	HasTemplates  bool
}

// FragmentDiffKind discriminates the three FragmentDiff shapes.
type FragmentDiffKind int

const (
	// DiffUpdateRegular carries only child updates; statics are not
	// shipped and must come from prior state.
	DiffUpdateRegular FragmentDiffKind = iota
	// DiffUpdateComprehension carries new dynamics, and optionally new
	// statics/templates, to merge into a prior Comprehension.
	DiffUpdateComprehension
	// DiffReplaceCurrent carries a complete Fragment that replaces
	// whatever was there before, regardless of prior shape.
	DiffReplaceCurrent
)

// FragmentDiff is the wire/diff counterpart of Fragment. See
// FragmentDiffKind for the three shapes a decoded object can take.
type FragmentDiff struct {
	Kind FragmentDiffKind

	// DiffUpdateRegular
	Children map[string]ChildDiff

	// DiffUpdateComprehension
	Dynamics     [][]ChildDiff
	Statics      *Statics // nil means "not present in this diff"
	Templates    map[string][]string
	HasTemplates bool

	// DiffReplaceCurrent
	Replacement Fragment
}

// ChildKind discriminates the three Child/ChildDiff shapes.
type ChildKind int

const (
	ChildString ChildKind = iota
	ChildComponentID
	ChildFragment
)

// Child is a single slot in a Fragment's children map or a
// Comprehension row: literal text, a reference to a component by id,
// or a nested Fragment.
type Child struct {
	Kind ChildKind

	Str      string
	CID      int32
	Fragment Fragment
}

// ChildDiff is the diff counterpart of Child. A Fragment-shaped
// ChildDiff wraps a FragmentDiff rather than a Fragment, since the
// nested fragment may itself be sparse.
type ChildDiff struct {
	Kind ChildKind

	Str          string
	CID          int32
	FragmentDiff FragmentDiff
}

// StaticsKind discriminates Statics' two shapes.
type StaticsKind int

const (
	// StaticsInline carries the literal static strings.
	StaticsInline StaticsKind = iota
	// StaticsTemplateRef carries an id to resolve against the active
	// template dictionary at render time.
	StaticsTemplateRef
)

// Statics is the constant text that interleaves with a Fragment's
// children, either inlined or borrowed from a numbered template.
type Statics struct {
	Kind   StaticsKind
	Inline []string
	TplRef int32
}

// ComponentStaticsKind discriminates ComponentStatics' two shapes.
type ComponentStaticsKind int

const (
	// ComponentStaticsInline carries the component's own static strings.
	ComponentStaticsInline ComponentStaticsKind = iota
	// ComponentStaticsRef borrows another component's statics by id.
	// A negative id is an uninstalled wire-only marker, normalized to
	// positive by fixStatics on first installation; it never appears
	// in a merged tree (spec.md §8 invariant 5).
	ComponentStaticsRef
)

// ComponentStatics is Component's statics field: either its own inline
// strings, or a (possibly still-negative, pre-install) reference to
// another component's statics.
type ComponentStatics struct {
	Kind ComponentStaticsKind
	Inline []string
	RefCID int32
}

// Component is a reusable sub-tree held in Root.Components, addressed
// by a decimal-string id. Same children/statics-arity invariant as a
// Regular fragment when Statics is inline.
type Component struct {
	Children map[string]Child
	Statics  ComponentStatics
}

// ComponentDiffKind discriminates ComponentDiff's two shapes.
type ComponentDiffKind int

const (
	// ComponentDiffUpdateRegular carries only child updates against an
	// existing component; it cannot create one (spec.md §4.2 Component).
	ComponentDiffUpdateRegular ComponentDiffKind = iota
	// ComponentDiffReplaceCurrent carries a full component body,
	// installing it fresh or replacing it wholesale.
	ComponentDiffReplaceCurrent
)

// ComponentDiff is the diff counterpart of Component.
type ComponentDiff struct {
	Kind ComponentDiffKind

	// ComponentDiffUpdateRegular
	Children map[string]ChildDiff

	// ComponentDiffReplaceCurrent
	ReplaceChildren map[string]Child
	ReplaceStatics  ComponentStatics
}

// fixStatics normalizes a negative ComponentRef to its positive,
// canonical form. Applied on every ReplaceCurrent installation (first
// install and later full replacements); never applied to an
// UpdateRegular merge, which cannot touch Statics at all.
func (c Component) fixStatics() Component {
	if c.Statics.Kind == ComponentStaticsRef && c.Statics.RefCID < 0 {
		c.Statics.RefCID = -c.Statics.RefCID
	}
	return c
}

// statics returns the child's inline statics, if it carries any: a
// Regular fragment or Comprehension with inline statics. Everything
// else — String, ComponentID, TemplateRef-backed, or statics-less
// Comprehension children — returns (nil, false).
func (c Child) statics() ([]string, bool) {
	if c.Kind != ChildFragment {
		return nil, false
	}
	f := c.Fragment
	switch f.Kind {
	case FragmentRegular:
		if f.Statics.Kind == StaticsInline {
			return f.Statics.Inline, true
		}
	case FragmentComprehension:
		if f.HasStatics && f.CompStatics.Kind == StaticsInline {
			return f.CompStatics.Inline, true
		}
	}
	return nil, false
}
