package fragmentdiff

import "fmt"

// DecodeErrorKind enumerates the ways raw JSON can fail to decode into
// a RootDiff/FragmentDiff/ChildDiff shape.
type DecodeErrorKind int

const (
	// ErrMalformedJSON means the bytes are not valid JSON at all.
	ErrMalformedJSON DecodeErrorKind = iota
	// ErrUnknownKey means a key appeared at a position whose grammar is
	// closed (only reachable when Config.StrictUnknownKeys is true).
	ErrUnknownKey
	// ErrAmbiguousShape means a value matched none of the structural
	// shapes in spec.md §4.1: an object with neither "s" nor "d" where a
	// full fragment is required, or a child or statics value of the
	// wrong JSON type (for example a boolean).
	ErrAmbiguousShape
	// ErrDepthExceeded means decode recursion passed Config.MaxDepth.
	ErrDepthExceeded
)

// DecodeError reports a structural failure while parsing wire JSON
// into a diff shape, distinct from a MergeError (spec.md §7).
type DecodeError struct {
	Kind DecodeErrorKind
	// Path is a human-readable breadcrumb (e.g. `$.0.d[1][0]`) to where
	// the failure occurred.
	Path string
	// Key is set for ErrUnknownKey.
	Key string
	// Err wraps the underlying encoding/json error for ErrMalformedJSON.
	Err error
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case ErrMalformedJSON:
		return fmt.Sprintf("fragmentdiff: malformed JSON at %s: %v", e.Path, e.Err)
	case ErrUnknownKey:
		return fmt.Sprintf("fragmentdiff: unknown key %q at %s", e.Key, e.Path)
	case ErrAmbiguousShape:
		return fmt.Sprintf("fragmentdiff: value at %s matches no known diff shape", e.Path)
	case ErrDepthExceeded:
		return fmt.Sprintf("fragmentdiff: max decode depth exceeded at %s", e.Path)
	default:
		return fmt.Sprintf("fragmentdiff: decode error (unknown kind %d) at %s", e.Kind, e.Path)
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }

// MergeErrorKind enumerates the ways a diff can fail to fold into a
// prior state tree. See spec.md §7.
type MergeErrorKind int

const (
	// ErrFragmentTypeMismatch: Regular vs. Comprehension (or vice
	// versa) without a ReplaceCurrent to bridge the shapes.
	ErrFragmentTypeMismatch MergeErrorKind = iota
	// ErrCreateComponentFromUpdate: an UpdateRegular component diff
	// named an id with no prior component.
	ErrCreateComponentFromUpdate
	// ErrCreateChildFromUpdateFragment: a non-replace fragment diff
	// targeted a child that is currently a String or ComponentID.
	ErrCreateChildFromUpdateFragment
	// ErrAddChildToExisting: a child diff referenced an index absent
	// from the current children map.
	ErrAddChildToExisting
	// ErrMergeDepthExceeded: merge recursion passed Config.MaxDepth.
	ErrMergeDepthExceeded
)

// MergeError reports why diff state could not be folded into a prior
// tree. The Path breadcrumb mirrors DecodeError's.
type MergeError struct {
	Kind MergeErrorKind
	Path string
}

func (e *MergeError) Error() string {
	switch e.Kind {
	case ErrFragmentTypeMismatch:
		return fmt.Sprintf("fragmentdiff: fragment type mismatch at %s", e.Path)
	case ErrCreateComponentFromUpdate:
		return fmt.Sprintf("fragmentdiff: cannot create component from update diff at %s", e.Path)
	case ErrCreateChildFromUpdateFragment:
		return fmt.Sprintf("fragmentdiff: cannot create child from update-fragment diff at %s", e.Path)
	case ErrAddChildToExisting:
		return fmt.Sprintf("fragmentdiff: diff references child index absent from state at %s", e.Path)
	case ErrMergeDepthExceeded:
		return fmt.Sprintf("fragmentdiff: max merge depth exceeded at %s", e.Path)
	default:
		return fmt.Sprintf("fragmentdiff: merge error (unknown kind %d) at %s", e.Kind, e.Path)
	}
}

// RenderErrorKind enumerates the ways rendering a tree can fail. See
// spec.md §7.
type RenderErrorKind int

const (
	// ErrNoComponents: a ComponentID child was reached with no
	// components pool present.
	ErrNoComponents RenderErrorKind = iota
	// ErrComponentNotFound: the pool is present but lacks the id,
	// including mid-chain while resolving a ComponentRef.
	ErrComponentNotFound
	// ErrNoTemplates: a TemplateRef was hit with no active template
	// dictionary threaded down from any enclosing Comprehension.
	ErrNoTemplates
	// ErrTemplateNotFound: the dictionary is present but lacks the id.
	ErrTemplateNotFound
	// ErrRenderMerge wraps a MergeError for callers that compose
	// merge+render in one call.
	ErrRenderMerge
	// ErrStaticsArityMismatch: len(statics) != len(children)+1 for an
	// inline-statics fragment or component (spec.md §8 invariant 1).
	ErrStaticsArityMismatch
	// ErrIllegalCousinStatics: a Comprehension had both its own statics
	// and cousin statics supplied — illegal per spec.md §4.3.
	ErrIllegalCousinStatics
)

// RenderError reports why flattening a tree to a string failed.
type RenderError struct {
	Kind RenderErrorKind
	CID  int32
	TID  int32
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	switch e.Kind {
	case ErrNoComponents:
		return fmt.Sprintf("fragmentdiff: render: no components pool, at %s", e.Path)
	case ErrComponentNotFound:
		return fmt.Sprintf("fragmentdiff: render: component %d not found, at %s", e.CID, e.Path)
	case ErrNoTemplates:
		return fmt.Sprintf("fragmentdiff: render: no template dictionary active, at %s", e.Path)
	case ErrTemplateNotFound:
		return fmt.Sprintf("fragmentdiff: render: template %d not found, at %s", e.TID, e.Path)
	case ErrRenderMerge:
		return fmt.Sprintf("fragmentdiff: render: %v", e.Err)
	case ErrStaticsArityMismatch:
		return fmt.Sprintf("fragmentdiff: render: statics/children arity mismatch at %s", e.Path)
	case ErrIllegalCousinStatics:
		return fmt.Sprintf("fragmentdiff: render: comprehension has both own statics and cousin statics at %s", e.Path)
	default:
		return fmt.Sprintf("fragmentdiff: render error (unknown kind %d) at %s", e.Kind, e.Path)
	}
}

func (e *RenderError) Unwrap() error { return e.Err }

func componentNotFound(cid int32, path string) *RenderError {
	return &RenderError{Kind: ErrComponentNotFound, CID: cid, Path: path}
}

func noComponents(path string) *RenderError {
	return &RenderError{Kind: ErrNoComponents, Path: path}
}
