package fragmentdiff

import "strconv"

// RootFromDiff builds the initial state tree from the first diff a
// connection receives. spec.md §3: "A Root is created by decoding the
// first diff, which must be a full (non-sparse) description" — so the
// top-level fragment must be a ReplaceCurrent or an UpdateComprehension
// (Comprehension fragments may legally omit statics even when fully
// describing themselves, since they can rely on cousin statics at
// render time); an UpdateRegular top-level fragment has no prior state
// to draw statics from and is rejected.
func RootFromDiff(diff RootDiff) (Root, error) {
	fragment, err := fragmentDiffToFragment(diff.Fragment, "$")
	if err != nil {
		return Root{}, err
	}
	var components map[string]Component
	if diff.Components != nil {
		components = make(map[string]Component, len(diff.Components))
		for cid, cd := range diff.Components {
			comp, err := componentDiffToComponent(cd, "$.c."+cid)
			if err != nil {
				return Root{}, err
			}
			components[cid] = comp
		}
	}
	return Root{Fragment: fragment, Components: components}, nil
}

// fragmentDiffToFragment converts a FragmentDiff into a Fragment when
// there is no prior state to merge against (first installation).
func fragmentDiffToFragment(fd FragmentDiff, path string) (Fragment, error) {
	switch fd.Kind {
	case DiffReplaceCurrent:
		return fd.Replacement, nil
	case DiffUpdateComprehension:
		dynamics := make([][]Child, len(fd.Dynamics))
		for i, row := range fd.Dynamics {
			out := make([]Child, len(row))
			for j, cd := range row {
				c, err := childDiffToChild(cd, path)
				if err != nil {
					return Fragment{}, err
				}
				out[j] = c
			}
			dynamics[i] = out
		}
		f := Fragment{Kind: FragmentComprehension, Dynamics: dynamics, Templates: fd.Templates, HasTemplates: fd.HasTemplates}
		if fd.Statics != nil {
			f.HasStatics = true
			f.CompStatics = *fd.Statics
		}
		return f, nil
	default: // DiffUpdateRegular
		// A sparse child-only diff cannot conjure statics out of
		// nothing: it names no prior state to inherit them from. The
		// Rust original synthesizes a run of empty-string statics one
		// shorter than the required len(children)+1 here, which would
		// violate spec.md §8 invariant 1 on render; we reject instead
		// (DESIGN.md documents this as a deliberate, non-silent
		// deviation rather than reproducing that latent bug).
		return Fragment{}, &MergeError{Kind: ErrFragmentTypeMismatch, Path: path}
	}
}

// childDiffToChild converts a ChildDiff into a Child during first
// installation (no prior Child exists at this position). Mirrors the
// Rust TryFrom<ChildDiff> for Child: an UpdateRegular nested fragment
// diff cannot create a fragment from nothing (spec.md §9 note 2), but
// an UpdateComprehension can, because a Comprehension's statics may
// legitimately be absent even when fully installed.
func childDiffToChild(cd ChildDiff, path string) (Child, error) {
	switch cd.Kind {
	case ChildString:
		return Child{Kind: ChildString, Str: cd.Str}, nil
	case ChildComponentID:
		return Child{Kind: ChildComponentID, CID: cd.CID}, nil
	default: // ChildFragment
		switch cd.FragmentDiff.Kind {
		case DiffReplaceCurrent:
			return Child{Kind: ChildFragment, Fragment: cd.FragmentDiff.Replacement}, nil
		case DiffUpdateComprehension:
			frag, err := fragmentDiffToFragment(cd.FragmentDiff, path)
			if err != nil {
				return Child{}, err
			}
			return Child{Kind: ChildFragment, Fragment: frag}, nil
		default: // DiffUpdateRegular
			return Child{}, &MergeError{Kind: ErrFragmentTypeMismatch, Path: path}
		}
	}
}

// componentDiffToComponent converts a ComponentDiff into a Component,
// used both for fresh installation (RootFromDiff, and pool merge when
// a diff names an id absent from state) and for a full replacement of
// an existing component. An UpdateRegular diff can never construct a
// Component on its own (spec.md §4.2 Component).
func componentDiffToComponent(cd ComponentDiff, path string) (Component, error) {
	if cd.Kind == ComponentDiffUpdateRegular {
		return Component{}, &MergeError{Kind: ErrCreateComponentFromUpdate, Path: path}
	}
	c := Component{Children: cd.ReplaceChildren, Statics: cd.ReplaceStatics}
	return c.fixStatics(), nil
}

// childIndexKey is the decimal-string key for dynamics/children slot i.
func childIndexKey(i int) string { return strconv.Itoa(i) }
