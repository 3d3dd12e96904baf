package fragmentdiff

import "fmt"

// mergeCtx threads the recursion depth guard through merging, mirroring
// decodeCtx.descend. The counter goes up by one for each child slot the
// diff descends into, counted from the Root, so it is the depth of that
// position in the state tree. Only the paths the diff names are walked:
// untouched state subtrees and the contents of a ReplaceCurrent
// replacement are not visited or counted.
type mergeCtx struct {
	cfg   Config
	depth int
}

func (c *mergeCtx) descend(path string) (*mergeCtx, error) {
	if c.depth+1 > c.cfg.MaxDepth {
		return nil, &MergeError{Kind: ErrMergeDepthExceeded, Path: path}
	}
	return &mergeCtx{cfg: c.cfg, depth: c.depth + 1}, nil
}

// Merge folds diff onto state, producing a new Root or a MergeError,
// using DefaultConfig(). Use Config.Merge to control the depth limit.
// The overarching contract (spec.md §4.2): merge preserves the shape of
// state unless diff is a ReplaceCurrent; a shape mismatch otherwise is
// fatal. Neither state nor diff's backing maps are mutated in place, so
// a caller holding onto state is unaffected; the result may share maps
// that the merge left unchanged with state or diff.
func Merge(state Root, diff RootDiff) (Root, error) {
	return DefaultConfig().Merge(state, diff)
}

// Merge folds diff onto state under cfg, the configured entry point a
// Tree uses so its MaxDepth governs merge recursion the same way it
// governs decode.
func (cfg Config) Merge(state Root, diff RootDiff) (Root, error) {
	ctx := &mergeCtx{cfg: cfg}

	fragment, err := mergeFragment(ctx, state.Fragment, diff.Fragment, "$")
	if err != nil {
		return Root{}, err
	}

	components, err := mergeComponentsPool(ctx, state.Components, diff.Components)
	if err != nil {
		return Root{}, err
	}

	return Root{Fragment: fragment, Components: components}, nil
}

// mergeComponentsPool merges the root's component pool. Per spec.md §4.2
// ("Component-pool merge note") and §9 Open Question 1: prior-state
// components absent from the diff are retained, not dropped — the
// reference implementation drops them by iterating only the diff and
// accumulating into a fresh map; that is treated here as a bug and not
// reproduced. state-wins on missing diff, diff-wins on missing state
// (fresh install), recursive merge when both present.
func mergeComponentsPool(ctx *mergeCtx, state map[string]Component, diff map[string]ComponentDiff) (map[string]Component, error) {
	switch {
	case state == nil && diff == nil:
		return nil, nil
	case state == nil:
		out := make(map[string]Component, len(diff))
		for cid, cd := range diff {
			path := "$.c." + cid
			if _, err := ctx.descend(path); err != nil {
				return nil, err
			}
			comp, err := componentDiffToComponent(cd, path)
			if err != nil {
				return nil, err
			}
			out[cid] = comp
		}
		return out, nil
	case diff == nil:
		return state, nil
	default:
		out := make(map[string]Component, len(state)+len(diff))
		for cid, comp := range state {
			out[cid] = comp
		}
		for cid, cd := range diff {
			path := "$.c." + cid
			childCtx, err := ctx.descend(path)
			if err != nil {
				return nil, err
			}
			if existing, ok := out[cid]; ok {
				merged, err := mergeComponent(childCtx, existing, cd, path)
				if err != nil {
					return nil, err
				}
				out[cid] = merged
			} else {
				comp, err := componentDiffToComponent(cd, path)
				if err != nil {
					return nil, err
				}
				out[cid] = comp
			}
		}
		return out, nil
	}
}

// mergeComponent merges a diff onto a single existing Component.
// spec.md §4.2 "Component": UpdateRegular merges children only,
// retaining the existing statics; ReplaceCurrent installs a whole new
// component body and runs fixStatics.
func mergeComponent(ctx *mergeCtx, state Component, diff ComponentDiff, path string) (Component, error) {
	if diff.Kind == ComponentDiffUpdateRegular {
		newChildren, err := mergeChildren(ctx, state.Children, diff.Children, path)
		if err != nil {
			return Component{}, err
		}
		return Component{Children: newChildren, Statics: state.Statics}, nil
	}
	c := Component{Children: diff.ReplaceChildren, Statics: diff.ReplaceStatics}
	return c.fixStatics(), nil
}

func mergeFragment(ctx *mergeCtx, state Fragment, diff FragmentDiff, path string) (Fragment, error) {
	if diff.Kind == DiffReplaceCurrent {
		return diff.Replacement, nil
	}

	switch state.Kind {
	case FragmentRegular:
		if diff.Kind != DiffUpdateRegular {
			return Fragment{}, &MergeError{Kind: ErrFragmentTypeMismatch, Path: path}
		}
		newChildren, err := mergeChildren(ctx, state.Children, diff.Children, path)
		if err != nil {
			return Fragment{}, err
		}
		return Fragment{Kind: FragmentRegular, Children: newChildren, Statics: state.Statics}, nil

	case FragmentComprehension:
		if diff.Kind != DiffUpdateComprehension {
			return Fragment{}, &MergeError{Kind: ErrFragmentTypeMismatch, Path: path}
		}

		hasTemplates, templates := mergeTemplates(state.HasTemplates, state.Templates, diff.HasTemplates, diff.Templates)

		newDynamics := make([][]Child, len(diff.Dynamics))
		for i, row := range diff.Dynamics {
			out := make([]Child, len(row))
			for j, cd := range row {
				rowPath := fmt.Sprintf("%s.d[%d][%d]", path, i, j)
				if _, err := ctx.descend(rowPath); err != nil {
					return Fragment{}, err
				}
				c, err := childDiffToChild(cd, rowPath)
				if err != nil {
					return Fragment{}, err
				}
				out[j] = c
			}
			newDynamics[i] = out
		}

		hasStatics, statics := mergeStaticsOption(state.HasStatics, state.CompStatics, diff.Statics)

		return Fragment{
			Kind:         FragmentComprehension,
			Dynamics:     newDynamics,
			HasStatics:   hasStatics,
			CompStatics:  statics,
			Templates:    templates,
			HasTemplates: hasTemplates,
		}, nil

	default:
		return Fragment{}, &MergeError{Kind: ErrFragmentTypeMismatch, Path: path}
	}
}

// mergeChildren merges a diff's sparse ChildDiff map onto a state
// children map. Every diff index must already exist in state
// (spec.md §4.2 "Children mapping"); indices state holds but diff
// doesn't mention are retained unchanged.
func mergeChildren(ctx *mergeCtx, state map[string]Child, diff map[string]ChildDiff, path string) (map[string]Child, error) {
	out := make(map[string]Child, len(state))
	for k, v := range state {
		out[k] = v
	}
	for idx, cd := range diff {
		childPath := path + "." + idx
		current, ok := out[idx]
		if !ok {
			return nil, &MergeError{Kind: ErrAddChildToExisting, Path: childPath}
		}
		childCtx, err := ctx.descend(childPath)
		if err != nil {
			return nil, err
		}
		merged, err := mergeChild(childCtx, current, cd, childPath)
		if err != nil {
			return nil, err
		}
		out[idx] = merged
	}
	return out, nil
}

// mergeChild merges a single Child slot. spec.md §4.2 "Child":
// Fragment-vs-Fragment recurses; any diff that is a terminal
// String/ComponentID wins outright; a Fragment diff against a
// non-Fragment state child is only accepted when it is a
// ReplaceCurrent.
func mergeChild(ctx *mergeCtx, state Child, diff ChildDiff, path string) (Child, error) {
	if state.Kind == ChildFragment && diff.Kind == ChildFragment {
		merged, err := mergeFragment(ctx, state.Fragment, diff.FragmentDiff, path)
		if err != nil {
			return Child{}, err
		}
		return Child{Kind: ChildFragment, Fragment: merged}, nil
	}
	switch diff.Kind {
	case ChildString:
		return Child{Kind: ChildString, Str: diff.Str}, nil
	case ChildComponentID:
		return Child{Kind: ChildComponentID, CID: diff.CID}, nil
	default: // ChildFragment, state not a Fragment
		if diff.FragmentDiff.Kind == DiffReplaceCurrent {
			return Child{Kind: ChildFragment, Fragment: diff.FragmentDiff.Replacement}, nil
		}
		return Child{}, &MergeError{Kind: ErrCreateChildFromUpdateFragment, Path: path}
	}
}

// mergeTemplates merges a Comprehension's optional template
// dictionaries. spec.md §4.2 "Templates dictionary merge": per key in
// the diff's dictionary, append (sequence extension) if the key exists
// in state, else insert; this supports incremental disclosure of new
// template branches across updates.
func mergeTemplates(stateHas bool, state map[string][]string, diffHas bool, diff map[string][]string) (bool, map[string][]string) {
	switch {
	case !stateHas && !diffHas:
		return false, nil
	case !stateHas:
		return true, diff
	case !diffHas:
		return true, state
	default:
		out := make(map[string][]string, len(state)+len(diff))
		for k, v := range state {
			out[k] = v
		}
		for k, v := range diff {
			if existing, ok := out[k]; ok {
				merged := make([]string, 0, len(existing)+len(v))
				merged = append(merged, existing...)
				merged = append(merged, v...)
				out[k] = merged
			} else {
				out[k] = v
			}
		}
		return true, out
	}
}

// mergeStaticsOption merges a Comprehension's optional own statics.
// spec.md §4.2 "Statics option merge": diff-wins if both present,
// otherwise whichever is present.
func mergeStaticsOption(stateHas bool, state Statics, diff *Statics) (bool, Statics) {
	if diff != nil {
		return true, *diff
	}
	if stateHas {
		return true, state
	}
	return false, Statics{}
}
