package fragmentdiff

import (
	"strconv"
	"strings"
)

// Render flattens root into the final output string by depth-first
// interleaving of statics and rendered children (spec.md §4.3). There
// is no ambient cousin-statics or template dictionary at the root.
func Render(root Root) (string, error) {
	var sb strings.Builder
	if err := renderFragmentInto(&sb, root.Fragment, root.Components, nil, false, nil, "$"); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// renderFragmentInto writes a Fragment's flattened text to sb.
//
// cousinStatics/hasCousin is the inline-string sequence threaded down
// from an enclosing Component whose own statics are a ComponentRef
// (DESIGN.md "cousin-statics threading"); templates is the
// currently-active template dictionary accumulated by merging
// enclosing Comprehension dictionaries during descent (child-wins on
// key conflict).
func renderFragmentInto(sb *strings.Builder, f Fragment, components map[string]Component, cousinStatics []string, hasCousin bool, templates map[string][]string, path string) error {
	switch f.Kind {
	case FragmentRegular:
		return renderRegularInto(sb, f.Statics, f.Children, components, cousinStatics, hasCousin, templates, path)

	case FragmentComprehension:
		mergedTemplates := templates
		if f.HasTemplates {
			mergedTemplates = mergeTemplateDictForRender(templates, f.Templates)
		}
		return renderComprehensionInto(sb, f, components, cousinStatics, hasCousin, mergedTemplates, path)

	default:
		return &RenderError{Kind: ErrStaticsArityMismatch, Path: path}
	}
}

// mergeTemplateDictForRender unions an ancestor's active template
// dictionary with this Comprehension's own, the child's keys taking
// precedence on conflict; ancestor keys the child doesn't define
// remain visible (spec.md §9 "Templates accumulation"). Neither input
// is mutated.
func mergeTemplateDictForRender(ancestor, own map[string][]string) map[string][]string {
	if len(ancestor) == 0 {
		return own
	}
	if len(own) == 0 {
		return ancestor
	}
	out := make(map[string][]string, len(ancestor)+len(own))
	for k, v := range ancestor {
		out[k] = v
	}
	for k, v := range own {
		out[k] = v
	}
	return out
}

func renderRegularInto(sb *strings.Builder, statics Statics, children map[string]Child, components map[string]Component, cousinStatics []string, hasCousin bool, templates map[string][]string, path string) error {
	if statics.Kind != StaticsInline {
		// Not produced by the protocol at Regular positions in valid
		// input (spec.md §4.3); treated as a typed error rather than a
		// panic, consistently with the rest of this package's choice
		// (spec.md §7 requires one consistent choice).
		return &RenderError{Kind: ErrStaticsArityMismatch, Path: path}
	}
	inline := statics.Inline
	if len(inline) != len(children)+1 {
		return &RenderError{Kind: ErrStaticsArityMismatch, Path: path}
	}
	sb.WriteString(inline[0])
	for i := 1; i < len(inline); i++ {
		idx := childIndexKey(i - 1)
		child, ok := children[idx]
		if !ok {
			return &RenderError{Kind: ErrStaticsArityMismatch, Path: path + "." + idx}
		}
		if err := renderChildInto(sb, child, components, cousinStatics, hasCousin, templates, path+"."+idx); err != nil {
			return err
		}
		sb.WriteString(inline[i])
	}
	return nil
}

func renderComprehensionInto(sb *strings.Builder, f Fragment, components map[string]Component, cousinStatics []string, hasCousin bool, templates map[string][]string, path string) error {
	switch {
	case !f.HasStatics && !hasCousin:
		for i, row := range f.Dynamics {
			for j, child := range row {
				if err := renderChildInto(sb, child, components, nil, false, templates, rowPath(path, i, j)); err != nil {
					return err
				}
			}
		}
		return nil

	case !f.HasStatics && hasCousin:
		return interleaveRows(sb, cousinStatics, f.Dynamics, components, templates, path)

	case f.HasStatics && !hasCousin:
		switch f.CompStatics.Kind {
		case StaticsInline:
			return interleaveRows(sb, f.CompStatics.Inline, f.Dynamics, components, templates, path)
		default: // StaticsTemplateRef
			if templates == nil {
				return &RenderError{Kind: ErrNoTemplates, Path: path}
			}
			resolved, ok := templates[itoa32(f.CompStatics.TplRef)]
			if !ok {
				return &RenderError{Kind: ErrTemplateNotFound, TID: f.CompStatics.TplRef, Path: path}
			}
			return interleaveRows(sb, resolved, f.Dynamics, components, templates, path)
		}

	default: // f.HasStatics && hasCousin
		return &RenderError{Kind: ErrIllegalCousinStatics, Path: path}
	}
}

// interleaveRows renders each dynamics row between the given statics,
// same arity rule as a Regular fragment but per-row. Per spec.md §4.3,
// row children never see cousin statics (always rendered with
// cousinStatics=None), but templates continue to propagate.
func interleaveRows(sb *strings.Builder, statics []string, dynamics [][]Child, components map[string]Component, templates map[string][]string, path string) error {
	for i, row := range dynamics {
		if len(statics) != len(row)+1 {
			return &RenderError{Kind: ErrStaticsArityMismatch, Path: rowPath(path, i, 0)}
		}
		sb.WriteString(statics[0])
		for j := 1; j < len(statics); j++ {
			if err := renderChildInto(sb, row[j-1], components, nil, false, templates, rowPath(path, i, j-1)); err != nil {
				return err
			}
			sb.WriteString(statics[j])
		}
	}
	return nil
}

func renderChildInto(sb *strings.Builder, c Child, components map[string]Component, cousinStatics []string, hasCousin bool, templates map[string][]string, path string) error {
	switch c.Kind {
	case ChildString:
		sb.WriteString(c.Str)
		return nil
	case ChildComponentID:
		return renderComponentByIDInto(sb, c.CID, components, path)
	default: // ChildFragment
		return renderFragmentInto(sb, c.Fragment, components, cousinStatics, hasCousin, templates, path)
	}
}

// maxComponentRefChain bounds ComponentRef chain walks against a cycle
// in adversarial input (spec.md §5 calls for bounding recursion against
// adversarial depth generally; the reference Rust loop has no such
// guard and would hang on a cycle).
const maxComponentRefChain = 10000

// renderComponentByIDInto resolves and renders the component at cid.
// Components never see the ambient template dictionary: the Rust
// original's to_string_with_components always renders its own subtree
// with templates=None, so a Comprehension nested inside a component can
// only use its own "p" dictionary, never one from the enclosing
// fragment.
func renderComponentByIDInto(sb *strings.Builder, cid int32, components map[string]Component, path string) error {
	if components == nil {
		return noComponents(path)
	}
	comp, ok := components[itoa32(cid)]
	if !ok {
		return componentNotFound(cid, path)
	}
	return renderComponentInto(sb, comp, components, path)
}

func renderComponentInto(sb *strings.Builder, comp Component, components map[string]Component, path string) error {
	switch comp.Statics.Kind {
	case ComponentStaticsInline:
		return interleaveComponentChildren(sb, comp.Statics.Inline, comp.Children, components, nil, false, path)

	default: // ComponentStaticsRef
		cid := comp.Statics.RefCID
		var outerStatics []string
		var cousin Component
		seen := 0
		for {
			seen++
			if seen > maxComponentRefChain {
				return &RenderError{Kind: ErrComponentNotFound, CID: cid, Path: path}
			}
			next, ok := components[itoa32(cid)]
			if !ok {
				return componentNotFound(cid, path)
			}
			if next.Statics.Kind == ComponentStaticsInline {
				outerStatics = next.Statics.Inline
				cousin = next
				break
			}
			cid = next.Statics.RefCID
		}

		if len(outerStatics) != len(comp.Children)+1 {
			return &RenderError{Kind: ErrStaticsArityMismatch, Path: path}
		}
		sb.WriteString(outerStatics[0])
		for i := 1; i < len(outerStatics); i++ {
			idx := childIndexKey(i - 1)
			child, ok := comp.Children[idx]
			if !ok {
				return &RenderError{Kind: ErrStaticsArityMismatch, Path: path + "." + idx}
			}
			cousinChild := cousin.Children[idx]
			cousinChildStatics, hasCousinChildStatics := cousinChild.statics()
			if err := renderChildInto(sb, child, components, cousinChildStatics, hasCousinChildStatics, nil, path+"."+idx); err != nil {
				return err
			}
			sb.WriteString(outerStatics[i])
		}
		return nil
	}
}

func interleaveComponentChildren(sb *strings.Builder, statics []string, children map[string]Child, components map[string]Component, cousinStatics []string, hasCousin bool, path string) error {
	if len(statics) != len(children)+1 {
		return &RenderError{Kind: ErrStaticsArityMismatch, Path: path}
	}
	sb.WriteString(statics[0])
	for i := 1; i < len(statics); i++ {
		idx := childIndexKey(i - 1)
		child, ok := children[idx]
		if !ok {
			return &RenderError{Kind: ErrStaticsArityMismatch, Path: path + "." + idx}
		}
		if err := renderChildInto(sb, child, components, cousinStatics, hasCousin, nil, path+"."+idx); err != nil {
			return err
		}
		sb.WriteString(statics[i])
	}
	return nil
}

func rowPath(path string, row, col int) string {
	return path + ".d[" + itoa(row) + "][" + itoa(col) + "]"
}

// itoa32/itoa convert component/template ids and row/column indices to
// the decimal-string keys used throughout the wire format's maps.
func itoa32(n int32) string { return strconv.FormatInt(int64(n), 10) }
func itoa(n int) string     { return strconv.Itoa(n) }
