package fragmentdiff

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// decodeCtx threads the recursion depth guard through decoding.
type decodeCtx struct {
	cfg   Config
	depth int
}

func (c *decodeCtx) descend(path string) (*decodeCtx, error) {
	if c.depth+1 > c.cfg.MaxDepth {
		return nil, &DecodeError{Kind: ErrDepthExceeded, Path: path}
	}
	return &decodeCtx{cfg: c.cfg, depth: c.depth + 1}, nil
}

// DecodeRootDiff parses raw diff JSON into a RootDiff using the
// default Config. Use Config.DecodeRootDiff to control strictness or
// depth limits.
func DecodeRootDiff(data []byte) (RootDiff, error) {
	return DefaultConfig().DecodeRootDiff(data)
}

// DecodeRootDiff parses raw diff JSON into a RootDiff under cfg.
func (cfg Config) DecodeRootDiff(data []byte) (RootDiff, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return RootDiff{}, &DecodeError{Kind: ErrMalformedJSON, Path: "$", Err: err}
	}
	ctx := &decodeCtx{cfg: cfg}
	return decodeRootDiff(ctx, raw, "$")
}

func decodeRootDiff(ctx *decodeCtx, raw map[string]json.RawMessage, path string) (RootDiff, error) {
	var out RootDiff

	if c, ok := raw["c"]; ok {
		var rawComponents map[string]json.RawMessage
		if err := json.Unmarshal(c, &rawComponents); err != nil {
			return RootDiff{}, &DecodeError{Kind: ErrMalformedJSON, Path: path + ".c", Err: err}
		}
		components := make(map[string]ComponentDiff, len(rawComponents))
		for cid, rawComp := range rawComponents {
			childCtx, err := ctx.descend(path + ".c." + cid)
			if err != nil {
				return RootDiff{}, err
			}
			var compMap map[string]json.RawMessage
			if err := json.Unmarshal(rawComp, &compMap); err != nil {
				return RootDiff{}, &DecodeError{Kind: ErrMalformedJSON, Path: path + ".c." + cid, Err: err}
			}
			cd, err := decodeComponentDiff(childCtx, compMap, path+".c."+cid)
			if err != nil {
				return RootDiff{}, err
			}
			components[cid] = cd
		}
		out.Components = components
	}

	fragRaw := raw
	if _, ok := raw["c"]; ok {
		fragRaw = make(map[string]json.RawMessage, len(raw)-1)
		for k, v := range raw {
			if k != "c" {
				fragRaw[k] = v
			}
		}
	}

	fd, err := decodeFragmentDiff(ctx, fragRaw, path)
	if err != nil {
		return RootDiff{}, err
	}
	out.Fragment = fd
	return out, nil
}

// --- sparse (diff) decoding ---------------------------------------------

// decodeFragmentDiff disambiguates a fragment-diff-shaped object per
// spec.md §4.1: "d" present => UpdateComprehension; "s" without "d" =>
// ReplaceCurrent (a full, non-sparse Fragment); neither => UpdateRegular.
func decodeFragmentDiff(ctx *decodeCtx, raw map[string]json.RawMessage, path string) (FragmentDiff, error) {
	if d, ok := raw["d"]; ok {
		return decodeUpdateComprehensionDiff(ctx, raw, d, path)
	}
	if _, ok := raw["s"]; ok {
		frag, err := decodeFragment(ctx, raw, path)
		if err != nil {
			return FragmentDiff{}, err
		}
		return FragmentDiff{Kind: DiffReplaceCurrent, Replacement: frag}, nil
	}
	children, err := decodeChildDiffMap(ctx, raw, path, []string{"d", "s"})
	if err != nil {
		return FragmentDiff{}, err
	}
	return FragmentDiff{Kind: DiffUpdateRegular, Children: children}, nil
}

func decodeUpdateComprehensionDiff(ctx *decodeCtx, raw map[string]json.RawMessage, d json.RawMessage, path string) (FragmentDiff, error) {
	var rawRows []json.RawMessage
	if err := json.Unmarshal(d, &rawRows); err != nil {
		return FragmentDiff{}, &DecodeError{Kind: ErrMalformedJSON, Path: path + ".d", Err: err}
	}
	dynamics := make([][]ChildDiff, len(rawRows))
	for i, rawRow := range rawRows {
		var rawChildren []json.RawMessage
		if err := json.Unmarshal(rawRow, &rawChildren); err != nil {
			return FragmentDiff{}, &DecodeError{Kind: ErrMalformedJSON, Path: fmt.Sprintf("%s.d[%d]", path, i), Err: err}
		}
		row := make([]ChildDiff, len(rawChildren))
		for j, rawChild := range rawChildren {
			childCtx, err := ctx.descend(fmt.Sprintf("%s.d[%d][%d]", path, i, j))
			if err != nil {
				return FragmentDiff{}, err
			}
			cd, err := decodeChildDiff(childCtx, rawChild, fmt.Sprintf("%s.d[%d][%d]", path, i, j))
			if err != nil {
				return FragmentDiff{}, err
			}
			row[j] = cd
		}
		dynamics[i] = row
	}

	out := FragmentDiff{Kind: DiffUpdateComprehension, Dynamics: dynamics}

	if rawS, ok := raw["s"]; ok {
		st, err := decodeStatics(rawS, path+".s")
		if err != nil {
			return FragmentDiff{}, err
		}
		out.Statics = &st
	}
	if rawP, ok := raw["p"]; ok {
		templates, err := decodeTemplates(rawP, path+".p")
		if err != nil {
			return FragmentDiff{}, err
		}
		out.Templates = templates
		out.HasTemplates = true
	}

	if ctx.cfg.StrictUnknownKeys {
		for k := range raw {
			if k != "d" && k != "s" && k != "p" {
				return FragmentDiff{}, &DecodeError{Kind: ErrUnknownKey, Path: path, Key: k}
			}
		}
	}
	return out, nil
}

func decodeChildDiffMap(ctx *decodeCtx, raw map[string]json.RawMessage, path string, reserved []string) (map[string]ChildDiff, error) {
	children := make(map[string]ChildDiff, len(raw))
	for k, rawChild := range raw {
		if isReserved(k, reserved) {
			continue
		}
		if _, convErr := strconv.Atoi(k); convErr != nil {
			if ctx.cfg.StrictUnknownKeys {
				return nil, &DecodeError{Kind: ErrUnknownKey, Path: path, Key: k}
			}
			continue
		}
		childCtx, err := ctx.descend(path + "." + k)
		if err != nil {
			return nil, err
		}
		cd, err := decodeChildDiff(childCtx, rawChild, path+"."+k)
		if err != nil {
			return nil, err
		}
		children[k] = cd
	}
	return children, nil
}

func isReserved(k string, reserved []string) bool {
	for _, r := range reserved {
		if k == r {
			return true
		}
	}
	return false
}

// decodeChildDiff decodes a Child value at a sparse-diff position.
func decodeChildDiff(ctx *decodeCtx, raw json.RawMessage, path string) (ChildDiff, error) {
	var asStr string
	if err := json.Unmarshal(raw, &asStr); err == nil {
		return ChildDiff{Kind: ChildString, Str: asStr}, nil
	}
	var asNum int32
	if err := json.Unmarshal(raw, &asNum); err == nil {
		return ChildDiff{Kind: ChildComponentID, CID: asNum}, nil
	}
	var asObj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &asObj); err == nil {
		fd, err := decodeFragmentDiff(ctx, asObj, path)
		if err != nil {
			return ChildDiff{}, err
		}
		return ChildDiff{Kind: ChildFragment, FragmentDiff: fd}, nil
	}
	return ChildDiff{}, &DecodeError{Kind: ErrAmbiguousShape, Path: path}
}

// decodeComponentDiff disambiguates a component-diff object: "s"
// present => ReplaceCurrent (a full, non-sparse Component); otherwise
// UpdateRegular over decimal keys (sparse ChildDiff map).
func decodeComponentDiff(ctx *decodeCtx, raw map[string]json.RawMessage, path string) (ComponentDiff, error) {
	if s, ok := raw["s"]; ok {
		st, err := decodeComponentStatics(s, path+".s")
		if err != nil {
			return ComponentDiff{}, err
		}
		children, err := decodeChildMap(ctx, raw, path, []string{"s"})
		if err != nil {
			return ComponentDiff{}, err
		}
		return ComponentDiff{Kind: ComponentDiffReplaceCurrent, ReplaceChildren: children, ReplaceStatics: st}, nil
	}
	children, err := decodeChildDiffMap(ctx, raw, path, []string{"s"})
	if err != nil {
		return ComponentDiff{}, err
	}
	return ComponentDiff{Kind: ComponentDiffUpdateRegular, Children: children}, nil
}

// --- full (non-sparse) decoding ------------------------------------------
//
// Once a "s"-bearing object without "d" is reached (Regular fragment or
// Component), the wire format commits to a fully self-contained
// subtree: children are full Child values, never sparse ChildDiff, and
// a "d"-bearing object inside it is a full Comprehension. A "d"-bearing
// object at a diff position is an UpdateComprehension whose rows are
// decoded as ChildDiff. This mirrors the Rust original's split between
// (untagged) FragmentDiff/ChildDiff and Fragment/Child.

// decodeFragment decodes a full (non-diff) Fragment: "d" present =>
// Comprehension (full Child rows); "s" without "d" => Regular (full
// Child map); neither => a decode error (a full subtree always commits
// to one of these two shapes).
func decodeFragment(ctx *decodeCtx, raw map[string]json.RawMessage, path string) (Fragment, error) {
	if d, ok := raw["d"]; ok {
		return decodeComprehensionFull(ctx, raw, d, path)
	}
	if _, ok := raw["s"]; ok {
		return decodeRegularFull(ctx, raw, path)
	}
	return Fragment{}, &DecodeError{Kind: ErrAmbiguousShape, Path: path}
}

func decodeRegularFull(ctx *decodeCtx, raw map[string]json.RawMessage, path string) (Fragment, error) {
	st, err := decodeStatics(raw["s"], path+".s")
	if err != nil {
		return Fragment{}, err
	}
	children, err := decodeChildMap(ctx, raw, path, []string{"s"})
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{Kind: FragmentRegular, Children: children, Statics: st}, nil
}

func decodeComprehensionFull(ctx *decodeCtx, raw map[string]json.RawMessage, d json.RawMessage, path string) (Fragment, error) {
	var rawRows []json.RawMessage
	if err := json.Unmarshal(d, &rawRows); err != nil {
		return Fragment{}, &DecodeError{Kind: ErrMalformedJSON, Path: path + ".d", Err: err}
	}
	dynamics := make([][]Child, len(rawRows))
	for i, rawRow := range rawRows {
		var rawChildren []json.RawMessage
		if err := json.Unmarshal(rawRow, &rawChildren); err != nil {
			return Fragment{}, &DecodeError{Kind: ErrMalformedJSON, Path: fmt.Sprintf("%s.d[%d]", path, i), Err: err}
		}
		row := make([]Child, len(rawChildren))
		for j, rawChild := range rawChildren {
			childCtx, err := ctx.descend(fmt.Sprintf("%s.d[%d][%d]", path, i, j))
			if err != nil {
				return Fragment{}, err
			}
			c, err := decodeChild(childCtx, rawChild, fmt.Sprintf("%s.d[%d][%d]", path, i, j))
			if err != nil {
				return Fragment{}, err
			}
			row[j] = c
		}
		dynamics[i] = row
	}

	f := Fragment{Kind: FragmentComprehension, Dynamics: dynamics}
	if rawS, ok := raw["s"]; ok {
		st, err := decodeStatics(rawS, path+".s")
		if err != nil {
			return Fragment{}, err
		}
		f.HasStatics = true
		f.CompStatics = st
	}
	if rawP, ok := raw["p"]; ok {
		templates, err := decodeTemplates(rawP, path+".p")
		if err != nil {
			return Fragment{}, err
		}
		f.Templates = templates
		f.HasTemplates = true
	}

	if ctx.cfg.StrictUnknownKeys {
		for k := range raw {
			if k != "d" && k != "s" && k != "p" {
				return Fragment{}, &DecodeError{Kind: ErrUnknownKey, Path: path, Key: k}
			}
		}
	}
	return f, nil
}

func decodeChildMap(ctx *decodeCtx, raw map[string]json.RawMessage, path string, reserved []string) (map[string]Child, error) {
	children := make(map[string]Child, len(raw))
	for k, rawChild := range raw {
		if isReserved(k, reserved) {
			continue
		}
		if _, convErr := strconv.Atoi(k); convErr != nil {
			if ctx.cfg.StrictUnknownKeys {
				return nil, &DecodeError{Kind: ErrUnknownKey, Path: path, Key: k}
			}
			continue
		}
		childCtx, err := ctx.descend(path + "." + k)
		if err != nil {
			return nil, err
		}
		c, err := decodeChild(childCtx, rawChild, path+"."+k)
		if err != nil {
			return nil, err
		}
		children[k] = c
	}
	return children, nil
}

// decodeChild decodes a Child value in a full (non-diff) position:
// string, integer component id, or a fully self-contained fragment.
func decodeChild(ctx *decodeCtx, raw json.RawMessage, path string) (Child, error) {
	var asStr string
	if err := json.Unmarshal(raw, &asStr); err == nil {
		return Child{Kind: ChildString, Str: asStr}, nil
	}
	var asNum int32
	if err := json.Unmarshal(raw, &asNum); err == nil {
		return Child{Kind: ChildComponentID, CID: asNum}, nil
	}
	var asObj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &asObj); err == nil {
		frag, err := decodeFragment(ctx, asObj, path)
		if err != nil {
			return Child{}, err
		}
		return Child{Kind: ChildFragment, Fragment: frag}, nil
	}
	return Child{}, &DecodeError{Kind: ErrAmbiguousShape, Path: path}
}

// decodeStatics decodes an "s" value: an array of strings (inline) or
// an integer (template reference).
func decodeStatics(raw json.RawMessage, path string) (Statics, error) {
	var asArr []string
	if err := json.Unmarshal(raw, &asArr); err == nil {
		return Statics{Kind: StaticsInline, Inline: asArr}, nil
	}
	var asNum int32
	if err := json.Unmarshal(raw, &asNum); err == nil {
		return Statics{Kind: StaticsTemplateRef, TplRef: asNum}, nil
	}
	return Statics{}, &DecodeError{Kind: ErrAmbiguousShape, Path: path}
}

// decodeComponentStatics decodes a component's "s" value: an array of
// strings (inline) or a signed integer (ComponentRef, possibly
// negative meaning "fresh, not yet installed" per spec.md §3).
func decodeComponentStatics(raw json.RawMessage, path string) (ComponentStatics, error) {
	var asArr []string
	if err := json.Unmarshal(raw, &asArr); err == nil {
		return ComponentStatics{Kind: ComponentStaticsInline, Inline: asArr}, nil
	}
	var asNum int32
	if err := json.Unmarshal(raw, &asNum); err == nil {
		return ComponentStatics{Kind: ComponentStaticsRef, RefCID: asNum}, nil
	}
	return ComponentStatics{}, &DecodeError{Kind: ErrAmbiguousShape, Path: path}
}

func decodeTemplates(raw json.RawMessage, path string) (map[string][]string, error) {
	var out map[string][]string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &DecodeError{Kind: ErrMalformedJSON, Path: path, Err: err}
	}
	return out, nil
}
