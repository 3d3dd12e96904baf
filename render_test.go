package fragmentdiff

import (
	"strings"
	"testing"
)

func TestRender_RegularFragment(t *testing.T) {
	root := Root{Fragment: regularState([]string{"<div>", "°F</div>"}, map[string]Child{"0": strChild("72")})}
	got, err := Render(root)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	want := "<div>72°F</div>"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRender_ArityMismatchIsError(t *testing.T) {
	root := Root{Fragment: Fragment{Kind: FragmentRegular, Statics: Statics{Kind: StaticsInline, Inline: []string{"<div>", "</div>"}}, Children: map[string]Child{}}}
	_, err := Render(root)
	if err == nil {
		t.Fatal("expected an arity mismatch error")
	}
	re, ok := err.(*RenderError)
	if !ok || re.Kind != ErrStaticsArityMismatch {
		t.Fatalf("expected RenderError{ErrStaticsArityMismatch}, got %#v", err)
	}
}

func TestRender_ComprehensionOwnStatics(t *testing.T) {
	root := Root{Fragment: Fragment{
		Kind:        FragmentComprehension,
		HasStatics:  true,
		CompStatics: Statics{Kind: StaticsInline, Inline: []string{"<li>", "</li>"}},
		Dynamics:    [][]Child{{strChild("a")}, {strChild("b")}},
	}}
	got, err := Render(root)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "<li>a</li><li>b</li>" {
		t.Fatalf("got %q", got)
	}
}

func TestRender_ComponentRefBorrowsCousinChildStatics(t *testing.T) {
	// Component 2 refs component 1's statics; its own child slot 0 is a
	// statics-less Comprehension that must borrow slot 0's inline
	// statics from the cousin component (component 1), not render bare.
	root := Root{
		Fragment: regularState([]string{"", ""}, map[string]Child{"0": {Kind: ChildComponentID, CID: 2}}),
		Components: map[string]Component{
			"1": {
				Statics: ComponentStatics{Kind: ComponentStaticsInline, Inline: []string{"", ""}},
				Children: map[string]Child{
					"0": {Kind: ChildFragment, Fragment: Fragment{
						Kind: FragmentComprehension, HasStatics: true,
						CompStatics: Statics{Kind: StaticsInline, Inline: []string{"[", "]"}},
						Dynamics:    [][]Child{{strChild("x")}},
					}},
				},
			},
			"2": {
				Statics: ComponentStatics{Kind: ComponentStaticsRef, RefCID: 1},
				Children: map[string]Child{
					"0": {Kind: ChildFragment, Fragment: Fragment{
						Kind:     FragmentComprehension,
						Dynamics: [][]Child{{strChild("y")}},
					}},
				},
			},
		},
	}
	got, err := Render(root)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "[y]" {
		t.Fatalf("got %q, want %q", got, "[y]")
	}
}

func TestRender_ComprehensionBothStaticsIsIllegal(t *testing.T) {
	root := Root{Fragment: Fragment{
		Kind:        FragmentComprehension,
		HasStatics:  true,
		CompStatics: Statics{Kind: StaticsInline, Inline: []string{"<li>", "</li>"}},
		Dynamics:    [][]Child{{strChild("a")}},
	}}
	// Force the illegal case by rendering this fragment itself as a
	// child with cousin statics supplied from outside.
	var sb strings.Builder
	err := renderFragmentInto(&sb, root.Fragment, nil, []string{"<li>", "</li>"}, true, nil, "$")
	if err == nil {
		t.Fatal("expected an illegal-cousin-statics error")
	}
	re, ok := err.(*RenderError)
	if !ok || re.Kind != ErrIllegalCousinStatics {
		t.Fatalf("expected RenderError{ErrIllegalCousinStatics}, got %#v", err)
	}
}

func TestRender_TemplateRefResolution(t *testing.T) {
	root := Root{Fragment: Fragment{
		Kind:         FragmentComprehension,
		HasStatics:   true,
		CompStatics:  Statics{Kind: StaticsTemplateRef, TplRef: 0},
		HasTemplates: true,
		Templates:    map[string][]string{"0": {"<li>", "</li>"}},
		Dynamics:     [][]Child{{strChild("a")}},
	}}
	got, err := Render(root)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "<li>a</li>" {
		t.Fatalf("got %q", got)
	}
}

func TestRender_TemplateRefWithoutDictionaryFails(t *testing.T) {
	root := Root{Fragment: Fragment{
		Kind:        FragmentComprehension,
		HasStatics:  true,
		CompStatics: Statics{Kind: StaticsTemplateRef, TplRef: 0},
		Dynamics:    [][]Child{{strChild("a")}},
	}}
	_, err := Render(root)
	if err == nil {
		t.Fatal("expected an error for a template ref with no active dictionary")
	}
	re, ok := err.(*RenderError)
	if !ok || re.Kind != ErrNoTemplates {
		t.Fatalf("expected RenderError{ErrNoTemplates}, got %#v", err)
	}
}

func TestRender_ComponentByID(t *testing.T) {
	root := Root{
		Fragment: regularState([]string{"", ""}, map[string]Child{"0": {Kind: ChildComponentID, CID: 1}}),
		Components: map[string]Component{
			"1": {Children: map[string]Child{"0": strChild("hi")}, Statics: ComponentStatics{Kind: ComponentStaticsInline, Inline: []string{"<b>", "</b>"}}},
		},
	}
	got, err := Render(root)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "<b>hi</b>" {
		t.Fatalf("got %q", got)
	}
}

func TestRender_ComponentRefChain(t *testing.T) {
	root := Root{
		Fragment: regularState([]string{"", ""}, map[string]Child{"0": {Kind: ChildComponentID, CID: 2}}),
		Components: map[string]Component{
			"1": {Children: map[string]Child{"0": strChild("shared")}, Statics: ComponentStatics{Kind: ComponentStaticsInline, Inline: []string{"<b>", "</b>"}}},
			"2": {Children: map[string]Child{"0": strChild("own")}, Statics: ComponentStatics{Kind: ComponentStaticsRef, RefCID: 1}},
		},
	}
	got, err := Render(root)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "<b>own</b>" {
		t.Fatalf("got %q", got)
	}
}

func TestRender_ComponentIDWithNoPoolFails(t *testing.T) {
	root := Root{Fragment: regularState([]string{"", ""}, map[string]Child{"0": {Kind: ChildComponentID, CID: 1}})}
	_, err := Render(root)
	if err == nil {
		t.Fatal("expected an error rendering a component id with no pool")
	}
	re, ok := err.(*RenderError)
	if !ok || re.Kind != ErrNoComponents {
		t.Fatalf("expected RenderError{ErrNoComponents}, got %#v", err)
	}
}

func TestRender_ComponentNeverSeesAmbientTemplates(t *testing.T) {
	root := Root{
		Fragment: Fragment{
			Kind:         FragmentComprehension,
			HasStatics:   true,
			CompStatics:  Statics{Kind: StaticsInline, Inline: []string{"", ""}},
			HasTemplates: true,
			Templates:    map[string][]string{"0": {"<li>", "</li>"}},
			Dynamics:     [][]Child{{{Kind: ChildComponentID, CID: 1}}},
		},
		Components: map[string]Component{
			"1": {
				Children: map[string]Child{"0": {Kind: ChildFragment, Fragment: Fragment{
					Kind:        FragmentComprehension,
					HasStatics:  true,
					CompStatics: Statics{Kind: StaticsTemplateRef, TplRef: 0},
					Dynamics:    [][]Child{{strChild("x")}},
				}}},
				Statics: ComponentStatics{Kind: ComponentStaticsInline, Inline: []string{"<span>", "</span>"}},
			},
		},
	}
	// The enclosing Comprehension defines template 0, but the
	// component's own Comprehension has no "p": resolving its
	// TemplateRef must fail rather than borrow the ambient one.
	got, err := Render(root)
	if err == nil {
		t.Fatalf("got %q; a component must never resolve a TemplateRef from an ambient dictionary", got)
	}
	re, ok := err.(*RenderError)
	if !ok || re.Kind != ErrNoTemplates {
		t.Fatalf("expected RenderError{ErrNoTemplates}, got %#v", err)
	}
}
