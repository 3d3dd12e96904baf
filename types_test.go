package fragmentdiff

import "testing"

func TestComponent_FixStaticsNormalizesNegativeRef(t *testing.T) {
	c := Component{Statics: ComponentStatics{Kind: ComponentStaticsRef, RefCID: -5}}
	got := c.fixStatics()
	if got.Statics.RefCID != 5 {
		t.Fatalf("expected RefCID normalized to 5, got %d", got.Statics.RefCID)
	}
}

func TestComponent_FixStaticsLeavesPositiveRefAlone(t *testing.T) {
	c := Component{Statics: ComponentStatics{Kind: ComponentStaticsRef, RefCID: 5}}
	got := c.fixStatics()
	if got.Statics.RefCID != 5 {
		t.Fatalf("expected RefCID to stay 5, got %d", got.Statics.RefCID)
	}
}

func TestComponent_FixStaticsIgnoresInline(t *testing.T) {
	c := Component{Statics: ComponentStatics{Kind: ComponentStaticsInline, Inline: []string{"a"}}}
	got := c.fixStatics()
	if len(got.Statics.Inline) != 1 || got.Statics.Inline[0] != "a" {
		t.Fatalf("fixStatics should leave inline statics untouched, got %+v", got.Statics)
	}
}

func TestChild_StaticsForRegularFragment(t *testing.T) {
	c := Child{Kind: ChildFragment, Fragment: regularState([]string{"<p>", "</p>"}, map[string]Child{"0": strChild("x")})}
	inline, ok := c.statics()
	if !ok || len(inline) != 2 {
		t.Fatalf("expected inline statics from a Regular child, got %v, %v", inline, ok)
	}
}

func TestChild_StaticsForComprehensionWithoutOwnStatics(t *testing.T) {
	c := Child{Kind: ChildFragment, Fragment: Fragment{Kind: FragmentComprehension, Dynamics: [][]Child{{strChild("x")}}}}
	_, ok := c.statics()
	if ok {
		t.Fatal("expected no statics for a statics-less Comprehension child")
	}
}

func TestChild_StaticsForStringIsFalse(t *testing.T) {
	c := strChild("x")
	_, ok := c.statics()
	if ok {
		t.Fatal("expected no statics for a string child")
	}
}

func TestChild_StaticsForComponentIDIsFalse(t *testing.T) {
	c := Child{Kind: ChildComponentID, CID: 1}
	_, ok := c.statics()
	if ok {
		t.Fatal("expected no statics for a component-id child")
	}
}

func TestChild_StaticsForTemplateRefComprehensionIsFalse(t *testing.T) {
	c := Child{Kind: ChildFragment, Fragment: Fragment{
		Kind: FragmentComprehension, HasStatics: true,
		CompStatics: Statics{Kind: StaticsTemplateRef, TplRef: 0},
		Dynamics:    [][]Child{{strChild("x")}},
	}}
	_, ok := c.statics()
	if ok {
		t.Fatal("expected no usable inline statics from a template-ref-backed Comprehension")
	}
}
