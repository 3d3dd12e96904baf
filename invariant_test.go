package fragmentdiff

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
)

// randomRegularFragment builds a well-formed Regular fragment (spec.md
// §8 invariants 1-2: inline statics one longer than the contiguous
// "0".."n-1" children it interleaves) with n in [0, maxChildren].
func randomRegularFragment(maxChildren int) Fragment {
	n := gofakeit.Number(0, maxChildren)
	statics := make([]string, n+1)
	for i := range statics {
		statics[i] = gofakeit.LetterN(3)
	}
	children := make(map[string]Child, n)
	for i := 0; i < n; i++ {
		children[itoa(i)] = Child{Kind: ChildString, Str: gofakeit.LetterN(5)}
	}
	return Fragment{Kind: FragmentRegular, Statics: Statics{Kind: StaticsInline, Inline: statics}, Children: children}
}

// encodeRegularFragmentJSON renders frag (a Regular fragment whose
// children are all strings) as the full, non-sparse wire JSON decode.go
// expects for a first install.
func encodeRegularFragmentJSON(frag Fragment) []byte {
	obj := make(map[string]any, len(frag.Children)+1)
	for k, c := range frag.Children {
		obj[k] = c.Str
	}
	obj["s"] = frag.Statics.Inline
	data, err := json.Marshal(obj)
	if err != nil {
		panic(err)
	}
	return data
}

func TestInvariant_StaticsArityAndContiguousKeys(t *testing.T) {
	for i := 0; i < 50; i++ {
		frag := randomRegularFragment(10)
		if len(frag.Statics.Inline) != len(frag.Children)+1 {
			t.Fatalf("invariant 1 violated: %d statics for %d children", len(frag.Statics.Inline), len(frag.Children))
		}
		for idx := 0; idx < len(frag.Children); idx++ {
			if _, ok := frag.Children[itoa(idx)]; !ok {
				t.Fatalf("invariant 2 violated: missing contiguous key %d among %d children", idx, len(frag.Children))
			}
		}
	}
}

func TestInvariant_NegativeComponentRefNeverObservableAfterInstall(t *testing.T) {
	for i := 0; i < 50; i++ {
		neg := -int32(gofakeit.Number(1, 1000))
		diff := ComponentDiff{
			Kind:            ComponentDiffReplaceCurrent,
			ReplaceChildren: map[string]Child{},
			ReplaceStatics:  ComponentStatics{Kind: ComponentStaticsRef, RefCID: neg},
		}
		comp, err := componentDiffToComponent(diff, "$.c.1")
		if err != nil {
			t.Fatalf("componentDiffToComponent failed: %v", err)
		}
		if comp.Statics.RefCID < 0 {
			t.Fatalf("invariant 5 violated: negative ref %d observable after install (from %d)", comp.Statics.RefCID, neg)
		}
	}
}

func TestInvariant_TemplatesMergeAssociativeOverDisjointKeys(t *testing.T) {
	for i := 0; i < 20; i++ {
		a := map[string][]string{fmt.Sprintf("a%d", i): {gofakeit.LetterN(3)}}
		b := map[string][]string{fmt.Sprintf("b%d", i): {gofakeit.LetterN(3)}}
		c := map[string][]string{fmt.Sprintf("c%d", i): {gofakeit.LetterN(3)}}

		_, ab := mergeTemplates(true, a, true, b)
		_, abThenC := mergeTemplates(true, ab, true, c)

		_, bc := mergeTemplates(true, b, true, c)
		_, aThenBC := mergeTemplates(true, a, true, bc)

		if !reflect.DeepEqual(abThenC, aThenBC) {
			t.Fatalf("templates merge not associative over disjoint keys: (a∪b)∪c=%v vs a∪(b∪c)=%v", abThenC, aThenBC)
		}
	}
}

// TestRoundTrip_RenderMatchesDirectRenderOfSameLogicalState checks
// spec.md §8's first round-trip law: render(root_from_diff(decode(J)))
// equals what rendering the logical state J describes directly looks
// like, for randomly generated well-formed snapshots.
func TestRoundTrip_RenderMatchesDirectRenderOfSameLogicalState(t *testing.T) {
	for i := 0; i < 20; i++ {
		frag := randomRegularFragment(6)

		want, err := Render(Root{Fragment: frag})
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}

		diff, err := DecodeRootDiff(encodeRegularFragmentJSON(frag))
		if err != nil {
			t.Fatalf("DecodeRootDiff failed: %v", err)
		}
		root, err := RootFromDiff(diff)
		if err != nil {
			t.Fatalf("RootFromDiff failed: %v", err)
		}
		got, err := Render(root)
		if err != nil {
			t.Fatalf("Render (round-trip) failed: %v", err)
		}
		if got != want {
			t.Fatalf("round-trip mismatch: want %q got %q", want, got)
		}
	}
}

// TestRoundTrip_FoldedMergeSequenceMatchesSingleSnapshot checks spec.md
// §8's second round-trip law: folding a sequence of diffs through
// repeated Merge calls yields the same rendered output as decoding a
// single snapshot of the final server state.
func TestRoundTrip_FoldedMergeSequenceMatchesSingleSnapshot(t *testing.T) {
	for i := 0; i < 10; i++ {
		n := gofakeit.Number(1, 5)
		statics := make([]string, n+1)
		for j := range statics {
			statics[j] = gofakeit.LetterN(3)
		}

		initial := map[string]Child{}
		for j := 0; j < n; j++ {
			initial[itoa(j)] = Child{Kind: ChildString, Str: gofakeit.LetterN(5)}
		}
		initialFrag := Fragment{Kind: FragmentRegular, Statics: Statics{Kind: StaticsInline, Inline: statics}, Children: initial}

		tree := NewTree()
		if err := tree.ApplyJSON(encodeRegularFragmentJSON(initialFrag)); err != nil {
			t.Fatalf("applying initial snapshot failed: %v", err)
		}

		final := map[string]Child{}
		for k, v := range initial {
			final[k] = v
		}
		for step := 0; step < 5; step++ {
			idx := itoa(gofakeit.Number(0, n-1))
			newVal := gofakeit.LetterN(5)
			update := fmt.Sprintf(`{%q:%q}`, idx, newVal)
			if err := tree.ApplyJSON([]byte(update)); err != nil {
				t.Fatalf("applying update diff failed: %v", err)
			}
			final[idx] = Child{Kind: ChildString, Str: newVal}
		}

		snapshotFrag := Fragment{Kind: FragmentRegular, Statics: Statics{Kind: StaticsInline, Inline: statics}, Children: final}
		snapshotTree := NewTree()
		if err := snapshotTree.ApplyJSON(encodeRegularFragmentJSON(snapshotFrag)); err != nil {
			t.Fatalf("applying collapsed snapshot failed: %v", err)
		}

		gotFolded, err := tree.Render()
		if err != nil {
			t.Fatalf("rendering folded tree failed: %v", err)
		}
		gotSnapshot, err := snapshotTree.Render()
		if err != nil {
			t.Fatalf("rendering snapshot tree failed: %v", err)
		}
		if gotFolded != gotSnapshot {
			t.Fatalf("folded merge sequence diverged from single-snapshot decode: %q vs %q", gotFolded, gotSnapshot)
		}
	}
}
