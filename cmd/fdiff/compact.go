package main

import (
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

// compactor lazily builds the shared tdewolff/minify instance used by
// the viewer's "compact" toggle (spec.md never mandates a specific
// rendered-text presentation, so collapsing whitespace here is a
// display choice local to this viewer, never applied inside Render
// itself).
var (
	compactor *minify.M
	once      sync.Once
)

func getCompactor() *minify.M {
	once.Do(func() {
		compactor = minify.New()
		compactor.AddFunc("text/html", html.Minify)
	})
	return compactor
}

// compactRendered collapses insignificant whitespace in a frame's
// rendered text for the viewer's compact mode. Falls back to the
// original text if the minifier chokes on it (rendered text is never
// guaranteed to be well-formed HTML — a Regular fragment's statics can
// be arbitrary strings).
func compactRendered(rendered string) string {
	if !strings.Contains(rendered, "<") {
		return collapseWhitespace(rendered)
	}
	out, err := getCompactor().String("text/html", rendered)
	if err != nil {
		return rendered
	}
	return out
}

// collapseWhitespace normalizes runs of whitespace in non-HTML text to
// single spaces, trimming the ends.
func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
