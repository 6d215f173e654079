// Package markup tokenizes the lightweight formula and image markup
// used in question and explanation text. Block math is wrapped in
// $$...$$, inline math in $...$, and images use the Markdown form
// ![alt](url). Everything else is plain text.
package markup

import (
	"regexp"
	"strings"
)

type SegmentKind string

const (
	KindText       SegmentKind = "text"
	KindInlineMath SegmentKind = "inline_math"
	KindBlockMath  SegmentKind = "block_math"
	KindImage      SegmentKind = "image"
)

// Segment is one tokenized span of a markup string. For math kinds,
// Content holds the formula without its delimiters. For images,
// Content holds the alt text and URL the target.
type Segment struct {
	Kind    SegmentKind `json:"kind"`
	Content string      `json:"content"`
	URL     string      `json:"url,omitempty"`
}

var (
	// Ordered alternation: block math must win over inline math so
	// that $$x$$ does not parse as two empty inline formulas.
	tokenPattern = regexp.MustCompile(`\$\$[\s\S]*?\$\$|\$[^$]*?\$|!\[[^\]]*\]\([^)]*\)`)
	imagePattern = regexp.MustCompile(`^!\[([^\]]*)\]\(([^)]*)\)$`)
)

// Tokenize splits raw markup into ordered segments. Unterminated
// delimiters are left as plain text rather than rejected, matching
// how the rendering layer degrades.
func Tokenize(raw string) []Segment {
	if raw == "" {
		return nil
	}

	var segments []Segment
	last := 0
	for _, loc := range tokenPattern.FindAllStringIndex(raw, -1) {
		if loc[0] > last {
			segments = append(segments, Segment{Kind: KindText, Content: raw[last:loc[0]]})
		}
		segments = append(segments, classify(raw[loc[0]:loc[1]]))
		last = loc[1]
	}
	if last < len(raw) {
		segments = append(segments, Segment{Kind: KindText, Content: raw[last:]})
	}
	return segments
}

func classify(token string) Segment {
	switch {
	case strings.HasPrefix(token, "$$"):
		return Segment{
			Kind:    KindBlockMath,
			Content: strings.TrimSpace(token[2 : len(token)-2]),
		}
	case strings.HasPrefix(token, "$"):
		return Segment{
			Kind:    KindInlineMath,
			Content: strings.TrimSpace(token[1 : len(token)-1]),
		}
	default:
		m := imagePattern.FindStringSubmatch(token)
		return Segment{Kind: KindImage, Content: m[1], URL: m[2]}
	}
}

// Balanced reports whether every math delimiter in raw is closed,
// meaning no stray $ survives outside a tokenized formula.
func Balanced(raw string) bool {
	for _, s := range Tokenize(raw) {
		if s.Kind == KindText && strings.Contains(s.Content, "$") {
			return false
		}
	}
	return true
}

// HasMath reports whether raw contains at least one math segment.
func HasMath(raw string) bool {
	for _, s := range Tokenize(raw) {
		if s.Kind == KindInlineMath || s.Kind == KindBlockMath {
			return true
		}
	}
	return false
}
