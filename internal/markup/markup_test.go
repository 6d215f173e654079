package markup

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Segment
	}{
		{
			name: "plain text only",
			raw:  "What is the capital of France?",
			want: []Segment{{Kind: KindText, Content: "What is the capital of France?"}},
		},
		{
			name: "empty input",
			raw:  "",
			want: nil,
		},
		{
			name: "inline math surrounded by text",
			raw:  "Solve $x^2 + 1 = 0$ for x.",
			want: []Segment{
				{Kind: KindText, Content: "Solve "},
				{Kind: KindInlineMath, Content: "x^2 + 1 = 0"},
				{Kind: KindText, Content: " for x."},
			},
		},
		{
			name: "block math wins over inline",
			raw:  "$$\\int_0^1 x\\,dx$$",
			want: []Segment{
				{Kind: KindBlockMath, Content: "\\int_0^1 x\\,dx"},
			},
		},
		{
			name: "image markup",
			raw:  "See ![diagram](https://cdn.example.com/q1.png) above",
			want: []Segment{
				{Kind: KindText, Content: "See "},
				{Kind: KindImage, Content: "diagram", URL: "https://cdn.example.com/q1.png"},
				{Kind: KindText, Content: " above"},
			},
		},
		{
			name: "mixed inline and block",
			raw:  "Given $a$ then $$a+b$$ done",
			want: []Segment{
				{Kind: KindText, Content: "Given "},
				{Kind: KindInlineMath, Content: "a"},
				{Kind: KindText, Content: " then "},
				{Kind: KindBlockMath, Content: "a+b"},
				{Kind: KindText, Content: " done"},
			},
		},
		{
			name: "unterminated dollar stays text",
			raw:  "price is $5 and rising",
			want: []Segment{{Kind: KindText, Content: "price is $5 and rising"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestHasMath(t *testing.T) {
	if HasMath("no formulas here") {
		t.Error("expected no math in plain text")
	}
	if !HasMath("compute $e^{i\\pi}$") {
		t.Error("expected inline math to be detected")
	}
	if !HasMath("$$\\frac{a}{b}$$") {
		t.Error("expected block math to be detected")
	}
}
