package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/faizerlangga999/ProjectCastleBeta/internal/config"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/util"
)

type fakeClassifier struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeClassifier) Classify(ctx context.Context, prompt string, doc *InlineDocument) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", errors.New("unexpected extra call")
}

func newTestIngest(classifier Classifier) (*IngestService, *[]time.Duration) {
	svc := NewIngestService(classifier, nil, nil, config.IngestConfig{
		MaxAttempts:    3,
		RetryBaseDelay: time.Second,
		MaxPromptChars: 20000,
		MinPDFTextLen:  40,
	})
	var delays []time.Duration
	svc.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return svc, &delays
}

const validArray = `[{"question_text":"What is $2+2$?","options":{"A":"3","B":"4"},"correct_answer":"B","explanation_text":""}]`

func TestClassifyRetryBadRequestFailsFast(t *testing.T) {
	classifier := &fakeClassifier{errs: []error{fmt.Errorf("%w: status 400", util.ErrBadRequest)}}
	svc, delays := newTestIngest(classifier)

	_, err := svc.classifyWithRetry(context.Background(), "p", nil)
	if !errors.Is(err, util.ErrBadRequest) {
		t.Fatalf("err = %v, want ErrBadRequest", err)
	}
	if classifier.calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on bad request)", classifier.calls)
	}
	if len(*delays) != 0 {
		t.Errorf("slept %d times, want 0", len(*delays))
	}
}

func TestClassifyRetryServerErrorThenSuccess(t *testing.T) {
	classifier := &fakeClassifier{
		errs:      []error{util.ErrServerError, util.ErrRateLimited, nil},
		responses: []string{"", "", validArray},
	}
	svc, delays := newTestIngest(classifier)

	raw, err := svc.classifyWithRetry(context.Background(), "p", nil)
	if err != nil {
		t.Fatal(err)
	}
	if raw != validArray {
		t.Errorf("raw = %q", raw)
	}
	if classifier.calls != 3 {
		t.Errorf("calls = %d, want 3", classifier.calls)
	}
	if len(*delays) != 2 {
		t.Fatalf("slept %d times, want 2", len(*delays))
	}
	if (*delays)[0] != time.Second || (*delays)[1] != 2*time.Second {
		t.Errorf("delays = %v, want [1s 2s]", *delays)
	}
}

func TestClassifyRetryExhaustionSurfacesLastError(t *testing.T) {
	classifier := &fakeClassifier{
		errs: []error{util.ErrServerError, util.ErrServerError, util.ErrRateLimited},
	}
	svc, _ := newTestIngest(classifier)

	_, err := svc.classifyWithRetry(context.Background(), "p", nil)
	if !errors.Is(err, util.ErrRateLimited) {
		t.Fatalf("err = %v, want the last error (ErrRateLimited)", err)
	}
	if classifier.calls != 3 {
		t.Errorf("calls = %d, want 3", classifier.calls)
	}
}

func TestParseDrafts(t *testing.T) {
	svc, _ := newTestIngest(nil)

	tests := []struct {
		name  string
		raw   string
		count int
	}{
		{"bare array", validArray, 1},
		{"array inside prose", "Here are the questions:\n" + validArray + "\nDone.", 1},
		{"fenced json", "```json\n" + validArray + "\n```", 1},
		{"fenced without language", "```\n" + validArray + "\n```", 1},
		{"single object wrapped", `{"question_text":"q","options":{"A":"1","B":"2"},"correct_answer":"A","explanation_text":""}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drafts, err := svc.parseDrafts(tt.raw)
			if err != nil {
				t.Fatal(err)
			}
			if len(drafts) != tt.count {
				t.Errorf("parsed %d drafts, want %d", len(drafts), tt.count)
			}
		})
	}
}

func TestParseDraftsMalformed(t *testing.T) {
	svc, _ := newTestIngest(nil)

	raw := "I could not extract any questions. " + strings.Repeat("x", 2000)
	_, err := svc.parseDrafts(raw)

	var malformed *util.MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("err = %T, want MalformedResponseError", err)
	}
	if len(malformed.Excerpt) > 512 {
		t.Errorf("excerpt length = %d, want <= 512", len(malformed.Excerpt))
	}
}

func TestIngestCSV(t *testing.T) {
	csvText := "question_text,A,B,C,D,correct_answer,explanation_text\n" +
		"What is 2+2?,3,4,5,6,B,Basic arithmetic\n" +
		"Capital of France?,Paris,London,,,A,\n"

	svc, _ := newTestIngest(nil)
	drafts, err := svc.IngestCSV(strings.NewReader(csvText))
	if err != nil {
		t.Fatal(err)
	}
	if len(drafts) != 2 {
		t.Fatalf("got %d drafts, want 2", len(drafts))
	}

	first := drafts[0]
	if first.QuestionText != "What is 2+2?" {
		t.Errorf("question_text = %q", first.QuestionText)
	}
	if first.Options["B"] != "4" || len(first.Options) != 4 {
		t.Errorf("options = %v", first.Options)
	}
	if first.CorrectAnswer != "B" {
		t.Errorf("correct_answer = %q", first.CorrectAnswer)
	}

	second := drafts[1]
	if len(second.Options) != 2 {
		t.Errorf("blank option cells must not become options: %v", second.Options)
	}
}

func TestIngestCSVEmpty(t *testing.T) {
	svc, _ := newTestIngest(nil)

	if _, err := svc.IngestCSV(strings.NewReader("")); !errors.Is(err, util.ErrEmptyInput) {
		t.Errorf("empty file: err = %v, want ErrEmptyInput", err)
	}

	headerOnly := "question_text,A,B,correct_answer,explanation_text\n"
	if _, err := svc.IngestCSV(strings.NewReader(headerOnly)); !errors.Is(err, util.ErrEmptyInput) {
		t.Errorf("header only: err = %v, want ErrEmptyInput", err)
	}
}

func TestNormalizeDraft(t *testing.T) {
	svc, _ := newTestIngest(nil)

	t.Run("missing answer becomes unknown", func(t *testing.T) {
		d := QuestionDraft{QuestionText: " q ", Options: map[string]string{"A": "1", "B": "2"}}
		svc.normalizeDraft(&d)
		if d.CorrectAnswer != CorrectAnswerUnknown {
			t.Errorf("correct_answer = %q, want unknown", d.CorrectAnswer)
		}
		if d.QuestionText != "q" {
			t.Errorf("question_text not trimmed: %q", d.QuestionText)
		}
	})

	t.Run("too few options padded to two", func(t *testing.T) {
		d := QuestionDraft{QuestionText: "q", Options: map[string]string{"A": "only"}, CorrectAnswer: "a"}
		svc.normalizeDraft(&d)
		if len(d.Options) != 2 {
			t.Fatalf("options = %v, want padded to 2", d.Options)
		}
		if _, ok := d.Options["B"]; !ok {
			t.Errorf("expected empty B slot, got %v", d.Options)
		}
		if d.CorrectAnswer != "A" {
			t.Errorf("answer letter not upcased: %q", d.CorrectAnswer)
		}
	})

	t.Run("nil options map initialized", func(t *testing.T) {
		d := QuestionDraft{QuestionText: "q", CorrectAnswer: "Unknown"}
		svc.normalizeDraft(&d)
		if d.Options == nil || len(d.Options) != 2 {
			t.Errorf("options = %v, want initialized with 2 slots", d.Options)
		}
		if d.CorrectAnswer != CorrectAnswerUnknown {
			t.Errorf("correct_answer = %q, want unknown sentinel", d.CorrectAnswer)
		}
	})
}

func TestValidateDraft(t *testing.T) {
	good := QuestionDraft{
		QuestionText:    "Solve $x+1=2$",
		Options:         map[string]string{"A": "0", "B": "1"},
		CorrectAnswer:   "B",
		ExplanationText: "Subtract one.",
	}

	t.Run("complete draft passes", func(t *testing.T) {
		verr := &util.ValidationError{}
		validateDraft(0, good, verr)
		if verr.HasErrors() {
			t.Errorf("unexpected errors: %v", verr.Fields)
		}
	})

	t.Run("unknown sentinel rejected", func(t *testing.T) {
		d := good
		d.CorrectAnswer = CorrectAnswerUnknown
		verr := &util.ValidationError{}
		validateDraft(0, d, verr)
		if !verr.HasErrors() {
			t.Error("unresolved answer must fail validation")
		}
	})

	t.Run("answer must point at filled option", func(t *testing.T) {
		d := good
		d.Options = map[string]string{"A": "0", "B": "1", "C": ""}
		d.CorrectAnswer = "C"
		verr := &util.ValidationError{}
		validateDraft(0, d, verr)
		if !verr.HasErrors() {
			t.Error("empty target option must fail validation")
		}
	})

	t.Run("unbalanced math rejected", func(t *testing.T) {
		d := good
		d.QuestionText = "Solve $x+1=2"
		verr := &util.ValidationError{}
		validateDraft(0, d, verr)
		if !verr.HasErrors() {
			t.Error("stray delimiter must fail validation")
		}
	})

	t.Run("fewer than two filled options rejected", func(t *testing.T) {
		d := good
		d.Options = map[string]string{"A": "only", "B": ""}
		verr := &util.ValidationError{}
		validateDraft(0, d, verr)
		if !verr.HasErrors() {
			t.Error("single filled option must fail validation")
		}
	})
}

func TestTruncateToRuneBoundary(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short string untouched", "abc", 10, "abc"},
		{"ascii cut exact", "abcdef", 3, "abc"},
		{"two-byte rune not split", "abécd", 3, "ab"},
		{"cut lands on rune start", "abécd", 4, "abé"},
		{"three-byte rune not split", "a∑b", 2, "a"},
		{"four-byte rune not split", "a\U0001f600b", 3, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateToRuneBoundary(tt.in, tt.max)
			if got != tt.want {
				t.Errorf("truncateToRuneBoundary(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
			if len(got) > tt.max {
				t.Errorf("result is %d bytes, limit is %d", len(got), tt.max)
			}
			if !utf8.ValidString(got) {
				t.Errorf("result %q is not valid UTF-8", got)
			}
		})
	}
}
