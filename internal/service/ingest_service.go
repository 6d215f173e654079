package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/faizerlangga999/ProjectCastleBeta/internal/config"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/markup"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/model"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/repository"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/util"
	"github.com/faizerlangga999/ProjectCastleBeta/pkg/logger"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CorrectAnswerUnknown marks a draft whose correct answer could not be
// determined from the source document. Drafts carrying it must be
// resolved by an editor before they can be saved.
const CorrectAnswerUnknown = "unknown"

const malformedExcerptLimit = 512

var optionLabels = []string{"A", "B", "C", "D", "E"}

// QuestionDraft is an extracted question awaiting editorial review.
// It mirrors the Question shape without identifiers.
type QuestionDraft struct {
	QuestionText    string            `json:"question_text"`
	Options         map[string]string `json:"options"`
	CorrectAnswer   string            `json:"correct_answer"`
	ExplanationText string            `json:"explanation_text"`
}

// IngestService converts uploaded question material (CSV exports, PDF
// papers, photographed worksheets) into drafts and persists approved
// drafts as quiz questions.
type IngestService struct {
	Classifier   Classifier
	QuizRepo     *repository.QuizRepository
	QuestionRepo *repository.QuestionRepository
	Config       config.IngestConfig

	// sleep is replaceable so retry timing is testable.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewIngestService(classifier Classifier, quizRepo *repository.QuizRepository, questionRepo *repository.QuestionRepository, cfg config.IngestConfig) *IngestService {
	return &IngestService{
		Classifier:   classifier,
		QuizRepo:     quizRepo,
		QuestionRepo: questionRepo,
		Config:       cfg,
		sleep: func(ctx context.Context, d time.Duration) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
				return nil
			}
		},
	}
}

// IngestCSV parses a header keyed CSV export into drafts. Expected
// columns: question_text, A..E, correct_answer, explanation_text.
// Every data row yields a draft; a file with no data rows is rejected
// before any draft is produced.
func (s *IngestService) IngestCSV(r io.Reader) ([]QuestionDraft, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, util.ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var drafts []QuestionDraft
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		draft := QuestionDraft{
			QuestionText:    field(record, "question_text"),
			Options:         map[string]string{},
			CorrectAnswer:   field(record, "correct_answer"),
			ExplanationText: field(record, "explanation_text"),
		}
		for _, label := range optionLabels {
			if v := field(record, strings.ToLower(label)); v != "" {
				draft.Options[label] = v
			}
		}
		s.normalizeDraft(&draft)
		drafts = append(drafts, draft)
	}

	if len(drafts) == 0 {
		return nil, util.ErrEmptyInput
	}
	return drafts, nil
}

// IngestDocument extracts drafts from a PDF or image upload. PDFs are
// first read locally; when the embedded text layer is too thin to be
// useful (scanned papers), the raw bytes go to the classifier instead.
func (s *IngestService) IngestDocument(ctx context.Context, mimeType string, data []byte) ([]QuestionDraft, error) {
	if len(data) == 0 {
		return nil, util.ErrEmptyInput
	}

	var prompt string
	var doc *InlineDocument

	if mimeType == "application/pdf" {
		text, err := extractPDFText(data)
		if err != nil {
			logger.Log.Warn("pdf text extraction failed, falling back to inline document", zap.Error(err))
		}
		if len(strings.TrimSpace(text)) >= s.Config.MinPDFTextLen {
			text = truncateToRuneBoundary(text, s.Config.MaxPromptChars)
			prompt = extractionPrompt + "\n\nDocument text:\n" + text
		}
	}

	if prompt == "" {
		prompt = extractionPrompt
		doc = &InlineDocument{MIMEType: mimeType, Data: data}
	}

	raw, err := s.classifyWithRetry(ctx, prompt, doc)
	if err != nil {
		return nil, err
	}

	drafts, err := s.parseDrafts(raw)
	if err != nil {
		return nil, err
	}

	mathCount := 0
	for i := range drafts {
		s.normalizeDraft(&drafts[i])
		if markup.HasMath(drafts[i].QuestionText) {
			mathCount++
		}
	}
	logger.Log.Debug("document ingestion parsed",
		zap.Int("drafts", len(drafts)),
		zap.Int("with_math", mathCount))

	return drafts, nil
}

// extractionPrompt is the instruction contract for the classifier:
// one JSON array of question objects, math in $/$$ delimiters, and
// the unknown sentinel when the answer key is absent.
const extractionPrompt = `Extract every multiple-choice question from the provided material.
Respond with ONLY a JSON array, no prose, where each element has the shape:
{"question_text": string, "options": {"A": string, "B": string, ...}, "correct_answer": string, "explanation_text": string}
Rules:
- Preserve mathematical notation as LaTeX wrapped in $...$ for inline formulas and $$...$$ for display formulas.
- Option keys are capital letters A through E in the order they appear.
- correct_answer is the single option letter, or the string "unknown" if the material does not indicate it.
- explanation_text may be an empty string when no explanation is given.`

// classifyWithRetry calls the classifier with bounded retries and a
// doubling backoff. Rate limiting and server faults retry, request
// faults do not.
func (s *IngestService) classifyWithRetry(ctx context.Context, prompt string, doc *InlineDocument) (string, error) {
	attempts := s.Config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := s.Config.RetryBaseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		raw, err := s.Classifier.Classify(ctx, prompt, doc)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if errors.Is(err, util.ErrBadRequest) {
			return "", err
		}
		if attempt == attempts {
			break
		}

		logger.Log.Warn("classifier call failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		if err := s.sleep(ctx, delay); err != nil {
			return "", err
		}
		delay *= 2
	}
	return "", lastErr
}

// parseDrafts applies the tolerant decode order: bracket substring,
// then fence-stripped bracket substring, then a bare object wrapped
// as a single-element array.
func (s *IngestService) parseDrafts(raw string) ([]QuestionDraft, error) {
	candidates := []string{raw, stripCodeFences(raw)}
	for _, text := range candidates {
		if drafts, ok := decodeDraftArray(text); ok {
			return drafts, nil
		}
		var single QuestionDraft
		trimmed := strings.TrimSpace(text)
		if strings.HasPrefix(trimmed, "{") && json.Unmarshal([]byte(trimmed), &single) == nil {
			return []QuestionDraft{single}, nil
		}
	}
	return nil, util.NewMalformedResponseError(raw, malformedExcerptLimit)
}

func decodeDraftArray(text string) ([]QuestionDraft, bool) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, false
	}
	var drafts []QuestionDraft
	if err := json.Unmarshal([]byte(text[start:end+1]), &drafts); err != nil {
		return nil, false
	}
	return drafts, true
}

// stripCodeFences removes one surrounding Markdown code fence, with or
// without a language tag.
func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if i := strings.Index(trimmed, "\n"); i >= 0 {
		first := strings.TrimSpace(trimmed[:i])
		if first == "json" || first == "" {
			trimmed = trimmed[i+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// normalizeDraft trims fields, upcases the answer letter, and applies
// the defaults that make a raw extraction editable: at least two
// option slots and the unknown sentinel for a missing answer.
func (s *IngestService) normalizeDraft(d *QuestionDraft) {
	d.QuestionText = strings.TrimSpace(d.QuestionText)
	d.ExplanationText = strings.TrimSpace(d.ExplanationText)
	d.CorrectAnswer = strings.TrimSpace(d.CorrectAnswer)

	if d.Options == nil {
		d.Options = map[string]string{}
	}
	normalized := make(map[string]string, len(d.Options))
	for label, text := range d.Options {
		label = strings.ToUpper(strings.TrimSpace(label))
		if label == "" {
			continue
		}
		normalized[label] = strings.TrimSpace(text)
	}
	d.Options = normalized

	for i := 0; len(d.Options) < 2 && i < len(optionLabels); i++ {
		if _, ok := d.Options[optionLabels[i]]; !ok {
			d.Options[optionLabels[i]] = ""
		}
	}

	switch upper := strings.ToUpper(d.CorrectAnswer); {
	case d.CorrectAnswer == "" || strings.EqualFold(d.CorrectAnswer, CorrectAnswerUnknown):
		d.CorrectAnswer = CorrectAnswerUnknown
	case len(upper) == 1:
		d.CorrectAnswer = upper
	}
}

// SaveDraftsRequest persists reviewed drafts, either appending to an
// existing quiz or creating a new one in the same step.
type SaveDraftsRequest struct {
	QuizID          string          `json:"quiz_id"`
	Title           string          `json:"title"`
	Category        string          `json:"category"`
	DurationMinutes int             `json:"duration_minutes"`
	Drafts          []QuestionDraft `json:"drafts"`
}

// SaveDrafts validates every draft and writes them all inside one
// transaction. Any validation failure aborts the whole batch with
// nothing written.
func (s *IngestService) SaveDrafts(req SaveDraftsRequest) (*model.Quiz, int, error) {
	if len(req.Drafts) == 0 {
		return nil, 0, util.ErrEmptyInput
	}

	verr := &util.ValidationError{}
	for i, d := range req.Drafts {
		validateDraft(i, d, verr)
	}
	if verr.HasErrors() {
		return nil, 0, verr
	}

	var quiz *model.Quiz
	err := s.QuizRepo.DB.Transaction(func(tx *gorm.DB) error {
		if req.QuizID != "" {
			var existing model.Quiz
			if err := tx.Where("id = ?", req.QuizID).First(&existing).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return util.ErrQuizNotFound
				}
				return err
			}
			quiz = &existing
		} else {
			duration := req.DurationMinutes
			if duration <= 0 {
				duration = 30
			}
			quiz = &model.Quiz{
				Title:           strings.TrimSpace(req.Title),
				Category:        strings.TrimSpace(req.Category),
				DurationMinutes: duration,
			}
			if quiz.Title == "" {
				verr.Add("title", "title is required for a new quiz")
				return verr
			}
			if err := tx.Create(quiz).Error; err != nil {
				return err
			}
		}

		for _, d := range req.Drafts {
			options, err := json.Marshal(d.Options)
			if err != nil {
				return err
			}
			question := model.Question{
				QuizID:          quiz.ID,
				QuestionText:    d.QuestionText,
				Options:         options,
				CorrectAnswer:   d.CorrectAnswer,
				ExplanationText: d.ExplanationText,
			}
			if err := tx.Create(&question).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return quiz, len(req.Drafts), nil
}

// validateDraft enforces the completeness invariant before anything
// touches storage.
func validateDraft(index int, d QuestionDraft, verr *util.ValidationError) {
	prefix := fmt.Sprintf("drafts[%d]", index)

	if strings.TrimSpace(d.QuestionText) == "" {
		verr.Add(prefix+".question_text", "question text is required")
	} else if !markup.Balanced(d.QuestionText) {
		verr.Add(prefix+".question_text", "unclosed math delimiter")
	}

	filled := 0
	for label, text := range d.Options {
		if !validLabel(label) {
			verr.Add(prefix+".options", fmt.Sprintf("invalid option label %q", label))
		}
		if strings.TrimSpace(text) != "" {
			filled++
		}
	}
	if filled < 2 {
		verr.Add(prefix+".options", "at least two options must have text")
	}

	switch {
	case d.CorrectAnswer == CorrectAnswerUnknown:
		verr.Add(prefix+".correct_answer", "correct answer must be resolved before saving")
	case !validLabel(d.CorrectAnswer):
		verr.Add(prefix+".correct_answer", fmt.Sprintf("invalid answer label %q", d.CorrectAnswer))
	default:
		if text, ok := d.Options[d.CorrectAnswer]; !ok || strings.TrimSpace(text) == "" {
			verr.Add(prefix+".correct_answer", "correct answer must point at a non-empty option")
		}
	}

	if d.ExplanationText != "" && !markup.Balanced(d.ExplanationText) {
		verr.Add(prefix+".explanation_text", "unclosed math delimiter")
	}
}

func validLabel(label string) bool {
	for _, l := range optionLabels {
		if l == label {
			return true
		}
	}
	return false
}

// truncateToRuneBoundary shortens s to at most max bytes without
// cutting through a multi-byte rune.
func truncateToRuneBoundary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// extractPDFText reads the embedded text layer of a PDF.
func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, textReader); err != nil {
		return "", err
	}
	return sb.String(), nil
}
