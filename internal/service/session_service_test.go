package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/faizerlangga999/ProjectCastleBeta/internal/model"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/util"
	"github.com/faizerlangga999/ProjectCastleBeta/pkg/logger"

	"go.uber.org/zap"
)

func init() {
	logger.Log = zap.NewNop()
}

type fakeProvider struct {
	questions []model.Question
	err       error
}

func (f *fakeProvider) QuestionsForQuiz(quizID string) ([]model.Question, error) {
	return f.questions, f.err
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedAttempt
	err   error
}

type recordedAttempt struct {
	UserID string
	QuizID string
	Score  int
}

func (f *fakeRecorder) RecordAttempt(userID, quizID string, score int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedAttempt{UserID: userID, QuizID: quizID, Score: score})
	return f.err
}

func (f *fakeRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func makeQuestions(n int) []model.Question {
	questions := make([]model.Question, n)
	for i := range questions {
		questions[i] = model.Question{
			QuestionText:  "q",
			CorrectAnswer: "A",
		}
	}
	return questions
}

func newTestService(provider QuestionProvider, recorder AttemptRecorder) *SessionService {
	svc := NewSessionService(provider, recorder)
	// keep the real ticker from ever firing so tests drive tick directly
	svc.tickEvery = time.Hour
	return svc
}

func TestStartExamRequiresUser(t *testing.T) {
	svc := newTestService(&fakeProvider{questions: makeQuestions(2)}, &fakeRecorder{})

	_, err := svc.Start("", "quiz-1", ModeExam, 10)
	if !errors.Is(err, util.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if len(svc.sessions) != 0 {
		t.Fatal("no session should exist after a rejected start")
	}
}

func TestStartRejectsEmptyQuiz(t *testing.T) {
	svc := newTestService(&fakeProvider{}, &fakeRecorder{})

	_, err := svc.Start("user-1", "quiz-1", ModePractice, 0)
	if !errors.Is(err, util.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestNavigationClamps(t *testing.T) {
	svc := newTestService(&fakeProvider{questions: makeQuestions(3)}, &fakeRecorder{})
	session, err := svc.Start("user-1", "quiz-1", ModePractice, 0)
	if err != nil {
		t.Fatal(err)
	}

	if s, _ := svc.GoTo(session.ID, "user-1", 99); s.CurrentIndex != 2 {
		t.Errorf("GoTo past end: index = %d, want 2", s.CurrentIndex)
	}
	if s, _ := svc.GoTo(session.ID, "user-1", -5); s.CurrentIndex != 0 {
		t.Errorf("GoTo before start: index = %d, want 0", s.CurrentIndex)
	}
	if s, _ := svc.Prev(session.ID, "user-1"); s.CurrentIndex != 0 {
		t.Errorf("Prev at start: index = %d, want 0", s.CurrentIndex)
	}
	svc.GoTo(session.ID, "user-1", 2)
	if s, _ := svc.Next(session.ID, "user-1"); s.CurrentIndex != 2 {
		t.Errorf("Next at end: index = %d, want 2", s.CurrentIndex)
	}
}

func TestConfirmWithoutAnswerIsNoop(t *testing.T) {
	svc := newTestService(&fakeProvider{questions: makeQuestions(2)}, &fakeRecorder{})
	session, _ := svc.Start("user-1", "quiz-1", ModePractice, 0)

	if _, err := svc.Confirm(session.ID, "user-1", 0); err != nil {
		t.Fatal(err)
	}
	if session.Revealed[0] {
		t.Error("confirming an unanswered question must not reveal it")
	}
}

func TestPracticeRevealLocksAnswer(t *testing.T) {
	svc := newTestService(&fakeProvider{questions: makeQuestions(2)}, &fakeRecorder{})
	session, _ := svc.Start("user-1", "quiz-1", ModePractice, 0)

	svc.Select(session.ID, "user-1", 0, "B")
	svc.Confirm(session.ID, "user-1", 0)
	if !session.Revealed[0] {
		t.Fatal("confirm after answer should reveal")
	}

	svc.Select(session.ID, "user-1", 0, "A")
	if session.Answers[0] != "B" {
		t.Errorf("revealed answer changed to %q, want locked at B", session.Answers[0])
	}

	// other questions stay editable
	svc.Select(session.ID, "user-1", 1, "A")
	svc.Select(session.ID, "user-1", 1, "C")
	if session.Answers[1] != "C" {
		t.Errorf("unrevealed answer = %q, want C", session.Answers[1])
	}
}

func TestExamNeverLocksOrReveals(t *testing.T) {
	svc := newTestService(&fakeProvider{questions: makeQuestions(2)}, &fakeRecorder{})
	session, _ := svc.Start("user-1", "quiz-1", ModeExam, 10)

	svc.Select(session.ID, "user-1", 0, "B")
	svc.Confirm(session.ID, "user-1", 0)
	if session.Revealed[0] {
		t.Error("exam confirm must not reveal")
	}
	svc.Select(session.ID, "user-1", 0, "A")
	if session.Answers[0] != "A" {
		t.Errorf("exam answer = %q, want overwritten to A", session.Answers[0])
	}
}

func TestSubmitScoresRoundHalfUp(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		correct int
		want    int
	}{
		{"three of four", 4, 3, 75},
		{"one of three", 3, 1, 33},
		{"two of three", 3, 2, 67},
		{"one of eight rounds up", 8, 1, 13},
		{"all correct", 5, 5, 100},
		{"none correct", 5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&fakeProvider{questions: makeQuestions(tt.total)}, &fakeRecorder{})
			session, _ := svc.Start("user-1", "quiz-1", ModePractice, 0)
			for i := 0; i < tt.correct; i++ {
				svc.Select(session.ID, "user-1", i, "A")
			}
			for i := tt.correct; i < tt.total; i++ {
				svc.Select(session.ID, "user-1", i, "Z")
			}

			result, err := svc.Submit(session.ID, "user-1")
			if err != nil {
				t.Fatal(err)
			}
			if result.Score != tt.want {
				t.Errorf("score = %d, want %d", result.Score, tt.want)
			}
			if result.Correct != tt.correct {
				t.Errorf("correct = %d, want %d", result.Correct, tt.correct)
			}
		})
	}
}

func TestAnswerComparisonIsExact(t *testing.T) {
	svc := newTestService(&fakeProvider{questions: makeQuestions(1)}, &fakeRecorder{})
	session, _ := svc.Start("user-1", "quiz-1", ModePractice, 0)

	svc.Select(session.ID, "user-1", 0, "a")
	result, _ := svc.Submit(session.ID, "user-1")
	if result.Correct != 0 {
		t.Error("lowercase answer must not match uppercase key")
	}
}

func TestPracticeSubmitRecordsNothing(t *testing.T) {
	recorder := &fakeRecorder{}
	svc := newTestService(&fakeProvider{questions: makeQuestions(2)}, recorder)
	session, _ := svc.Start("user-1", "quiz-1", ModePractice, 0)

	if _, err := svc.Submit(session.ID, "user-1"); err != nil {
		t.Fatal(err)
	}
	if recorder.count() != 0 {
		t.Errorf("practice submit recorded %d attempts, want 0", recorder.count())
	}
}

func TestExamSubmitRecordsAttempt(t *testing.T) {
	recorder := &fakeRecorder{}
	svc := newTestService(&fakeProvider{questions: makeQuestions(2)}, recorder)
	session, _ := svc.Start("user-7", "quiz-3", ModeExam, 10)

	svc.Select(session.ID, "user-7", 0, "A")
	result, err := svc.Submit(session.ID, "user-7")
	if err != nil {
		t.Fatal(err)
	}
	if recorder.count() != 1 {
		t.Fatalf("recorded %d attempts, want 1", recorder.count())
	}
	got := recorder.calls[0]
	if got.UserID != "user-7" || got.QuizID != "quiz-3" || got.Score != result.Score {
		t.Errorf("recorded attempt = %+v, want user-7/quiz-3/%d", got, result.Score)
	}
}

func TestRecorderFailureSurfacedWithResult(t *testing.T) {
	recorder := &fakeRecorder{err: errors.New("db down")}
	svc := newTestService(&fakeProvider{questions: makeQuestions(2)}, recorder)
	session, _ := svc.Start("user-1", "quiz-1", ModeExam, 10)

	svc.Select(session.ID, "user-1", 0, "A")
	result, err := svc.Submit(session.ID, "user-1")
	if !errors.Is(err, util.ErrAttemptNotRecorded) {
		t.Fatalf("err = %v, want ErrAttemptNotRecorded", err)
	}
	if result == nil {
		t.Fatal("graded session must come back alongside the error")
	}
	if result.Score != 50 {
		t.Errorf("score = %d, want 50", result.Score)
	}
	if !result.Terminal {
		t.Error("session must still be terminal")
	}
	if result.RecordErr == nil {
		t.Error("the recorder failure must stay visible on the session")
	}
}

func TestCountdownRecorderFailureStaysVisible(t *testing.T) {
	recorder := &fakeRecorder{err: errors.New("db down")}
	svc := newTestService(&fakeProvider{questions: makeQuestions(1)}, recorder)
	session, _ := svc.Start("user-1", "quiz-1", ModeExam, 1)

	for i := 0; i < 60; i++ {
		svc.tick(session)
	}
	if !session.Terminal {
		t.Fatal("session must be terminal after the countdown")
	}
	if session.RecordErr == nil {
		t.Error("auto-submit must keep the recorder failure on the session")
	}
}

func TestSessionHiddenFromOtherUsers(t *testing.T) {
	svc := newTestService(&fakeProvider{questions: makeQuestions(2)}, &fakeRecorder{})
	session, _ := svc.Start("user-1", "quiz-1", ModeExam, 10)

	if _, err := svc.Get(session.ID, "user-2"); !errors.Is(err, util.ErrSessionNotFound) {
		t.Errorf("Get by another user: err = %v, want ErrSessionNotFound", err)
	}
	if _, err := svc.Select(session.ID, "", 0, "A"); !errors.Is(err, util.ErrSessionNotFound) {
		t.Errorf("Select by anonymous: err = %v, want ErrSessionNotFound", err)
	}
	if _, err := svc.Submit(session.ID, "user-2"); !errors.Is(err, util.ErrSessionNotFound) {
		t.Errorf("Submit by another user: err = %v, want ErrSessionNotFound", err)
	}
	if err := svc.Abandon(session.ID, "user-2"); !errors.Is(err, util.ErrSessionNotFound) {
		t.Errorf("Abandon by another user: err = %v, want ErrSessionNotFound", err)
	}

	// the owner is unaffected
	if _, err := svc.Select(session.ID, "user-1", 0, "A"); err != nil {
		t.Fatalf("owner Select: %v", err)
	}
	if _, err := svc.Submit(session.ID, "user-1"); err != nil {
		t.Fatalf("owner Submit: %v", err)
	}
}

func TestTerminalSessionRejectsMutation(t *testing.T) {
	svc := newTestService(&fakeProvider{questions: makeQuestions(2)}, &fakeRecorder{})
	session, _ := svc.Start("user-1", "quiz-1", ModePractice, 0)
	svc.Submit(session.ID, "user-1")

	if _, err := svc.Select(session.ID, "user-1", 0, "A"); !errors.Is(err, util.ErrSessionTerminal) {
		t.Errorf("Select after terminal: err = %v, want ErrSessionTerminal", err)
	}
	if _, err := svc.Confirm(session.ID, "user-1", 0); !errors.Is(err, util.ErrSessionTerminal) {
		t.Errorf("Confirm after terminal: err = %v, want ErrSessionTerminal", err)
	}
	if _, err := svc.Next(session.ID, "user-1"); !errors.Is(err, util.ErrSessionTerminal) {
		t.Errorf("Next after terminal: err = %v, want ErrSessionTerminal", err)
	}
	if _, err := svc.Submit(session.ID, "user-1"); !errors.Is(err, util.ErrSessionTerminal) {
		t.Errorf("double Submit: err = %v, want ErrSessionTerminal", err)
	}

	// the result stays readable
	if _, err := svc.Get(session.ID, "user-1"); err != nil {
		t.Errorf("Get after terminal: %v", err)
	}
}

func TestCountdownAutoSubmitsExactlyOnce(t *testing.T) {
	recorder := &fakeRecorder{}
	svc := newTestService(&fakeProvider{questions: makeQuestions(2)}, recorder)
	session, _ := svc.Start("user-1", "quiz-1", ModeExam, 1)

	if session.RemainingSeconds != 60 {
		t.Fatalf("remaining = %d, want 60", session.RemainingSeconds)
	}

	for i := 0; i < 60; i++ {
		if done := svc.tick(session); done && i < 59 {
			t.Fatalf("countdown stopped early at tick %d", i)
		}
	}

	if !session.Terminal {
		t.Fatal("session must be terminal after the countdown reaches zero")
	}
	if session.RemainingSeconds != 0 {
		t.Errorf("remaining = %d, want 0", session.RemainingSeconds)
	}
	if session.Score != 0 {
		t.Errorf("score = %d, want 0 with no answers", session.Score)
	}
	if recorder.count() != 1 {
		t.Fatalf("recorded %d attempts, want exactly 1", recorder.count())
	}

	// further ticks must not grade or record again
	for i := 0; i < 5; i++ {
		if !svc.tick(session) {
			t.Fatal("tick after terminal must report done")
		}
	}
	if recorder.count() != 1 {
		t.Errorf("post-terminal ticks recorded extra attempts: %d", recorder.count())
	}
}

func TestManualSubmitCancelsCountdown(t *testing.T) {
	recorder := &fakeRecorder{}
	svc := newTestService(&fakeProvider{questions: makeQuestions(1)}, recorder)
	session, _ := svc.Start("user-1", "quiz-1", ModeExam, 1)

	svc.Select(session.ID, "user-1", 0, "A")
	if _, err := svc.Submit(session.ID, "user-1"); err != nil {
		t.Fatal(err)
	}

	select {
	case <-session.stop:
	default:
		t.Fatal("stop channel must be closed after submit")
	}

	if svc.tick(session) != true {
		t.Error("tick after manual submit must be a no-op")
	}
	if recorder.count() != 1 {
		t.Errorf("recorded %d attempts, want 1", recorder.count())
	}
}

func TestAbandonDiscardsSession(t *testing.T) {
	recorder := &fakeRecorder{}
	svc := newTestService(&fakeProvider{questions: makeQuestions(2)}, recorder)
	session, _ := svc.Start("user-1", "quiz-1", ModeExam, 1)

	if err := svc.Abandon(session.ID, "user-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(session.ID, "user-1"); !errors.Is(err, util.ErrSessionNotFound) {
		t.Errorf("Get after abandon: err = %v, want ErrSessionNotFound", err)
	}
	if recorder.count() != 0 {
		t.Errorf("abandon recorded %d attempts, want 0", recorder.count())
	}

	select {
	case <-session.stop:
	default:
		t.Error("stop channel must be closed after abandon")
	}
}
