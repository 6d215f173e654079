package service

import (
	"math"
	"sync"
	"time"

	"github.com/faizerlangga999/ProjectCastleBeta/internal/model"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/util"
	"github.com/faizerlangga999/ProjectCastleBeta/pkg/logger"

	"go.uber.org/zap"
)

type SessionMode string

const (
	ModePractice SessionMode = "practice"
	ModeExam     SessionMode = "exam"
)

// QuestionProvider supplies a quiz's questions in storage order.
type QuestionProvider interface {
	QuestionsForQuiz(quizID string) ([]model.Question, error)
}

// AttemptRecorder persists a completed exam score.
type AttemptRecorder interface {
	RecordAttempt(userID, quizID string, score int) error
}

// QuizSession is the in-memory state of one quiz run. Sessions never
// touch storage until an exam submit records its attempt.
type QuizSession struct {
	ID               string
	UserID           string
	QuizID           string
	Mode             SessionMode
	Questions        []model.Question
	CurrentIndex     int
	Answers          map[int]string
	Revealed         map[int]bool
	RemainingSeconds int
	Terminal         bool
	Score            int
	Correct          int
	// RecordErr holds the attempt-recorder failure from an exam
	// finalize, so result views can report the score as unrecorded.
	RecordErr error

	mu   sync.Mutex
	stop chan struct{}
}

// WithLock runs fn while holding the session mutex. Read-only views
// use it to see a consistent state against the countdown goroutine.
func (q *QuizSession) WithLock(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	fn()
}

// SessionService owns all live quiz sessions. State transitions happen
// under the per-session mutex so the countdown goroutine and HTTP
// handlers never race.
type SessionService struct {
	Provider QuestionProvider
	Recorder AttemptRecorder

	mu       sync.RWMutex
	sessions map[string]*QuizSession

	// tickEvery is the countdown cadence, one second in production.
	tickEvery time.Duration
}

func NewSessionService(provider QuestionProvider, recorder AttemptRecorder) *SessionService {
	return &SessionService{
		Provider:  provider,
		Recorder:  recorder,
		sessions:  make(map[string]*QuizSession),
		tickEvery: time.Second,
	}
}

// Start creates a session. Exam mode requires an authenticated user
// and arms the countdown from the quiz duration.
func (s *SessionService) Start(userID, quizID string, mode SessionMode, durationMinutes int) (*QuizSession, error) {
	if mode == ModeExam && userID == "" {
		return nil, util.ErrUnauthenticated
	}

	questions, err := s.Provider.QuestionsForQuiz(quizID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, util.ErrNoQuestions
	}

	session := &QuizSession{
		ID:        model.GenerateUUID(),
		UserID:    userID,
		QuizID:    quizID,
		Mode:      mode,
		Questions: questions,
		Answers:   make(map[int]string),
		Revealed:  make(map[int]bool),
		stop:      make(chan struct{}),
	}

	if mode == ModeExam {
		session.RemainingSeconds = durationMinutes * 60
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	if mode == ModeExam {
		go s.runCountdown(session)
	}

	return session, nil
}

// get looks the session up and enforces ownership: a session started
// by a signed-in user is invisible to everyone else, including
// anonymous callers holding the id.
func (s *SessionService) get(sessionID, callerID string) (*QuizSession, error) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, util.ErrSessionNotFound
	}
	if session.UserID != "" && session.UserID != callerID {
		return nil, util.ErrSessionNotFound
	}
	return session, nil
}

// GoTo moves to the given question index, clamped to the valid range.
func (s *SessionService) GoTo(sessionID, callerID string, index int) (*QuizSession, error) {
	session, err := s.get(sessionID, callerID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.Terminal {
		return nil, util.ErrSessionTerminal
	}
	session.CurrentIndex = clamp(index, 0, len(session.Questions)-1)
	return session, nil
}

func (s *SessionService) Next(sessionID, callerID string) (*QuizSession, error) {
	session, err := s.get(sessionID, callerID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.Terminal {
		return nil, util.ErrSessionTerminal
	}
	session.CurrentIndex = clamp(session.CurrentIndex+1, 0, len(session.Questions)-1)
	return session, nil
}

func (s *SessionService) Prev(sessionID, callerID string) (*QuizSession, error) {
	session, err := s.get(sessionID, callerID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.Terminal {
		return nil, util.ErrSessionTerminal
	}
	session.CurrentIndex = clamp(session.CurrentIndex-1, 0, len(session.Questions)-1)
	return session, nil
}

// Select records an answer choice. A practice question that has been
// revealed is locked, selecting it again is a silent no-op. Exam
// answers can always be changed before submit.
func (s *SessionService) Select(sessionID, callerID string, index int, choice string) (*QuizSession, error) {
	session, err := s.get(sessionID, callerID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.Terminal {
		return nil, util.ErrSessionTerminal
	}
	if index < 0 || index >= len(session.Questions) {
		return nil, util.ErrIndexOutOfRange
	}
	if session.Mode == ModePractice && session.Revealed[index] {
		return session, nil
	}
	session.Answers[index] = choice
	return session, nil
}

// Confirm reveals the explanation for an answered practice question.
// Confirming an unanswered question is a no-op, exam mode never
// reveals.
func (s *SessionService) Confirm(sessionID, callerID string, index int) (*QuizSession, error) {
	session, err := s.get(sessionID, callerID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.Terminal {
		return nil, util.ErrSessionTerminal
	}
	if index < 0 || index >= len(session.Questions) {
		return nil, util.ErrIndexOutOfRange
	}
	if session.Mode != ModePractice {
		return session, nil
	}
	if _, answered := session.Answers[index]; !answered {
		return session, nil
	}
	session.Revealed[index] = true
	return session, nil
}

// Submit grades the session and makes it terminal. Exam submissions
// record an attempt; a recorder failure does not void the result, the
// graded session comes back alongside ErrAttemptNotRecorded.
func (s *SessionService) Submit(sessionID, callerID string) (*QuizSession, error) {
	session, err := s.get(sessionID, callerID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.Terminal {
		return nil, util.ErrSessionTerminal
	}
	s.finalizeLocked(session)
	if session.RecordErr != nil {
		return session, util.ErrAttemptNotRecorded
	}
	return session, nil
}

// Abandon cancels the countdown and discards the session without
// recording anything.
func (s *SessionService) Abandon(sessionID, callerID string) error {
	session, err := s.get(sessionID, callerID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	if !session.Terminal {
		session.Terminal = true
		close(session.stop)
	}
	session.mu.Unlock()

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// Get returns the session for state and result views.
func (s *SessionService) Get(sessionID, callerID string) (*QuizSession, error) {
	return s.get(sessionID, callerID)
}

// finalizeLocked grades, records, and closes the session. Caller holds
// the session mutex; the terminal check before entry guarantees this
// runs at most once.
func (s *SessionService) finalizeLocked(session *QuizSession) {
	correct := 0
	for i, q := range session.Questions {
		if answer, ok := session.Answers[i]; ok && answer == q.CorrectAnswer {
			correct++
		}
	}
	session.Correct = correct
	session.Score = int(math.Round(100 * float64(correct) / float64(len(session.Questions))))
	session.Terminal = true
	close(session.stop)

	if session.Mode == ModeExam && s.Recorder != nil {
		if err := s.Recorder.RecordAttempt(session.UserID, session.QuizID, session.Score); err != nil {
			session.RecordErr = err
			logger.Log.Error("failed to record quiz attempt",
				zap.String("session_id", session.ID),
				zap.String("quiz_id", session.QuizID),
				zap.Error(err))
		}
	}
}

// runCountdown drives the exam timer. The stop channel ends it on any
// submit or abandon path.
func (s *SessionService) runCountdown(session *QuizSession) {
	ticker := time.NewTicker(s.tickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-session.stop:
			return
		case <-ticker.C:
			if s.tick(session) {
				return
			}
		}
	}
}

// tick decrements the timer once and auto-submits at zero. It returns
// true when the countdown should stop.
func (s *SessionService) tick(session *QuizSession) bool {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.Terminal {
		return true
	}
	session.RemainingSeconds--
	if session.RemainingSeconds > 0 {
		return false
	}
	session.RemainingSeconds = 0
	s.finalizeLocked(session)
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
