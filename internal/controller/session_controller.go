package controller

import (
	"errors"
	"net/http"

	"github.com/faizerlangga999/ProjectCastleBeta/internal/service"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	SessionService *service.SessionService
	QuizService    *service.QuizService
}

func NewSessionController(sessionService *service.SessionService, quizService *service.QuizService) *SessionController {
	return &SessionController{SessionService: sessionService, QuizService: quizService}
}

type startSessionRequest struct {
	QuizID string `json:"quiz_id" binding:"required"`
	Mode   string `json:"mode" binding:"required,oneof=practice exam"`
}

// questionView hides grading fields until the session rules allow
// them: practice reveal or a terminal result view.
type questionView struct {
	Index            int               `json:"index"`
	QuestionText     string            `json:"question_text"`
	Options          map[string]string `json:"options"`
	QuestionImageURL string            `json:"question_image_url,omitempty"`

	CorrectAnswer       string `json:"correct_answer,omitempty"`
	ExplanationText     string `json:"explanation_text,omitempty"`
	ExplanationImageURL string `json:"explanation_image_url,omitempty"`
	Correct             *bool  `json:"correct,omitempty"`
}

type sessionView struct {
	ID               string         `json:"id"`
	QuizID           string         `json:"quiz_id"`
	Mode             string         `json:"mode"`
	CurrentIndex     int            `json:"current_index"`
	Questions        []questionView `json:"questions"`
	Answers          map[int]string `json:"answers"`
	Revealed         []int          `json:"revealed"`
	RemainingSeconds int            `json:"remaining_seconds,omitempty"`
	Terminal         bool           `json:"terminal"`
	Score            int            `json:"score,omitempty"`
	CorrectCount     int            `json:"correct_count,omitempty"`
	Warning          string         `json:"warning,omitempty"`
}

// callerID returns the signed-in user's id, or empty for anonymous.
func callerID(ctx *gin.Context) string {
	if claims := util.GetUserFromContext(ctx); claims != nil {
		return claims.UserID
	}
	return ""
}

func viewOf(s *service.QuizSession) sessionView {
	var view sessionView
	s.WithLock(func() {
		view = buildView(s)
	})
	return view
}

// buildView is called with the session lock held.
func buildView(s *service.QuizSession) sessionView {
	answers := make(map[int]string, len(s.Answers))
	for k, v := range s.Answers {
		answers[k] = v
	}

	view := sessionView{
		ID:           s.ID,
		QuizID:       s.QuizID,
		Mode:         string(s.Mode),
		CurrentIndex: s.CurrentIndex,
		Answers:      answers,
		Terminal:     s.Terminal,
	}
	if s.Mode == service.ModeExam {
		view.RemainingSeconds = s.RemainingSeconds
	}
	if s.Terminal {
		view.Score = s.Score
		view.CorrectCount = s.Correct
		if s.RecordErr != nil {
			view.Warning = "the score could not be recorded to your attempt history"
		}
	}

	for i, q := range s.Questions {
		qv := questionView{
			Index:            i,
			QuestionText:     q.QuestionText,
			Options:          q.OptionMap(),
			QuestionImageURL: q.QuestionImageURL,
		}
		revealed := s.Mode == service.ModePractice && s.Revealed[i]
		if revealed {
			view.Revealed = append(view.Revealed, i)
		}
		if revealed || s.Terminal {
			qv.CorrectAnswer = q.CorrectAnswer
			qv.ExplanationText = q.ExplanationText
			qv.ExplanationImageURL = q.ExplanationImageURL
		}
		if s.Terminal {
			answer, answered := s.Answers[i]
			correct := answered && answer == q.CorrectAnswer
			qv.Correct = &correct
		}
		view.Questions = append(view.Questions, qv)
	}
	return view
}

// Start godoc
// @Summary Start a quiz session
// @Description Practice mode is open to anyone; exam mode requires a signed-in user and starts the countdown.
// @Tags sessions
// @Accept json
// @Produce json
// @Param body body startSessionRequest true "quiz id and mode"
// @Success 201 {object} util.Response
// @Failure 401 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/quiz/sessions [post]
func (c *SessionController) Start(ctx *gin.Context) {
	var req startSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.QuizService.QuizRepo.FindByID(req.QuizID)
	if err != nil {
		util.NotFound(ctx)
		return
	}

	session, err := c.SessionService.Start(callerID(ctx), quiz.ID, service.SessionMode(req.Mode), quiz.DurationMinutes)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrUnauthenticated):
			util.Error(ctx, http.StatusUnauthorized, "exam mode requires a signed-in user")
		case errors.Is(err, util.ErrNoQuestions):
			util.BadRequest(ctx, "quiz has no questions")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, viewOf(session))
}

// State godoc
// @Summary Get session state, or the result view once terminal
// @Tags sessions
// @Produce json
// @Param id path string true "session id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/quiz/sessions/{id} [get]
func (c *SessionController) State(ctx *gin.Context) {
	session, err := c.SessionService.Get(ctx.Param("id"), callerID(ctx))
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, viewOf(session))
}

type gotoRequest struct {
	Index int `json:"index"`
}

// GoTo godoc
// @Summary Jump to a question index (clamped)
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "session id"
// @Param body body gotoRequest true "target index"
// @Success 200 {object} util.Response
// @Router /api/quiz/sessions/{id}/goto [post]
func (c *SessionController) GoTo(ctx *gin.Context) {
	var req gotoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	c.respond(ctx, func(id, caller string) (*service.QuizSession, error) {
		return c.SessionService.GoTo(id, caller, req.Index)
	})
}

// Next godoc
// @Summary Advance to the next question
// @Tags sessions
// @Produce json
// @Param id path string true "session id"
// @Success 200 {object} util.Response
// @Router /api/quiz/sessions/{id}/next [post]
func (c *SessionController) Next(ctx *gin.Context) {
	c.respond(ctx, c.SessionService.Next)
}

// Prev godoc
// @Summary Go back to the previous question
// @Tags sessions
// @Produce json
// @Param id path string true "session id"
// @Success 200 {object} util.Response
// @Router /api/quiz/sessions/{id}/prev [post]
func (c *SessionController) Prev(ctx *gin.Context) {
	c.respond(ctx, c.SessionService.Prev)
}

type selectRequest struct {
	Index  int    `json:"index"`
	Choice string `json:"choice" binding:"required"`
}

// Select godoc
// @Summary Select an answer choice
// @Description Selecting a revealed practice question is a silent no-op; exam answers can always change before submit.
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "session id"
// @Param body body selectRequest true "question index and choice"
// @Success 200 {object} util.Response
// @Router /api/quiz/sessions/{id}/select [post]
func (c *SessionController) Select(ctx *gin.Context) {
	var req selectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	c.respond(ctx, func(id, caller string) (*service.QuizSession, error) {
		return c.SessionService.Select(id, caller, req.Index, req.Choice)
	})
}

type confirmRequest struct {
	Index int `json:"index"`
}

// Confirm godoc
// @Summary Confirm a practice answer, revealing its explanation
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "session id"
// @Param body body confirmRequest true "question index"
// @Success 200 {object} util.Response
// @Router /api/quiz/sessions/{id}/confirm [post]
func (c *SessionController) Confirm(ctx *gin.Context) {
	var req confirmRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	c.respond(ctx, func(id, caller string) (*service.QuizSession, error) {
		return c.SessionService.Confirm(id, caller, req.Index)
	})
}

// Submit godoc
// @Summary Submit the session for grading
// @Description Exam submissions record an attempt. The session becomes terminal and read-only. If the attempt could not be recorded, the response still carries the score plus a warning.
// @Tags sessions
// @Produce json
// @Param id path string true "session id"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/quiz/sessions/{id}/submit [post]
func (c *SessionController) Submit(ctx *gin.Context) {
	session, err := c.SessionService.Submit(ctx.Param("id"), callerID(ctx))
	if err != nil && !errors.Is(err, util.ErrAttemptNotRecorded) {
		c.fail(ctx, err)
		return
	}
	// a recorder failure still returns the graded result; the view
	// carries the warning
	util.Success(ctx, viewOf(session))
}

// Abandon godoc
// @Summary Abandon the session without grading
// @Tags sessions
// @Produce json
// @Param id path string true "session id"
// @Success 200 {object} util.Response
// @Router /api/quiz/sessions/{id} [delete]
func (c *SessionController) Abandon(ctx *gin.Context) {
	if err := c.SessionService.Abandon(ctx.Param("id"), callerID(ctx)); err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, gin.H{"abandoned": true})
}

func (c *SessionController) respond(ctx *gin.Context, op func(id, caller string) (*service.QuizSession, error)) {
	session, err := op(ctx.Param("id"), callerID(ctx))
	if err != nil {
		c.fail(ctx, err)
		return
	}
	util.Success(ctx, viewOf(session))
}

func (c *SessionController) fail(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSessionNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrSessionTerminal):
		util.Error(ctx, http.StatusConflict, "session already terminal")
	case errors.Is(err, util.ErrIndexOutOfRange):
		util.BadRequest(ctx, "question index out of range")
	default:
		util.LogInternalError(ctx, err)
	}
}
