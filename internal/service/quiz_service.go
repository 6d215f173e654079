package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/faizerlangga999/ProjectCastleBeta/internal/model"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/repository"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/util"
	"github.com/faizerlangga999/ProjectCastleBeta/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const quizListCacheTTL = 5 * time.Minute

// QuizService covers the quiz catalog: public listing with question
// counts and the admin CRUD behind it. It also adapts the repositories
// onto the session machine's provider and recorder seams.
type QuizService struct {
	QuizRepo     *repository.QuizRepository
	QuestionRepo *repository.QuestionRepository
	AttemptRepo  *repository.AttemptRepository
	Redis        *redis.Client
}

func NewQuizService(quizRepo *repository.QuizRepository, questionRepo *repository.QuestionRepository, attemptRepo *repository.AttemptRepository, rdb *redis.Client) *QuizService {
	return &QuizService{
		QuizRepo:     quizRepo,
		QuestionRepo: questionRepo,
		AttemptRepo:  attemptRepo,
		Redis:        rdb,
	}
}

// QuestionsForQuiz satisfies the session QuestionProvider.
func (s *QuizService) QuestionsForQuiz(quizID string) ([]model.Question, error) {
	return s.QuestionRepo.FindByQuiz(quizID)
}

// RecordAttempt satisfies the session AttemptRecorder.
func (s *QuizService) RecordAttempt(userID, quizID string, score int) error {
	return s.AttemptRepo.Record(&model.QuizAttempt{
		UserID:      userID,
		QuizID:      quizID,
		Score:       score,
		CompletedAt: time.Now(),
	})
}

type QuizSummary struct {
	model.Quiz
	QuestionCount int64 `json:"question_count"`
}

// List returns the catalog, cached briefly in Redis since the quiz
// list is the most-hit read in the app.
func (s *QuizService) List(ctx context.Context, category string) ([]QuizSummary, error) {
	cacheKey := "quizzes:" + category
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, cacheKey).Result(); err == nil {
			var summaries []QuizSummary
			if json.Unmarshal([]byte(cached), &summaries) == nil {
				return summaries, nil
			}
		}
	}

	quizzes, err := s.QuizRepo.List(category)
	if err != nil {
		return nil, err
	}

	summaries := make([]QuizSummary, 0, len(quizzes))
	for _, quiz := range quizzes {
		count, err := s.QuestionRepo.CountByQuiz(quiz.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, QuizSummary{Quiz: quiz, QuestionCount: count})
	}

	if s.Redis != nil {
		if data, err := json.Marshal(summaries); err == nil {
			if err := s.Redis.Set(ctx, cacheKey, data, quizListCacheTTL).Err(); err != nil {
				logger.Log.Warn("quiz list cache write failed", zap.Error(err))
			}
		}
	}
	return summaries, nil
}

func (s *QuizService) invalidateListCache(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	keys, err := s.Redis.Keys(ctx, "quizzes:*").Result()
	if err != nil || len(keys) == 0 {
		return
	}
	s.Redis.Del(ctx, keys...)
}

type QuizDetail struct {
	model.Quiz
	Questions []model.Question `json:"questions"`
}

func (s *QuizService) Detail(quizID string) (*QuizDetail, error) {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		return nil, util.ErrQuizNotFound
	}
	questions, err := s.QuestionRepo.FindByQuiz(quizID)
	if err != nil {
		return nil, err
	}
	return &QuizDetail{Quiz: *quiz, Questions: questions}, nil
}

type QuestionInput struct {
	QuestionText        string            `json:"question_text" binding:"required"`
	Options             map[string]string `json:"options" binding:"required"`
	CorrectAnswer       string            `json:"correct_answer" binding:"required"`
	ExplanationText     string            `json:"explanation_text"`
	QuestionImageURL    string            `json:"question_image_url"`
	ExplanationImageURL string            `json:"explanation_image_url"`
}

type CreateQuizRequest struct {
	Title           string          `json:"title" binding:"required"`
	Category        string          `json:"category"`
	DurationMinutes int             `json:"duration_minutes"`
	Questions       []QuestionInput `json:"questions"`
}

func (s *QuizService) Create(ctx context.Context, req CreateQuizRequest) (*model.Quiz, error) {
	duration := req.DurationMinutes
	if duration <= 0 {
		duration = 30
	}
	quiz := &model.Quiz{
		Title:           req.Title,
		Category:        req.Category,
		DurationMinutes: duration,
	}
	if err := s.QuizRepo.Create(quiz); err != nil {
		return nil, err
	}

	for _, input := range req.Questions {
		if _, err := s.AddQuestion(ctx, quiz.ID, input); err != nil {
			return nil, err
		}
	}

	s.invalidateListCache(ctx)
	return quiz, nil
}

type UpdateQuizRequest struct {
	Title           string `json:"title"`
	Category        string `json:"category"`
	DurationMinutes int    `json:"duration_minutes"`
}

func (s *QuizService) Update(ctx context.Context, quizID string, req UpdateQuizRequest) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		return nil, util.ErrQuizNotFound
	}
	if req.Title != "" {
		quiz.Title = req.Title
	}
	if req.Category != "" {
		quiz.Category = req.Category
	}
	if req.DurationMinutes > 0 {
		quiz.DurationMinutes = req.DurationMinutes
	}
	if err := s.QuizRepo.Update(quiz); err != nil {
		return nil, err
	}
	s.invalidateListCache(ctx)
	return quiz, nil
}

func (s *QuizService) Delete(ctx context.Context, quizID string) error {
	if _, err := s.QuizRepo.FindByID(quizID); err != nil {
		return util.ErrQuizNotFound
	}
	if err := s.QuizRepo.Delete(quizID); err != nil {
		return err
	}
	s.invalidateListCache(ctx)
	return nil
}

func (s *QuizService) AddQuestion(ctx context.Context, quizID string, input QuestionInput) (*model.Question, error) {
	options, err := json.Marshal(input.Options)
	if err != nil {
		return nil, err
	}
	question := &model.Question{
		QuizID:              quizID,
		QuestionText:        input.QuestionText,
		Options:             options,
		CorrectAnswer:       input.CorrectAnswer,
		ExplanationText:     input.ExplanationText,
		QuestionImageURL:    input.QuestionImageURL,
		ExplanationImageURL: input.ExplanationImageURL,
	}
	if err := s.QuestionRepo.Create(question); err != nil {
		return nil, err
	}
	s.invalidateListCache(ctx)
	return question, nil
}

func (s *QuizService) UpdateQuestion(questionID string, input QuestionInput) (*model.Question, error) {
	question, err := s.QuestionRepo.FindByID(questionID)
	if err != nil {
		return nil, errors.New("question not found")
	}
	options, err := json.Marshal(input.Options)
	if err != nil {
		return nil, err
	}
	question.QuestionText = input.QuestionText
	question.Options = options
	question.CorrectAnswer = input.CorrectAnswer
	question.ExplanationText = input.ExplanationText
	question.QuestionImageURL = input.QuestionImageURL
	question.ExplanationImageURL = input.ExplanationImageURL
	if err := s.QuestionRepo.Update(question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *QuizService) DeleteQuestion(ctx context.Context, questionID string) error {
	if err := s.QuestionRepo.Delete(questionID); err != nil {
		return err
	}
	s.invalidateListCache(ctx)
	return nil
}

type AttemptStats struct {
	Attempts     []model.QuizAttempt `json:"attempts"`
	TotalCount   int                 `json:"total_count"`
	AverageScore float64             `json:"average_score"`
}

// AttemptsForUser backs the profile page stats.
func (s *QuizService) AttemptsForUser(userID string) (*AttemptStats, error) {
	attempts, err := s.AttemptRepo.FindByUser(userID)
	if err != nil {
		return nil, err
	}
	avg, err := s.AttemptRepo.AverageScoreByUser(userID)
	if err != nil {
		return nil, err
	}
	return &AttemptStats{
		Attempts:     attempts,
		TotalCount:   len(attempts),
		AverageScore: avg,
	}, nil
}
