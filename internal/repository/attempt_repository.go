package repository

import (
	"github.com/faizerlangga999/ProjectCastleBeta/internal/model"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

// Record inserts a completed attempt. Attempts are append only, there
// is no update path.
func (r *AttemptRepository) Record(attempt *model.QuizAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *AttemptRepository) FindByUser(userID string) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Where("user_id = ?", userID).Order("completed_at DESC").Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) FindByQuiz(quizID string) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Where("quiz_id = ?", quizID).Order("completed_at DESC").Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) Count() (int64, error) {
	var n int64
	err := r.DB.Model(&model.QuizAttempt{}).Count(&n).Error
	return n, err
}

// AverageScoreByUser returns the mean score across a user's exam
// attempts, zero when the user has none.
func (r *AttemptRepository) AverageScoreByUser(userID string) (float64, error) {
	var avg *float64
	err := r.DB.Model(&model.QuizAttempt{}).
		Where("user_id = ?", userID).
		Select("AVG(score)").
		Scan(&avg).Error
	if err != nil || avg == nil {
		return 0, err
	}
	return *avg, nil
}
