package model

import "time"

// QuizAttempt is written once per completed exam submission and never
// mutated afterward. Practice completions are not recorded.
// swagger:model QuizAttempt
type QuizAttempt struct {
	UUIDBase
	UserID      string    `gorm:"index;type:varchar(36);not null" json:"userId"`
	QuizID      string    `gorm:"index;type:varchar(36);not null" json:"quizId"`
	Score       int       `gorm:"not null" json:"score"` // percentage 0-100
	CompletedAt time.Time `json:"completedAt"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
