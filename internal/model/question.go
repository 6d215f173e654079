package model

import (
	"encoding/json"
	"sort"
)

// Question is one assessable item. Options maps a short label ("A".."E")
// to option text; an empty map means a short-answer item.
// swagger:model Question
type Question struct {
	UUIDBase
	QuizID              string          `gorm:"index;type:varchar(36);not null" json:"quizId"`
	QuestionText        string          `gorm:"type:text;not null" json:"question_text"`
	Options             json.RawMessage `gorm:"type:json" json:"options"`
	CorrectAnswer       string          `gorm:"size:255" json:"correct_answer"`
	ExplanationText     string          `gorm:"type:text" json:"explanation_text"`
	QuestionImageURL    string          `gorm:"size:255" json:"question_image_url,omitempty"`
	ExplanationImageURL string          `gorm:"size:255" json:"explanation_image_url,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// OptionMap decodes the stored options column. A null or empty column
// yields an empty map, never nil.
func (q *Question) OptionMap() map[string]string {
	opts := map[string]string{}
	if len(q.Options) > 0 {
		_ = json.Unmarshal(q.Options, &opts)
	}
	return opts
}

// OptionLabels returns the option labels in display order (A..E).
func (q *Question) OptionLabels() []string {
	opts := q.OptionMap()
	labels := make([]string, 0, len(opts))
	for k := range opts {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return labels
}
