package model

// swagger:model Quiz
type Quiz struct {
	UUIDBase
	Title           string `gorm:"size:255;not null" json:"title"`
	Category        string `gorm:"size:100;index" json:"category"`
	DurationMinutes int    `gorm:"default:30" json:"durationMinutes"` // exam mode only
}

func (Quiz) TableName() string {
	return "quizzes"
}

// swagger:model Category
type Category struct {
	UUIDBase
	Name string `gorm:"size:100;unique;not null" json:"name"`
}

func (Category) TableName() string {
	return "categories"
}
