package model

// Lesson is one entry of the video catalog. SortOrder drives the display
// order and is rewritten by the admin reorder operation.
// swagger:model Lesson
type Lesson struct {
	UUIDBase
	Title           string `gorm:"size:255;not null" json:"title"`
	Category        string `gorm:"size:100;index" json:"category"`
	Description     string `gorm:"type:text" json:"description"`
	VideoURL        string `gorm:"size:255" json:"videoUrl"`
	ThumbnailURL    string `gorm:"size:255" json:"thumbnailUrl"`
	SortOrder       int    `gorm:"default:0;index" json:"sortOrder"`
	DurationSeconds int    `gorm:"default:0" json:"durationSeconds"`
}

func (Lesson) TableName() string {
	return "lessons"
}
