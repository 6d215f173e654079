package model

// swagger:model Thread
type Thread struct {
	UUIDBase
	AuthorID      string `gorm:"index;type:varchar(36);not null" json:"authorId"`
	Author        *User  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Title         string `gorm:"size:255;not null" json:"title"`
	Content       string `gorm:"type:text;not null" json:"content"`
	ImageURL      string `gorm:"size:255" json:"imageUrl,omitempty"`
	Category      string `gorm:"size:100;index" json:"category"`
	Likes         int    `gorm:"default:0" json:"likes"`
	CommentsCount int    `gorm:"default:0" json:"commentsCount"`
}

func (Thread) TableName() string {
	return "threads"
}

// swagger:model Comment
type Comment struct {
	UUIDBase
	ThreadID string `gorm:"index;type:varchar(36);not null" json:"threadId"`
	AuthorID string `gorm:"index;type:varchar(36);not null" json:"authorId"`
	Author   *User  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Content  string `gorm:"type:text;not null" json:"content"`
}

func (Comment) TableName() string {
	return "comments"
}

type ThreadLike struct {
	UUIDBase
	ThreadID string `gorm:"uniqueIndex:idx_thread_user;type:varchar(36);not null" json:"threadId"`
	UserID   string `gorm:"uniqueIndex:idx_thread_user;type:varchar(36);not null" json:"userId"`
}

func (ThreadLike) TableName() string {
	return "thread_likes"
}
