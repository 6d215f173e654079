package repository

import (
	"errors"

	"github.com/faizerlangga999/ProjectCastleBeta/internal/model"

	"gorm.io/gorm"
)

type ForumRepository struct {
	DB *gorm.DB
}

func NewForumRepository(db *gorm.DB) *ForumRepository {
	return &ForumRepository{DB: db}
}

func (r *ForumRepository) CreateThread(thread *model.Thread) error {
	return r.DB.Create(thread).Error
}

func (r *ForumRepository) FindThreadByID(id string) (*model.Thread, error) {
	var thread model.Thread
	err := r.DB.Preload("Author").Where("id = ?", id).First(&thread).Error
	return &thread, err
}

func (r *ForumRepository) ListThreads(category string, offset, limit int) ([]model.Thread, int64, error) {
	var threads []model.Thread
	var total int64

	q := r.DB.Model(&model.Thread{})
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Author").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&threads).Error
	return threads, total, err
}

func (r *ForumRepository) DeleteThread(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("thread_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("thread_id = ?", id).Delete(&model.ThreadLike{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Thread{}).Error
	})
}

func (r *ForumRepository) CreateComment(comment *model.Comment) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&model.Thread{}).
			Where("id = ?", comment.ThreadID).
			Update("comments_count", gorm.Expr("comments_count + 1")).
			Error
	})
}

func (r *ForumRepository) FindCommentByID(id string) (*model.Comment, error) {
	var comment model.Comment
	err := r.DB.Where("id = ?", id).First(&comment).Error
	return &comment, err
}

func (r *ForumRepository) DeleteComment(id, threadID string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		return tx.Model(&model.Thread{}).
			Where("id = ? AND comments_count > 0", threadID).
			Update("comments_count", gorm.Expr("comments_count - 1")).
			Error
	})
}

func (r *ForumRepository) ListComments(threadID string) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.DB.Preload("Author").
		Where("thread_id = ?", threadID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

// ToggleLike flips the caller's like on a thread and keeps the
// denormalized counter in step. It returns the resulting liked state.
func (r *ForumRepository) ToggleLike(threadID, userID string) (bool, error) {
	liked := false
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.ThreadLike
		err := tx.Where("thread_id = ? AND user_id = ?", threadID, userID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			return tx.Model(&model.Thread{}).
				Where("id = ?", threadID).
				Update("likes", gorm.Expr("likes - 1")).
				Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			like := model.ThreadLike{ThreadID: threadID, UserID: userID}
			if err := tx.Create(&like).Error; err != nil {
				return err
			}
			liked = true
			return tx.Model(&model.Thread{}).
				Where("id = ?", threadID).
				Update("likes", gorm.Expr("likes + 1")).
				Error
		default:
			return err
		}
	})
	return liked, err
}

func (r *ForumRepository) HasLiked(threadID, userID string) (bool, error) {
	var n int64
	err := r.DB.Model(&model.ThreadLike{}).
		Where("thread_id = ? AND user_id = ?", threadID, userID).
		Count(&n).Error
	return n > 0, err
}

func (r *ForumRepository) CountThreads() (int64, error) {
	var n int64
	err := r.DB.Model(&model.Thread{}).Count(&n).Error
	return n, err
}
