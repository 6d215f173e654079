package repository

import (
	"github.com/faizerlangga999/ProjectCastleBeta/internal/model"

	"gorm.io/gorm"
)

type LessonRepository struct {
	DB *gorm.DB
}

func NewLessonRepository(db *gorm.DB) *LessonRepository {
	return &LessonRepository{DB: db}
}

func (r *LessonRepository) Create(lesson *model.Lesson) error {
	return r.DB.Create(lesson).Error
}

func (r *LessonRepository) FindByID(id string) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.DB.Where("id = ?", id).First(&lesson).Error
	return &lesson, err
}

func (r *LessonRepository) List(category string) ([]model.Lesson, error) {
	var lessons []model.Lesson
	q := r.DB.Order("sort_order ASC, created_at ASC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	err := q.Find(&lessons).Error
	return lessons, err
}

func (r *LessonRepository) Update(lesson *model.Lesson) error {
	return r.DB.Save(lesson).Error
}

func (r *LessonRepository) Delete(id string) error {
	return r.DB.Where("id = ?", id).Delete(&model.Lesson{}).Error
}

// Reorder rewrites sort_order to match the given id sequence.
func (r *LessonRepository) Reorder(orderedIDs []string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			if err := tx.Model(&model.Lesson{}).
				Where("id = ?", id).
				Update("sort_order", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *LessonRepository) Count() (int64, error) {
	var n int64
	err := r.DB.Model(&model.Lesson{}).Count(&n).Error
	return n, err
}
