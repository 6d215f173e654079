package service

import (
	"errors"

	"github.com/faizerlangga999/ProjectCastleBeta/internal/model"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/repository"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/util"
	"github.com/faizerlangga999/ProjectCastleBeta/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type LessonService struct {
	LessonRepo *repository.LessonRepository
}

func NewLessonService(lessonRepo *repository.LessonRepository) *LessonService {
	return &LessonService{LessonRepo: lessonRepo}
}

func (s *LessonService) List(category string) ([]model.Lesson, error) {
	return s.LessonRepo.List(category)
}

func (s *LessonService) ByID(lessonID string) (*model.Lesson, error) {
	lesson, err := s.LessonRepo.FindByID(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("lesson not found")
		}
		return nil, err
	}
	return lesson, nil
}

type LessonInput struct {
	Title        string `json:"title" binding:"required"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	VideoURL     string `json:"video_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (s *LessonService) Create(req LessonInput, localVideoPath string) (*model.Lesson, error) {
	lesson := &model.Lesson{
		Title:        req.Title,
		Category:     req.Category,
		Description:  req.Description,
		VideoURL:     req.VideoURL,
		ThumbnailURL: req.ThumbnailURL,
	}

	// Probe duration when the video file is reachable on disk. A probe
	// failure is not fatal, the lesson just reports zero duration.
	if localVideoPath != "" {
		if info, err := util.GetVideoInfo(localVideoPath); err == nil {
			lesson.DurationSeconds = int(info.Duration)
		} else {
			logger.Log.Warn("video probe failed", zap.String("path", localVideoPath), zap.Error(err))
		}
	}

	if err := s.LessonRepo.Create(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *LessonService) Update(lessonID string, req LessonInput) (*model.Lesson, error) {
	lesson, err := s.ByID(lessonID)
	if err != nil {
		return nil, err
	}
	lesson.Title = req.Title
	lesson.Category = req.Category
	lesson.Description = req.Description
	if req.VideoURL != "" {
		lesson.VideoURL = req.VideoURL
	}
	if req.ThumbnailURL != "" {
		lesson.ThumbnailURL = req.ThumbnailURL
	}
	if err := s.LessonRepo.Update(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *LessonService) Delete(lessonID string) error {
	if _, err := s.ByID(lessonID); err != nil {
		return err
	}
	return s.LessonRepo.Delete(lessonID)
}

// Reorder persists a drag-and-drop ordering from the admin console.
func (s *LessonService) Reorder(orderedIDs []string) error {
	if len(orderedIDs) == 0 {
		return errors.New("empty order")
	}
	return s.LessonRepo.Reorder(orderedIDs)
}
