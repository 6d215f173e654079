package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/faizerlangga999/ProjectCastleBeta/internal/model"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/repository"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/util"
	"github.com/faizerlangga999/ProjectCastleBeta/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// commentEventsChannel carries new-comment notifications for realtime
// subscribers (the web client polls today, the channel is the contract).
const commentEventsChannel = "forum:comments"

type ForumService struct {
	ForumRepo *repository.ForumRepository
	Redis     *redis.Client
}

func NewForumService(forumRepo *repository.ForumRepository, rdb *redis.Client) *ForumService {
	return &ForumService{ForumRepo: forumRepo, Redis: rdb}
}

type CreateThreadRequest struct {
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content" binding:"required"`
	Category string `json:"category"`
	ImageURL string `json:"image_url"`
}

func (s *ForumService) CreateThread(authorID string, req CreateThreadRequest) (*model.Thread, error) {
	thread := &model.Thread{
		AuthorID: authorID,
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		ImageURL: req.ImageURL,
	}
	if err := s.ForumRepo.CreateThread(thread); err != nil {
		return nil, err
	}
	return thread, nil
}

func (s *ForumService) ListThreads(category string, page, pageSize int) ([]model.Thread, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.ForumRepo.ListThreads(category, (page-1)*pageSize, pageSize)
}

type ThreadDetail struct {
	Thread   *model.Thread   `json:"thread"`
	Comments []model.Comment `json:"comments"`
	Liked    bool            `json:"liked"`
}

// ThreadByID returns the thread with its comments. userID may be empty
// for anonymous readers; Liked is false then.
func (s *ForumService) ThreadByID(threadID, userID string) (*ThreadDetail, error) {
	thread, err := s.ForumRepo.FindThreadByID(threadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("thread not found")
		}
		return nil, err
	}

	comments, err := s.ForumRepo.ListComments(threadID)
	if err != nil {
		return nil, err
	}

	liked := false
	if userID != "" {
		liked, err = s.ForumRepo.HasLiked(threadID, userID)
		if err != nil {
			return nil, err
		}
	}

	return &ThreadDetail{Thread: thread, Comments: comments, Liked: liked}, nil
}

// DeleteThread allows the author or an admin to remove a thread.
func (s *ForumService) DeleteThread(threadID, userID string, role model.UserRole) error {
	thread, err := s.ForumRepo.FindThreadByID(threadID)
	if err != nil {
		return errors.New("thread not found")
	}
	if thread.AuthorID != userID && role != model.RoleAdmin {
		return util.ErrPermissionDenied
	}
	return s.ForumRepo.DeleteThread(threadID)
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

func (s *ForumService) CreateComment(ctx context.Context, threadID, authorID string, req CreateCommentRequest) (*model.Comment, error) {
	if _, err := s.ForumRepo.FindThreadByID(threadID); err != nil {
		return nil, errors.New("thread not found")
	}

	comment := &model.Comment{
		ThreadID: threadID,
		AuthorID: authorID,
		Content:  req.Content,
	}
	if err := s.ForumRepo.CreateComment(comment); err != nil {
		return nil, err
	}

	s.publishCommentEvent(ctx, comment)
	return comment, nil
}

// DeleteComment allows the comment author or an admin to remove a
// comment, keeping the thread counter in step.
func (s *ForumService) DeleteComment(commentID, userID string, role model.UserRole) error {
	comment, err := s.ForumRepo.FindCommentByID(commentID)
	if err != nil {
		return errors.New("comment not found")
	}
	if comment.AuthorID != userID && role != model.RoleAdmin {
		return util.ErrPermissionDenied
	}
	return s.ForumRepo.DeleteComment(comment.ID, comment.ThreadID)
}

func (s *ForumService) publishCommentEvent(ctx context.Context, comment *model.Comment) {
	if s.Redis == nil {
		return
	}
	payload, err := json.Marshal(map[string]string{
		"thread_id":  comment.ThreadID,
		"comment_id": comment.ID,
		"author_id":  comment.AuthorID,
	})
	if err != nil {
		return
	}
	if err := s.Redis.Publish(ctx, commentEventsChannel, payload).Err(); err != nil {
		logger.Log.Warn("comment event publish failed",
			zap.String("thread_id", comment.ThreadID),
			zap.Error(err))
	}
}

func (s *ForumService) ToggleLike(threadID, userID string) (bool, error) {
	if _, err := s.ForumRepo.FindThreadByID(threadID); err != nil {
		return false, errors.New("thread not found")
	}
	return s.ForumRepo.ToggleLike(threadID, userID)
}
