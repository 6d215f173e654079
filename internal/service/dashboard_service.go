package service

import (
	"github.com/faizerlangga999/ProjectCastleBeta/internal/repository"
)

// DashboardService aggregates the counters shown on the admin home.
type DashboardService struct {
	UserRepo     *repository.UserRepository
	QuizRepo     *repository.QuizRepository
	QuestionRepo *repository.QuestionRepository
	AttemptRepo  *repository.AttemptRepository
	LessonRepo   *repository.LessonRepository
	ForumRepo    *repository.ForumRepository
}

func NewDashboardService(
	userRepo *repository.UserRepository,
	quizRepo *repository.QuizRepository,
	questionRepo *repository.QuestionRepository,
	attemptRepo *repository.AttemptRepository,
	lessonRepo *repository.LessonRepository,
	forumRepo *repository.ForumRepository,
) *DashboardService {
	return &DashboardService{
		UserRepo:     userRepo,
		QuizRepo:     quizRepo,
		QuestionRepo: questionRepo,
		AttemptRepo:  attemptRepo,
		LessonRepo:   lessonRepo,
		ForumRepo:    forumRepo,
	}
}

type DashboardCounts struct {
	Users     int64 `json:"users"`
	Quizzes   int64 `json:"quizzes"`
	Questions int64 `json:"questions"`
	Attempts  int64 `json:"attempts"`
	Lessons   int64 `json:"lessons"`
	Threads   int64 `json:"threads"`
}

func (s *DashboardService) Counts() (*DashboardCounts, error) {
	counts := &DashboardCounts{}
	var err error

	if counts.Users, err = s.UserRepo.Count(); err != nil {
		return nil, err
	}
	if counts.Quizzes, err = s.QuizRepo.Count(); err != nil {
		return nil, err
	}
	if counts.Questions, err = s.QuestionRepo.Count(); err != nil {
		return nil, err
	}
	if counts.Attempts, err = s.AttemptRepo.Count(); err != nil {
		return nil, err
	}
	if counts.Lessons, err = s.LessonRepo.Count(); err != nil {
		return nil, err
	}
	if counts.Threads, err = s.ForumRepo.CountThreads(); err != nil {
		return nil, err
	}
	return counts, nil
}
