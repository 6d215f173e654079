package service

import (
	"errors"
	"strings"

	"github.com/faizerlangga999/ProjectCastleBeta/internal/model"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/repository"

	"gorm.io/gorm"
)

type CategoryService struct {
	CategoryRepo *repository.CategoryRepository
}

func NewCategoryService(categoryRepo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{CategoryRepo: categoryRepo}
}

func (s *CategoryService) List() ([]model.Category, error) {
	return s.CategoryRepo.List()
}

func (s *CategoryService) Create(name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("category name is required")
	}
	if _, err := s.CategoryRepo.FindByName(name); err == nil {
		return nil, errors.New("category already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category := &model.Category{Name: name}
	if err := s.CategoryRepo.Create(category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) Delete(id string) error {
	return s.CategoryRepo.Delete(id)
}
