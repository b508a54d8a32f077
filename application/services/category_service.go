package services

import (
	"context"

	"chatapi/application/cascade"
	"chatapi/application/repositories"
	"chatapi/domain/authz"
	"chatapi/domain/entities"
	"chatapi/pkg/common"
	apperrors "chatapi/pkg/errors"
	"chatapi/pkg/utils"

	"go.uber.org/zap"
)

type CreateCategoryInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty"`
	UserID      string `json:"userId,omitempty"`
}

type UpdateCategoryInput struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty"`
	UserID      *string `json:"userId,omitempty"`
}

// CategoryDetails is a category with its author resolved.
type CategoryDetails struct {
	entities.Category
	User *entities.User `json:"user,omitempty"`
}

type CategoryService struct {
	categories  *repositories.CategoryRepository
	users       *repositories.UserRepository
	coordinator *cascade.Coordinator
	logger      *zap.Logger
}

func NewCategoryService(
	categories *repositories.CategoryRepository,
	users *repositories.UserRepository,
	coordinator *cascade.Coordinator,
	logger *zap.Logger,
) *CategoryService {
	return &CategoryService{categories: categories, users: users, coordinator: coordinator, logger: logger}
}

func (s *CategoryService) Create(ctx context.Context, in CreateCategoryInput) (*entities.Category, error) {
	p, err := authz.Require(ctx)
	if err != nil {
		return nil, err
	}
	owner, err := assignOwner(p, in.UserID)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	category, err := s.categories.Create(ctx, &entities.Category{
		Title:       in.Title,
		Description: in.Description,
		UserID:      owner,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Category created", zap.String("categoryID", category.ID), zap.String("userID", owner))
	return category, nil
}

func (s *CategoryService) Get(ctx context.Context, id string) (*entities.Category, error) {
	return s.categories.GetByID(ctx, id)
}

func (s *CategoryService) Details(ctx context.Context, id string) (*CategoryDetails, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	details := &CategoryDetails{Category: *category}
	if category.UserID != "" {
		user, err := s.users.GetByID(ctx, category.UserID)
		if err != nil && !apperrors.IsNotFound(err) {
			return nil, err
		}
		details.User = user
	}
	return details, nil
}

func (s *CategoryService) List(ctx context.Context, search, cursor string) (common.Page[entities.Category], error) {
	return s.categories.List(ctx, search, cursor)
}

func (s *CategoryService) Update(ctx context.Context, id string, in UpdateCategoryInput) (*entities.Category, error) {
	if _, err := authz.Require(ctx); err != nil {
		return nil, err
	}
	current, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := authz.RequireMutate(ctx, current.UserID)
	if err != nil {
		return nil, err
	}
	if in.UserID != nil {
		if _, err := assignOwner(p, *in.UserID); err != nil {
			return nil, err
		}
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	return s.categories.Update(ctx, id, entities.CategoryPatch{
		Title:       in.Title,
		Description: in.Description,
		UserID:      in.UserID,
	})
}

// Delete runs the category cascade: every tag in it is detached from its
// topics and deleted, then the category itself.
func (s *CategoryService) Delete(ctx context.Context, id string) (*entities.Category, error) {
	if _, err := authz.Require(ctx); err != nil {
		return nil, err
	}
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := authz.RequireMutate(ctx, category.UserID); err != nil {
		return nil, err
	}
	report, err := s.coordinator.DeleteCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Category deleted", zap.String("categoryID", id), zap.Int("steps", len(report.Completed)))
	return category, nil
}
