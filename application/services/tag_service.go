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

type CreateTagInput struct {
	DisplayName string          `json:"displayName" validate:"required,max=200"`
	Content     string          `json:"content,omitempty"`
	CategoryID  string          `json:"categoryId,omitempty"`
	Attachments []entities.File `json:"attachments,omitempty"`
	UserID      string          `json:"userId,omitempty"`
}

type UpdateTagInput struct {
	DisplayName *string          `json:"displayName,omitempty" validate:"omitempty,max=200"`
	Content     *string          `json:"content,omitempty"`
	CategoryID  *string          `json:"categoryId,omitempty"`
	Attachments *[]entities.File `json:"attachments,omitempty"`
	UserID      *string          `json:"userId,omitempty"`
}

// TagDetails is a tag with its category and author resolved.
type TagDetails struct {
	entities.Tag
	Category *entities.Category `json:"category,omitempty"`
	User     *entities.User     `json:"user,omitempty"`
}

// TagService manages the global tag list. Listing is public; changes need
// the tag's author or an administrator.
type TagService struct {
	tags        *repositories.TagRepository
	categories  *repositories.CategoryRepository
	users       *repositories.UserRepository
	coordinator *cascade.Coordinator
	logger      *zap.Logger
}

func NewTagService(
	tags *repositories.TagRepository,
	categories *repositories.CategoryRepository,
	users *repositories.UserRepository,
	coordinator *cascade.Coordinator,
	logger *zap.Logger,
) *TagService {
	return &TagService{tags: tags, categories: categories, users: users, coordinator: coordinator, logger: logger}
}

func (s *TagService) checkCategory(ctx context.Context, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
		if apperrors.IsInvalidKey(err) {
			return apperrors.NewNotFoundError("category")
		}
		return err
	}
	return nil
}

func (s *TagService) Create(ctx context.Context, in CreateTagInput) (*entities.Tag, error) {
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
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	tag, err := s.tags.Create(ctx, &entities.Tag{
		DisplayName: in.DisplayName,
		Content:     in.Content,
		CategoryID:  in.CategoryID,
		Attachments: in.Attachments,
		UserID:      owner,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Tag created", zap.String("tagID", tag.ID), zap.String("userID", owner))
	return tag, nil
}

func (s *TagService) Get(ctx context.Context, id string) (*entities.Tag, error) {
	return s.tags.GetByID(ctx, id)
}

// Details resolves the tag's category and author. Either may have been
// deleted since; they are then omitted.
func (s *TagService) Details(ctx context.Context, id string) (*TagDetails, error) {
	tag, err := s.tags.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	details := &TagDetails{Tag: *tag}
	if tag.CategoryID != "" {
		category, err := s.categories.GetByID(ctx, tag.CategoryID)
		if err != nil && !apperrors.IsNotFound(err) {
			return nil, err
		}
		details.Category = category
	}
	if tag.UserID != "" {
		user, err := s.users.GetByID(ctx, tag.UserID)
		if err != nil && !apperrors.IsNotFound(err) {
			return nil, err
		}
		details.User = user
	}
	return details, nil
}

func (s *TagService) List(ctx context.Context, f repositories.TagFilter, cursor string) (common.Page[entities.Tag], error) {
	return s.tags.List(ctx, f, cursor)
}

// Update edits the tag and refreshes its snapshot in every topic. The tag
// is written first; if the refresh fails some topics keep the old snapshot
// until the next update of the tag.
func (s *TagService) Update(ctx context.Context, id string, in UpdateTagInput) (*entities.Tag, error) {
	if _, err := authz.Require(ctx); err != nil {
		return nil, err
	}
	current, err := s.tags.GetByID(ctx, id)
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
	if in.CategoryID != nil {
		if err := s.checkCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
	}

	tag, err := s.tags.Update(ctx, id, entities.TagPatch{
		DisplayName: in.DisplayName,
		Content:     in.Content,
		CategoryID:  in.CategoryID,
		Attachments: in.Attachments,
		UserID:      in.UserID,
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.coordinator.RefreshTag(ctx, *tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// Delete detaches the tag from every topic and deletes it, returning the
// deleted tag.
func (s *TagService) Delete(ctx context.Context, id string) (*entities.Tag, error) {
	if _, err := authz.Require(ctx); err != nil {
		return nil, err
	}
	tag, err := s.tags.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := authz.RequireMutate(ctx, tag.UserID); err != nil {
		return nil, err
	}
	if _, err := s.coordinator.DeleteTag(ctx, id); err != nil {
		return nil, err
	}
	s.logger.Info("Tag deleted", zap.String("tagID", id))
	return tag, nil
}

// assignOwner returns the user a global entity is attributed to. Only
// administrators may attribute to someone else.
func assignOwner(p *authz.Principal, requested string) (string, error) {
	if requested == "" || requested == p.UserID {
		return p.UserID, nil
	}
	if !authz.IsAdministrator(p) {
		return "", apperrors.NewForbiddenError("only administrators can assign another owner")
	}
	return requested, nil
}
