package services

import (
	"context"

	"chatapi/application/repositories"
	"chatapi/domain/authz"
	"chatapi/domain/entities"
	"chatapi/pkg/common"
	"chatapi/pkg/utils"
)

type CreatePromptInput struct {
	UserID      string `json:"userId,omitempty"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty"`
}

type UpdatePromptInput struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty"`
}

// PromptService manages saved prompts. Every operation is scoped to the
// caller's partition unless an administrator names another user.
type PromptService struct {
	prompts *repositories.PromptRepository
}

func NewPromptService(prompts *repositories.PromptRepository) *PromptService {
	return &PromptService{prompts: prompts}
}

func (s *PromptService) Create(ctx context.Context, in CreatePromptInput) (*entities.Prompt, error) {
	_, owner, err := authz.ResolveOwner(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	return s.prompts.Create(ctx, &entities.Prompt{UserID: owner, Title: in.Title, Description: in.Description})
}

func (s *PromptService) Get(ctx context.Context, userID, id string) (*entities.Prompt, error) {
	_, owner, err := authz.ResolveOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.prompts.GetByID(ctx, owner, id)
}

func (s *PromptService) List(ctx context.Context, userID, cursor string) (common.Page[entities.Prompt], error) {
	_, owner, err := authz.ResolveOwner(ctx, userID)
	if err != nil {
		return common.Page[entities.Prompt]{}, err
	}
	return s.prompts.ListByUser(ctx, owner, cursor)
}

func (s *PromptService) Update(ctx context.Context, userID, id string, in UpdatePromptInput) (*entities.Prompt, error) {
	_, owner, err := authz.ResolveOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	return s.prompts.Update(ctx, owner, id, entities.PromptPatch{Title: in.Title, Description: in.Description})
}

// Delete removes the prompt and returns it. Unknown ids are NotFound.
func (s *PromptService) Delete(ctx context.Context, userID, id string) (*entities.Prompt, error) {
	_, owner, err := authz.ResolveOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	prompt, err := s.prompts.GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := s.prompts.Delete(ctx, owner, id); err != nil {
		return nil, err
	}
	return prompt, nil
}
