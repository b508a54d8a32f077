package repositories

import (
	"context"

	"chatapi/application/ports"
	"chatapi/domain/entities"
	"chatapi/domain/keys"
	"chatapi/pkg/common"
	apperrors "chatapi/pkg/errors"
)

// PromptRepository persists prompts in their owner's USER#<id> partition.
type PromptRepository struct {
	base
}

func NewPromptRepository(d Deps) *PromptRepository {
	return &PromptRepository{base: newBase(d, keys.KindPrompt)}
}

func (r *PromptRepository) toItem(p *entities.Prompt) (ports.Item, error) {
	key, err := keys.For(keys.KindPrompt, p.ID, p.UserID)
	if err != nil {
		return nil, err
	}
	return r.base.toItem(p, key, nil)
}

func (r *PromptRepository) Create(ctx context.Context, p *entities.Prompt) (*entities.Prompt, error) {
	if _, err := keys.Partition(keys.KindPrompt, p.UserID); err != nil {
		return nil, err
	}
	now := r.now()
	prompt := *p
	prompt.ID = r.ids.NewID()
	prompt.CreatedAt = now
	prompt.UpdatedAt = now

	item, err := r.toItem(&prompt)
	if err != nil {
		return nil, err
	}
	if err := r.create(ctx, item, apperrors.NewDuplicateEntityError("prompt already exists")); err != nil {
		return nil, err
	}
	return &prompt, nil
}

func (r *PromptRepository) GetByID(ctx context.Context, ownerID, id string) (*entities.Prompt, error) {
	key, err := keys.For(keys.KindPrompt, id, ownerID)
	if err != nil {
		return nil, err
	}
	prompt, err := getEntity[entities.Prompt](ctx, r.base, key)
	if err != nil {
		return nil, err
	}
	if prompt == nil {
		return nil, apperrors.NewNotFoundError("prompt")
	}
	return prompt, nil
}

func (r *PromptRepository) ListByUser(ctx context.Context, ownerID, cursor string) (common.Page[entities.Prompt], error) {
	pk, err := keys.Partition(keys.KindPrompt, ownerID)
	if err != nil {
		return common.Page[entities.Prompt]{}, err
	}
	return queryPage[entities.Prompt](ctx, r.base, r.partitionQuery(pk), cursor)
}

func (r *PromptRepository) Update(ctx context.Context, ownerID, id string, patch entities.PromptPatch) (*entities.Prompt, error) {
	prompt, err := r.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	prompt.Apply(patch, r.now())

	item, err := r.toItem(prompt)
	if err != nil {
		return nil, err
	}
	if err := r.put(ctx, item); err != nil {
		return nil, err
	}
	return prompt, nil
}

func (r *PromptRepository) Delete(ctx context.Context, ownerID, id string) error {
	key, err := keys.For(keys.KindPrompt, id, ownerID)
	if err != nil {
		return err
	}
	return r.delete(ctx, key)
}
