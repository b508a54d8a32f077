package repositories

import (
	"context"
	"strings"

	"chatapi/application/ports"
	"chatapi/domain/entities"
	"chatapi/domain/keys"
	"chatapi/pkg/common"
	apperrors "chatapi/pkg/errors"

	"go.uber.org/zap"
)

// CategoryRepository persists categories in the global CATEGORY partition.
type CategoryRepository struct {
	base
}

func NewCategoryRepository(d Deps) *CategoryRepository {
	return &CategoryRepository{base: newBase(d, keys.KindCategory)}
}

func (r *CategoryRepository) toItem(c *entities.Category) (ports.Item, error) {
	key, err := keys.For(keys.KindCategory, c.ID, "")
	if err != nil {
		return nil, err
	}
	return r.base.toItem(c, key, map[string]string{AttrSearchText: c.SearchText()})
}

func (r *CategoryRepository) Create(ctx context.Context, c *entities.Category) (*entities.Category, error) {
	now := r.now()
	category := *c
	category.ID = r.ids.NewID()
	category.CreatedAt = now
	category.UpdatedAt = now

	item, err := r.toItem(&category)
	if err != nil {
		return nil, err
	}
	if err := r.create(ctx, item, apperrors.NewDuplicateEntityError("category already exists")); err != nil {
		return nil, err
	}
	r.logger.Debug("Created category", zap.String("categoryID", category.ID))
	return &category, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*entities.Category, error) {
	key, err := keys.For(keys.KindCategory, id, "")
	if err != nil {
		return nil, err
	}
	category, err := getEntity[entities.Category](ctx, r.base, key)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, apperrors.NewNotFoundError("category")
	}
	return category, nil
}

// List returns one page of categories whose title or description contains
// search, ignoring case.
func (r *CategoryRepository) List(ctx context.Context, search, cursor string) (common.Page[entities.Category], error) {
	var filters []ports.Filter
	if s := strings.ToLower(strings.TrimSpace(search)); s != "" {
		filters = append(filters, ports.Filter{Attribute: AttrSearchText, Op: ports.FilterContains, Value: s})
	}
	pk, _ := keys.Partition(keys.KindCategory, "")
	return queryPage[entities.Category](ctx, r.base, r.partitionQuery(pk, filters...), cursor)
}

func (r *CategoryRepository) Update(ctx context.Context, id string, patch entities.CategoryPatch) (*entities.Category, error) {
	category, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	category.Apply(patch, r.now())

	item, err := r.toItem(category)
	if err != nil {
		return nil, err
	}
	if err := r.put(ctx, item); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete removes the category record only. Tag cleanup belongs to the
// cascade.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	key, err := keys.For(keys.KindCategory, id, "")
	if err != nil {
		return err
	}
	return r.delete(ctx, key)
}
