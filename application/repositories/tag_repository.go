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

// TagFilter narrows List.
type TagFilter struct {
	Search     string
	CategoryID string
}

// TagRepository persists tags in the global TAG partition.
type TagRepository struct {
	base
}

func NewTagRepository(d Deps) *TagRepository {
	return &TagRepository{base: newBase(d, keys.KindTag)}
}

func (r *TagRepository) toItem(t *entities.Tag) (ports.Item, error) {
	key, err := keys.For(keys.KindTag, t.ID, "")
	if err != nil {
		return nil, err
	}
	if t.Attachments == nil {
		t.Attachments = []entities.File{}
	}
	return r.base.toItem(t, key, map[string]string{AttrSearchText: t.SearchText()})
}

// Create stores a new tag. The caller checks that CategoryID exists.
func (r *TagRepository) Create(ctx context.Context, t *entities.Tag) (*entities.Tag, error) {
	now := r.now()
	tag := *t
	tag.ID = r.ids.NewID()
	tag.CreatedAt = now
	tag.UpdatedAt = now

	item, err := r.toItem(&tag)
	if err != nil {
		return nil, err
	}
	if err := r.create(ctx, item, apperrors.NewDuplicateEntityError("tag already exists")); err != nil {
		return nil, err
	}
	r.logger.Debug("Created tag", zap.String("tagID", tag.ID))
	return &tag, nil
}

func (r *TagRepository) GetByID(ctx context.Context, id string) (*entities.Tag, error) {
	key, err := keys.For(keys.KindTag, id, "")
	if err != nil {
		return nil, err
	}
	tag, err := getEntity[entities.Tag](ctx, r.base, key)
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, apperrors.NewNotFoundError("tag")
	}
	return tag, nil
}

// List returns one page of tags after cursor.
func (r *TagRepository) List(ctx context.Context, f TagFilter, cursor string) (common.Page[entities.Tag], error) {
	return queryPage[entities.Tag](ctx, r.base, r.listQuery(f), cursor)
}

// ListByCategory returns every tag in categoryID.
func (r *TagRepository) ListByCategory(ctx context.Context, categoryID string) ([]entities.Tag, error) {
	return queryAll[entities.Tag](ctx, r.base, r.listQuery(TagFilter{CategoryID: categoryID}))
}

func (r *TagRepository) listQuery(f TagFilter) ports.Query {
	var filters []ports.Filter
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		filters = append(filters, ports.Filter{Attribute: AttrSearchText, Op: ports.FilterContains, Value: search})
	}
	if f.CategoryID != "" {
		filters = append(filters, ports.Filter{Attribute: "categoryId", Op: ports.FilterEquals, Value: f.CategoryID})
	}
	pk, _ := keys.Partition(keys.KindTag, "")
	return r.partitionQuery(pk, filters...)
}

func (r *TagRepository) Update(ctx context.Context, id string, patch entities.TagPatch) (*entities.Tag, error) {
	tag, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tag.Apply(patch, r.now())

	item, err := r.toItem(tag)
	if err != nil {
		return nil, err
	}
	if err := r.put(ctx, item); err != nil {
		return nil, err
	}
	return tag, nil
}

// Delete removes the tag record only. Topic cleanup belongs to the cascade.
func (r *TagRepository) Delete(ctx context.Context, id string) error {
	key, err := keys.For(keys.KindTag, id, "")
	if err != nil {
		return err
	}
	return r.delete(ctx, key)
}
