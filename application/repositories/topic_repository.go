package repositories

import (
	"context"
	"sort"
	"strings"

	"chatapi/application/ports"
	"chatapi/domain/entities"
	"chatapi/domain/keys"
	apperrors "chatapi/pkg/errors"

	"go.uber.org/zap"
)

// TopicFilter narrows ListByUser.
type TopicFilter struct {
	// Search is matched case-insensitively against name and description.
	Search string
	// Pinned, when set, keeps only topics with that pinned state.
	Pinned *bool
	// Ascending orders by lastMessageAt oldest first. Default is newest first.
	Ascending bool
}

// TopicRepository persists topics in their owner's USER#<id> partition.
type TopicRepository struct {
	base
}

func NewTopicRepository(d Deps) *TopicRepository {
	return &TopicRepository{base: newBase(d, keys.KindTopic)}
}

func (r *TopicRepository) toItem(t *entities.Topic) (ports.Item, error) {
	key, err := keys.For(keys.KindTopic, t.ID, t.UserID)
	if err != nil {
		return nil, err
	}
	if t.TagIDs == nil {
		t.TagIDs = []string{}
	}
	if t.Tags == nil {
		t.Tags = []entities.Tag{}
	}
	return r.base.toItem(t, key, map[string]string{AttrSearchText: t.SearchText()})
}

// Create stores a new topic for t.UserID. lastMessageAt starts at createdAt
// so fresh topics sort with recent ones.
func (r *TopicRepository) Create(ctx context.Context, t *entities.Topic) (*entities.Topic, error) {
	if _, err := keys.Partition(keys.KindTopic, t.UserID); err != nil {
		return nil, err
	}
	now := r.now()
	topic := *t
	topic.ID = r.ids.NewID()
	topic.CreatedAt = now
	topic.UpdatedAt = now
	topic.LastMessageAt = now
	topic.Pinned = false
	topic.PinnedAt = nil

	item, err := r.toItem(&topic)
	if err != nil {
		return nil, err
	}
	if err := r.create(ctx, item, apperrors.NewDuplicateEntityError("topic already exists")); err != nil {
		return nil, err
	}
	r.logger.Debug("Created topic", zap.String("topicID", topic.ID), zap.String("userID", topic.UserID))
	return &topic, nil
}

// GetByID returns NotFound when ownerID has no such topic.
func (r *TopicRepository) GetByID(ctx context.Context, ownerID, id string) (*entities.Topic, error) {
	key, err := keys.For(keys.KindTopic, id, ownerID)
	if err != nil {
		return nil, err
	}
	topic, err := getEntity[entities.Topic](ctx, r.base, key)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, apperrors.NewNotFoundError("topic")
	}
	return topic, nil
}

// ListByUser returns every matching topic of ownerID ordered by
// lastMessageAt. The store cannot order by a non-key attribute, so all
// pages are read and sorted here.
func (r *TopicRepository) ListByUser(ctx context.Context, ownerID string, f TopicFilter) ([]entities.Topic, error) {
	pk, err := keys.Partition(keys.KindTopic, ownerID)
	if err != nil {
		return nil, err
	}

	var filters []ports.Filter
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		filters = append(filters, ports.Filter{Attribute: AttrSearchText, Op: ports.FilterContains, Value: search})
	}
	if f.Pinned != nil {
		filters = append(filters, ports.Filter{Attribute: "pinned", Op: ports.FilterEquals, Value: *f.Pinned})
	}

	topics, err := queryAll[entities.Topic](ctx, r.base, r.partitionQuery(pk, filters...))
	if err != nil {
		return nil, err
	}

	sort.SliceStable(topics, func(i, j int) bool {
		a, b := topics[i], topics[j]
		if a.LastMessageAt != b.LastMessageAt {
			if f.Ascending {
				return a.LastMessageAt < b.LastMessageAt
			}
			return a.LastMessageAt > b.LastMessageAt
		}
		if f.Ascending {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
	if topics == nil {
		topics = []entities.Topic{}
	}
	return topics, nil
}

// ListByTag finds every topic, across all owners, whose tagIds holds tagID.
// It scans the table.
func (r *TopicRepository) ListByTag(ctx context.Context, tagID string) ([]entities.Topic, error) {
	return queryAll[entities.Topic](ctx, r.base, ports.Query{
		Scan: true,
		Filters: []ports.Filter{
			r.kindFilter(),
			{Attribute: "tagIds", Op: ports.FilterContains, Value: tagID},
		},
	})
}

// ListAll scans every topic in the table.
func (r *TopicRepository) ListAll(ctx context.Context) ([]entities.Topic, error) {
	return queryAll[entities.Topic](ctx, r.base, ports.Query{Scan: true, Filters: []ports.Filter{r.kindFilter()}})
}

// Update merges patch over the stored topic.
func (r *TopicRepository) Update(ctx context.Context, ownerID, id string, patch entities.TopicPatch) (*entities.Topic, error) {
	topic, err := r.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	topic.Apply(patch, r.now())
	if err := r.save(ctx, topic); err != nil {
		return nil, err
	}
	return topic, nil
}

// SetPinned pins or unpins the topic.
func (r *TopicRepository) SetPinned(ctx context.Context, ownerID, id string, pinned bool) (*entities.Topic, error) {
	return r.Update(ctx, ownerID, id, entities.TopicPatch{Pinned: &pinned})
}

// TouchLastMessage moves lastMessageAt to now so the topic sorts first.
func (r *TopicRepository) TouchLastMessage(ctx context.Context, ownerID, id string) (*entities.Topic, error) {
	now := r.now()
	return r.Update(ctx, ownerID, id, entities.TopicPatch{LastMessageAt: &now})
}

// RemoveTag re-reads the topic and drops tagID from tagIds and tags. It
// reports whether the topic changed; a vanished topic is not an error.
func (r *TopicRepository) RemoveTag(ctx context.Context, ownerID, id, tagID string) (bool, error) {
	return r.rewriteTags(ctx, ownerID, id, func(t *entities.Topic) bool { return t.RemoveTag(tagID) })
}

// ReplaceTag re-reads the topic and swaps in the current tag snapshot.
func (r *TopicRepository) ReplaceTag(ctx context.Context, ownerID, id string, tag entities.Tag) (bool, error) {
	return r.rewriteTags(ctx, ownerID, id, func(t *entities.Topic) bool { return t.ReplaceTag(tag) })
}

func (r *TopicRepository) rewriteTags(ctx context.Context, ownerID, id string, mutate func(*entities.Topic) bool) (bool, error) {
	topic, err := r.GetByID(ctx, ownerID, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if !mutate(topic) {
		return false, nil
	}
	topic.UpdatedAt = r.now()
	if err := r.save(ctx, topic); err != nil {
		return false, err
	}
	return true, nil
}

func (r *TopicRepository) save(ctx context.Context, topic *entities.Topic) error {
	item, err := r.toItem(topic)
	if err != nil {
		return err
	}
	return r.put(ctx, item)
}

// Delete removes the topic record. Missing topics are not an error.
func (r *TopicRepository) Delete(ctx context.Context, ownerID, id string) error {
	key, err := keys.For(keys.KindTopic, id, ownerID)
	if err != nil {
		return err
	}
	return r.delete(ctx, key)
}
