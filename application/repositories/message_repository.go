package repositories

import (
	"context"
	"fmt"

	"chatapi/application/ports"
	"chatapi/domain/entities"
	"chatapi/domain/keys"
	"chatapi/pkg/common"
	apperrors "chatapi/pkg/errors"

	"go.uber.org/zap"
)

// MessageRepository persists messages in their topic's TOPIC#<id>
// partition. Sort key order is conversation order.
type MessageRepository struct {
	base
}

func NewMessageRepository(d Deps) *MessageRepository {
	return &MessageRepository{base: newBase(d, keys.KindMessage)}
}

func (r *MessageRepository) toItem(m *entities.Message) (ports.Item, error) {
	key, err := keys.For(keys.KindMessage, m.ID, m.TopicID)
	if err != nil {
		return nil, err
	}
	if m.Files == nil {
		m.Files = []entities.File{}
	}
	if m.SourceDocuments == nil {
		m.SourceDocuments = []entities.Source{}
	}
	return r.base.toItem(m, key, nil)
}

// Create stores a message in m.TopicID. Clients may supply the id so an
// optimistic message can be reconciled; otherwise one is generated. A
// supplied id that is already taken is DuplicateEntity.
func (r *MessageRepository) Create(ctx context.Context, m *entities.Message) (*entities.Message, error) {
	msg := *m
	if msg.ID == "" {
		msg.ID = r.ids.NewID()
	}
	now := r.now()
	msg.CreatedAt = now
	msg.UpdatedAt = now

	item, err := r.toItem(&msg)
	if err != nil {
		return nil, err
	}
	if err := r.create(ctx, item, apperrors.NewDuplicateEntityError(fmt.Sprintf("message %s already exists", msg.ID))); err != nil {
		return nil, err
	}
	r.logger.Debug("Created message", zap.String("messageID", msg.ID), zap.String("topicID", msg.TopicID))
	return &msg, nil
}

func (r *MessageRepository) GetByID(ctx context.Context, topicID, id string) (*entities.Message, error) {
	key, err := keys.For(keys.KindMessage, id, topicID)
	if err != nil {
		return nil, err
	}
	msg, err := getEntity[entities.Message](ctx, r.base, key)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, apperrors.NewNotFoundError("message")
	}
	return msg, nil
}

// ListByTopic returns one store page of messages after cursor, oldest first.
func (r *MessageRepository) ListByTopic(ctx context.Context, topicID, cursor string) (common.Page[entities.Message], error) {
	pk, err := keys.Partition(keys.KindMessage, topicID)
	if err != nil {
		return common.Page[entities.Message]{}, err
	}
	return queryPage[entities.Message](ctx, r.base, r.partitionQuery(pk), cursor)
}

// ListAllByTopic pages through the whole topic.
func (r *MessageRepository) ListAllByTopic(ctx context.Context, topicID string) ([]entities.Message, error) {
	var all []entities.Message
	cursor := ""
	for {
		page, err := r.ListByTopic(ctx, topicID, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if page.NextToken == nil {
			return all, nil
		}
		cursor = *page.NextToken
	}
}

func (r *MessageRepository) Update(ctx context.Context, topicID, id string, patch entities.MessagePatch) (*entities.Message, error) {
	msg, err := r.GetByID(ctx, topicID, id)
	if err != nil {
		return nil, err
	}
	msg.Apply(patch, r.now())

	item, err := r.toItem(msg)
	if err != nil {
		return nil, err
	}
	if err := r.put(ctx, item); err != nil {
		return nil, err
	}
	return msg, nil
}

// DeleteBatch removes the listed messages from topicID.
func (r *MessageRepository) DeleteBatch(ctx context.Context, topicID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	pk, err := keys.Partition(keys.KindMessage, topicID)
	if err != nil {
		return err
	}
	sortKeys := make([]string, 0, len(ids))
	for _, id := range ids {
		key, err := keys.For(keys.KindMessage, id, topicID)
		if err != nil {
			return err
		}
		sortKeys = append(sortKeys, key.SK)
	}
	if err := r.store.BatchDelete(ctx, pk, sortKeys); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	r.logger.Debug("Deleted messages", zap.String("topicID", topicID), zap.Int("count", len(ids)))
	return nil
}
