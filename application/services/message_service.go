package services

import (
	"context"

	"chatapi/application/ports"
	"chatapi/application/repositories"
	"chatapi/domain/authz"
	"chatapi/domain/entities"
	"chatapi/domain/events"
	"chatapi/pkg/common"
	apperrors "chatapi/pkg/errors"
	"chatapi/pkg/utils"

	"go.uber.org/zap"
)

// CreateMessageInput appends to a topic. ID may be supplied by the client
// to reconcile an optimistic message.
type CreateMessageInput struct {
	ID               string               `json:"id,omitempty"`
	Role             entities.MessageRole `json:"role" validate:"required,oneof=user assistant"`
	Content          string               `json:"content"`
	Files            []entities.File      `json:"files,omitempty"`
	Model            string               `json:"model,omitempty"`
	SourceDocuments  []entities.Source    `json:"sourceDocuments,omitempty"`
	LocalStatusError bool                 `json:"localStatusError,omitempty"`
}

type UpdateMessageInput struct {
	Content          *string            `json:"content,omitempty"`
	Files            *[]entities.File   `json:"files,omitempty"`
	Model            *string            `json:"model,omitempty"`
	SourceDocuments  *[]entities.Source `json:"sourceDocuments,omitempty"`
	LocalStatusError *bool              `json:"localStatusError,omitempty"`
}

// MessageService reads and writes messages of the caller's topics. The
// topic must exist in the owner's partition for every operation.
type MessageService struct {
	messages  *repositories.MessageRepository
	topics    *repositories.TopicRepository
	publisher ports.EventPublisher
	clock     ports.Clock
	logger    *zap.Logger
}

func NewMessageService(
	messages *repositories.MessageRepository,
	topics *repositories.TopicRepository,
	publisher ports.EventPublisher,
	clock ports.Clock,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{messages: messages, topics: topics, publisher: publisher, clock: clock, logger: logger}
}

// ownedTopic resolves the owner and checks the topic exists in its partition.
func (s *MessageService) ownedTopic(ctx context.Context, userID, topicID string) (string, error) {
	_, owner, err := authz.ResolveOwner(ctx, userID)
	if err != nil {
		return "", err
	}
	if _, err := s.topics.GetByID(ctx, owner, topicID); err != nil {
		return "", err
	}
	return owner, nil
}

// Create stores the message and moves the topic's lastMessageAt forward.
func (s *MessageService) Create(ctx context.Context, userID, topicID string, in CreateMessageInput) (*entities.Message, error) {
	owner, err := s.ownedTopic(ctx, userID, topicID)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	msg, err := s.messages.Create(ctx, &entities.Message{
		ID:               in.ID,
		TopicID:          topicID,
		UserID:           owner,
		Role:             in.Role,
		Content:          in.Content,
		Files:            in.Files,
		Model:            in.Model,
		SourceDocuments:  in.SourceDocuments,
		LocalStatusError: in.LocalStatusError,
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.topics.TouchLastMessage(ctx, owner, topicID); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *MessageService) Get(ctx context.Context, userID, topicID, id string) (*entities.Message, error) {
	if _, err := s.ownedTopic(ctx, userID, topicID); err != nil {
		return nil, err
	}
	return s.messages.GetByID(ctx, topicID, id)
}

// List returns one page of the topic's messages in conversation order.
func (s *MessageService) List(ctx context.Context, userID, topicID, cursor string) (common.Page[entities.Message], error) {
	if _, err := s.ownedTopic(ctx, userID, topicID); err != nil {
		return common.Page[entities.Message]{}, err
	}
	return s.messages.ListByTopic(ctx, topicID, cursor)
}

// Update edits a message.
//
// Editing a user-role message rewrites the conversation from that point:
// every later message in the topic is deleted once the edit is stored, so
// the assistant can answer the edited prompt afresh. Assistant edits never
// delete anything. Deleted ids are published as message.truncated.
func (s *MessageService) Update(ctx context.Context, userID, topicID, id string, in UpdateMessageInput) (*entities.Message, error) {
	owner, err := s.ownedTopic(ctx, userID, topicID)
	if err != nil {
		return nil, err
	}
	existing, err := s.messages.GetByID(ctx, topicID, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.messages.Update(ctx, topicID, id, entities.MessagePatch{
		Content:          in.Content,
		Files:            in.Files,
		Model:            in.Model,
		SourceDocuments:  in.SourceDocuments,
		LocalStatusError: in.LocalStatusError,
	})
	if err != nil {
		return nil, err
	}
	if existing.Role != entities.MessageRoleUser {
		return updated, nil
	}

	later, err := s.laterMessageIDs(ctx, topicID, id)
	if err != nil {
		return nil, err
	}
	if len(later) == 0 {
		return updated, nil
	}
	if err := s.messages.DeleteBatch(ctx, topicID, later); err != nil {
		return nil, err
	}

	s.logger.Info("Conversation truncated after edit",
		zap.String("topicID", topicID),
		zap.String("messageID", id),
		zap.Int("deleted", len(later)),
	)
	if err := s.publisher.Publish(ctx, events.NewMessagesTruncated(topicID, id, later, owner, s.clock.Now())); err != nil {
		s.logger.Warn("Failed to publish truncation", zap.Error(err))
	}
	return updated, nil
}

// laterMessageIDs pages through every message after id.
func (s *MessageService) laterMessageIDs(ctx context.Context, topicID, id string) ([]string, error) {
	var ids []string
	cursor := id
	for {
		page, err := s.messages.ListByTopic(ctx, topicID, cursor)
		if err != nil {
			return nil, err
		}
		for _, m := range page.Items {
			ids = append(ids, m.ID)
		}
		if page.NextToken == nil {
			return ids, nil
		}
		cursor = *page.NextToken
	}
}

// Delete removes one message. Unknown ids are NotFound.
func (s *MessageService) Delete(ctx context.Context, userID, topicID, id string) error {
	if _, err := s.ownedTopic(ctx, userID, topicID); err != nil {
		return err
	}
	if _, err := s.messages.GetByID(ctx, topicID, id); err != nil {
		if apperrors.IsInvalidKey(err) {
			return apperrors.NewNotFoundError("message")
		}
		return err
	}
	return s.messages.DeleteBatch(ctx, topicID, []string{id})
}
