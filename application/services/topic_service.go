package services

import (
	"context"

	"chatapi/application/cascade"
	"chatapi/application/repositories"
	"chatapi/domain/authz"
	"chatapi/domain/entities"
	apperrors "chatapi/pkg/errors"
	"chatapi/pkg/utils"

	"go.uber.org/zap"
)

// CreateTopicInput starts a conversation. UserID is only honoured for
// administrators acting on another user's behalf.
type CreateTopicInput struct {
	UserID      string   `json:"userId,omitempty"`
	Name        string   `json:"name" validate:"required,max=500"`
	Description string   `json:"description,omitempty"`
	AITitle     string   `json:"aiTitle,omitempty"`
	TagIDs      []string `json:"tagIds,omitempty"`
}

// UpdateTopicInput edits a topic. Nil fields are left unchanged.
type UpdateTopicInput struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,max=500"`
	Description *string   `json:"description,omitempty"`
	AITitle     *string   `json:"aiTitle,omitempty"`
	TagIDs      *[]string `json:"tagIds,omitempty"`
}

type TopicService struct {
	topics      *repositories.TopicRepository
	tags        *repositories.TagRepository
	coordinator *cascade.Coordinator
	logger      *zap.Logger
}

func NewTopicService(
	topics *repositories.TopicRepository,
	tags *repositories.TagRepository,
	coordinator *cascade.Coordinator,
	logger *zap.Logger,
) *TopicService {
	return &TopicService{topics: topics, tags: tags, coordinator: coordinator, logger: logger}
}

// resolveTags loads the snapshot for each id, dropping duplicates. Unknown
// tags are rejected as invalid input.
func (s *TopicService) resolveTags(ctx context.Context, ids []string) ([]string, []entities.Tag, error) {
	seen := make(map[string]bool, len(ids))
	outIDs := make([]string, 0, len(ids))
	tags := make([]entities.Tag, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		tag, err := s.tags.GetByID(ctx, id)
		if err != nil {
			if apperrors.IsNotFound(err) || apperrors.IsInvalidKey(err) {
				return nil, nil, apperrors.NewInvalidInputError("unknown tag " + id)
			}
			return nil, nil, err
		}
		outIDs = append(outIDs, id)
		tags = append(tags, *tag)
	}
	return outIDs, tags, nil
}

func (s *TopicService) Create(ctx context.Context, in CreateTopicInput) (*entities.Topic, error) {
	_, owner, err := authz.ResolveOwner(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	tagIDs, tags, err := s.resolveTags(ctx, in.TagIDs)
	if err != nil {
		return nil, err
	}

	topic, err := s.topics.Create(ctx, &entities.Topic{
		UserID:      owner,
		Name:        in.Name,
		Description: in.Description,
		AITitle:     in.AITitle,
		TagIDs:      tagIDs,
		Tags:        tags,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Topic created", zap.String("topicID", topic.ID), zap.String("userID", owner))
	return topic, nil
}

// Get reads one of the caller's topics. Administrators may pass userID to
// read another user's.
func (s *TopicService) Get(ctx context.Context, userID, id string) (*entities.Topic, error) {
	_, owner, err := authz.ResolveOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.topics.GetByID(ctx, owner, id)
}

func (s *TopicService) List(ctx context.Context, userID string, f repositories.TopicFilter) ([]entities.Topic, error) {
	_, owner, err := authz.ResolveOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.topics.ListByUser(ctx, owner, f)
}

func (s *TopicService) Update(ctx context.Context, userID, id string, in UpdateTopicInput) (*entities.Topic, error) {
	_, owner, err := authz.ResolveOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if _, err := s.topics.GetByID(ctx, owner, id); err != nil {
		return nil, err
	}

	patch := entities.TopicPatch{
		Name:        in.Name,
		Description: in.Description,
		AITitle:     in.AITitle,
	}
	if in.TagIDs != nil {
		tagIDs, tags, err := s.resolveTags(ctx, *in.TagIDs)
		if err != nil {
			return nil, err
		}
		patch.TagIDs = &tagIDs
		patch.Tags = &tags
	}
	return s.topics.Update(ctx, owner, id, patch)
}

// Pin marks the topic pinned and stamps pinnedAt.
func (s *TopicService) Pin(ctx context.Context, userID, id string) (*entities.Topic, error) {
	return s.setPinned(ctx, userID, id, true)
}

// Unpin clears the pinned flag and pinnedAt.
func (s *TopicService) Unpin(ctx context.Context, userID, id string) (*entities.Topic, error) {
	return s.setPinned(ctx, userID, id, false)
}

func (s *TopicService) setPinned(ctx context.Context, userID, id string, pinned bool) (*entities.Topic, error) {
	_, owner, err := authz.ResolveOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.topics.SetPinned(ctx, owner, id, pinned)
}

// Delete removes the topic together with its messages and returns the
// deleted topic.
func (s *TopicService) Delete(ctx context.Context, userID, id string) (*entities.Topic, error) {
	_, owner, err := authz.ResolveOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	topic, err := s.topics.GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.coordinator.DeleteTopic(ctx, owner, id); err != nil {
		return nil, err
	}
	s.logger.Info("Topic deleted", zap.String("topicID", id), zap.String("userID", owner))
	return topic, nil
}
