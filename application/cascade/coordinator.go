package cascade

import (
	"context"
	"fmt"

	"chatapi/application/ports"
	"chatapi/application/repositories"
	"chatapi/domain/entities"
	"chatapi/domain/events"
	apperrors "chatapi/pkg/errors"

	"go.uber.org/zap"
)

// Cascade names, used in logs, metrics and failure events.
const (
	DeleteTagCascade      = "delete_tag"
	RefreshTagCascade     = "refresh_tag"
	DeleteCategoryCascade = "delete_category"
	DeleteTopicCascade    = "delete_topic"
)

// Coordinator runs the cross-document cascades.
type Coordinator struct {
	topics     *repositories.TopicRepository
	messages   *repositories.MessageRepository
	tags       *repositories.TagRepository
	categories *repositories.CategoryRepository
	publisher  ports.EventPublisher
	metrics    ports.Metrics
	clock      ports.Clock
	logger     *zap.Logger
}

func NewCoordinator(
	topics *repositories.TopicRepository,
	messages *repositories.MessageRepository,
	tags *repositories.TagRepository,
	categories *repositories.CategoryRepository,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	clock ports.Clock,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		topics:     topics,
		messages:   messages,
		tags:       tags,
		categories: categories,
		publisher:  publisher,
		metrics:    metrics,
		clock:      clock,
		logger:     logger,
	}
}

func (c *Coordinator) newPlan(name, entityID string) *Plan {
	return &Plan{
		name:      name,
		entityID:  entityID,
		logger:    c.logger,
		metrics:   c.metrics,
		publisher: c.publisher,
		clock:     c.clock,
	}
}

func (c *Coordinator) publish(ctx context.Context, event events.DomainEvent) {
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.Warn("Failed to publish event",
			zap.String("eventType", event.GetEventType()),
			zap.String("aggregateId", event.GetAggregateID()),
			zap.Error(err),
		)
	}
}

// tagDeletionSteps detaches tagID from every topic referencing it, then
// deletes the tag. Topics go first so no topic is left pointing at a
// missing tag; a failure midway leaves the tag alive and some topics
// already detached.
func (c *Coordinator) tagDeletionSteps(tagID string, detached *int) []Step {
	return []Step{
		{
			Name: "find topics referencing tag " + tagID,
			Run: func(ctx context.Context) ([]Step, error) {
				topics, err := c.topics.ListByTag(ctx, tagID)
				if err != nil {
					return nil, err
				}
				steps := make([]Step, 0, len(topics))
				for _, topic := range topics {
					topic := topic
					steps = append(steps, Step{
						Name: fmt.Sprintf("detach tag %s from topic %s", tagID, topic.ID),
						Run: func(ctx context.Context) ([]Step, error) {
							changed, err := c.topics.RemoveTag(ctx, topic.UserID, topic.ID, tagID)
							if changed {
								*detached++
							}
							return nil, err
						},
					})
				}
				return steps, nil
			},
		},
		{
			Name: "delete tag " + tagID,
			Run: func(ctx context.Context) ([]Step, error) {
				return nil, c.tags.Delete(ctx, tagID)
			},
		},
	}
}

// DeleteTag removes tagID from every topic and then deletes the tag.
func (c *Coordinator) DeleteTag(ctx context.Context, tagID string) (Report, error) {
	detached := 0
	plan := c.newPlan(DeleteTagCascade, tagID)
	for _, step := range c.tagDeletionSteps(tagID, &detached) {
		plan.AddExpanding(step.Name, step.Run)
	}

	report, err := plan.Execute(ctx)
	if err != nil {
		return report, err
	}
	c.publish(ctx, events.NewTagDeleted(tagID, detached, c.clock.Now()))
	return report, nil
}

// RefreshTag replaces the stale snapshot of tag in every topic
// referencing it.
func (c *Coordinator) RefreshTag(ctx context.Context, tag entities.Tag) (Report, error) {
	refreshed := 0
	plan := c.newPlan(RefreshTagCascade, tag.ID)
	plan.AddExpanding("find topics referencing tag "+tag.ID, func(ctx context.Context) ([]Step, error) {
		topics, err := c.topics.ListByTag(ctx, tag.ID)
		if err != nil {
			return nil, err
		}
		steps := make([]Step, 0, len(topics))
		for _, topic := range topics {
			topic := topic
			steps = append(steps, Step{
				Name: fmt.Sprintf("refresh tag %s in topic %s", tag.ID, topic.ID),
				Run: func(ctx context.Context) ([]Step, error) {
					changed, err := c.topics.ReplaceTag(ctx, topic.UserID, topic.ID, tag)
					if changed {
						refreshed++
					}
					return nil, err
				},
			})
		}
		return steps, nil
	})

	report, err := plan.Execute(ctx)
	if err != nil {
		return report, err
	}
	c.publish(ctx, events.NewTagUpdated(tag.ID, refreshed, c.clock.Now()))
	return report, nil
}

// DeleteCategory runs the tag deletion cascade for every tag in the
// category, then deletes the category. A failure midway leaves some tags
// alive under a live category, never a tag pointing at a missing one.
func (c *Coordinator) DeleteCategory(ctx context.Context, categoryID string) (Report, error) {
	tagsDeleted := 0
	detached := 0
	plan := c.newPlan(DeleteCategoryCascade, categoryID)
	plan.AddExpanding("find tags in category "+categoryID, func(ctx context.Context) ([]Step, error) {
		tags, err := c.tags.ListByCategory(ctx, categoryID)
		if err != nil {
			return nil, err
		}
		var steps []Step
		for _, tag := range tags {
			steps = append(steps, c.tagDeletionSteps(tag.ID, &detached)...)
		}
		tagsDeleted = len(tags)
		return steps, nil
	})
	plan.Add("delete category "+categoryID, func(ctx context.Context) error {
		return c.categories.Delete(ctx, categoryID)
	})

	report, err := plan.Execute(ctx)
	if err != nil {
		return report, err
	}
	c.publish(ctx, events.NewCategoryDeleted(categoryID, tagsDeleted, c.clock.Now()))
	return report, nil
}

// DeleteTopic removes every message of the topic and then the topic.
func (c *Coordinator) DeleteTopic(ctx context.Context, ownerID, topicID string) (Report, error) {
	var messageIDs []string
	plan := c.newPlan(DeleteTopicCascade, topicID)
	plan.Add("list messages of topic "+topicID, func(ctx context.Context) error {
		messages, err := c.messages.ListAllByTopic(ctx, topicID)
		if err != nil {
			return err
		}
		for _, m := range messages {
			messageIDs = append(messageIDs, m.ID)
		}
		return nil
	})
	plan.Add("delete messages of topic "+topicID, func(ctx context.Context) error {
		return c.messages.DeleteBatch(ctx, topicID, messageIDs)
	})
	plan.Add("delete topic "+topicID, func(ctx context.Context) error {
		return c.topics.Delete(ctx, ownerID, topicID)
	})

	report, err := plan.Execute(ctx)
	if err != nil {
		return report, err
	}
	c.publish(ctx, events.NewTopicDeleted(topicID, ownerID, len(messageIDs), c.clock.Now()))
	return report, nil
}

// RepairCascade names the recovery plan run by chatctl.
const RepairCascade = "repair_tags"

// RepairDanglingTags scans every topic and detaches tag ids whose tag no
// longer exists, such as a topic tagged while the tag was being deleted.
// It returns the number of references removed.
func (c *Coordinator) RepairDanglingTags(ctx context.Context) (Report, int, error) {
	removed := 0
	known := map[string]bool{}
	plan := c.newPlan(RepairCascade, "*")
	plan.AddExpanding("scan topics", func(ctx context.Context) ([]Step, error) {
		topics, err := c.topics.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		var steps []Step
		for _, topic := range topics {
			for _, tagID := range topic.TagIDs {
				exists, seen := known[tagID]
				if !seen {
					_, err := c.tags.GetByID(ctx, tagID)
					switch {
					case err == nil:
						exists = true
					case apperrors.IsNotFound(err), apperrors.IsInvalidKey(err):
						exists = false
					default:
						return nil, err
					}
					known[tagID] = exists
				}
				if exists {
					continue
				}
				topic, tagID := topic, tagID
				steps = append(steps, Step{
					Name: fmt.Sprintf("detach missing tag %s from topic %s", tagID, topic.ID),
					Run: func(ctx context.Context) ([]Step, error) {
						changed, err := c.topics.RemoveTag(ctx, topic.UserID, topic.ID, tagID)
						if changed {
							removed++
						}
						return nil, err
					},
				})
			}
		}
		return steps, nil
	})

	report, err := plan.Execute(ctx)
	return report, removed, err
}
