package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(aggregateID, eventType string, ts time.Time) BaseEvent {
	return BaseEvent{AggregateID: aggregateID, EventType: eventType, Timestamp: ts, Version: 1}
}

// Event type names.
const (
	TypeUserRegistered    = "user.registered"
	TypeTopicDeleted      = "topic.deleted"
	TypeMessagesTruncated = "message.truncated"
	TypeTagDeleted        = "tag.deleted"
	TypeTagUpdated        = "tag.updated"
	TypeCategoryDeleted   = "category.deleted"
	TypeCascadeStepFailed = "cascade.step_failed"
)

// UserRegistered is raised when an account is created.
type UserRegistered struct {
	BaseEvent
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func NewUserRegistered(userID, email string, ts time.Time) UserRegistered {
	return UserRegistered{BaseEvent: newBase(userID, TypeUserRegistered, ts), UserID: userID, Email: email}
}

// TopicDeleted is raised after a topic and its messages are removed.
type TopicDeleted struct {
	BaseEvent
	TopicID         string `json:"topic_id"`
	OwnerID         string `json:"owner_id"`
	MessagesDeleted int    `json:"messages_deleted"`
}

func NewTopicDeleted(topicID, ownerID string, messages int, ts time.Time) TopicDeleted {
	return TopicDeleted{
		BaseEvent:       newBase(topicID, TypeTopicDeleted, ts),
		TopicID:         topicID,
		OwnerID:         ownerID,
		MessagesDeleted: messages,
	}
}

// MessagesTruncated is raised when editing a user message removed the
// conversation that followed it.
type MessagesTruncated struct {
	BaseEvent
	TopicID       string   `json:"topic_id"`
	EditedID      string   `json:"edited_id"`
	DeletedIDs    []string `json:"deleted_ids"`
	TriggeredByID string   `json:"triggered_by_id"`
}

func NewMessagesTruncated(topicID, editedID string, deleted []string, userID string, ts time.Time) MessagesTruncated {
	return MessagesTruncated{
		BaseEvent:     newBase(topicID, TypeMessagesTruncated, ts),
		TopicID:       topicID,
		EditedID:      editedID,
		DeletedIDs:    deleted,
		TriggeredByID: userID,
	}
}

// TagDeleted is raised once a tag is gone and detached from its topics.
type TagDeleted struct {
	BaseEvent
	TagID          string `json:"tag_id"`
	TopicsDetached int    `json:"topics_detached"`
}

func NewTagDeleted(tagID string, topics int, ts time.Time) TagDeleted {
	return TagDeleted{BaseEvent: newBase(tagID, TypeTagDeleted, ts), TagID: tagID, TopicsDetached: topics}
}

// TagUpdated is raised once a tag change reached its topics.
type TagUpdated struct {
	BaseEvent
	TagID           string `json:"tag_id"`
	TopicsRefreshed int    `json:"topics_refreshed"`
}

func NewTagUpdated(tagID string, topics int, ts time.Time) TagUpdated {
	return TagUpdated{BaseEvent: newBase(tagID, TypeTagUpdated, ts), TagID: tagID, TopicsRefreshed: topics}
}

// CategoryDeleted is raised once a category and its tags are gone.
type CategoryDeleted struct {
	BaseEvent
	CategoryID  string `json:"category_id"`
	TagsDeleted int    `json:"tags_deleted"`
}

func NewCategoryDeleted(categoryID string, tags int, ts time.Time) CategoryDeleted {
	return CategoryDeleted{BaseEvent: newBase(categoryID, TypeCategoryDeleted, ts), CategoryID: categoryID, TagsDeleted: tags}
}

// CascadeStepFailed records a cascade that stopped partway. Recovery tooling
// consumes it to find entities left stale.
type CascadeStepFailed struct {
	BaseEvent
	Cascade   string   `json:"cascade"`
	Step      string   `json:"step"`
	EntityID  string   `json:"entity_id"`
	Completed []string `json:"completed"`
	Error     string   `json:"error"`
}

func NewCascadeStepFailed(cascade, step, entityID string, completed []string, cause error, ts time.Time) CascadeStepFailed {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return CascadeStepFailed{
		BaseEvent: newBase(entityID, TypeCascadeStepFailed, ts),
		Cascade:   cascade,
		Step:      step,
		EntityID:  entityID,
		Completed: completed,
		Error:     msg,
	}
}
