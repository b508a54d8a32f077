package cascade

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"chatapi/application/repositories"
	"chatapi/domain/entities"
	"chatapi/domain/events"
	"chatapi/infrastructure/persistence/memory"
	apperrors "chatapi/pkg/errors"
	"chatapi/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) PublishBatch(ctx context.Context, es []events.DomainEvent) error {
	for _, e := range es {
		_ = p.Publish(ctx, e)
	}
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.GetEventType())
	}
	return out
}

type countingMetrics struct {
	mu       sync.Mutex
	failures []string
}

func (m *countingMetrics) RecordLatency(context.Context, string, time.Duration) {}
func (m *countingMetrics) RecordError(context.Context, string, string)          {}
func (m *countingMetrics) RecordCascadeFailure(_ context.Context, cascade, step string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, cascade+":"+step)
}

type fixture struct {
	store      *memory.Store
	topics     *repositories.TopicRepository
	messages   *repositories.MessageRepository
	tags       *repositories.TagRepository
	categories *repositories.CategoryRepository
	publisher  *recordingPublisher
	metrics    *countingMetrics
	coord      *Coordinator
}

func newFixture() *fixture {
	store := memory.NewStore(memory.WithPageSize(2))
	clock := utils.NewStepClock(time.Unix(1_700_000_000, 0), time.Second)
	d := repositories.Deps{Store: store, Clock: clock, IDs: utils.NewSequenceGenerator("id"), Logger: zap.NewNop()}
	f := &fixture{
		store:      store,
		topics:     repositories.NewTopicRepository(d),
		messages:   repositories.NewMessageRepository(d),
		tags:       repositories.NewTagRepository(d),
		categories: repositories.NewCategoryRepository(d),
		publisher:  &recordingPublisher{},
		metrics:    &countingMetrics{},
	}
	f.coord = NewCoordinator(f.topics, f.messages, f.tags, f.categories, f.publisher, f.metrics, clock, zap.NewNop())
	return f
}

func (f *fixture) tag(t *testing.T, name, categoryID string) *entities.Tag {
	t.Helper()
	tag, err := f.tags.Create(context.Background(), &entities.Tag{DisplayName: name, CategoryID: categoryID, UserID: "u1"})
	require.NoError(t, err)
	return tag
}

func (f *fixture) topic(t *testing.T, owner string, tags ...*entities.Tag) *entities.Topic {
	t.Helper()
	topic := &entities.Topic{UserID: owner, Name: "topic", TagIDs: []string{}, Tags: []entities.Tag{}}
	for _, tag := range tags {
		topic.TagIDs = append(topic.TagIDs, tag.ID)
		topic.Tags = append(topic.Tags, *tag)
	}
	created, err := f.topics.Create(context.Background(), topic)
	require.NoError(t, err)
	return created
}

func TestDeleteTagDetachesOnlyReferencingTopics(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	doomed := f.tag(t, "doomed", "")
	kept := f.tag(t, "kept", "")
	t1 := f.topic(t, "u1", doomed, kept)
	t2 := f.topic(t, "u2", kept)

	report, err := f.coord.DeleteTag(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, report.State)

	got1, err := f.topics.GetByID(ctx, "u1", t1.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{kept.ID}, got1.TagIDs)
	require.Len(t, got1.Tags, 1)
	assert.Equal(t, kept.ID, got1.Tags[0].ID)

	got2, err := f.topics.GetByID(ctx, "u2", t2.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{kept.ID}, got2.TagIDs)
	assert.Equal(t, t2.UpdatedAt, got2.UpdatedAt, "unrelated topic is untouched")

	_, err = f.tags.GetByID(ctx, doomed.ID)
	assert.True(t, apperrors.IsNotFound(err))

	require.NotEmpty(t, report.Completed)
	assert.Equal(t, "delete tag "+doomed.ID, report.Completed[len(report.Completed)-1])
	assert.Contains(t, f.publisher.types(), events.TypeTagDeleted)
}

func TestDeleteCategoryDeletesTagsFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	category, err := f.categories.Create(ctx, &entities.Category{Title: "Lang", UserID: "u1"})
	require.NoError(t, err)
	goTag := f.tag(t, "go", category.ID)
	rustTag := f.tag(t, "rust", category.ID)
	other := f.tag(t, "other", "")
	topic := f.topic(t, "u1", goTag, other, rustTag)

	report, err := f.coord.DeleteCategory(ctx, category.ID)
	require.NoError(t, err)

	for _, id := range []string{goTag.ID, rustTag.ID} {
		_, err := f.tags.GetByID(ctx, id)
		assert.True(t, apperrors.IsNotFound(err))
	}
	_, err = f.categories.GetByID(ctx, category.ID)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = f.tags.GetByID(ctx, other.ID)
	assert.NoError(t, err)

	got, err := f.topics.GetByID(ctx, "u1", topic.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{other.ID}, got.TagIDs)

	completed := report.Completed
	assert.Equal(t, "delete category "+category.ID, completed[len(completed)-1])
	assert.Contains(t, completed, "delete tag "+goTag.ID)
	assert.Contains(t, completed, "delete tag "+rustTag.ID)
}

func TestDeleteTagStopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	tag := f.tag(t, "doomed", "")
	first := f.topic(t, "u1", tag)
	second := f.topic(t, "u1", tag)

	boom := errors.New("throttled")
	f.store.FailOn(memory.OpPut, "TOPIC#"+second.ID, boom)

	report, err := f.coord.DeleteTag(ctx, tag.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, report.State)
	assert.Equal(t, "detach tag "+tag.ID+" from topic "+second.ID, report.Failed)

	_, err = f.tags.GetByID(ctx, tag.ID)
	assert.NoError(t, err, "tag survives a partial cascade")

	got, err := f.topics.GetByID(ctx, "u1", first.ID)
	require.NoError(t, err)
	assert.Empty(t, got.TagIDs, "steps before the failure stay applied")

	assert.Equal(t, []string{DeleteTagCascade + ":" + report.Failed}, f.metrics.failures)
	assert.Contains(t, f.publisher.types(), events.TypeCascadeStepFailed)
	assert.NotContains(t, f.publisher.types(), events.TypeTagDeleted)
}

func TestRefreshTagReplacesSnapshots(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	tag := f.tag(t, "old", "")
	topic := f.topic(t, "u1", tag)

	renamed := *tag
	renamed.DisplayName = "new"
	_, err := f.coord.RefreshTag(ctx, renamed)
	require.NoError(t, err)

	got, err := f.topics.GetByID(ctx, "u1", topic.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "new", got.Tags[0].DisplayName)
}

func TestDeleteTopicRemovesMessages(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	topic := f.topic(t, "u1")
	for i := 0; i < 5; i++ {
		_, err := f.messages.Create(ctx, &entities.Message{TopicID: topic.ID, Role: entities.MessageRoleUser})
		require.NoError(t, err)
	}

	_, err := f.coord.DeleteTopic(ctx, "u1", topic.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, f.store.Len())
}

func TestRepairDanglingTags(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	live := f.tag(t, "live", "")
	gone := f.tag(t, "gone", "")
	topic := f.topic(t, "u1", live, gone)
	require.NoError(t, f.tags.Delete(ctx, gone.ID))

	_, removed, err := f.coord.RepairDanglingTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	got, err := f.topics.GetByID(ctx, "u1", topic.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{live.ID}, got.TagIDs)
}
