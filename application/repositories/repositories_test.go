package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"chatapi/domain/entities"
	"chatapi/infrastructure/persistence/memory"
	"chatapi/pkg/auth"
	apperrors "chatapi/pkg/errors"
	"chatapi/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newDeps(opts ...memory.Option) (Deps, *memory.Store) {
	store := memory.NewStore(opts...)
	return Deps{
		Store:  store,
		Clock:  utils.NewStepClock(time.Unix(1_700_000_000, 0), time.Second),
		IDs:    utils.NewSequenceGenerator("id"),
		Logger: zap.NewNop(),
	}, store
}

func ptr[T any](v T) *T { return &v }

func TestUserCreateLowercasesAndHashes(t *testing.T) {
	d, _ := newDeps()
	users := NewUserRepository(d, auth.NewBcryptHasher(bcrypt.MinCost))

	u, err := users.Create(context.Background(), NewUser{Email: "Ada@Example.com", Password: "secret"})
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, entities.RoleUser, u.Role)
	assert.NotEqual(t, "secret", u.PasswordHash)
	assert.Equal(t, u.CreatedAt, u.UpdatedAt)

	found, err := users.GetByEmail(context.Background(), "ADA@example.COM")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, u.ID, found.ID)
}

func TestUserEmailUniqueness(t *testing.T) {
	ctx := context.Background()
	d, _ := newDeps()
	users := NewUserRepository(d, auth.NewBcryptHasher(bcrypt.MinCost))

	var successes, duplicates int
	for _, email := range []string{"ada@example.com", "ADA@example.com"} {
		_, err := users.Create(ctx, NewUser{Email: email, Password: "secret"})
		switch {
		case err == nil:
			successes++
		case apperrors.IsDuplicate(err):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, duplicates)
}

func TestUserCreateValidatesInput(t *testing.T) {
	d, _ := newDeps()
	users := NewUserRepository(d, auth.NewBcryptHasher(bcrypt.MinCost))

	_, err := users.Create(context.Background(), NewUser{Email: "not-an-email", Password: "secret"})
	assert.True(t, apperrors.IsInvalidInput(err))

	_, err = users.Create(context.Background(), NewUser{Email: "a@b.co", Password: "123"})
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestUserUpdateEmailCollision(t *testing.T) {
	ctx := context.Background()
	d, _ := newDeps()
	users := NewUserRepository(d, auth.NewBcryptHasher(bcrypt.MinCost))

	a, err := users.Create(ctx, NewUser{Email: "a@example.com", Password: "secret"})
	require.NoError(t, err)
	_, err = users.Create(ctx, NewUser{Email: "b@example.com", Password: "secret"})
	require.NoError(t, err)

	_, err = users.Update(ctx, a.ID, entities.UserPatch{Email: ptr("B@example.com")})
	assert.True(t, apperrors.IsDuplicate(err))
	assert.Equal(t, CodeEmailTaken, apperrors.GetAppError(err).Code)

	updated, err := users.Update(ctx, a.ID, entities.UserPatch{Email: ptr("c@example.com"), Name: ptr("Ada")})
	require.NoError(t, err)
	assert.Greater(t, updated.UpdatedAt, a.UpdatedAt)

	old, err := users.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Nil(t, old, "old email index entry moves with the user")
}

func TestUserUpdateMissingIsNotFound(t *testing.T) {
	d, _ := newDeps()
	users := NewUserRepository(d, auth.NewBcryptHasher(bcrypt.MinCost))

	_, err := users.Update(context.Background(), "ghost", entities.UserPatch{Name: ptr("x")})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTopicTimestampsAndMerge(t *testing.T) {
	ctx := context.Background()
	d, _ := newDeps()
	topics := NewTopicRepository(d)

	created, err := topics.Create(ctx, &entities.Topic{UserID: "u1", Name: "Go", Description: "notes"})
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.Equal(t, created.CreatedAt, created.LastMessageAt)

	updated, err := topics.Update(ctx, "u1", created.ID, entities.TopicPatch{Name: ptr("Golang")})
	require.NoError(t, err)
	assert.Greater(t, updated.UpdatedAt, created.UpdatedAt)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "notes", updated.Description, "fields not in the patch survive")

	again, err := topics.Update(ctx, "u1", created.ID, entities.TopicPatch{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, again.UpdatedAt, updated.UpdatedAt)
}

func TestTopicRequiresOwner(t *testing.T) {
	d, _ := newDeps()
	_, err := NewTopicRepository(d).Create(context.Background(), &entities.Topic{Name: "orphan"})
	assert.True(t, apperrors.IsInvalidKey(err))
}

func TestTopicListByUserFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	d, _ := newDeps(memory.WithPageSize(2))
	topics := NewTopicRepository(d)

	var ids []string
	for i, name := range []string{"Go basics", "Rust", "go advanced", "Python"} {
		topic, err := topics.Create(ctx, &entities.Topic{UserID: "u1", Name: name})
		require.NoError(t, err)
		ids = append(ids, topic.ID)
		_, err = topics.Update(ctx, "u1", topic.ID, entities.TopicPatch{LastMessageAt: ptr(int64(100 - i))})
		require.NoError(t, err)
	}
	_, err := topics.Create(ctx, &entities.Topic{UserID: "u2", Name: "Go elsewhere"})
	require.NoError(t, err)
	_, err = topics.Update(ctx, "u1", ids[2], entities.TopicPatch{Pinned: ptr(true)})
	require.NoError(t, err)

	all, err := topics.ListByUser(ctx, "u1", TopicFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, ids[0], all[0].ID, "newest lastMessageAt first")

	asc, err := topics.ListByUser(ctx, "u1", TopicFilter{Ascending: true})
	require.NoError(t, err)
	assert.Equal(t, ids[3], asc[0].ID)

	gos, err := topics.ListByUser(ctx, "u1", TopicFilter{Search: "GO"})
	require.NoError(t, err)
	assert.Len(t, gos, 2)

	pinned, err := topics.ListByUser(ctx, "u1", TopicFilter{Pinned: ptr(true)})
	require.NoError(t, err)
	require.Len(t, pinned, 1)
	assert.Equal(t, ids[2], pinned[0].ID)
	assert.NotNil(t, pinned[0].PinnedAt)
}

func TestTopicListByTagAcrossOwners(t *testing.T) {
	ctx := context.Background()
	d, _ := newDeps(memory.WithPageSize(1))
	topics := NewTopicRepository(d)
	tag := entities.Tag{ID: "tag-1", DisplayName: "go"}

	t1, err := topics.Create(ctx, &entities.Topic{UserID: "u1", Name: "a", TagIDs: []string{"tag-1"}, Tags: []entities.Tag{tag}})
	require.NoError(t, err)
	t2, err := topics.Create(ctx, &entities.Topic{UserID: "u2", Name: "b", TagIDs: []string{"tag-1", "tag-2"}})
	require.NoError(t, err)
	_, err = topics.Create(ctx, &entities.Topic{UserID: "u1", Name: "c", TagIDs: []string{"tag-2"}})
	require.NoError(t, err)

	found, err := topics.ListByTag(ctx, "tag-1")
	require.NoError(t, err)

	var got []string
	for _, topic := range found {
		got = append(got, topic.ID)
	}
	assert.ElementsMatch(t, []string{t1.ID, t2.ID}, got)
}

func TestTopicRemoveAndReplaceTag(t *testing.T) {
	ctx := context.Background()
	d, _ := newDeps()
	topics := NewTopicRepository(d)
	topic, err := topics.Create(ctx, &entities.Topic{
		UserID: "u1", Name: "a",
		TagIDs: []string{"g1", "g2"},
		Tags:   []entities.Tag{{ID: "g1", DisplayName: "one"}, {ID: "g2", DisplayName: "two"}},
	})
	require.NoError(t, err)

	changed, err := topics.ReplaceTag(ctx, "u1", topic.ID, entities.Tag{ID: "g2", DisplayName: "TWO"})
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = topics.RemoveTag(ctx, "u1", topic.ID, "g1")
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := topics.GetByID(ctx, "u1", topic.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"g2"}, got.TagIDs)
	assert.Equal(t, "TWO", got.Tags[0].DisplayName)

	changed, err = topics.RemoveTag(ctx, "u1", "vanished", "g1")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestMessagePaginationTraversal(t *testing.T) {
	ctx := context.Background()
	d, _ := newDeps(memory.WithPageSize(3))
	messages := NewMessageRepository(d)

	for i := 0; i < 8; i++ {
		_, err := messages.Create(ctx, &entities.Message{TopicID: "t1", Role: entities.MessageRoleUser, Content: fmt.Sprint(i)})
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	var order []string
	cursor := ""
	for {
		page, err := messages.ListByTopic(ctx, "t1", cursor)
		require.NoError(t, err)
		for _, m := range page.Items {
			assert.False(t, seen[m.ID], "duplicate %s", m.ID)
			seen[m.ID] = true
			order = append(order, m.Content)
		}
		if page.NextToken == nil {
			break
		}
		cursor = *page.NextToken
	}

	assert.Equal(t, []string{"0", "1", "2", "3", "4", "5", "6", "7"}, order)
}

func TestMessageCreateWithClientID(t *testing.T) {
	ctx := context.Background()
	d, _ := newDeps()
	messages := NewMessageRepository(d)

	m, err := messages.Create(ctx, &entities.Message{ID: "client-1", TopicID: "t1", Role: entities.MessageRoleUser})
	require.NoError(t, err)
	assert.Equal(t, "client-1", m.ID)

	_, err = messages.Create(ctx, &entities.Message{ID: "client-1", TopicID: "t1", Role: entities.MessageRoleUser})
	assert.True(t, apperrors.IsDuplicate(err))
}

func TestMessageRejectsMalformedCursor(t *testing.T) {
	d, _ := newDeps()
	_, err := NewMessageRepository(d).ListByTopic(context.Background(), "t1", "MESSAGE#x")
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestTagListSearchAndCategory(t *testing.T) {
	ctx := context.Background()
	d, _ := newDeps()
	tags := NewTagRepository(d)

	_, err := tags.Create(ctx, &entities.Tag{DisplayName: "Golang", UserID: "u1", CategoryID: "c1"})
	require.NoError(t, err)
	_, err = tags.Create(ctx, &entities.Tag{DisplayName: "Rust", UserID: "u1", CategoryID: "c1"})
	require.NoError(t, err)
	_, err = tags.Create(ctx, &entities.Tag{DisplayName: "gopher", UserID: "u1"})
	require.NoError(t, err)

	page, err := tags.List(ctx, TagFilter{Search: "GO"}, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Nil(t, page.NextToken)

	inCategory, err := tags.ListByCategory(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, inCategory, 2)
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	d, _ := newDeps()
	categories := NewCategoryRepository(d)

	c, err := categories.Create(ctx, &entities.Category{Title: "Lang", UserID: "u1"})
	require.NoError(t, err)

	require.NoError(t, categories.Delete(ctx, c.ID))
	require.NoError(t, categories.Delete(ctx, c.ID))

	_, err = categories.GetByID(ctx, c.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPromptsArePartitionedByOwner(t *testing.T) {
	ctx := context.Background()
	d, _ := newDeps()
	prompts := NewPromptRepository(d)
	topics := NewTopicRepository(d)

	p, err := prompts.Create(ctx, &entities.Prompt{UserID: "u1", Title: "Summarize"})
	require.NoError(t, err)
	_, err = topics.Create(ctx, &entities.Topic{UserID: "u1", Name: "same partition"})
	require.NoError(t, err)

	page, err := prompts.ListByUser(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, p.ID, page.Items[0].ID)

	_, err = prompts.GetByID(ctx, "u2", p.ID)
	assert.True(t, apperrors.IsNotFound(err))
}
