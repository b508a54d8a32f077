package commands

import (
	"bytes"
	"context"
	"testing"
	"time"

	"chatapi/application/cascade"
	"chatapi/application/repositories"
	"chatapi/domain/entities"
	"chatapi/infrastructure/di"
	"chatapi/infrastructure/messaging/eventbridge"
	"chatapi/infrastructure/persistence/memory"
	"chatapi/pkg/auth"
	"chatapi/pkg/observability"
	"chatapi/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	users  *repositories.UserRepository
	topics *repositories.TopicRepository
	tags   *repositories.TagRepository
}

// useMemoryContainer points the CLI at an in-memory store for one test.
func useMemoryContainer(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	clock := utils.NewStepClock(time.Unix(1_700_000_000, 0), time.Second)
	d := repositories.Deps{Store: memory.NewStore(), Clock: clock, IDs: utils.NewSequenceGenerator("id"), Logger: logger}

	f := &fixture{
		users:  repositories.NewUserRepository(d, auth.NewBcryptHasher(bcrypt.MinCost)),
		topics: repositories.NewTopicRepository(d),
		tags:   repositories.NewTagRepository(d),
	}
	coord := cascade.NewCoordinator(f.topics, repositories.NewMessageRepository(d), f.tags,
		repositories.NewCategoryRepository(d), eventbridge.NewPublisher(nil, "", logger),
		observability.NewMetrics("test", nil, logger), clock, logger)
	container := &di.Container{Logger: logger, Users: f.users, Coordinator: coord}

	previous := loadContainer
	loadContainer = func(ctx context.Context) (*di.Container, func(), error) {
		return container, func() {}, nil
	}
	t.Cleanup(func() { loadContainer = previous })
	return f
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootShowsHelp(t *testing.T) {
	out, err := run(t)
	require.NoError(t, err)
	assert.Contains(t, out, "repair-tags")
	assert.Contains(t, out, "create-admin")
}

func TestCreateAdmin(t *testing.T) {
	f := useMemoryContainer(t)

	out, err := run(t, "create-admin", "--email", "Root@Example.com", "--password", "rootpw")
	require.NoError(t, err)
	assert.Contains(t, out, "created administrator root@example.com")

	user, err := f.users.GetByEmail(context.Background(), "root@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, entities.RoleAdmin, user.Role)

	_, err = run(t, "create-admin", "--email", "root@example.com", "--password", "rootpw")
	assert.Error(t, err)
}

func TestCreateAdminValidatesFlags(t *testing.T) {
	useMemoryContainer(t)

	_, err := run(t, "create-admin", "--email", "not-an-email", "--password", "rootpw")
	assert.Error(t, err)

	_, err = run(t, "create-admin", "--password", "rootpw")
	assert.Error(t, err)
}

func TestRepairTags(t *testing.T) {
	f := useMemoryContainer(t)
	ctx := context.Background()

	tag, err := f.tags.Create(ctx, &entities.Tag{DisplayName: "go", UserID: "u1"})
	require.NoError(t, err)
	topic, err := f.topics.Create(ctx, &entities.Topic{UserID: "u1", Name: "t", TagIDs: []string{tag.ID, "id-999999"}})
	require.NoError(t, err)

	out, err := run(t, "repair-tags")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 1 dangling tag references")

	got, err := f.topics.GetByID(ctx, "u1", topic.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{tag.ID}, got.TagIDs)
}
