package postgres_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fastygo/taskboard/domain"
	pgInfra "github.com/fastygo/taskboard/internal/infrastructure/postgres"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/repository/postgres"
	taxonomyUC "github.com/fastygo/taskboard/usecase/taxonomy"
)

// PostgresSuite runs the repositories against a real PostgreSQL container.
type PostgresSuite struct {
	suite.Suite
	ctx       context.Context
	container testcontainers.Container
	pool      *pgxpool.Pool

	tasks    repository.TaskRepository
	taxonomy repository.TaxonomyRepository
	activity repository.ActivityRepository
	users    repository.UserRepository
}

func TestPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "taskboard",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		s.T().Skipf("docker unavailable: %v", err)
	}
	s.container = container

	host, err := container.Host(s.ctx)
	s.Require().NoError(err)
	port, err := container.MappedPort(s.ctx, "5432")
	s.Require().NoError(err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/taskboard?sslmode=disable", host, port.Port())
	s.Require().NoError(pgInfra.MigrateUp(dsn, "../../migrations", nil))

	s.pool, err = pgxpool.New(s.ctx, dsn)
	s.Require().NoError(err)

	s.tasks = postgres.NewTaskRepository(s.pool)
	s.taxonomy = postgres.NewTaxonomyRepository(s.pool)
	s.activity = postgres.NewActivityRepository(s.pool)
	s.users = postgres.NewUserRepository(s.pool)
}

func (s *PostgresSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, `TRUNCATE tasks, taxonomy, activity_log, users`)
	s.Require().NoError(err)
}

func (s *PostgresSuite) createTask(owner string, fields domain.TaskFields) *domain.Task {
	fields.Normalize(time.Now().UTC())
	created, err := s.tasks.Create(s.ctx, &domain.Task{OwnerID: owner, TaskFields: fields})
	s.Require().NoError(err)
	return created
}

func (s *PostgresSuite) TestTaskRoundTrip() {
	category := "cat-1"
	created := s.createTask("alice", domain.TaskFields{
		Title:      "Buy milk",
		Priority:   domain.PriorityHigh,
		CategoryID: &category,
		Tags:       []string{"t1", "t2"},
	})

	got, err := s.tasks.GetOwned(s.ctx, created.ID, "alice")
	s.Require().NoError(err)
	s.Equal("Buy milk", got.Title)
	s.Equal(domain.PriorityHigh, got.Priority)
	s.Equal(domain.StatusIncomplete, got.Status)
	s.Equal([]string{"t1", "t2"}, got.Tags)
	s.Require().NotNil(got.CategoryID)
	s.Equal(category, *got.CategoryID)

	_, err = s.tasks.GetOwned(s.ctx, created.ID, "bob")
	s.ErrorIs(err, domain.ErrTaskNotFound)

	s.ErrorIs(s.tasks.Delete(s.ctx, created.ID, "bob"), domain.ErrTaskNotFound)
	s.NoError(s.tasks.Delete(s.ctx, created.ID, "alice"))
	_, err = s.tasks.GetByID(s.ctx, created.ID)
	s.ErrorIs(err, domain.ErrTaskNotFound)
}

func (s *PostgresSuite) TestListFiltersAndSearch() {
	milk := s.createTask("alice", domain.TaskFields{Title: "Buy MILK"})
	s.createTask("alice", domain.TaskFields{Title: "100% done", Status: domain.StatusCompleted})
	s.createTask("bob", domain.TaskFields{Title: "milk"})

	tasks, err := s.tasks.List(s.ctx, repository.TaskFilter{OwnerID: "alice", Search: "milk"})
	s.Require().NoError(err)
	s.Require().Len(tasks, 1)
	s.Equal(milk.ID, tasks[0].ID)

	// % is matched literally
	tasks, err = s.tasks.List(s.ctx, repository.TaskFilter{OwnerID: "alice", Search: "0%"})
	s.Require().NoError(err)
	s.Len(tasks, 1)

	tasks, err = s.tasks.List(s.ctx, repository.TaskFilter{OwnerID: "alice", Status: domain.StatusCompleted})
	s.Require().NoError(err)
	s.Len(tasks, 1)

	tasks, err = s.tasks.List(s.ctx, repository.TaskFilter{OwnerID: "alice", Limit: 1, Offset: 1})
	s.Require().NoError(err)
	s.Len(tasks, 1)
}

func (s *PostgresSuite) TestAddTagOnce() {
	created := s.createTask("alice", domain.TaskFields{})

	added, err := s.tasks.AddTag(s.ctx, created.ID, "urgent")
	s.Require().NoError(err)
	s.True(added)

	added, err = s.tasks.AddTag(s.ctx, created.ID, "urgent")
	s.Require().NoError(err)
	s.False(added)

	_, err = s.tasks.AddTag(s.ctx, "missing", "urgent")
	s.ErrorIs(err, domain.ErrTaskNotFound)
}

func (s *PostgresSuite) TestReminders() {
	now := time.Now().UTC()
	due := s.createTask("alice", domain.TaskFields{})
	later := s.createTask("bob", domain.TaskFields{})
	s.Require().NoError(s.tasks.SetReminder(s.ctx, due.ID, "alice", now.Add(-time.Minute)))
	s.Require().NoError(s.tasks.SetReminder(s.ctx, later.ID, "bob", now.Add(time.Hour)))

	tasks, err := s.tasks.ListDueReminders(s.ctx, now, 10)
	s.Require().NoError(err)
	s.Require().Len(tasks, 1)
	s.Equal(due.ID, tasks[0].ID)

	s.Require().NoError(s.tasks.ClearReminder(s.ctx, due.ID))
	tasks, err = s.tasks.ListDueReminders(s.ctx, now, 10)
	s.Require().NoError(err)
	s.Empty(tasks)
}

func (s *PostgresSuite) TestFindOrCreateConverges() {
	uc := taxonomyUC.New(s.taxonomy, nil)

	const callers = 16
	ids := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			item, err := uc.FindOrCreate(s.ctx, domain.KindCategory, "Work")
			if err == nil {
				ids[i] = item.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		s.Equal(ids[0], id)
	}
	s.NotEmpty(ids[0])

	_, err := uc.Create(s.ctx, domain.KindCategory, "Work")
	s.Require().NoError(err)
	items, err := uc.List(s.ctx, domain.KindCategory)
	s.Require().NoError(err)
	s.Len(items, 2)
}

func (s *PostgresSuite) TestActivityAppendIsIdempotent() {
	entry := &domain.ActivityEntry{
		ID:        "entry-1",
		TaskID:    "task-1",
		UserID:    "alice",
		Action:    domain.ActionUpdated,
		Timestamp: time.Now().UTC(),
		Details:   map[string]interface{}{"priority": "High"},
	}
	s.Require().NoError(s.activity.Append(s.ctx, entry))
	s.Require().NoError(s.activity.Append(s.ctx, entry))

	entries, err := s.activity.ListForTask(s.ctx, "task-1", "alice", 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("High", entries[0].Details["priority"])
}

func (s *PostgresSuite) TestActivityUndecodableDetails() {
	_, err := s.pool.Exec(s.ctx, `
	INSERT INTO activity_log (id, task_id, user_id, action, details)
	VALUES ('entry-bad', 'task-1', 'alice', 'updated', '[1, 2]'::jsonb)
	`)
	s.Require().NoError(err)

	_, err = s.activity.ListForTask(s.ctx, "task-1", "alice", 10)
	s.Require().Error(err)
	s.Contains(err.Error(), "decode activity details entry-bad")
}

func (s *PostgresSuite) TestUserEmailUnique() {
	user := &domain.User{ID: "u1", Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	s.Require().NoError(s.users.Create(s.ctx, user))

	dup := &domain.User{ID: "u2", Username: "other", Email: "alice@example.com", PasswordHash: "x"}
	err := s.users.Create(s.ctx, dup)
	require.ErrorIs(s.T(), err, domain.ErrEmailTaken)
}
