package taxonomy_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository/memory"
	"github.com/fastygo/taskboard/usecase/taxonomy"
)

type MockTaxonomyRepository struct {
	mock.Mock
}

func (m *MockTaxonomyRepository) FindByName(ctx context.Context, kind domain.TaxonomyKind, name string) (*domain.TaxonomyItem, error) {
	args := m.Called(ctx, kind, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaxonomyItem), args.Error(1)
}

func (m *MockTaxonomyRepository) Insert(ctx context.Context, item *domain.TaxonomyItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockTaxonomyRepository) List(ctx context.Context, kind domain.TaxonomyKind, limit int) ([]domain.TaxonomyItem, error) {
	args := m.Called(ctx, kind, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TaxonomyItem), args.Error(1)
}

func TestFindOrCreateConvergesUnderConcurrency(t *testing.T) {
	uc := taxonomy.New(memory.NewTaxonomyRepository(), nil)

	const callers = 32
	ids := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			item, err := uc.FindOrCreate(context.Background(), domain.KindTag, "urgent")
			errs[i] = err
			if item != nil {
				ids[i] = item.ID
			}
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	items, err := uc.List(context.Background(), domain.KindTag)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestFindOrCreateReReadsAfterLosingRace(t *testing.T) {
	ctx := context.Background()
	repo := new(MockTaxonomyRepository)
	winner := &domain.TaxonomyItem{ID: "winner", Kind: domain.KindCategory, Name: "home", Provisioned: true}

	repo.On("FindByName", ctx, domain.KindCategory, "home").Return(nil, domain.ErrTaxonomyNotFound).Once()
	repo.On("Insert", ctx, mock.AnythingOfType("*domain.TaxonomyItem")).Return(domain.ErrDuplicateName).Once()
	repo.On("FindByName", ctx, domain.KindCategory, "home").Return(winner, nil).Once()

	item, err := taxonomy.New(repo, nil).FindOrCreate(ctx, domain.KindCategory, "home")
	require.NoError(t, err)
	assert.Equal(t, "winner", item.ID)
	repo.AssertExpectations(t)
}

func TestFindOrCreateGivesUpAfterRepeatedConflicts(t *testing.T) {
	ctx := context.Background()
	repo := new(MockTaxonomyRepository)

	repo.On("FindByName", ctx, domain.KindTag, "x").Return(nil, domain.ErrTaxonomyNotFound)
	repo.On("Insert", ctx, mock.AnythingOfType("*domain.TaxonomyItem")).Return(domain.ErrDuplicateName)

	_, err := taxonomy.New(repo, nil).FindOrCreate(ctx, domain.KindTag, "x")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInternal))
	repo.AssertNumberOfCalls(t, "Insert", 3)
}

func TestFindOrCreatePropagatesStoreErrors(t *testing.T) {
	ctx := context.Background()
	repo := new(MockTaxonomyRepository)
	boom := errors.New("connection reset")

	repo.On("FindByName", ctx, domain.KindTag, "x").Return(nil, boom)

	_, err := taxonomy.New(repo, nil).FindOrCreate(ctx, domain.KindTag, "x")
	assert.ErrorIs(t, err, boom)
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestCreateAllowsDuplicateNames(t *testing.T) {
	ctx := context.Background()
	uc := taxonomy.New(memory.NewTaxonomyRepository(), nil)

	first, err := uc.Create(ctx, domain.KindCategory, "work")
	require.NoError(t, err)
	second, err := uc.Create(ctx, domain.KindCategory, "work")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	// find-or-create resolves to the oldest match instead of adding a third
	found, err := uc.FindOrCreate(ctx, domain.KindCategory, "work")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	items, err := uc.List(ctx, domain.KindCategory)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestFindOrCreateRejectsEmptyName(t *testing.T) {
	_, err := taxonomy.New(memory.NewTaxonomyRepository(), nil).FindOrCreate(context.Background(), domain.KindTag, "")
	assert.ErrorIs(t, err, domain.ErrEmptyName)
}
