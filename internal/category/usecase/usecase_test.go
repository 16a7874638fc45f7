package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/catalog-service/internal/apperr"
	"github.com/fekuna/catalog-service/internal/category/dto"
	"github.com/fekuna/catalog-service/internal/model"
	"github.com/fekuna/catalog-service/pkg/logger"
)

type fakeCache struct {
	entries  map[string][]byte
	deleted  []string
	patterns []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = raw
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.entries, k)
		f.deleted = append(f.deleted, k)
	}
	return nil
}

func (f *fakeCache) DeleteByPattern(ctx context.Context, pattern string) error {
	f.patterns = append(f.patterns, pattern)
	return nil
}

// fakeRepo replays the storage-side update contract: the parent-chain walk
// happens at commit time against the current committed state, serialized with
// other writers, never against what a caller validated earlier.
type fakeRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.Category
	barrier *sync.WaitGroup // when set, Update waits for all writers to arrive
}

func (f *fakeRepo) FindAll(ctx context.Context, isActive *bool) ([]model.CategoryWithChildCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.CategoryWithChildCount{}
	for _, c := range f.byID {
		if isActive != nil && c.IsActive != *isActive {
			continue
		}
		out = append(out, model.CategoryWithChildCount{Category: *c})
	}
	return out, nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id string) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (f *fakeRepo) Create(ctx context.Context, c *model.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *c
	f.byID[c.ID] = &stored
	return nil
}

func (f *fakeRepo) Update(ctx context.Context, c *model.Category) error {
	if f.barrier != nil {
		f.barrier.Done()
		f.barrier.Wait()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if c.ParentID != nil {
		cur := *c.ParentID
		for {
			if cur == c.ID {
				return apperr.Validation("ParentCategoryId", "Setting this parent would create a cycle")
			}
			p, ok := f.byID[cur]
			if !ok || p.ParentID == nil {
				break
			}
			cur = *p.ParentID
		}
	}

	stored := *c
	f.byID[c.ID] = &stored
	return nil
}

func strPtr(s string) *string { return &s }

// Tree fixture: root -> mid -> leaf.
func newFixture() (*fakeRepo, *fakeCache, *categoryUseCase) {
	repo := &fakeRepo{byID: map[string]*model.Category{
		"root": {BaseModel: model.BaseModel{ID: "root", Version: 1}, Name: "Root", IsActive: true},
		"mid":  {BaseModel: model.BaseModel{ID: "mid", Version: 1}, Name: "Mid", ParentID: strPtr("root"), IsActive: true},
		"leaf": {BaseModel: model.BaseModel{ID: "leaf", Version: 1}, Name: "Leaf", ParentID: strPtr("mid"), IsActive: true},
	}}
	store := newFakeCache()
	uc := NewCategoryUseCase(repo, store, logger.NewNop(), Config{}).(*categoryUseCase)
	return repo, store, uc
}

func TestUpdateCategory_RejectsSelfParent(t *testing.T) {
	_, _, uc := newFixture()

	_, err := uc.UpdateCategory(context.Background(), "root", &dto.UpdateCategoryInput{
		Name:             "Root",
		ParentCategoryID: strPtr("root"),
	})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, "ParentCategoryId", apperr.FieldsOf(err)[0].Field)
}

func TestUpdateCategory_RejectsCycle(t *testing.T) {
	_, _, uc := newFixture()

	// Reparenting root under leaf would close the chain root -> mid -> leaf -> root.
	_, err := uc.UpdateCategory(context.Background(), "root", &dto.UpdateCategoryInput{
		Name:             "Root",
		ParentCategoryID: strPtr("leaf"),
	})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Contains(t, apperr.FieldsOf(err)[0].Message, "cycle")
}

func TestUpdateCategory_ConcurrentReparentCannotCloseCycle(t *testing.T) {
	repo := &fakeRepo{byID: map[string]*model.Category{
		"a": {BaseModel: model.BaseModel{ID: "a", Version: 1}, Name: "A", IsActive: true},
		"b": {BaseModel: model.BaseModel{ID: "b", Version: 1}, Name: "B", IsActive: true},
	}}
	uc := NewCategoryUseCase(repo, newFakeCache(), logger.NewNop(), Config{}).(*categoryUseCase)

	// Hold both writes until each has passed its pre-write validation, then
	// release them together so the two reparents race at the storage layer.
	var barrier sync.WaitGroup
	barrier.Add(2)
	repo.barrier = &barrier

	reparent := func(id, parent string) error {
		_, err := uc.UpdateCategory(context.Background(), id, &dto.UpdateCategoryInput{
			Name:             id,
			ParentCategoryID: strPtr(parent),
			IsActive:         true,
		})
		return err
	}

	errs := make(chan error, 2)
	go func() { errs <- reparent("a", "b") }()
	go func() { errs <- reparent("b", "a") }()

	var failures []error
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			failures = append(failures, err)
		}
	}

	require.Len(t, failures, 1, "exactly one of the two reparents must be rejected")
	kind := apperr.KindOf(failures[0])
	assert.True(t, kind == apperr.KindValidation || kind == apperr.KindConcurrency,
		"loser must fail with Validation or Concurrency, got %v", kind)

	aParent, bParent := repo.byID["a"].ParentID, repo.byID["b"].ParentID
	assert.False(t, aParent != nil && bParent != nil && *aParent == "b" && *bParent == "a",
		"parent pointers must not form a two-node cycle")
}

func TestUpdateCategory_AllowsValidReparent(t *testing.T) {
	repo, store, uc := newFixture()

	d, err := uc.UpdateCategory(context.Background(), "leaf", &dto.UpdateCategoryInput{
		Name:             "Leaf",
		ParentCategoryID: strPtr("root"),
		IsActive:         true,
	})
	require.NoError(t, err)
	assert.Equal(t, "root", *d.ParentCategoryID)
	assert.Equal(t, "root", *repo.byID["leaf"].ParentID)

	assert.Contains(t, store.deleted, "category:leaf")
	assert.Contains(t, store.patterns, "categories:all:*")
}

func TestUpdateCategory_UnknownParentRejected(t *testing.T) {
	_, _, uc := newFixture()

	_, err := uc.UpdateCategory(context.Background(), "leaf", &dto.UpdateCategoryInput{
		Name:             "Leaf",
		ParentCategoryID: strPtr("ghost"),
	})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestCreateCategory_InvalidatesListCaches(t *testing.T) {
	repo, store, uc := newFixture()

	d, err := uc.CreateCategory(context.Background(), &dto.CreateCategoryInput{
		Name:             "New",
		ParentCategoryID: strPtr("root"),
		IsActive:         true,
	})
	require.NoError(t, err)
	require.NotNil(t, repo.byID[d.ID])
	assert.Equal(t, "Root", *d.ParentCategoryName)
	assert.Contains(t, store.patterns, "categories:all:*")
}

func TestGetCategoryByID_NotFound(t *testing.T) {
	_, _, uc := newFixture()

	_, err := uc.GetCategoryByID(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
	assert.Equal(t, []apperr.FieldError{{Field: "CategoryId", Message: "Category not found"}}, apperr.FieldsOf(err))
}

func TestListCategories_TriStateCacheKeys(t *testing.T) {
	_, store, uc := newFixture()

	_, err := uc.ListCategories(context.Background(), nil)
	require.NoError(t, err)

	active := true
	_, err = uc.ListCategories(context.Background(), &active)
	require.NoError(t, err)

	assert.Contains(t, store.entries, "categories:all:null")
	assert.Contains(t, store.entries, "categories:all:true")
}
