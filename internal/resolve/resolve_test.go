package resolve

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/continuum-dev/continuum/internal/model"
	"github.com/continuum-dev/continuum/internal/resilience/cache"
)

type fakeStore struct {
	byExact    map[string]*model.Entity
	byAlias    map[string]*model.Entity
	candidates []*model.Entity
	created    []*model.Entity
	embedHit   *model.Entity
	embedScore float64
}

func newFakeStore() *fakeStore {
	return &fakeStore{byExact: map[string]*model.Entity{}, byAlias: map[string]*model.Entity{}}
}

func (s *fakeStore) FindByExactName(ctx context.Context, userID string, entityType model.EntityType, normalizedName string) (*model.Entity, error) {
	return s.byExact[normalizedName], nil
}

func (s *fakeStore) FindByAlias(ctx context.Context, userID string, entityType model.EntityType, mention string) (*model.Entity, error) {
	return s.byAlias[mention], nil
}

func (s *fakeStore) ListCandidates(ctx context.Context, userID string, entityType model.EntityType) ([]*model.Entity, error) {
	return s.candidates, nil
}

func (s *fakeStore) FindByEmbedding(ctx context.Context, userID string, entityType model.EntityType, vector []float32, threshold float64) (*model.Entity, float64, error) {
	return s.embedHit, s.embedScore, nil
}

func (s *fakeStore) CreateEntity(ctx context.Context, entity *model.Entity) error {
	s.created = append(s.created, entity)
	s.byExact[normalize(entity.Name)] = entity
	return nil
}

func newTestCache(t *testing.T) *cache.Tiered {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return cache.NewTiered(client, time.Minute, time.Minute)
}

func TestResolveStageExactMatch(t *testing.T) {
	store := newFakeStore()
	store.byExact["postgresql"] = &model.Entity{ID: "e1", Name: "PostgreSQL"}

	r := New(store, NewMapDictionary(), newTestCache(t), nil, DefaultConfig())
	res, err := r.Resolve(context.Background(), "user-1", "PostgreSQL", model.EntityTechnology)
	require.NoError(t, err)
	assert.Equal(t, StageExact, res.Stage)
	assert.Equal(t, "e1", res.EntityID)
}

func TestResolveStageAliasDictionary(t *testing.T) {
	store := newFakeStore()
	store.byExact["postgresql"] = &model.Entity{ID: "e1", Name: "PostgreSQL"}

	r := New(store, NewMapDictionary(), newTestCache(t), nil, DefaultConfig())
	res, err := r.Resolve(context.Background(), "user-1", "postgres", model.EntityTechnology)
	require.NoError(t, err)
	assert.Equal(t, StageAliasDictionary, res.Stage)
	assert.Equal(t, "e1", res.EntityID)
}

func TestResolveStageAliasField(t *testing.T) {
	store := newFakeStore()
	store.byAlias["the pg database"] = &model.Entity{ID: "e2", Name: "PostgreSQL"}

	r := New(store, NewMapDictionary(), newTestCache(t), nil, DefaultConfig())
	res, err := r.Resolve(context.Background(), "user-1", "the pg database", model.EntityTechnology)
	require.NoError(t, err)
	assert.Equal(t, StageAliasField, res.Stage)
	assert.Equal(t, "e2", res.EntityID)
}

func TestResolveStageFuzzy(t *testing.T) {
	store := newFakeStore()
	store.candidates = []*model.Entity{{ID: "e3", Name: "event-driven architecture"}}

	r := New(store, NewMapDictionary(), newTestCache(t), nil, DefaultConfig())
	res, err := r.Resolve(context.Background(), "user-1", "architecture event-driven", model.EntityPattern)
	require.NoError(t, err)
	assert.Equal(t, StageFuzzy, res.Stage)
	assert.Equal(t, "e3", res.EntityID)
}

func TestResolveStageCreatedWhenNoMatch(t *testing.T) {
	store := newFakeStore()

	r := New(store, NewMapDictionary(), newTestCache(t), nil, DefaultConfig())
	res, err := r.Resolve(context.Background(), "user-1", "Totally Novel Concept", model.EntityConcept)
	require.NoError(t, err)
	assert.Equal(t, StageCreated, res.Stage)
	require.Len(t, store.created, 1)
	assert.Equal(t, "Totally Novel Concept", store.created[0].Name)
}

func TestResolveIsIdempotentAcrossRepeatedCalls(t *testing.T) {
	store := newFakeStore()
	r := New(store, NewMapDictionary(), newTestCache(t), nil, DefaultConfig())

	ctx := context.Background()
	first, err := r.Resolve(ctx, "user-1", "Some New Thing", model.EntityConcept)
	require.NoError(t, err)

	second, err := r.Resolve(ctx, "user-1", "Some New Thing", model.EntityConcept)
	require.NoError(t, err)

	assert.Equal(t, first.EntityID, second.EntityID)
	assert.Len(t, store.created, 1, "second resolve should hit cache/exact-match rather than create again")
}

func TestTokenSortRatioIgnoresWordOrder(t *testing.T) {
	score := tokenSortRatio(normalize("database vector"), normalize("vector database"))
	assert.Equal(t, 1.0, score)
}

func TestTokenSortRatioPenalizesDifference(t *testing.T) {
	score := tokenSortRatio(normalize("postgresql"), normalize("completely different name"))
	assert.Less(t, score, 0.5)
}

func TestInvalidateRemovesCachedLookup(t *testing.T) {
	store := newFakeStore()
	store.byExact["postgresql"] = &model.Entity{ID: "e1", Name: "PostgreSQL"}

	r := New(store, NewMapDictionary(), newTestCache(t), nil, DefaultConfig())
	ctx := context.Background()

	_, err := r.Resolve(ctx, "user-1", "PostgreSQL", model.EntityTechnology)
	require.NoError(t, err)

	require.NoError(t, r.Invalidate(ctx, "user-1", model.EntityTechnology, "e1", "PostgreSQL", nil))

	delete(store.byExact, "postgresql")
	_, found := r.cacheLookup(ctx, cacheKey("user-1", "name", string(model.EntityTechnology)+":postgresql"))
	assert.False(t, found)
}
