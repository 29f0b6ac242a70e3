package analyze

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDict struct {
	added map[string]string
}

func newFakeDict() *fakeDict { return &fakeDict{added: make(map[string]string)} }

func (d *fakeDict) Add(alias, canonical string) {
	if _, ok := d.added[alias]; ok {
		return
	}
	d.added[alias] = canonical
}

func TestTokenSortRatioIgnoresWordOrder(t *testing.T) {
	assert.Equal(t, 1.0, tokenSortRatio("vector database", "database vector"))
}

func TestTokenSortRatioIdenticalStrings(t *testing.T) {
	assert.Equal(t, 1.0, tokenSortRatio("postgresql", "postgresql"))
}

func TestRefreshKnownAliasesAddsCuratedEntries(t *testing.T) {
	dict := newFakeDict()
	u := NewOntologyUpdater(nil, dict, nil)
	added := u.RefreshKnownAliases()
	require.Greater(t, added, 0)
	assert.Equal(t, "pillow", dict.added["pil"])
	assert.Equal(t, "scikit-learn", dict.added["sklearn"])
}

type fakeOntologyStore struct {
	counts map[string]int
}

func (s *fakeOntologyStore) EntityNameCounts(ctx context.Context, userID string) (map[string]int, error) {
	return s.counts, nil
}

func TestMineGraphVariantsAliasesLessFrequentSpelling(t *testing.T) {
	dict := newFakeDict()
	store := &fakeOntologyStore{counts: map[string]int{
		"kubernetes": 40,
		"kubernetis": 6, // single-char typo variant, still above the occurrence floor
	}}
	u := NewOntologyUpdater(nil, dict, store)

	added, err := u.MineGraphVariants(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Positive(t, added)
	assert.Equal(t, "kubernetes", dict.added["kubernetis"])
}

func TestMineGraphVariantsSkipsBelowOccurrenceFloor(t *testing.T) {
	dict := newFakeDict()
	store := &fakeOntologyStore{counts: map[string]int{
		"kubernetes": 40,
		"kubernetis": 2,
	}}
	u := NewOntologyUpdater(nil, dict, store)

	added, err := u.MineGraphVariants(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, added)
}
