package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urpagin/wallsync/internal/sdk"
)

func rec(id, digest string) *sdk.ImageRecord {
	return &sdk.ImageRecord{ID: id, Digest: digest, Size: 1}
}

func localSet(recs ...*sdk.ImageRecord) map[string]*sdk.ImageRecord {
	m := make(map[string]*sdk.ImageRecord, len(recs))
	for _, r := range recs {
		m[r.ID] = r
	}
	return m
}

func planIDs(recs []*sdk.ImageRecord) []string {
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestReconcile_FetchAndRemove(t *testing.T) {
	// catalog {a:d1, b:d2} vs local {b:d2, c:d3}
	catalog := []*sdk.ImageRecord{rec("a", "d1"), rec("b", "d2")}
	local := localSet(rec("b", "d2"), rec("c", "d3"))

	plan := Reconcile(catalog, local)

	assert.Equal(t, []string{"a"}, planIDs(plan.Fetch))
	assert.Equal(t, []string{"c"}, planIDs(plan.Remove))
}

func TestReconcile_NoActionWhenConverged(t *testing.T) {
	catalog := []*sdk.ImageRecord{rec("a", "d1"), rec("b", "d2")}
	local := localSet(rec("a", "d1"), rec("b", "d2"))

	plan := Reconcile(catalog, local)
	assert.True(t, plan.Empty())
}

func TestReconcile_DigestMismatchIsAFetch(t *testing.T) {
	catalog := []*sdk.ImageRecord{rec("a", "d-new")}
	local := localSet(rec("a", "d-old"))

	plan := Reconcile(catalog, local)
	require.Len(t, plan.Fetch, 1)
	assert.Equal(t, "a", plan.Fetch[0].ID)
	assert.Equal(t, "d-new", plan.Fetch[0].Digest)
	assert.Empty(t, plan.Remove)
}

func TestReconcile_EmptyLocal(t *testing.T) {
	catalog := []*sdk.ImageRecord{rec("a", "d1"), rec("b", "d2"), rec("c", "d3")}

	plan := Reconcile(catalog, localSet())
	assert.Equal(t, []string{"a", "b", "c"}, planIDs(plan.Fetch))
	assert.Empty(t, plan.Remove)
}

func TestReconcile_EmptyCatalog(t *testing.T) {
	local := localSet(rec("a", "d1"), rec("b", "d2"))

	plan := Reconcile(nil, local)
	assert.Empty(t, plan.Fetch)
	assert.Equal(t, []string{"a", "b"}, planIDs(plan.Remove))
}

func TestReconcile_DuplicateDigestsAreIndependent(t *testing.T) {
	// same content under two ids syncs as two records
	catalog := []*sdk.ImageRecord{rec("a", "d1"), rec("a2", "d1")}
	local := localSet(rec("a", "d1"))

	plan := Reconcile(catalog, local)
	assert.Equal(t, []string{"a2"}, planIDs(plan.Fetch))
	assert.Empty(t, plan.Remove)
}

func TestReconcile_IsDeterministic(t *testing.T) {
	catalog := []*sdk.ImageRecord{rec("z", "d1"), rec("m", "d2"), rec("a", "d3")}
	local := localSet(rec("q", "d4"), rec("b", "d5"))

	first := Reconcile(catalog, local)
	for i := 0; i < 10; i++ {
		again := Reconcile(catalog, local)
		assert.Equal(t, planIDs(first.Fetch), planIDs(again.Fetch))
		assert.Equal(t, planIDs(first.Remove), planIDs(again.Remove))
	}
}
