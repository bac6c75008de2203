package sync

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/urpagin/wallsync/internal/sdk"
)

// Plan is the minimal set of operations that converges the local mirror to
// the remote catalog. Execution order of Fetch vs Remove does not affect
// the final state.
type Plan struct {
	Fetch  []*sdk.ImageRecord
	Remove []*sdk.ImageRecord
}

func (p *Plan) Empty() bool {
	return len(p.Fetch) == 0 && len(p.Remove) == 0
}

// Reconcile computes the pure set difference between the remote catalog and
// the local state. Records present on both sides with matching digests need
// no action; a digest mismatch under the same id counts as a fetch.
func Reconcile(catalog []*sdk.ImageRecord, local map[string]*sdk.ImageRecord) *Plan {
	plan := &Plan{}

	remoteIDs := mapset.NewThreadUnsafeSet[string]()
	for _, remote := range catalog {
		remoteIDs.Add(remote.ID)

		have, ok := local[remote.ID]
		if !ok || have.Digest != remote.Digest {
			plan.Fetch = append(plan.Fetch, remote)
		}
	}

	localIDs := mapset.NewThreadUnsafeSet[string]()
	for id := range local {
		localIDs.Add(id)
	}
	for id := range localIDs.Difference(remoteIDs).Iter() {
		plan.Remove = append(plan.Remove, local[id])
	}

	// set iteration order is random; keep plans deterministic
	sort.Slice(plan.Fetch, func(i, j int) bool { return plan.Fetch[i].ID < plan.Fetch[j].ID })
	sort.Slice(plan.Remove, func(i, j int) bool { return plan.Remove[i].ID < plan.Remove[j].ID })

	return plan
}
