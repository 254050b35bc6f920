package friends

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chatsync/internal/common"
)

// Policy decides how an asymmetric pair is repaired.
type Policy string

const (
	// PolicyComplete finishes the accept: the missing reverse is inserted or
	// the pending side flipped to accepted.
	PolicyComplete Policy = "complete"
	// PolicyRollback undoes the half-applied accept.
	PolicyRollback Policy = "rollback"
)

func ParsePolicy(s string) Policy {
	if Policy(strings.ToLower(strings.TrimSpace(s))) == PolicyRollback {
		return PolicyRollback
	}
	return PolicyComplete
}

type asymmetryKind int

const (
	// an accepted edge whose reverse does not exist
	missingReverse asymmetryKind = iota
	// a pending edge whose reverse is already accepted
	pendingAgainstAccepted
)

type asymmetry struct {
	kind    asymmetryKind
	edge    common.FriendshipEdge
	reverse common.FriendshipEdge
}

func (a asymmetry) key() string {
	if a.kind == missingReverse {
		return "missing:" + a.edge.ID
	}
	return "pending:" + a.edge.ID
}

// reconciler repairs pairs left asymmetric by a half-applied accept once the
// asymmetry has outlived the grace period. Both endpoints may repair the same
// pair; every repair tolerates the other side having done it first.
type reconciler struct {
	store  common.FriendshipStore
	policy Policy
	grace  time.Duration
	log    zerolog.Logger
	now    func() time.Time

	running   sync.Mutex
	firstSeen map[string]time.Time
}

func newReconciler(store common.FriendshipStore, policy Policy, grace time.Duration, log zerolog.Logger) *reconciler {
	if policy == "" {
		policy = PolicyComplete
	}
	return &reconciler{
		store:     store,
		policy:    policy,
		grace:     grace,
		log:       log,
		now:       time.Now,
		firstSeen: make(map[string]time.Time),
	}
}

// detect finds the asymmetric pairs among the edges touching self.
func detect(edges []common.FriendshipEdge) []asymmetry {
	byPair := make(map[[2]string]common.FriendshipEdge, len(edges))
	for _, e := range edges {
		byPair[[2]string{e.UserID, e.FriendID}] = e
	}

	var found []asymmetry
	for _, e := range edges {
		reverse, ok := byPair[[2]string{e.FriendID, e.UserID}]
		switch {
		case e.Status == common.StatusAccepted && !ok:
			found = append(found, asymmetry{kind: missingReverse, edge: e})
		case e.Status == common.StatusPending && ok && reverse.Status == common.StatusAccepted:
			found = append(found, asymmetry{kind: pendingAgainstAccepted, edge: e, reverse: reverse})
		}
	}
	return found
}

// run repairs every asymmetry that is past its grace period and returns the
// number repaired. A pass already in progress makes run a no-op.
func (r *reconciler) run(ctx context.Context, edges []common.FriendshipEdge) int {
	if !r.running.TryLock() {
		return 0
	}
	defer r.running.Unlock()

	now := r.now()
	found := detect(edges)
	live := make(map[string]struct{}, len(found))
	repaired := 0

	for _, a := range found {
		key := a.key()
		live[key] = struct{}{}
		seen, ok := r.firstSeen[key]
		if !ok {
			r.firstSeen[key] = now
			seen = now
		}
		if now.Sub(seen) < r.grace {
			continue
		}

		if err := r.repair(ctx, a); err != nil {
			r.log.Warn().Err(err).Str("edge_id", a.edge.ID).Str("policy", string(r.policy)).Msg("Failed to reconcile friendship")
			continue
		}
		delete(r.firstSeen, key)
		repaired++
		r.log.Info().Str("edge_id", a.edge.ID).Str("policy", string(r.policy)).Msg("Reconciled asymmetric friendship")
	}

	for key := range r.firstSeen {
		if _, ok := live[key]; !ok {
			delete(r.firstSeen, key)
		}
	}
	return repaired
}

func (r *reconciler) repair(ctx context.Context, a asymmetry) error {
	switch {
	case a.kind == missingReverse && r.policy == PolicyComplete:
		err := r.store.InsertEdge(ctx, &common.FriendshipEdge{
			UserID:   a.edge.FriendID,
			FriendID: a.edge.UserID,
			Status:   common.StatusAccepted,
		})
		if errors.Is(err, common.ErrDuplicate) {
			return nil
		}
		return err
	case a.kind == missingReverse:
		return ignoreNotFound(r.store.UpdateEdgeStatus(ctx, a.edge.ID, common.StatusPending))
	case r.policy == PolicyComplete:
		return ignoreNotFound(r.store.UpdateEdgeStatus(ctx, a.edge.ID, common.StatusAccepted))
	default:
		return ignoreNotFound(r.store.DeleteEdge(ctx, a.reverse.ID))
	}
}

func ignoreNotFound(err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	return err
}
