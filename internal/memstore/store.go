package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"chatsync/internal/common"
)

type storedEdge struct {
	edge common.FriendshipEdge
	seq  uint64
}

// Store keeps messages, friendship edges and users in process memory. It
// enforces the same constraints as the SQL schema: one edge per ordered pair,
// no self-edges, unique emails. It does not implement common.AtomicAcceptor.
type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	nextID   int64
	seq      uint64
	messages []common.Message
	edges    map[string]*storedEdge // edgeID -> edge
	pairs    map[[2]string]string   // (user, friend) -> edgeID
	users    map[string]common.User // userID -> user
	byEmail  map[string]string      // email -> userID
}

func New() *Store {
	return &Store{
		now:     time.Now,
		edges:   make(map[string]*storedEdge),
		pairs:   make(map[[2]string]string),
		users:   make(map[string]common.User),
		byEmail: make(map[string]string),
	}
}

// SetClock replaces the time source used for default timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Conversation(ctx context.Context, selfID, peerID string, limit int) ([]common.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []common.Message
	for _, m := range s.messages {
		if m.Between(selfID, peerID) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *Store) InsertMessage(ctx context.Context, msg *common.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	msg.ID = s.nextID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now().UTC()
	}
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *Store) EdgeByID(ctx context.Context, id string) (*common.FriendshipEdge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	se, ok := s.edges[id]
	if !ok {
		return nil, fmt.Errorf("edge %s: %w", id, common.ErrNotFound)
	}
	e := se.edge
	return &e, nil
}

func (s *Store) IncomingPending(ctx context.Context, userID string) ([]common.FriendshipEdge, error) {
	return s.selectEdges(ctx, func(e common.FriendshipEdge) bool {
		return e.FriendID == userID && e.Status == common.StatusPending
	})
}

func (s *Store) AcceptedFrom(ctx context.Context, userID string) ([]common.FriendshipEdge, error) {
	return s.selectEdges(ctx, func(e common.FriendshipEdge) bool {
		return e.UserID == userID && e.Status == common.StatusAccepted
	})
}

func (s *Store) Between(ctx context.Context, a, b string) ([]common.FriendshipEdge, error) {
	return s.selectEdges(ctx, func(e common.FriendshipEdge) bool {
		return (e.UserID == a && e.FriendID == b) || (e.UserID == b && e.FriendID == a)
	})
}

func (s *Store) Touching(ctx context.Context, userID string) ([]common.FriendshipEdge, error) {
	return s.selectEdges(ctx, func(e common.FriendshipEdge) bool {
		return e.UserID == userID || e.FriendID == userID
	})
}

func (s *Store) InsertEdge(ctx context.Context, edge *common.FriendshipEdge) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if edge.UserID == edge.FriendID {
		return common.ErrSelfEdge
	}
	if !edge.Status.IsValid() {
		return fmt.Errorf("invalid status %q", edge.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]string{edge.UserID, edge.FriendID}
	if _, exists := s.pairs[key]; exists {
		return fmt.Errorf("edge %s -> %s: %w", edge.UserID, edge.FriendID, common.ErrDuplicate)
	}
	if edge.ID == "" {
		edge.ID = uuid.NewString()
	}
	if _, exists := s.edges[edge.ID]; exists {
		return fmt.Errorf("edge %s: %w", edge.ID, common.ErrDuplicate)
	}
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = s.now().UTC()
	}

	s.seq++
	s.edges[edge.ID] = &storedEdge{edge: *edge, seq: s.seq}
	s.pairs[key] = edge.ID
	return nil
}

func (s *Store) UpdateEdgeStatus(ctx context.Context, id string, status common.FriendshipStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !status.IsValid() {
		return fmt.Errorf("invalid status %q", status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	se, ok := s.edges[id]
	if !ok {
		return fmt.Errorf("edge %s: %w", id, common.ErrNotFound)
	}
	se.edge.Status = status
	return nil
}

func (s *Store) DeleteEdge(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	se, ok := s.edges[id]
	if !ok {
		return fmt.Errorf("edge %s: %w", id, common.ErrNotFound)
	}
	delete(s.pairs, [2]string{se.edge.UserID, se.edge.FriendID})
	delete(s.edges, id)
	return nil
}

// selectEdges returns matching edges in insertion order.
func (s *Store) selectEdges(ctx context.Context, keep func(common.FriendshipEdge) bool) ([]common.FriendshipEdge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*storedEdge
	for _, se := range s.edges {
		if keep(se.edge) {
			matched = append(matched, se)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })

	out := make([]common.FriendshipEdge, 0, len(matched))
	for _, se := range matched {
		out = append(out, se.edge)
	}
	return out, nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*common.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, common.ErrNotFound)
	}
	return &u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*common.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[common.NormalizeEmail(email)]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, common.ErrNotFound)
	}
	u := s.users[id]
	return &u, nil
}

func (s *Store) UsersByIDs(ctx context.Context, ids []string) ([]common.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]common.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) ListUsers(ctx context.Context, excludeID string) ([]common.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]common.User, 0, len(s.users))
	for id, u := range s.users {
		if id != excludeID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, user *common.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Email = common.NormalizeEmail(user.Email)
	if _, exists := s.byEmail[user.Email]; exists {
		return fmt.Errorf("user %s: %w", user.Email, common.ErrDuplicate)
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if _, exists := s.users[user.ID]; exists {
		return fmt.Errorf("user %s: %w", user.ID, common.ErrDuplicate)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now().UTC()
	}
	s.users[user.ID] = *user
	s.byEmail[user.Email] = user.ID
	return nil
}
