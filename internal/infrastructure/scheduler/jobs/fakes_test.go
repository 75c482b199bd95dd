package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/michi-haensler/EcoTrack/internal/domain/leaderboard"
	"github.com/michi-haensler/EcoTrack/internal/domain/profile"
	"github.com/michi-haensler/EcoTrack/internal/domain/scoring"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// In-memory fakes for job tests. Same contracts as the persistence layer:
// version checks on profile updates, injectable one-shot failures.

type fakeProfileRepo struct {
	mu       sync.Mutex
	users    map[shared.EcoUserID]*profile.EcoUser
	updates  int
	failNext error
}

func newFakeProfileRepo(users ...*profile.EcoUser) *fakeProfileRepo {
	r := &fakeProfileRepo{users: make(map[shared.EcoUserID]*profile.EcoUser)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeProfileRepo) GetByID(_ context.Context, id shared.EcoUserID) (*profile.EcoUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeProfileRepo) GetByUserID(_ context.Context, userID shared.UserID) (*profile.EcoUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.UserID == userID {
			clone := *u
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProfileRepo) Create(_ context.Context, u *profile.EcoUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

func (r *fakeProfileRepo) Update(_ context.Context, u *profile.EcoUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	stored, ok := r.users[u.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != u.Version {
		return shared.ErrOptimisticLock
	}
	clone := *u
	clone.Version++
	r.users[u.ID] = &clone
	r.updates++
	return nil
}

func (r *fakeProfileRepo) ListByClass(_ context.Context, classID shared.ClassID, limit int) ([]*profile.EcoUser, error) {
	return nil, nil
}

func (r *fakeProfileRepo) ListTop(_ context.Context, limit int) ([]*profile.EcoUser, error) {
	return nil, nil
}

func (r *fakeProfileRepo) ListAll(_ context.Context) ([]*profile.EcoUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*profile.EcoUser
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeProfileRepo) stored(id shared.EcoUserID) *profile.EcoUser {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id]
}

// fakeLedgerRepo serves per-user sums straight from a map, which is all the
// reconciliation sweep reads.
type fakeLedgerRepo struct {
	mu   sync.Mutex
	sums map[shared.EcoUserID]int
}

func newFakeLedgerRepo(sums map[shared.EcoUserID]int) *fakeLedgerRepo {
	if sums == nil {
		sums = make(map[shared.EcoUserID]int)
	}
	return &fakeLedgerRepo{sums: sums}
}

func (r *fakeLedgerRepo) Append(_ context.Context, entry *scoring.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sums[entry.EcoUserID] += entry.Points.Int()
	return nil
}

func (r *fakeLedgerRepo) ListByUser(_ context.Context, _ shared.EcoUserID, _ int) ([]*scoring.LedgerEntry, error) {
	return nil, nil
}

func (r *fakeLedgerRepo) SumByUser(_ context.Context, id shared.EcoUserID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sums[id], nil
}

func (r *fakeLedgerRepo) SumsByUser(_ context.Context) (map[shared.EcoUserID]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[shared.EcoUserID]int, len(r.sums))
	for id, sum := range r.sums {
		out[id] = sum
	}
	return out, nil
}

type storedBoard struct {
	entries  []leaderboard.Entry
	complete bool
	ttl      time.Duration
}

type fakeBoardCache struct {
	mu     sync.Mutex
	boards map[leaderboard.Scope]storedBoard
}

func newFakeBoardCache() *fakeBoardCache {
	return &fakeBoardCache{boards: make(map[leaderboard.Scope]storedBoard)}
}

func (c *fakeBoardCache) GetTop(_ context.Context, scope leaderboard.Scope, limit int) ([]leaderboard.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	board, ok := c.boards[scope]
	if !ok {
		return nil, nil
	}
	if len(board.entries) < limit && !board.complete {
		return nil, nil
	}
	entries := board.entries
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

func (c *fakeBoardCache) SetTop(_ context.Context, scope leaderboard.Scope, entries []leaderboard.Entry, complete bool, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.boards[scope] = storedBoard{entries: entries, complete: complete, ttl: ttl}
	return nil
}

func (c *fakeBoardCache) Invalidate(_ context.Context, scope leaderboard.Scope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.boards, scope)
	return nil
}

func (c *fakeBoardCache) board(scope leaderboard.Scope) (storedBoard, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.boards[scope]
	return b, ok
}
