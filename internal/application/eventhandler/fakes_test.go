package eventhandler

import (
	"context"
	"sync"

	"github.com/michi-haensler/EcoTrack/internal/domain/challenge"
	"github.com/michi-haensler/EcoTrack/internal/domain/profile"
	"github.com/michi-haensler/EcoTrack/internal/domain/scoring"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// In-memory repository fakes for handler tests. They mimic the persistence
// contracts closely enough to exercise the retry paths: version checks on
// update, unique-insert races on participations, injectable one-shot errors.

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
	clone.Milestones = make(map[shared.MilestoneID]struct{}, len(u.Milestones))
	for id := range u.Milestones {
		clone.Milestones[id] = struct{}{}
	}
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
	for _, existing := range r.users {
		if existing.UserID == u.UserID {
			return shared.ErrAlreadyExists
		}
	}
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

type fakeMilestoneRepo struct {
	milestones []*profile.Milestone
}

func (r *fakeMilestoneRepo) GetByID(_ context.Context, id shared.MilestoneID) (*profile.Milestone, error) {
	for _, m := range r.milestones {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeMilestoneRepo) ListReachable(_ context.Context, totalPoints int64) ([]*profile.Milestone, error) {
	var out []*profile.Milestone
	for _, m := range r.milestones {
		if m.RequiredPoints <= totalPoints {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMilestoneRepo) ListAll(_ context.Context) ([]*profile.Milestone, error) {
	return r.milestones, nil
}

func (r *fakeMilestoneRepo) Save(_ context.Context, m *profile.Milestone) error {
	r.milestones = append(r.milestones, m)
	return nil
}

type participationKey struct {
	challengeID shared.ChallengeID
	ecoUserID   shared.EcoUserID
}

type fakeChallengeRepo struct {
	mu             sync.Mutex
	challenges     map[shared.ChallengeID]*challenge.Challenge
	participations map[participationKey]*challenge.Participation
	failSaveNext   error
}

func newFakeChallengeRepo(challenges ...*challenge.Challenge) *fakeChallengeRepo {
	r := &fakeChallengeRepo{
		challenges:     make(map[shared.ChallengeID]*challenge.Challenge),
		participations: make(map[participationKey]*challenge.Participation),
	}
	for _, c := range challenges {
		r.challenges[c.ID] = c
	}
	return r
}

func (r *fakeChallengeRepo) GetByID(_ context.Context, id shared.ChallengeID) (*challenge.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.challenges[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (r *fakeChallengeRepo) Save(_ context.Context, c *challenge.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.challenges[c.ID] = c
	return nil
}

func (r *fakeChallengeRepo) ListByClass(_ context.Context, classID shared.ClassID) ([]*challenge.Challenge, error) {
	return nil, nil
}

func (r *fakeChallengeRepo) ListActiveByClass(_ context.Context, classID shared.ClassID) ([]*challenge.Challenge, error) {
	return nil, nil
}

func (r *fakeChallengeRepo) GetParticipation(_ context.Context, challengeID shared.ChallengeID, ecoUserID shared.EcoUserID) (*challenge.Participation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participations[participationKey{challengeID, ecoUserID}]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *fakeChallengeRepo) ListParticipations(_ context.Context, challengeID shared.ChallengeID) ([]*challenge.Participation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*challenge.Participation
	for key, p := range r.participations {
		if key.challengeID == challengeID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeChallengeRepo) SaveParticipation(_ context.Context, p *challenge.Participation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSaveNext != nil {
		err := r.failSaveNext
		r.failSaveNext = nil
		return err
	}
	key := participationKey{p.ChallengeID, p.EcoUserID}
	stored, ok := r.participations[key]
	if ok && stored.ID != p.ID {
		return shared.ErrAlreadyExists
	}
	if ok && stored.Version != p.Version {
		return shared.ErrOptimisticLock
	}
	clone := *p
	clone.Version++
	r.participations[key] = &clone
	return nil
}

func (r *fakeChallengeRepo) participation(challengeID shared.ChallengeID, ecoUserID shared.EcoUserID) *challenge.Participation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.participations[participationKey{challengeID, ecoUserID}]
}

type fakeActivityRepo struct {
	entries map[shared.ActivityID]*scoring.ActivityEntry
}

func newFakeActivityRepo(entries ...*scoring.ActivityEntry) *fakeActivityRepo {
	r := &fakeActivityRepo{entries: make(map[shared.ActivityID]*scoring.ActivityEntry)}
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return r
}

func (r *fakeActivityRepo) SaveWithLedger(_ context.Context, entry *scoring.ActivityEntry, _ *scoring.LedgerEntry) error {
	r.entries[entry.ID] = entry
	return nil
}

func (r *fakeActivityRepo) GetEntry(_ context.Context, id shared.ActivityID) (*scoring.ActivityEntry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return e, nil
}

func (r *fakeActivityRepo) ListByUser(_ context.Context, ecoUserID shared.EcoUserID, from, to shared.Date) ([]*scoring.ActivityEntry, error) {
	return nil, nil
}

func (r *fakeActivityRepo) ListRecent(_ context.Context, ecoUserID shared.EcoUserID, limit int) ([]*scoring.ActivityEntry, error) {
	return nil, nil
}

type fakeLedgerRepo struct {
	entries   []*scoring.LedgerEntry
	appendErr error
}

func (r *fakeLedgerRepo) Append(_ context.Context, entry *scoring.LedgerEntry) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeLedgerRepo) ListByUser(_ context.Context, ecoUserID shared.EcoUserID, limit int) ([]*scoring.LedgerEntry, error) {
	return nil, nil
}

func (r *fakeLedgerRepo) SumByUser(_ context.Context, ecoUserID shared.EcoUserID) (int, error) {
	sum := 0
	for _, e := range r.entries {
		if e.EcoUserID == ecoUserID {
			sum += e.Points.Int()
		}
	}
	return sum, nil
}

func (r *fakeLedgerRepo) SumsByUser(_ context.Context) (map[shared.EcoUserID]int, error) {
	sums := make(map[shared.EcoUserID]int)
	for _, e := range r.entries {
		sums[e.EcoUserID] += e.Points.Int()
	}
	return sums, nil
}

type fakePublisher struct {
	events []shared.Event
}

func (p *fakePublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}
