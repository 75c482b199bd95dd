package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michi-haensler/EcoTrack/internal/domain/scoring"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// ─── fakes ──────────────────────────────────────────────────────────────────

type fakeActionRepo struct {
	actions map[shared.ActionID]*scoring.ActionDefinition
}

func newFakeActionRepo(actions ...*scoring.ActionDefinition) *fakeActionRepo {
	r := &fakeActionRepo{actions: make(map[shared.ActionID]*scoring.ActionDefinition)}
	for _, a := range actions {
		r.actions[a.ID] = a
	}
	return r
}

func (r *fakeActionRepo) GetByID(_ context.Context, id shared.ActionID) (*scoring.ActionDefinition, error) {
	a, ok := r.actions[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return a, nil
}

func (r *fakeActionRepo) ListActive(context.Context) ([]*scoring.ActionDefinition, error) {
	var out []*scoring.ActionDefinition
	for _, a := range r.actions {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeActionRepo) ListByCategory(_ context.Context, category scoring.Category) ([]*scoring.ActionDefinition, error) {
	var out []*scoring.ActionDefinition
	for _, a := range r.actions {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeActionRepo) Save(_ context.Context, a *scoring.ActionDefinition) error {
	r.actions[a.ID] = a
	return nil
}

type savedPair struct {
	entry  *scoring.ActivityEntry
	ledger *scoring.LedgerEntry
}

type fakeActivityRepo struct {
	saved   []savedPair
	saveErr error
}

func (r *fakeActivityRepo) SaveWithLedger(_ context.Context, entry *scoring.ActivityEntry, ledger *scoring.LedgerEntry) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, savedPair{entry: entry, ledger: ledger})
	return nil
}

func (r *fakeActivityRepo) GetEntry(_ context.Context, id shared.ActivityID) (*scoring.ActivityEntry, error) {
	for _, p := range r.saved {
		if p.entry.ID == id {
			return p.entry, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeActivityRepo) ListByUser(_ context.Context, ecoUserID shared.EcoUserID, from, to shared.Date) ([]*scoring.ActivityEntry, error) {
	var out []*scoring.ActivityEntry
	for _, p := range r.saved {
		if p.entry.EcoUserID == ecoUserID {
			out = append(out, p.entry)
		}
	}
	return out, nil
}

func (r *fakeActivityRepo) ListRecent(_ context.Context, ecoUserID shared.EcoUserID, limit int) ([]*scoring.ActivityEntry, error) {
	return r.ListByUser(context.Background(), ecoUserID, shared.Date{}, shared.Date{})
}

type fakePublisher struct {
	events     []shared.Event
	publishErr error
}

func (p *fakePublisher) Publish(event shared.Event) error {
	if p.publishErr != nil {
		return p.publishErr
	}
	p.events = append(p.events, event)
	return nil
}

// ─── tests ──────────────────────────────────────────────────────────────────

func newCyclingAction(t *testing.T) *scoring.ActionDefinition {
	t.Helper()
	action, err := scoring.NewActionDefinition("Cycling to school", "", scoring.CategoryMobility, scoring.UnitKilometers, 10)
	require.NoError(t, err)
	return action
}

func TestLogActivity_PersistsEntryAndLedgerAtomically(t *testing.T) {
	action := newCyclingAction(t)
	activityRepo := &fakeActivityRepo{}
	publisher := &fakePublisher{}
	handler := NewLogActivityHandler(newFakeActionRepo(action), activityRepo, publisher, nil)

	view, err := handler.Handle(context.Background(), LogActivityCommand{
		EcoUserID:    "user-1",
		ActionID:     action.ID,
		Quantity:     5,
		ActivityDate: shared.NewDate(2026, 3, 10),
		Source:       scoring.SourceApp,
	})
	require.NoError(t, err)
	require.NotNil(t, view)

	assert.Equal(t, 50, view.Points)
	assert.Equal(t, action.Name, view.ActionName)

	require.Len(t, activityRepo.saved, 1)
	pair := activityRepo.saved[0]
	assert.Equal(t, pair.entry.ID, view.ID)
	assert.Equal(t, pair.entry.Points, pair.ledger.Points.Int())
	assert.Equal(t, scoring.TransactionActivityLogged, pair.ledger.TransactionType)
	assert.Equal(t, pair.entry.ID.String(), pair.ledger.ReferenceID)
}

func TestLogActivity_PublishesAfterCommit(t *testing.T) {
	action := newCyclingAction(t)
	publisher := &fakePublisher{}
	handler := NewLogActivityHandler(newFakeActionRepo(action), &fakeActivityRepo{}, publisher, nil)

	view, err := handler.Handle(context.Background(), LogActivityCommand{
		EcoUserID: "user-1",
		ActionID:  action.ID,
		Quantity:  2,
	})
	require.NoError(t, err)

	require.Len(t, publisher.events, 1)
	e, ok := publisher.events[0].(shared.ActivityLoggedEvent)
	require.True(t, ok)
	assert.Equal(t, view.ID, e.ActivityID)
	assert.Equal(t, view.Points, e.Points)
}

func TestLogActivity_NoEventWhenSaveFails(t *testing.T) {
	action := newCyclingAction(t)
	activityRepo := &fakeActivityRepo{saveErr: errors.New("connection lost")}
	publisher := &fakePublisher{}
	handler := NewLogActivityHandler(newFakeActionRepo(action), activityRepo, publisher, nil)

	_, err := handler.Handle(context.Background(), LogActivityCommand{
		EcoUserID: "user-1",
		ActionID:  action.ID,
		Quantity:  2,
	})
	require.Error(t, err)
	assert.Empty(t, publisher.events)
}

func TestLogActivity_PublishFailureDoesNotFailCommand(t *testing.T) {
	action := newCyclingAction(t)
	publisher := &fakePublisher{publishErr: errors.New("bus closed")}
	handler := NewLogActivityHandler(newFakeActionRepo(action), &fakeActivityRepo{}, publisher, nil)

	view, err := handler.Handle(context.Background(), LogActivityCommand{
		EcoUserID: "user-1",
		ActionID:  action.ID,
		Quantity:  2,
	})
	require.NoError(t, err)
	assert.NotNil(t, view)
}

func TestLogActivity_DefaultsDateAndSource(t *testing.T) {
	action := newCyclingAction(t)
	handler := NewLogActivityHandler(newFakeActionRepo(action), &fakeActivityRepo{}, &fakePublisher{}, nil)

	view, err := handler.Handle(context.Background(), LogActivityCommand{
		EcoUserID: "user-1",
		ActionID:  action.ID,
		Quantity:  1,
	})
	require.NoError(t, err)

	assert.Equal(t, shared.Today(), view.ActivityDate)
	assert.Equal(t, scoring.SourceApp, view.Source)
}

func TestLogActivity_Validation(t *testing.T) {
	action := newCyclingAction(t)
	handler := NewLogActivityHandler(newFakeActionRepo(action), &fakeActivityRepo{}, &fakePublisher{}, nil)
	ctx := context.Background()

	_, err := handler.Handle(ctx, LogActivityCommand{ActionID: action.ID, Quantity: 1})
	assert.True(t, shared.IsValidation(err))

	_, err = handler.Handle(ctx, LogActivityCommand{EcoUserID: "user-1", Quantity: 1})
	assert.True(t, shared.IsValidation(err))

	_, err = handler.Handle(ctx, LogActivityCommand{EcoUserID: "user-1", ActionID: action.ID, Quantity: 0})
	assert.ErrorIs(t, err, shared.ErrInvalidQuantity)

	_, err = handler.Handle(ctx, LogActivityCommand{EcoUserID: "user-1", ActionID: "missing", Quantity: 1})
	assert.True(t, shared.IsNotFound(err))
}

func TestLogActivity_UnknownActionLeavesNoTrace(t *testing.T) {
	activityRepo := &fakeActivityRepo{}
	publisher := &fakePublisher{}
	handler := NewLogActivityHandler(newFakeActionRepo(), activityRepo, publisher, nil)

	_, err := handler.Handle(context.Background(), LogActivityCommand{
		EcoUserID: "user-1",
		ActionID:  "missing",
		Quantity:  1,
	})
	require.Error(t, err)
	assert.Empty(t, activityRepo.saved)
	assert.Empty(t, publisher.events)
}
