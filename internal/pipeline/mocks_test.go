package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"propertyalerts/internal/types"
)

type mockLogger struct{}

func (l *mockLogger) Info(msg string, args ...any)  {}
func (l *mockLogger) Error(msg string, args ...any) {}
func (l *mockLogger) Warn(msg string, args ...any)  {}
func (l *mockLogger) With(args ...any) types.Logger { return l }

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type completion struct {
	jobID  string
	errMsg *string
}

type mockJobStore struct {
	pending     []types.AlertJob
	pendingErr  error
	unclaimable map[string]bool
	claimErr    map[string]error
	completeErr error
	afterFetch  func()

	gotLimit  int
	claimed   []string
	completed []completion
}

func (m *mockJobStore) GetPending(_ context.Context, limit int) ([]types.AlertJob, error) {
	m.gotLimit = limit
	if m.afterFetch != nil {
		m.afterFetch()
	}
	return m.pending, m.pendingErr
}

// Writes fail on a done context, as they would against Postgres.
func (m *mockJobStore) MarkProcessing(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := m.claimErr[id]; err != nil {
		return false, err
	}
	if m.unclaimable[id] {
		return false, nil
	}
	m.claimed = append(m.claimed, id)
	return true, nil
}

func (m *mockJobStore) MarkCompleted(ctx context.Context, id string, errMsg *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.completed = append(m.completed, completion{id, errMsg})
	return m.completeErr
}

func (m *mockJobStore) completion(id string) (completion, bool) {
	for _, c := range m.completed {
		if c.jobID == id {
			return c, true
		}
	}
	return completion{}, false
}

type mockListings struct {
	byID map[string]*types.PropertyListing
	err  error
}

func (m *mockListings) GetApprovedListing(_ context.Context, id string) (*types.PropertyListing, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byID[id], nil
}

type mockCandidates struct {
	list      []types.BuyerCandidate
	err       error
	afterLoad func()
}

func (m *mockCandidates) ListCandidates(context.Context) ([]types.BuyerCandidate, error) {
	if m.afterLoad != nil {
		m.afterLoad()
	}
	return m.list, m.err
}

// tierGate grants on-market to everyone and off-market to premium IDs only.
type tierGate struct {
	premium map[string]bool
	checked []string
}

func (g *tierGate) HasAccess(_ context.Context, buyerID string, alertType types.AlertType) bool {
	g.checked = append(g.checked, buyerID)
	return alertType == types.AlertOnMarket || g.premium[buyerID]
}

type mockDispatcher struct {
	mu       sync.Mutex
	failFor  map[string]error
	panicFor map[string]bool
	sent     []string
}

func (d *mockDispatcher) Send(ctx context.Context, m types.Match, _ types.AlertType) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := m.Candidate.Profile.ID
	if d.panicFor[id] {
		panic("template exploded")
	}
	if err := d.failFor[id]; err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, id)
	return "msg-" + id, nil
}

func (d *mockDispatcher) TemplateName(alertType types.AlertType) string {
	if alertType == types.AlertOffMarket {
		return "off_market_alert"
	}
	return "property_alert"
}

type processingLog struct {
	propertyID            string
	matches, sent, denied int
}

type mockRecorder struct {
	records    []types.AlertRecord
	processing []processingLog
}

func (r *mockRecorder) RecordAlert(_ context.Context, rec types.AlertRecord) {
	r.records = append(r.records, rec)
}

func (r *mockRecorder) LogProcessing(_ context.Context, propertyID string, matches, sent, denied int) {
	r.processing = append(r.processing, processingLog{propertyID, matches, sent, denied})
}

type mockDuplicates struct {
	delivered map[string]bool
	err       error
}

func (m *mockDuplicates) HasDelivered(_ context.Context, buyerID, _ string, _ types.AlertType) (bool, error) {
	return m.delivered[buyerID], m.err
}

var errBoom = errors.New("boom")

func intPtr(i int) *int { return &i }

func floatPtr(f float64) *float64 { return &f }
