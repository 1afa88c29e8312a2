package db

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"propertyalerts/internal/types"
)

// setupTestDB starts Postgres, applies the embedded migrations and returns a pool.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("alerts_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, RunMigrations(connStr))
	// Second run must be a no-op.
	require.NoError(t, RunMigrations(connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func seedBuyer(t *testing.T, pool *pgxpool.Pool, email, role, tier string, alerts, emails bool, areas []string) string {
	t.Helper()
	ctx := context.Background()
	var id string
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO profiles (email, full_name, role, subscription_tier)
		 VALUES ($1, 'Test Buyer', $2, NULLIF($3, ''))
		 RETURNING id`,
		email, role, tier,
	).Scan(&id))
	_, err := pool.Exec(ctx,
		`INSERT INTO buyer_preferences (user_id, property_alerts, email_notifications, budget_range, preferred_areas, property_type_preferences)
		 VALUES ($1, $2, $3, '400000-550000', $4, ARRAY['House'])`,
		id, alerts, emails, areas,
	)
	require.NoError(t, err)
	return id
}

func TestIntegration_AlertJobLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	ctx := context.Background()
	jobs := NewAlertJobRepository(pool)

	var jobID string
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO alert_jobs (property_id, alert_type) VALUES (gen_random_uuid(), 'on_market') RETURNING id`,
	).Scan(&jobID))

	pending, err := jobs.GetPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, jobID, pending[0].ID)

	claimed, err := jobs.MarkProcessing(ctx, jobID)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimedAgain, err := jobs.MarkProcessing(ctx, jobID)
	require.NoError(t, err)
	assert.False(t, claimedAgain, "second claim must fail while processing")

	n, err := jobs.RequeueStale(ctx, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = jobs.MarkProcessing(ctx, jobID)
	require.NoError(t, err)
	msg := "listing not found or not approved"
	require.NoError(t, jobs.MarkCompleted(ctx, jobID, &msg))

	job, err := jobs.Get(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, types.JobCompleted, job.State)
	require.NotNil(t, job.ErrorMessage)
	assert.Equal(t, msg, *job.ErrorMessage)

	ok, err := jobs.Requeue(ctx, jobID, types.JobCompleted)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIntegration_CandidatesAndListings(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	ctx := context.Background()

	eligible := seedBuyer(t, pool, "eligible@example.com", "buyer", "premium", true, true, []string{"Austin", "bedrooms:3"})
	seedBuyer(t, pool, "muted@example.com", "buyer", "free", false, true, nil)
	seedBuyer(t, pool, "noemail@example.com", "buyer", "free", true, false, nil)
	seedBuyer(t, pool, "agent@example.com", "agent", "premium", true, true, nil)

	candidates, err := NewPreferenceRepository(pool, slog.Default()).ListCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, eligible, candidates[0].Profile.ID)
	assert.Equal(t, []string{"Austin"}, candidates[0].Preferences.PreferredAreas)
	require.NotNil(t, candidates[0].Preferences.PreferredBedrooms)
	assert.Equal(t, 3, *candidates[0].Preferences.PreferredBedrooms)

	var approvedID, draftID string
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO properties (title, price, price_display, city, state, property_type, bedrooms, bathrooms, status, features)
		 VALUES ('Bungalow', 475000, '$450k-$500k', 'Austin', 'TX', 'House', 3, 2, 'approved', ARRAY['Pool'])
		 RETURNING id`).Scan(&approvedID))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO properties (title, status) VALUES ('Draft', 'pending') RETURNING id`).Scan(&draftID))
	_, err = pool.Exec(ctx,
		`INSERT INTO property_images (property_id, url, sort_order) VALUES ($1, 'https://img/2.jpg', 2), ($1, 'https://img/1.jpg', 1)`,
		approvedID)
	require.NoError(t, err)

	listings := NewListingRepository(pool)
	l, err := listings.GetApprovedListing(ctx, approvedID)
	require.NoError(t, err)
	require.NotNil(t, l)
	require.NotNil(t, l.Price)
	assert.InDelta(t, 475000, *l.Price, 0.01)

	draft, err := listings.GetApprovedListing(ctx, draftID)
	require.NoError(t, err)
	assert.Nil(t, draft)

	e, err := listings.GetEnrichment(ctx, approvedID)
	require.NoError(t, err)
	assert.Equal(t, "https://img/1.jpg", e.ImageURL)
	assert.Equal(t, []string{"Pool"}, e.Features)

	tier, err := NewProfileRepository(pool).GetSubscriptionTier(ctx, eligible)
	require.NoError(t, err)
	assert.Equal(t, types.TierPremium, tier)
}

func TestIntegration_AlertRecordsAndAudit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	ctx := context.Background()
	records := NewAlertRecordRepository(pool)

	buyer := "6f1c2b8e-8f0a-4a57-9d1b-3c4e5f607182"
	property := "0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"

	delivered, err := records.HasDelivered(ctx, buyer, property, types.AlertOnMarket)
	require.NoError(t, err)
	assert.False(t, delivered)

	require.NoError(t, records.Insert(ctx, types.AlertRecord{
		BuyerID: buyer, PropertyID: property, AlertType: types.AlertOnMarket,
		Status: types.AlertStatusFailed, EmailTemplate: "property_alert",
	}))
	delivered, err = records.HasDelivered(ctx, buyer, property, types.AlertOnMarket)
	require.NoError(t, err)
	assert.False(t, delivered, "failed attempts do not count as delivered")

	require.NoError(t, records.Insert(ctx, types.AlertRecord{
		BuyerID: buyer, PropertyID: property, AlertType: types.AlertOnMarket,
		Status: types.AlertStatusSent, EmailTemplate: "property_alert", ProviderMessageID: "sg-1",
	}))
	delivered, err = records.HasDelivered(ctx, buyer, property, types.AlertOnMarket)
	require.NoError(t, err)
	assert.True(t, delivered)

	list, err := records.List(ctx, types.AlertRecordFilter{BuyerID: buyer})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, NewAuditRepository(pool).Insert(ctx, types.AuditEntry{
		UserID:    &buyer,
		TableName: "feature_access",
		Action:    "property_alert_access",
		NewValues: types.JSONMap{"allowed": true},
	}))
	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs WHERE new_values->>'allowed' = 'true'`).Scan(&count))
	assert.Equal(t, 1, count)

	locks := NewJobLockRepository(pool)
	got, err := locks.Acquire(ctx, "requeue_stale_alert_jobs", "w1", time.Minute)
	require.NoError(t, err)
	assert.True(t, got)
	got, err = locks.Acquire(ctx, "requeue_stale_alert_jobs", "w2", time.Minute)
	require.NoError(t, err)
	assert.False(t, got)
}
