package db

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-playground/validator/v10"

	"propertyalerts/internal/types"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const (
	bedroomsToken  = "bedrooms:"
	bathroomsToken = "bathrooms:"
)

// PreferenceRepository returns buyers eligible for alerts, joined with their
// profile. Rows that fail validation are skipped with a warning instead of
// failing the whole job.
type PreferenceRepository struct {
	db       DBTX
	validate *validator.Validate
	logger   *slog.Logger
}

func NewPreferenceRepository(db DBTX, logger *slog.Logger) *PreferenceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreferenceRepository{db: db, validate: validator.New(), logger: logger}
}

// candidateQuery selects buyers with both alert switches on and the buyer role.
func candidateQuery() (string, []any, error) {
	return psql.
		Select(
			"bp.user_id",
			"bp.property_alerts",
			"bp.email_notifications",
			"bp.budget_range",
			"bp.preferred_areas",
			"bp.property_type_preferences",
			"p.id",
			"p.email",
			"p.full_name",
			"p.role",
			"p.subscription_tier",
		).
		From("buyer_preferences bp").
		Join("profiles p ON p.id = bp.user_id").
		Where(sq.Eq{
			"bp.property_alerts":     true,
			"bp.email_notifications": true,
			"p.role":                 string(types.RoleBuyer),
		}).
		OrderBy("bp.user_id").
		ToSql()
}

// ListCandidates returns every buyer who should be evaluated for an alert.
func (r *PreferenceRepository) ListCandidates(ctx context.Context) ([]types.BuyerCandidate, error) {
	query, args, err := candidateQuery()
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build candidate query", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query alert candidates", err)
	}
	defer rows.Close()

	var candidates []types.BuyerCandidate
	for rows.Next() {
		var (
			userID, profileID               string
			alerts, emails                  bool
			budget, email, name, role, tier *string
			rawAreas, typePrefs             []string
		)
		if err := rows.Scan(
			&userID,
			&alerts,
			&emails,
			&budget,
			&rawAreas,
			&typePrefs,
			&profileID,
			&email,
			&name,
			&role,
			&tier,
		); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan alert candidate", err)
		}

		areas, beds, baths := decodeAreaTokens(rawAreas)
		c := types.BuyerCandidate{
			Preferences: types.BuyerPreferences{
				UserID:                  userID,
				PropertyAlerts:          alerts,
				EmailNotifications:      emails,
				BudgetRange:             deref(budget),
				PreferredAreas:          areas,
				PreferredBedrooms:       beds,
				PreferredBathrooms:      baths,
				PropertyTypePreferences: typePrefs,
			},
			Profile: types.BuyerProfile{
				ID:               profileID,
				Email:            strings.TrimSpace(deref(email)),
				FullName:         deref(name),
				Role:             types.ProfileRole(deref(role)),
				SubscriptionTier: types.SubscriptionTier(deref(tier)),
			},
		}
		if err := r.validate.Struct(c); err != nil {
			r.logger.Warn("skipping malformed alert candidate",
				"user_id", userID,
				"error", err,
			)
			continue
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating alert candidates", err)
	}
	return candidates, nil
}

// decodeAreaTokens splits the legacy preferred_areas array into real area
// strings and the "bedrooms:N"/"bathrooms:N" minimums stored alongside them.
// Prefixes match case-insensitively; the first well-formed token of each kind
// wins and malformed tokens are dropped.
func decodeAreaTokens(raw []string) (areas []string, bedrooms, bathrooms *int) {
	for _, entry := range raw {
		v := strings.TrimSpace(entry)
		if v == "" {
			continue
		}
		lower := strings.ToLower(v)
		switch {
		case strings.HasPrefix(lower, bedroomsToken):
			if n, ok := parseTokenCount(v[len(bedroomsToken):]); ok && bedrooms == nil {
				bedrooms = &n
			}
		case strings.HasPrefix(lower, bathroomsToken):
			if n, ok := parseTokenCount(v[len(bathroomsToken):]); ok && bathrooms == nil {
				bathrooms = &n
			}
		default:
			areas = append(areas, v)
		}
	}
	return areas, bedrooms, bathrooms
}

func parseTokenCount(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
