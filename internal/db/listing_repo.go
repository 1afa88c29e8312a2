package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"propertyalerts/internal/types"
)

// ListingRepository reads listing snapshots for matching and email display.
type ListingRepository struct {
	db DBTX
}

func NewListingRepository(db DBTX) *ListingRepository {
	return &ListingRepository{db: db}
}

// GetApprovedListing returns the listing if it exists and is approved.
// It returns (nil, nil) otherwise.
func (r *ListingRepository) GetApprovedListing(ctx context.Context, propertyID string) (*types.PropertyListing, error) {
	var (
		l            types.PropertyListing
		priceDisplay *string
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, title, price::float8, price_display, city, state, property_type,
		        bedrooms, bathrooms, square_feet, status, listing_source
		 FROM properties
		 WHERE id = $1 AND status = $2`,
		propertyID,
		types.ListingStatusApproved,
	).Scan(
		&l.ID,
		&l.Title,
		&l.Price,
		&priceDisplay,
		&l.City,
		&l.State,
		&l.PropertyType,
		&l.Bedrooms,
		&l.Bathrooms,
		&l.SquareFeet,
		&l.Status,
		&l.ListingSource,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to get listing", err)
	}
	l.PriceDisplay = deref(priceDisplay)
	return &l, nil
}

// GetEnrichment returns the first image (by sort order) and the feature list.
// A missing listing yields an empty enrichment.
func (r *ListingRepository) GetEnrichment(ctx context.Context, propertyID string) (types.ListingEnrichment, error) {
	var (
		e        types.ListingEnrichment
		imageURL *string
	)
	err := r.db.QueryRow(ctx,
		`SELECT p.features,
		        (SELECT i.url FROM property_images i
		          WHERE i.property_id = p.id
		          ORDER BY i.sort_order ASC
		          LIMIT 1)
		 FROM properties p
		 WHERE p.id = $1`,
		propertyID,
	).Scan(&e.Features, &imageURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.ListingEnrichment{}, nil
		}
		return types.ListingEnrichment{}, types.NewAppError(types.ErrCodeInternalDB, "failed to get listing enrichment", err)
	}
	e.ImageURL = deref(imageURL)
	return e, nil
}
