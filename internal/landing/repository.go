package landing

import (
	"context"
	"database/sql"
	"time"

	"github.com/jvz16/traeme/internal/domain"
)

type Stats struct {
	Shoppers        int     `json:"shoppers"`
	DeliveredOrders int     `json:"delivered_orders"`
	AverageRating   float64 `json:"average_rating"`
}

// Page is everything the home page needs in a single read.
type Page struct {
	Stats          Stats                   `json:"stats"`
	ShoppersInUSA  []domain.ShopperProfile `json:"shoppers_in_usa"`
	TravelingToUSA []domain.ShopperProfile `json:"traveling_to_usa"`
	CarouselSlides []domain.CarouselSlide  `json:"carousel_slides"`
	HeroBackground *domain.HeroBackground  `json:"hero_background,omitempty"`
}

type LandingRepository struct {
	db *sql.DB
}

func NewLandingRepository(db *sql.DB) *LandingRepository {
	return &LandingRepository{db: db}
}

func (r *LandingRepository) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM shopper_profiles),
			(SELECT COUNT(*) FROM orders WHERE status = 'ENTREGADO'),
			COALESCE((SELECT AVG(rating) FROM reviews), 0)
	`).Scan(&stats.Shoppers, &stats.DeliveredOrders, &stats.AverageRating)
	return stats, err
}

// usaMatch builds a lenient predicate for the free-text country columns.
// Profiles and trips store whatever the person typed, so the landing page
// accepts the common spellings instead of requiring a code.
func usaMatch(column string) string {
	return `(` + column + ` ILIKE '%usa%'
		OR ` + column + ` ILIKE '%estados unidos%'
		OR ` + column + ` ILIKE '%united states%'
		OR ` + column + ` ILIKE '%eeuu%')`
}

// ShoppersInUSA lists shoppers whose profile currently marks them abroad
// in the United States, best rated first, most recently updated as the
// tiebreak.
func (r *LandingRepository) ShoppersInUSA(ctx context.Context) ([]domain.ShopperProfile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+shopperColumns+`
		FROM shopper_profiles s
		WHERE s.abroad AND `+usaMatch("s.abroad_country")+`
		ORDER BY s.rating DESC, s.updated_at DESC, s.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return collectShoppers(rows)
}

// TravelingToUSA lists shoppers with a trip to the United States starting
// within the next seven days (both endpoints included), one row per
// shopper keyed to their earliest qualifying trip, ordered by departure
// then rating.
func (r *LandingRepository) TravelingToUSA(ctx context.Context, now time.Time) ([]domain.ShopperProfile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+shopperColumns+`
		FROM shopper_profiles s
		JOIN (
			SELECT DISTINCT ON (t.shopper_id) t.shopper_id, t.start_date
			FROM trips t
			WHERE `+usaMatch("t.destination_country")+`
				AND t.start_date >= $1::date
				AND t.start_date <= $1::date + 7
			ORDER BY t.shopper_id, t.start_date
		) next_trip ON next_trip.shopper_id = s.id
		ORDER BY next_trip.start_date, s.rating DESC
	`, now)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return collectShoppers(rows)
}

func (r *LandingRepository) ActiveSlides(ctx context.Context) ([]domain.CarouselSlide, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, image_path, caption, position, active, created_at
		FROM carousel_slides
		WHERE active
		ORDER BY position, created_at
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	slides := []domain.CarouselSlide{}
	for rows.Next() {
		var slide domain.CarouselSlide
		if err := rows.Scan(&slide.ID, &slide.ImagePath, &slide.Caption,
			&slide.Position, &slide.Active, &slide.CreatedAt); err != nil {
			return nil, err
		}
		slides = append(slides, slide)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return slides, nil
}

// ActiveHero returns the most recently added active hero background, or
// nil when none is configured.
func (r *LandingRepository) ActiveHero(ctx context.Context) (*domain.HeroBackground, error) {
	hero := &domain.HeroBackground{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, image_path, label, active, created_at
		FROM hero_backgrounds
		WHERE active
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&hero.ID, &hero.ImagePath, &hero.Label, &hero.Active, &hero.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return hero, nil
}
