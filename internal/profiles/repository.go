package profiles

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/jvz16/traeme/internal/domain"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) CreateCustomer(ctx context.Context, customer *domain.CustomerProfile) error {
	customer.ID = uuid.New().String()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customer_profiles (id, name, email, country, province, canton, district, phone, style_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`, customer.ID, customer.Name, customer.Email, customer.Country, customer.Province,
		customer.Canton, customer.District, customer.Phone, customer.StyleNotes, customer.CreatedAt)
	return err
}

func (r *ProfileRepository) GetCustomer(ctx context.Context, id string) (*domain.CustomerProfile, error) {
	customer := &domain.CustomerProfile{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, country, province, canton, district, phone, style_notes, created_at
		FROM customer_profiles
		WHERE id = $1
	`, id).Scan(&customer.ID, &customer.Name, &customer.Email, &customer.Country,
		&customer.Province, &customer.Canton, &customer.District, &customer.Phone,
		&customer.StyleNotes, &customer.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return customer, nil
}

// shopperColumns requires the query to alias shopper_profiles as s.
// completed_orders is derived on every read, never stored.
const shopperColumns = `
	s.id, s.name, s.email, s.country, s.province, s.canton, s.district, s.phone,
	s.bio, s.specialties, s.base_city, s.abroad, s.abroad_city, s.abroad_country,
	s.return_date, s.accepts_partial_payments, s.accepts_new_orders,
	s.min_usual_amount, s.max_usual_amount, s.fee_schedule, s.rating, s.verified,
	s.photo_url, s.created_at,
	(SELECT COUNT(*) FROM orders o WHERE o.shopper_id = s.id AND o.status = 'ENTREGADO')
`

func scanShopper(row interface{ Scan(...any) error }) (*domain.ShopperProfile, error) {
	shopper := &domain.ShopperProfile{}
	var (
		specialties string
		returnDate  sql.NullTime
	)
	err := row.Scan(
		&shopper.ID, &shopper.Name, &shopper.Email, &shopper.Country, &shopper.Province,
		&shopper.Canton, &shopper.District, &shopper.Phone, &shopper.Bio, &specialties,
		&shopper.BaseCity, &shopper.Abroad, &shopper.AbroadCity, &shopper.AbroadCountry,
		&returnDate, &shopper.AcceptsPartialPayments, &shopper.AcceptsNewOrders,
		&shopper.MinUsualAmount, &shopper.MaxUsualAmount, &shopper.FeeSchedule,
		&shopper.Rating, &shopper.Verified, &shopper.PhotoURL, &shopper.CreatedAt,
		&shopper.CompletedOrders,
	)
	if err != nil {
		return nil, err
	}
	if returnDate.Valid {
		shopper.ReturnDate = &returnDate.Time
	}
	shopper.Specialties = splitSpecialties(specialties)
	return shopper, nil
}

// Specialties are stored as a comma-separated string, same as the profile
// form manages them.
func splitSpecialties(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func joinSpecialties(specialties []string) string {
	return strings.Join(specialties, ",")
}

func (r *ProfileRepository) CreateShopper(ctx context.Context, shopper *domain.ShopperProfile) error {
	shopper.ID = uuid.New().String()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shopper_profiles (
			id, name, email, country, province, canton, district, phone, bio,
			specialties, base_city, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
	`, shopper.ID, shopper.Name, shopper.Email, shopper.Country, shopper.Province,
		shopper.Canton, shopper.District, shopper.Phone, shopper.Bio,
		joinSpecialties(shopper.Specialties), shopper.BaseCity, shopper.CreatedAt)
	return err
}

func (r *ProfileRepository) GetShopper(ctx context.Context, id string) (*domain.ShopperProfile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+shopperColumns+`
		FROM shopper_profiles s
		WHERE s.id = $1
	`, id)

	shopper, err := scanShopper(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return shopper, nil
}

// UpdateShopper persists the editable profile fields.
func (r *ProfileRepository) UpdateShopper(ctx context.Context, shopper *domain.ShopperProfile) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE shopper_profiles
		SET province = $2, canton = $3, district = $4, phone = $5, bio = $6,
			specialties = $7, base_city = $8, abroad = $9, abroad_city = $10,
			abroad_country = $11, return_date = $12, accepts_partial_payments = $13,
			accepts_new_orders = $14, min_usual_amount = $15, max_usual_amount = $16,
			fee_schedule = $17, photo_url = $18, updated_at = NOW()
		WHERE id = $1
	`, shopper.ID, shopper.Province, shopper.Canton, shopper.District, shopper.Phone,
		shopper.Bio, joinSpecialties(shopper.Specialties), shopper.BaseCity,
		shopper.Abroad, shopper.AbroadCity, shopper.AbroadCountry, shopper.ReturnDate,
		shopper.AcceptsPartialPayments, shopper.AcceptsNewOrders, shopper.MinUsualAmount,
		shopper.MaxUsualAmount, shopper.FeeSchedule, shopper.PhotoURL)
	return err
}

// ListShoppers is the public directory: shoppers accepting new orders,
// best rated first, newest as the tiebreak.
func (r *ProfileRepository) ListShoppers(ctx context.Context) ([]domain.ShopperProfile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+shopperColumns+`
		FROM shopper_profiles s
		WHERE s.accepts_new_orders
		ORDER BY s.rating DESC, s.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return collectShoppers(rows)
}

// TopShoppersFor ranks shoppers for a customer: accepting new orders,
// matching progressively on whichever location fields the customer has
// set, ordered by rating then completed-order count, truncated to limit.
func (r *ProfileRepository) TopShoppersFor(ctx context.Context, customer *domain.CustomerProfile, limit int) ([]domain.ShopperProfile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+shopperColumns+`
		FROM shopper_profiles s
		WHERE s.accepts_new_orders
			AND ($1 = '' OR s.country = $1)
			AND ($2 = '' OR s.province = $2)
			AND ($3 = '' OR s.canton = $3)
			AND ($4 = '' OR s.district = $4)
		ORDER BY s.rating DESC,
			(SELECT COUNT(*) FROM orders o WHERE o.shopper_id = s.id AND o.status = 'ENTREGADO') DESC
		LIMIT $5
	`, customer.Country, customer.Province, customer.Canton, customer.District, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return collectShoppers(rows)
}

func collectShoppers(rows *sql.Rows) ([]domain.ShopperProfile, error) {
	shoppers := []domain.ShopperProfile{}
	for rows.Next() {
		shopper, err := scanShopper(rows)
		if err != nil {
			return nil, err
		}
		shoppers = append(shoppers, *shopper)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shoppers, nil
}

func (r *ProfileRepository) CreateTrip(ctx context.Context, trip *domain.Trip) error {
	trip.ID = uuid.New().String()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO trips (id, shopper_id, origin, destination_city, destination_country, start_date, end_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`, trip.ID, trip.ShopperID, trip.Origin, trip.DestinationCity, trip.DestinationCountry,
		trip.StartDate, trip.EndDate, trip.Notes, trip.CreatedAt)
	return err
}

func (r *ProfileRepository) ListTrips(ctx context.Context, shopperID string) ([]domain.Trip, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, shopper_id, origin, destination_city, destination_country, start_date, end_date, notes, created_at
		FROM trips
		WHERE shopper_id = $1
		ORDER BY start_date
	`, shopperID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	trips := []domain.Trip{}
	for rows.Next() {
		var trip domain.Trip
		if err := rows.Scan(&trip.ID, &trip.ShopperID, &trip.Origin, &trip.DestinationCity,
			&trip.DestinationCountry, &trip.StartDate, &trip.EndDate, &trip.Notes, &trip.CreatedAt); err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return trips, nil
}
