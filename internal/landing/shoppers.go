package landing

import (
	"database/sql"
	"strings"

	"github.com/jvz16/traeme/internal/domain"
)

const shopperColumns = `
	s.id, s.name, s.email, s.country, s.province, s.canton, s.district, s.phone,
	s.bio, s.specialties, s.base_city, s.abroad, s.abroad_city, s.abroad_country,
	s.return_date, s.accepts_partial_payments, s.accepts_new_orders,
	s.min_usual_amount, s.max_usual_amount, s.fee_schedule, s.rating, s.verified,
	s.photo_url, s.created_at,
	(SELECT COUNT(*) FROM orders o WHERE o.shopper_id = s.id AND o.status = 'ENTREGADO')
`

func collectShoppers(rows *sql.Rows) ([]domain.ShopperProfile, error) {
	shoppers := []domain.ShopperProfile{}
	for rows.Next() {
		shopper := domain.ShopperProfile{}
		var (
			specialties string
			returnDate  sql.NullTime
		)
		err := rows.Scan(
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
		for _, part := range strings.Split(specialties, ",") {
			if part = strings.TrimSpace(part); part != "" {
				shopper.Specialties = append(shopper.Specialties, part)
			}
		}
		if shopper.Specialties == nil {
			shopper.Specialties = []string{}
		}
		shoppers = append(shoppers, shopper)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shoppers, nil
}
