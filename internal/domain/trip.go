package domain

import "time"

// Trip is a shopper's upcoming travel window. Read-only after creation.
type Trip struct {
	ID                 string    `json:"id"`
	ShopperID          string    `json:"shopper_id"`
	Origin             string    `json:"origin,omitempty"`
	DestinationCity    string    `json:"destination_city"`
	DestinationCountry string    `json:"destination_country,omitempty"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	Notes              string    `json:"notes,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}
