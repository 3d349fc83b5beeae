package domain

import "time"

type CustomerProfile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Country    string    `json:"country"`
	Province   string    `json:"province,omitempty"`
	Canton     string    `json:"canton,omitempty"`
	District   string    `json:"district,omitempty"`
	Phone      string    `json:"phone"`
	StyleNotes string    `json:"style_notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (c *CustomerProfile) WhatsAppLink() string {
	return WhatsAppLink(c.Country, c.Phone)
}

type ShopperProfile struct {
	ID                     string     `json:"id"`
	Name                   string     `json:"name"`
	Email                  string     `json:"email"`
	Country                string     `json:"country"`
	Province               string     `json:"province,omitempty"`
	Canton                 string     `json:"canton,omitempty"`
	District               string     `json:"district,omitempty"`
	Phone                  string     `json:"phone"`
	Bio                    string     `json:"bio,omitempty"`
	Specialties            []string   `json:"specialties"`
	BaseCity               string     `json:"base_city,omitempty"`
	Abroad                 bool       `json:"abroad"`
	AbroadCity             string     `json:"abroad_city,omitempty"`
	AbroadCountry          string     `json:"abroad_country,omitempty"`
	ReturnDate             *time.Time `json:"return_date,omitempty"`
	AcceptsPartialPayments bool       `json:"accepts_partial_payments"`
	AcceptsNewOrders       bool       `json:"accepts_new_orders"`
	MinUsualAmount         int64      `json:"min_usual_amount"`
	MaxUsualAmount         int64      `json:"max_usual_amount"`
	FeeSchedule            string     `json:"fee_schedule,omitempty"`
	Rating                 float64    `json:"rating"`
	Verified               bool       `json:"verified"`
	PhotoURL               string     `json:"photo_url,omitempty"`
	CompletedOrders        int        `json:"completed_orders"`
	CreatedAt              time.Time  `json:"created_at"`
}

func (s *ShopperProfile) WhatsAppLink() string {
	return WhatsAppLink(s.Country, s.Phone)
}

// CurrentLocation renders where the shopper is right now, preferring the
// abroad fields while the abroad flag is set.
func (s *ShopperProfile) CurrentLocation() string {
	if s.Abroad {
		loc := s.AbroadCity
		if s.AbroadCountry != "" {
			if loc != "" {
				loc += " "
			}
			loc += s.AbroadCountry
		}
		if loc == "" {
			return "En el extranjero"
		}
		return "En " + loc
	}
	if s.BaseCity != "" {
		return s.BaseCity
	}
	return "Sin ciudad definida"
}
