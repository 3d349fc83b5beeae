package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhatsAppLink(t *testing.T) {
	tests := []struct {
		name    string
		country string
		phone   string
		want    string
	}{
		{"costa rica", "CR", "88887777", "https://wa.me/50688887777"},
		{"formatted number", "MX", "55 1234-5678", "https://wa.me/525512345678"},
		{"unknown country", "XX", "88887777", ""},
		{"empty phone", "CR", "", ""},
		{"no digits", "CR", "n/a", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WhatsAppLink(tt.country, tt.phone))
		})
	}
}

func TestShopperCurrentLocation(t *testing.T) {
	tests := []struct {
		name    string
		shopper ShopperProfile
		want    string
	}{
		{
			"abroad with city and country",
			ShopperProfile{Abroad: true, AbroadCity: "Miami", AbroadCountry: "US"},
			"En Miami US",
		},
		{
			"abroad without details",
			ShopperProfile{Abroad: true},
			"En el extranjero",
		},
		{
			"home base",
			ShopperProfile{BaseCity: "San José"},
			"San José",
		},
		{
			"nothing set",
			ShopperProfile{},
			"Sin ciudad definida",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.shopper.CurrentLocation())
		})
	}
}
