package domain

import "strings"

type Currency string

const (
	CurrencyCRC Currency = "CRC"
	CurrencyUSD Currency = "USD"
)

// CountryNames maps ISO codes to display names for the supported
// Spanish-speaking countries.
var CountryNames = map[string]string{
	"AR": "Argentina",
	"BO": "Bolivia",
	"CL": "Chile",
	"CO": "Colombia",
	"CR": "Costa Rica",
	"CU": "Cuba",
	"DO": "República Dominicana",
	"EC": "Ecuador",
	"ES": "España",
	"GT": "Guatemala",
	"HN": "Honduras",
	"MX": "México",
	"NI": "Nicaragua",
	"PA": "Panamá",
	"PE": "Perú",
	"PR": "Puerto Rico",
	"PY": "Paraguay",
	"SV": "El Salvador",
	"UY": "Uruguay",
	"VE": "Venezuela",
}

var countryDialCodes = map[string]string{
	"AR": "54",
	"BO": "591",
	"CL": "56",
	"CO": "57",
	"CR": "506",
	"CU": "53",
	"DO": "1",
	"EC": "593",
	"ES": "34",
	"GT": "502",
	"HN": "504",
	"MX": "52",
	"NI": "505",
	"PA": "507",
	"PE": "51",
	"PR": "1",
	"PY": "595",
	"SV": "503",
	"UY": "598",
	"VE": "58",
}

func DialCode(country string) string {
	return countryDialCodes[country]
}

// WhatsAppLink builds a wa.me URL from a country code and a national phone
// number. Returns "" when either part is missing or the number has no digits.
func WhatsAppLink(country, phone string) string {
	dial := DialCode(country)
	if dial == "" || phone == "" {
		return ""
	}
	var digits strings.Builder
	for _, ch := range phone {
		if ch >= '0' && ch <= '9' {
			digits.WriteRune(ch)
		}
	}
	if digits.Len() == 0 {
		return ""
	}
	return "https://wa.me/" + dial + digits.String()
}
