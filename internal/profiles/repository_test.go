package profiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSpecialties(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", []string{}},
		{"single", "ropa", []string{"ropa"}},
		{"multiple", "ropa,tecnología,calzado", []string{"ropa", "tecnología", "calzado"}},
		{"whitespace and blanks", " ropa , , tecnología ", []string{"ropa", "tecnología"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitSpecialties(tt.raw))
		})
	}
}

func TestJoinSpecialtiesRoundTrip(t *testing.T) {
	specialties := []string{"ropa", "tecnología"}
	assert.Equal(t, specialties, splitSpecialties(joinSpecialties(specialties)))
}
