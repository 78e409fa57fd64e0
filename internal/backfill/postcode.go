package backfill

import (
	"strings"
	"unicode/utf8"

	"github.com/duynhne/marketplace/internal/core/domain"
)

// PlaceholderPostalCode is the default the listing form used to prefill.
// Listings still carrying it are treated as missing a real code.
const PlaceholderPostalCode = "75000"

// IsInvalidPostalCode reports whether z is empty, the placeholder, or not
// exactly five characters long. It checks shape only.
func IsInvalidPostalCode(z string) bool {
	return z == "" || z == PlaceholderPostalCode || utf8.RuneCountInString(z) != 5
}

// LookupQuery returns the free-text geocode query for p: the address
// when present, else the city. Empty means there is nothing to look up.
func LookupQuery(p domain.Product) string {
	if q := strings.TrimSpace(p.Location); q != "" {
		return q
	}
	return strings.TrimSpace(p.City)
}
