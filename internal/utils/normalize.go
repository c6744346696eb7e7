package utils

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeEmail case-folds an address so lookups and the admin allow-list
// agree regardless of how the user typed it.
func NormalizeEmail(email string) string {
	// cases.Caser is stateful, so one per call.
	return cases.Fold().String(strings.TrimSpace(email))
}
