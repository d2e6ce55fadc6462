package models

import "errors"

// ErrUnknownCategory indicates a stored mode string does not map to any
// accounting category. The original system dropped such rows silently; here
// they are surfaced so malformed data cannot vanish from totals unnoticed.
var ErrUnknownCategory = errors.New("unknown category")

// Category is one of the three mutually exclusive duration buckets.
type Category string

const (
	CategoryOnCampus       Category = "on-campus"
	CategoryOffCampus      Category = "off-campus"
	CategorySocialPractice Category = "social-practice"
)

// ParseCategory maps a raw mode token to its Category. Exactly three tokens
// are recognized; anything else is an error, never a silent fallthrough.
func ParseCategory(mode string) (Category, error) {
	switch Category(mode) {
	case CategoryOnCampus:
		return CategoryOnCampus, nil
	case CategoryOffCampus:
		return CategoryOffCampus, nil
	case CategorySocialPractice:
		return CategorySocialPractice, nil
	default:
		return "", ErrUnknownCategory
	}
}
