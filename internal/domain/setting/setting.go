package setting

import "context"

// Keys of admin-editable texts.
const (
	KeyTerms   = "terms"
	KeyContact = "contact"
)

// Repository stores admin-editable key/value texts.
type Repository interface {
	// Get returns the stored value and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
