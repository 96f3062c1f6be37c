package session

import "context"

// Durable keys, one set per browser session namespace.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
	KeyTenant       = "tenant"
	KeyTokenExpiry  = "token_expiry" // epoch milliseconds

	PrefLastSalesperson   = "last_salesperson"
	PrefLastStockType     = "last_stock_type"
	PrefLastPaymentStatus = "last_payment_status"
)

var prefKeys = map[string]bool{
	PrefLastSalesperson:   true,
	PrefLastStockType:     true,
	PrefLastPaymentStatus: true,
}

// Store is durable key-value storage partitioned by namespace (the browser
// session id). Save upserts the given keys and leaves the others alone.
type Store interface {
	Load(ctx context.Context, namespace string) (map[string]string, error)
	Save(ctx context.Context, namespace string, values map[string]string) error
	Clear(ctx context.Context, namespace string) error
}
