package engagement

import "context"

// LinkRepository loads and replaces the whole link registry.
type LinkRepository interface {
	LoadLinks(ctx context.Context) (Links, error)
	SaveLinks(ctx context.Context, links Links) error
}

// QuotaRepository loads and replaces the whole set of submission counters.
type QuotaRepository interface {
	LoadQuotas(ctx context.Context) (Quotas, error)
	SaveQuotas(ctx context.Context, quotas Quotas) error
}

// Repository persists both documents. A missing document loads as an empty
// mapping; every save rewrites the full document.
type Repository interface {
	LinkRepository
	QuotaRepository
}
