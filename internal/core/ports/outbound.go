package ports

import (
	"context"

	"github.com/steelhub/parts-matcher/internal/core/domain"
)

// CatalogStore answers the raw catalog query shapes. Implementations must be
// safe for concurrent reads; the batch orchestrator shares one store across
// in-flight line items.
type CatalogStore interface {
	// LookupByNumber returns the part whose identifier equals text
	// (case/space-insensitive), or domain.ErrPartNotFound.
	LookupByNumber(ctx context.Context, text string) (*domain.Part, error)
	// SearchByNumberPartial returns parts whose identifier contains text,
	// ordered exact > prefix > substring.
	SearchByNumberPartial(ctx context.Context, text string, limit int) ([]domain.Part, error)
	// SearchFullText runs a relevance-ranked full-text query over
	// description and keyword text.
	SearchFullText(ctx context.Context, text string, limit int) ([]domain.Part, error)
	// SearchByDescription returns parts whose description contains text,
	// ordered starts-with > whole-word > other.
	SearchByDescription(ctx context.Context, text string, limit int) ([]domain.Part, error)
	// SearchFiltered applies filters AND'd with a description substring
	// when text is non-empty.
	SearchFiltered(ctx context.Context, text string, filters domain.SearchFilters, limit int) ([]domain.Part, error)
}

// OrderRepository persists uploaded orders and their line items.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListLineItems(ctx context.Context, orderID string) ([]domain.LineItem, error)
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, errMessage string) error
}

// MatchResultRepository persists one batch run's outcome per order.
type MatchResultRepository interface {
	SaveBatchResult(ctx context.Context, orderID string, result *domain.BatchResult) error
	GetBatchResult(ctx context.Context, orderID string) (*domain.BatchResult, error)
}

// MessageQueue publishes/consumes match job events.
type MessageQueue interface {
	PublishMatchRequested(ctx context.Context, orderID string) error
	SubscribeMatchRequested(ctx context.Context, handler func(context.Context, string) error) error
}
