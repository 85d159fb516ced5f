package ports

import (
	"context"

	"github.com/tdex-network/market-store/internal/core/domain"
)

// RepoManager gives access to the repositories of the market store. The
// schema version check runs when the manager is created, before any
// repository is handed out.
type RepoManager interface {
	OrderRepository() domain.OrderRepository
	TransactionRepository() domain.TransactionRepository
	TickRepository() domain.TickRepository

	// DatabaseVersion returns the persisted schema version, "0" if none.
	DatabaseVersion(ctx context.Context) (string, error)
	// CheckDatabase upgrades the schema from the given version to the
	// latest one and persists it. It panics if version is malformed.
	CheckDatabase(ctx context.Context, version string) (int, error)

	// RunTransaction runs the handler in a single unit of work. Repository
	// calls made with the context given to the handler are committed
	// together, or not at all if the handler returns an error.
	RunTransaction(
		ctx context.Context,
		readOnly bool,
		handler func(ctx context.Context) (interface{}, error),
	) (interface{}, error)

	Close()
}
