package store

import (
	"context"
	"errors"

	"github.com/bitmerch/bitmerch/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	Products() Products
	Transactions() Transactions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks up a user by lowercase email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByRefreshTokenHash finds the user whose current refresh token
	// fingerprint equals hash. A miss means the token was never issued or
	// has already been rotated away.
	GetUserByRefreshTokenHash(ctx context.Context, hash string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// A duplicate email yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateRefreshTokenHash unconditionally overwrites the stored refresh
	// token fingerprint and bumps updated_at. Last writer wins; concurrent
	// refreshes for the same user are not linearized.
	UpdateRefreshTokenHash(ctx context.Context, userID string, hash string) error
}

type Products interface {
	// CreateProduct inserts a new product record.
	CreateProduct(ctx context.Context, p domain.Product) error

	// GetProductByID returns a product by id.
	GetProductByID(ctx context.Context, id string) (domain.Product, error)

	// ListProducts returns one page of products, oldest first.
	ListProducts(ctx context.Context, limit, offset int64) ([]domain.Product, error)

	// CountProducts returns the total number of products.
	CountProducts(ctx context.Context) (int64, error)
}

type Transactions interface {
	// CreateTransaction records a verified payment.
	CreateTransaction(ctx context.Context, t domain.Transaction) error

	// GetTransactionByReference returns a transaction by payment reference.
	GetTransactionByReference(ctx context.Context, reference string) (domain.Transaction, error)
}
