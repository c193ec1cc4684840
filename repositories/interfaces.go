package repositories

import (
	"context"
	"errors"

	"github.com/upb/identity-service/models"
)

// ErrUserNotFound is returned by lookups that match no record.
var ErrUserNotFound = errors.New("user not found")

// TransactionManager manages database transactions.
type TransactionManager interface {
	// Begin starts a new transaction.
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction.
	// Automatically commits if the function succeeds, rolls back on error.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction.
type Transaction interface {
	// Commit commits the transaction.
	Commit() error

	// Rollback rolls back the transaction.
	Rollback() error

	// Context returns the transaction context.
	Context() context.Context
}

// UserRepository handles user record persistence. Implementations must
// enforce uniqueness on email and, when present, on external_id; the
// reconciliation flow relies on those constraints to stay race-free
// under concurrent logins by the same subject.
type UserRepository interface {
	// Create persists a new user and assigns its numeric id.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by numeric id.
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByExternalID retrieves a user by identity-provider subject id.
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)

	// ExistsByEmail reports whether any record carries the email,
	// regardless of auth provider.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Update persists changes to name, email, and updated_at.
	Update(ctx context.Context, user *models.User) error
}
