package services

import (
	"context"
	"errors"
	"time"

	"github.com/upb/identity-service/models"
	"github.com/upb/identity-service/repositories"
	"go.uber.org/zap"
)

// UniqueViolationChecker reports whether a storage error came from a
// uniqueness constraint. The postgres package provides the production
// implementation.
type UniqueViolationChecker func(error) bool

// UserService reconciles external identities and local credentials onto
// persisted user records.
type UserService struct {
	repo              repositories.UserRepository
	txManager         repositories.TransactionManager
	hasher            PasswordHasher
	isUniqueViolation UniqueViolationChecker
	logger            *zap.Logger
}

// NewUserService creates a new UserService. txManager and
// isUniqueViolation may be nil; reconciliation then runs without an
// enclosing transaction and duplicate detection falls back to re-lookup.
func NewUserService(
	repo repositories.UserRepository,
	txManager repositories.TransactionManager,
	hasher PasswordHasher,
	isUniqueViolation UniqueViolationChecker,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		repo:              repo,
		txManager:         txManager,
		hasher:            hasher,
		isUniqueViolation: isUniqueViolation,
		logger:            logger,
	}
}

// ReconcileExternal maps an external identity onto a user record: the
// record keyed by the identity's subject id is refreshed with the latest
// name and email, or created when absent. Repeated calls with the same
// subject converge to the latest claims and never duplicate records;
// the storage uniqueness constraint on external_id closes the race
// between concurrent first logins.
func (s *UserService) ReconcileExternal(ctx context.Context, identity models.Identity) (*models.User, error) {
	if identity.Subject == "" {
		return nil, ErrMissingExternalID
	}

	var user *models.User
	reconcile := func(ctx context.Context) error {
		existing, err := s.repo.GetByExternalID(ctx, identity.Subject)
		switch {
		case err == nil:
			existing.Name = identity.Name
			existing.Email = identity.Email
			existing.UpdatedAt = time.Now()
			if err := s.repo.Update(ctx, existing); err != nil {
				return WrapInternal("failed to update external user", err)
			}
			user = existing
			return nil
		case errors.Is(err, repositories.ErrUserNotFound):
			created, err := models.NewExternalUser(identity.Name, identity.Email, identity.Subject)
			if err != nil {
				return NewDomainError(ErrorTypeValidation, "invalid external identity", err)
			}
			if err := s.repo.Create(ctx, created); err != nil {
				return WrapInternal("failed to create external user", err)
			}
			user = created
			return nil
		default:
			return WrapInternal("failed to look up external user", err)
		}
	}

	err := s.inTransaction(ctx, reconcile)
	if err != nil && s.isUniqueViolation != nil && s.isUniqueViolation(err) {
		// A concurrent reconcile for the same subject won the insert.
		// Converge on the surviving record.
		s.logger.Debug("external user insert lost race, re-reading",
			zap.String("external_id", identity.Subject))
		existing, lookupErr := s.repo.GetByExternalID(ctx, identity.Subject)
		if lookupErr != nil {
			return nil, WrapInternal("failed to converge after duplicate insert", lookupErr)
		}
		return existing, nil
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("external identity reconciled",
		zap.Int64("user_id", user.ID),
		zap.String("external_id", identity.Subject))
	return user, nil
}

// Register creates a local user with a hashed password. The email must
// be unused by any record, local or external.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, WrapInternal("failed to check email", err)
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, WrapInternal("failed to hash password", err)
	}

	user, err := models.NewLocalUser(name, email, hash)
	if err != nil {
		return nil, NewDomainError(ErrorTypeValidation, "invalid registration", err)
	}

	if err := s.repo.Create(ctx, user); err != nil {
		// The existence check and the insert are not atomic; the email
		// uniqueness constraint catches the window in between.
		if s.isUniqueViolation != nil && s.isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, WrapInternal("failed to create user", err)
	}

	s.logger.Info("local user registered",
		zap.Int64("user_id", user.ID),
		zap.String("email", user.Email))
	return user, nil
}

// Authenticate verifies local credentials. Every failure mode, unknown
// email, external-only record, or wrong password, returns the same
// ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, WrapInternal("failed to look up user", err)
	}

	if user.PasswordHash == nil || !s.hasher.Verify(*user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetByID retrieves a user by numeric id.
func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, WrapInternal("failed to look up user", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, WrapInternal("failed to look up user", err)
	}
	return user, nil
}

func (s *UserService) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txManager == nil {
		return fn(ctx)
	}
	return s.txManager.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		return fn(txCtx)
	})
}
