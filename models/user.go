package models

import (
	"fmt"
	"time"
)

// AuthProvider tags how a user record authenticates.
type AuthProvider string

const (
	// ProviderLocal marks users registered with email and password.
	ProviderLocal AuthProvider = "local"

	// ProviderExternal marks users created from an OpenID Connect identity.
	ProviderExternal AuthProvider = "external"
)

// User represents a persisted user record. Local users carry a password
// hash; external users carry the provider's subject id. The two are never
// merged: a local user and an external user sharing an email remain
// distinct records as far as this service is concerned, and the storage
// layer enforces email uniqueness across both.
type User struct {
	ID           int64        `json:"id" db:"id"`
	Email        string       `json:"email" db:"email"`
	Name         string       `json:"name" db:"name"`
	PasswordHash *string      `json:"-" db:"password_hash"`
	AuthProvider AuthProvider `json:"auth_provider" db:"auth_provider"`
	ExternalID   *string      `json:"external_id,omitempty" db:"external_id"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model.
func (User) TableName() string {
	return "users"
}

// NewLocalUser creates a user record for password authentication.
func NewLocalUser(name, email, passwordHash string) (*User, error) {
	if passwordHash == "" {
		return nil, fmt.Errorf("local user requires a password hash")
	}
	now := time.Now()
	return &User{
		Email:        email,
		Name:         name,
		PasswordHash: &passwordHash,
		AuthProvider: ProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NewExternalUser creates a user record for an identity-provider subject.
func NewExternalUser(name, email, externalID string) (*User, error) {
	if externalID == "" {
		return nil, fmt.Errorf("external user requires a subject id")
	}
	now := time.Now()
	return &User{
		Email:        email,
		Name:         name,
		AuthProvider: ProviderExternal,
		ExternalID:   &externalID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsExternal reports whether the record came from an identity provider.
func (u *User) IsExternal() bool {
	return u.AuthProvider == ProviderExternal
}

// Identity is the normalized view of an external identity derived from
// token claims. It is ephemeral, computed per login.
type Identity struct {
	Subject string
	Email   string
	Name    string
}
