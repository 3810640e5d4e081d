package model

import "time"

// Roles as stored in users.role and transmitted in API payloads.
// Comparison is case-sensitive everywhere.
const (
	RoleClient      = "CLIENT"       // books services, places orders
	RoleServiceUser = "SERVICE_USER" // provider; owns service listings
	RoleAdmin       = "ADMIN"        // unrestricted
)

// ValidRole reports whether s is one of the three known roles.
func ValidRole(s string) bool {
	return s == RoleClient || s == RoleServiceUser || s == RoleAdmin
}

// User represents an application user record as stored in the
// `users` table. The role is immutable after registration; profile
// updates touch only name, phone and address. Handlers define
// separate response types with JSON tags, so none appear here.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – CLIENT, SERVICE_USER or ADMIN.
//  Name         – display name.
//  Phone        – contact phone number.
//  Address      – postal address.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	Name         string    // users.name
	Phone        string    // users.phone
	Address      string    // users.address
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user; only the SHA-256 hash of the
// token value is stored.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
