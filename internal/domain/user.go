package domain

import "time"

// User is a registered identity. Email is stored lowercase and unique.
// RefreshTokenHash holds the SHA-256 fingerprint of the single refresh token
// currently valid for this user; issuing a new one overwrites it, which is
// the sole revocation mechanism.
type User struct {
	ID               string
	Email            string
	FirstName        string
	LastName         string
	PasswordHash     string // argon2id encoded
	Role             string
	RefreshTokenHash string // empty until the first login
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
