package domain

import "time"

// Credential is what the local identity provider keeps per email.
// Hash is a bcrypt digest; the plain secret is never stored.
type Credential struct {
	ID        string
	Email     string
	Hash      string
	CreatedAt time.Time
}
