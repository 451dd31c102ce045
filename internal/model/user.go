// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account on the portal.
//
// WHY PasswordHash WITH json:"-"?
// The hash must never leave the server. Tagging the field with "-" makes
// encoding/json skip it entirely, so even a handler that encodes the whole
// struct cannot leak it. Handlers still return the explicit UserResponse
// projection, but the tag is the backstop.
//
// WHY Email string (not normalized at write time)?
// "A@x.com" and "a@x.com" are the same mailbox in practice. Rather than
// lowercasing in application code, the uniqueness index on the users table
// uses COLLATE NOCASE so the database — not scattered call sites — is the
// authority on duplicates. The stored value keeps the casing the user typed.
type User struct {
	ID           string    `json:"id"         db:"id"`
	Email        string    `json:"email"      db:"email"`
	PasswordHash string    `json:"-"          db:"password_hash"`
	FullName     string    `json:"full_name"  db:"full_name"`
	IsActive     bool      `json:"is_active"  db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
