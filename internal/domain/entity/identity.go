// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

// Identity is the canonical description of an authenticated user, as issued by
// the central identity app and embedded inside every access token's "data" claim.
type Identity struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Provider string `json:"provider"` // Sign-in provider, e.g. "google", "apple", "email".
}
