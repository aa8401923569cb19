package domain

import "time"

// Role enumerates the three caller roles.
type Role string

const (
	RoleResident Role = "RESIDENT"
	RoleStaff    Role = "STAFF"
	RoleAdmin    Role = "ADMIN"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleResident, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// User is the domain model for accounts that authenticate against the service.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor is the already-authenticated identity an operation runs as. The
// lifecycle engine trusts it completely; credential checks happen upstream.
type Actor struct {
	ID   string
	Role Role
}

// ActorFor derives the acting identity from a user record.
func ActorFor(u *User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}
