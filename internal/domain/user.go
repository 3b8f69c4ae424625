package domain

import "time"

// Role controls what a user may do. Capability checks happen once, at the
// lifecycle boundary, not inside individual handlers.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleGuest Role = "guest"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin || r == RoleGuest
}

// IsAdmin reports whether the role grants administrative capabilities.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// User carries the reward-relevant subset of a profile. Level is denormalised
// and recomputed from Exp on every credit.
type User struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email,omitempty"`
	JobPosition string     `json:"job_position,omitempty"`
	Role        Role       `json:"role"`
	Exp         int        `json:"exp"`
	Honor       int        `json:"honor"`
	Level       int        `json:"level"`
	Active      bool       `json:"active"`
	LastSeen    *time.Time `json:"last_seen,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
