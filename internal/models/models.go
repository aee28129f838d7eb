package models

import "time"

// Role is the authorization level carried by a session.
type Role string

const (
	RoleAnonymous Role = ""
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
)

func (r Role) IsAdmin() bool { return r == RoleAdmin }

// Known reports whether the role is one the backend actually issues.
func (r Role) Known() bool { return r == RoleUser || r == RoleAdmin }

// User is the identity the backend embeds in tokens and act records.
type User struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ActStatus is the moderation state of a kindness act.
type ActStatus string

const (
	StatusPending  ActStatus = "pending"
	StatusApproved ActStatus = "approved"
	StatusRejected ActStatus = "rejected"
)

// KindnessAct is a suggested kindness activity as stored by the backend.
// The client only ever holds read-through copies of these.
type KindnessAct struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category,omitempty"`
	Difficulty  Difficulty `json:"difficulty"`
	CreatedBy   User       `json:"createdBy"`
	Status      ActStatus  `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// NewAct is the create/update payload. Status is overridden to pending for
// non-admin callers before the request leaves the client.
type NewAct struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category,omitempty"`
	Difficulty  Difficulty `json:"difficulty"`
	Status      ActStatus  `json:"status,omitempty"`
}

// SavedAct is a user's bookmark of an approved act.
type SavedAct struct {
	ID      string      `json:"_id"`
	User    string      `json:"user"`
	Act     KindnessAct `json:"act"`
	SavedAt time.Time   `json:"savedAt"`
}

// ActRef is the shallow act embedded in completed records.
type ActRef struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// CompletedAct is the terminal record that a user carried out an act.
// Never mutated or deleted through this client.
type CompletedAct struct {
	ID          string    `json:"_id"`
	User        string    `json:"user"`
	Act         ActRef    `json:"act"`
	CompletedAt time.Time `json:"completedAt"`
}
