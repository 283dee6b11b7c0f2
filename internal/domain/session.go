package domain

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusOpen     SessionStatus = "open"
	SessionStatusLocked   SessionStatus = "locked"
	SessionStatusLive     SessionStatus = "live"
	SessionStatusArchived SessionStatus = "archived"
)

// statusRank orders the lifecycle. Transitions only ever move to a higher rank.
var statusRank = map[SessionStatus]int{
	SessionStatusOpen:     0,
	SessionStatusLocked:   1,
	SessionStatusLive:     2,
	SessionStatusArchived: 3,
}

// CanTransition reports whether moving from -> to is a forward step.
func CanTransition(from, to SessionStatus) bool {
	fr, ok1 := statusRank[from]
	tr, ok2 := statusRank[to]
	return ok1 && ok2 && tr > fr
}

// IsActive reports whether the status counts against the single-active-session
// invariant (anything not yet archived).
func (s SessionStatus) IsActive() bool {
	return s == SessionStatusOpen || s == SessionStatusLocked || s == SessionStatusLive
}

// Session is one roast round against a single target subject.
type Session struct {
	ID            uuid.UUID     `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SubjectName   string        `json:"subjectName" gorm:"not null"`
	SubjectAvatar string        `json:"subjectAvatar"`
	Status        SessionStatus `json:"status" gorm:"not null;default:'open';index"`
	StartsAt      time.Time     `json:"startsAt"`
	LocksAt       time.Time     `json:"locksAt" gorm:"not null"`
	CreatedAt     time.Time     `json:"createdAt"`

	Messages []Message `json:"messages,omitempty" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}
