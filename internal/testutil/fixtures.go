package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/roastlab/roast-arena/internal/domain"
	"gorm.io/gorm"
)

// SessionBuilder creates test sessions with a builder pattern
type SessionBuilder struct {
	subject string
	status  domain.SessionStatus
	locksAt time.Time
}

func NewSessionBuilder() *SessionBuilder {
	return &SessionBuilder{
		subject: fmt.Sprintf("Test Subject %s", uuid.New().String()[:8]),
		status:  domain.SessionStatusOpen,
		locksAt: time.Now().Add(2 * time.Minute),
	}
}

func (b *SessionBuilder) WithSubject(name string) *SessionBuilder {
	b.subject = name
	return b
}

func (b *SessionBuilder) WithStatus(status domain.SessionStatus) *SessionBuilder {
	b.status = status
	return b
}

func (b *SessionBuilder) WithLocksAt(t time.Time) *SessionBuilder {
	b.locksAt = t
	return b
}

func (b *SessionBuilder) Build(t *testing.T, db *gorm.DB) *domain.Session {
	t.Helper()

	session := &domain.Session{
		ID:          uuid.New(),
		SubjectName: b.subject,
		Status:      b.status,
		StartsAt:    time.Now(),
		LocksAt:     b.locksAt,
	}
	if err := db.Create(session).Error; err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return session
}

// MessageBuilder creates test messages
type MessageBuilder struct {
	sessionID  uuid.UUID
	transcript string
	used       bool
	createdAt  time.Time
}

func NewMessageBuilder(sessionID uuid.UUID) *MessageBuilder {
	return &MessageBuilder{
		sessionID:  sessionID,
		transcript: "your code reviews are longer than your commits",
		createdAt:  time.Now(),
	}
}

func (b *MessageBuilder) WithTranscript(text string) *MessageBuilder {
	b.transcript = text
	return b
}

func (b *MessageBuilder) WithUsed(used bool) *MessageBuilder {
	b.used = used
	return b
}

func (b *MessageBuilder) WithCreatedAt(t time.Time) *MessageBuilder {
	b.createdAt = t
	return b
}

func (b *MessageBuilder) Build(t *testing.T, db *gorm.DB) *domain.Message {
	t.Helper()

	msg := &domain.Message{
		ID:         uuid.New(),
		SessionID:  b.sessionID,
		Transcript: b.transcript,
		Used:       b.used,
		CreatedAt:  b.createdAt,
	}
	if err := db.Create(msg).Error; err != nil {
		t.Fatalf("failed to create message: %v", err)
	}
	return msg
}

// BuildSubject inserts one roster entry.
func BuildSubject(t *testing.T, db *gorm.DB, name string) *domain.Subject {
	t.Helper()

	subject := &domain.Subject{
		Name:    name,
		Persona: []byte(`{"bio":"test persona"}`),
	}
	if err := db.Create(subject).Error; err != nil {
		t.Fatalf("failed to create subject: %v", err)
	}
	return subject
}
