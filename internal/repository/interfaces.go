package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/roastlab/roast-arena/internal/domain"
)

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	// TransitionStatus is a compare-and-set on status. It returns true only
	// if this call performed the transition; a concurrent caller that lost
	// the race gets false with no error.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.SessionStatus) (bool, error)
	GetActive(ctx context.Context) ([]*domain.Session, error)
	GetByStatus(ctx context.Context, status domain.SessionStatus) ([]*domain.Session, error)
	GetLatestOpen(ctx context.Context) (*domain.Session, error)
	GetArchived(ctx context.Context, limit int) ([]*domain.Session, error)
}

type MessageRepository interface {
	// Create inserts the message only while the owning session is still
	// open; otherwise it fails with domain.ErrSubmissionsClosed.
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	// GetQueue returns the session's unconsumed messages in creation order.
	GetQueue(ctx context.Context, sessionID uuid.UUID) ([]*domain.Message, error)
	CountUnused(ctx context.Context, sessionID uuid.UUID) (int64, error)
	CountAll(ctx context.Context, sessionID uuid.UUID) (int64, error)
	// MarkUsed flips used false -> true, conditioned on the owning session
	// being live, and bumps the global roast index in the same transaction.
	// The flag never flips back. Returns true if this call did the flip.
	MarkUsed(ctx context.Context, id uuid.UUID) (bool, error)
	// MarkAllUsed is the completion-time cleanup: any leftover unused
	// messages of the (already archived) session are consumed in bulk.
	MarkAllUsed(ctx context.Context, sessionID uuid.UUID) (int64, error)
}

type ExchangeRepository interface {
	// Create assigns the next per-session sequence number atomically.
	Create(ctx context.Context, ex *domain.Exchange) error
	GetBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*domain.Exchange, error)
}

type UsageRepository interface {
	Create(ctx context.Context, rec *domain.UsageRecord) error
	GetBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*domain.UsageRecord, error)
}

type RoundStateRepository interface {
	// Get returns the most recently updated row.
	Get(ctx context.Context) (*domain.GlobalRoundState, error)
	Upsert(ctx context.Context, state *domain.GlobalRoundState) error
}

type SnapshotRepository interface {
	Put(ctx context.Context, snap *domain.PlaybackSnapshot) error
	Get(ctx context.Context, sessionID uuid.UUID) (*domain.PlaybackSnapshot, error)
}

type SubjectRepository interface {
	Upsert(ctx context.Context, subject *domain.Subject) error
	GetAll(ctx context.Context) ([]*domain.Subject, error)
	GetByName(ctx context.Context, name string) (*domain.Subject, error)
	Count(ctx context.Context) (int64, error)
}

type HostLeaseRepository interface {
	// Acquire claims the session's host role for holder if the lease is
	// absent, expired, or already held by holder. Returns true on success.
	Acquire(ctx context.Context, sessionID, holderID uuid.UUID, ttl time.Duration) (bool, error)
	// Renew extends the lease, conditioned on holder still owning it.
	Renew(ctx context.Context, sessionID, holderID uuid.UUID, ttl time.Duration) (bool, error)
	Release(ctx context.Context, sessionID, holderID uuid.UUID) error
}

type Repositories struct {
	Session    SessionRepository
	Message    MessageRepository
	Exchange   ExchangeRepository
	Usage      UsageRepository
	RoundState RoundStateRepository
	Snapshot   SnapshotRepository
	Subject    SubjectRepository
	HostLease  HostLeaseRepository
}
