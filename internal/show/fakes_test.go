package show

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/roastlab/roast-arena/internal/collab"
	"github.com/roastlab/roast-arena/internal/domain"
	"github.com/roastlab/roast-arena/internal/repository"
)

// In-memory repository and collaborator stand-ins. They implement just enough
// semantics for the scheduler: ordered queues, one-way used flags, per-session
// sequence numbers.

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*domain.Session)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
	return nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (r *fakeSessionRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.SessionStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != from || !domain.CanTransition(from, to) {
		return false, nil
	}
	s.Status = to
	return true, nil
}

func (r *fakeSessionRepo) GetActive(ctx context.Context) ([]*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Session
	for _, s := range r.sessions {
		if s.Status.IsActive() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) GetByStatus(ctx context.Context, status domain.SessionStatus) ([]*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Session
	for _, s := range r.sessions {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) GetLatestOpen(ctx context.Context) (*domain.Session, error) {
	open, _ := r.GetByStatus(ctx, domain.SessionStatusOpen)
	if len(open) == 0 {
		return nil, domain.ErrSessionNotFound
	}
	return open[0], nil
}

func (r *fakeSessionRepo) GetArchived(ctx context.Context, limit int) ([]*domain.Session, error) {
	return r.GetByStatus(ctx, domain.SessionStatusArchived)
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*domain.Message
}

func (r *fakeMessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range r.messages {
		if msg.ID == id {
			return msg, nil
		}
	}
	return nil, errors.New("message not found")
}

func (r *fakeMessageRepo) GetQueue(ctx context.Context, sessionID uuid.UUID) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var queue []*domain.Message
	for _, msg := range r.messages {
		if msg.SessionID == sessionID && !msg.Used {
			queue = append(queue, msg)
		}
	}
	return queue, nil
}

func (r *fakeMessageRepo) CountUnused(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	queue, _ := r.GetQueue(ctx, sessionID)
	return int64(len(queue)), nil
}

func (r *fakeMessageRepo) CountAll(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, msg := range r.messages {
		if msg.SessionID == sessionID {
			n++
		}
	}
	return n, nil
}

func (r *fakeMessageRepo) MarkUsed(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range r.messages {
		if msg.ID == id && !msg.Used {
			msg.Used = true
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeMessageRepo) MarkAllUsed(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, msg := range r.messages {
		if msg.SessionID == sessionID && !msg.Used {
			msg.Used = true
			n++
		}
	}
	return n, nil
}

type fakeExchangeRepo struct {
	mu        sync.Mutex
	exchanges []*domain.Exchange
}

func (r *fakeExchangeRepo) Create(ctx context.Context, ex *domain.Exchange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex.Seq = len(r.exchanges) + 1
	r.exchanges = append(r.exchanges, ex)
	return nil
}

func (r *fakeExchangeRepo) GetBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*domain.Exchange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Exchange
	for _, ex := range r.exchanges {
		if ex.SessionID == sessionID {
			out = append(out, ex)
		}
	}
	return out, nil
}

func (r *fakeExchangeRepo) all() []*domain.Exchange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.Exchange(nil), r.exchanges...)
}

type fakeUsageRepo struct {
	mu   sync.Mutex
	recs []*domain.UsageRecord
}

func (r *fakeUsageRepo) Create(ctx context.Context, rec *domain.UsageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
	return nil
}

func (r *fakeUsageRepo) GetBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*domain.UsageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.UsageRecord(nil), r.recs...), nil
}

type fakeRoundStateRepo struct {
	mu    sync.Mutex
	state *domain.GlobalRoundState
}

func (r *fakeRoundStateRepo) Get(ctx context.Context) (*domain.GlobalRoundState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, nil
}

func (r *fakeRoundStateRepo) Upsert(ctx context.Context, state *domain.GlobalRoundState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
	return nil
}

type fakeSnapshotRepo struct {
	mu   sync.Mutex
	puts []*domain.PlaybackSnapshot
}

func (r *fakeSnapshotRepo) Put(ctx context.Context, snap *domain.PlaybackSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.puts = append(r.puts, snap)
	return nil
}

func (r *fakeSnapshotRepo) Get(ctx context.Context, sessionID uuid.UUID) (*domain.PlaybackSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.puts) == 0 {
		return nil, errors.New("no snapshot")
	}
	return r.puts[len(r.puts)-1], nil
}

func (r *fakeSnapshotRepo) all() []*domain.PlaybackSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.PlaybackSnapshot(nil), r.puts...)
}

type fakeSubjectRepo struct {
	subjects map[string]*domain.Subject
}

func (r *fakeSubjectRepo) Upsert(ctx context.Context, subject *domain.Subject) error {
	if r.subjects == nil {
		r.subjects = make(map[string]*domain.Subject)
	}
	r.subjects[subject.Name] = subject
	return nil
}

func (r *fakeSubjectRepo) GetAll(ctx context.Context) ([]*domain.Subject, error) {
	var out []*domain.Subject
	for _, s := range r.subjects {
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeSubjectRepo) GetByName(ctx context.Context, name string) (*domain.Subject, error) {
	if s, ok := r.subjects[name]; ok {
		return s, nil
	}
	return nil, nil
}

func (r *fakeSubjectRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.subjects)), nil
}

type fakeLeaseRepo struct {
	mu      sync.Mutex
	holders map[uuid.UUID]uuid.UUID
}

func newFakeLeaseRepo() *fakeLeaseRepo {
	return &fakeLeaseRepo{holders: make(map[uuid.UUID]uuid.UUID)}
}

func (r *fakeLeaseRepo) Acquire(ctx context.Context, sessionID, holderID uuid.UUID, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.holders[sessionID]; ok && current != holderID {
		return false, nil
	}
	r.holders[sessionID] = holderID
	return true, nil
}

func (r *fakeLeaseRepo) Renew(ctx context.Context, sessionID, holderID uuid.UUID, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.holders[sessionID] == holderID, nil
}

func (r *fakeLeaseRepo) Release(ctx context.Context, sessionID, holderID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.holders[sessionID] == holderID {
		delete(r.holders, sessionID)
	}
	return nil
}

func newFakeRepos() *repository.Repositories {
	return &repository.Repositories{
		Session:    newFakeSessionRepo(),
		Message:    &fakeMessageRepo{},
		Exchange:   &fakeExchangeRepo{},
		Usage:      &fakeUsageRepo{},
		RoundState: &fakeRoundStateRepo{},
		Snapshot:   &fakeSnapshotRepo{},
		Subject:    &fakeSubjectRepo{},
		HostLease:  newFakeLeaseRepo(),
	}
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (g *fakeGenerator) Respond(ctx context.Context, subject, persona, roast string, host domain.HostID) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.fail {
		return "", errors.New("generator unavailable")
	}
	return "comeback to: " + roast, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeSynth struct {
	mu   sync.Mutex
	fail bool
}

func (s *fakeSynth) Speak(ctx context.Context, text string, voice domain.HostID) (*collab.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, errors.New("synth unavailable")
	}
	return &collab.Clip{Audio: []byte("mp3:" + text), Duration: 10 * time.Millisecond}, nil
}

type fakeAudioStore struct {
	mu    sync.Mutex
	saves int
}

func (s *fakeAudioStore) Save(audio []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	return "/media/fake.mp3", nil
}

type fakePublisher struct {
	mu        sync.Mutex
	snapshots []*domain.PlaybackSnapshot
	chatter   []ChatterEvent
}

func (p *fakePublisher) PublishSnapshot(ctx context.Context, snap *domain.PlaybackSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, snap)
	return nil
}

func (p *fakePublisher) PublishChatter(ctx context.Context, event ChatterEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chatter = append(p.chatter, event)
	return nil
}
