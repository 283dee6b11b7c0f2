package postgres

import (
	"github.com/roastlab/roast-arena/internal/domain"
	"github.com/roastlab/roast-arena/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewConnection(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates the schema. Shared with the test harness.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Session{},
		&domain.Message{},
		&domain.Exchange{},
		&domain.UsageRecord{},
		&domain.GlobalRoundState{},
		&domain.PlaybackSnapshot{},
		&domain.Subject{},
		&domain.HostLease{},
	)
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		Session:    NewSessionRepository(db),
		Message:    NewMessageRepository(db),
		Exchange:   NewExchangeRepository(db),
		Usage:      NewUsageRepository(db),
		RoundState: NewRoundStateRepository(db),
		Snapshot:   NewSnapshotRepository(db),
		Subject:    NewSubjectRepository(db),
		HostLease:  NewHostLeaseRepository(db),
	}
}
