package postgres

import (
	"context"
	"errors"

	"github.com/roastlab/roast-arena/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type subjectRepository struct {
	db *gorm.DB
}

func NewSubjectRepository(db *gorm.DB) *subjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) Upsert(ctx context.Context, subject *domain.Subject) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			UpdateAll: true,
		}).
		Create(subject).Error
}

func (r *subjectRepository) GetAll(ctx context.Context) ([]*domain.Subject, error) {
	var subjects []*domain.Subject
	err := r.db.WithContext(ctx).Order("name ASC").Find(&subjects).Error
	if err != nil {
		return nil, err
	}
	return subjects, nil
}

func (r *subjectRepository) GetByName(ctx context.Context, name string) (*domain.Subject, error) {
	var subject domain.Subject
	err := r.db.WithContext(ctx).First(&subject, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *subjectRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Subject{}).Count(&n).Error
	return n, err
}
