// Package store persists verification records. Records are append-only
// aggregates: the screening outcome is immutable after creation and
// only the three Art. 44 C.4 observation fields accept updates.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"

	"github.com/estudiopraxis/console/internal/ala/screening"
	"github.com/estudiopraxis/console/pkg/errors"
	"github.com/estudiopraxis/console/pkg/models"
)

// RecordStore is the gorm-backed verification record repository.
type RecordStore struct {
	db        *gorm.DB
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

// NewRecordStore migrates the schema and returns the repository.
func NewRecordStore(db *gorm.DB) (*RecordStore, error) {
	if err := db.AutoMigrate(&models.VerificationRecord{}); err != nil {
		return nil, fmt.Errorf("migrate verification records: %w", err)
	}
	return &RecordStore{
		db:        db,
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
	}, nil
}

// WithClock replaces the clock. Tests pin it to make hashes
// reproducible.
func (s *RecordStore) WithClock(now func() time.Time) *RecordStore {
	s.now = now
	return s
}

// Create persists a new verification record and computes its hash over
// the canonical serialization of the immutable screening outcome.
//
// CreatedAt is truncated to microseconds: postgres timestamptz keeps no
// finer precision, and a sub-microsecond residue would make the hash
// unverifiable after a read back.
func (s *RecordStore) Create(ctx context.Context, subject models.Subject, results []models.MatchResult, gafiHighRisk bool, c screening.Classification) (*models.VerificationRecord, error) {
	rec := &models.VerificationRecord{
		ID:              uuid.New(),
		FullName:        subject.FullName,
		DocumentType:    subject.DocumentType,
		DocumentNumber:  subject.DocumentNumber,
		Nationality:     subject.Nationality,
		BirthDate:       subject.BirthDate,
		IsLegalEntity:   subject.IsLegalEntity,
		LegalEntityName: subject.LegalEntityName,
		Results:         results,
		GAFIHighRisk:    gafiHighRisk,
		IsPEP:           c.IsPEP,
		RiskLevel:       c.RiskLevel,
		DiligenceLevel:  c.DiligenceLevel,
		CannotTransact:  c.CannotTransact,
		CreatedAt:       s.now().UTC().Truncate(time.Microsecond),
	}

	hash, err := ComputeVerificationHash(rec)
	if err != nil {
		return nil, err
	}
	rec.VerificationHash = hash

	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("create verification record: %w", err)
	}
	return rec, nil
}

// Get returns a record by id. Soft-deleted records are only returned
// when includeDeleted is set.
func (s *RecordStore) Get(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.VerificationRecord, error) {
	var rec models.VerificationRecord
	q := s.db.WithContext(ctx).Where("id = ?", id)
	if !includeDeleted {
		q = q.Where("deleted = ?", false)
	}
	if err := q.First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound.Explain("verification %s not found", id)
		}
		return nil, fmt.Errorf("get verification record: %w", err)
	}
	return &rec, nil
}

// List returns non-deleted records newest-first with the total count.
func (s *RecordStore) List(ctx context.Context, limit, offset int) ([]models.VerificationRecord, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	base := s.db.WithContext(ctx).Model(&models.VerificationRecord{}).Where("deleted = ?", false)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count verification records: %w", err)
	}

	var recs []models.VerificationRecord
	err := base.Order("created_at DESC").Limit(limit).Offset(offset).Find(&recs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list verification records: %w", err)
	}
	return recs, total, nil
}

// UpdateObservations applies a partial update of the three observation
// field pairs. All other fields are untouched and the verification
// hash never changes. Free text is sanitized before storage.
func (s *RecordStore) UpdateObservations(ctx context.Context, id uuid.UUID, upd models.ObservationUpdate) (*models.VerificationRecord, error) {
	rec, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if upd.WebSearchDone != nil {
		changes["web_search_done"] = *upd.WebSearchDone
	}
	if upd.WebObservation != nil {
		changes["web_observation"] = s.sanitizer.Sanitize(*upd.WebObservation)
	}
	if upd.NewsSearchDone != nil {
		changes["news_search_done"] = *upd.NewsSearchDone
	}
	if upd.NewsObservation != nil {
		changes["news_observation"] = s.sanitizer.Sanitize(*upd.NewsObservation)
	}
	if upd.EncyclopediaSearchDone != nil {
		changes["encyclopedia_search_done"] = *upd.EncyclopediaSearchDone
	}
	if upd.EncyclopediaObservation != nil {
		changes["encyclopedia_observation"] = s.sanitizer.Sanitize(*upd.EncyclopediaObservation)
	}
	if len(changes) == 0 {
		return rec, nil
	}

	err = s.db.WithContext(ctx).Model(&models.VerificationRecord{}).
		Where("id = ?", id).Updates(changes).Error
	if err != nil {
		return nil, fmt.Errorf("update observations: %w", err)
	}
	return s.Get(ctx, id, false)
}

// SoftDelete flags the record as deleted. Data is retained for the
// regulatory record; the record simply disappears from listings.
func (s *RecordStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	rec, err := s.Get(ctx, id, false)
	if err != nil {
		return err
	}
	deletedAt := s.now().UTC()
	err = s.db.WithContext(ctx).Model(rec).
		Updates(map[string]interface{}{"deleted": true, "deleted_at": deletedAt}).Error
	if err != nil {
		return fmt.Errorf("soft delete verification record: %w", err)
	}
	return nil
}
