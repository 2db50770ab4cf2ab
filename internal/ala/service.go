// Package ala wires the watchlist-screening engine: list ingestion,
// identity matching, risk classification, record persistence,
// complementary searches and certificate issuance.
package ala

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/estudiopraxis/console/internal/ala/certificate"
	"github.com/estudiopraxis/console/internal/ala/ingest"
	"github.com/estudiopraxis/console/internal/ala/screening"
	"github.com/estudiopraxis/console/internal/ala/store"
	"github.com/estudiopraxis/console/internal/ala/supplement"
	"github.com/estudiopraxis/console/pkg/errors"
	"github.com/estudiopraxis/console/pkg/models"
)

var verificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ala_verifications_total",
	Help: "Completed subject verifications by resulting risk level.",
}, []string{"risk_level"})

// Service is the application facade over the screening engine. HTTP
// handlers call it and nothing below it.
type Service struct {
	manager      *ingest.Manager
	matcher      *screening.Matcher
	countryRisk  *screening.CountryRiskTable
	records      *store.RecordStore
	orchestrator *supplement.Orchestrator
	issuer       *certificate.Issuer
	logger       *zap.SugaredLogger
}

func NewService(
	manager *ingest.Manager,
	matcher *screening.Matcher,
	countryRisk *screening.CountryRiskTable,
	records *store.RecordStore,
	orchestrator *supplement.Orchestrator,
	issuer *certificate.Issuer,
	logger *zap.SugaredLogger,
) *Service {
	return &Service{
		manager:      manager,
		matcher:      matcher,
		countryRisk:  countryRisk,
		records:      records,
		orchestrator: orchestrator,
		issuer:       issuer,
		logger:       logger,
	}
}

// Verify screens a subject against the four lists, derives the
// classification and persists the verification record.
func (s *Service) Verify(ctx context.Context, subject models.Subject) (*models.VerificationRecord, error) {
	if subject.Nationality == "" {
		// Uruguayan residents are the default clientele.
		subject.Nationality = "UY"
	}

	start := time.Now()
	results := s.matcher.MatchAll(ctx, subject)
	gafiHighRisk := s.countryRisk.IsHighRisk(subject.Nationality)

	classification, err := screening.Classify(results, gafiHighRisk)
	if err != nil {
		return nil, err
	}

	rec, err := s.records.Create(ctx, subject, results, gafiHighRisk, classification)
	if err != nil {
		return nil, err
	}

	verificationsTotal.WithLabelValues(string(rec.RiskLevel)).Inc()
	s.logger.Infow("subject verified",
		"verification_id", rec.ID,
		"risk_level", rec.RiskLevel,
		"is_pep", rec.IsPEP,
		"cannot_transact", rec.CannotTransact,
		"elapsed", time.Since(start))
	return rec, nil
}

// Get returns a verification record, excluding soft-deleted ones.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.VerificationRecord, error) {
	return s.records.Get(ctx, id, false)
}

// List returns non-deleted records newest-first with the total count.
func (s *Service) List(ctx context.Context, limit, offset int) ([]models.VerificationRecord, int64, error) {
	return s.records.List(ctx, limit, offset)
}

// UpdateObservations applies an analyst's partial observation update.
func (s *Service) UpdateObservations(ctx context.Context, id uuid.UUID, upd models.ObservationUpdate) (*models.VerificationRecord, error) {
	return s.records.UpdateObservations(ctx, id, upd)
}

// Delete soft-deletes a verification record.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.records.SoftDelete(ctx, id)
}

// RunSupplementary executes the three complementary open-source
// searches for the record's subject and stores the observations.
func (s *Service) RunSupplementary(ctx context.Context, id uuid.UUID) (*models.VerificationRecord, error) {
	return s.orchestrator.Run(ctx, id)
}

// IssueCertificate renders the audit PDF for a record. The record's
// stored hash is verified first so a tampered row cannot be certified.
func (s *Service) IssueCertificate(ctx context.Context, id uuid.UUID) (*models.Certificate, error) {
	rec, err := s.records.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	recomputed, err := store.ComputeVerificationHash(rec)
	if err != nil {
		return nil, err
	}
	if recomputed != rec.VerificationHash {
		return nil, errors.Internal.Explain(
			"verification %s failed integrity check, certificate refused", id)
	}
	return s.issuer.Issue(rec)
}

// ListMetadata returns the state of the four watchlist sources.
func (s *Service) ListMetadata() []models.WatchlistSource {
	return s.manager.Metadata()
}

// RefreshSources refreshes all watchlist sources concurrently.
func (s *Service) RefreshSources(ctx context.Context) []models.WatchlistSource {
	return s.manager.RefreshAll(ctx)
}
