// Package supplement runs the Art. 44 C.4 complementary open-source
// searches (web, news, encyclopedia) for subjects under enhanced
// diligence and stores analyst-reviewable observations on the
// verification record.
package supplement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estudiopraxis/console/internal/ala/store"
	"github.com/estudiopraxis/console/pkg/models"
)

// Orchestrator fans out the three lookups and writes the combined
// observations in one update. Re-running overwrites prior
// observations; a cancelled run writes nothing.
type Orchestrator struct {
	records *store.RecordStore
	web     Channel
	news    Channel
	encyc   Channel
	timeout time.Duration
	logger  *zap.SugaredLogger
}

func NewOrchestrator(records *store.RecordStore, web, news, encyc Channel, timeout time.Duration, logger *zap.SugaredLogger) *Orchestrator {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Orchestrator{
		records: records,
		web:     web,
		news:    news,
		encyc:   encyc,
		timeout: timeout,
		logger:  logger,
	}
}

// Run performs the three lookups for the record's subject and persists
// the observations, marking each channel realized.
func (o *Orchestrator) Run(ctx context.Context, verificationID uuid.UUID) (*models.VerificationRecord, error) {
	rec, err := o.records.Get(ctx, verificationID, false)
	if err != nil {
		return nil, err
	}

	query := rec.FullName
	if rec.IsLegalEntity && rec.LegalEntityName != "" {
		query = rec.LegalEntityName
	}

	channels := []Channel{o.web, o.news, o.encyc}
	summaries := make([]string, len(channels))

	var wg sync.WaitGroup
	for i, ch := range channels {
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()
			lookupCtx, cancel := context.WithTimeout(ctx, o.timeout)
			defer cancel()

			summary, err := ch.Lookup(lookupCtx, query)
			if err != nil {
				o.logger.Warnw("complementary lookup failed",
					"channel", ch.Name(), "verification_id", verificationID, "error", err)
				summaries[i] = fmt.Sprintf("La búsqueda no pudo completarse (%s).", ch.Name())
				return
			}
			if summary == "" {
				summary = noFindings
			}
			summaries[i] = summary
		}(i, ch)
	}
	wg.Wait()

	// An aborted run must not half-write observations.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	realized := true
	upd := models.ObservationUpdate{
		WebSearchDone:           &realized,
		WebObservation:          &summaries[0],
		NewsSearchDone:          &realized,
		NewsObservation:         &summaries[1],
		EncyclopediaSearchDone:  &realized,
		EncyclopediaObservation: &summaries[2],
	}
	return o.records.UpdateObservations(ctx, verificationID, upd)
}
