package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/estudiopraxis/console/pkg/models"
)

// hashPayload is the canonical serialization hashed into the
// verification hash. It covers the immutable screening outcome only:
// the three observation fields are deliberately absent so analyst
// updates never alter the hash. Field order is fixed by the struct.
type hashPayload struct {
	Subject        models.Subject        `json:"subject"`
	Results        []models.MatchResult  `json:"results"`
	GAFIHighRisk   bool                  `json:"gafi_high_risk"`
	IsPEP          bool                  `json:"is_pep"`
	RiskLevel      models.RiskLevel      `json:"risk_level"`
	DiligenceLevel models.DiligenceLevel `json:"diligence_level"`
	CannotTransact bool                  `json:"cannot_transact"`
	CreatedAt      string                `json:"created_at"`
}

// ComputeVerificationHash digests the immutable screening outcome of a
// record. Re-computing on an unmodified record always reproduces the
// stored hash.
func ComputeVerificationHash(rec *models.VerificationRecord) (string, error) {
	payload := hashPayload{
		Subject:        rec.Subject(),
		Results:        canonicalResults(rec.Results),
		GAFIHighRisk:   rec.GAFIHighRisk,
		IsPEP:          rec.IsPEP,
		RiskLevel:      rec.RiskLevel,
		DiligenceLevel: rec.DiligenceLevel,
		CannotTransact: rec.CannotTransact,
		CreatedAt:      rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal hash payload: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// canonicalResults orders results by the canonical source order so the
// hash does not depend on fan-out completion order.
func canonicalResults(results []models.MatchResult) []models.MatchResult {
	out := make([]models.MatchResult, 0, len(results))
	for _, id := range models.AllSources() {
		for _, r := range results {
			if r.SourceID == id {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
