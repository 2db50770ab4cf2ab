package certificate

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estudiopraxis/console/pkg/models"
)

func sampleRecord() *models.VerificationRecord {
	return &models.VerificationRecord{
		ID:             uuid.MustParse("5f1b3e84-8c1a-4a5e-9a93-2f8a4a2f9d11"),
		FullName:       "Juan Pérez",
		DocumentType:   "CI",
		DocumentNumber: "12345678",
		Nationality:    "UY",
		Results: []models.MatchResult{
			{SourceID: models.SourcePEPUY, Checked: true},
			{SourceID: models.SourceUN, Checked: true},
			{SourceID: models.SourceOFAC, Checked: true, HitCount: 1, BestMatch: "PEREZ, Juan", Score: 0.91},
			{SourceID: models.SourceEU, Checked: false},
		},
		RiskLevel:        models.RiskCritico,
		DiligenceLevel:   models.DiligenceIntensificada,
		CannotTransact:   true,
		VerificationHash: "ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12",
		CreatedAt:        time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestIssueEmbedsHashAndSubject(t *testing.T) {
	cert, err := NewIssuer("Estudio Praxis").Issue(sampleRecord())
	require.NoError(t, err)

	assert.Equal(t, sampleRecord().ID, cert.VerificationID)
	assert.Equal(t, sampleRecord().VerificationHash, cert.Hash)
	assert.Equal(t, "certificado-ala-5f1b3e84-8c1a-4a5e-9a93-2f8a4a2f9d11.pdf", cert.Filename)

	require.True(t, bytes.HasPrefix(cert.Content, []byte("%PDF")))
	// Uncompressed content streams keep the hash greppable.
	assert.True(t, bytes.Contains(cert.Content, []byte(sampleRecord().VerificationHash)))
	assert.True(t, bytes.Contains(cert.Content, []byte("CRITICO")))
}

func TestReissueIsByteIdentical(t *testing.T) {
	issuer := NewIssuer("Estudio Praxis")

	first, err := issuer.Issue(sampleRecord())
	require.NoError(t, err)
	second, err := issuer.Issue(sampleRecord())
	require.NoError(t, err)

	assert.True(t, bytes.Equal(first.Content, second.Content),
		"certificate content must be a pure function of the record")
}

func TestIssueLegalEntityUsesEntityName(t *testing.T) {
	rec := sampleRecord()
	rec.IsLegalEntity = true
	rec.LegalEntityName = "ACME HOLDINGS SA"

	cert, err := NewIssuer("").Issue(rec)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(cert.Content, []byte("ACME HOLDINGS SA")))
}
