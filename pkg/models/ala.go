package models

import (
	"time"

	"github.com/google/uuid"
)

// WatchlistSourceID identifies one of the four screened lists.
type WatchlistSourceID string

const (
	SourcePEPUY WatchlistSourceID = "PEP_UY"
	SourceUN    WatchlistSourceID = "UN"
	SourceOFAC  WatchlistSourceID = "OFAC"
	SourceEU    WatchlistSourceID = "EU"
)

// AllSources returns the screened sources in canonical order.
func AllSources() []WatchlistSourceID {
	return []WatchlistSourceID{SourcePEPUY, SourceUN, SourceOFAC, SourceEU}
}

// SourceStatus is the fetch state of a watchlist source.
type SourceStatus string

const (
	SourceStatusOK    SourceStatus = "ok"
	SourceStatusStale SourceStatus = "stale"
	SourceStatusError SourceStatus = "error"
)

// WatchlistSource is the snapshot state of one list source.
// Mutated only by the ingestion manager; read by the matcher.
type WatchlistSource struct {
	ID          WatchlistSourceID `json:"id"`
	Name        string            `json:"name"`
	LastFetched time.Time         `json:"last_fetched"`
	RecordCount int               `json:"record_count"`
	Status      SourceStatus      `json:"status"`
	LastError   string            `json:"last_error,omitempty"`
}

// WatchlistEntry is a normalized list record. Immutable once stored;
// a source refresh replaces the whole entry set.
type WatchlistEntry struct {
	ID       string            `json:"id"`
	SourceID WatchlistSourceID `json:"source_id"`
	// FullName is the display form; MatchName is lower-cased with
	// diacritics stripped, used for similarity scoring.
	FullName     string   `json:"full_name"`
	MatchName    string   `json:"match_name"`
	Aliases      []string `json:"aliases,omitempty"`
	MatchAliases []string `json:"match_aliases,omitempty"`
	Documents    []string `json:"documents,omitempty"`
	Reference    string   `json:"reference,omitempty"`
}

// Subject is the person or entity being screened. It is not persisted
// independently of a VerificationRecord.
type Subject struct {
	FullName        string     `json:"full_name"`
	DocumentType    string     `json:"document_type,omitempty"`
	DocumentNumber  string     `json:"document_number,omitempty"`
	Nationality     string     `json:"nationality"`
	BirthDate       *time.Time `json:"birth_date,omitempty"`
	IsLegalEntity   bool       `json:"is_legal_entity"`
	LegalEntityName string     `json:"legal_entity_name,omitempty"`
}

// MatchResult is the outcome of screening a subject against one list.
// Checked=false means the source was not reachable; HitCount and the
// match fields are meaningless in that case.
type MatchResult struct {
	SourceID  WatchlistSourceID `json:"source_id"`
	Checked   bool              `json:"checked"`
	HitCount  int               `json:"hit_count"`
	BestMatch string            `json:"best_match,omitempty"`
	Score     float64           `json:"score"`
}

// RiskLevel is the regulatory risk classification.
type RiskLevel string

const (
	RiskBajo    RiskLevel = "BAJO"
	RiskMedio   RiskLevel = "MEDIO"
	RiskAlto    RiskLevel = "ALTO"
	RiskCritico RiskLevel = "CRITICO"
)

// DiligenceLevel is the required due-diligence intensity.
type DiligenceLevel string

const (
	DiligenceSimplificada  DiligenceLevel = "SIMPLIFICADA"
	DiligenceNormal        DiligenceLevel = "NORMAL"
	DiligenceIntensificada DiligenceLevel = "INTENSIFICADA"
)

// VerificationRecord is the aggregate root of a screening run. The
// classification fields are immutable after creation; only the three
// Art. 44 C.4 observation fields may change afterwards.
type VerificationRecord struct {
	ID uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`

	// Subject snapshot
	FullName        string     `json:"full_name"`
	DocumentType    string     `json:"document_type,omitempty"`
	DocumentNumber  string     `json:"document_number,omitempty"`
	Nationality     string     `json:"nationality"`
	BirthDate       *time.Time `json:"birth_date,omitempty"`
	IsLegalEntity   bool       `json:"is_legal_entity"`
	LegalEntityName string     `json:"legal_entity_name,omitempty"`

	// Per-list outcomes, in canonical source order
	Results []MatchResult `json:"results" gorm:"serializer:json"`

	// Classification
	GAFIHighRisk   bool           `json:"gafi_high_risk"`
	IsPEP          bool           `json:"is_pep"`
	RiskLevel      RiskLevel      `json:"risk_level"`
	DiligenceLevel DiligenceLevel `json:"diligence_level"`
	CannotTransact bool           `json:"cannot_transact"`

	VerificationHash string `json:"verification_hash" gorm:"size:64;index"`

	// Art. 44 C.4 complementary search observations (mutable)
	WebSearchDone           bool   `json:"web_search_done"`
	WebObservation          string `json:"web_observation,omitempty"`
	NewsSearchDone          bool   `json:"news_search_done"`
	NewsObservation         string `json:"news_observation,omitempty"`
	EncyclopediaSearchDone  bool   `json:"encyclopedia_search_done"`
	EncyclopediaObservation string `json:"encyclopedia_observation,omitempty"`

	CreatedAt time.Time  `json:"created_at" gorm:"index"`
	Deleted   bool       `json:"deleted" gorm:"index"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Subject rebuilds the subject snapshot stored on the record.
func (r *VerificationRecord) Subject() Subject {
	return Subject{
		FullName:        r.FullName,
		DocumentType:    r.DocumentType,
		DocumentNumber:  r.DocumentNumber,
		Nationality:     r.Nationality,
		BirthDate:       r.BirthDate,
		IsLegalEntity:   r.IsLegalEntity,
		LegalEntityName: r.LegalEntityName,
	}
}

// Result returns the match result for one source, if present.
func (r *VerificationRecord) Result(id WatchlistSourceID) (MatchResult, bool) {
	for _, res := range r.Results {
		if res.SourceID == id {
			return res, true
		}
	}
	return MatchResult{}, false
}

// ObservationUpdate carries a partial update of the three observation
// field pairs. Nil members are left untouched.
type ObservationUpdate struct {
	WebSearchDone           *bool   `json:"web_search_done,omitempty"`
	WebObservation          *string `json:"web_observation,omitempty"`
	NewsSearchDone          *bool   `json:"news_search_done,omitempty"`
	NewsObservation         *string `json:"news_observation,omitempty"`
	EncyclopediaSearchDone  *bool   `json:"encyclopedia_search_done,omitempty"`
	EncyclopediaObservation *string `json:"encyclopedia_observation,omitempty"`
}

// Certificate is the rendered audit artifact for a verification record.
// It is derived, never persisted.
type Certificate struct {
	VerificationID uuid.UUID `json:"verification_id"`
	Hash           string    `json:"hash"`
	Filename       string    `json:"filename"`
	Content        []byte    `json:"-"`
}
