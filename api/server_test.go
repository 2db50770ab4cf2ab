package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/estudiopraxis/console/internal/ala"
	"github.com/estudiopraxis/console/internal/ala/certificate"
	"github.com/estudiopraxis/console/internal/ala/ingest"
	"github.com/estudiopraxis/console/internal/ala/liststore"
	"github.com/estudiopraxis/console/internal/ala/screening"
	"github.com/estudiopraxis/console/internal/ala/store"
	"github.com/estudiopraxis/console/internal/ala/supplement"
	"github.com/estudiopraxis/console/internal/config"
	"github.com/estudiopraxis/console/internal/database"
	"github.com/estudiopraxis/console/pkg/models"
)

const testSecret = "test-secret"

type stubChannel struct{ name string }

func (c stubChannel) Name() string { return c.name }
func (c stubChannel) Lookup(context.Context, string) (string, error) {
	return "Sin resultados relevantes.", nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.NewSQLiteDB(dsn)
	require.NoError(t, err)
	records, err := store.NewRecordStore(db)
	require.NoError(t, err)

	sugar := zap.NewNop().Sugar()
	lists := liststore.NewStore(48*time.Hour, nil, sugar)
	lists.Replace(models.SourcePEPUY, []models.WatchlistEntry{{
		ID:        "pep_uy_1",
		SourceID:  models.SourcePEPUY,
		FullName:  "Jane Pep Doe",
		MatchName: ingest.NormalizeName("Jane Pep Doe"),
	}}, time.Now())

	manager := ingest.NewManager(lists, nil, time.Second, sugar)
	matcher := screening.NewMatcher(lists, 0.85, sugar)
	orchestrator := supplement.NewOrchestrator(records,
		stubChannel{"web"}, stubChannel{"news"}, stubChannel{"encyclopedia"},
		time.Second, sugar)

	svc := ala.NewService(manager, matcher, screening.NewCountryRiskTable(nil),
		records, orchestrator, certificate.NewIssuer("Estudio Praxis"), sugar)

	cfg := &config.Config{
		Server: config.ServerConfig{Port: 0},
		Auth:   config.AuthConfig{JWTSecret: testSecret},
	}
	return NewServer(cfg, svc, zap.NewNop())
}

func signToken(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "analyst@estudiopraxis.uy",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func doRequest(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func verifySubject(t *testing.T, srv *Server, token, fullName string) models.VerificationRecord {
	t.Helper()
	rr := doRequest(t, srv, http.MethodPost, "/api/v1/ala/verify", token, map[string]any{
		"full_name":   fullName,
		"nationality": "UY",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var rec models.VerificationRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	return rec
}

func TestHealthIsPublic(t *testing.T) {
	srv := newTestServer(t)
	rr := doRequest(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestVerifyRequiresToken(t *testing.T) {
	srv := newTestServer(t)
	rr := doRequest(t, srv, http.MethodPost, "/api/v1/ala/verify", "", map[string]any{
		"full_name": "Juan Pérez",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/problem+json")
}

func TestVerifyRejectsBadToken(t *testing.T) {
	srv := newTestServer(t)
	rr := doRequest(t, srv, http.MethodPost, "/api/v1/ala/verify", "not-a-token", map[string]any{
		"full_name": "Juan Pérez",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestVerifyCreatesRecord(t *testing.T) {
	srv := newTestServer(t)
	rec := verifySubject(t, srv, signToken(t, "analyst"), "Jane Pep Doe")

	assert.True(t, rec.IsPEP)
	assert.Equal(t, models.RiskAlto, rec.RiskLevel)
	assert.Len(t, rec.VerificationHash, 64)
}

func TestVerifyValidation(t *testing.T) {
	srv := newTestServer(t)
	token := signToken(t, "analyst")

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{}},
		{"name too short", map[string]any{"full_name": "X"}},
		{"single word name", map[string]any{"full_name": "Soloword"}},
		{"nationality not alpha-2", map[string]any{"full_name": "Juan Pérez", "nationality": "Uruguay"}},
		{"unknown document type", map[string]any{"full_name": "Juan Pérez", "document_type": "CARNET"}},
		{"bad birth date format", map[string]any{"full_name": "Juan Pérez", "birth_date": "15/03/1980"}},
	}
	for _, tc := range cases {
		rr := doRequest(t, srv, http.MethodPost, "/api/v1/ala/verify", token, tc.body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, tc.name)

		var problem map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
		assert.Equal(t, float64(http.StatusBadRequest), problem["status"])
		assert.NotEmpty(t, problem["type"])
	}
}

func TestListVerifications(t *testing.T) {
	srv := newTestServer(t)
	token := signToken(t, "analyst")
	verifySubject(t, srv, token, "Roberto Inocente")
	verifySubject(t, srv, token, "Jane Pep Doe")

	rr := doRequest(t, srv, http.MethodGet, "/api/v1/ala/verifications?limit=1", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Verifications []models.VerificationRecord `json:"verifications"`
		Total         int64                       `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Total)
	assert.Len(t, resp.Verifications, 1)
}

func TestGetVerification(t *testing.T) {
	srv := newTestServer(t)
	token := signToken(t, "analyst")
	rec := verifySubject(t, srv, token, "Roberto Inocente")

	rr := doRequest(t, srv, http.MethodGet, "/api/v1/ala/verifications/"+rec.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, srv, http.MethodGet, "/api/v1/ala/verifications/"+uuid.NewString(), token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doRequest(t, srv, http.MethodGet, "/api/v1/ala/verifications/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateObservations(t *testing.T) {
	srv := newTestServer(t)
	token := signToken(t, "analyst")
	rec := verifySubject(t, srv, token, "Jane Pep Doe")

	rr := doRequest(t, srv, http.MethodPatch, "/api/v1/ala/verifications/"+rec.ID.String(), token, map[string]any{
		"web_search_done": true,
		"web_observation": "Sin hallazgos adversos.",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var updated models.VerificationRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.True(t, updated.WebSearchDone)
	assert.Equal(t, "Sin hallazgos adversos.", updated.WebObservation)
	assert.Equal(t, rec.VerificationHash, updated.VerificationHash)
}

func TestDeleteVerification(t *testing.T) {
	srv := newTestServer(t)
	token := signToken(t, "analyst")
	rec := verifySubject(t, srv, token, "Roberto Inocente")

	rr := doRequest(t, srv, http.MethodDelete, "/api/v1/ala/verifications/"+rec.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "eliminada")

	rr = doRequest(t, srv, http.MethodGet, "/api/v1/ala/verifications/"+rec.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSupplementarySearchEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := signToken(t, "analyst")
	rec := verifySubject(t, srv, token, "Jane Pep Doe")

	rr := doRequest(t, srv, http.MethodPost,
		"/api/v1/ala/verifications/"+rec.ID.String()+"/supplementary-search", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var updated models.VerificationRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.True(t, updated.WebSearchDone)
	assert.True(t, updated.NewsSearchDone)
	assert.True(t, updated.EncyclopediaSearchDone)
}

func TestCertificateEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := signToken(t, "analyst")
	rec := verifySubject(t, srv, token, "Roberto Inocente")

	rr := doRequest(t, srv, http.MethodPost,
		"/api/v1/ala/verifications/"+rec.ID.String()+"/certificate", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "certificado-ala-")
	assert.Equal(t, rec.VerificationHash, rr.Header().Get("X-Verification-Hash"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF")))
	assert.True(t, bytes.Contains(rr.Body.Bytes(), []byte(rec.VerificationHash)))
}

func TestListMetadataRequiresAdmin(t *testing.T) {
	srv := newTestServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/v1/ala/lists/metadata", signToken(t, "analyst"), nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = doRequest(t, srv, http.MethodGet, "/api/v1/ala/lists/metadata", signToken(t, "admin"), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Sources []models.WatchlistSource `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Sources, 4)
	assert.Equal(t, models.SourcePEPUY, resp.Sources[0].ID)
	assert.Equal(t, models.SourceStatusOK, resp.Sources[0].Status)
}
