package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estudiopraxis/console/internal/ala"
	"github.com/estudiopraxis/console/pkg/errors"
	"github.com/estudiopraxis/console/pkg/models"
)

type alaHandlers struct {
	svc    *ala.Service
	logger *zap.SugaredLogger
}

func newALAHandlers(svc *ala.Service, logger *zap.SugaredLogger) *alaHandlers {
	return &alaHandlers{svc: svc, logger: logger}
}

// verifyRequest is the POST /ala/verify payload.
type verifyRequest struct {
	FullName        string `json:"full_name" binding:"required,min=2,max=200,nombre_completo"`
	DocumentType    string `json:"document_type" binding:"omitempty,oneof=CI PASAPORTE RUT DNI OTRO"`
	DocumentNumber  string `json:"document_number" binding:"omitempty,max=40"`
	Nationality     string `json:"nationality" binding:"omitempty,iso3166_1_alpha2"`
	BirthDate       string `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
	IsLegalEntity   bool   `json:"is_legal_entity"`
	LegalEntityName string `json:"legal_entity_name" binding:"omitempty,min=2,max=200"`
}

func (h *alaHandlers) verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeProblem(c, errors.NewValidationProblem(err.Error(), c.Request.URL.Path))
		return
	}

	subject := models.Subject{
		FullName:        req.FullName,
		DocumentType:    req.DocumentType,
		DocumentNumber:  req.DocumentNumber,
		Nationality:     req.Nationality,
		IsLegalEntity:   req.IsLegalEntity,
		LegalEntityName: req.LegalEntityName,
	}
	if req.BirthDate != "" {
		bd, _ := time.Parse("2006-01-02", req.BirthDate)
		subject.BirthDate = &bd
	}

	rec, err := h.svc.Verify(c.Request.Context(), subject)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *alaHandlers) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	recs, total, err := h.svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"verifications": recs,
		"total":         total,
	})
}

func (h *alaHandlers) get(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}
	rec, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *alaHandlers) updateObservations(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}
	var upd models.ObservationUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		writeProblem(c, errors.NewValidationProblem(err.Error(), c.Request.URL.Path))
		return
	}
	rec, err := h.svc.UpdateObservations(c.Request.Context(), id, upd)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *alaHandlers) remove(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "verificación eliminada"})
}

func (h *alaHandlers) supplementarySearch(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}
	rec, err := h.svc.RunSupplementary(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *alaHandlers) certificate(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}
	cert, err := h.svc.IssueCertificate(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", cert.Filename))
	c.Header("X-Verification-Hash", cert.Hash)
	c.Data(http.StatusOK, "application/pdf", cert.Content)
}

func (h *alaHandlers) listMetadata(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sources": h.svc.ListMetadata()})
}

func (h *alaHandlers) refreshLists(c *gin.Context) {
	sources := h.svc.RefreshSources(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"sources": sources})
}

func (h *alaHandlers) recordID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeProblem(c, errors.NewValidationProblem("invalid verification id", c.Request.URL.Path))
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps domain errors onto RFC 7807 responses. Unknown errors
// become opaque 500s; the detail is logged, not leaked.
func (h *alaHandlers) writeError(c *gin.Context, err error) {
	instance := c.Request.URL.Path
	switch {
	case errors.Is(err, errors.Invalid):
		writeProblem(c, errors.NewValidationProblem(err.Error(), instance))
	case errors.Is(err, errors.NotFound):
		writeProblem(c, errors.NewNotFoundProblem(err.Error(), instance))
	case errors.Is(err, errors.SourceUnavailable):
		writeProblem(c, errors.NewSourceUnavailableProblem(err.Error(), instance))
	case errors.Is(err, errors.ClassificationDefect):
		h.logger.Errorw("classification invariant violation", "error", err, "path", instance)
		writeProblem(c, errors.NewClassificationInvariantProblem(err.Error(), instance))
	default:
		h.logger.Errorw("request failed", "error", err, "path", instance)
		writeProblem(c, errors.NewInternalProblem("internal error", instance))
	}
}

func writeProblem(c *gin.Context, p *errors.ProblemDetails) {
	c.Header("Content-Type", "application/problem+json")
	c.JSON(p.Status, p)
}
