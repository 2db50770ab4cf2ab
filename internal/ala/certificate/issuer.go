// Package certificate renders the audit PDF for a verification record.
package certificate

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"github.com/estudiopraxis/console/pkg/models"
)

// sourceLabels maps each screened list to its certificate caption.
var sourceLabels = map[models.WatchlistSourceID]string{
	models.SourcePEPUY: "Personas Políticamente Expuestas (Uruguay)",
	models.SourceUN:    "Consejo de Seguridad de la ONU",
	models.SourceOFAC:  "OFAC SDN (EE.UU.)",
	models.SourceEU:    "Sanciones financieras de la Unión Europea",
}

// Issuer renders verification certificates. The document content is a
// pure function of the record: issue dates are pinned to the record's
// creation time, so reissuing the same record reproduces the same
// bytes.
type Issuer struct {
	firmName string
}

func NewIssuer(firmName string) *Issuer {
	if firmName == "" {
		firmName = "Estudio Praxis"
	}
	return &Issuer{firmName: firmName}
}

// Filename returns the download name for a record's certificate.
func Filename(id uuid.UUID) string {
	return fmt.Sprintf("certificado-ala-%s.pdf", id)
}

// Issue renders the certificate PDF for the record.
func (i *Issuer) Issue(rec *models.VerificationRecord) (*models.Certificate, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	// Uncompressed output keeps the embedded hash text-searchable for
	// external auditors.
	pdf.SetCompression(false)
	pdf.SetCreationDate(rec.CreatedAt.UTC())
	pdf.SetModificationDate(rec.CreatedAt.UTC())
	pdf.SetTitle("Certificado de Verificación ALA", true)
	pdf.SetAuthor(i.firmName, true)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Certificado de Verificación ALA"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(i.firmName), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	label := func(k, v string) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(55, 6, tr(k), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 6, tr(v), "", "L", false)
	}

	subjectName := rec.FullName
	if rec.IsLegalEntity && rec.LegalEntityName != "" {
		subjectName = rec.LegalEntityName
	}
	label("Sujeto verificado:", subjectName)
	if rec.DocumentNumber != "" {
		label("Documento:", fmt.Sprintf("%s %s", rec.DocumentType, rec.DocumentNumber))
	}
	label("Nacionalidad:", rec.Nationality)
	if rec.BirthDate != nil {
		label("Fecha de nacimiento:", rec.BirthDate.UTC().Format("2006-01-02"))
	}
	label("Fecha de verificación:", rec.CreatedAt.UTC().Format(time.RFC3339))
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr("Resultados por lista"), "", 1, "L", false, 0, "")
	for _, id := range models.AllSources() {
		res, ok := rec.Result(id)
		if !ok {
			continue
		}
		outcome := "SIN COINCIDENCIAS"
		if !res.Checked {
			outcome = "NO VERIFICADA (fuente no disponible)"
		} else if res.HitCount > 0 {
			outcome = fmt.Sprintf("%d coincidencia(s), mejor: %s (%.2f)",
				res.HitCount, res.BestMatch, res.Score)
		}
		label(string(id)+":", fmt.Sprintf("%s — %s", sourceLabels[id], outcome))
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr("Clasificación"), "", 1, "L", false, 0, "")
	label("Nivel de riesgo:", string(rec.RiskLevel))
	label("Debida diligencia:", string(rec.DiligenceLevel))
	label("PEP:", boolES(rec.IsPEP))
	label("Jurisdicción de alto riesgo (GAFI):", boolES(rec.GAFIHighRisk))
	if rec.CannotTransact {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(180, 0, 0)
		pdf.MultiCell(0, 6, tr("NO SE PUEDE OPERAR CON ESTE SUJETO."), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr("Hash de verificación (SHA-256)"), "", 1, "L", false, 0, "")
	pdf.SetFont("Courier", "", 9)
	pdf.MultiCell(0, 5, rec.VerificationHash, "", "L", false)
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.MultiCell(0, 4, tr("El hash cubre el resultado inmutable de la verificación. "+
		"Recalcularlo sobre el registro almacenado debe reproducir este valor."), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}

	return &models.Certificate{
		VerificationID: rec.ID,
		Hash:           rec.VerificationHash,
		Filename:       Filename(rec.ID),
		Content:        buf.Bytes(),
	}, nil
}

func boolES(b bool) string {
	if b {
		return "SÍ"
	}
	return "NO"
}
