package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/signintech/gopdf"

	"prescription-ai/model"
)

// fontPaths lists where DejaVuSans lands on the base images this service is
// deployed on (alpine, debian).
var fontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

const (
	fontName  = "DejaVu"
	textWidth = 500
)

// PrescriptionDocument bundles a prescription with the patient it belongs to.
type PrescriptionDocument struct {
	Patient      model.Patient
	Prescription model.Prescription
}

// PrescriptionPDF renders a prescription as a printable A4 document.
func PrescriptionPDF(doc PrescriptionDocument) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	if err := loadFont(&pdf); err != nil {
		return nil, err
	}

	if err := pdf.SetFont(fontName, "", 20); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "AI-Assisted Prescription")
	pdf.Br(30)

	if err := pdf.SetFont(fontName, "", 12); err != nil {
		return nil, err
	}
	pdf.Cell(nil, fmt.Sprintf("Prescription #%d, issued %s", doc.Prescription.ID, time.Now().Format("02.01.2006 15:04")))
	pdf.Br(16)
	pdf.Cell(nil, fmt.Sprintf("Patient: %s (#%d)", doc.Patient.Name, doc.Patient.ID))
	pdf.Br(16)
	pdf.Cell(nil, fmt.Sprintf("Age: %d    Weight: %.1f    Height: %.2f", doc.Patient.Age, doc.Patient.Weight, doc.Patient.Height))
	pdf.Br(16)
	pdf.Cell(nil, fmt.Sprintf("Allergies: %s", valueOrDash(doc.Patient.Allergies)))
	pdf.Br(16)
	pdf.Cell(nil, fmt.Sprintf("Medical history: %s", valueOrDash(doc.Patient.MedicalHistory)))
	pdf.Br(24)

	sections := []struct {
		title string
		body  string
	}{
		{"Condition Summary", doc.Prescription.AISummary},
		{"Treatment Options", doc.Prescription.TreatmentOptions},
		{"Medication Recommendations", doc.Prescription.MedicationRecommendations},
	}
	for _, section := range sections {
		if err := writeSection(&pdf, section.title, section.body); err != nil {
			return nil, err
		}
	}

	if err := pdf.SetFont(fontName, "", 9); err != nil {
		return nil, err
	}
	pdf.SetY(810)
	pdf.Cell(nil, "Generated by an AI model. A licensed physician must review before use.")

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF document: %w", err)
	}
	return buf.Bytes(), nil
}

func loadFont(pdf *gopdf.GoPdf) error {
	var lastErr error
	for _, path := range fontPaths {
		if err := pdf.AddTTFFont(fontName, path); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return fmt.Errorf("failed to load font for PDF, ensure DejaVu fonts are installed: %w", lastErr)
}

func writeSection(pdf *gopdf.GoPdf, title, body string) error {
	if err := pdf.SetFont(fontName, "", 14); err != nil {
		return err
	}
	pdf.Cell(nil, title)
	pdf.Br(16)

	if err := pdf.SetFont(fontName, "", 11); err != nil {
		return err
	}
	if strings.TrimSpace(body) == "" {
		body = "-"
	}
	// SplitText wraps on width only, so paragraphs are split out first.
	for _, paragraph := range strings.Split(body, "\n") {
		if strings.TrimSpace(paragraph) == "" {
			pdf.Br(6)
			continue
		}
		lines, err := pdf.SplitText(paragraph, textWidth)
		if err != nil {
			lines = []string{paragraph}
		}
		for _, line := range lines {
			pdf.Cell(nil, line)
			pdf.Br(13)
		}
	}
	pdf.Br(12)
	return nil
}

func valueOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
