package agent

import (
	"fmt"
	"strings"
)

// IntakeProfile carries the fields the intake prompt is rendered from.
// Symptoms come from the intake form only; they are not part of the stored
// patient record.
type IntakeProfile struct {
	Age            int
	Symptoms       string
	MedicalHistory string
	Allergies      string
}

// IntakePrompt renders the instruction that asks the model for a structured
// prescription: a condition summary, treatment options and medication
// recommendations, in that numbered order.
func IntakePrompt(p IntakeProfile) string {
	return fmt.Sprintf(`
Patient is a %d-year-old with symptoms: %s.
Medical history: %s.
Allergies: %s.

Generate:
1. A summary of the patient's condition
2. Possible treatment options
3. Recommended medications
`, p.Age, p.Symptoms, p.MedicalHistory, p.Allergies)
}

// CaseReview carries the joined patient and prescription data the chatbot
// prompt is rendered from.
type CaseReview struct {
	Name                      string
	Age                       int
	MedicalHistory            string
	Allergies                 string
	AISummary                 string
	TreatmentOptions          string
	MedicationRecommendations string
	Question                  string
}

// ChatbotPrompt renders the case-review instruction for a doctor's question
// about a stored patient.
func ChatbotPrompt(r CaseReview) string {
	return fmt.Sprintf(`
You are an AI medical assistant. A doctor is reviewing a case with the following patient data:

Patient Name: %s
Age: %d
Medical History: %s
Allergies: %s

AI-Generated Summary: %s
AI Treatment Options: %s
AI Medication Recommendations: %s

The doctor asks: %s

Respond clearly and concisely as if advising a medical team.
`, r.Name, r.Age, r.MedicalHistory, r.Allergies, r.AISummary, r.TreatmentOptions, r.MedicationRecommendations, r.Question)
}

// PrescriptionSections is a generated reply split into the three stored
// prescription fields.
type PrescriptionSections struct {
	Summary     string
	Treatments  string
	Medications string
}

// SplitSections carves a generated reply into the three numbered sections the
// intake prompt asks for. Replies that do not follow the numbering are kept
// whole in every field rather than discarded.
func SplitSections(reply string) PrescriptionSections {
	whole := strings.TrimSpace(reply)
	fallback := PrescriptionSections{Summary: whole, Treatments: whole, Medications: whole}

	i1 := strings.Index(whole, "1.")
	if i1 < 0 {
		return fallback
	}
	i2 := strings.Index(whole[i1:], "2.")
	if i2 < 0 {
		return fallback
	}
	i2 += i1
	i3 := strings.Index(whole[i2:], "3.")
	if i3 < 0 {
		return fallback
	}
	i3 += i2

	cut := func(s, marker string) string {
		return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), marker))
	}
	return PrescriptionSections{
		Summary:     cut(whole[i1:i2], "1."),
		Treatments:  cut(whole[i2:i3], "2."),
		Medications: cut(whole[i3:], "3."),
	}
}
