package endpoint

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"prescription-ai/model"
	"prescription-ai/report"
)

func TestListPrescriptions_Success(t *testing.T) {
	r, db := setupEndpointTest(t)

	patient := seedJaneDoe(t, db)
	seedPrescription(t, db, model.Prescription{PatientID: patient.ID, AISummary: "First."})
	seedPrescription(t, db, model.Prescription{PatientID: patient.ID, AISummary: "Second."})

	w, response, err := doRequestWithHandler(r, requestSpec{
		method:       http.MethodGet,
		registerPath: "/prescription",
		requestPath:  "/prescription",
		handler:      ListPrescriptions,
	})
	assert.NoError(t, err)
	assertSuccessResponse(t, w, response)

	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["total"])

	// Newest first.
	prescriptions := data["prescriptions"].([]interface{})
	assert.Equal(t, "Second.", prescriptions[0].(map[string]interface{})["ai_summary"])
}

func TestListPrescriptions_FilterByPatient(t *testing.T) {
	r, db := setupEndpointTest(t)

	jane := seedJaneDoe(t, db)
	john := seedPatient(t, db, model.Patient{Name: "John Smith", Age: 52})
	seedPrescription(t, db, model.Prescription{PatientID: jane.ID, AISummary: "Jane's."})
	seedPrescription(t, db, model.Prescription{PatientID: john.ID, AISummary: "John's."})

	w, response, err := doRequestWithHandler(r, requestSpec{
		method:       http.MethodGet,
		registerPath: "/prescription",
		requestPath:  fmt.Sprintf("/prescription?patient_id=%d", jane.ID),
		handler:      ListPrescriptions,
	})
	assert.NoError(t, err)
	assertSuccessResponse(t, w, response)

	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])

	prescriptions := data["prescriptions"].([]interface{})
	assert.Len(t, prescriptions, 1)
	assert.Equal(t, "Jane's.", prescriptions[0].(map[string]interface{})["ai_summary"])
}

func TestListPrescriptions_NoDatabase(t *testing.T) {
	r := newTestRouter()

	w, _, err := doRequestWithHandler(r, requestSpec{
		method:       http.MethodGet,
		registerPath: "/prescription",
		requestPath:  "/prescription",
		handler:      ListPrescriptions,
	})
	assert.NoError(t, err)
	assertStatus(t, w, http.StatusInternalServerError)
}

func TestGetPrescription_Success(t *testing.T) {
	r, db := setupEndpointTest(t)

	patient := seedJaneDoe(t, db)
	prescription := seedPrescription(t, db, model.Prescription{
		PatientID:                 patient.ID,
		AISummary:                 "Stable condition.",
		TreatmentOptions:          "Rest.",
		MedicationRecommendations: "Paracetamol.",
	})

	w, response, err := doRequestWithHandler(r, requestSpec{
		method:       http.MethodGet,
		registerPath: "/prescription/:id",
		requestPath:  fmt.Sprintf("/prescription/%d", prescription.ID),
		handler:      GetPrescription,
	})
	assert.NoError(t, err)
	assertSuccessResponse(t, w, response)

	data := response["data"].(map[string]interface{})
	assert.Equal(t, "Stable condition.", data["ai_summary"])
	assert.Equal(t, float64(patient.ID), data["patient_id"])
}

func TestGetPrescription_NotFound(t *testing.T) {
	r, _ := setupEndpointTest(t)

	w, response, err := doRequestWithHandler(r, requestSpec{
		method:       http.MethodGet,
		registerPath: "/prescription/:id",
		requestPath:  "/prescription/9999",
		handler:      GetPrescription,
	})
	assert.NoError(t, err)
	assertStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "Prescription not found", response["msg"])
}

func TestDeletePrescription_Success(t *testing.T) {
	r, db := setupEndpointTest(t)

	patient := seedJaneDoe(t, db)
	prescription := seedPrescription(t, db, model.Prescription{PatientID: patient.ID, AISummary: "Old."})

	w, response, err := doRequestWithHandler(r, requestSpec{
		method:       http.MethodDelete,
		registerPath: "/prescription/:id",
		requestPath:  fmt.Sprintf("/prescription/%d", prescription.ID),
		handler:      DeletePrescription,
	})
	assert.NoError(t, err)
	assertSuccessResponse(t, w, response)

	var count int64
	db.Model(&model.Prescription{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestDeletePrescription_NotFound(t *testing.T) {
	r, _ := setupEndpointTest(t)

	w, _, err := doRequestWithHandler(r, requestSpec{
		method:       http.MethodDelete,
		registerPath: "/prescription/:id",
		requestPath:  "/prescription/9999",
		handler:      DeletePrescription,
	})
	assert.NoError(t, err)
	assertStatus(t, w, http.StatusNotFound)
}

func TestExportPrescriptionPDF_Success(t *testing.T) {
	if _, err := report.PrescriptionPDF(report.PrescriptionDocument{}); err != nil {
		t.Skipf("PDF rendering unavailable: %v", err)
	}

	r, db := setupEndpointTest(t)

	patient := seedJaneDoe(t, db)
	prescription := seedPrescription(t, db, model.Prescription{
		PatientID:                 patient.ID,
		AISummary:                 "Stable condition.",
		TreatmentOptions:          "Rest.",
		MedicationRecommendations: "Paracetamol.",
	})

	w, _, err := doRequestWithHandler(r, requestSpec{
		method:       http.MethodGet,
		registerPath: "/prescription/:id/pdf",
		requestPath:  fmt.Sprintf("/prescription/%d/pdf", prescription.ID),
		handler:      ExportPrescriptionPDF,
	})
	assert.NoError(t, err)
	assertStatus(t, w, http.StatusOK)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), fmt.Sprintf("prescription-%d.pdf", prescription.ID))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
}

func TestExportPrescriptionPDF_NotFound(t *testing.T) {
	r, _ := setupEndpointTest(t)

	w, response, err := doRequestWithHandler(r, requestSpec{
		method:       http.MethodGet,
		registerPath: "/prescription/:id/pdf",
		requestPath:  "/prescription/9999/pdf",
		handler:      ExportPrescriptionPDF,
	})
	assert.NoError(t, err)
	assertStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "Prescription not found", response["msg"])
}
