package endpoint

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"prescription-ai/agent"
	"prescription-ai/middleware"
	"prescription-ai/model"
	"prescription-ai/util"
)

type intakeRequest struct {
	Name           string  `json:"name" example:"Jane Doe"`
	Age            int     `json:"age" example:"40"`
	Weight         float64 `json:"weight" example:"65.0"`
	Height         float64 `json:"height" example:"1.70"`
	Symptoms       string  `json:"symptoms" example:"persistent cough and mild fever"`
	MedicalHistory string  `json:"medical_history" example:"asthma"`
	Allergies      string  `json:"allergies" example:"penicillin"`
}

func buildPatientModel(req intakeRequest) model.Patient {
	return model.Patient{
		Name:           util.NormalizeName(req.Name),
		Age:            req.Age,
		Weight:         req.Weight,
		Height:         req.Height,
		Allergies:      req.Allergies,
		MedicalHistory: req.MedicalHistory,
	}
}

// SubmitPatient godoc
// @Summary      Submit a patient intake form
// @Description  Register a new patient and generate an AI-powered prescription from the intake symptoms. The patient record is kept even when the model call fails, so the intake can be retried through the chatbot later.
// @Tags         Intake
// @Accept       json
// @Produce      json
// @Param        request body intakeRequest true "Patient intake form"
// @Success      200 {object} util.APIResponse{data=object} "Patient and prescription saved"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      429 {object} util.APIResponse "Too many requests"
// @Failure      500 {object} util.APIResponse "Server error"
// @Failure      502 {object} util.APIResponse{data=object} "AI model unavailable, patient already saved"
// @Router       /submit [post]
func SubmitPatient(c *gin.Context) {
	intake := intakeRequest{}
	if err := c.ShouldBindJSON(&intake); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}
	if util.NormalizeName(intake.Name) == "" || intake.Symptoms == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Patient payload is empty or missing required fields",
			Err: fmt.Errorf("invalid payload"),
		})
		return
	}
	if intake.Age < 0 {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Age cannot be negative",
			Err: fmt.Errorf("invalid payload"),
		})
		return
	}

	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	client := middleware.GetAgent(c)
	if client == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "AI model client not available",
			Err: fmt.Errorf("agent is nil"),
		})
		return
	}

	patient := buildPatientModel(intake)
	if err := db.Create(&patient).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to create patient",
			Err: err,
		})
		return
	}

	util.LogPatientCreated(util.PatientEventParams{
		PatientID: patient.ID,
		Name:      patient.Name,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})

	prompt := agent.IntakePrompt(agent.IntakeProfile{
		Age:            intake.Age,
		Symptoms:       intake.Symptoms,
		MedicalHistory: intake.MedicalHistory,
		Allergies:      intake.Allergies,
	})

	reply, err := client.Generate(c.Request.Context(), prompt)
	if err != nil {
		util.LogModelRequestFailed(util.ModelEventParams{
			Endpoint: "/submit",
			IP:       c.ClientIP(),
			Err:      err,
		})
		// The patient row is already committed. Hand its ID back so the
		// caller can retry the prescription without re-registering.
		util.CallUpstreamError(c, util.APIErrorParams{
			Msg: "Patient saved but the AI model request failed",
			Err: err,
		}, map[string]interface{}{"patient_id": patient.ID})
		return
	}

	sections := agent.SplitSections(reply)
	prescription := model.Prescription{
		PatientID:                 patient.ID,
		AISummary:                 sections.Summary,
		TreatmentOptions:          sections.Treatments,
		MedicationRecommendations: sections.Medications,
	}
	if err := db.Create(&prescription).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to store prescription",
			Err: err,
		})
		return
	}

	util.LogPrescriptionCreated(util.PrescriptionEventParams{
		PrescriptionID: prescription.ID,
		PatientID:      patient.ID,
		IP:             c.ClientIP(),
		UserAgent:      c.Request.UserAgent(),
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Patient and AI-powered prescription saved",
		Data: map[string]interface{}{
			"patient_id":      patient.ID,
			"prescription_id": prescription.ID,
			"prescription":    prescription,
		},
	})
}
