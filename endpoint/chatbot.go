package endpoint

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"prescription-ai/agent"
	"prescription-ai/middleware"
	"prescription-ai/model"
	"prescription-ai/util"
)

type chatbotRequest struct {
	PatientID uint   `json:"patient_id" example:"1"`
	Message   string `json:"message" example:"Is ibuprofen safe given the listed allergies?"`
}

// ChatbotQuery godoc
// @Summary      Ask the case-review chatbot
// @Description  Answer a doctor's question about a stored patient using the latest prescription on file
// @Tags         Chatbot
// @Accept       json
// @Produce      json
// @Param        request body chatbotRequest true "Patient ID and question"
// @Success      200 {object} util.APIResponse{data=object} "Chatbot reply generated"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Patient or prescription not found"
// @Failure      429 {object} util.APIResponse "Too many requests"
// @Failure      500 {object} util.APIResponse "Server error"
// @Failure      502 {object} util.APIResponse "AI model unavailable"
// @Router       /chatbot [post]
func ChatbotQuery(c *gin.Context) {
	request := chatbotRequest{}
	if err := c.ShouldBindJSON(&request); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}
	if request.PatientID == 0 || request.Message == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Both 'patient_id' and 'message' are required",
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

	var patient model.Patient
	if err := db.First(&patient, request.PatientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.CallErrorNotFound(c, util.APIErrorParams{
				Msg: "Patient not found",
				Err: err,
			})
			return
		}
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve patient",
			Err: err,
		})
		return
	}

	// The chatbot always reasons over the newest prescription for the patient.
	var prescription model.Prescription
	if err := db.Where("patient_id = ?", patient.ID).Order("id DESC").First(&prescription).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.CallErrorNotFound(c, util.APIErrorParams{
				Msg: "No prescription on file for this patient",
				Err: err,
			})
			return
		}
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve prescription",
			Err: err,
		})
		return
	}

	prompt := agent.ChatbotPrompt(agent.CaseReview{
		Name:                      patient.Name,
		Age:                       patient.Age,
		MedicalHistory:            patient.MedicalHistory,
		Allergies:                 patient.Allergies,
		AISummary:                 prescription.AISummary,
		TreatmentOptions:          prescription.TreatmentOptions,
		MedicationRecommendations: prescription.MedicationRecommendations,
		Question:                  request.Message,
	})

	reply, err := client.Generate(c.Request.Context(), prompt)
	if err != nil {
		util.LogModelRequestFailed(util.ModelEventParams{
			Endpoint: "/chatbot",
			IP:       c.ClientIP(),
			Err:      err,
		})
		util.CallUpstreamError(c, util.APIErrorParams{
			Msg: "AI model request failed",
			Err: err,
		}, nil)
		return
	}

	util.LogChatbotReply(util.ChatbotEventParams{
		PatientID:   patient.ID,
		PatientName: patient.Name,
		IP:          c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Chatbot reply generated",
		Data: map[string]interface{}{"reply": reply},
	})
}
