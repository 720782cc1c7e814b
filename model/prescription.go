package model

// Prescription represents an AI-generated prescription for a patient
// @Description AI-generated summary, treatment options and medication
// @Description recommendations produced during patient intake
type Prescription struct {
	ID                        uint   `json:"id" gorm:"column:id;primaryKey;autoIncrement" example:"1"`
	PatientID                 uint   `json:"patient_id" gorm:"column:patient_id" example:"1"`
	AISummary                 string `json:"ai_summary" gorm:"column:ai_summary;type:text" example:"Patient condition is stable."`
	TreatmentOptions          string `json:"treatment_options" gorm:"column:treatment_options;type:text" example:"Rest and hydration."`
	MedicationRecommendations string `json:"medication_recommendations" gorm:"column:medication_recommendations;type:text" example:"Ibuprofen as needed."`
}
