package model

// Patient represents a patient intake record
// @Description Patient demographic and medical background information
type Patient struct {
	ID             uint    `json:"id" gorm:"column:id;primaryKey;autoIncrement" example:"1"`
	Name           string  `json:"name" gorm:"column:name;type:text" example:"Jane Doe"`
	Age            int     `json:"age" gorm:"column:age" example:"40"`
	Weight         float64 `json:"weight" gorm:"column:weight" example:"65.0"`
	Height         float64 `json:"height" gorm:"column:height" example:"1.70"`
	Allergies      string  `json:"allergies" gorm:"column:allergies;type:text" example:"penicillin"`
	MedicalHistory string  `json:"medical_history" gorm:"column:medical_history;type:text" example:"none"`

	// Deleting a patient that still has prescriptions is rejected by the
	// store (RESTRICT), so dependent rows can never be orphaned silently.
	Prescriptions []Prescription `json:"prescriptions,omitempty" gorm:"foreignKey:PatientID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
}

// UpdatePatientRequest represents a partial patient update
// @Description Fields to change on an existing patient; numeric and note
// @Description fields are pointers so an explicit zero or empty value can be set
type UpdatePatientRequest struct {
	Name           string   `json:"name,omitempty" example:"Jane Doe"`
	Age            *int     `json:"age,omitempty" example:"40"`
	Weight         *float64 `json:"weight,omitempty" example:"65.0"`
	Height         *float64 `json:"height,omitempty" example:"1.70"`
	Allergies      *string  `json:"allergies,omitempty" example:"penicillin"`
	MedicalHistory *string  `json:"medical_history,omitempty" example:"none"`
}
