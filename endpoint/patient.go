package endpoint

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"prescription-ai/middleware"
	"prescription-ai/model"
	"prescription-ai/util"
)

type patientListQuery struct {
	Limit   int
	Offset  int
	Keyword string
	SortBy  string
	SortDir string
}

func parseQueryParams(c *gin.Context) patientListQuery {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	keyword := c.Query("keyword")
	sortBy := c.Query("sort")                       // supported values: name, age
	sortDir := strings.ToLower(c.Query("sort_dir")) // supported values: asc, desc
	return patientListQuery{
		Limit:   limit,
		Offset:  offset,
		Keyword: keyword,
		SortBy:  sortBy,
		SortDir: sortDir,
	}
}

func fetchPatients(db *gorm.DB, params patientListQuery) ([]model.Patient, int64, error) {
	var patients []model.Patient
	var totalPatient int64
	query := db

	// Determine order direction safely (only allow asc/desc)
	orderDir := "ASC"
	if params.SortDir == "desc" {
		orderDir = "DESC"
	}

	// Apply sorting: if the front-end requests sorting, use that; otherwise
	// newest records first.
	switch params.SortBy {
	case "name":
		query = query.Order(fmt.Sprintf("patients.name %s", orderDir))
	case "age":
		query = query.Order(fmt.Sprintf("patients.age %s", orderDir))
	default:
		query = query.Order("patients.id DESC")
	}

	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}
	if params.Offset > 0 {
		query = query.Offset(params.Offset)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("name LIKE ? OR allergies LIKE ? OR medical_history LIKE ?", kw, kw, kw)
	}

	if err := query.Find(&patients).Error; err != nil {
		return nil, 0, err
	}

	db.Model(&model.Patient{}).Count(&totalPatient)
	return patients, totalPatient, nil
}

// ListPatients godoc
// @Summary      List all patients
// @Description  Get a paginated list of patients with optional filtering
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        limit query int false "Limit number of results"
// @Param        offset query int false "Offset for pagination"
// @Param        keyword query string false "Search keyword for patient name, allergies, or medical history"
// @Param        sort query string false "Optional sort field: name|age"
// @Param        sort_dir query string false "Optional sort direction: asc|desc"
// @Success      200 {object} util.APIResponse{data=object} "Patients retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient [get]
func ListPatients(c *gin.Context) {
	query := parseQueryParams(c)

	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	patients, totalPatient, err := fetchPatients(db, query)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve patients",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patients retrieved",
		Data: map[string]interface{}{"total": totalPatient, "total_fetched": len(patients), "patients": patients},
	})
}

func getPatientByID(c *gin.Context, db *gorm.DB) (string, model.Patient, error) {
	id := c.Param("id")
	if id == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Missing patient ID",
			Err: fmt.Errorf("patient ID is required"),
		})
		return "", model.Patient{}, fmt.Errorf("patient ID is required")
	}

	var patient model.Patient
	if err := db.First(&patient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.CallErrorNotFound(c, util.APIErrorParams{
				Msg: "Patient not found",
				Err: err,
			})
		} else {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Failed to retrieve patient",
				Err: err,
			})
		}
		return "", model.Patient{}, err
	}

	return id, patient, nil
}

// GetPatientInfo godoc
// @Summary      Get patient information
// @Description  Get detailed information about a specific patient, including stored prescriptions
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        id path string true "Patient ID"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient retrieved"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{id} [get]
func GetPatientInfo(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	_, patient, err := getPatientByID(c, db.Preload("Prescriptions"))
	if err != nil {
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient retrieved",
		Data: patient,
	})
}

// UpdatePatient godoc
// @Summary      Update patient information
// @Description  Update an existing patient's information
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        id path string true "Patient ID"
// @Param        request body model.UpdatePatientRequest true "Updated patient information"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient updated"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{id} [patch]
func UpdatePatient(c *gin.Context) {
	patient := model.UpdatePatientRequest{}
	if err := c.ShouldBindJSON(&patient); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
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

	_, existingPatient, err := getPatientByID(c, db)
	if err != nil {
		return
	}

	// Merge provided fields into existingPatient. Numeric and note fields are
	// pointers so an explicit zero or empty value still wins.
	if patient.Name != "" {
		existingPatient.Name = util.NormalizeName(patient.Name)
	}
	if patient.Age != nil {
		existingPatient.Age = *patient.Age
	}
	if patient.Weight != nil {
		existingPatient.Weight = *patient.Weight
	}
	if patient.Height != nil {
		existingPatient.Height = *patient.Height
	}
	if patient.Allergies != nil {
		existingPatient.Allergies = *patient.Allergies
	}
	if patient.MedicalHistory != nil {
		existingPatient.MedicalHistory = *patient.MedicalHistory
	}

	if err := db.Save(&existingPatient).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to update patient",
			Err: err,
		})
		return
	}

	util.LogPatientUpdated(util.PatientEventParams{
		PatientID: existingPatient.ID,
		Name:      existingPatient.Name,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient updated",
		Data: existingPatient,
	})
}

// DeletePatient godoc
// @Summary      Delete a patient
// @Description  Delete a patient by ID; rejected while prescriptions still reference the patient
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        id path string true "Patient ID"
// @Success      200 {object} util.APIResponse "Patient deleted"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      409 {object} util.APIResponse "Patient still has prescriptions"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{id} [delete]
func DeletePatient(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	_, patient, err := getPatientByID(c, db)
	if err != nil {
		return
	}

	if err := db.Delete(&patient).Error; err != nil {
		if model.IsForeignKeyViolation(err) {
			util.CallConflict(c, util.APIErrorParams{
				Msg: "Patient still has prescriptions on file, delete those first",
				Err: err,
			})
			return
		}
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to delete patient",
			Err: err,
		})
		return
	}

	util.LogPatientDeleted(util.PatientEventParams{
		PatientID: patient.ID,
		Name:      patient.Name,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Patient deleted",
	})
}
