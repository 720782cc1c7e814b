package endpoint

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"prescription-ai/middleware"
	"prescription-ai/model"
	"prescription-ai/report"
	"prescription-ai/util"
)

type prescriptionListQuery struct {
	Limit     int
	Offset    int
	PatientID int
}

func parsePrescriptionQueryParams(c *gin.Context) prescriptionListQuery {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	patientID, _ := strconv.Atoi(c.Query("patient_id"))
	return prescriptionListQuery{
		Limit:     limit,
		Offset:    offset,
		PatientID: patientID,
	}
}

func fetchPrescriptions(db *gorm.DB, params prescriptionListQuery) ([]model.Prescription, int64, error) {
	var prescriptions []model.Prescription
	var total int64

	query := db.Order("prescriptions.id DESC")
	countQuery := db.Model(&model.Prescription{})
	if params.PatientID > 0 {
		query = query.Where("patient_id = ?", params.PatientID)
		countQuery = countQuery.Where("patient_id = ?", params.PatientID)
	}
	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}
	if params.Offset > 0 {
		query = query.Offset(params.Offset)
	}

	if err := query.Find(&prescriptions).Error; err != nil {
		return nil, 0, err
	}

	countQuery.Count(&total)
	return prescriptions, total, nil
}

// ListPrescriptions godoc
// @Summary      List prescriptions
// @Description  Get a paginated list of prescriptions, newest first, optionally scoped to one patient
// @Tags         Prescription
// @Accept       json
// @Produce      json
// @Param        limit query int false "Limit number of results"
// @Param        offset query int false "Offset for pagination"
// @Param        patient_id query int false "Only prescriptions for this patient"
// @Success      200 {object} util.APIResponse{data=object} "Prescriptions retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /prescription [get]
func ListPrescriptions(c *gin.Context) {
	query := parsePrescriptionQueryParams(c)

	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	prescriptions, total, err := fetchPrescriptions(db, query)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve prescriptions",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Prescriptions retrieved",
		Data: map[string]interface{}{"total": total, "total_fetched": len(prescriptions), "prescriptions": prescriptions},
	})
}

func getPrescriptionByID(c *gin.Context, db *gorm.DB) (string, model.Prescription, error) {
	id := c.Param("id")
	if id == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Missing prescription ID",
			Err: fmt.Errorf("prescription ID is required"),
		})
		return "", model.Prescription{}, fmt.Errorf("prescription ID is required")
	}

	var prescription model.Prescription
	if err := db.First(&prescription, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.CallErrorNotFound(c, util.APIErrorParams{
				Msg: "Prescription not found",
				Err: err,
			})
		} else {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Failed to retrieve prescription",
				Err: err,
			})
		}
		return "", model.Prescription{}, err
	}

	return id, prescription, nil
}

// GetPrescription godoc
// @Summary      Get a prescription
// @Description  Get a single prescription by ID
// @Tags         Prescription
// @Accept       json
// @Produce      json
// @Param        id path string true "Prescription ID"
// @Success      200 {object} util.APIResponse{data=model.Prescription} "Prescription retrieved"
// @Failure      404 {object} util.APIResponse "Prescription not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /prescription/{id} [get]
func GetPrescription(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	_, prescription, err := getPrescriptionByID(c, db)
	if err != nil {
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Prescription retrieved",
		Data: prescription,
	})
}

// DeletePrescription godoc
// @Summary      Delete a prescription
// @Description  Delete a prescription by ID, which also unblocks deleting its patient
// @Tags         Prescription
// @Accept       json
// @Produce      json
// @Param        id path string true "Prescription ID"
// @Success      200 {object} util.APIResponse "Prescription deleted"
// @Failure      404 {object} util.APIResponse "Prescription not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /prescription/{id} [delete]
func DeletePrescription(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	_, prescription, err := getPrescriptionByID(c, db)
	if err != nil {
		return
	}

	if err := db.Delete(&prescription).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to delete prescription",
			Err: err,
		})
		return
	}

	util.LogPrescriptionDeleted(util.PrescriptionEventParams{
		PrescriptionID: prescription.ID,
		PatientID:      prescription.PatientID,
		IP:             c.ClientIP(),
		UserAgent:      c.Request.UserAgent(),
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Prescription deleted",
	})
}

// ExportPrescriptionPDF godoc
// @Summary      Export a prescription as PDF
// @Description  Render a printable A4 document for the prescription and its patient
// @Tags         Prescription
// @Accept       json
// @Produce      application/pdf
// @Param        id path string true "Prescription ID"
// @Success      200 {file} file "PDF document"
// @Failure      404 {object} util.APIResponse "Prescription not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /prescription/{id}/pdf [get]
func ExportPrescriptionPDF(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	_, prescription, err := getPrescriptionByID(c, db)
	if err != nil {
		return
	}

	var patient model.Patient
	if err := db.First(&patient, prescription.PatientID).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve patient for prescription",
			Err: err,
		})
		return
	}

	document, err := report.PrescriptionPDF(report.PrescriptionDocument{
		Patient:      patient,
		Prescription: prescription,
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to render prescription PDF",
			Err: err,
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=prescription-%d.pdf", prescription.ID))
	c.Data(http.StatusOK, "application/pdf", document)
}
