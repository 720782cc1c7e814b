package endpoint

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"prescription-ai/agent"
	"prescription-ai/config"
	"prescription-ai/middleware"
	"prescription-ai/model"
)

// stubAgent returns a canned reply or error instead of calling the inference
// service.
type stubAgent struct {
	reply string
	err   error
}

var _ agent.Client = stubAgent{}

func (s stubAgent) Generate(ctx context.Context, prompt string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

// recordingAgent additionally captures the prompt it was asked to answer.
type recordingAgent struct {
	reply  string
	prompt *string
}

func (r recordingAgent) Generate(ctx context.Context, prompt string) (string, error) {
	*r.prompt = prompt
	return r.reply, nil
}

// setupEndpointTestDB initializes a test database with the clinical schema
// applied. Cleanup is registered via t.Cleanup().
func setupEndpointTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	t.Setenv("APPENV", "test")

	db, err := config.ConnectMySQL()
	if err != nil {
		t.Fatalf("failed to connect test DB: %v", err)
	}

	if err := model.EnsureSchema(db); err != nil {
		t.Fatalf("ensure schema failed: %v", err)
	}

	// Clean up rows in FK order, then drop on exit.
	db.Where("1 = 1").Delete(&model.Prescription{})
	db.Where("1 = 1").Delete(&model.Patient{})
	t.Cleanup(func() {
		_ = db.Migrator().DropTable(&model.Prescription{})
		_ = db.Migrator().DropTable(&model.Patient{})
	})

	return db
}

// setupEndpointTest returns a Gin engine and database connection configured
// for endpoint tests.
func setupEndpointTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := setupEndpointTestDB(t)
	r := gin.New()
	r.Use(middleware.DatabaseMiddleware(db))
	return r, db
}

// setupEndpointTestWithAgent wires a stub inference client in addition to the
// database, for handlers that call the model.
func setupEndpointTestWithAgent(t *testing.T, client agent.Client) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := setupEndpointTestDB(t)
	r := gin.New()
	r.Use(middleware.DatabaseMiddleware(db))
	r.Use(middleware.AgentMiddleware(client))
	return r, db
}

// newTestRouter returns a new Gin engine configured for tests.
// Use this for tests that don't need a DB injected.
func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func seedPatient(t *testing.T, db *gorm.DB, patient model.Patient) model.Patient {
	t.Helper()
	if err := db.Create(&patient).Error; err != nil {
		t.Fatalf("failed to seed patient: %v", err)
	}
	return patient
}

func seedPrescription(t *testing.T, db *gorm.DB, prescription model.Prescription) model.Prescription {
	t.Helper()
	if err := db.Create(&prescription).Error; err != nil {
		t.Fatalf("failed to seed prescription: %v", err)
	}
	return prescription
}

// assertStatus asserts that the response HTTP status code matches the expected value
func assertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, w.Code)
}

// assertSuccessResponse asserts that the response indicates success with HTTP 200
func assertSuccessResponse(t *testing.T, w *httptest.ResponseRecorder, response map[string]interface{}) {
	t.Helper()
	assert.Equal(t, http.StatusOK, w.Code)
	if response == nil {
		return
	}
	if success, ok := response["success"].(bool); ok {
		assert.True(t, success)
	}
}
