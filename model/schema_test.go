package model

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openEmptyTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:schemadb_%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db
}

func TestEnsureSchema_CreatesTables(t *testing.T) {
	db := openEmptyTestDB(t, "create")

	err := EnsureSchema(db)
	assert.NoError(t, err)

	assert.True(t, db.Migrator().HasTable("patients"))
	assert.True(t, db.Migrator().HasTable("prescriptions"))

	for _, column := range []string{"id", "name", "age", "weight", "height", "allergies", "medical_history"} {
		assert.True(t, db.Migrator().HasColumn(&Patient{}, column), "patients.%s missing", column)
	}
	for _, column := range []string{"id", "patient_id", "ai_summary", "treatment_options", "medication_recommendations"} {
		assert.True(t, db.Migrator().HasColumn(&Prescription{}, column), "prescriptions.%s missing", column)
	}
}

func TestEnsureSchema_DeclaresForeignKey(t *testing.T) {
	db := openEmptyTestDB(t, "fk")

	assert.NoError(t, EnsureSchema(db))
	assert.True(t, db.Migrator().HasConstraint(&Patient{}, "Prescriptions"))
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	db := openEmptyTestDB(t, "idempotent")

	assert.NoError(t, EnsureSchema(db))

	before := describeSchema(t, db)

	// The second run must not error and must leave the schema identical.
	assert.NoError(t, EnsureSchema(db))

	after := describeSchema(t, db)
	assert.Equal(t, before, after)
}

func TestEnsureSchema_SurvivesExistingData(t *testing.T) {
	db := openEmptyTestDB(t, "data")

	assert.NoError(t, EnsureSchema(db))

	patient := Patient{Name: "Existing Row"}
	assert.NoError(t, db.Create(&patient).Error)

	assert.NoError(t, EnsureSchema(db))

	var count int64
	db.Model(&Patient{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

// describeSchema captures table names and their column names so two schema
// states can be compared for equality.
func describeSchema(t *testing.T, db *gorm.DB) map[string][]string {
	t.Helper()
	out := make(map[string][]string)
	for _, m := range SchemaModels {
		types, err := db.Migrator().ColumnTypes(m)
		if err != nil {
			t.Fatalf("column types: %v", err)
		}
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			t.Fatalf("parse model: %v", err)
		}
		columns := make([]string, 0, len(types))
		for _, ct := range types {
			columns = append(columns, ct.Name())
		}
		out[stmt.Schema.Table] = columns
	}
	return out
}

func TestIsForeignKeyViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "translated violation", err: gorm.ErrForeignKeyViolated, want: true},
		{name: "wrapped translated violation", err: fmt.Errorf("delete patient: %w", gorm.ErrForeignKeyViolated), want: true},
		{name: "untranslated sqlite restrict failure", err: errors.New("FOREIGN KEY constraint failed"), want: true},
		{name: "unrelated error", err: errors.New("connection refused"), want: false},
		{name: "record not found", err: gorm.ErrRecordNotFound, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsForeignKeyViolation(tt.err))
		})
	}
}
