package model

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// SchemaModels lists every persisted entity in dependency order: the patient
// table must exist before the prescription table, whose foreign key
// references patients.id.
var SchemaModels = []interface{}{
	&Patient{},
	&Prescription{},
}

// schemaTables are the table names EnsureSchema is expected to leave behind.
var schemaTables = []string{"patients", "prescriptions"}

// IsForeignKeyViolation reports whether err is a referential-integrity
// violation. The sqlite driver leaves RESTRICT failures raised on DELETE
// untranslated (only INSERT-side violations map to ErrForeignKeyViolated),
// so the raw constraint message is matched as well.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// EnsureSchema brings the store to the expected two-table structure. Every
// statement issued is conditional on current state, so applying it to an
// already-initialized store changes nothing; the store's first-boot script
// and this function can both run without conflicting.
func EnsureSchema(db *gorm.DB) error {
	for _, m := range SchemaModels {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	for _, table := range schemaTables {
		if !db.Migrator().HasTable(table) {
			return fmt.Errorf("ensure schema: table %q missing after migration", table)
		}
	}
	return nil
}
