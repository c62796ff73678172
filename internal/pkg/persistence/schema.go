package persistence

import (
	_ "embed" // for the sqlite schema
	"fmt"
	"strings"

	"gorm.io/gorm"
)

//go:embed schema/sqlite.sql
var sqliteSchema string

//CreateSQLiteSchema creates the toll tables in an embedded SQLite database unless they already exist.
//Production databases are expected to carry the schema already.
func CreateSQLiteSchema(db *gorm.DB) error {
	for _, stmt := range strings.Split(sqliteSchema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}

		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}
