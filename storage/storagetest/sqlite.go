package storagetest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jichangyoon/samu-rewards/storage"
	"gorm.io/gorm"
)

// NewSQLiteDB opens a private in-memory database with the schema migrated.
// A single connection keeps sqlite writes serialized under concurrent tests.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := storage.OpenSQL("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}
