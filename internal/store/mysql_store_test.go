package store

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const regionQuery = "SELECT \\* FROM `region_names` WHERE country_code = \\? AND region_code = \\? .*"

// setupMockDB creates a mock database for testing
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open gorm db: %v", err)
	}

	return db, mock, sqlDB
}

// TestMySQLStore_RegionName_Success tests successful lookup
func TestMySQLStore_RegionName_Success(t *testing.T) {
	db, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	store := &MySQLStore{db: db}

	// GORM adds LIMIT 1 to First() queries, so the limit is the third arg
	rows := sqlmock.NewRows([]string{"country_code", "region_code", "name"}).
		AddRow("US", "CA", "California")

	mock.ExpectQuery(regionQuery).
		WithArgs("US", "CA", 1).
		WillReturnRows(rows)

	name, err := store.RegionName("US", "CA")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "California" {
		t.Errorf("expected 'California', got '%s'", name)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// TestMySQLStore_RegionName_NormalizesCodes tests that codes are upper-cased before querying
func TestMySQLStore_RegionName_NormalizesCodes(t *testing.T) {
	tests := []struct {
		country string
		region  string
		name    string
	}{
		{"us", "ny", "New York"},
		{" ca ", "qc", "Québec"},
		{"US", "TX", "Texas"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, sqlDB := setupMockDB(t)
			defer sqlDB.Close()

			store := &MySQLStore{db: db}

			rows := sqlmock.NewRows([]string{"country_code", "region_code", "name"}).
				AddRow(normalizeCode(tt.country), normalizeCode(tt.region), tt.name)

			mock.ExpectQuery(regionQuery).
				WithArgs(normalizeCode(tt.country), normalizeCode(tt.region), 1).
				WillReturnRows(rows)

			name, err := store.RegionName(tt.country, tt.region)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if name != tt.name {
				t.Errorf("expected '%s', got '%s'", tt.name, name)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

// TestMySQLStore_RegionName_NotFound tests region not found
func TestMySQLStore_RegionName_NotFound(t *testing.T) {
	db, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	store := &MySQLStore{db: db}

	mock.ExpectQuery(regionQuery).
		WithArgs("US", "ZZ", 1).
		WillReturnError(gorm.ErrRecordNotFound)

	name, err := store.RegionName("US", "ZZ")

	if !errors.Is(err, ErrRegionNotFound) {
		t.Errorf("expected ErrRegionNotFound, got %v", err)
	}
	if name != "" {
		t.Errorf("expected empty name, got '%s'", name)
	}

	mock.ExpectationsWereMet()
}

// TestMySQLStore_RegionName_EmptyResult tests a query returning no rows
func TestMySQLStore_RegionName_EmptyResult(t *testing.T) {
	db, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	store := &MySQLStore{db: db}

	mock.ExpectQuery(regionQuery).
		WithArgs("CA", "XX", 1).
		WillReturnRows(sqlmock.NewRows([]string{"country_code", "region_code", "name"}))

	_, err := store.RegionName("CA", "XX")
	if !errors.Is(err, ErrRegionNotFound) {
		t.Errorf("expected ErrRegionNotFound for empty result, got %v", err)
	}

	mock.ExpectationsWereMet()
}

// TestMySQLStore_RegionName_DatabaseError tests database errors
func TestMySQLStore_RegionName_DatabaseError(t *testing.T) {
	db, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	store := &MySQLStore{db: db}

	mock.ExpectQuery(regionQuery).
		WithArgs("US", "CA", 1).
		WillReturnError(sql.ErrConnDone)

	_, err := store.RegionName("US", "CA")

	if err == nil {
		t.Fatal("expected database error, got nil")
	}
	// Should wrap the error, not report a missing region
	if errors.Is(err, ErrRegionNotFound) {
		t.Error("expected database error, got not found error")
	}
	if !errors.Is(err, sql.ErrConnDone) {
		t.Errorf("expected wrapped sql.ErrConnDone, got %v", err)
	}

	mock.ExpectationsWereMet()
}

// TestMySQLStore_Close tests cleanup
func TestMySQLStore_Close(t *testing.T) {
	db, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	store := &MySQLStore{db: db}

	mock.ExpectClose()

	if err := store.Close(); err != nil {
		t.Errorf("unexpected error on close: %v", err)
	}

	mock.ExpectationsWereMet()
}

// TestMySQLStore_Close_NilDB tests close with nil db
func TestMySQLStore_Close_NilDB(t *testing.T) {
	store := &MySQLStore{db: nil}

	if err := store.Close(); err != nil {
		t.Errorf("expected no error for nil db, got: %v", err)
	}
}

// TestRegionNameModel_TableName tests GORM table name override
func TestRegionNameModel_TableName(t *testing.T) {
	if name := (RegionNameModel{}).TableName(); name != "region_names" {
		t.Errorf("expected table name 'region_names', got '%s'", name)
	}
}
