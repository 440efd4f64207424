package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RegionNameModel is the GORM model for the region_names table
type RegionNameModel struct {
	CountryCode string `gorm:"column:country_code;primaryKey;size:2"`
	RegionCode  string `gorm:"column:region_code;primaryKey;size:3"`
	Name        string `gorm:"column:name"`
}

// TableName overrides GORM's default "region_name_models"
func (RegionNameModel) TableName() string {
	return "region_names"
}

// MySQLStore implements RegionStore using MySQL with GORM
type MySQLStore struct {
	db *gorm.DB
}

// NewMySQLStore connects to MySQL.
//
// dsn format: user:password@tcp(host:port)/dbname?parseTime=true
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(mysql.Open(dsn), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL with GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping MySQL database: %w", err)
	}

	return &MySQLStore{db: db}, nil
}

// RegionName implements RegionStore
//
// SELECT * FROM region_names WHERE country_code = ? AND region_code = ? ORDER BY ... LIMIT 1
func (s *MySQLStore) RegionName(countryCode, regionCode string) (string, error) {
	var record RegionNameModel

	result := s.db.
		Where("country_code = ? AND region_code = ?", normalizeCode(countryCode), normalizeCode(regionCode)).
		First(&record)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: %s/%s", ErrRegionNotFound, countryCode, regionCode)
		}
		return "", fmt.Errorf("database query failed: %w", result.Error)
	}

	return record.Name, nil
}

// Close closes the database connection
func (s *MySQLStore) Close() error {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
