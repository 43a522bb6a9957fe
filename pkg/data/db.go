// Package data persists per-user tide window preferences.
package data

import (
	"fmt"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// User holds one visitor's saved preferences: the station they care about
// and the height band they want windows for.
type User struct {
	gorm.Model
	Name             string
	Station          string
	MinTide, MaxTide *float64
	LastSeen         time.Time
}

// PostgresFromEnv connects to the preference database described by the
// conventional PG* environment variables. If PGHOST is unset there is no
// database and both results are nil; preferences then live only in the
// session cookie.
func PostgresFromEnv() (*gorm.DB, error) {
	host := os.Getenv("PGHOST")
	if host == "" {
		return nil, nil
	}
	pw := os.Getenv("PGPASSWORD")
	port := os.Getenv("PGPORT")
	dsn := fmt.Sprintf("host=%s user=postgres password=%s dbname=tidecal port=%s sslmode=disable TimeZone=Etc/GMT",
		host,
		pw,
		port)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&User{}); err != nil {
		return nil, err
	}
	return db, nil
}
