package database

import (
	"database/sql"
	"time"

	"github.com/Alias1177/Forecaster/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// New creates a new database connection from a Postgres connection string
func New(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS forecast_history (
			id SERIAL PRIMARY KEY,
			question_id BIGINT NOT NULL,
			title TEXT NOT NULL,
			probability DOUBLE PRECISION NOT NULL,
			runs INT NOT NULL,
			rationale TEXT,
			created_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

// RecordForecast inserts one submitted forecast into the history table
func (db *DB) RecordForecast(rec models.ForecastRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := db.Exec(`
		INSERT INTO forecast_history (
			question_id, title, probability, runs, rationale, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`,
		rec.QuestionID, rec.Title, rec.Probability, rec.Runs, rec.Rationale, rec.CreatedAt)

	return err
}

