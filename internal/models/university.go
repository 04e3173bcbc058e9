package models

import "time"

// University represents a university row, optionally enriched with its review count.
type University struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	ShortName   string    `db:"short_name" json:"short_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
	ReviewCount *int      `db:"review_count" json:"review_count,omitempty"`
}

// UniversitySummary is the slim projection joined onto subjects.
type UniversitySummary struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	ShortName string `db:"short_name" json:"short_name"`
}
