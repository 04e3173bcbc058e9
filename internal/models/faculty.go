package models

import "time"

// Faculty belongs to a university and groups its subjects.
type Faculty struct {
	ID           string    `db:"id" json:"id"`
	UniversityID string    `db:"university_id" json:"university_id"`
	Name         string    `db:"name" json:"name"`
	ShortName    string    `db:"short_name" json:"short_name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// FacultySummary is the slim projection joined onto subjects.
type FacultySummary struct {
	ID        string  `db:"id" json:"id"`
	Name      string  `db:"name" json:"name"`
	ShortName *string `db:"short_name" json:"short_name,omitempty"`
}
