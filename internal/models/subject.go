package models

import "time"

// Subject represents a university course. AverageRating is nil while the subject has no reviews.
type Subject struct {
	ID            string            `db:"id" json:"id"`
	UniversityID  string            `db:"university_id" json:"university_id"`
	FacultyID     string            `db:"faculty_id" json:"faculty_id"`
	Name          string            `db:"name" json:"name"`
	Code          string            `db:"code" json:"code"`
	Description   *string           `db:"description" json:"description,omitempty"`
	Credits       *int              `db:"credits" json:"credits,omitempty"`
	CategoryCode  *string           `db:"category_code" json:"category_code,omitempty"`
	AverageRating *float64          `db:"average_rating" json:"average_rating"`
	ReviewCount   int               `db:"review_count" json:"review_count"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`
	Faculty       FacultySummary    `db:"faculty" json:"faculty"`
	University    UniversitySummary `db:"university" json:"university"`
}

// HasReviews reports whether the subject has at least one rating.
func (s Subject) HasReviews() bool {
	return s.AverageRating != nil
}

// SubjectSort enumerates supported subject orderings.
type SubjectSort string

const (
	SubjectSortDefault       SubjectSort = "default"
	SubjectSortHighestRating SubjectSort = "highest_rating"
	SubjectSortLowestRating  SubjectSort = "lowest_rating"
	SubjectSortMostReviewed  SubjectSort = "most_reviewed"
)

// ParseSubjectSort maps raw query values to a SubjectSort, falling back to the default ordering.
func ParseSubjectSort(raw string) SubjectSort {
	switch SubjectSort(raw) {
	case SubjectSortHighestRating, SubjectSortLowestRating, SubjectSortMostReviewed:
		return SubjectSort(raw)
	default:
		return SubjectSortDefault
	}
}

// SubjectFilter captures supported filters for listing a university's subjects.
type SubjectFilter struct {
	UniversityID string
	FacultyID    string
	CategoryCode string
	Search       string
	SortBy       SubjectSort
	Page         int
	PageSize     int
}
