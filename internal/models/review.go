package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a stored review row. UserID never leaves the service layer.
type Review struct {
	ID                    string    `db:"id" json:"id"`
	UserID                string    `db:"user_id" json:"-"`
	SubjectID             string    `db:"subject_id" json:"subject_id"`
	Content               string    `db:"content" json:"content"`
	DifficultyRating      int       `db:"difficulty_rating" json:"difficulty_rating"`
	WorkloadRating        int       `db:"workload_rating" json:"workload_rating"`
	TeachingQualityRating int       `db:"teaching_quality_rating" json:"teaching_quality_rating"`
	OverallRating         int       `db:"overall_rating" json:"overall_rating"`
	IsVerifiedStudent     bool      `db:"is_verified_student" json:"is_verified_student"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

// AnonymousReview is the public projection of a review served from the anonymous_reviews view.
type AnonymousReview struct {
	ID                    string    `db:"id" json:"id"`
	Content               string    `db:"content" json:"content"`
	DifficultyRating      int       `db:"difficulty_rating" json:"difficulty_rating"`
	WorkloadRating        int       `db:"workload_rating" json:"workload_rating"`
	TeachingQualityRating int       `db:"teaching_quality_rating" json:"teaching_quality_rating"`
	OverallRating         int       `db:"overall_rating" json:"overall_rating"`
	IsVerifiedStudent     bool      `db:"is_verified_student" json:"is_verified_student"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
	SubjectCode           string    `db:"subject_code" json:"subject_code"`
	SubjectName           string    `db:"subject_name" json:"subject_name"`
	SubjectDescription    *string   `db:"subject_description" json:"subject_description,omitempty"`
	SubjectCredits        *int      `db:"subject_credits" json:"subject_credits,omitempty"`
	UniversityName        string    `db:"university_name" json:"university_name"`
	UniversityShortName   string    `db:"university_short_name" json:"university_short_name"`
	FacultyName           string    `db:"faculty_name" json:"faculty_name"`
	FacultyShortName      *string   `db:"faculty_short_name" json:"faculty_short_name,omitempty"`
}

// ReviewFilter selects a page of anonymous reviews for one subject.
type ReviewFilter struct {
	SubjectCode         string
	UniversityShortName string
	Page                int
	PageSize            int
}

// ReviewRatings holds the four rating columns read for aggregation.
type ReviewRatings struct {
	DifficultyRating      int  `db:"difficulty_rating"`
	WorkloadRating        int  `db:"workload_rating"`
	TeachingQualityRating int  `db:"teaching_quality_rating"`
	OverallRating         int  `db:"overall_rating"`
	IsVerifiedStudent     bool `db:"is_verified_student"`
}

// RatingDimension names one of the four rated aspects of a subject.
type RatingDimension string

const (
	DimensionOverall         RatingDimension = "overall"
	DimensionDifficulty      RatingDimension = "difficulty"
	DimensionWorkload        RatingDimension = "workload"
	DimensionTeachingQuality RatingDimension = "teaching_quality"
)

// Dimensions lists rating dimensions in display order.
var Dimensions = []RatingDimension{DimensionOverall, DimensionDifficulty, DimensionWorkload, DimensionTeachingQuality}

// Distribution counts reviews per rating value 1..5.
type Distribution map[int]int

// Add counts one rating. Values outside 1..5 are ignored.
func (d Distribution) Add(rating int) {
	if rating < MinRating || rating > MaxRating {
		return
	}
	d[rating]++
}

// RatingAverages carries the arithmetic mean per dimension.
type RatingAverages struct {
	Overall         float64 `json:"overall"`
	Difficulty      float64 `json:"difficulty"`
	Workload        float64 `json:"workload"`
	TeachingQuality float64 `json:"teaching_quality"`
}

// Get returns the average for a dimension.
func (a RatingAverages) Get(d RatingDimension) float64 {
	switch d {
	case DimensionOverall:
		return a.Overall
	case DimensionDifficulty:
		return a.Difficulty
	case DimensionWorkload:
		return a.Workload
	case DimensionTeachingQuality:
		return a.TeachingQuality
	}
	return 0
}

// RatingDistributions carries the histogram per dimension.
type RatingDistributions struct {
	Overall         Distribution `json:"overall"`
	Difficulty      Distribution `json:"difficulty"`
	Workload        Distribution `json:"workload"`
	TeachingQuality Distribution `json:"teaching_quality"`
}

// Get returns the distribution for a dimension.
func (d RatingDistributions) Get(dim RatingDimension) Distribution {
	switch dim {
	case DimensionOverall:
		return d.Overall
	case DimensionDifficulty:
		return d.Difficulty
	case DimensionWorkload:
		return d.Workload
	case DimensionTeachingQuality:
		return d.TeachingQuality
	}
	return nil
}

// ReviewStats is derived per request from all reviews of a subject.
type ReviewStats struct {
	TotalReviews       int                 `json:"total_reviews"`
	AverageRatings     RatingAverages      `json:"average_ratings"`
	RatingDistribution RatingDistributions `json:"rating_distribution"`
	VerifiedCount      int                 `json:"verified_count"`
	VerifiedPercentage float64             `json:"verified_percentage"`
}
