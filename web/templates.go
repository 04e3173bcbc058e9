// Package web holds the server-rendered page templates.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"time"

	"github.com/noah-isme/unirate/internal/models"
	"github.com/noah-isme/unirate/pkg/pagination"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// Templates parses every embedded page and partial into one set. Each page is addressed
// by the name given in its {{define}} block.
func Templates() (*template.Template, error) {
	tmpl, err := template.New("unirate").Funcs(Funcs()).ParseFS(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

// Funcs are the helpers available to page templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"rating":         FormatRating,
		"average":        func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) },
		"percent":        func(v float64) string { return strconv.FormatFloat(v, 'f', 0, 64) + "%" },
		"date":           func(t time.Time) string { return t.Format("2 Jan 2006") },
		"dimensionLabel": DimensionLabel,
		"ratingValues":   RatingValues,
		"barWidth":       BarWidth,
		"pageWindow":     pagination.Window,
		"pageURL":        pagination.URL,
		"subjectsQuery":  SubjectsQuery,
		"pathEscape":     url.PathEscape,
		"deref":          func(s *string) string { return derefString(s) },
		"add1":           func(n int) int { return n + 1 },
		"sub1":           func(n int) int { return n - 1 },
		"pager":          NewPager,
	}
}

// FormatRating renders a subject's average rating, or a placeholder when it has none.
func FormatRating(avg *float64) string {
	if avg == nil {
		return "No reviews yet"
	}
	return strconv.FormatFloat(*avg, 'f', 1, 64)
}

// DimensionLabel is the human label of a rating dimension.
func DimensionLabel(d models.RatingDimension) string {
	switch d {
	case models.DimensionOverall:
		return "Overall"
	case models.DimensionDifficulty:
		return "Difficulty"
	case models.DimensionWorkload:
		return "Workload"
	case models.DimensionTeachingQuality:
		return "Teaching quality"
	}
	return string(d)
}

// RatingValues lists the rating scale from highest to lowest, the order histograms are drawn in.
func RatingValues() []int {
	values := make([]int, 0, models.MaxRating)
	for v := models.MaxRating; v >= models.MinRating; v-- {
		values = append(values, v)
	}
	return values
}

// BarWidth is count as a whole percentage of total, 0 when total is 0.
func BarWidth(count, total int) int {
	if total <= 0 {
		return 0
	}
	return count * 100 / total
}

// SubjectsQuery holds the filter parameters that subject-list links carry between pages.
// The default sort is left out.
func SubjectsQuery(f models.SubjectFilter) url.Values {
	q := url.Values{}
	q.Set("faculty", f.FacultyID)
	q.Set("category", f.CategoryCode)
	q.Set("search", f.Search)
	if f.SortBy != "" && f.SortBy != models.SubjectSortDefault {
		q.Set("sort", string(f.SortBy))
	}
	return q
}

// Pager is the input of the "pagination" partial.
type Pager struct {
	Path       string
	Query      url.Values
	Pagination *models.Pagination
}

// NewPager bundles the link target and page metadata for the pagination partial.
func NewPager(path string, query url.Values, p *models.Pagination) Pager {
	if p == nil {
		p = &models.Pagination{}
	}
	return Pager{Path: path, Query: query, Pagination: p}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
