package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unirate/internal/models"
)

var subjectRowColumns = []string{
	"id", "university_id", "faculty_id", "name", "code", "description", "credits", "category_code", "average_rating", "review_count", "created_at", "updated_at",
	"faculty.id", "faculty.name", "faculty.short_name", "university.id", "university.name", "university.short_name",
}

func subjectRows(avg interface{}, count int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(subjectRowColumns).
		AddRow("s1", "u1", "f1", "Algorithms", "IB002", nil, 5, "CS", avg, count, now, now, "f1", "Faculty of Informatics", "FI", "u1", "Masaryk University", "MUNI")
}

func TestSubjectRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db, nil)

	where := "WHERE s.university_id = $1 AND s.faculty_id = $2 AND s.category_code = $3 AND (s.name ILIKE $4 OR s.code ILIKE $4) AND st.average_rating IS NOT NULL"
	mock.ExpectQuery(regexp.QuoteMeta(where+" ORDER BY st.average_rating DESC, s.name ASC LIMIT 12 OFFSET 12")).
		WithArgs("u1", "f1", "CS", "%algo%").
		WillReturnRows(subjectRows(4.5, 2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM subjects s LEFT JOIN subjects_with_stats st ON st.id = s.id "+where)).
		WithArgs("u1", "f1", "CS", "%algo%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(13))

	subjects, total, err := repo.List(context.Background(), models.SubjectFilter{
		UniversityID: "u1",
		FacultyID:    "f1",
		CategoryCode: "CS",
		Search:       " algo ",
		SortBy:       models.SubjectSortHighestRating,
		Page:         2,
		PageSize:     12,
	})
	require.NoError(t, err)
	assert.Equal(t, 13, total)
	require.Len(t, subjects, 1)
	assert.Equal(t, "Faculty of Informatics", subjects[0].Faculty.Name)
	assert.Equal(t, "MUNI", subjects[0].University.ShortName)
	require.NotNil(t, subjects[0].AverageRating)
	assert.InDelta(t, 4.5, *subjects[0].AverageRating, 0.0001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryListDefaultOrderKeepsUnrated(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.university_id = $1 ORDER BY s.name ASC LIMIT 10 OFFSET 0")).
		WithArgs("u1").
		WillReturnRows(subjectRows(nil, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM subjects s LEFT JOIN subjects_with_stats st ON st.id = s.id WHERE s.university_id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	subjects, total, err := repo.List(context.Background(), models.SubjectFilter{UniversityID: "u1", SortBy: "bogus"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, subjects, 1)
	assert.False(t, subjects[0].HasReviews())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectOrder(t *testing.T) {
	assert.Equal(t, "st.average_rating ASC, s.name ASC", subjectOrder(models.SubjectSortLowestRating))
	assert.Equal(t, "COALESCE(st.review_count, 0) DESC, s.name ASC", subjectOrder(models.SubjectSortMostReviewed))
	assert.Equal(t, "s.name ASC", subjectOrder(models.SubjectSortDefault))
}

func TestSubjectRepositoryFindByCodeFallsBackToFoldedMatch(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects s LEFT JOIN subjects_with_stats st ON st.id = s.id JOIN faculties f ON f.id = s.faculty_id JOIN universities u ON u.id = s.university_id WHERE s.university_id = $1 AND s.code = $2 LIMIT 1")).
		WithArgs("u1", "ib002").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.university_id = $1 AND LOWER(s.code) = LOWER($2) ORDER BY s.code LIMIT 1")).
		WithArgs("u1", "ib002").
		WillReturnRows(subjectRows(3.0, 1))

	subject, err := repo.FindByCode(context.Background(), "u1", "ib002")
	require.NoError(t, err)
	assert.Equal(t, "IB002", subject.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryFindByCodeNotFound(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("AND s.code = $2")).WithArgs("u1", "X").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("AND LOWER(s.code) = LOWER($2)")).WithArgs("u1", "X").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByCode(context.Background(), "u1", "X")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryCategories(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT category_code FROM subjects WHERE university_id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"category_code"}).AddRow("CS").AddRow("MATH"))

	categories, err := repo.Categories(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"CS", "MATH"}, categories)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryFindByIDReadsBaseTable(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db, nil)

	// A subject added after the last view refresh has no stats row yet.
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(st.review_count, 0) AS review_count") + ".*" +
		regexp.QuoteMeta("FROM subjects s LEFT JOIN subjects_with_stats st ON st.id = s.id") + ".*" +
		regexp.QuoteMeta("WHERE s.id = $1")).
		WithArgs("s1").
		WillReturnRows(subjectRows(nil, 0))

	subject, err := repo.FindByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "IB002", subject.Code)
	assert.False(t, subject.HasReviews())
	assert.Equal(t, 0, subject.ReviewCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryListMostReviewedReadsBaseTable(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects s LEFT JOIN subjects_with_stats st ON st.id = s.id") + ".*" +
		regexp.QuoteMeta("WHERE s.university_id = $1 ORDER BY COALESCE(st.review_count, 0) DESC, s.name ASC LIMIT 10 OFFSET 0")).
		WithArgs("u1").
		WillReturnRows(subjectRows(nil, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM subjects s LEFT JOIN subjects_with_stats st ON st.id = s.id WHERE s.university_id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	subjects, total, err := repo.List(context.Background(), models.SubjectFilter{UniversityID: "u1", SortBy: models.SubjectSortMostReviewed})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, subjects, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryFindByIDMalformedIDIsNotFound(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.id = $1")).
		WithArgs("not-a-uuid").
		WillReturnError(&pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "not-a-uuid"`})

	subject, err := repo.FindByID(context.Background(), "not-a-uuid")
	assert.Nil(t, subject)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryListMalformedFacultyIsEmpty(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.university_id = $1 AND s.faculty_id = $2")).
		WithArgs("u1", "abc").
		WillReturnError(&pq.Error{Code: "22P02"})

	subjects, total, err := repo.List(context.Background(), models.SubjectFilter{UniversityID: "u1", FacultyID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NotNil(t, subjects)
	assert.Empty(t, subjects)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryListOtherErrorsPropagate(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.university_id = $1")).
		WithArgs("u1").
		WillReturnError(&pq.Error{Code: "57014"})

	_, _, err := repo.List(context.Background(), models.SubjectFilter{UniversityID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list subjects")
	assert.NoError(t, mock.ExpectationsWereMet())
}
