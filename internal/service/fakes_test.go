package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/unirate/internal/models"
	"github.com/noah-isme/unirate/internal/repository"
	appErrors "github.com/noah-isme/unirate/pkg/errors"
	"github.com/noah-isme/unirate/pkg/jobs"
)

type memoryCache struct {
	mu      sync.Mutex
	items   map[string][]byte
	deleted []string
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}

func newEnabledCache(repo CacheRepository) *CacheService {
	return NewCacheService(repo, nil, time.Minute, nil, true)
}

type mockUniversityRepo struct {
	mu          sync.Mutex
	items       []models.University
	listCalls   int
	lookupCalls int
	err         error
}

func (m *mockUniversityRepo) List(ctx context.Context, search string) ([]models.University, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.University, 0)
	for _, u := range m.items {
		if search == "" || strings.Contains(strings.ToLower(u.Name+" "+u.ShortName), strings.ToLower(search)) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUniversityRepo) FindByShortName(ctx context.Context, shortName string) (*models.University, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookupCalls++
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.items {
		if strings.EqualFold(u.ShortName, shortName) {
			cp := u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

type mockFacultyRepo struct {
	items []models.Faculty
	calls int
	err   error
}

func (m *mockFacultyRepo) ListByUniversity(ctx context.Context, universityID string) ([]models.Faculty, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

type mockSubjectRepo struct {
	mu         sync.Mutex
	items      []models.Subject
	total      int
	lastFilter models.SubjectFilter
	categories []string
	listErr    error
	catErr     error
}

func (m *mockSubjectRepo) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.items, m.total, nil
}

func (m *mockSubjectRepo) FindByCode(ctx context.Context, universityID, code string) (*models.Subject, error) {
	for _, s := range m.items {
		if s.UniversityID == universityID && strings.EqualFold(s.Code, code) {
			cp := s
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubjectRepo) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	for _, s := range m.items {
		if s.ID == id {
			cp := s
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubjectRepo) Categories(ctx context.Context, universityID string) ([]string, error) {
	if m.catErr != nil {
		return nil, m.catErr
	}
	return m.categories, nil
}

type reviewKey struct {
	user    string
	subject string
}

type mockReviewRepo struct {
	mu         sync.Mutex
	stored     map[reviewKey]models.Review
	ratings    []models.ReviewRatings
	anonymous  []models.AnonymousReview
	total      int
	lastFilter models.ReviewFilter
	createErr  error
	listErr    error
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{stored: make(map[reviewKey]models.Review)}
}

func (m *mockReviewRepo) ListAnonymous(ctx context.Context, filter models.ReviewFilter) ([]models.AnonymousReview, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.anonymous, m.total, nil
}

func (m *mockReviewRepo) RatingsBySubject(ctx context.Context, subjectID string) ([]models.ReviewRatings, error) {
	return m.ratings, nil
}

func (m *mockReviewRepo) Exists(ctx context.Context, userID, subjectID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.stored[reviewKey{userID, subjectID}]
	return ok, nil
}

func (m *mockReviewRepo) Create(ctx context.Context, review *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	key := reviewKey{review.UserID, review.SubjectID}
	if _, ok := m.stored[key]; ok {
		return repository.ErrDuplicateReview
	}
	review.ID = "review-" + review.UserID + "-" + review.SubjectID
	m.stored[key] = *review
	return nil
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []jobs.Job
	err  error
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func floatPtr(v float64) *float64 {
	return &v
}
