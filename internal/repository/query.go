package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
)

const pqInvalidTextRepresentation = "22P02"

// isInvalidInput reports whether Postgres rejected a parameter as malformed for its column, such as a non-UUID id.
func isInvalidInput(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqInvalidTextRepresentation
}

// QueryObserver receives timing for each executed query.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveDBQuery(string, time.Duration) {}

func observerOrNop(o QueryObserver) QueryObserver {
	if o == nil {
		return nopObserver{}
	}
	return o
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching term anywhere, with LIKE metacharacters escaped.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
