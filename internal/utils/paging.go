package utils

import (
	"net/http"
	"strconv"

	"github.com/EmpoweredVote/EV-Links/internal/apperr"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type Page struct {
	Skip  int
	Limit int
}

// ParsePage reads ?skip= and ?limit= with the defaults skip=0, limit=10.
func ParsePage(r *http.Request) (Page, error) {
	p := Page{Skip: 0, Limit: DefaultLimit}
	q := r.URL.Query()

	if raw := q.Get("skip"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return p, apperr.Validation("skip must be a non-negative integer.")
		}
		p.Skip = n
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxLimit {
			return p, apperr.Validation("limit must be between 1 and 100.")
		}
		p.Limit = n
	}
	return p, nil
}
