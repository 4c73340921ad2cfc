// Package puzzle is the boundary with the grid generator, a black-box
// service invoked once per new game. It owns no state.
package puzzle

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/stargrid/stargrid/internal/apperrors"
)

type Request struct {
	EmptyCells int    `json:"emptyCellCount"`
	Seed       *int64 `json:"seed,omitempty"`
}

type Puzzle struct {
	Initial [][]int `json:"initialGrid"`
	Solved  [][]int `json:"solvedGrid"`
}

type Supplier interface {
	NewPuzzle(ctx context.Context, req *Request) (*Puzzle, error)
}

type HTTPSupplier struct {
	URL  string
	HTTP *http.Client
}

func NewHTTPSupplier(url string) *HTTPSupplier {
	return &HTTPSupplier{
		URL:  url,
		HTTP: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPSupplier) NewPuzzle(ctx context.Context, req *Request) (*Puzzle, error) {
	if req.EmptyCells < 1 || req.EmptyCells > 80 {
		return nil, apperrors.NewAppError(400, "emptyCellCount must be between 1 and 80", nil)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.NewAppError(500, "Error encoding puzzle request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewAppError(500, "Error building puzzle request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := s.HTTP.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewAppError(502, "Puzzle generator unavailable", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, apperrors.NewAppError(502, "Puzzle generator returned an error", nil)
	}

	var puzzle Puzzle
	if err := json.NewDecoder(res.Body).Decode(&puzzle); err != nil {
		return nil, apperrors.NewAppError(502, "Error decoding puzzle response", err)
	}
	return &puzzle, nil
}
