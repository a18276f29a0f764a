package request

import (
	"fmt"
	"strings"

	"github.com/spacebio/kgsearch/internal/domain"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultTopK    = 10
	MaxTopK        = 100
)

// Request is a validated search query. Validation happens here, before any
// index is touched; engine state is never consulted for a rejected request.
type Request struct {
	query          string
	topK           int
	includeSummary bool
}

// New validates and normalizes search parameters.
// topK 0 means "use the default"; a negative topK is rejected.
func New(query string, topK int, includeSummary bool) (Request, error) {
	if strings.TrimSpace(query) == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidRequest, MaxQueryLength)
	}
	if topK == 0 {
		topK = DefaultTopK
	}
	if topK < 1 {
		return Request{}, fmt.Errorf("%w: top_k must be >= 1", domain.ErrInvalidRequest)
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	return Request{
		query:          query,
		topK:           topK,
		includeSummary: includeSummary,
	}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// TopK returns the maximum number of results to return.
func (r *Request) TopK() int { return r.topK }

// IncludeSummary reports whether a generated summary was requested.
func (r *Request) IncludeSummary() bool { return r.includeSummary }
