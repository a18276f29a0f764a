package domain

import "errors"

var (
	// ErrFactStore signals that the fact store is unreachable or returned
	// malformed data. Fatal during engine construction, per-query otherwise.
	ErrFactStore = errors.New("fact store error")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrScoringProvider signals a relevance scorer failure.
	ErrScoringProvider = errors.New("scoring provider error")
	// ErrSummaryProvider signals a summary generation failure.
	// Never escalated to the caller; the pipeline degrades to a placeholder.
	ErrSummaryProvider = errors.New("summary provider error")
	// ErrInvalidRequest signals a request rejected before any index access.
	ErrInvalidRequest = errors.New("invalid request")
)
