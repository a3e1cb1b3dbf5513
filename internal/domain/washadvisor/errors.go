package washadvisor

import "errors"

// Error codes carried by apperrors.AppError values raised in this package.
const (
	CodeSourceUnavailable   = "source_unavailable"
	CodeCacheUnavailable    = "cache_unavailable"
	CodeAllSourcesExhausted = "all_sources_exhausted"
	CodeInvalidInput        = "invalid_input"
)

var (
	// ErrSourceUnavailable reports a failed or timed out weather fetch.
	ErrSourceUnavailable = errors.New("weather source unavailable")
	// ErrAllSourcesExhausted reports that nothing is cached and no fresh data
	// could be computed.
	ErrAllSourcesExhausted = errors.New("no cached advisory and weather source unavailable")
)
