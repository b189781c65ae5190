package domain

import "errors"

var (
	// ErrAgentNotFound signals a missing agent.
	ErrAgentNotFound = errors.New("agent not found")
	// ErrOutcomeNotFound signals a missing match outcome.
	ErrOutcomeNotFound = errors.New("outcome not found")
	// ErrInvalidWeights signals a rejected scoring weight configuration.
	ErrInvalidWeights = errors.New("invalid weights")
	// ErrInvalidOutcome signals an unknown outcome value.
	ErrInvalidOutcome = errors.New("invalid outcome")
	// ErrInvalidScore signals a match score outside [0,100].
	ErrInvalidScore = errors.New("invalid match score")
	// ErrInvalidTier signals an unknown trust tier value.
	ErrInvalidTier = errors.New("invalid trust tier")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	// Absorbed by the text fallback on the search path; surfaces only
	// from explicit embedding endpoints.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// KeyPrefix namespaces every key this service writes to the store.
const KeyPrefix = "agentdex:"
