package console

import "errors"

// ErrMissingDecisionService is returned when the decision service is not provided.
var ErrMissingDecisionService = errors.New("console: decision service is required")

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("console: retrieval service is required")
