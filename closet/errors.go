package closet

import "errors"

// Error classes surfaced by the pipelines and store. Handlers map them to
// HTTP status codes; anything unclassified is treated as a persistence
// failure.
var (
	ErrValidation = errors.New("closet: invalid request")
	ErrProcessing = errors.New("closet: image processing failed")
)
