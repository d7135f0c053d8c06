package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProvider matches every *ProviderError via errors.Is.
	ErrProvider = errors.New("venue provider failure")

	// ErrInvalidCoordinate is returned by Coordinate.Validate.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

// ProviderError is the typed failure returned by venue providers for transport
// errors and non-success statuses.
type ProviderError struct {
	Op      string // "autocomplete", "textsearch", "nearby", "details"
	Status  string // provider status or HTTP status; empty for transport errors
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Status != "" && e.Message != "":
		return fmt.Sprintf("%s: provider status %s: %s", e.Op, e.Status, e.Message)
	case e.Status != "":
		return fmt.Sprintf("%s: provider status %s", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": " + e.Message
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }
