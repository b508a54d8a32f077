package common

import (
	"net/http"
	"strings"

	apperrors "chatapi/pkg/errors"
)

// Page is one slice of a list. NextToken is the id of the last item and is
// nil once the store has nothing further.
type Page[T any] struct {
	Items     []T     `json:"items"`
	NextToken *string `json:"nextToken"`
}

// EmptyPage returns a terminal page with a non-nil item slice.
func EmptyPage[T any]() Page[T] {
	return Page[T]{Items: []T{}}
}

// ValidateCursor rejects tokens that could not have been issued as an id.
// An empty cursor means "from the start".
func ValidateCursor(cursor string) error {
	if strings.ContainsAny(cursor, "# \t\n") {
		return apperrors.NewInvalidInputError("nextToken is malformed")
	}
	return nil
}

// ExtractCursor reads the nextToken query parameter.
func ExtractCursor(r *http.Request) (string, error) {
	cursor := r.URL.Query().Get("nextToken")
	if err := ValidateCursor(cursor); err != nil {
		return "", err
	}
	return cursor, nil
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
