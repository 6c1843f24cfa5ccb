package serrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaseError_IsMatchesByCode(t *testing.T) {
	sentinel := NewError("X_FORBIDDEN", "forbidden", "Errors.Forbidden")
	withData := sentinel.WithTemplateData(map[string]string{"object": "freight.loads"})

	require.ErrorIs(t, withData, sentinel)
	require.ErrorIs(t, fmt.Errorf("wrapped: %w", withData), sentinel)
	require.False(t, errors.Is(withData, NewError("OTHER", "other", "")))
	require.Nil(t, sentinel.TemplateData)
	require.Equal(t, "freight.loads", withData.TemplateData["object"])
}

func TestBaseError_Error(t *testing.T) {
	require.Equal(t, "X: boom", NewError("X", "boom", "").Error())
	require.Equal(t, "boom", (&BaseError{Message: "boom"}).Error())
}
