package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsValidStatus(t *testing.T) {
	for _, status := range []string{"", "open", "unverified", "expired", "completed", "cancelled"} {
		require.True(t, isValidStatus(status), status)
	}
	require.False(t, isValidStatus("closed"))
}
