package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitMessage_Short(t *testing.T) {
	parts := SplitMessage("hello", 100)
	require.Equal(t, []string{"hello"}, parts)
}

func TestSplitMessage_PrefersNewlines(t *testing.T) {
	text := strings.Repeat("line one\n", 3) + "tail"
	parts := SplitMessage(text, 20)

	require.Greater(t, len(parts), 1)
	require.Equal(t, text, strings.Join(parts, ""))
	// Every part except the last should end on a line boundary.
	for _, part := range parts[:len(parts)-1] {
		require.True(t, strings.HasSuffix(part, "\n"), "part %q", part)
	}
}

func TestSplitMessage_HardCut(t *testing.T) {
	text := strings.Repeat("x", 250)
	parts := SplitMessage(text, 100)

	require.Len(t, parts, 3)
	require.Equal(t, text, strings.Join(parts, ""))
	for _, part := range parts {
		require.LessOrEqual(t, len([]rune(part)), 100)
	}
}

func TestSplitMessage_RuneSafe(t *testing.T) {
	text := strings.Repeat("й", 150)
	parts := SplitMessage(text, 100)

	require.Len(t, parts, 2)
	require.Equal(t, text, strings.Join(parts, ""))
}
