package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitText_ShortText(t *testing.T) {
	assert.Equal(t, []string{"Cabernet"}, SplitText("Cabernet", 500, 50))
	assert.Nil(t, SplitText("   \n ", 500, 50))
	assert.Nil(t, SplitText("", 500, 50))
}

func TestSplitText_WindowsRespectSizeAndOverlap(t *testing.T) {
	words := make([]string, 0, 400)
	for i := 0; i < 400; i++ {
		words = append(words, "merlot")
	}
	text := strings.Join(words, " ")

	chunks := SplitText(text, 100, 20)
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 100, "chunk %d too long", i)
	}
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev[len(prev)-10:]
		assert.Contains(t, chunks[i], strings.TrimSpace(tail), "chunk %d lost overlap", i)
	}

	last := chunks[len(chunks)-1]
	assert.True(t, strings.HasSuffix(text, last))
}

func TestSplitText_PrefersWhitespace(t *testing.T) {
	text := "aaaa bbbb cccc dddd eeee"
	chunks := SplitText(text, 12, 0)

	require.NotEmpty(t, chunks)
	assert.Equal(t, "aaaa bbbb ", chunks[0])
	for _, c := range chunks {
		assert.NotContains(t, []string{"aaaa bbbb cc", "bb cccc dddd"}, c)
	}
}

func TestSplitText_MultibyteRunes(t *testing.T) {
	text := strings.Repeat("é", 25)
	chunks := SplitText(text, 10, 2)

	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c))
	}
}

func TestSplitText_OverlapNotSmallerThanSize(t *testing.T) {
	text := strings.Repeat("x", 30)
	chunks := SplitText(text, 10, 10)
	assert.Len(t, chunks, 3)
}
