package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_ShortTextIsNoOp(t *testing.T) {
	text := "One sentence. Another sentence."
	chunks := Split(text, 7000)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplit_ExactFitIsNoOp(t *testing.T) {
	text := strings.Repeat("a", 100)
	chunks := Split(text, 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplit_BreaksOnSentenceBoundaries(t *testing.T) {
	text := "First sentence here. Second sentence here. Third sentence here."
	chunks := Split(text, 30)

	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.True(t, strings.HasSuffix(c, "."), "chunk %q should end on a terminator", c)
	}
	assert.Equal(t, "First sentence here.", chunks[0])
	assert.Equal(t, "Second sentence here.", chunks[1])
	assert.Equal(t, "Third sentence here.", chunks[2])
}

func TestSplit_GreedyPacking(t *testing.T) {
	text := "Aaa bbb. Ccc ddd. Eee fff. Ggg hhh."
	chunks := Split(text, 20)

	// Two sentences fit per chunk (8+9=17 <= 20, adding a third overflows).
	require.Len(t, chunks, 2)
	assert.Equal(t, "Aaa bbb. Ccc ddd.", chunks[0])
	assert.Equal(t, "Eee fff. Ggg hhh.", chunks[1])
}

func TestSplit_OversizedSentencePassesThrough(t *testing.T) {
	long := strings.Repeat("word ", 30) + "end."
	text := "Short one. " + long + " Tail."
	chunks := Split(text, 40)

	require.GreaterOrEqual(t, len(chunks), 2)
	found := false
	for _, c := range chunks {
		if strings.Contains(c, "end.") {
			found = true
			assert.Greater(t, len(c), 40, "oversized single sentence must not be cut")
		}
	}
	assert.True(t, found)
}

func TestSplit_DandaTerminator(t *testing.T) {
	text := "पहला वाक्य है। दूसरा वाक्य है। तीसरा वाक्य है।"
	chunks := Split(text, 16)

	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.True(t, strings.HasSuffix(c, "।"))
	}
}

func TestSplit_TrailingQuoteStaysWithSentence(t *testing.T) {
	text := `He said "stop." Then he left. And that was all anyone heard.`
	chunks := Split(text, 20)

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, `He said "stop."`, chunks[0])
}

func TestSplit_PreservesOrderAndContent(t *testing.T) {
	text := "Alpha one. Beta two! Gamma three? Delta four. Epsilon five."
	chunks := Split(text, 25)

	joined := strings.Join(chunks, " ")
	for _, word := range []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon"} {
		assert.Contains(t, joined, word)
	}
	// Order preserved.
	assert.Less(t, strings.Index(joined, "Alpha"), strings.Index(joined, "Beta"))
	assert.Less(t, strings.Index(joined, "Gamma"), strings.Index(joined, "Delta"))
}

func TestSplit_ScenarioLongTranscript(t *testing.T) {
	// ~15,000 characters with max 7,000 should yield 2-3 chunks, all within
	// bounds when no single sentence exceeds the cap.
	sentence := strings.Repeat("The angels watched over the city that night. ", 1)
	var sb strings.Builder
	for sb.Len() < 15000 {
		sb.WriteString(sentence)
	}
	chunks := Split(sb.String(), 7000)

	require.GreaterOrEqual(t, len(chunks), 2)
	require.LessOrEqual(t, len(chunks), 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 7000)
	}
}
