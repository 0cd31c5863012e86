package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextOrdinalIsContiguous(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	seqID := e.Sequence().Reset("s-1")

	for want := int64(1); want <= 5; want++ {
		gotSeq, got := e.Sequence().NextOrdinal("s-1")
		assert.Equal(t, seqID, gotSeq)
		assert.Equal(t, want, got)
	}

	newSeq := e.Sequence().Reset("s-1")
	assert.NotEqual(t, seqID, newSeq)
	gotSeq, got := e.Sequence().NextOrdinal("s-1")
	assert.Equal(t, newSeq, gotSeq)
	assert.Equal(t, int64(1), got)
}

func TestNextOrdinalDiscardsStaleSequence(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	old := e.Sequence().Reset("s-old")
	e.Sequence().NextOrdinal("s-old")
	e.Sequence().NextOrdinal("s-old")

	seqID, ordinal := e.Sequence().NextOrdinal("s-new")
	assert.NotEqual(t, old, seqID)
	assert.Equal(t, int64(1), ordinal)
}

func TestNextOrdinalWithoutReset(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, e.kv.Set(sequenceKey, "[]"))

	_, ordinal := e.Sequence().NextOrdinal("s-1")
	assert.Equal(t, int64(1), ordinal)
	_, ordinal = e.Sequence().NextOrdinal("s-1")
	assert.Equal(t, int64(2), ordinal)
}
