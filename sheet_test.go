package kanjidrill

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSheet_Build(t *testing.T) {
	s := testSettings(t)
	p := newFakeProvider(map[Character]int{'一': 1, '人': 2})
	rows := ComputeRows(Extract("一人鬱\n人", s.Dedupe), s, nil)

	sheet, err := BuildSheet(context.Background(), rows, s, p, 4, nil)
	require.NoError(t, err)

	assert.Equal(t, rows, sheet.Rows)
	assert.Len(t, sheet.Illustrations, 3)
	assert.Equal(t, 2, sheet.Illustration('人').StrokeCount())
	assert.Nil(t, sheet.Illustration('鬱'))
	assert.Equal(t, []Character{'鬱'}, sheet.Missing())

	// Every character is fetched once, no matter how many cells use it.
	assert.Equal(t, 1, p.callCount('人'))
	assert.Equal(t, 1, p.callCount('鬱'))
}

func TestSheet_MissingKeepsCharacters(t *testing.T) {
	s := testSettings(t)
	rows := ComputeRows(Extract("鬱龘", s.Dedupe), s, nil)

	sheet, err := BuildSheet(context.Background(), rows, s, newFakeProvider(nil), 0, nil)
	require.NoError(t, err)

	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "鬱龘", lineString(sheet.Rows[0].Chars))
	assert.Equal(t, []Character{'鬱', '龘'}, sheet.Missing())
}

func TestSheet_NilProvider(t *testing.T) {
	s := testSettings(t)
	rows := ComputeRows(Extract("一", s.Dedupe), s, nil)

	sheet, err := BuildSheet(context.Background(), rows, s, nil, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []Character{'一'}, sheet.Missing())
}

func TestSheet_Cancelled(t *testing.T) {
	s := testSettings(t)
	rows := ComputeRows(Extract("一", s.Dedupe), s, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BuildSheet(ctx, rows, s, newFakeProvider(nil), 1, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
