package kanjidrill

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCache_MergeNeverOverwrites(t *testing.T) {
	a := StrokeCache{'一': 1, '人': 2}
	b := StrokeCache{'人': 9, '木': 4}

	m := a.Merge(b)
	assert.Equal(t, StrokeCache{'一': 1, '人': 2, '木': 4}, m)

	// Neither operand is modified.
	assert.Len(t, a, 2)
	assert.Equal(t, 9, b['人'])
}

func TestCache_Missing(t *testing.T) {
	c := StrokeCache{'一': 1}
	doc := Document{chars("木一人"), chars("人森")}

	assert.Equal(t, []Character{'木', '人', '森'}, c.Missing(doc))
	assert.Empty(t, StrokeCache(nil).Missing(nil))
}

func TestCache_Count(t *testing.T) {
	var c StrokeCache
	assert.Equal(t, DefaultStrokeCount, c.Count('一'))

	c = StrokeCache{'一': 1}
	assert.Equal(t, 1, c.Count('一'))
	assert.Equal(t, []Character{'一'}, c.Keys())
}

func TestCache_Keys(t *testing.T) {
	c := StrokeCache{'木': 4, '一': 1, '人': 2}
	assert.Equal(t, []Character{'一', '人', '木'}, c.Keys())
}
