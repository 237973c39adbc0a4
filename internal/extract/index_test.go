package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIndex_PartitionsKeyValueSets(t *testing.T) {
	blocks := []Block{
		keyBlock("k2", "v1"),
		valueBlock("v1"),
		keyBlock("k1", "v2"),
		valueBlock("v2"),
		{ID: "kv-no-entity", Type: BlockKeyValueSet},
		word("w1", "x"),
	}
	idx := NewIndex(blocks)

	assert.Equal(t, 6, idx.Len())
	assert.Equal(t, 2, idx.KeyCount())
	assert.Equal(t, 3, idx.ValueCount(), "a KEY_VALUE_SET without entity types belongs to the value side")

	keys := idx.KeyBlocks()
	require.Len(t, keys, 2)
	assert.Equal(t, "k2", keys[0].ID)
	assert.Equal(t, "k1", keys[1].ID)

	_, ok := idx.ValueBlock("k1")
	assert.False(t, ok)
	_, ok = idx.ValueBlock("kv-no-entity")
	assert.True(t, ok)
	b, ok := idx.Block("w1")
	require.True(t, ok)
	assert.Equal(t, "x", b.Text)
}

func TestNewIndex_RepeatedIDReplacesBlock(t *testing.T) {
	first := keyBlock("k", "v")
	second := keyBlock("k", "v", "w")
	idx := NewIndex([]Block{first, keyBlock("other", ""), second})

	keys := idx.KeyBlocks()
	require.Len(t, keys, 2)
	assert.Equal(t, "k", keys[0].ID)
	assert.Equal(t, []string{"w"}, keys[0].RelatedIDs(RelationshipChild))

	// switching sides keeps the partitions disjoint
	idx = NewIndex([]Block{keyBlock("x", ""), valueBlock("x")})
	assert.Equal(t, 0, idx.KeyCount())
	assert.Equal(t, 1, idx.ValueCount())
}

func TestResolveText(t *testing.T) {
	blocks := []Block{
		{ID: "line", Type: BlockLine, Relationships: []Relationship{
			{Type: RelationshipChild, IDs: []string{"w1", "w2"}},
			{Type: RelationshipValue, IDs: []string{"w3"}},
			{Type: RelationshipChild, IDs: []string{"w3"}},
		}},
		word("w1", "Acme"),
		word("w2", "Corp"),
		word("w3", "Ltd"),
	}
	idx := NewIndex(blocks)
	line, ok := idx.Block("line")
	require.True(t, ok)

	assert.Equal(t, "Acme Corp Ltd", ResolveText(line, idx))
	assert.Equal(t, "", ResolveText(nil, idx))

	w1, _ := idx.Block("w1")
	assert.Equal(t, "", ResolveText(w1, idx), "a word has no children of its own")
}
