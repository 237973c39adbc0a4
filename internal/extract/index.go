package extract

// Index is the lookup structure built once per document: every block by id,
// plus the KEY_VALUE_SET blocks split into a key partition and a value partition.
type Index struct {
	byID     map[string]*Block
	keyByID  map[string]*Block
	keyOrder []string
	values   map[string]*Block
}

// NewIndex builds an Index over blocks. Input order is arbitrary but it fixes the
// iteration order of KeyBlocks. A repeated id replaces the earlier block and keeps
// its original position.
func NewIndex(blocks []Block) *Index {
	idx := &Index{
		byID:    make(map[string]*Block, len(blocks)),
		keyByID: make(map[string]*Block),
		values:  make(map[string]*Block),
	}
	for i := range blocks {
		b := &blocks[i]
		idx.byID[b.ID] = b

		if b.Type != BlockKeyValueSet {
			delete(idx.keyByID, b.ID)
			delete(idx.values, b.ID)
			continue
		}
		if b.IsKey() {
			if _, seen := idx.keyByID[b.ID]; !seen && !idx.ordered(b.ID) {
				idx.keyOrder = append(idx.keyOrder, b.ID)
			}
			idx.keyByID[b.ID] = b
			delete(idx.values, b.ID)
		} else {
			idx.values[b.ID] = b
			delete(idx.keyByID, b.ID)
		}
	}
	return idx
}

func (idx *Index) ordered(id string) bool {
	for _, k := range idx.keyOrder {
		if k == id {
			return true
		}
	}
	return false
}

// Block looks up any block by id.
func (idx *Index) Block(id string) (*Block, bool) {
	b, ok := idx.byID[id]
	return b, ok
}

// ValueBlock looks up a block in the value partition.
func (idx *Index) ValueBlock(id string) (*Block, bool) {
	b, ok := idx.values[id]
	return b, ok
}

// KeyBlocks returns the key partition in input order.
func (idx *Index) KeyBlocks() []*Block {
	out := make([]*Block, 0, len(idx.keyByID))
	for _, id := range idx.keyOrder {
		if b, ok := idx.keyByID[id]; ok {
			out = append(out, b)
		}
	}
	return out
}

// Len is the number of distinct block ids.
func (idx *Index) Len() int { return len(idx.byID) }

// KeyCount is the size of the key partition.
func (idx *Index) KeyCount() int { return len(idx.keyByID) }

// ValueCount is the size of the value partition.
func (idx *Index) ValueCount() int { return len(idx.values) }
