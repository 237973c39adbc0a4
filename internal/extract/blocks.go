package extract

// BlockType tags the role of a block in the analysis output.
type BlockType string

const (
	BlockPage             BlockType = "PAGE"
	BlockLine             BlockType = "LINE"
	BlockWord             BlockType = "WORD"
	BlockKeyValueSet      BlockType = "KEY_VALUE_SET"
	BlockSelectionElement BlockType = "SELECTION_ELEMENT"
	BlockTable            BlockType = "TABLE"
	BlockCell             BlockType = "CELL"
)

// RelationshipType tags a directed link between blocks.
type RelationshipType string

const (
	RelationshipChild RelationshipType = "CHILD"
	RelationshipValue RelationshipType = "VALUE"
)

// Entity types carried by KEY_VALUE_SET blocks.
const (
	EntityKey   = "KEY"
	EntityValue = "VALUE"
)

// Relationship links a block to an ordered list of other blocks.
type Relationship struct {
	Type RelationshipType `json:"Type"`
	IDs  []string         `json:"Ids"`
}

// Block is one unit of analysis output. JSON tags follow the Textract wire
// format so saved responses can be loaded directly.
type Block struct {
	ID            string         `json:"Id"`
	Type          BlockType      `json:"BlockType"`
	Text          string         `json:"Text,omitempty"`
	EntityTypes   []string       `json:"EntityTypes,omitempty"`
	Relationships []Relationship `json:"Relationships,omitempty"`
}

// IsKey reports whether a KEY_VALUE_SET block is the key half of a field.
func (b *Block) IsKey() bool {
	for _, et := range b.EntityTypes {
		if et == EntityKey {
			return true
		}
	}
	return false
}

// RelatedIDs returns the ids of every relationship of type t, in order.
func (b *Block) RelatedIDs(t RelationshipType) []string {
	var ids []string
	for _, rel := range b.Relationships {
		if rel.Type == t {
			ids = append(ids, rel.IDs...)
		}
	}
	return ids
}
