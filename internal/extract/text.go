package extract

import "strings"

// ResolveText concatenates the WORD children of b, space separated and trimmed.
// A nil block resolves to "". Child ids that are missing or point at non-WORD
// blocks (selection elements included) are skipped.
func ResolveText(b *Block, idx *Index) string {
	return resolveText(b, idx, nil)
}

func resolveText(b *Block, idx *Index, report func(Diagnostic)) string {
	if b == nil || idx == nil {
		return ""
	}
	var sb strings.Builder
	for _, id := range b.RelatedIDs(RelationshipChild) {
		child, ok := idx.Block(id)
		if !ok {
			if report != nil {
				report(Diagnostic{BlockID: b.ID, Kind: DiagMissingChild, Detail: id})
			}
			continue
		}
		if child.Type != BlockWord {
			continue
		}
		sb.WriteString(child.Text)
		sb.WriteByte(' ')
	}
	return strings.TrimSpace(sb.String())
}
