package extract

import "strings"

// DiagnosticKind classifies a block the extractor could not fully use.
type DiagnosticKind string

const (
	DiagMissingValueLink DiagnosticKind = "missing_value_link" // key block has no VALUE relationship
	DiagValueNotFound    DiagnosticKind = "value_not_found"    // VALUE id absent from the value partition
	DiagMissingChild     DiagnosticKind = "missing_child"      // CHILD id absent from the graph
	DiagEmptyKey         DiagnosticKind = "empty_key"          // key resolved to no text, field dropped
	DiagDuplicateKey     DiagnosticKind = "duplicate_key"      // later key block overwrote an earlier field
)

// Diagnostic records one fail-soft decision taken during extraction.
type Diagnostic struct {
	BlockID string
	Kind    DiagnosticKind
	Detail  string
}

// Result is the outcome of extracting one document.
type Result struct {
	Fields      map[string]string
	Diagnostics []Diagnostic
}

// ExtractKeyValues maps key text to value text for every key block in blocks.
func ExtractKeyValues(blocks []Block) map[string]string {
	return Extract(blocks).Fields
}

// Extract resolves every key block to its paired value block and returns the
// field mapping plus the diagnostics gathered along the way. It never fails:
// unpaired keys get an empty value, empty keys are dropped, and a repeated key
// text keeps the value of the later key block.
func Extract(blocks []Block) Result {
	idx := NewIndex(blocks)
	res := Result{Fields: make(map[string]string, idx.KeyCount())}
	report := func(d Diagnostic) { res.Diagnostics = append(res.Diagnostics, d) }

	for _, keyBlock := range idx.KeyBlocks() {
		keyText := normalizeKey(resolveText(keyBlock, idx, report))

		valueBlock := findValueBlock(keyBlock, idx, report)
		valueText := strings.TrimSpace(resolveText(valueBlock, idx, report))

		if keyText == "" {
			report(Diagnostic{BlockID: keyBlock.ID, Kind: DiagEmptyKey})
			continue
		}
		if prev, dup := res.Fields[keyText]; dup {
			report(Diagnostic{BlockID: keyBlock.ID, Kind: DiagDuplicateKey, Detail: keyText + "=" + prev})
		}
		res.Fields[keyText] = valueText
	}
	return res
}

// findValueBlock follows the first id of the key block's VALUE relationships.
func findValueBlock(keyBlock *Block, idx *Index, report func(Diagnostic)) *Block {
	ids := keyBlock.RelatedIDs(RelationshipValue)
	if len(ids) == 0 {
		report(Diagnostic{BlockID: keyBlock.ID, Kind: DiagMissingValueLink})
		return nil
	}
	vb, ok := idx.ValueBlock(ids[0])
	if !ok {
		report(Diagnostic{BlockID: keyBlock.ID, Kind: DiagValueNotFound, Detail: ids[0]})
		return nil
	}
	return vb
}

// normalizeKey trims the key and strips one trailing colon, e.g. "Invoice Number :".
func normalizeKey(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ":")
	return strings.TrimSpace(s)
}
