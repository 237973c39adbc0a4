package extract

import (
	"context"
	"time"
)

// DocumentRef locates a source document in the blob store.
type DocumentRef struct {
	Bucket string
	Key    string
}

// Analyzer is the document-analysis collaborator: stored document -> block graph.
type Analyzer interface {
	Analyze(ctx context.Context, doc DocumentRef) (AnalysisResult, error)
}

// AnalysisResult is the raw output for one document. Blocks are discarded once
// fields have been extracted.
type AnalysisResult struct {
	Blocks   []Block
	Pages    int
	Duration time.Duration
}
