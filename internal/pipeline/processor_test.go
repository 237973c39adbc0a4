package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/entity"
	"github.com/joseph-ayodele/docintake/internal/extract"
	"github.com/joseph-ayodele/docintake/internal/metrics"
	"github.com/joseph-ayodele/docintake/internal/record"
	"github.com/joseph-ayodele/docintake/internal/storage"
)

type fakeAnalyzer struct {
	blocks []extract.Block
	err    error
	calls  int
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ extract.DocumentRef) (extract.AnalysisResult, error) {
	f.calls++
	if f.err != nil {
		return extract.AnalysisResult{}, f.err
	}
	return extract.AnalysisResult{Blocks: f.blocks, Pages: 1}, nil
}

type fakeJobs struct {
	started   []extract.DocumentRef
	succeeded map[uuid.UUID]string
	failed    map[uuid.UUID]string
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{succeeded: map[uuid.UUID]string{}, failed: map[uuid.UUID]string{}}
}

func (f *fakeJobs) Start(_ context.Context, doc extract.DocumentRef) (*entity.ExtractJob, error) {
	f.started = append(f.started, doc)
	return &entity.ExtractJob{ID: uuid.New(), SourceBucket: doc.Bucket, SourceKey: doc.Key}, nil
}

func (f *fakeJobs) FinishSuccess(_ context.Context, id uuid.UUID, recordKey string, _, _ int) error {
	f.succeeded[id] = recordKey
	return nil
}

func (f *fakeJobs) FinishFailure(_ context.Context, id uuid.UUID, message string) error {
	f.failed[id] = message
	return nil
}

func invoiceBlocks() []extract.Block {
	return []extract.Block{
		{ID: "page", Type: extract.BlockPage},
		{ID: "k1", Type: extract.BlockKeyValueSet, EntityTypes: []string{extract.EntityKey}, Relationships: []extract.Relationship{
			{Type: extract.RelationshipValue, IDs: []string{"v1"}},
			{Type: extract.RelationshipChild, IDs: []string{"w1", "w2", "w3"}},
		}},
		{ID: "v1", Type: extract.BlockKeyValueSet, EntityTypes: []string{extract.EntityValue}, Relationships: []extract.Relationship{
			{Type: extract.RelationshipChild, IDs: []string{"w4"}},
		}},
		{ID: "w1", Type: extract.BlockWord, Text: "Invoice"},
		{ID: "w2", Type: extract.BlockWord, Text: "Number"},
		{ID: "w3", Type: extract.BlockWord, Text: ":"},
		{ID: "w4", Type: extract.BlockWord, Text: "INV-0042"},
	}
}

func newTestProcessor(a extract.Analyzer, jobs JobLog) (*Processor, storage.BlobStore) {
	store := storage.NewFSStore(afero.NewMemMapFs(), nil, nil)
	w := record.NewWriter(store, "data-items", nil)
	return NewProcessor(a, w, jobs, metrics.New(), nil), store
}

func TestProcessor_ProcessObject_WritesRecord(t *testing.T) {
	ctx := context.Background()
	jobs := newFakeJobs()
	p, store := newTestProcessor(&fakeAnalyzer{blocks: invoiceBlocks()}, jobs)

	st, err := p.ProcessObject(ctx, extract.DocumentRef{Bucket: "image-items", Key: "invoice.png"})
	require.NoError(t, err)
	assert.Equal(t, ObjectStatus{
		Status:          constants.OutcomeProcessed,
		InputFile:       "invoice.png",
		OutputFile:      "invoice_json.txt",
		FieldsExtracted: 1,
	}, st)

	obj, err := store.Get(ctx, "data-items", "invoice_json.txt")
	require.NoError(t, err)
	rec, err := record.Parse(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Invoice Number": "INV-0042"}, rec.Data)
	assert.Equal(t, 1, rec.Metadata.TotalFields)
	assert.Equal(t, "invoice.png", rec.SourceFile)

	require.Len(t, jobs.started, 1)
	assert.Len(t, jobs.succeeded, 1)
	assert.Empty(t, jobs.failed)
}

func TestProcessor_ProcessObject_SkipsUnsupportedExtension(t *testing.T) {
	ctx := context.Background()
	a := &fakeAnalyzer{blocks: invoiceBlocks()}
	jobs := newFakeJobs()
	p, store := newTestProcessor(a, jobs)

	st, err := p.ProcessObject(ctx, extract.DocumentRef{Bucket: "image-items", Key: "notes.txt"})
	require.NoError(t, err)
	assert.Equal(t, constants.OutcomeSkipped, st.Status)
	assert.Equal(t, 0, a.calls)
	assert.Empty(t, jobs.started)

	objs, err := store.List(ctx, "data-items")
	require.NoError(t, err)
	assert.Empty(t, objs)
}

func TestProcessor_ProcessObject_AnalyzerFailure(t *testing.T) {
	ctx := context.Background()
	jobs := newFakeJobs()
	p, store := newTestProcessor(&fakeAnalyzer{err: errors.New("throttled")}, jobs)

	st, err := p.ProcessObject(ctx, extract.DocumentRef{Bucket: "image-items", Key: "scan.pdf"})
	require.Error(t, err)
	assert.Equal(t, constants.OutcomeFailed, st.Status)
	assert.Contains(t, st.Message, "throttled")
	assert.Len(t, jobs.failed, 1)

	_, err = store.Get(ctx, "data-items", "scan_json.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestProcessor_ProcessObject_NoKeyValues(t *testing.T) {
	ctx := context.Background()
	p, store := newTestProcessor(&fakeAnalyzer{blocks: []extract.Block{{ID: "page", Type: extract.BlockPage}}}, nil)

	st, err := p.ProcessObject(ctx, extract.DocumentRef{Bucket: "image-items", Key: "blank.jpg"})
	require.NoError(t, err)
	assert.Equal(t, 0, st.FieldsExtracted)

	obj, err := store.Get(ctx, "data-items", "blank_json.txt")
	require.NoError(t, err)
	rec, err := record.Parse(obj.Body)
	require.NoError(t, err)
	assert.Empty(t, rec.Data)
}

func TestProcessor_ProcessAll_ContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProcessor(&fakeAnalyzer{blocks: invoiceBlocks()}, nil)

	statuses, err := p.ProcessAll(ctx, []extract.DocumentRef{
		{Bucket: "image-items", Key: "a.png"},
		{Bucket: "image-items", Key: "b.gif"},
		{Bucket: "image-items", Key: "c.pdf"},
	})
	require.NoError(t, err)
	require.Len(t, statuses, 3)
	assert.Equal(t, constants.OutcomeProcessed, statuses[0].Status)
	assert.Equal(t, constants.OutcomeSkipped, statuses[1].Status)
	assert.Equal(t, constants.OutcomeProcessed, statuses[2].Status)
}
