package app

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/common"
	"github.com/joseph-ayodele/docintake/internal/extract"
	"github.com/joseph-ayodele/docintake/internal/ingest"
)

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(context.Context, extract.DocumentRef) (extract.AnalysisResult, error) {
	return extract.AnalysisResult{Pages: 1, Blocks: []extract.Block{
		{ID: "k", Type: extract.BlockKeyValueSet, EntityTypes: []string{extract.EntityKey}, Relationships: []extract.Relationship{
			{Type: extract.RelationshipValue, IDs: []string{"v"}},
			{Type: extract.RelationshipChild, IDs: []string{"w1"}},
		}},
		{ID: "v", Type: extract.BlockKeyValueSet, EntityTypes: []string{extract.EntityValue}, Relationships: []extract.Relationship{
			{Type: extract.RelationshipChild, IDs: []string{"w2"}},
		}},
		{ID: "w1", Type: extract.BlockWord, Text: "Invoice Number:"},
		{ID: "w2", Type: extract.BlockWord, Text: "INV-0042"},
	}}, nil
}

func testConfig() *common.Config {
	return &common.Config{
		Server: common.ServerConfig{HTTPAddr: ":0", PublicBaseURL: "http://localhost:8080"},
		Storage: common.StorageConfig{
			Backend:        common.BackendFS,
			ImageBucket:    "image-items",
			DataBucket:     "data-items",
			LinkSigningKey: "secret",
			URLExpiry:      time.Hour,
		},
		Database: common.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"},
		Upload:   common.UploadConfig{MaxBytes: constants.MaxUploadBytes},
	}
}

func TestApp_UploadAnalyzeList(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(), nil, WithAnalyzer(stubAnalyzer{}), WithFs(afero.NewMemMapFs()))
	require.NoError(t, err)
	defer a.Close()

	res, err := a.NewUploader(nil).Upload(ctx, ingest.UploadRequest{File: "aGVsbG8=", FileName: "inv.png", FileType: "image/png"})
	require.NoError(t, err)

	st, err := a.Processor.ProcessObject(ctx, extract.DocumentRef{Bucket: res.Bucket, Key: res.FileName})
	require.NoError(t, err)
	assert.Equal(t, constants.OutcomeProcessed, st.Status)

	items, err := a.WorkItems.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, map[string]string{"Invoice Number": "INV-0042"}, items[0].Metadata)

	jobs, err := a.Jobs.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, string(constants.JobStatusSucceeded), jobs[0].Status)
	assert.Equal(t, 1, jobs[0].Fields)
}
