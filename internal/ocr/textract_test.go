package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docintake/internal/common"
	"github.com/joseph-ayodele/docintake/internal/extract"
	"github.com/joseph-ayodele/docintake/internal/storage"
)

type fakeTextract struct {
	in  *textract.AnalyzeDocumentInput
	out *textract.AnalyzeDocumentOutput
	err error
}

func (f *fakeTextract) AnalyzeDocument(_ context.Context, in *textract.AnalyzeDocumentInput, _ ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error) {
	f.in = in
	return f.out, f.err
}

func TestTextractAnalyzer_Analyze(t *testing.T) {
	fake := &fakeTextract{out: &textract.AnalyzeDocumentOutput{
		DocumentMetadata: &types.DocumentMetadata{Pages: aws.Int32(2)},
		Blocks: []types.Block{
			{
				Id:          aws.String("k1"),
				BlockType:   types.BlockTypeKeyValueSet,
				EntityTypes: []types.EntityType{types.EntityTypeKey},
				Relationships: []types.Relationship{
					{Type: types.RelationshipTypeValue, Ids: []string{"v1"}},
					{Type: types.RelationshipTypeChild, Ids: []string{"w1"}},
				},
			},
			{
				Id:            aws.String("v1"),
				BlockType:     types.BlockTypeKeyValueSet,
				EntityTypes:   []types.EntityType{types.EntityTypeValue},
				Relationships: []types.Relationship{{Type: types.RelationshipTypeChild, Ids: []string{"w2"}}},
			},
			{Id: aws.String("w1"), BlockType: types.BlockTypeWord, Text: aws.String("Total:")},
			{Id: aws.String("w2"), BlockType: types.BlockTypeWord, Text: aws.String("19.99")},
		},
	}}
	a := newAnalyzer(fake, Config{}, nil)

	res, err := a.Analyze(context.Background(), extract.DocumentRef{Bucket: "image-items", Key: "r.png"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pages)
	require.Len(t, res.Blocks, 4)
	assert.Equal(t, map[string]string{"Total": "19.99"}, extract.ExtractKeyValues(res.Blocks))

	require.NotNil(t, fake.in)
	assert.Equal(t, "image-items", aws.ToString(fake.in.Document.S3Object.Bucket))
	assert.Equal(t, "r.png", aws.ToString(fake.in.Document.S3Object.Name))
	assert.Equal(t, []types.FeatureType{types.FeatureTypeForms, types.FeatureTypeTables}, fake.in.FeatureTypes)
}

func TestTextractAnalyzer_Error(t *testing.T) {
	a := newAnalyzer(&fakeTextract{err: errors.New("throttled")}, Config{}, nil)
	_, err := a.Analyze(context.Background(), extract.DocumentRef{Bucket: "b", Key: "k.pdf"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
	assert.ErrorIs(t, err, common.ErrExternal)
}

func TestConvertBlocks_ToleratesMissingAttributes(t *testing.T) {
	blocks := ConvertBlocks([]types.Block{{BlockType: types.BlockTypeKeyValueSet}})
	require.Len(t, blocks, 1)
	assert.Empty(t, blocks[0].ID)
	assert.Nil(t, blocks[0].EntityTypes)
	assert.False(t, blocks[0].IsKey())
}

func TestTextractAnalyzer_InlineBytesFromSource(t *testing.T) {
	ctx := context.Background()
	store := storage.NewFSStore(afero.NewMemMapFs(), nil, nil)
	require.NoError(t, store.Put(ctx, storage.PutInput{Bucket: "image-items", Key: "local.png", Body: []byte("png-bytes")}))

	fake := &fakeTextract{out: &textract.AnalyzeDocumentOutput{}}
	a := newAnalyzer(fake, Config{Source: store}, nil)

	_, err := a.Analyze(ctx, extract.DocumentRef{Bucket: "image-items", Key: "local.png"})
	require.NoError(t, err)
	assert.Nil(t, fake.in.Document.S3Object)
	assert.Equal(t, []byte("png-bytes"), fake.in.Document.Bytes)

	_, err = a.Analyze(ctx, extract.DocumentRef{Bucket: "image-items", Key: "missing.png"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
