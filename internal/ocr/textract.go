package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/joseph-ayodele/docintake/internal/common"
	"github.com/joseph-ayodele/docintake/internal/extract"
	"github.com/joseph-ayodele/docintake/internal/storage"
)

// textractAPI is the subset of *textract.Client the analyzer needs.
type textractAPI interface {
	AnalyzeDocument(ctx context.Context, params *textract.AnalyzeDocumentInput, optFns ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error)
}

// ObjectReader loads document bytes for stores Textract cannot read directly.
type ObjectReader interface {
	Get(ctx context.Context, bucket, key string) (storage.Object, error)
}

// Config selects which Textract feature sets to request. With Source set the
// document is read from it and sent inline instead of by S3 reference.
type Config struct {
	Features []types.FeatureType
	Source   ObjectReader
}

// TextractAnalyzer runs synchronous AnalyzeDocument against stored objects.
type TextractAnalyzer struct {
	client textractAPI
	cfg    Config
	logger *slog.Logger
}

// NewTextractAnalyzer builds an analyzer from a loaded AWS config.
func NewTextractAnalyzer(awsCfg aws.Config, cfg Config, logger *slog.Logger) *TextractAnalyzer {
	return newAnalyzer(textract.NewFromConfig(awsCfg), cfg, logger)
}

func newAnalyzer(client textractAPI, cfg Config, logger *slog.Logger) *TextractAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Features) == 0 {
		cfg.Features = []types.FeatureType{types.FeatureTypeForms, types.FeatureTypeTables}
	}
	return &TextractAnalyzer{client: client, cfg: cfg, logger: logger}
}

// Analyze implements extract.Analyzer.
func (a *TextractAnalyzer) Analyze(ctx context.Context, doc extract.DocumentRef) (extract.AnalysisResult, error) {
	start := time.Now()
	a.logger.Debug("textract analyze start", "bucket", doc.Bucket, "key", doc.Key, "features", a.cfg.Features)

	document, err := a.document(ctx, doc)
	if err != nil {
		return extract.AnalysisResult{}, err
	}
	out, err := a.client.AnalyzeDocument(ctx, &textract.AnalyzeDocumentInput{
		Document:     document,
		FeatureTypes: a.cfg.Features,
	})
	if err != nil {
		a.logger.Error("textract analyze failed", "bucket", doc.Bucket, "key", doc.Key, "error", err)
		return extract.AnalysisResult{}, fmt.Errorf("analyze s3://%s/%s: %w: %w", doc.Bucket, doc.Key, common.ErrExternal, err)
	}

	res := extract.AnalysisResult{
		Blocks:   ConvertBlocks(out.Blocks),
		Duration: time.Since(start),
	}
	if out.DocumentMetadata != nil {
		res.Pages = int(aws.ToInt32(out.DocumentMetadata.Pages))
	}
	a.logger.Info("textract analyze ok",
		"bucket", doc.Bucket, "key", doc.Key,
		"blocks", len(res.Blocks), "pages", res.Pages,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (a *TextractAnalyzer) document(ctx context.Context, doc extract.DocumentRef) (*types.Document, error) {
	if a.cfg.Source == nil {
		return &types.Document{S3Object: &types.S3Object{
			Bucket: aws.String(doc.Bucket),
			Name:   aws.String(doc.Key),
		}}, nil
	}
	obj, err := a.cfg.Source.Get(ctx, doc.Bucket, doc.Key)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", doc.Bucket, doc.Key, err)
	}
	return &types.Document{Bytes: obj.Body}, nil
}

// ConvertBlocks maps SDK blocks onto the extraction model. Absent optional
// attributes become zero values.
func ConvertBlocks(in []types.Block) []extract.Block {
	out := make([]extract.Block, 0, len(in))
	for _, b := range in {
		blk := extract.Block{
			ID:   aws.ToString(b.Id),
			Type: extract.BlockType(b.BlockType),
			Text: aws.ToString(b.Text),
		}
		for _, et := range b.EntityTypes {
			blk.EntityTypes = append(blk.EntityTypes, string(et))
		}
		for _, rel := range b.Relationships {
			blk.Relationships = append(blk.Relationships, extract.Relationship{
				Type: extract.RelationshipType(rel.Type),
				IDs:  rel.Ids,
			})
		}
		out = append(out, blk)
	}
	return out
}
