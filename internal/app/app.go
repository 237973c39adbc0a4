// Package app wires configuration into the running pipeline components.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/afero"

	"github.com/joseph-ayodele/docintake/internal/common"
	"github.com/joseph-ayodele/docintake/internal/export"
	"github.com/joseph-ayodele/docintake/internal/extract"
	"github.com/joseph-ayodele/docintake/internal/ingest"
	"github.com/joseph-ayodele/docintake/internal/metrics"
	"github.com/joseph-ayodele/docintake/internal/ocr"
	"github.com/joseph-ayodele/docintake/internal/pipeline"
	"github.com/joseph-ayodele/docintake/internal/record"
	"github.com/joseph-ayodele/docintake/internal/repository"
	"github.com/joseph-ayodele/docintake/internal/storage"
	"github.com/joseph-ayodele/docintake/internal/workitems"
)

// App holds the components shared by the CLI, the server and the Lambda handler.
type App struct {
	Config    *common.Config
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Store     storage.BlobStore
	Signer    *storage.LinkSigner
	DB        *repository.DB
	Jobs      repository.ExtractJobRepository
	Processor *pipeline.Processor
	WorkItems *workitems.Service
	Exporter  *export.Service
}

// Option overrides a component, mainly for tests.
type Option func(*options)

type options struct {
	analyzer extract.Analyzer
	fs       afero.Fs
}

// WithAnalyzer replaces the Textract analyzer.
func WithAnalyzer(a extract.Analyzer) Option { return func(o *options) { o.analyzer = a } }

// WithFs replaces the OS filesystem under the fs backend.
func WithFs(fs afero.Fs) Option { return func(o *options) { o.fs = fs } }

// New builds every component from cfg. Close releases what it opened.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Logger: logger, Metrics: metrics.New()}

	var awsCfg aws.Config
	needAWS := cfg.Storage.Backend == common.BackendS3 || o.analyzer == nil
	if needAWS {
		var err error
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Storage.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
	}

	switch cfg.Storage.Backend {
	case common.BackendS3:
		a.Store = storage.NewS3Store(awsCfg, storage.S3Options{
			Endpoint:     cfg.Storage.Endpoint,
			UsePathStyle: cfg.Storage.UsePathStyle,
		}, logger)
	case common.BackendFS:
		fs := o.fs
		if fs == nil {
			fs = afero.NewBasePathFs(afero.NewOsFs(), cfg.Storage.FSRoot)
		}
		a.Signer = storage.NewLinkSigner([]byte(cfg.Storage.LinkSigningKey), cfg.Server.PublicBaseURL)
		a.Store = storage.NewFSStore(fs, a.Signer, logger)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}

	if cfg.Database.Driver != "" {
		db, err := repository.Open(ctx, repository.Config{
			Driver:          cfg.Database.Driver,
			DSN:             cfg.Database.DSN,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
			DialTimeout:     cfg.Database.DialTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close(logger)
			return nil, err
		}
		a.DB = db
		a.Jobs = repository.NewExtractJobRepository(db, logger)
	}

	analyzer := o.analyzer
	if analyzer == nil {
		tcfg := awsCfg.Copy()
		tcfg.Region = cfg.Analysis.Region
		ocfg := ocr.Config{}
		if cfg.Storage.Backend == common.BackendFS {
			ocfg.Source = a.Store
		}
		analyzer = ocr.NewTextractAnalyzer(tcfg, ocfg, logger)
	}

	writer := record.NewWriter(a.Store, cfg.Storage.DataBucket, logger)
	var jobs pipeline.JobLog
	if a.Jobs != nil {
		jobs = a.Jobs
	}
	a.Processor = pipeline.NewProcessor(analyzer, writer, jobs, a.Metrics, logger)
	a.WorkItems = workitems.NewService(a.Store, workitems.Config{
		ImageBucket: cfg.Storage.ImageBucket,
		DataBucket:  cfg.Storage.DataBucket,
		URLExpiry:   cfg.Storage.URLExpiry,
	}, a.Metrics, logger)
	a.Exporter = export.NewService(a.WorkItems, logger)
	return a, nil
}

// NewUploader builds the upload use case, notifying n of stored files when set.
func (a *App) NewUploader(n ingest.Notifier) *ingest.Uploader {
	opts := []ingest.UploaderOption{
		ingest.WithMaxBytes(a.Config.Upload.MaxBytes),
		ingest.WithMetrics(a.Metrics),
	}
	if n != nil {
		opts = append(opts, ingest.WithNotifier(n))
	}
	return ingest.NewUploader(a.Store, a.Config.Storage.ImageBucket, a.Logger, opts...)
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close(a.Logger)
	}
}
