package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/common"
	"github.com/joseph-ayodele/docintake/internal/entity"
	"github.com/joseph-ayodele/docintake/internal/extract"
	"github.com/joseph-ayodele/docintake/internal/metrics"
	"github.com/joseph-ayodele/docintake/internal/record"
)

// JobLog is the part of the job repository the processor writes to.
type JobLog interface {
	Start(ctx context.Context, doc extract.DocumentRef) (*entity.ExtractJob, error)
	FinishSuccess(ctx context.Context, id uuid.UUID, recordKey string, pages, fields int) error
	FinishFailure(ctx context.Context, id uuid.UUID, message string) error
}

// ObjectStatus reports what the trigger did with one stored object.
type ObjectStatus struct {
	Status          string `json:"status"`
	InputFile       string `json:"input_file"`
	OutputFile      string `json:"output_file,omitempty"`
	FieldsExtracted int    `json:"fields_extracted"`
	Message         string `json:"message,omitempty"`
}

// Processor coordinates document analysis, key/value extraction and record persistence.
type Processor struct {
	analyzer extract.Analyzer
	writer   *record.Writer
	jobs     JobLog
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewProcessor wires a processor. jobs and m may be nil.
func NewProcessor(analyzer extract.Analyzer, writer *record.Writer, jobs JobLog, m *metrics.Metrics, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{analyzer: analyzer, writer: writer, jobs: jobs, metrics: m, logger: logger}
}

// ProcessObject analyzes one newly stored document and writes its record.
// Objects whose extension is not analyzable are skipped without a record.
func (p *Processor) ProcessObject(ctx context.Context, doc extract.DocumentRef) (ObjectStatus, error) {
	logger := common.LoggerFromContext(ctx, p.logger).With("bucket", doc.Bucket, "key", doc.Key)
	st := ObjectStatus{InputFile: doc.Key}

	if !constants.IsAnalyzable(doc.Key) {
		logger.Info("skipping object with unsupported extension")
		st.Status = constants.OutcomeSkipped
		st.Message = "unsupported file type"
		p.metrics.ObserveObject(st.Status)
		return st, nil
	}

	var jobID uuid.UUID
	if p.jobs != nil {
		job, err := p.jobs.Start(ctx, doc)
		if err != nil {
			// the job log is advisory; analysis proceeds without it
			logger.Warn("failed to start extract job", "error", err)
		} else {
			jobID = job.ID
			logger = logger.With("job_id", jobID)
		}
	}

	fail := func(err error) (ObjectStatus, error) {
		logger.Error("processing failed", "error", err)
		st.Status = constants.OutcomeFailed
		st.Message = err.Error()
		p.metrics.ObserveObject(st.Status)
		if jobID != uuid.Nil {
			if ferr := p.jobs.FinishFailure(ctx, jobID, err.Error()); ferr != nil {
				logger.Warn("failed to record job failure", "error", ferr)
			}
		}
		return st, err
	}

	started := time.Now()
	res, err := p.analyzer.Analyze(ctx, doc)
	if err != nil {
		return fail(common.WrapError(err, "analyze "+doc.Key))
	}
	elapsed := res.Duration
	if elapsed == 0 {
		elapsed = time.Since(started)
	}
	p.metrics.ObserveAnalysis(elapsed)
	logger.Debug("document analyzed", "blocks", len(res.Blocks), "pages", res.Pages, "duration", elapsed)

	out := extract.Extract(res.Blocks)
	for _, d := range out.Diagnostics {
		p.metrics.ObserveDiagnostic(string(d.Kind))
		logger.Debug("extraction diagnostic", "block_id", d.BlockID, "kind", d.Kind, "detail", d.Detail)
	}

	ref, err := p.writer.Write(ctx, doc, out.Fields, res.Pages)
	if err != nil {
		return fail(err)
	}

	st.Status = constants.OutcomeProcessed
	st.OutputFile = ref.Key
	st.FieldsExtracted = len(out.Fields)
	p.metrics.ObserveObject(st.Status)
	p.metrics.AddFields(st.FieldsExtracted)

	if jobID != uuid.Nil {
		if err := p.jobs.FinishSuccess(ctx, jobID, ref.Key, res.Pages, st.FieldsExtracted); err != nil {
			logger.Warn("failed to record job success", "error", err)
		}
	}
	logger.Info("object processed", "record_key", ref.Key, "fields", st.FieldsExtracted, "diagnostics", len(out.Diagnostics))
	return st, nil
}

// ProcessAll handles every document in order. One object's failure does not
// stop the others; the first error is returned alongside all statuses.
func (p *Processor) ProcessAll(ctx context.Context, docs []extract.DocumentRef) ([]ObjectStatus, error) {
	statuses := make([]ObjectStatus, 0, len(docs))
	var firstErr error
	for _, doc := range docs {
		st, err := p.ProcessObject(ctx, doc)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		statuses = append(statuses, st)
	}
	return statuses, firstErr
}
