// Command docintake-lambda is the analysis trigger for S3 object-created
// notifications delivered to AWS Lambda.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/joseph-ayodele/docintake/internal/app"
	"github.com/joseph-ayodele/docintake/internal/common"
	"github.com/joseph-ayodele/docintake/internal/pipeline"
	"github.com/joseph-ayodele/docintake/internal/trigger"
)

type response struct {
	Results []pipeline.ObjectStatus `json:"results"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	lambda.Start(handler(a.Processor, logger))
}

// handler returns an error when any object failed so the invocation is retried.
func handler(p *pipeline.Processor, logger *slog.Logger) func(context.Context, events.S3Event) (response, error) {
	return func(ctx context.Context, ev events.S3Event) (response, error) {
		docs := trigger.FromS3Event(ev)
		logger.Info("s3 event received", "records", len(ev.Records), "documents", len(docs))
		statuses, err := p.ProcessAll(ctx, docs)
		return response{Results: statuses}, err
	}
}
