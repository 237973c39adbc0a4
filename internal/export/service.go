package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docintake/internal/workitems"
)

const sheet = "Work Items"

// WorkItemLister supplies the rows to export.
type WorkItemLister interface {
	List(ctx context.Context) ([]workitems.WorkItem, error)
}

// Service renders the work-item view as an XLSX workbook.
type Service struct {
	items  WorkItemLister
	logger *slog.Logger
}

func NewService(items WorkItemLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{items: items, logger: logger}
}

// WorkItemsXLSX returns one row per (work item, field), field names sorted
// within an item. Items without fields still get a row.
func (s *Service) WorkItemsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	items, err := s.items.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list work items: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("xlsx close failed", "error", err)
		}
	}()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headers := []string{"File Name", "Last Modified", "Field", "Value", "Link"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	write := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
	for _, it := range items {
		names := make([]string, 0, len(it.Metadata))
		for k := range it.Metadata {
			names = append(names, k)
		}
		sort.Strings(names)
		if len(names) == 0 {
			names = append(names, "")
		}
		for _, name := range names {
			write(1, it.Key)
			write(2, it.LastModified)
			write(3, name)
			write(4, it.Metadata[name])
			write(5, it.URL)
			row++
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 40) // file
	_ = f.SetColWidth(sheet, "B", "B", 22) // modified
	_ = f.SetColWidth(sheet, "C", "D", 30) // field, value
	_ = f.SetColWidth(sheet, "E", "E", 60) // link
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("work items exported",
		"items", len(items),
		"rows", row-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
