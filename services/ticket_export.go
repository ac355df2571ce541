package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kendall-kelly/field-service-admin/models"
	"github.com/kendall-kelly/field-service-admin/utils"
)

// ExportResult describes an uploaded ticket report
type ExportResult struct {
	Key         string `json:"key"`
	DownloadURL string `json:"download_url"`
	Rows        int    `json:"rows"`
	Status      string `json:"status"`
}

// TicketExporter uploads the loaded ticket collection as a CSV report
type TicketExporter struct {
	storage S3Interface
	tickets *Fetcher[models.Ticket]
	now     func() time.Time
}

// NewTicketExporter creates an exporter over an S3 backend and the console's ticket fetcher
func NewTicketExporter(storage S3Interface, tickets *Fetcher[models.Ticket]) *TicketExporter {
	return &TicketExporter{storage: storage, tickets: tickets, now: time.Now}
}

// Export reports the tickets for a status key. The collection already held
// for that key is reused; otherwise it is loaded first.
func (e *TicketExporter) Export(ctx context.Context, statusKey string) (*ExportResult, error) {
	state, err := e.tickets.Select(ctx, statusKey)
	if err != nil {
		return nil, err
	}
	if state.Error != "" {
		return nil, fmt.Errorf("cannot export %s tickets: %s", statusKey, state.Error)
	}

	report, err := utils.BuildTicketReport(state.Data)
	if err != nil {
		return nil, err
	}

	key := utils.BuildReportKey(statusKey, e.now())
	if err := e.storage.UploadObject(ctx, key, utils.ReportContentType, report); err != nil {
		return nil, err
	}

	url, err := e.storage.GetPresignedURL(ctx, key)
	if err != nil {
		// An unreachable report is removed rather than left behind
		if delErr := e.storage.DeleteObject(ctx, key); delErr != nil {
			slog.Warn("failed to remove unreachable ticket report", "key", key, "error", delErr)
		}
		return nil, err
	}

	slog.Info("ticket report exported", "status", statusKey, "rows", len(state.Data), "key", key)
	return &ExportResult{Key: key, DownloadURL: url, Rows: len(state.Data), Status: statusKey}, nil
}
