package worker

// report_email_worker.go
// Renders the daily sales PDF for (owner, date) and mails it.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"stockledger/internal/apierror"
	"stockledger/internal/infra"
	"stockledger/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReportEmailPayload mirrors the map queued by ReportService.EmailDailyReport.
type ReportEmailPayload struct {
	OwnerID string `json:"owner_id"`
	Date    string `json:"date"`
	To      string `json:"to"`
}

// ReportSender is satisfied by *infra.Mailer.
type ReportSender interface {
	SendReport(to, subject, body, fileName string, pdf []byte) error
}

type ReportEmailWorker struct {
	reports        service.ReportService
	mailer         ReportSender
	pdfStoragePath string
}

// NewReportEmailWorker wires the worker. When pdfStoragePath is set a copy of
// every mailed PDF is kept there.
func NewReportEmailWorker(reports service.ReportService, mailer ReportSender, pdfStoragePath string) *ReportEmailWorker {
	return &ReportEmailWorker{reports: reports, mailer: mailer, pdfStoragePath: pdfStoragePath}
}

func (w *ReportEmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReportEmailPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("%w: invalid payload: %v", errPermanent, err)
	}
	ownerID, err := uuid.Parse(payload.OwnerID)
	if err != nil || payload.To == "" {
		return fmt.Errorf("%w: missing owner or recipient", errPermanent)
	}

	pdf, err := w.reports.DailyReportPDF(ctx, ownerID, payload.Date)
	if err != nil {
		var verr *apierror.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%w: %v", errPermanent, err)
		}
		return fmt.Errorf("render report: %w", err)
	}

	if w.pdfStoragePath != "" {
		if path, err := infra.SaveReportPDF(pdf, w.pdfStoragePath, payload.OwnerID, payload.Date); err != nil {
			log.Warn().Err(err).Str("owner_id", payload.OwnerID).Msg("report_email_worker: could not keep PDF copy")
		} else {
			log.Debug().Str("pdf", path).Msg("report_email_worker: PDF stored")
		}
	}

	subject := "Sales report " + payload.Date
	body := fmt.Sprintf("Attached is the sales report for %s.", payload.Date)
	fileName := "sales_" + payload.Date + ".pdf"
	if err := w.mailer.SendReport(payload.To, subject, body, fileName, pdf); err != nil {
		if errors.Is(err, infra.ErrRelayUnavailable) {
			log.Warn().Str("to", payload.To).Msg("report_email_worker: SMTP relay parked")
		}
		return fmt.Errorf("send report: %w", err)
	}
	log.Info().Str("owner_id", payload.OwnerID).Str("date", payload.Date).Msg("report_email_worker: report sent")
	return nil
}
