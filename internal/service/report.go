package service

import (
	"bytes"
	"fmt"
	"mime"
	"time"

	"github.com/jedlsf/buwis-friend/internal/calendar"
	"github.com/jedlsf/buwis-friend/internal/csvexport"
	"github.com/jedlsf/buwis-friend/internal/domain"
	"github.com/jedlsf/buwis-friend/internal/filing"
	"github.com/jedlsf/buwis-friend/internal/xlsxexport"
)

// ExportResult is a rendered report file.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ContentDisposition returns the attachment header value for the file.
func (r *ExportResult) ContentDisposition() string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": r.Filename})
}

// RenderReport renders sess in format. generated dates the filename.
func RenderReport(sess *filing.Session, format domain.ExportFormat, generated time.Time) (*ExportResult, error) {
	filename := csvexport.BuildFilename(sess.Taxpayer().Name, sess.Period(), string(format), generated)

	var buf bytes.Buffer
	switch format {
	case domain.ExportCSV:
		if err := csvexport.WriteBOM(&buf); err != nil {
			return nil, fmt.Errorf("writing csv bom: %w", err)
		}
		w := csvexport.NewWriter(&buf)
		if err := w.WriteHeader(); err != nil {
			return nil, fmt.Errorf("writing csv header: %w", err)
		}
		if err := w.WriteInvoices(sess.Invoices()); err != nil {
			return nil, fmt.Errorf("writing csv rows: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, fmt.Errorf("flushing csv: %w", err)
		}
	case domain.ExportXLSX:
		deadlines, err := calendar.DeadlinesFor(sess.Period())
		if err != nil {
			return nil, err
		}
		if err := xlsxexport.Write(&buf, sess.Summary(), sess.Invoices(), deadlines); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}

	return &ExportResult{Filename: filename, ContentType: format.ContentType(), Data: buf.Bytes()}, nil
}
