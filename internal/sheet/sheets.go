package sheet

import (
	"context"
	"fmt"
	"strings"
	"time"

	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/calebhart/jobsift/internal/schema"
)

const (
	dateFormat      = "2006-01-02"
	timestampFormat = time.RFC3339
)

// SheetStore writes to a Google Sheets spreadsheet: one tab for
// records, one for errors. Rows are positioned through the header map
// read at construction, so reordering columns upstream is harmless.
// Missing tabs or headers fail construction; that is a configuration
// error and the run must not start.
type SheetStore struct {
	srv           *sheetsapi.Service
	spreadsheetID string
	recordsTab    string
	errorsTab     string

	// errorRowsTerminal includes error rows in the processed-id scan,
	// making a failed extraction a terminal outcome instead of a
	// retried one.
	errorRowsTerminal bool

	recordsHeader *schema.HeaderMap
	errorsHeader  *schema.HeaderMap
}

// NewSheetStore reads and validates both tab headers.
func NewSheetStore(ctx context.Context, srv *sheetsapi.Service, spreadsheetID, recordsTab, errorsTab string, errorRowsTerminal bool) (*SheetStore, error) {
	s := &SheetStore{
		srv:               srv,
		spreadsheetID:     spreadsheetID,
		recordsTab:        recordsTab,
		errorsTab:         errorsTab,
		errorRowsTerminal: errorRowsTerminal,
	}

	var err error
	if s.recordsHeader, err = s.readHeader(ctx, recordsTab); err != nil {
		return nil, err
	}
	if err := s.recordsHeader.Require(schema.RecordHeaders()...); err != nil {
		return nil, fmt.Errorf("records tab %q: %w", recordsTab, err)
	}
	if s.errorsHeader, err = s.readHeader(ctx, errorsTab); err != nil {
		return nil, err
	}
	if err := s.errorsHeader.Require(schema.ErrorHeaders()...); err != nil {
		return nil, fmt.Errorf("errors tab %q: %w", errorsTab, err)
	}
	return s, nil
}

func (s *SheetStore) readHeader(ctx context.Context, tab string) (*schema.HeaderMap, error) {
	vr, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, fmt.Sprintf("%s!1:1", tab)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read header row of tab %q: %w", tab, err)
	}
	if len(vr.Values) == 0 {
		return nil, fmt.Errorf("tab %q has no header row", tab)
	}
	header := make([]string, len(vr.Values[0]))
	for i, cell := range vr.Values[0] {
		header[i] = fmt.Sprint(cell)
	}
	hm, err := schema.NewHeaderMap(header)
	if err != nil {
		return nil, fmt.Errorf("tab %q: %w", tab, err)
	}
	return hm, nil
}

// AppendRecord appends one posting row to the records tab.
func (s *SheetStore) AppendRecord(ctx context.Context, rec schema.Record) error {
	row, err := s.recordsHeader.PlaceAll(map[string]string{
		schema.ColTitle:       rec.Title,
		schema.ColCompany:     rec.Company,
		schema.ColLocation:    rec.Location,
		schema.ColSourceURL:   rec.SourceURL,
		schema.ColStatus:      rec.Status,
		schema.ColDateAdded:   rec.DateAdded.Format(dateFormat),
		schema.ColMessageID:   rec.MessageID,
		schema.ColSubject:     rec.Subject,
		schema.ColProcessedAt: rec.ProcessedAt.Format(timestampFormat),
	})
	if err != nil {
		return fmt.Errorf("build record row: %w", err)
	}
	return s.appendRow(ctx, s.recordsTab, row)
}

// AppendError appends one audit row to the errors tab.
func (s *SheetStore) AppendError(ctx context.Context, e schema.ErrorRecord) error {
	row, err := s.errorsHeader.PlaceAll(map[string]string{
		schema.ColErrMessageID: e.MessageID,
		schema.ColErrSubject:   e.Subject,
		schema.ColErrReason:    e.Reason,
		schema.ColErrDetail:    e.Detail,
		schema.ColErrTimestamp: e.Timestamp.Format(timestampFormat),
	})
	if err != nil {
		return fmt.Errorf("build error row: %w", err)
	}
	return s.appendRow(ctx, s.errorsTab, row)
}

func (s *SheetStore) appendRow(ctx context.Context, tab string, row []string) error {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	_, err := s.srv.Spreadsheets.Values.Append(s.spreadsheetID, fmt.Sprintf("%s!A1", tab),
		&sheetsapi.ValueRange{Values: [][]interface{}{cells}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row to tab %q: %w", tab, err)
	}
	return nil
}

// ProcessedMessageIDs scans the message-id column of the records tab,
// and of the errors tab when error rows are configured as terminal.
func (s *SheetStore) ProcessedMessageIDs(ctx context.Context) (map[string]bool, error) {
	ids := make(map[string]bool)
	if err := s.scanColumn(ctx, s.recordsTab, s.recordsHeader, schema.ColMessageID, ids); err != nil {
		return nil, err
	}
	if s.errorRowsTerminal {
		if err := s.scanColumn(ctx, s.errorsTab, s.errorsHeader, schema.ColErrMessageID, ids); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func (s *SheetStore) scanColumn(ctx context.Context, tab string, hm *schema.HeaderMap, column string, into map[string]bool) error {
	idx, ok := hm.Column(column)
	if !ok {
		return fmt.Errorf("tab %q has no %q column", tab, column)
	}
	letter := schema.ColumnLetter(idx)
	vr, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID,
		fmt.Sprintf("%s!%s2:%s", tab, letter, letter)).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("scan tab %q column %s: %w", tab, letter, err)
	}
	for _, row := range vr.Values {
		if len(row) == 0 {
			continue
		}
		id := strings.TrimSpace(fmt.Sprint(row[0]))
		if id != "" {
			into[id] = true
		}
	}
	return nil
}
