// Package sheets implements rowstore.Store on a Google Sheets spreadsheet.
// Every table is one tab of the spreadsheet, addressed by its title.
package sheets

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/JakeFAU/querydesk/internal/rowstore"
)

// Config identifies the spreadsheet and the credentials used to reach it.
type Config struct {
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

const valueInputRaw = "RAW"

// Store reads and writes spreadsheet tabs through the Sheets v4 API.
type Store struct {
	svc           *sheetsapi.Service
	spreadsheetID string
}

// NewStore builds a Sheets client from cfg. Without a credentials file the
// application default credentials are used. Extra client options are applied
// last.
func NewStore(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Store, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("store.sheets.spreadsheet_id is required")
	}
	var clientOpts []option.ClientOption
	if len(opts) == 0 {
		creds, err := loadCredentials(ctx, cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts, option.WithCredentials(creds))
	}
	clientOpts = append(clientOpts, opts...)
	svc, err := sheetsapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewStoreWithService(svc, cfg.SpreadsheetID)
}

// NewStoreWithService wraps an existing Sheets service.
func NewStoreWithService(svc *sheetsapi.Service, spreadsheetID string) (*Store, error) {
	if svc == nil {
		return nil, fmt.Errorf("sheets service is required")
	}
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	return &Store{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func loadCredentials(ctx context.Context, path string) (*google.Credentials, error) {
	if path == "" {
		creds, err := google.FindDefaultCredentials(ctx, sheetsapi.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("find default credentials: %w", err)
		}
		return creds, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}
	return creds, nil
}

// TableExists reports whether the spreadsheet has a tab titled table.
func (s *Store) TableExists(ctx context.Context, table string) (bool, error) {
	doc, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return false, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sheet := range doc.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == table {
			return true, nil
		}
	}
	return false, nil
}

// Rows returns the data range of the tab. The API omits trailing empty cells,
// so every row is padded with "" to the width of the widest row.
func (s *Store) Rows(ctx context.Context, table string) ([]rowstore.Row, error) {
	if err := s.requireTable(ctx, table); err != nil {
		return nil, err
	}
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, quoteSheet(table)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read values of %q: %w", table, err)
	}
	width := 0
	for _, values := range resp.Values {
		width = max(width, len(values))
	}
	rows := make([]rowstore.Row, len(resp.Values))
	for i, values := range resp.Values {
		row := make(rowstore.Row, width)
		copy(row, values)
		for j := len(values); j < width; j++ {
			row[j] = ""
		}
		rows[i] = row
	}
	return rows, nil
}

// Append adds row below the last row of the tab's data range.
func (s *Store) Append(ctx context.Context, table string, row rowstore.Row) error {
	if err := s.requireTable(ctx, table); err != nil {
		return err
	}
	body := &sheetsapi.ValueRange{Values: [][]any{cellValues(row)}}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, quoteSheet(table), body).
		ValueInputOption(valueInputRaw).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to %q: %w", table, err)
	}
	return nil
}

// SetCell writes a single cell.
func (s *Store) SetCell(ctx context.Context, table string, row, col int, value any) error {
	if err := rowstore.CheckAddress(row, col); err != nil {
		return err
	}
	if err := s.requireTable(ctx, table); err != nil {
		return err
	}
	rng := quoteSheet(table) + "!" + ColumnName(col) + strconv.Itoa(row)
	body := &sheetsapi.ValueRange{Values: [][]any{{cellValue(value)}}}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, body).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (s *Store) requireTable(ctx context.Context, table string) error {
	exists, err := s.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if !exists {
		return rowstore.NotFound(table)
	}
	return nil
}

// ColumnName converts a 1-based column number to A1 letters (1 -> A, 27 -> AA).
func ColumnName(col int) string {
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func cellValues(row rowstore.Row) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = cellValue(v)
	}
	return out
}

func cellValue(v any) any {
	if v == nil {
		return ""
	}
	return rowstore.CellString(v)
}
