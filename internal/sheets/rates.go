// Package sheets imports exchange-rate tables from a Google spreadsheet.
// The sheet layout is a header row of currency codes ("date", "USD", "RUB",
// ...) followed by one row per first-of-month date.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"kopilka/internal/core"
)

// RateSaver is where imported tables land; satisfied by rates.Store.
type RateSaver interface {
	Save(ctx context.Context, date string, table core.RateTable) error
}

type Importer struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewImporterFromEnv builds an Importer from environment variables.
// Required: GOOGLE_SPREADSHEET_ID. Auth comes from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS. Optional: GOOGLE_RATES_SHEET_NAME
// (default "Rates").
func NewImporterFromEnv(ctx context.Context) (*Importer, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_RATES_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Rates"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Importer{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Import reads the rates sheet and saves one table per row through the
// saver. Returns how many tables were imported.
func (im *Importer) Import(ctx context.Context, saver RateSaver) (int, error) {
	readRange := im.sheetName + "!A1:Z"
	resp, err := im.svc.Spreadsheets.Values.Get(im.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read range %s: %w", readRange, err)
	}

	tables, err := ParseRateRows(resp.Values)
	if err != nil {
		return 0, err
	}

	imported := 0
	for date, table := range tables {
		if err := saver.Save(ctx, date, table); err != nil {
			return imported, fmt.Errorf("save rates for %s: %w", date, err)
		}
		imported++
	}

	slog.InfoContext(ctx, "Imported exchange rates from spreadsheet",
		"spreadsheet_id", im.spreadsheetID,
		"sheet", im.sheetName,
		"tables", imported)

	return imported, nil
}

// ParseRateRows converts raw sheet values into rate tables keyed by date.
// The first row is the header: its first cell is the date column, the rest
// are currency codes. Unknown codes, blank cells and unparsable numbers are
// skipped; a row with a bad date is skipped with a warning rather than
// failing the whole import.
func ParseRateRows(values [][]any) (map[string]core.RateTable, error) {
	if len(values) < 2 {
		return nil, errors.New("sheet has no data rows")
	}

	header := values[0]
	if len(header) < 2 {
		return nil, errors.New("header row needs a date column and at least one currency")
	}
	codes := make([]string, len(header))
	for i := 1; i < len(header); i++ {
		codes[i] = strings.ToUpper(strings.TrimSpace(cellString(header[i])))
	}

	tables := make(map[string]core.RateTable)
	for _, row := range values[1:] {
		if len(row) < 2 {
			continue
		}
		date := strings.TrimSpace(cellString(row[0]))
		if _, err := time.Parse("2006-01-02", date); err != nil {
			slog.Warn("Skipping rate row with bad date", "date", date)
			continue
		}

		table := make(core.RateTable)
		for i := 1; i < len(row) && i < len(codes); i++ {
			code := codes[i]
			if code == "" || !core.IsCurrency(code) {
				continue
			}
			rate, err := cellFloat(row[i])
			if err != nil || rate <= 0 {
				continue
			}
			table[code] = rate
		}
		if len(table) > 0 {
			tables[date] = table
		}
	}
	return tables, nil
}

func cellString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func cellFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", ".")
		return strconv.ParseFloat(s, 64)
	default:
		return 0, fmt.Errorf("unsupported cell type %T", v)
	}
}
