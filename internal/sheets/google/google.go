// Package google exports stored reports to a Google Sheets spreadsheet.
package google

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

	"salaryreport/internal/core"
)

// Header is the first row of the export sheet.
var Header = []any{
	"created_at", "id",
	core.FieldBasicSalary, core.FieldIncentives, core.FieldSpends, core.FieldRecharge, core.FieldGrocery,
	"total_income", "total_expenses", "net_savings", "savings_percentage",
	"source_address",
}

type Config struct {
	SpreadsheetID string
	// SheetName is prefixed with the current year unless it already starts with one.
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	// Options replace credential loading entirely when set.
	Options []goption.ClientOption
}

// Client appends one row per report.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = "Reports"
	}

	opts := cfg.Options
	if len(opts) == 0 {
		creds, err := loadCredentials(cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheet:         yearPrefixedName(base, time.Now().Year()),
	}, nil
}

// loadCredentials reads service account credentials, falling back to
// GOOGLE_APPLICATION_CREDENTIALS.
func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		return readCredentialsFile(cfg.CredentialsFile)
	}
	if path := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); path != "" {
		return readCredentialsFile(path)
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
}

func readCredentialsFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

// SheetName returns the tab the client writes to.
func (c *Client) SheetName() string {
	return c.sheet
}

// EnsureHeader writes Header to row 1 when the sheet is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	rng := fmt.Sprintf("'%s'!A1:A1", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", c.sheet, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	headerRange := fmt.Sprintf("'%s'!A1", c.sheet)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, headerRange, &gsheet.ValueRange{Values: [][]any{Header}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header of %s: %w", c.sheet, err)
	}
	slog.InfoContext(ctx, "Wrote export sheet header", "sheet", c.sheet)
	return nil
}

// ExportReport appends rec as a new row and returns the updated range.
func (c *Client) ExportReport(ctx context.Context, rec core.StoredReport) (string, error) {
	rng := fmt.Sprintf("'%s'!A:L", c.sheet)
	vr := &gsheet.ValueRange{Values: [][]any{ReportRow(rec)}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append report %s to %s: %w", rec.ID, c.sheet, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

// ReportRow lays out rec in Header order.
func ReportRow(rec core.StoredReport) []any {
	return []any{
		rec.CreatedAt.UTC().Format(time.RFC3339),
		rec.ID,
		rec.Input.BasicSalary,
		rec.Input.Incentives,
		rec.Input.Spends,
		rec.Input.Recharge,
		rec.Input.Grocery,
		rec.TotalIncome,
		rec.TotalExpenses,
		rec.NetSavings,
		rec.SavingsPercentage,
		rec.SourceAddress,
	}
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
