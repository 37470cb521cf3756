// Package sheets appends one row per completed call to a Google spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const (
	defaultSheetName          = "Realflow Calls"
	defaultSpreadsheetTitle   = "Realflow Call Logs"
	driveScope                = "https://www.googleapis.com/auth/drive"
	newWorksheetRows          = 100
	newWorksheetColumns       = 20
	spreadsheetURLPrefix      = "https://docs.google.com/spreadsheets/d/"
	headerFormatFields        = "userEnteredFormat(backgroundColor,textFormat,horizontalAlignment)"
	headerHorizontalAlignment = "CENTER"
)

// rawInput stores values exactly as sent; caller text is never parsed as
// numbers, dates or formulas.
const rawInput = "RAW"

// ErrCredentialsMissing is returned when the service account file cannot be found.
var ErrCredentialsMissing = errors.New("google credentials file not found")

// Headers is the fixed column order of the call worksheet.
var Headers = []string{
	"Timestamp",
	"Call ID",
	"Caller Name",
	"Phone",
	"Email",
	"Role",
	"Company",
	"Inquiry Type",
	"Asset Type",
	"Location",
	"Deal Size",
	"Square Footage",
	"Urgency",
	"Duration (sec)",
	"Summary",
	"Additional Details",
	"Recording URL",
	"Call Status",
}

// Config locates the spreadsheet and worksheet to write to.
type Config struct {
	CredentialsFile string
	SpreadsheetID   string
	SheetName       string
}

// Connection is an established handle on the target worksheet.
type Connection struct {
	service       *gsheets.Service
	spreadsheetID string
	sheetName     string
}

// Connect authenticates with the service account file and prepares the worksheet.
// ErrCredentialsMissing signals that the logger should run disabled.
func Connect(ctx context.Context, cfg Config) (*Connection, error) {
	if strings.TrimSpace(cfg.CredentialsFile) == "" {
		return nil, ErrCredentialsMissing
	}
	if _, err := os.Stat(cfg.CredentialsFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrCredentialsMissing
		}
		return nil, fmt.Errorf("stat credentials file: %w", err)
	}

	return Open(ctx, cfg,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(gsheets.SpreadsheetsScope, driveScope),
	)
}

// Open builds a connection using explicit client options. When no spreadsheet
// id is configured a new spreadsheet is created. A missing worksheet is added
// and given the header row.
func Open(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Connection, error) {
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	conn := &Connection{
		service:       svc,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		sheetName:     strings.TrimSpace(cfg.SheetName),
	}
	if conn.sheetName == "" {
		conn.sheetName = defaultSheetName
	}

	if conn.spreadsheetID == "" {
		created, err := svc.Spreadsheets.Create(&gsheets.Spreadsheet{
			Properties: &gsheets.SpreadsheetProperties{Title: defaultSpreadsheetTitle},
		}).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("create spreadsheet: %w", err)
		}
		conn.spreadsheetID = created.SpreadsheetId
		log.Printf("sheets: created spreadsheet url=%s", conn.URL())
	}

	if err := conn.ensureWorksheet(ctx); err != nil {
		return nil, err
	}
	return conn, nil
}

// SpreadsheetID returns the id of the spreadsheet in use.
func (c *Connection) SpreadsheetID() string {
	return c.spreadsheetID
}

// URL returns the browser address of the spreadsheet.
func (c *Connection) URL() string {
	return spreadsheetURLPrefix + c.spreadsheetID
}

func (c *Connection) ensureWorksheet(ctx context.Context) error {
	spreadsheet, err := c.service.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("open spreadsheet %s: %w", c.spreadsheetID, err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == c.sheetName {
			return nil
		}
	}

	resp, err := c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{
					Title: c.sheetName,
					GridProperties: &gsheets.GridProperties{
						RowCount:    newWorksheetRows,
						ColumnCount: newWorksheetColumns,
					},
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add worksheet %q: %w", c.sheetName, err)
	}

	if err := c.writeHeaders(ctx); err != nil {
		return err
	}

	var sheetID int64
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}
	if err := c.formatHeaders(ctx, sheetID); err != nil {
		log.Printf("sheets: header formatting failed sheet=%q err=%v", c.sheetName, err)
	}
	return nil
}

func (c *Connection) writeHeaders(ctx context.Context) error {
	row := make([]interface{}, len(Headers))
	for i, h := range Headers {
		row[i] = h
	}
	_, err := c.service.Spreadsheets.Values.Update(c.spreadsheetID, c.rangeOf("A1:R1"), &gsheets.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption(rawInput).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header row: %w", err)
	}
	return nil
}

func (c *Connection) formatHeaders(ctx context.Context, sheetID int64) error {
	_, err := c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			RepeatCell: &gsheets.RepeatCellRequest{
				Range: &gsheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   int64(len(Headers)),
					ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
				},
				Cell: &gsheets.CellData{
					UserEnteredFormat: &gsheets.CellFormat{
						BackgroundColor: &gsheets.Color{Red: 0.2, Green: 0.6, Blue: 0.9},
						TextFormat: &gsheets.TextFormat{
							Bold:            true,
							ForegroundColor: &gsheets.Color{Red: 1, Green: 1, Blue: 1},
						},
						HorizontalAlignment: headerHorizontalAlignment,
					},
				},
				Fields: headerFormatFields,
			},
		}},
	}).Context(ctx).Do()
	return err
}

func (c *Connection) appendRow(ctx context.Context, row []interface{}) error {
	_, err := c.service.Spreadsheets.Values.Append(c.spreadsheetID, c.rangeOf("A1"), &gsheets.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption(rawInput).InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}

func (c *Connection) rangeOf(cells string) string {
	return "'" + strings.ReplaceAll(c.sheetName, "'", "''") + "'!" + cells
}
