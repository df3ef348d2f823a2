package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// Sentinel errors.
var (
	// ErrSpreadsheetNotFound is returned when the target spreadsheet does not exist
	// or is not shared with the service account.
	ErrSpreadsheetNotFound = errors.New("spreadsheet not found")

	// ErrUnauthorized is returned when credentials are absent, malformed or rejected.
	ErrUnauthorized = errors.New("google authentication failed")
)

// Client appends rows to the first worksheet of a spreadsheet.
type Client struct {
	name   string
	id     string
	sheets *sheets.Service
	drive  *drive.Service
}

// NewClient builds a client authenticated with the configured service account.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Credentials.IsZero() {
		return nil, fmt.Errorf("%w: no service account configured", ErrUnauthorized)
	}

	key, err := cfg.Credentials.JSON()
	if err != nil {
		return nil, err
	}

	jwtCfg, err := google.JWTConfigFromJSON(key, sheets.SpreadsheetsScope, drive.DriveMetadataReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	return newClient(ctx, cfg, option.WithHTTPClient(jwtCfg.Client(ctx)))
}

// newClient creates the API services with the given options.
func newClient(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}

	name := cfg.SpreadsheetName
	if name == "" {
		name = DefaultSpreadsheetName
	}

	return &Client{
		name:   name,
		id:     cfg.SpreadsheetID,
		sheets: sheetsSvc,
		drive:  driveSvc,
	}, nil
}

// Name returns the spreadsheet name rows are appended to.
func (c *Client) Name() string {
	return c.name
}

// AppendRow appends values as one row after the last row of the first worksheet.
func (c *Client) AppendRow(ctx context.Context, values []any) error {
	id, err := c.spreadsheetID(ctx)
	if err != nil {
		return err
	}

	ss, err := c.sheets.Spreadsheets.Get(id).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return classify("opening spreadsheet", err)
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return fmt.Errorf("%w: %q has no worksheets", ErrSpreadsheetNotFound, c.name)
	}

	rng := quoteSheetTitle(ss.Sheets[0].Properties.Title) + "!A1"
	body := &sheets.ValueRange{Values: [][]any{values}}

	_, err = c.sheets.Spreadsheets.Values.Append(id, rng, body).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return classify("appending row", err)
	}
	return nil
}

// spreadsheetID returns the configured ID or looks the spreadsheet up by name.
func (c *Client) spreadsheetID(ctx context.Context) (string, error) {
	if c.id != "" {
		return c.id, nil
	}

	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(c.name), spreadsheetMimeType)
	res, err := c.drive.Files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(1).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", classify("searching spreadsheet", err)
	}
	if len(res.Files) == 0 {
		return "", fmt.Errorf("%w: %q", ErrSpreadsheetNotFound, c.name)
	}
	return res.Files[0].Id, nil
}

// classify maps Google API and token errors onto the package sentinels.
func classify(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", op, ErrSpreadsheetNotFound)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s: %w: %s", op, ErrUnauthorized, apiErr.Message)
		}
	}

	var tokenErr *oauth2.RetrieveError
	if errors.As(err, &tokenErr) {
		return fmt.Errorf("%s: %w: %v", op, ErrUnauthorized, tokenErr)
	}

	return fmt.Errorf("%s: %w", op, err)
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func quoteSheetTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
