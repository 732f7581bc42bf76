package sheets

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const valueInputRaw = "RAW"

// client is the subset of the Sheets v4 API the publisher calls.
type client interface {
	SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error)
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Append(ctx context.Context, spreadsheetID, rng string, rows [][]any) error
}

type googleClient struct {
	srv *gsheets.Service
}

// newGoogleClient authenticates with a service account key file.
func newGoogleClient(ctx context.Context, credentialsFile string) (*googleClient, error) {
	key, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file %s: %w", credentialsFile, err)
	}
	creds, err := google.CredentialsFromJSON(ctx, key, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	srv, err := gsheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &googleClient{srv: srv}, nil
}

func (c *googleClient) SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error) {
	resp, err := c.srv.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	return titles, nil
}

func (c *googleClient) Clear(ctx context.Context, spreadsheetID, rng string) error {
	_, err := c.srv.Spreadsheets.Values.Clear(spreadsheetID, rng, &gsheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (c *googleClient) Append(ctx context.Context, spreadsheetID, rng string, rows [][]any) error {
	_, err := c.srv.Spreadsheets.Values.Append(spreadsheetID, rng, &gsheets.ValueRange{Values: rows}).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	return err
}
