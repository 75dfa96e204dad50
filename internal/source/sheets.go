package source

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"vaquero/internal"
	"vaquero/internal/config"
	"vaquero/internal/pipeline"
)

// SheetsSource reads the sheet through the Sheets API, using an API key for
// public sheets or an OAuth refresh token otherwise.
type SheetsSource struct {
	service       *sheets.Service
	spreadsheetID string
	readRange     string
}

func NewSheetsSource(ctx context.Context, cfg config.Config) (*SheetsSource, error) {
	if err := cfg.Require("SHEETS_SPREADSHEET_ID", cfg.SheetsSpreadsheetID); err != nil {
		return nil, err
	}

	var opt option.ClientOption
	if cfg.SheetsAPIKey != "" {
		opt = option.WithAPIKey(cfg.SheetsAPIKey)
	} else {
		if err := cfg.Require("GOOGLE_CLIENT_ID", cfg.GoogleClientID); err != nil {
			return nil, err
		}
		if err := cfg.Require("GOOGLE_CLIENT_SECRET", cfg.GoogleClientSecret); err != nil {
			return nil, err
		}
		if err := cfg.Require("GOOGLE_REFRESH_TOKEN", cfg.GoogleRefreshToken); err != nil {
			return nil, err
		}
		oauthCfg := &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  cfg.GoogleRedirectURI,
			Scopes:       []string{sheets.SpreadsheetsReadonlyScope},
		}
		opt = option.WithTokenSource(oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.GoogleRefreshToken}))
	}

	svc, err := sheets.NewService(ctx, opt)
	if err != nil {
		return nil, err
	}
	return &SheetsSource{service: svc, spreadsheetID: cfg.SheetsSpreadsheetID, readRange: cfg.SheetsRange}, nil
}

func (s *SheetsSource) Describe() string {
	return fmt.Sprintf("sheets:%s!%s", s.spreadsheetID, s.readRange)
}

func (s *SheetsSource) FetchRows(ctx context.Context) ([]internal.RawRow, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange).Context(ctx).Do()
	if err != nil {
		return nil, &internal.FetchError{Source: s.Describe(), Attempts: 1, Err: err}
	}
	return pipeline.RowsFromTable(valuesToTable(resp.Values)), nil
}

func valuesToTable(values [][]interface{}) [][]string {
	table := make([][]string, 0, len(values))
	for _, row := range values {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				continue
			}
			cells[i] = fmt.Sprint(v)
		}
		table = append(table, cells)
	}
	return table
}
