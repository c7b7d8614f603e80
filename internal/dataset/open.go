package dataset

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/wonny/vivienda/pkg/config"
	"github.com/wonny/vivienda/pkg/database"
	"github.com/wonny/vivienda/pkg/httputil"
	"github.com/wonny/vivienda/pkg/logger"
)

// Open loads the dataset from a file path, an http(s) URL of a .csv/.xlsx
// file or a postgres:// URL
func Open(ctx context.Context, cfg config.DatasetConfig, dbCfg config.DatabaseConfig) (*Frame, error) {
	return OpenWith(ctx, cfg, dbCfg, httputil.New(logger.Nop()))
}

// OpenWith is Open with an explicit HTTP client for remote files
func OpenWith(ctx context.Context, cfg config.DatasetConfig, dbCfg config.DatabaseConfig, client *httputil.Client) (*Frame, error) {
	location := cfg.Location

	switch {
	case IsPostgresURL(location):
		db, err := database.New(ctx, location, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connect dataset database: %w", err)
		}
		defer db.Close()

		return NewPostgresSource(db.Pool).Load(ctx, cfg.Query)

	case IsHTTPURL(location):
		return openRemote(ctx, client, location, cfg.Sheet)
	}

	switch strings.ToLower(filepath.Ext(location)) {
	case ".csv":
		return LoadCSV(location)
	case ".xlsx", ".xlsm":
		return LoadXLSX(location, cfg.Sheet)
	default:
		return nil, unsupported(location)
	}
}

func openRemote(ctx context.Context, client *httputil.Client, location, sheet string) (*Frame, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("dataset: parse %q: %w", location, err)
	}

	ext := strings.ToLower(path.Ext(u.Path))
	if ext != ".csv" && ext != ".xlsx" && ext != ".xlsm" {
		return nil, unsupported(location)
	}

	var buf bytes.Buffer
	if _, err := client.Fetch(ctx, location, &buf); err != nil {
		return nil, fmt.Errorf("download dataset: %w", err)
	}

	if ext == ".csv" {
		return ReadCSV(&buf)
	}
	return ReadXLSX(&buf, sheet)
}

func unsupported(location string) error {
	return fmt.Errorf("dataset: unsupported location %q (want .csv, .xlsx, http(s):// or postgres:// URL)", location)
}

// IsPostgresURL reports whether location names a PostgreSQL database
func IsPostgresURL(location string) bool {
	return strings.HasPrefix(location, "postgres://") || strings.HasPrefix(location, "postgresql://")
}

// IsHTTPURL reports whether location names a remote file
func IsHTTPURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
