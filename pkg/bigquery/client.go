package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/sdfoods/restaurant-backend/pkg/config"
	"github.com/sdfoods/restaurant-backend/pkg/logger"
)

const metadataTimeout = 10 * time.Second

var (
	errProjectIDRequired    = errors.New("gcp project id is required")
	errDatasetRequired      = errors.New("bigquery dataset is required")
	errTableNameRequired    = errors.New("bigquery table name is required")
	errClientNotInitialized = errors.New("bigquery client not initialized")
)

// Inserter is the write surface the analytics worker depends on.
type Inserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// Client writes analytics rows into the SD Foods dataset. The order events
// table must exist before the worker starts; nothing here creates tables.
type Client struct {
	bq          *bigquery.Client
	dataset     *bigquery.Dataset
	orderEvents string
}

type target struct {
	project     string
	dataset     string
	orderEvents string
}

func resolveTarget(gcp config.GCPConfig, cfg config.BigQueryConfig) (target, error) {
	t := target{
		project:     strings.TrimSpace(gcp.ProjectID),
		dataset:     strings.TrimSpace(cfg.Dataset),
		orderEvents: strings.TrimSpace(cfg.OrderEventsTable),
	}
	switch {
	case t.project == "":
		return t, errProjectIDRequired
	case t.dataset == "":
		return t, errDatasetRequired
	case t.orderEvents == "":
		return t, errTableNameRequired
	}
	return t, nil
}

func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.BigQueryConfig, logg *logger.Logger) (*Client, error) {
	t, err := resolveTarget(gcp, cfg)
	if err != nil {
		return nil, err
	}

	bq, err := bigquery.NewClient(ctx, t.project, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}
	c := &Client{bq: bq, dataset: bq.Dataset(t.dataset), orderEvents: t.orderEvents}

	if err := c.Ping(ctx); err != nil {
		_ = bq.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"dataset":     t.dataset,
			"orderEvents": t.orderEvents,
		}), "bigquery client initialized")
	}
	return c, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	if js := strings.TrimSpace(gcp.CredentialsJSON); js != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(js))}
	}
	if path := strings.TrimSpace(gcp.ApplicationCredentials); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

// Ping checks that the dataset and the order events table are reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.dataset == nil {
		return errClientNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	if _, err := c.dataset.Metadata(ctx); err != nil {
		return describeMetadataErr("dataset", c.dataset.DatasetID, err)
	}
	if _, err := c.dataset.Table(c.orderEvents).Metadata(ctx); err != nil {
		return describeMetadataErr("table", c.orderEvents, err)
	}
	return nil
}

// RequireColumns fails when the table schema lacks a column that row (a
// struct with bigquery tags) would write. Streaming inserts otherwise reject
// every row at runtime.
func (c *Client) RequireColumns(ctx context.Context, table string, row any) error {
	if c == nil || c.dataset == nil {
		return errClientNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	md, err := c.dataset.Table(table).Metadata(ctx)
	if err != nil {
		return describeMetadataErr("table", table, err)
	}
	if missing := missingColumns(md.Schema, ColumnsOf(row)); len(missing) > 0 {
		return fmt.Errorf("table %q is missing columns: %s", table, strings.Join(missing, ", "))
	}
	return nil
}

// ColumnsOf lists the bigquery column names of a struct value or pointer.
func ColumnsOf(row any) []string {
	rt := reflect.TypeOf(row)
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil
	}
	cols := make([]string, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("bigquery"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		cols = append(cols, name)
	}
	return cols
}

func missingColumns(schema bigquery.Schema, want []string) []string {
	have := make([]string, 0, len(schema))
	for _, f := range schema {
		have = append(have, strings.ToLower(f.Name))
	}
	var missing []string
	for _, col := range want {
		if !slices.Contains(have, strings.ToLower(col)) {
			missing = append(missing, col)
		}
	}
	return missing
}

// InsertRows streams rows into table. An empty batch is a no-op.
func (c *Client) InsertRows(ctx context.Context, table string, rows []any) error {
	if c == nil || c.dataset == nil {
		return errClientNotInitialized
	}
	table = strings.TrimSpace(table)
	if table == "" {
		return errTableNameRequired
	}
	if len(rows) == 0 {
		return nil
	}
	return c.dataset.Table(table).Inserter().Put(ctx, rows)
}

func (c *Client) Close() error {
	if c == nil || c.bq == nil {
		return nil
	}
	return c.bq.Close()
}

func describeMetadataErr(kind, name string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%s %q does not exist", kind, name)
	}
	return fmt.Errorf("checking %s %q: %w", kind, name, err)
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
