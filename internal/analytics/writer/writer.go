package writer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/sethvargo/go-retry"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sdfoods/restaurant-backend/internal/analytics/types"
	pkgbigquery "github.com/sdfoods/restaurant-backend/pkg/bigquery"
)

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaximumBackoff = 2 * time.Second
)

type Config struct {
	OrderEventsTable string
	RetryPolicy      RetryPolicy
}

// RetryPolicy bounds how long one insert may be retried before the Pub/Sub
// message is nacked for redelivery.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaximumBackoff time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = defaultInitialBackoff
	}
	if p.MaximumBackoff < p.InitialBackoff {
		p.MaximumBackoff = max(defaultMaximumBackoff, p.InitialBackoff)
	}
	return p
}

func (p RetryPolicy) backoff() retry.Backoff {
	b := retry.NewExponential(p.InitialBackoff)
	b = retry.WithCappedDuration(p.MaximumBackoff, b)
	return retry.WithMaxRetries(uint64(p.MaxAttempts-1), b)
}

// BigQueryWriter streams one order_events row per consumed event. Rows are
// written before the message is acked, so nothing is buffered in memory.
type BigQueryWriter struct {
	client pkgbigquery.Inserter
	table  string
	retry  RetryPolicy
}

func New(client pkgbigquery.Inserter, cfg Config) (*BigQueryWriter, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	table := strings.TrimSpace(cfg.OrderEventsTable)
	if table == "" {
		return nil, errors.New("order events table is required")
	}
	return &BigQueryWriter{client: client, table: table, retry: cfg.RetryPolicy.withDefaults()}, nil
}

// InsertOrderEvent writes row. The row's event id is its insert id, so a
// redelivered event retried within the dedupe window lands once.
func (w *BigQueryWriter) InsertOrderEvent(ctx context.Context, row types.OrderEventRow) error {
	rows := []any{row}

	err := retry.Do(ctx, w.retry.backoff(), func(ctx context.Context) error {
		err := w.client.InsertRows(ctx, w.table, rows)
		if err != nil && isRetryableBigQueryError(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("insert %s row %s: %w", w.table, row.EventID, err)
	}
	return nil
}

// isRetryableBigQueryError reports whether every underlying failure is
// transient. A single permanent row error makes the whole insert permanent.
func isRetryableBigQueryError(err error) bool {
	// MultiError and PutMultiError are returned by value.
	var multi cbigquery.MultiError
	if errors.As(err, &multi) {
		return allRetryable(multi)
	}
	var putErr cbigquery.PutMultiError
	if errors.As(err, &putErr) {
		errs := make([]error, 0, len(putErr))
		for _, rowErr := range putErr {
			errs = append(errs, rowErr.Errors)
		}
		return allRetryable(errs)
	}
	var rowErr *cbigquery.RowInsertionError
	if errors.As(err, &rowErr) {
		return allRetryable(rowErr.Errors)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests, http.StatusRequestTimeout,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var grpcErr interface{ GRPCStatus() *status.Status }
	if errors.As(err, &grpcErr) && grpcErr.GRPCStatus() != nil {
		switch grpcErr.GRPCStatus().Code() {
		case codes.Aborted, codes.DeadlineExceeded, codes.Internal,
			codes.ResourceExhausted, codes.Unavailable:
			return true
		}
	}
	return false
}

func allRetryable[E ~[]error](errs E) bool {
	if len(errs) == 0 {
		return false
	}
	for _, err := range errs {
		if !isRetryableBigQueryError(err) {
			return false
		}
	}
	return true
}
