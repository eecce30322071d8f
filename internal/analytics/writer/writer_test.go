package writer

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sdfoods/restaurant-backend/internal/analytics/types"
)

func TestNewWriterValidation(t *testing.T) {
	if _, err := New(nil, Config{OrderEventsTable: "order_events"}); err == nil {
		t.Fatal("expected error when client missing")
	}
	if _, err := New(&fakeInserter{}, Config{OrderEventsTable: " "}); err == nil {
		t.Fatal("expected error when table missing")
	}
}

func TestWriterRetriesOnTransientError(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	fake.responses = []error{
		&googleapi.Error{Code: http.StatusServiceUnavailable},
		nil,
	}

	if err := writer.InsertOrderEvent(context.Background(), types.OrderEventRow{EventID: "1"}); err != nil {
		t.Fatalf("unexpected error writing row: %v", err)
	}
	if len(fake.calls) != 2 {
		t.Fatalf("expected two insert attempts, got %d", len(fake.calls))
	}
	if fake.calls[1].table != "order_events" {
		t.Fatalf("expected order_events table on retry, got %s", fake.calls[1].table)
	}
	saver, ok := fake.calls[1].rows[0].(cbigquery.ValueSaver)
	if !ok {
		t.Fatalf("expected row to implement ValueSaver, got %T", fake.calls[1].rows[0])
	}
	if _, insertID, _ := saver.Save(); insertID != "1" {
		t.Fatalf("expected event id as insert id, got %q", insertID)
	}
}

func TestWriterStopsOnPermanentError(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	fake.responses = []error{&googleapi.Error{Code: http.StatusBadRequest}}

	if err := writer.InsertOrderEvent(context.Background(), types.OrderEventRow{EventID: "1"}); err == nil {
		t.Fatal("expected error")
	}
	if len(fake.calls) != 1 {
		t.Fatalf("expected single attempt, got %d", len(fake.calls))
	}
}

func TestWriterGivesUpAfterMaxAttempts(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	unavailable := status.Error(codes.Unavailable, "try later")
	fake.responses = []error{unavailable, unavailable, unavailable, nil}

	if err := writer.InsertOrderEvent(context.Background(), types.OrderEventRow{EventID: "1"}); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if len(fake.calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(fake.calls))
	}
}

func TestWriterStopsWhenContextCancelled(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	writer.retry.InitialBackoff = time.Hour
	writer.retry.MaximumBackoff = time.Hour
	fake.responses = []error{&googleapi.Error{Code: http.StatusServiceUnavailable}, nil}

	ctx, cancel := context.WithCancel(context.Background())
	fake.afterCall = cancel

	err := writer.InsertOrderEvent(ctx, types.OrderEventRow{EventID: "1"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(fake.calls) != 1 {
		t.Fatalf("expected single attempt, got %d", len(fake.calls))
	}
}

func TestIsRetryableBigQueryError(t *testing.T) {
	if isRetryableBigQueryError(errors.New("plain")) {
		t.Fatal("plain errors should not retry")
	}
	if !isRetryableBigQueryError(&googleapi.Error{Code: http.StatusTooManyRequests}) {
		t.Fatal("429 should retry")
	}
	transient := cbigquery.PutMultiError{
		{InsertID: "a", Errors: cbigquery.MultiError{status.Error(codes.Unavailable, "later")}},
	}
	if !isRetryableBigQueryError(transient) {
		t.Fatal("all-transient row errors should retry")
	}
	mixed := cbigquery.PutMultiError{
		{InsertID: "a", Errors: cbigquery.MultiError{status.Error(codes.Unavailable, "later")}},
		{InsertID: "b", Errors: cbigquery.MultiError{&googleapi.Error{Code: http.StatusBadRequest}}},
	}
	if isRetryableBigQueryError(mixed) {
		t.Fatal("a permanent row error makes the insert permanent")
	}
	if isRetryableBigQueryError(cbigquery.PutMultiError{}) {
		t.Fatal("empty row errors should not retry")
	}
}

type insertCall struct {
	table string
	rows  []any
}

type fakeInserter struct {
	responses []error
	calls     []insertCall
	index     int
	afterCall func()
}

func (f *fakeInserter) InsertRows(_ context.Context, table string, rows []any) error {
	f.calls = append(f.calls, insertCall{table: table, rows: rows})
	var err error
	if f.index < len(f.responses) {
		err = f.responses[f.index]
	}
	f.index++
	if f.afterCall != nil {
		f.afterCall()
	}
	return err
}

func newWriterWithFakeInserter(t *testing.T) (*BigQueryWriter, *fakeInserter) {
	t.Helper()
	fake := &fakeInserter{}
	writer, err := New(fake, Config{
		OrderEventsTable: "order_events",
		RetryPolicy:      RetryPolicy{InitialBackoff: time.Millisecond, MaximumBackoff: 2 * time.Millisecond},
	})
	if err != nil {
		t.Fatalf("construct writer: %v", err)
	}
	return writer, fake
}
