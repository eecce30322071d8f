package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sdfoods/restaurant-backend/internal/bids"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
)

type testBidsService struct {
	placeFn   func(ctx context.Context, input bids.PlaceBidInput) (*models.DeliveryBid, error)
	approveFn func(ctx context.Context, input bids.ApproveInput) (*models.DeliveryBid, error)
}

func (s *testBidsService) PlaceBid(ctx context.Context, input bids.PlaceBidInput) (*models.DeliveryBid, error) {
	return s.placeFn(ctx, input)
}

func (s *testBidsService) ListAvailableOrders(ctx context.Context) ([]bids.AvailableOrder, error) {
	return []bids.AvailableOrder{}, nil
}

func (s *testBidsService) ListPendingBids(ctx context.Context) ([]models.DeliveryBid, error) {
	return nil, nil
}

func (s *testBidsService) ApproveBid(ctx context.Context, input bids.ApproveInput) (*models.DeliveryBid, error) {
	return s.approveFn(ctx, input)
}

func (s *testBidsService) RejectBid(ctx context.Context, bidID, managerID uuid.UUID) (*models.DeliveryBid, error) {
	return &models.DeliveryBid{ID: bidID, Status: enums.BidStatusRejected}, nil
}

func (s *testBidsService) ExpireOrphaned(ctx context.Context, olderThan time.Duration) (int64, error) {
	return 0, nil
}

func TestPlaceBidUsesCallerAsDriver(t *testing.T) {
	driverID := uuid.New()
	orderID := uuid.New()
	var got bids.PlaceBidInput
	svc := &testBidsService{
		placeFn: func(ctx context.Context, input bids.PlaceBidInput) (*models.DeliveryBid, error) {
			got = input
			return &models.DeliveryBid{ID: uuid.New(), OrderID: input.OrderID, DriverID: input.DriverID, Amount: input.Amount}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/delivery/orders/"+orderID.String()+"/bid", strings.NewReader(`{"bidAmount":"4.75"}`))
	req = asUser(req, driverID, enums.UserRoleDriver)
	req = addRouteParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	PlaceBid(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if got.DriverID != driverID || got.OrderID != orderID || !got.Amount.Equal(decimal.RequireFromString("4.75")) {
		t.Fatalf("unexpected input %+v", got)
	}
}

func TestApproveBidJustificationRequiredDetails(t *testing.T) {
	svc := &testBidsService{
		approveFn: func(ctx context.Context, input bids.ApproveInput) (*models.DeliveryBid, error) {
			if input.Justification != "" {
				t.Fatalf("expected empty justification got %q", input.Justification)
			}
			return nil, pkgerrors.New(pkgerrors.CodeJustificationRequired, "justification required").
				WithDetails(map[string]any{"lowest": "3.00", "selected": "5.00"})
		},
	}

	bidID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/manager/bids/"+bidID.String()+"/approve", nil)
	req = asUser(req, uuid.New(), enums.UserRoleManager)
	req = addRouteParam(req, "bidId", bidID.String())
	resp := httptest.NewRecorder()
	ApproveBid(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if code := errorCode(t, resp.Body.Bytes()); code != string(pkgerrors.CodeJustificationRequired) {
		t.Fatalf("unexpected code %s", code)
	}
	if !strings.Contains(resp.Body.String(), `"lowest":"3.00"`) {
		t.Fatalf("expected details in body: %s", resp.Body.String())
	}
}

func TestApproveBidPassesJustification(t *testing.T) {
	managerID := uuid.New()
	var got bids.ApproveInput
	svc := &testBidsService{
		approveFn: func(ctx context.Context, input bids.ApproveInput) (*models.DeliveryBid, error) {
			got = input
			return &models.DeliveryBid{ID: input.BidID, Status: enums.BidStatusApproved}, nil
		},
	}

	bidID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/manager/bids/"+bidID.String()+"/approve", strings.NewReader(`{"justification":"  faster driver  "}`))
	req = asUser(req, managerID, enums.UserRoleManager)
	req = addRouteParam(req, "bidId", bidID.String())
	resp := httptest.NewRecorder()
	ApproveBid(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got.ManagerID != managerID || got.BidID != bidID || got.Justification != "faster driver" {
		t.Fatalf("unexpected input %+v", got)
	}
}
