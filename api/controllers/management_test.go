package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/sdfoods/restaurant-backend/internal/management"
	"github.com/sdfoods/restaurant-backend/internal/users"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
)

type testManagementService struct {
	management.Service
	fireFn func(ctx context.Context, managerID, employeeID uuid.UUID) (*users.UserDTO, error)
}

func (s *testManagementService) Fire(ctx context.Context, managerID, employeeID uuid.UUID) (*users.UserDTO, error) {
	return s.fireFn(ctx, managerID, employeeID)
}

func TestFireEmployeePassesManagerAndTarget(t *testing.T) {
	managerID := uuid.New()
	employeeID := uuid.New()
	var gotManager, gotEmployee uuid.UUID
	svc := &testManagementService{
		fireFn: func(ctx context.Context, mgr, emp uuid.UUID) (*users.UserDTO, error) {
			gotManager, gotEmployee = mgr, emp
			return &users.UserDTO{ID: emp}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/manager/employees/"+employeeID.String()+"/fire", nil)
	req = asUser(req, managerID, enums.UserRoleManager)
	req = addRouteParam(req, "employeeId", employeeID.String())
	resp := httptest.NewRecorder()
	FireEmployee(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if gotManager != managerID || gotEmployee != employeeID {
		t.Fatalf("unexpected ids manager=%s employee=%s", gotManager, gotEmployee)
	}
}

func TestFireEmployeeRejectsBadID(t *testing.T) {
	svc := &testManagementService{
		fireFn: func(ctx context.Context, mgr, emp uuid.UUID) (*users.UserDTO, error) {
			t.Fatalf("fire should not be called")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/manager/employees/x/fire", nil)
	req = asUser(req, uuid.New(), enums.UserRoleManager)
	req = addRouteParam(req, "employeeId", "x")
	resp := httptest.NewRecorder()
	FireEmployee(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestFireEmployeeMapsStateConflict(t *testing.T) {
	svc := &testManagementService{
		fireFn: func(ctx context.Context, mgr, emp uuid.UUID) (*users.UserDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "employee already inactive")
		},
	}

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodPost, "/api/manager/employees/"+id+"/fire", nil)
	req = asUser(req, uuid.New(), enums.UserRoleManager)
	req = addRouteParam(req, "employeeId", id)
	resp := httptest.NewRecorder()
	FireEmployee(svc, testLogger())(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if code := errorCode(t, resp.Body.Bytes()); code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("expected STATE_CONFLICT got %s", code)
	}
}
