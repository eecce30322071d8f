package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sdfoods/restaurant-backend/pkg/enums"
)

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name string
		role string
		want int
	}{
		{"allowed role", string(enums.UserRoleChef), http.StatusOK},
		{"admin bypasses", string(enums.UserRoleAdmin), http.StatusOK},
		{"other role", string(enums.UserRoleCustomer), http.StatusForbidden},
		{"no role", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireRole(nil, enums.UserRoleChef)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithRole(req.Context(), tt.role))
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			if resp.Code != tt.want {
				t.Fatalf("expected %d got %d", tt.want, resp.Code)
			}
		})
	}
}

func TestRequireStaffAdmitsManagers(t *testing.T) {
	handler := RequireStaff(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithRole(req.Context(), string(enums.UserRoleCustomer)))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithRole(req.Context(), string(enums.UserRoleManager)))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
