package middleware

import (
	"net/http"
	"testing"
)

func TestIdempotentRoute(t *testing.T) {
	testCases := []struct {
		name   string
		method string
		path   string
		want   bool
	}{
		{"create reservation", http.MethodPost, "/v1/reservations", true},
		{"end reservation", http.MethodPost, "/v1/reservations/res-1/end", true},
		{"cancel reservation", http.MethodPost, "/v1/reservations/res-1/cancel", true},
		{"create station", http.MethodPost, "/v1/stations", true},
		{"dock bike", http.MethodPost, "/v1/bikes", true},
		{"update battery", http.MethodPatch, "/v1/bikes/bike-1/battery", true},
		{"read history", http.MethodGet, "/v1/reservations/history", false},
		{"read station", http.MethodGet, "/v1/stations/st-1", false},
		{"delete is not replayed", http.MethodDelete, "/v1/reservations/res-1", false},
		{"health check", http.MethodPost, "/health", false},
		{"prefix must match a whole segment", http.MethodPost, "/v1/reservationsaudit", false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := idempotentRoute(tc.method, tc.path); got != tc.want {
				t.Errorf("idempotentRoute(%s, %s) = %v, want %v", tc.method, tc.path, got, tc.want)
			}
		})
	}
}
