package slotapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arvanehlab/ravan_backend/config"
	"github.com/arvanehlab/ravan_backend/internal/provider"
	"github.com/arvanehlab/ravan_backend/pkg/reqctx"
)

func newTestClient(url string) *Client {
	return New(config.ProviderEndpointConfig{BaseURL: url, TimeoutSeconds: 5})
}

func TestListOpenSlots(t *testing.T) {
	var gotFrom, gotTo, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/slots" {
			t.Errorf("path = %s, want /slots", r.URL.Path)
		}
		gotFrom = r.URL.Query().Get("from")
		gotTo = r.URL.Query().Get("to")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"slots":[
			{"id":"s1","startTime":"2026-09-02T09:00:00Z","durationMinutes":50},
			{"id":"s2","startTime":"2026-09-03T10:00:00Z","durationMinutes":50}
		]}`))
	}))
	defer srv.Close()

	ctx := reqctx.WithCredential(context.Background(), reqctx.Credential{Token: "tok-1", PersonID: "p1"})
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	slots, err := newTestClient(srv.URL).ListOpenSlots(ctx, from, to)
	if err != nil {
		t.Fatalf("ListOpenSlots: %v", err)
	}
	if len(slots) != 2 || slots[0].ID != "s1" || slots[1].DurationMinutes != 50 {
		t.Fatalf("slots = %+v", slots)
	}
	if gotFrom != "2026-09-01T00:00:00Z" || gotTo != "2026-09-08T00:00:00Z" {
		t.Fatalf("window sent as [%s, %s]", gotFrom, gotTo)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("Authorization = %q, want forwarded bearer", gotAuth)
	}
}

func TestReserve(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		check   func(t *testing.T, err error)
	}{
		{
			name:   "won the slot",
			status: http.StatusNoContent,
			check: func(t *testing.T, err error) {
				if err != nil {
					t.Fatalf("Reserve: %v", err)
				}
			},
		},
		{
			name:   "lost the race",
			status: http.StatusConflict,
			body:   `{"message":"slot already booked"}`,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, provider.ErrConflict) {
					t.Fatalf("Reserve: got %v, want ErrConflict", err)
				}
			},
		},
		{
			name:   "backend failure",
			status: http.StatusInternalServerError,
			body:   `{"message":"scheduling outage"}`,
			check: func(t *testing.T, err error) {
				var srvErr *provider.ServerError
				if !errors.As(err, &srvErr) {
					t.Fatalf("Reserve: got %v, want ServerError", err)
				}
				if srvErr.Status != http.StatusInternalServerError || srvErr.Message != "scheduling outage" {
					t.Fatalf("ServerError = %+v", srvErr)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/slots/s1/book" {
					t.Errorf("%s %s, want POST /slots/s1/book", r.Method, r.URL.Path)
				}
				w.WriteHeader(tt.status)
				if tt.body != "" {
					_, _ = w.Write([]byte(tt.body))
				}
			}))
			defer srv.Close()

			tt.check(t, newTestClient(srv.URL).Reserve(context.Background(), "s1"))
		})
	}
}

func TestReserveUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	err := newTestClient(srv.URL).Reserve(context.Background(), "s1")
	var netErr *provider.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Reserve: got %v, want NetworkError", err)
	}
}
