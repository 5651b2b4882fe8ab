package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

type stubBackups bool

func (b stubBackups) InProgress() bool { return bool(b) }

type stubRunner bool

func (r stubRunner) Running() bool { return bool(r) }

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	timeout := fmt.Errorf("ping: %w", context.DeadlineExceeded)
	tests := []struct {
		name      string
		db        Pinger
		running   bool
		backups   BackupStatus
		wantCode  int
		wantState healthResponse
	}{
		{"healthy", stubPinger{}, true, nil, http.StatusOK, healthResponse{"ok", "ok", "running"}},
		{"db down", stubPinger{err: errors.New("closed")}, true, nil, http.StatusServiceUnavailable, healthResponse{"degraded", "unreachable", "running"}},
		{"scheduler stopped", stubPinger{}, false, nil, http.StatusServiceUnavailable, healthResponse{"degraded", "ok", "stopped"}},
		{"ping timeout during backup", stubPinger{err: timeout}, true, stubBackups(true), http.StatusOK, healthResponse{"ok", "busy", "running"}},
		{"ping timeout without backup", stubPinger{err: timeout}, true, stubBackups(false), http.StatusServiceUnavailable, healthResponse{"degraded", "unreachable", "running"}},
		{"db down during backup", stubPinger{err: errors.New("closed")}, true, stubBackups(true), http.StatusServiceUnavailable, healthResponse{"degraded", "unreachable", "running"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := New(":0", tt.db, stubRunner(tt.running), testLogger())
			if tt.backups != nil {
				s.WithBackups(tt.backups)
			}
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rr := httptest.NewRecorder()
			s.routes().ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			var got healthResponse
			if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.wantState {
				t.Errorf("body = %+v, want %+v", got, tt.wantState)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	s := New(":0", stubPinger{}, stubRunner(true), testLogger())
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	s.routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Error("metrics output should include the default go collectors")
	}
}
