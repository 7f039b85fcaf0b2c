package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordTransition(t *testing.T) {
	before := testutil.ToFloat64(transferTransitions.WithLabelValues("ops", "Ops Approved"))
	RecordTransition("ops", "Ops Approved")
	after := testutil.ToFloat64(transferTransitions.WithLabelValues("ops", "Ops Approved"))
	if after != before+1 {
		t.Errorf("expected counter to grow by 1, got %v -> %v", before, after)
	}
}

func TestTrackInFlight(t *testing.T) {
	before := testutil.ToFloat64(httpInFlight)
	done := TrackInFlight()
	if got := testutil.ToFloat64(httpInFlight); got != before+1 {
		t.Errorf("expected in-flight %v, got %v", before+1, got)
	}
	done()
	if got := testutil.ToFloat64(httpInFlight); got != before {
		t.Errorf("expected in-flight %v after done, got %v", before, got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordCommit(true, 3*time.Millisecond)
	RecordNotificationFailure("transfer_submitted")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{
		"rigasset_transfers_commit_duration_seconds",
		"rigasset_notifications_failures_total",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("expected %s in exposition", name)
		}
	}
}
