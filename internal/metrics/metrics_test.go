package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCacheLookup(t *testing.T) {
	tests := []struct {
		name   string
		hit    bool
		err    error
		result string
	}{
		{"hit", true, nil, "hit"},
		{"miss", false, nil, "miss"},
		{"error wins over hit", true, errors.New("connection refused"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := CacheLookups.WithLabelValues("test-"+tt.name, tt.result)
			before := testutil.ToFloat64(counter)
			RecordCacheLookup("test-"+tt.name, tt.hit, tt.err)
			if got := testutil.ToFloat64(counter); got != before+1 {
				t.Errorf("expected counter %v, got %v", before+1, got)
			}
		})
	}
}

func TestRecordProviderCall(t *testing.T) {
	counter := ProviderRequests.WithLabelValues("test-provider", "search", OutcomeBadStatus)
	before := testutil.ToFloat64(counter)

	RecordProviderCall("test-provider", "search", OutcomeBadStatus, 20*time.Millisecond)
	RecordProviderCall("test-provider", "search", OutcomeBadStatus, 0)

	if got := testutil.ToFloat64(counter); got != before+2 {
		t.Errorf("expected counter %v, got %v", before+2, got)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	counter := APIRequestsTotal.WithLabelValues("GET", "/test", "404")
	before := testutil.ToFloat64(counter)

	RecordAPIRequest("GET", "/test", 404, time.Millisecond)

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("expected counter %v, got %v", before+1, got)
	}
}
