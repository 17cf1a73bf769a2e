package telemetry

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics()

	m.RecordUpdate("photo")
	m.RecordUpdate("photo")
	m.RecordTransform("Blur", nil, 20*time.Millisecond)
	m.RecordTransform("Blur", errors.New("boom"), time.Millisecond)
	m.RecordError("download")

	if got := testutil.ToFloat64(m.updates.WithLabelValues("photo")); got != 2 {
		t.Errorf("updates{photo} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.transforms.WithLabelValues("Blur", "ok")); got != 1 {
		t.Errorf("transforms{Blur,ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.transforms.WithLabelValues("Blur", "error")); got != 1 {
		t.Errorf("transforms{Blur,error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.errors.WithLabelValues("download")); got != 1 {
		t.Errorf("errors{download} = %v, want 1", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordUpdate("text")
	m.RecordTransform("Rotate", nil, time.Second)
	m.RecordError("upload")
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RecordUpdate("photo")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `polybot_updates_total{kind="photo"} 1`) {
		t.Errorf("metrics output missing update counter:\n%s", body)
	}
}

func TestSetupTracing_Disabled(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), TracingConfig{})
	if err != nil {
		t.Fatalf("SetupTracing() error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error: %v", err)
	}
}
