package promhooks

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return metric.GetCounter().GetValue()
}

func TestLayoutHooks(t *testing.T) {
	h := New(prometheus.NewRegistry())

	h.OnLayoutStart("force", 12)
	h.OnLayoutComplete("force", 20*time.Millisecond, nil)
	h.OnLayoutComplete("force", time.Millisecond, errors.New("boom"))
	h.OnIteration("force", 1)
	h.OnIteration("force", 2)
	h.OnNonConvergence("spacetree", "fit")

	tests := []struct {
		name string
		c    prometheus.Counter
		want float64
	}{
		{"ok passes", h.LayoutPasses.WithLabelValues("force", "ok"), 1},
		{"failed passes", h.LayoutPasses.WithLabelValues("force", "error"), 1},
		{"iterations", h.Iterations.WithLabelValues("force"), 2},
		{"non-convergence", h.NonConvergence.WithLabelValues("spacetree"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := counterValue(t, tt.c); got != tt.want {
				t.Errorf("value = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDocumentHooks(t *testing.T) {
	h := New(prometheus.NewRegistry())

	h.OnDocumentRead("json", 3, 2, time.Millisecond, nil)
	h.OnDocumentWrite("yaml", time.Millisecond, errors.New("disk full"))

	if got := counterValue(t, h.Documents.WithLabelValues("read", "json", "ok")); got != 1 {
		t.Errorf("reads = %v, want 1", got)
	}
	if got := counterValue(t, h.Documents.WithLabelValues("write", "yaml", "error")); got != 1 {
		t.Errorf("failed writes = %v, want 1", got)
	}
}

func TestWriteToTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := New(reg)
	h.OnLayoutComplete("grid", time.Millisecond, nil)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		t.Fatalf("WriteToTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `stacklayout_layout_passes_total{algorithm="grid",result="ok"} 1`) {
		t.Errorf("metrics file missing pass counter:\n%s", data)
	}
}
