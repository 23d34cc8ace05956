package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewManager_RegistersCollectors(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()

	m.CounterFrames.WithLabelValues("squat").Add(3)
	m.CounterReps.WithLabelValues("squat").Inc()
	m.HistFormScore.WithLabelValues("squat").Observe(87)
	m.GaugeSessions.Set(2)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	got := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				got[mf.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				got[mf.GetName()] = metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				got[mf.GetName()] = float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}

	want := map[string]float64{
		"repsense_test_frames":          3,
		"repsense_test_reps":            1,
		"repsense_test_form_score":      1,
		"repsense_test_active_sessions": 2,
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("%s = %v, want %v", name, got[name], v)
		}
	}
}

func TestNewManager_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewManager("repsense", "dup", reg)

	defer func() {
		if recover() == nil {
			t.Error("expected second registration on the same registry to panic")
		}
	}()
	NewManager("repsense", "dup", reg)
}
