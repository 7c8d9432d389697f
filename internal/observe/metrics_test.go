package observe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestRecordResolution(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordResolution(ctx, "skill", 0.01)
	m.RecordResolution(ctx, "skill", 0.02)
	m.RecordResolution(ctx, "fallback", 0.01)

	rm := collect(t, reader)
	got := findMetric(rm, "assistant.resolutions")
	require.NotNil(t, got)

	sum, ok := got.Data.(metricdata.Sum[int64])
	require.True(t, ok, "unexpected data type %T", got.Data)

	byStage := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("stage"))
		byStage[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"skill": 2, "fallback": 1}, byStage)

	hist := findMetric(rm, "assistant.resolve.duration")
	require.NotNil(t, hist)
	_, ok = hist.Data.(metricdata.Histogram[float64])
	assert.True(t, ok)
}

func TestRecordSkillFailure(t *testing.T) {
	m, reader := newTestMetrics(t)
	m.RecordSkillFailure(context.Background(), "weather")

	got := findMetric(collect(t, reader), "assistant.skill.failures")
	require.NotNil(t, got)
	sum := got.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.EqualValues(t, 1, sum.DataPoints[0].Value)
}

func TestNopRecordsNothing(t *testing.T) {
	m := Nop()
	require.NotNil(t, m)
	m.RecordResolution(context.Background(), "skill", 1)
	m.RecordSkillFailure(context.Background(), "x")
}

func TestHandlerServesMetrics(t *testing.T) {
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
