package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveQuality(t *testing.T) {
	ObserveQuality(Quality{MAE: 120, RMSE: 150, R2: 0.8, BaselineRMSE: 400})

	assert.Equal(t, 120.0, testutil.ToFloat64(ModelQuality.WithLabelValues("mae")))
	assert.Equal(t, 150.0, testutil.ToFloat64(ModelQuality.WithLabelValues("rmse")))
	assert.Equal(t, 0.8, testutil.ToFloat64(ModelQuality.WithLabelValues("r2")))
	assert.Equal(t, 400.0, testutil.ToFloat64(ModelQuality.WithLabelValues("baseline_rmse")))
}

func TestPredictionsCounter(t *testing.T) {
	before := testutil.ToFloat64(PredictionsTotal.WithLabelValues("ok"))
	PredictionsTotal.WithLabelValues("ok").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(PredictionsTotal.WithLabelValues("ok")))
}
