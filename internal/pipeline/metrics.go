package pipeline

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Metrics is the held-out evaluation of a fitted pipeline
type Metrics struct {
	MAE          float64 `json:"mae"`
	RMSE         float64 `json:"rmse"`
	R2           float64 `json:"r2"`
	BaselineRMSE float64 `json:"baseline_rmse"` // predicting the training mean
	TrainRows    int     `json:"train_rows"`
	TestRows     int     `json:"test_rows"`
}

// MAE is the mean absolute error
func MAE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	return floats.Distance(yTrue, yPred, 1) / float64(len(yTrue))
}

// RMSE is the root mean squared error
func RMSE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	d := floats.Distance(yTrue, yPred, 2)
	return d / math.Sqrt(float64(len(yTrue)))
}

// R2 is the coefficient of determination; 0 when yTrue is constant
func R2(yTrue, yPred []float64) float64 {
	if len(yTrue) < 2 || stat.Variance(yTrue, nil) == 0 {
		return 0
	}
	return stat.RSquaredFrom(yPred, yTrue, nil)
}

// BaselineRMSE is the RMSE of always predicting the mean of yTrain
func BaselineRMSE(yTrain, yTest []float64) float64 {
	if len(yTrain) == 0 {
		return 0
	}
	mean := stat.Mean(yTrain, nil)
	pred := make([]float64, len(yTest))
	for i := range pred {
		pred[i] = mean
	}
	return RMSE(yTest, pred)
}

// Evaluate computes every metric for a test split
func Evaluate(yTrain, yTest, yPred []float64) Metrics {
	return Metrics{
		MAE:          MAE(yTest, yPred),
		RMSE:         RMSE(yTest, yPred),
		R2:           R2(yTest, yPred),
		BaselineRMSE: BaselineRMSE(yTrain, yTest),
		TrainRows:    len(yTrain),
		TestRows:     len(yTest),
	}
}
