package evaluation

// Kind discriminates metric reports
type Kind string

const (
	KindRegression     Kind = "regression"
	KindClassification Kind = "classification"
)

// Report is a tagged union over metric families. Switch on the concrete type:
//
//	switch r := report.(type) {
//	case RegressionMetrics:
//	case ClassificationMetrics:
//	}
type Report interface {
	Kind() Kind
	isReport()
}

// RegressionMetrics holds standard error metrics for continuous predictions
type RegressionMetrics struct {
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	R2   float64 `json:"r2"`
	MAPE float64 `json:"mape"` // percent, zero actuals skipped
}

func (RegressionMetrics) Kind() Kind { return KindRegression }
func (RegressionMetrics) isReport()  {}

// ClassificationMetrics holds macro-averaged class metrics. ConfusionMatrix[actual][predicted].
type ClassificationMetrics struct {
	Accuracy        float64 `json:"accuracy"`
	Precision       float64 `json:"precision"`
	Recall          float64 `json:"recall"`
	F1              float64 `json:"f1"`
	ConfusionMatrix [][]int `json:"confusionMatrix"`
}

func (ClassificationMetrics) Kind() Kind { return KindClassification }
func (ClassificationMetrics) isReport()  {}

// CrossValidationResult is the per-fold and averaged outcome of k-fold validation
type CrossValidationResult struct {
	Folds []Report `json:"folds"`
	Mean  Report   `json:"mean"`
	K     int      `json:"k"`
}

// Interval is a two-sided confidence interval around a mean
type Interval struct {
	Mean   float64 `json:"mean"`
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
	Margin float64 `json:"margin"`
	Level  float64 `json:"level"`
}
