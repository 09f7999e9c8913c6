package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"crimecast/internal/config"
	apperrors "crimecast/internal/errors"
	"crimecast/pkg/contracts/domain"
)

const (
	yearlyPeriodDays = 365.25
	trendPriorScale  = 5.0
	sigmaIterations  = 10
	minSigma2        = 1e-4
)

// Model is a fitted model as returned by Forecaster.Fit
type Model interface {
	// History returns the series the model was fitted to
	History() domain.TimeSeries
}

// Forecaster fits a model to a series and predicts from it
type Forecaster interface {
	Fit(ctx context.Context, ts domain.TimeSeries) (Model, error)
	Predict(ctx context.Context, m Model, horizon int) (domain.ForecastResult, error)
}

// Params configures the additive model
type Params struct {
	IntervalWidth         float64
	YearlyFourierOrder    int
	ChangepointRange      float64
	MaxChangepoints       int
	ChangepointPriorScale float64
	SeasonalityPriorScale float64
}

// DefaultParams returns the standard model configuration: 80% intervals,
// yearly order 10, up to 25 changepoints in the first 80% of the history.
func DefaultParams() Params {
	return Params{
		IntervalWidth:         config.DefaultIntervalWidth,
		YearlyFourierOrder:    config.DefaultYearlyFourierOrder,
		ChangepointRange:      config.DefaultChangepointRange,
		MaxChangepoints:       config.DefaultMaxChangepoints,
		ChangepointPriorScale: config.DefaultChangepointPriorScale,
		SeasonalityPriorScale: config.DefaultSeasonalityPriorScale,
	}
}

// ParamsFromConfig maps the forecast configuration onto model parameters
func ParamsFromConfig(cfg config.ForecastConfig) Params {
	return Params{
		IntervalWidth:         cfg.IntervalWidth,
		YearlyFourierOrder:    cfg.YearlyFourierOrder,
		ChangepointRange:      cfg.ChangepointRange,
		MaxChangepoints:       cfg.MaxChangepoints,
		ChangepointPriorScale: cfg.ChangepointPriorScale,
		SeasonalityPriorScale: cfg.SeasonalityPriorScale,
	}
}

// AdditiveModel is the piecewise-linear trend + yearly Fourier Forecaster
type AdditiveModel struct {
	params Params
	z      float64
}

// NewAdditiveModel creates the model. Invalid interval widths fall back to
// the default.
func NewAdditiveModel(params Params) *AdditiveModel {
	if params.IntervalWidth <= 0 || params.IntervalWidth >= 1 {
		params.IntervalWidth = config.DefaultIntervalWidth
	}
	return &AdditiveModel{
		params: params,
		z:      distuv.UnitNormal.Quantile((1 + params.IntervalWidth) / 2),
	}
}

// fittedModel holds the MAP coefficients of one fit, in scaled units
type fittedModel struct {
	history      domain.TimeSeries
	start        time.Time
	span         time.Duration
	yScale       float64
	changepoints []float64
	order        int
	beta         []float64
	sigma2       float64
	meanAbsDelta float64
}

func (f *fittedModel) History() domain.TimeSeries {
	return f.history
}

// Fit estimates the model coefficients. Degenerate input (fewer than two
// points, non-finite, all-zero or constant values) and numerical failures
// are reported as MODEL_FIT errors.
func (a *AdditiveModel) Fit(ctx context.Context, ts domain.TimeSeries) (Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkFittable(ts); err != nil {
		return nil, err
	}

	values := ts.Values()
	n := len(values)

	fm := &fittedModel{
		history: ts,
		start:   ts.Points[0].Timestamp,
		span:    ts.Points[n-1].Timestamp.Sub(ts.Points[0].Timestamp),
		yScale:  math.Max(floats.Max(values), -floats.Min(values)),
		order:   a.params.YearlyFourierOrder,
	}

	t := make([]float64, n)
	for i, p := range ts.Points {
		t[i] = fm.scaledTime(p.Timestamp)
	}
	fm.changepoints = placeChangepoints(t, a.params.ChangepointRange, a.params.MaxChangepoints)

	y := mat.NewVecDense(n, nil)
	for i, v := range values {
		y.SetVec(i, v/fm.yScale)
	}

	X := mat.NewDense(n, fm.numFeatures(), nil)
	for i, p := range ts.Points {
		X.SetRow(i, fm.features(t[i], p.Timestamp))
	}

	scales := fm.priorScales(a.params)
	sigma2 := initialSigma2(y)
	var beta *mat.VecDense
	for iter := 0; iter < sigmaIterations; iter++ {
		b, err := solveRidge(X, y, scales, sigma2)
		if err != nil {
			return nil, apperrors.NewModelFitError("failed to solve model coefficients", err).
				WithContext("series", ts.Name)
		}
		beta = b

		var resid mat.VecDense
		resid.MulVec(X, beta)
		resid.SubVec(y, &resid)
		sigma2 = math.Max(mat.Dot(&resid, &resid)/float64(n), minSigma2)
	}

	fm.beta = mat.Col(nil, 0, beta)
	fm.sigma2 = sigma2

	if nd := len(fm.changepoints); nd > 0 {
		var sum float64
		for _, d := range fm.beta[2 : 2+nd] {
			sum += math.Abs(d)
		}
		fm.meanAbsDelta = sum / float64(nd)
	}

	for _, b := range fm.beta {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return nil, apperrors.NewModelFitError("model coefficients are not finite", nil).
				WithContext("series", ts.Name)
		}
	}

	return fm, nil
}

// Predict evaluates the fitted model on the history and on horizon future
// years, each stamped one year after the previous one.
func (a *AdditiveModel) Predict(ctx context.Context, m Model, horizon int) (domain.ForecastResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.ForecastResult{}, err
	}
	fm, ok := m.(*fittedModel)
	if !ok {
		return domain.ForecastResult{}, fmt.Errorf("additive model cannot predict from %T", m)
	}
	if horizon < 0 {
		return domain.ForecastResult{}, fmt.Errorf("negative horizon %d", horizon)
	}

	hist := fm.history.Points
	last := hist[len(hist)-1].Timestamp

	stamps := make([]time.Time, 0, len(hist)+horizon)
	for _, p := range hist {
		stamps = append(stamps, p.Timestamp)
	}
	for h := 1; h <= horizon; h++ {
		stamps = append(stamps, last.AddDate(h, 0, 0))
	}

	nCP := len(fm.changepoints)
	points := make([]domain.ForecastPoint, len(stamps))
	for i, ts := range stamps {
		t := fm.scaledTime(ts)
		trend, yearly := fm.components(t, ts)

		variance := fm.sigma2
		if t > 1 && nCP > 0 {
			dt := t - 1
			variance += 2 * float64(nCP) * fm.meanAbsDelta * fm.meanAbsDelta * dt * dt * dt / 3
		}
		half := a.z * math.Sqrt(variance) * fm.yScale

		pred := (trend + yearly) * fm.yScale
		points[i] = domain.ForecastPoint{
			Timestamp:  ts,
			Predicted:  pred,
			Lower:      pred - half,
			Upper:      pred + half,
			Trend:      trend * fm.yScale,
			Yearly:     yearly * fm.yScale,
			Historical: i < len(hist),
		}
		if !isFinite(pred) || !isFinite(half) {
			return domain.ForecastResult{}, apperrors.NewModelFitError("prediction is not finite", nil).
				WithContext("timestamp", ts)
		}
	}

	return domain.ForecastResult{
		Horizon:       horizon,
		HistoryLen:    len(hist),
		IntervalWidth: a.params.IntervalWidth,
		Points:        points,
	}, nil
}

// checkFittable rejects series the model cannot be fitted to
func checkFittable(ts domain.TimeSeries) error {
	n := ts.Len()
	if n < 2 {
		return apperrors.NewModelFitError(fmt.Sprintf("cannot fit %d points", n), nil)
	}
	for i, p := range ts.Points {
		if !isFinite(p.Value) {
			return apperrors.NewModelFitError("series contains non-finite values", nil).WithContext("index", i)
		}
		if i > 0 && !p.Timestamp.After(ts.Points[i-1].Timestamp) {
			return apperrors.NewModelFitError("timestamps are not strictly increasing", nil).WithContext("index", i)
		}
	}

	values := ts.Values()
	if floats.Max(values) == 0 && floats.Min(values) == 0 {
		return apperrors.NewModelFitError("degenerate series: all values are zero", nil).WithContext("series", ts.Name)
	}
	if floats.Max(values) == floats.Min(values) {
		return apperrors.NewModelFitError("degenerate series: constant values", nil).WithContext("series", ts.Name)
	}
	return nil
}

// placeChangepoints puts up to maxCP changepoints evenly over the first
// cpRange share of the history, on observed time points, excluding the first.
func placeChangepoints(t []float64, cpRange float64, maxCP int) []float64 {
	histSize := int(math.Floor(float64(len(t)) * cpRange))
	nCP := maxCP
	if histSize-1 < nCP {
		nCP = histSize - 1
	}
	if nCP <= 0 {
		return nil
	}

	cps := make([]float64, 0, nCP)
	step := float64(histSize-1) / float64(nCP)
	for i := 1; i <= nCP; i++ {
		idx := int(math.RoundToEven(float64(i) * step))
		cps = append(cps, t[idx])
	}
	return cps
}

// scaledTime maps a timestamp onto the [0, 1] history axis
func (f *fittedModel) scaledTime(ts time.Time) float64 {
	if f.span <= 0 {
		return 0
	}
	return float64(ts.Sub(f.start)) / float64(f.span)
}

// numFeatures is intercept + slope + changepoints + 2*order Fourier terms
func (f *fittedModel) numFeatures() int {
	return 2 + len(f.changepoints) + 2*f.order
}

func (f *fittedModel) features(t float64, ts time.Time) []float64 {
	row := make([]float64, 0, f.numFeatures())
	row = append(row, 1, t)
	for _, s := range f.changepoints {
		row = append(row, math.Max(t-s, 0))
	}
	d := epochDays(ts)
	for k := 1; k <= f.order; k++ {
		x := 2 * math.Pi * float64(k) * d / yearlyPeriodDays
		row = append(row, math.Sin(x), math.Cos(x))
	}
	return row
}

// components returns trend and yearly seasonality in scaled units
func (f *fittedModel) components(t float64, ts time.Time) (trend, yearly float64) {
	row := f.features(t, ts)
	split := 2 + len(f.changepoints)
	trend = floats.Dot(row[:split], f.beta[:split])
	yearly = floats.Dot(row[split:], f.beta[split:])
	return trend, yearly
}

// priorScales returns the prior standard deviation of each coefficient
func (f *fittedModel) priorScales(p Params) []float64 {
	scales := make([]float64, 0, f.numFeatures())
	scales = append(scales, trendPriorScale, trendPriorScale)
	for range f.changepoints {
		scales = append(scales, p.ChangepointPriorScale)
	}
	for i := 0; i < 2*f.order; i++ {
		scales = append(scales, p.SeasonalityPriorScale)
	}
	return scales
}

// solveRidge solves (XᵀX + diag(σ²/s²)) β = Xᵀy by Cholesky factorization.
// An ill-conditioned but solvable system is accepted.
func solveRidge(X *mat.Dense, y *mat.VecDense, scales []float64, sigma2 float64) (*mat.VecDense, error) {
	_, p := X.Dims()

	var A mat.SymDense
	A.SymOuterK(1, X.T())
	for j := 0; j < p; j++ {
		A.SetSym(j, j, A.At(j, j)+sigma2/(scales[j]*scales[j]))
	}

	var rhs mat.VecDense
	rhs.MulVec(X.T(), y)

	var chol mat.Cholesky
	if ok := chol.Factorize(&A); !ok {
		return nil, errors.New("normal equations are not positive definite")
	}

	beta := mat.NewVecDense(p, nil)
	if err := chol.SolveVecTo(beta, &rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, err
		}
	}
	return beta, nil
}

func initialSigma2(y *mat.VecDense) float64 {
	n := y.Len()
	mean := mat.Sum(y) / float64(n)
	var ss float64
	for i := 0; i < n; i++ {
		d := y.AtVec(i) - mean
		ss += d * d
	}
	return math.Max(ss/float64(n), minSigma2)
}

func epochDays(ts time.Time) float64 {
	return float64(ts.Unix()) / 86400
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
