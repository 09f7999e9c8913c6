// Package forecast fits an additive trend + yearly-seasonality model to a
// yearly series and extends it over a horizon.
//
// The model is a piecewise-linear trend with automatically placed
// changepoints plus a Fourier series for yearly seasonality:
//
//	y(t) = (m + k*t + sum_j delta_j*max(t-s_j, 0)) + sum_n (a_n*sin(2*pi*n*d/P) + b_n*cos(2*pi*n*d/P))
//
// t is time scaled to [0, 1] over the history, d is days since the Unix
// epoch and P = 365.25. The coefficients are the MAP estimate under Gaussian
// priors, solved as a ridge regression with gonum. Fitting is deterministic:
// uncertainty intervals come from the residual noise plus the analytic
// variance of future trend changes, not from sampling.
//
// Engine wraps a Forecaster with input validation, a result Cache and
// per-key deduplication so that each (state, category, horizon, series)
// combination is fitted at most once per process.
package forecast
