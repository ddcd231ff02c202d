// Package sprt implements the Sequential Probability Ratio Test used to
// decide early, from running WDL or pentanomial stats, whether an engine
// match favors H0: elo = elo0 or H1: elo = elo1.
package sprt

import (
	"fmt"
	"math"

	"github.com/joeycumines/fastchess-sub001/internal/types"
)

// Result is the SPRT's decision given a log-likelihood ratio.
type Result int

const (
	Continue Result = iota
	H0
	H1
)

func (r Result) String() string {
	switch r {
	case H0:
		return "H0"
	case H1:
		return "H1"
	default:
		return "Continue"
	}
}

// Monitor tests H0: elo = elo0 against H1: elo = elo1 via the
// log-likelihood ratio of observed outcome counts.
type Monitor struct {
	lower, upper float64
	elo0, elo1   float64
	enabled      bool
	model        types.SprtModel
}

// New builds a Monitor. If enabled is false, GetLLR always returns 0 and
// GetResult always returns Continue.
func New(alpha, beta, elo0, elo1 float64, model types.SprtModel, enabled bool) *Monitor {
	m := &Monitor{elo0: elo0, elo1: elo1, model: model, enabled: enabled}
	if enabled {
		m.lower = math.Log(beta / (1.0 - alpha))
		m.upper = math.Log((1.0 - beta) / alpha)
	}
	return m
}

// Enabled reports whether this Monitor will ever produce a non-Continue
// result.
func (m *Monitor) Enabled() bool {
	return m.enabled
}

// LowerBound and UpperBound expose the raw LLR decision thresholds.
func (m *Monitor) LowerBound() float64 { return m.lower }
func (m *Monitor) UpperBound() float64 { return m.upper }

// GetLLR computes the log-likelihood ratio from stats, using pentanomial
// counts if penta is true, else WDL counts.
func (m *Monitor) GetLLR(stats types.Stats, penta bool) float64 {
	if penta {
		return m.llrPenta(stats.PentaWW, stats.PentaWD, stats.PentaWL, stats.PentaDD, stats.PentaLD, stats.PentaLL)
	}
	return m.llrWDL(stats.Wins, stats.Draws, stats.Losses)
}

// GetFraction reports how far llr is towards whichever bound it is headed:
// positive values move towards H1, negative towards H0.
func (m *Monitor) GetFraction(llr float64) float64 {
	if llr >= 0 {
		return llr / m.upper
	}
	return -llr / m.lower
}

// GetResult classifies llr against the configured bounds.
func (m *Monitor) GetResult(llr float64) Result {
	if !m.enabled {
		return Continue
	}
	switch {
	case llr >= m.upper:
		return H1
	case llr <= m.lower:
		return H0
	default:
		return Continue
	}
}

// Bounds formats the LLR bounds as "(lower, upper)" to two decimal places.
func (m *Monitor) Bounds() string {
	return fmt.Sprintf("(%.2f, %.2f)", m.lower, m.upper)
}

// Elo formats the hypothesis elo range as "[elo0, elo1]".
func (m *Monitor) Elo() string {
	return fmt.Sprintf("[%.2f, %.2f]", m.elo0, m.elo1)
}

// Validate checks SPRT parameters for internal consistency, disabling
// pentanomial reporting (reportPenta) when the bayesian model is chosen
// since that model only supports WDL.
func Validate(alpha, beta, elo0, elo1 float64, model types.SprtModel, reportPenta *bool) error {
	if elo0 >= elo1 {
		return fmt.Errorf("sprt: elo0 must be less than elo1")
	}
	if alpha <= 0 || alpha >= 1 {
		return fmt.Errorf("sprt: alpha must be between 0 and 1 (exclusive)")
	}
	if beta <= 0 || beta >= 1 {
		return fmt.Errorf("sprt: beta must be between 0 and 1 (exclusive)")
	}
	if alpha+beta >= 1 {
		return fmt.Errorf("sprt: sum of alpha and beta must be less than 1")
	}
	if model == types.SprtBayesian && *reportPenta {
		*reportPenta = false
	}
	return nil
}

// LeloToScore converts a logistic elo to an expected score.
func LeloToScore(lelo float64) float64 {
	return 1.0 / (1.0 + math.Pow(10.0, -lelo/400.0))
}

// BayesEloToScore converts a BayesElo plus drawelo to an expected score.
func BayesEloToScore(bayeselo, drawelo float64) float64 {
	pwin := 1.0 / (1.0 + math.Pow(10.0, (-bayeselo+drawelo)/400.0))
	ploss := 1.0 / (1.0 + math.Pow(10.0, (bayeselo+drawelo)/400.0))
	pdraw := 1.0 - pwin - ploss
	return pwin + 0.5*pdraw
}

// NeloToScoreWDL converts a normalized elo to an expected score under the
// WDL model.
func NeloToScoreWDL(nelo, variance float64) float64 {
	return nelo*math.Sqrt(variance)/(800.0/math.Log(10)) + 0.5
}

// NeloToScorePenta converts a normalized elo to an expected score under the
// pentanomial model.
func NeloToScorePenta(nelo, variance float64) float64 {
	return nelo*math.Sqrt(2.0*variance)/(800.0/math.Log(10)) + 0.5
}

func regularize(value int) float64 {
	if value == 0 {
		return 1e-3
	}
	return float64(value)
}

func (m *Monitor) llrWDL(win, draw, loss int) float64 {
	if !m.enabled {
		return 0
	}

	l := regularize(loss)
	d := regularize(draw)
	w := regularize(win)
	total := l + d + w
	probs := []float64{l / total, d / total, w / total}
	scores := []float64{0.0, 0.5, 1.0}

	switch m.model {
	case types.SprtNormalized:
		t0 := m.elo0 / (800.0 / math.Log(10))
		t1 := m.elo1 / (800.0 / math.Log(10))
		return m.llrNormalized(total, scores, probs, t0, t1)
	case types.SprtBayesian:
		if win == 0 || loss == 0 {
			return 0
		}
		lProb := probs[0]
		wProb := probs[2]
		drawelo := 200.0 * math.Log10((1.0-lProb)/lProb*(1.0-wProb)/wProb)
		score0 := BayesEloToScore(m.elo0, drawelo)
		score1 := BayesEloToScore(m.elo1, drawelo)
		return m.llrLogistic(total, scores, probs, score0, score1)
	default: // Logistic
		score0 := LeloToScore(m.elo0)
		score1 := LeloToScore(m.elo1)
		return m.llrLogistic(total, scores, probs, score0, score1)
	}
}

func (m *Monitor) llrPenta(ww, wd, wl, dd, ld, ll int) float64 {
	if !m.enabled {
		return 0
	}

	llv := regularize(ll)
	ldv := regularize(ld)
	wlDD := regularize(dd + wl)
	wdv := regularize(wd)
	wwv := regularize(ww)
	total := wwv + wdv + wlDD + ldv + llv
	probs := []float64{llv / total, ldv / total, wlDD / total, wdv / total, wwv / total}
	scores := []float64{0.0, 0.25, 0.5, 0.75, 1.0}

	if m.model == types.SprtNormalized {
		t0 := math.Sqrt(2.0) * m.elo0 / (800.0 / math.Log(10))
		t1 := math.Sqrt(2.0) * m.elo1 / (800.0 / math.Log(10))
		return m.llrNormalized(total, scores, probs, t0, t1)
	}
	// Bayesian is not supported for pentanomial; fall back to logistic.
	score0 := LeloToScore(m.elo0)
	score1 := LeloToScore(m.elo1)
	return m.llrLogistic(total, scores, probs, score0, score1)
}

// llrLogistic is Proposition 1.1 of Van den Bergh: for each target score,
// find the maximum-likelihood distribution under the constraint that the
// mean equals that score, via an ITP root finder over the tilt theta.
func (m *Monitor) llrLogistic(total float64, scores, probs []float64, s0, s1 float64) float64 {
	n := len(scores)
	const thetaEpsilon = 1e-3

	mle := func(s float64) []float64 {
		minTheta := -1.0 / (scores[n-1] - s)
		maxTheta := -1.0 / (scores[0] - s)
		theta := itp(func(x float64) float64 {
			result := 0.0
			for i := 0; i < n; i++ {
				ai := scores[i]
				phat := probs[i]
				result += phat * (ai - s) / (1.0 + x*(ai-s))
			}
			return result
		}, minTheta, maxTheta, math.Inf(1), math.Inf(-1), 0.1, 2.0, 0.99, thetaEpsilon)

		p := make([]float64, n)
		for i := 0; i < n; i++ {
			ai := scores[i]
			phat := probs[i]
			p[i] = phat / (1.0 + theta*(ai-s))
		}
		return p
	}

	p0 := mle(s0)
	p1 := mle(s1)
	lpr := make([]float64, n)
	for i := 0; i < n; i++ {
		lpr[i] = math.Log(p1[i]) - math.Log(p0[i])
	}
	return total * meanSlice(lpr, probs)
}

// llrNormalized is Section 4.1 of Van den Bergh: an outer fixed-point
// iteration (<=10 rounds, eps=1e-4) over mean and variance, each round
// solving an inner ITP for the tilt theta.
func (m *Monitor) llrNormalized(total float64, scores, probs []float64, t0, t1 float64) float64 {
	n := len(scores)
	const thetaEpsilon = 1e-7
	const mleEpsilon = 1e-4

	mle := func(muRef, tStar float64) []float64 {
		p := make([]float64, n)
		for i := range p {
			p[i] = 1.0 / float64(n)
		}

		for iter := 0; iter < 10; iter++ {
			mu, variance := meanAndVarianceSlice(scores, p)
			sigma := math.Sqrt(variance)
			phi := make([]float64, n)
			for i := 0; i < n; i++ {
				ai := scores[i]
				z := (ai - mu) / sigma
				phi[i] = ai - muRef - 0.5*tStar*sigma*(1.0+z*z)
			}

			u := math.Inf(1)
			v := math.Inf(-1)
			for _, x := range phi {
				if x < u {
					u = x
				}
				if x > v {
					v = x
				}
			}
			minTheta := -1.0 / v
			maxTheta := -1.0 / u

			theta := itp(func(x float64) float64 {
				result := 0.0
				for i := 0; i < n; i++ {
					result += probs[i] * phi[i] / (1.0 + x*phi[i])
				}
				return result
			}, minTheta, maxTheta, math.Inf(1), math.Inf(-1), 0.1, 2.0, 0.99, thetaEpsilon)

			maxDiff := 0.0
			for i := 0; i < n; i++ {
				newP := probs[i] / (1.0 + theta*phi[i])
				if d := math.Abs(newP - p[i]); d > maxDiff {
					maxDiff = d
				}
				p[i] = newP
			}

			if maxDiff < mleEpsilon {
				break
			}
			_ = iter
		}

		return p
	}

	p0 := mle(0.5, t0)
	p1 := mle(0.5, t1)
	lpr := make([]float64, n)
	for i := 0; i < n; i++ {
		lpr[i] = math.Log(p1[i]) - math.Log(p0[i])
	}
	return total * meanSlice(lpr, probs)
}

func meanSlice(x, p []float64) float64 {
	sum := 0.0
	for i := range x {
		sum += x[i] * p[i]
	}
	return sum
}

func meanAndVarianceSlice(x, p []float64) (float64, float64) {
	mu := meanSlice(x, p)
	variance := 0.0
	for i := range x {
		d := x[i] - mu
		variance += p[i] * d * d
	}
	return mu, variance
}

// itp is the Oliveira & Takahashi (2020) ITP root finder: "An Enhancement
// of the Bisection Method Average Performance Preserving Minmax
// Optimality". f must bracket a root between a and b.
func itp(f func(float64) float64, a, b, fA, fB, k1, k2, n0, epsilon float64) float64 {
	if fA > 0 {
		a, b = b, a
		fA, fB = fB, fA
	}

	nHalf := math.Ceil(math.Log2(math.Abs(b-a) / (2.0 * epsilon)))
	nMax := nHalf + n0
	var i uint64
	for math.Abs(b-a) > 2.0*epsilon {
		xHalf := (a + b) / 2.0
		r := epsilon*math.Pow(2.0, nMax-float64(i)) - (b-a)/2.0
		delta := k1 * math.Pow(b-a, k2)

		xF := (fB*a - fA*b) / (fB - fA)

		var sigma float64
		if math.Abs(xHalf-xF) > 0 {
			sigma = (xHalf - xF) / math.Abs(xHalf-xF)
		}

		var xT float64
		if delta <= math.Abs(xHalf-xF) {
			xT = xF + sigma*delta
		} else {
			xT = xHalf
		}

		var xItp float64
		if math.Abs(xT-xHalf) <= r {
			xItp = xT
		} else {
			xItp = xHalf - sigma*r
		}

		fItp := f(xItp)
		switch {
		case fItp == 0:
			a, b = xItp, xItp
		case fItp < 0:
			a, fA = xItp, fItp
		default:
			b, fB = xItp, fItp
		}

		i++
	}

	return (a + b) / 2.0
}
