package nfd

import "math"

// Conversion factors are searched on a fixed positive range. The
// bracket scan expands geometrically from c = 1, which solves the
// symmetric case exactly and is the natural starting guess elsewhere.
const (
	convMin = 1e-12
	convMax = 1e12

	convResidualTol = 1e-6
	brentTol        = 1e-12
	brentMaxIter    = 100
)

// solveConversion finds a root of g on [convMin, convMax]. It reports
// failure when no sign change can be bracketed or when the located
// point does not actually zero g (a sign change across a pole).
func solveConversion(g func(float64) float64) (float64, bool) {
	a, b, fa, fb, ok := bracketRoot(g)
	if !ok {
		return 0, false
	}
	if a == b {
		return a, true
	}
	root, ok := brent(g, a, b, fa, fb, brentTol, brentMaxIter)
	if !ok {
		return 0, false
	}
	if r := g(root); !isFinite(r) || math.Abs(r) > convResidualTol {
		return 0, false
	}
	return root, true
}

// bracketRoot looks for a sign change of g, doubling outward from 1 in
// both directions. Non-finite evaluations are skipped. If g(1) itself
// is not finite, the whole range is scanned bottom-up instead.
func bracketRoot(g func(float64) float64) (a, b, fa, fb float64, ok bool) {
	f1 := g(1)
	if !isFinite(f1) {
		return scanRange(g)
	}
	if f1 == 0 {
		return 1, 1, 0, 0, true
	}
	if a, b, fa, fb, ok = expand(g, f1, 2); ok {
		return a, b, fa, fb, true
	}
	return expand(g, f1, 0.5)
}

func expand(g func(float64) float64, f1, factor float64) (float64, float64, float64, float64, bool) {
	prev, fprev := 1.0, f1
	for c := factor; c >= convMin && c <= convMax; c *= factor {
		fc := g(c)
		if !isFinite(fc) {
			continue
		}
		if fc == 0 {
			return c, c, 0, 0, true
		}
		if (fc < 0) != (fprev < 0) {
			if prev < c {
				return prev, c, fprev, fc, true
			}
			return c, prev, fc, fprev, true
		}
		prev, fprev = c, fc
	}
	return 0, 0, 0, 0, false
}

func scanRange(g func(float64) float64) (float64, float64, float64, float64, bool) {
	prev, fprev := math.NaN(), 0.0
	for c := convMin; c <= convMax; c *= 2 {
		fc := g(c)
		if !isFinite(fc) {
			continue
		}
		if fc == 0 {
			return c, c, 0, 0, true
		}
		if !math.IsNaN(prev) && (fc < 0) != (fprev < 0) {
			return prev, c, fprev, fc, true
		}
		prev, fprev = c, fc
	}
	return 0, 0, 0, 0, false
}

var brentEps = math.Nextafter(1, 2) - 1

// brent is the classic Brent-Dekker bracketing root finder. fa and fb
// must straddle zero. It reports failure when an evaluation turns
// non-finite or the iteration budget runs out.
func brent(f func(float64) float64, x1, x2, f1, f2, tol float64, maxIter int) (float64, bool) {
	a, b, c := x1, x2, x2
	fa, fb, fc := f1, f2, f2
	var d, e float64

	for iter := 0; iter < maxIter; iter++ {
		if (fb > 0 && fc > 0) || (fb < 0 && fc < 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}
		tol1 := 2*brentEps*math.Abs(b) + 0.5*tol
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol1 || fb == 0 {
			return b, true
		}
		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			// Inverse quadratic interpolation, secant when a == c.
			s := fb / fa
			var p, q float64
			if a == c {
				p = 2 * xm * s
				q = 1 - s
			} else {
				q = fa / fc
				r := fb / fc
				p = s * (2*xm*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			min1 := 3*xm*q - math.Abs(tol1*q)
			min2 := math.Abs(e * q)
			if 2*p < math.Min(min1, min2) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}
		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else {
			b += math.Copysign(tol1, xm)
		}
		fb = f(b)
		if !isFinite(fb) {
			return 0, false
		}
	}
	return 0, false
}
