package zeeman

import "math"

// Wigner3j returns the 3-j symbol (j1 j2 j3; m1 m2 m3) from the Racah
// formula. Arguments may be integers or half-integers; they are evaluated as
// doubled integers so the selection rules are exact. Symbols violating a
// selection rule are zero.
func Wigner3j(j1, j2, j3, m1, m2, m3 float64) float64 {
	tj1, tj2, tj3 := twice(j1), twice(j2), twice(j3)
	tm1, tm2, tm3 := twice(m1), twice(m2), twice(m3)

	switch {
	case tm1+tm2+tm3 != 0:
		return 0
	case tj1 < 0 || tj2 < 0 || tj3 < 0:
		return 0
	case abs(tm1) > tj1 || abs(tm2) > tj2 || abs(tm3) > tj3:
		return 0
	case (tj1+tm1)%2 != 0 || (tj2+tm2)%2 != 0 || (tj3+tm3)%2 != 0:
		return 0
	case tj3 < abs(tj1-tj2) || tj3 > tj1+tj2 || (tj1+tj2+tj3)%2 != 0:
		return 0
	}

	// All quantities below are whole numbers once halved.
	a := (tj1 + tj2 - tj3) / 2
	b := (tj1 - tj2 + tj3) / 2
	c := (-tj1 + tj2 + tj3) / 2
	s := (tj1 + tj2 + tj3) / 2

	logPre := 0.5 * (lfact(a) + lfact(b) + lfact(c) - lfact(s+1) +
		lfact((tj1+tm1)/2) + lfact((tj1-tm1)/2) +
		lfact((tj2+tm2)/2) + lfact((tj2-tm2)/2) +
		lfact((tj3+tm3)/2) + lfact((tj3-tm3)/2))

	k0 := max(0, (tj2-tj3-tm1)/2, (tj1-tj3+tm2)/2)
	k1 := min(a, (tj1-tm1)/2, (tj2+tm2)/2)

	sum := 0.0
	for k := k0; k <= k1; k++ {
		den := lfact(k) +
			lfact((tj3-tj2+tm1)/2+k) +
			lfact((tj3-tj1-tm2)/2+k) +
			lfact(a-k) +
			lfact((tj1-tm1)/2-k) +
			lfact((tj2+tm2)/2-k)
		term := math.Exp(logPre - den)
		if k%2 != 0 {
			term = -term
		}
		sum += term
	}

	if ((tj1-tj2-tm3)/2)%2 != 0 {
		sum = -sum
	}
	return sum
}

func twice(x float64) int { return int(math.Round(2 * x)) }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func lfact(n int) float64 {
	v, _ := math.Lgamma(float64(n) + 1)
	return v
}
