// Package scoring computes a challenge's current point value from its
// scoring policy and solve count. Pure functions only: any replica given the
// same policy and count produces the same value.
package scoring

import "math"

const defaultDecay = 10

// Policy is the scoring configuration of a challenge.
type Policy struct {
	Type      string
	MaxPoints int
	MinPoints int
	Decay     int
}

// Points returns the value the next solver of the challenge would be awarded,
// given how many teams have already solved it. The result is always within
// [MinPoints, MaxPoints] and never increases as solveCount grows.
func Points(p Policy, solveCount int) int {
	switch p.Type {
	case "static":
		return p.MaxPoints
	case "linear":
		return linearPoints(p, solveCount)
	default:
		return dynamicPoints(p, solveCount)
	}
}

// dynamicPoints follows the CTFd-style quadratic decay:
// value = ((min - max) / decay^2) * solves^2 + max
func dynamicPoints(p Policy, solveCount int) int {
	if solveCount <= 0 {
		return p.MaxPoints
	}

	decay := p.Decay
	if decay <= 0 {
		decay = defaultDecay
	}

	decaySquared := float64(decay) * float64(decay)
	solvesSquared := float64(solveCount) * float64(solveCount)

	value := (float64(p.MinPoints)-float64(p.MaxPoints))/decaySquared*solvesSquared + float64(p.MaxPoints)
	return clamp(p, int(math.Round(value)))
}

// linearPoints drops from MaxPoints to MinPoints over Decay solves.
func linearPoints(p Policy, solveCount int) int {
	if solveCount <= 0 {
		return p.MaxPoints
	}

	decay := p.Decay
	if decay <= 0 {
		decay = defaultDecay
	}

	decrease := float64(p.MaxPoints-p.MinPoints) * float64(solveCount) / float64(decay)
	return clamp(p, int(math.Round(float64(p.MaxPoints)-decrease)))
}

func clamp(p Policy, points int) int {
	if points < p.MinPoints {
		return p.MinPoints
	}
	if points > p.MaxPoints {
		return p.MaxPoints
	}
	return points
}
