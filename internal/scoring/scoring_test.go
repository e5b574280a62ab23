package scoring

import "testing"

func TestStaticPoints(t *testing.T) {
	p := Policy{Type: "static", MaxPoints: 500, MinPoints: 100, Decay: 10}
	for _, solves := range []int{0, 1, 50, 1000} {
		if got := Points(p, solves); got != 500 {
			t.Errorf("static with %d solves: got %d, want 500", solves, got)
		}
	}
}

func TestDynamicPointsCurve(t *testing.T) {
	p := Policy{Type: "dynamic", MaxPoints: 500, MinPoints: 100, Decay: 10}

	if got := Points(p, 0); got != 500 {
		t.Errorf("0 solves: got %d, want 500", got)
	}
	// One solve: 500 + (100-500)/100 * 1 = 496
	if got := Points(p, 1); got != 496 {
		t.Errorf("1 solve: got %d, want 496", got)
	}
	// At decay solves the value reaches the floor
	if got := Points(p, 10); got != 100 {
		t.Errorf("10 solves: got %d, want 100", got)
	}
	// Beyond decay it stays clamped at the floor
	if got := Points(p, 500); got != 100 {
		t.Errorf("500 solves: got %d, want 100", got)
	}
}

func TestLinearPoints(t *testing.T) {
	p := Policy{Type: "linear", MaxPoints: 500, MinPoints: 100, Decay: 10}

	if got := Points(p, 0); got != 500 {
		t.Errorf("0 solves: got %d, want 500", got)
	}
	// Drops (500-100)/10 = 40 per solve
	if got := Points(p, 1); got != 460 {
		t.Errorf("1 solve: got %d, want 460", got)
	}
	if got := Points(p, 5); got != 300 {
		t.Errorf("5 solves: got %d, want 300", got)
	}
	if got := Points(p, 25); got != 100 {
		t.Errorf("25 solves: got %d, want 100 (clamped)", got)
	}
}

func TestMonotonicityAndClamp(t *testing.T) {
	policies := []Policy{
		{Type: "dynamic", MaxPoints: 500, MinPoints: 100, Decay: 10},
		{Type: "dynamic", MaxPoints: 1000, MinPoints: 50, Decay: 37},
		{Type: "linear", MaxPoints: 300, MinPoints: 300, Decay: 5},
		{Type: "linear", MaxPoints: 500, MinPoints: 100, Decay: 1},
	}

	for _, p := range policies {
		prev := Points(p, 0)
		for solves := 1; solves <= 200; solves++ {
			cur := Points(p, solves)
			if cur > prev {
				t.Fatalf("%s policy not monotone: %d solves gives %d > %d", p.Type, solves, cur, prev)
			}
			if cur < p.MinPoints || cur > p.MaxPoints {
				t.Fatalf("%s policy out of range at %d solves: %d", p.Type, solves, cur)
			}
			prev = cur
		}
	}
}

func TestZeroDecayFallsBackToDefault(t *testing.T) {
	p := Policy{Type: "dynamic", MaxPoints: 500, MinPoints: 100, Decay: 0}
	if got := Points(p, 1); got <= 100 || got >= 500 {
		t.Errorf("zero decay should use default curve, got %d", got)
	}
}
