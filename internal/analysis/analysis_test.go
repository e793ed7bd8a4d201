package analysis

import (
	"math"
	"testing"

	"github.com/san-kum/orbitsim/internal/physics"
)

func sine(n int, period float64, offset float64) []float64 {
	data := make([]float64, n)
	for i := range data {
		data[i] = offset + math.Sin(2*math.Pi*float64(i)/period)
	}
	return data
}

func TestDominantPeriod(t *testing.T) {
	tests := []struct {
		name     string
		data     []float64
		interval float64
		want     float64
		ok       bool
	}{
		{"period 8 samples", sine(64, 8, 0), 0.5, 4.0, true},
		{"offset ignored", sine(64, 16, 3), 1.0, 16.0, true},
		{"odd length", sine(90, 10, 0), 1.0, 10.0, true},
		{"flat", make([]float64, 32), 1.0, 0, false},
		{"too short", []float64{1}, 1.0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DominantPeriod(tt.data, tt.interval)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("period = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPowerSpectrumLength(t *testing.T) {
	ps := PowerSpectrum(sine(64, 8, 2))
	if len(ps) != 33 {
		t.Fatalf("expected 33 bins, got %d", len(ps))
	}
	if ps[0] > 1e-9 {
		t.Errorf("mean should be removed, DC bin = %v", ps[0])
	}
}

func TestPowerSpectrumValues(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		want map[int]float64
	}{
		{"alternating", []float64{1, -1, 1, -1}, map[int]float64{0: 0, 1: 0, 2: 16}},
		{"unit sine", sine(64, 8, 2), map[int]float64{0: 0, 7: 0, 8: 1024, 9: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := PowerSpectrum(tt.data)
			for k, want := range tt.want {
				if math.Abs(ps[k]-want) > 1e-6 {
					t.Errorf("bin %d = %v, want %v", k, ps[k], want)
				}
			}
		})
	}
}

func TestLyapunovExponentFinite(t *testing.T) {
	s := physics.New(3)
	before := s.CloneBodies()

	lambda := LyapunovExponent(s, LyapunovConfig{
		Ticks:        20000,
		RenormEvery:  1000,
		Perturbation: 1e-9,
	})

	if math.IsNaN(lambda) || math.IsInf(lambda, 0) {
		t.Fatalf("expected a finite exponent, got %v", lambda)
	}
	for i := range before {
		if s.Bodies[i] != before[i] {
			t.Fatal("LyapunovExponent modified its input")
		}
	}
}

func TestLyapunovExponentDegenerate(t *testing.T) {
	s := physics.New(3)

	tests := []struct {
		name string
		cfg  LyapunovConfig
	}{
		{"no ticks", LyapunovConfig{Ticks: 0, RenormEvery: 10, Perturbation: 1e-9}},
		{"no perturbation", LyapunovConfig{Ticks: 100, RenormEvery: 10, Perturbation: 0}},
		{"renorm beyond run", LyapunovConfig{Ticks: 10, RenormEvery: 100, Perturbation: 1e-9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LyapunovExponent(s, tt.cfg); got != 0 {
				t.Errorf("expected 0, got %v", got)
			}
		})
	}
}

func TestSeparationAndRescale(t *testing.T) {
	a := physics.New(4).CloneBodies()
	b := physics.New(4).CloneBodies()
	b[1].Pos.X += 3
	b[2].Vel.Y += 4

	if d := separation(a, b); math.Abs(d-5) > 1e-12 {
		t.Fatalf("separation = %v, want 5", d)
	}

	rescale(a, b, 0.2)
	if d := separation(a, b); math.Abs(d-1) > 1e-12 {
		t.Errorf("after rescale separation = %v, want 1", d)
	}
}
