package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// Counts is a measurement histogram keyed by basis label. It is always dense:
// every one of the 2^n labels is present, possibly with a zero count.
type Counts map[string]int

// Total returns the number of shots recorded.
func (c Counts) Total() int {
	total := 0
	for _, v := range c {
		total += v
	}
	return total
}

// Labels returns the labels in ascending basis order.
func (c Counts) Labels() []string {
	labels := make([]string, 0, len(c))
	for l := range c {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Frequency is count/total for label, 0 when nothing was recorded.
func (c Counts) Frequency(label string) float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c[label]) / float64(total)
}

// BasisLabel formats basis index i of an n-qubit register as a zero-padded
// bitstring. The leftmost character is qubit 0.
func BasisLabel(i, n int) string {
	return fmt.Sprintf("%0*b", n, i)
}

// CheckNormalized verifies that probs is a distribution within tol. It never
// rescales: a failure means an upstream defect and is reported as
// ErrNotNormalized.
func CheckNormalized(probs []float64, tol float64) error {
	for i, p := range probs {
		if math.IsNaN(p) || p < -tol {
			return fmt.Errorf("basis state %d has probability %g: %w", i, p, ErrNotNormalized)
		}
	}
	sum := floats.Sum(probs)
	if math.Abs(sum-1) > tol {
		return &NotNormalizedError{Sum: sum, Tolerance: tol}
	}
	return nil
}

// cdfSampler draws basis indices by inverse CDF.
type cdfSampler struct {
	cdf  []float64
	last int // last index with non-zero probability
}

func newCDFSampler(probs []float64) *cdfSampler {
	cdf := floats.CumSum(make([]float64, len(probs)), probs)
	last := 0
	for i, p := range probs {
		if p > 0 {
			last = i
		}
	}
	return &cdfSampler{cdf: cdf, last: last}
}

func (s *cdfSampler) draw(rng *rand.Rand) int {
	u := rng.Float64()
	i := sort.Search(len(s.cdf), func(i int) bool { return s.cdf[i] > u })
	// Rounding can leave the final CDF entry just below 1.
	return min(i, s.last)
}

func (s *cdfSampler) tally(rng *rand.Rand, shots int, hist []int) {
	for i := 0; i < shots; i++ {
		hist[s.draw(rng)]++
	}
}

func denseCounts(hist []int, n int) Counts {
	c := make(Counts, len(hist))
	for i, v := range hist {
		c[BasisLabel(i, n)] = v
	}
	return c
}

// Sample draws shots independent outcomes from probs on a single RNG.
func Sample(probs []float64, shots, n int, rng *rand.Rand) Counts {
	hist := make([]int, len(probs))
	newCDFSampler(probs).tally(rng, shots, hist)
	return denseCounts(hist, n)
}

// SampleParallel splits shots across one goroutine per RNG. Each worker owns
// its RNG and its histogram; probs is only read.
func SampleParallel(ctx context.Context, probs []float64, shots, n int, rngs []*rand.Rand) (Counts, error) {
	if len(rngs) == 0 {
		return nil, fmt.Errorf("parallel sampling needs at least one RNG")
	}
	s := newCDFSampler(probs)
	hists := make([][]int, len(rngs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(len(rngs))

	base, extra := shots/len(rngs), shots%len(rngs)
	for w, rng := range rngs {
		share := base
		if w < extra {
			share++
		}
		hists[w] = make([]int, len(probs))
		w, rng := w, rng
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.tally(rng, share, hists[w])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]int, len(probs))
	for _, h := range hists {
		for i, v := range h {
			merged[i] += v
		}
	}
	return denseCounts(merged, n), nil
}

// Sampler turns a final state into a measurement histogram.
type Sampler struct {
	Tolerance float64
	Workers   int
	RNG       *PartitionedRNG
	Metrics   MetricsCollector
}

// Run derives the distribution from state, checks it, and draws shots.
// The state is only read.
func (s *Sampler) Run(ctx context.Context, state State, shots int) (Counts, []float64, error) {
	if shots <= 0 {
		return nil, nil, fmt.Errorf("got %d: %w", shots, ErrInvalidShots)
	}
	probs := state.Probabilities()
	if err := CheckNormalized(probs, s.Tolerance); err != nil {
		return nil, nil, err
	}

	start := time.Now()
	n := state.NumQubits()
	var counts Counts
	if s.Workers <= 1 {
		counts = Sample(probs, shots, n, s.RNG.ForSubsystem(SubsystemShots))
	} else {
		rngs := make([]*rand.Rand, s.Workers)
		for w := range rngs {
			rngs[w] = s.RNG.ForSubsystem(SubsystemShotWorker(w))
		}
		var err error
		counts, err = SampleParallel(ctx, probs, shots, n, rngs)
		if err != nil {
			return nil, nil, fmt.Errorf("sampling %d shots: %w", shots, err)
		}
	}
	elapsed := time.Since(start)
	if s.Metrics != nil {
		s.Metrics.RecordSample(shots, elapsed)
	}
	logrus.Debugf("sampled %d shots over %d basis states with %d worker(s) in %v", shots, len(probs), max(s.Workers, 1), elapsed)
	return counts, probs, nil
}
