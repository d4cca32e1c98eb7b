// Package scheduler picks one bucket per diversity axis per instruction so
// that, over time, the issued distribution converges toward each axis's
// configured target shares, honoring inter-axis compatibility rules and a
// short-range near-repetition guard.
package scheduler

import (
	"math"
	"math/rand"

	"github.com/antigravity-dev/corpusgen/internal/axis"
)

// DefaultFIFOSize is the default size of the recent-signature buffer.
const DefaultFIFOSize = 32

// redrawBudget bounds how many times Pick will try to escape a
// near-repetition collision before giving up and accepting it.
const redrawBudget = 5

// Scheduler draws axis selections against a live Counters snapshot.
type Scheduler struct {
	catalog  axis.Catalog
	counters *Counters
	rng      *rand.Rand

	fifoSize int
	fifo     []axis.Signature
}

// New builds a Scheduler over catalog and counters. fifoSize <= 0 uses
// DefaultFIFOSize.
func New(catalog axis.Catalog, counters *Counters, fifoSize int, rng *rand.Rand) *Scheduler {
	if fifoSize <= 0 {
		fifoSize = DefaultFIFOSize
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Scheduler{catalog: catalog, counters: counters, rng: rng, fifoSize: fifoSize}
}

// Pick draws one bucket per axis and returns the resulting selection. An
// axis with no catalog entry contributes BucketNone; an axis that is
// configured but has no positive-share bucket compatible with the rest of
// the selection makes Pick return an error.
func (s *Scheduler) Pick() (axis.Selection, error) {
	sel, err := s.draw()
	if err != nil {
		return nil, err
	}

	sig := sel.Sign()
	if s.collides(sig) {
		sel = s.redraw(sel)
		sig = sel.Sign()
	}
	s.remember(sig)
	return sel, nil
}

func (s *Scheduler) draw() (axis.Selection, error) {
	sel := axis.Selection{}
	for _, a := range axis.Ordered {
		if len(s.catalog[a].Buckets) == 0 {
			// Axis not configured at all: it contributes BucketNone to the
			// signature rather than blocking issuance.
			sel[a] = axis.BucketNone
			continue
		}
		candidates := s.reachableBuckets(a)
		candidates = axis.AllowedBuckets(a, sel, candidates)

		if a == axis.SecondaryTopic {
			complexity := sel[axis.Complexity]
			if s.rng.Float64() >= axis.SecondaryTopicDrawProbability(complexity) {
				sel[a] = axis.BucketNone
				continue
			}
			candidates = withoutBucket(candidates, axis.BucketNone)
		}

		if len(candidates) == 0 {
			return nil, &noReachableBucketError{axis: a}
		}
		sel[a] = s.pickByDeficit(a, candidates)
	}
	return sel, nil
}

// reachableBuckets returns the buckets on axis a with a strictly positive
// target share. Zero-share buckets are configured-off and unreachable.
func (s *Scheduler) reachableBuckets(a axis.Axis) []axis.Bucket {
	spec := s.catalog[a]
	out := make([]axis.Bucket, 0, len(spec.Buckets))
	for _, b := range spec.Buckets {
		if b.Target > 0 {
			out = append(out, b.Bucket)
		}
	}
	return out
}

// pickByDeficit scores every candidate as count/share and returns the
// minimizer, breaking ties uniformly at random.
func (s *Scheduler) pickByDeficit(a axis.Axis, candidates []axis.Bucket) axis.Bucket {
	best := math.Inf(1)
	var winners []axis.Bucket
	for _, b := range candidates {
		share := s.catalog.TargetShare(a, b)
		if share <= 0 {
			continue
		}
		score := float64(s.counters.Count(a, b)) / share
		switch {
		case score < best:
			best = score
			winners = []axis.Bucket{b}
		case score == best:
			winners = append(winners, b)
		}
	}
	if len(winners) == 0 {
		return candidates[0]
	}
	return winners[s.rng.Intn(len(winners))]
}

func (s *Scheduler) collides(sig axis.Signature) bool {
	for _, prior := range s.fifo {
		if prior == sig {
			return true
		}
	}
	return false
}

func (s *Scheduler) remember(sig axis.Signature) {
	s.fifo = append(s.fifo, sig)
	if len(s.fifo) > s.fifoSize {
		s.fifo = s.fifo[len(s.fifo)-s.fifoSize:]
	}
}

// redraw re-rolls the single axis with the most remaining freedom (the
// most candidate buckets still compatible with the rest of sel) up to
// redrawBudget attempts, accepting the collision if it cannot escape it.
func (s *Scheduler) redraw(sel axis.Selection) axis.Selection {
	for attempt := 0; attempt < redrawBudget; attempt++ {
		target, candidates := s.freestAxis(sel)
		if target == "" || len(candidates) <= 1 {
			return sel
		}

		next := axis.Selection{}
		for a, b := range sel {
			next[a] = b
		}
		next[target] = s.pickByDeficit(target, candidates)

		sig := next.Sign()
		if !s.collides(sig) {
			return next
		}
		sel = next
	}
	return sel
}

// freestAxis finds the axis (other than ones pinned to a single compatible
// bucket) with the largest number of remaining compatible candidates.
func (s *Scheduler) freestAxis(sel axis.Selection) (axis.Axis, []axis.Bucket) {
	var best axis.Axis
	var bestCandidates []axis.Bucket

	for _, a := range axis.Ordered {
		rest := axis.Selection{}
		for other, b := range sel {
			if other != a {
				rest[other] = b
			}
		}
		candidates := axis.AllowedBuckets(a, rest, s.reachableBuckets(a))
		if len(candidates) > len(bestCandidates) {
			best = a
			bestCandidates = candidates
		}
	}
	return best, bestCandidates
}

func withoutBucket(in []axis.Bucket, exclude axis.Bucket) []axis.Bucket {
	out := make([]axis.Bucket, 0, len(in))
	for _, b := range in {
		if b != exclude {
			out = append(out, b)
		}
	}
	return out
}

type noReachableBucketError struct {
	axis axis.Axis
}

func (e *noReachableBucketError) Error() string {
	return "scheduler: axis " + string(e.axis) + " has no reachable bucket"
}
