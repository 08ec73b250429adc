package scoringdomain

import "math"

// Checkpoint is a named split point at a distance from the start.
type Checkpoint struct {
	Name           string  `yaml:"name"`
	DistanceMeters float64 `yaml:"distance_meters"`
}

// MarathonMeters is the finish distance used when a course does not override it.
const MarathonMeters = 42195.0

// NegativeSplit holds when the second half, measured from the halfway
// checkpoint to the finish, is faster than the first.
func NegativeSplit(halfway string) func(RaceResult) bool {
	return func(r RaceResult) bool {
		if r.FinishTimeSeconds == nil {
			return false
		}
		half, ok := r.SplitTimes[halfway]
		if !ok || half <= 0 || half >= *r.FinishTimeSeconds {
			return false
		}
		return *r.FinishTimeSeconds-half < half
	}
}

// EvenPace holds when the standard deviation of per-segment pace, in seconds
// per kilometre, is at most maxDeviation. Every checkpoint must be present
// and strictly increasing; the final segment runs to finishMeters.
func EvenPace(checkpoints []Checkpoint, finishMeters, maxDeviation float64) func(RaceResult) bool {
	segments := make([]Checkpoint, 0, len(checkpoints)+1)
	segments = append(segments, checkpoints...)
	segments = append(segments, Checkpoint{DistanceMeters: finishMeters})

	return func(r RaceResult) bool {
		if r.FinishTimeSeconds == nil || len(checkpoints) == 0 {
			return false
		}

		paces := make([]float64, 0, len(segments))
		prevT, prevD := 0.0, 0.0
		for _, cp := range segments {
			t := *r.FinishTimeSeconds
			if cp.Name != "" {
				var ok bool
				if t, ok = r.SplitTimes[cp.Name]; !ok {
					return false
				}
			}
			if t <= prevT || cp.DistanceMeters <= prevD {
				return false
			}
			paces = append(paces, (t-prevT)/((cp.DistanceMeters-prevD)/1000))
			prevT, prevD = t, cp.DistanceMeters
		}

		return stddev(paces) <= maxDeviation
	}
}

func stddev(xs []float64) float64 {
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	var variance float64
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	return math.Sqrt(variance / float64(len(xs)))
}
