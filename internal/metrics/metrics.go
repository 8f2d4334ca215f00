package metrics

import (
	"context"
	"fmt"
	"sync"

	"salescope/internal/trackindex"
)

// Kind enumerates the supported metrics.
type Kind int

const (
	Area Kind = iota
	SpeedReduction
	Interaction
	Attendance
)

// DefaultSlowdownThreshold is the relative speed drop that counts as a
// slowdown event.
const DefaultSlowdownThreshold = 0.5

var kinds = []Kind{Area, SpeedReduction, Interaction, Attendance}

// Kinds returns every metric kind in reporting order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Name returns the result key of the metric.
func (k Kind) Name() string {
	switch k {
	case Area:
		return "area_metric"
	case SpeedReduction:
		return "speed_metric"
	case Interaction:
		return "interaction_metric"
	case Attendance:
		return "salesman_attendance"
	default:
		return fmt.Sprintf("metric(%d)", int(k))
	}
}

func (k Kind) String() string { return k.Name() }

// Options tunes metric computation.
type Options struct {
	SlowdownThreshold float64
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{SlowdownThreshold: DefaultSlowdownThreshold}
}

func (o Options) slowdownThreshold() float64 {
	if o.SlowdownThreshold <= 0 {
		return DefaultSlowdownThreshold
	}
	return o.SlowdownThreshold
}

// Value is the outcome of one metric. Count metrics fill Count, ratio
// metrics fill Ratio.
type Value struct {
	Kind  Kind
	Count int
	Ratio float64
}

// Any returns the value as int or float64 depending on the metric.
func (v Value) Any() any {
	if v.Kind == Attendance {
		return v.Ratio
	}
	return v.Count
}

// Compute evaluates one metric against idx. A nil index yields the zero
// value of the metric.
func Compute(kind Kind, idx *trackindex.Index, opts Options) Value {
	if idx == nil {
		return Value{Kind: kind}
	}
	switch kind {
	case Area:
		return Value{Kind: kind, Count: computeArea(idx)}
	case SpeedReduction:
		return Value{Kind: kind, Count: computeSpeedReduction(idx, opts.slowdownThreshold())}
	case Interaction:
		return Value{Kind: kind, Count: computeInteraction(idx)}
	case Attendance:
		return Value{Kind: kind, Ratio: computeAttendance(idx)}
	default:
		panic(fmt.Sprintf("metrics: unknown kind %d", int(kind)))
	}
}

// Results holds every metric of one video.
type Results struct {
	Area        int     `json:"area_metric"`
	Speed       int     `json:"speed_metric"`
	Interaction int     `json:"interaction_metric"`
	Attendance  float64 `json:"salesman_attendance"`
}

func (r *Results) set(v Value) {
	switch v.Kind {
	case Area:
		r.Area = v.Count
	case SpeedReduction:
		r.Speed = v.Count
	case Interaction:
		r.Interaction = v.Count
	case Attendance:
		r.Attendance = v.Ratio
	}
}

// Get returns the value stored for kind.
func (r Results) Get(kind Kind) Value {
	switch kind {
	case Area:
		return Value{Kind: kind, Count: r.Area}
	case SpeedReduction:
		return Value{Kind: kind, Count: r.Speed}
	case Interaction:
		return Value{Kind: kind, Count: r.Interaction}
	default:
		return Value{Kind: kind, Ratio: r.Attendance}
	}
}

// AsMap returns the results keyed by metric name.
func (r Results) AsMap() map[string]any {
	out := make(map[string]any, len(kinds))
	for _, kind := range kinds {
		out[kind.Name()] = r.Get(kind).Any()
	}
	return out
}

// ComputeAll evaluates every metric concurrently. The index is only read, so
// no locking is needed; each goroutine owns one result slot.
func ComputeAll(ctx context.Context, idx *trackindex.Index, opts Options) (Results, error) {
	values := make([]Value, len(kinds))
	var wg sync.WaitGroup
	for i, kind := range kinds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			values[i] = Compute(kind, idx, opts)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Results{}, err
	}
	var results Results
	for _, v := range values {
		results.set(v)
	}
	return results, nil
}
