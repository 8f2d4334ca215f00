package metrics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"salescope/internal/detection"
	"salescope/internal/trackindex"
)

// computeArea counts non-subject tracks whose largest box exceeds the
// subject's mean box area.
func computeArea(idx *trackindex.Index) int {
	subject := detection.Subject()
	frames := idx.Frames(subject)
	if len(frames) == 0 {
		return 0
	}
	areas := make([]float64, 0, len(frames))
	for _, frame := range frames {
		if box, ok := idx.Box(frame, subject); ok {
			areas = append(areas, float64(box.Area()))
		}
	}
	if len(areas) == 0 {
		return 0
	}
	subjectMean := stat.Mean(areas, nil)

	bigger := 0
	for _, id := range idx.TrackIDs() {
		if id.IsSubject() {
			continue
		}
		largest, seen := 0, false
		for _, frame := range idx.Frames(id) {
			box, ok := idx.Box(frame, id)
			if !ok {
				continue
			}
			if area := box.Area(); !seen || area > largest {
				largest, seen = area, true
			}
		}
		if seen && float64(largest) > subjectMean {
			bigger++
		}
	}
	return bigger
}

// computeSpeedReduction counts tracks with at least one slowdown event.
// Speed is the centre displacement between consecutive observed frames; the
// frame gap between them is not taken into account.
func computeSpeedReduction(idx *trackindex.Index, threshold float64) int {
	count := 0
	for _, id := range idx.TrackIDs() {
		if hasSlowdown(trackSpeeds(idx, id), threshold) {
			count++
		}
	}
	return count
}

func trackSpeeds(idx *trackindex.Index, id detection.TrackID) []float64 {
	frames := idx.SortedFrames(id)
	speeds := make([]float64, 0, len(frames))
	for i := 1; i < len(frames); i++ {
		prev, okPrev := idx.Box(frames[i-1], id)
		curr, okCurr := idx.Box(frames[i], id)
		if !okPrev || !okCurr {
			continue
		}
		px, py := prev.Center()
		cx, cy := curr.Center()
		speeds = append(speeds, floats.Distance([]float64{px, py}, []float64{cx, cy}, 2))
	}
	return speeds
}

func hasSlowdown(speeds []float64, threshold float64) bool {
	for i := 1; i < len(speeds); i++ {
		prev, curr := speeds[i-1], speeds[i]
		if prev > 0 && (prev-curr)/prev > threshold {
			return true
		}
	}
	return false
}

// computeInteraction counts distinct tracks whose box overlaps the subject's
// box in at least one frame.
func computeInteraction(idx *trackindex.Index) int {
	subject := detection.Subject()
	if !idx.HasTrack(subject) {
		return 0
	}
	interacting := make(map[detection.TrackID]struct{})
	for _, frame := range idx.Frames(subject) {
		boxes := idx.BoxesAt(frame)
		subjectBox, ok := boxes[subject]
		if !ok {
			continue
		}
		subjectRect := subjectBox.Rect()
		for id, box := range boxes {
			if id.IsSubject() {
				continue
			}
			if subjectRect.IntersectionArea(box.Rect()) > 0 {
				interacting[id] = struct{}{}
			}
		}
	}
	return len(interacting)
}

// computeAttendance returns the share of frames in which the subject appears.
func computeAttendance(idx *trackindex.Index) float64 {
	total := idx.FrameCount()
	subject := detection.Subject()
	if total == 0 || !idx.HasTrack(subject) {
		return 0
	}
	present := 0
	for _, frame := range idx.Frames(subject) {
		if idx.HasFrame(frame) {
			present++
		}
	}
	return float64(present) / float64(total)
}
