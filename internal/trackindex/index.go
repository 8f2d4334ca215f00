// Package trackindex aggregates detection records of one video into
// frame-indexed and track-indexed views.
//
// An Index is built once from an immutable record batch and never mutated.
// Rewriting the label files (see package consolidate) invalidates every Index
// built from them; rebuild before computing metrics.
package trackindex

import (
	"maps"
	"slices"

	"salescope/internal/detection"
)

// Role classifies a track.
type Role uint8

const (
	RoleOther Role = iota
	RoleSubject
)

func (r Role) String() string {
	if r == RoleSubject {
		return "salesman"
	}
	return "other"
}

// Info is the metadata fixed by the first observation of a track.
type Info struct {
	ClassID int
	Role    Role
}

// Index is the read-only view of one video's detections.
type Index struct {
	dims   detection.Dimensions
	frames map[int]map[detection.TrackID]detection.PixelBox
	tracks map[detection.TrackID][]int
	info   map[detection.TrackID]Info
}

// Build aggregates records into an Index. Boxes for the same frame and track
// overwrite each other (last write wins); a frame is listed once per track.
// Build fails only when dims cannot produce pixel boxes.
func Build(records []detection.Record, dims detection.Dimensions) (*Index, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	idx := &Index{
		dims:   dims,
		frames: make(map[int]map[detection.TrackID]detection.PixelBox),
		tracks: make(map[detection.TrackID][]int),
		info:   make(map[detection.TrackID]Info),
	}
	for _, record := range records {
		boxes, ok := idx.frames[record.Frame]
		if !ok {
			boxes = make(map[detection.TrackID]detection.PixelBox)
			idx.frames[record.Frame] = boxes
		}
		if _, seen := boxes[record.Track]; !seen {
			idx.tracks[record.Track] = append(idx.tracks[record.Track], record.Frame)
		}
		boxes[record.Track] = record.PixelBox(dims)

		if _, ok := idx.info[record.Track]; !ok {
			role := RoleOther
			if record.Track.IsSubject() {
				role = RoleSubject
			}
			idx.info[record.Track] = Info{ClassID: record.ClassID, Role: role}
		}
	}
	return idx, nil
}

// Dimensions returns the frame size the boxes were projected with.
func (idx *Index) Dimensions() detection.Dimensions { return idx.dims }

// FrameCount returns the number of distinct frames with at least one box.
func (idx *Index) FrameCount() int { return len(idx.frames) }

// FrameIndices returns every frame index in ascending order.
func (idx *Index) FrameIndices() []int {
	return slices.Sorted(maps.Keys(idx.frames))
}

// HasFrame reports whether any detection exists for frame.
func (idx *Index) HasFrame(frame int) bool {
	_, ok := idx.frames[frame]
	return ok
}

// TrackIDs returns all identities ordered by TrackID.Compare.
func (idx *Index) TrackIDs() []detection.TrackID {
	return slices.SortedFunc(maps.Keys(idx.tracks), detection.TrackID.Compare)
}

// HasTrack reports whether id was observed at all.
func (idx *Index) HasTrack(id detection.TrackID) bool {
	return len(idx.tracks[id]) > 0
}

// Frames returns the frames of id in observation order.
func (idx *Index) Frames(id detection.TrackID) []int {
	return slices.Clone(idx.tracks[id])
}

// SortedFrames returns the frames of id in ascending order.
func (idx *Index) SortedFrames(id detection.TrackID) []int {
	frames := idx.Frames(id)
	slices.Sort(frames)
	return frames
}

// Box returns the box of id in frame.
func (idx *Index) Box(frame int, id detection.TrackID) (detection.PixelBox, bool) {
	box, ok := idx.frames[frame][id]
	return box, ok
}

// BoxesAt returns a copy of every box in frame keyed by track.
func (idx *Index) BoxesAt(frame int) map[detection.TrackID]detection.PixelBox {
	return maps.Clone(idx.frames[frame])
}

// Info returns the first-seen metadata of id.
func (idx *Index) Info(id detection.TrackID) (Info, bool) {
	info, ok := idx.info[id]
	return info, ok
}
