// Package consolidate merges fragmented track identities into one continuous
// subject track.
//
// Upstream tracking assigns a fresh identity whenever the subject is occluded
// or re-enters the frame. Select picks a frame-disjoint set of fragments,
// longest first; Run optionally rewrites the label files so the chosen
// fragments carry the subject sentinel. The selection is greedy and does not
// guarantee maximum frame coverage.
package consolidate

import (
	"cmp"
	"maps"
	"slices"

	"salescope/internal/detection"
)

type fragment struct {
	id     detection.TrackID
	frames map[int]struct{}
	first  int
}

// Select returns the accepted identities ordered by first appearance.
//
// Tracks are visited by descending frame count (ties by TrackID order); a
// track is accepted only when none of its frames is already covered by an
// accepted track.
func Select(records []detection.Record) []detection.TrackID {
	fragments := collectFragments(records)
	if len(fragments) == 0 {
		return nil
	}

	slices.SortFunc(fragments, func(a, b *fragment) int {
		if c := cmp.Compare(len(b.frames), len(a.frames)); c != 0 {
			return c
		}
		return a.id.Compare(b.id)
	})

	used := make(map[int]struct{})
	accepted := make([]*fragment, 0, len(fragments))
	for _, frag := range fragments {
		if overlaps(frag.frames, used) {
			continue
		}
		maps.Copy(used, frag.frames)
		accepted = append(accepted, frag)
	}

	slices.SortFunc(accepted, func(a, b *fragment) int {
		if c := cmp.Compare(a.first, b.first); c != 0 {
			return c
		}
		return a.id.Compare(b.id)
	})
	ids := make([]detection.TrackID, len(accepted))
	for i, frag := range accepted {
		ids[i] = frag.id
	}
	return ids
}

// FrameSets returns the distinct frames observed for every identity.
func FrameSets(records []detection.Record) map[detection.TrackID]map[int]struct{} {
	sets := make(map[detection.TrackID]map[int]struct{})
	for _, r := range records {
		set, ok := sets[r.Track]
		if !ok {
			set = make(map[int]struct{})
			sets[r.Track] = set
		}
		set[r.Frame] = struct{}{}
	}
	return sets
}

func collectFragments(records []detection.Record) []*fragment {
	sets := FrameSets(records)
	fragments := make([]*fragment, 0, len(sets))
	for id, frames := range sets {
		fragments = append(fragments, &fragment{
			id:     id,
			frames: frames,
			first:  slices.Min(slices.Collect(maps.Keys(frames))),
		})
	}
	return fragments
}

func overlaps(frames, used map[int]struct{}) bool {
	small, large := frames, used
	if len(small) > len(large) {
		small, large = large, small
	}
	for frame := range small {
		if _, ok := large[frame]; ok {
			return true
		}
	}
	return false
}
