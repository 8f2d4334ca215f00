// Package detection parses per-frame tracker label files into typed records.
//
// Each label file holds the detections of one sampled frame; its name ends in
// `_<frame>.<ext>` and every line carries
// `class_id x_center y_center w h track_id` with coordinates normalized to the
// source frame. Records keep the normalized geometry; pixel boxes are derived
// on demand from the video's Dimensions.
//
// Key types:
//   - TrackID: integer identity or opaque token; the integer -1 is the subject
//   - Record: one parsed detection line
//   - PixelBox: a record projected onto the video's pixel grid
//
// Parsing never fails on malformed content: short or non-numeric lines are
// dropped silently and files without a frame index are skipped with a warning.
package detection
