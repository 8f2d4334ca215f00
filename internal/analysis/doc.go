// Package analysis runs the per-video pipeline: probe the video for frame
// dimensions, consolidate subject track fragments, parse the label files,
// build the track index and compute the four metrics.
//
// A Job names one result directory laid out by the tracker as
// <results>/<shop>/<video>/. AnalyzeBatch fans jobs out over a bounded worker
// pool; a failing video is recorded in its Report and never stops the batch.
package analysis
