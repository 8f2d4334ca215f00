// Package metrics computes the behavioral metrics of one video from its
// track index.
//
// The set is closed: Area, SpeedReduction, Interaction and Attendance. Each
// metric is a pure function of the index dispatched through Compute; absence
// of data yields the metric's zero value, never an error. ComputeAll fans the
// four kinds out concurrently over the same immutable index.
package metrics
