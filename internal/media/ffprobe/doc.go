// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no salescope-specific dependencies and could be extracted
// as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual video/audio stream properties
//   - Format: container-level metadata (name, stream count, duration)
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// Helper methods on Result count video streams and expose the primary video
// stream's pixel size.
package ffprobe
