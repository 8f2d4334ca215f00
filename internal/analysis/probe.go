package analysis

import (
	"context"
	"fmt"
	"os"
	"time"

	"salescope/internal/config"
	"salescope/internal/detection"
	"salescope/internal/media/ffprobe"
)

// Prober reports the pixel size of a video.
type Prober interface {
	Dimensions(ctx context.Context, videoPath string) (detection.Dimensions, error)
}

// FFprobe reads dimensions with the ffprobe binary. A zero Timeout disables
// the per-call deadline.
type FFprobe struct {
	Binary  string
	Timeout time.Duration
}

// NewFFprobe builds a prober from the [ffprobe] config section.
func NewFFprobe(cfg *config.Config) FFprobe {
	return FFprobe{Binary: cfg.FFprobeBinary(), Timeout: cfg.FFprobeTimeout()}
}

// Dimensions probes videoPath. Every failure wraps detection.ErrDimensionsUnavailable.
func (p FFprobe) Dimensions(ctx context.Context, videoPath string) (detection.Dimensions, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return detection.Dimensions{}, fmt.Errorf("%w: %w", detection.ErrDimensionsUnavailable, err)
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	result, err := ffprobe.Inspect(ctx, p.Binary, videoPath)
	if err != nil {
		return detection.Dimensions{}, fmt.Errorf("%w: %w", detection.ErrDimensionsUnavailable, err)
	}
	width, height, err := result.Dimensions()
	if err != nil {
		return detection.Dimensions{}, fmt.Errorf("%w: %w", detection.ErrDimensionsUnavailable, err)
	}
	dims := detection.Dimensions{Width: width, Height: height}
	if err := dims.Validate(); err != nil {
		return detection.Dimensions{}, err
	}
	return dims, nil
}
