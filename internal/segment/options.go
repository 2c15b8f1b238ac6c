package segment

import (
	"errors"
	"fmt"
	"time"

	"murmur/internal/config"
)

// Options controls chunk planning.
type Options struct {
	MaxDuration        time.Duration
	MinDuration        time.Duration
	SilenceThresholdDB float64
	// Overlap is shared by adjacent chunks, half on each side of a cut.
	Overlap time.Duration
	// FrameSize is the short-window length used for energy measurement.
	FrameSize time.Duration
	// MinSilence is the shortest quiet span accepted as a cut candidate.
	MinSilence time.Duration
	// SearchWindow is the trailing window searched when no candidate fits.
	SearchWindow time.Duration
}

// softThresholdMarginDB relaxes the threshold for trailing-window cuts.
const softThresholdMarginDB = 12.0

// OptionsFromConfig converts segmenter configuration to planner options.
func OptionsFromConfig(cfg config.Segmenter) Options {
	return Options{
		MaxDuration:        seconds(cfg.ChunkMaxDuration),
		MinDuration:        seconds(cfg.ChunkMinDuration),
		SilenceThresholdDB: cfg.SilenceThresholdDB,
		Overlap:            seconds(cfg.ChunkOverlapSeconds),
		FrameSize:          time.Duration(cfg.FrameMillis) * time.Millisecond,
		MinSilence:         time.Duration(cfg.MinSilenceMillis) * time.Millisecond,
		SearchWindow:       seconds(cfg.SearchWindowSeconds),
	}
}

// Validate reports option combinations the planner cannot honour.
func (o Options) Validate() error {
	var errs []error
	if o.MaxDuration <= 0 {
		errs = append(errs, errors.New("max duration must be positive"))
	}
	if o.MinDuration < 0 || o.MinDuration > o.MaxDuration {
		errs = append(errs, fmt.Errorf("min duration %s must be between 0 and max duration %s", o.MinDuration, o.MaxDuration))
	}
	if o.Overlap < 0 || (o.MaxDuration > 0 && o.Overlap >= o.MaxDuration) {
		errs = append(errs, fmt.Errorf("overlap %s must be non-negative and below max duration", o.Overlap))
	}
	// A chunk shorter than the overlap would let its neighbours overlap each other.
	if o.MinDuration < o.Overlap {
		errs = append(errs, fmt.Errorf("min duration %s must be at least the overlap %s", o.MinDuration, o.Overlap))
	}
	if o.FrameSize <= 0 {
		errs = append(errs, errors.New("frame size must be positive"))
	}
	if o.MinSilence < 0 || o.SearchWindow < 0 {
		errs = append(errs, errors.New("min silence and search window must be non-negative"))
	}
	return errors.Join(errs...)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func toSamples(d time.Duration, sampleRate int) int {
	return int(d.Seconds()*float64(sampleRate) + 0.5)
}
