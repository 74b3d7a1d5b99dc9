package preprocess

import (
	"fmt"

	"github.com/banshee-data/sprint.report/internal/config"
)

// Stage names one step of the chain.
type Stage string

const (
	StageResize     Stage = "resize"
	StageNormalize  Stage = "normalize"
	StageDenoise    Stage = "denoise"
	StageDeblur     Stage = "deblur"
	StageBackground Stage = "background_subtract"
	StageROICrop    Stage = "roi_crop"
)

// Config selects the enabled stages. Resize is always applied.
type Config struct {
	TargetWidth        int
	TargetHeight       int
	Normalize          bool
	Denoise            bool
	Deblur             bool
	BackgroundSubtract bool
	ROICrop            bool

	// Background configures the background model; ignored unless
	// BackgroundSubtract is set.
	Background BackgroundParams
}

// ConfigFromSprint builds a Config from a loaded SprintConfig.
func ConfigFromSprint(cfg *config.SprintConfig) Config {
	return Config{
		TargetWidth:        cfg.GetTargetWidth(),
		TargetHeight:       cfg.GetTargetHeight(),
		Normalize:          cfg.GetNormalize(),
		Denoise:            cfg.GetDenoise(),
		Deblur:             cfg.GetDeblur(),
		BackgroundSubtract: cfg.GetBackgroundSubtract(),
		ROICrop:            cfg.GetROICrop(),
		Background:         BackgroundParamsFromSprint(cfg),
	}
}

// Validate checks the resize target.
func (c Config) Validate() error {
	if c.TargetWidth <= 0 || c.TargetHeight <= 0 {
		return fmt.Errorf("resize target must be positive, got %dx%d", c.TargetWidth, c.TargetHeight)
	}
	return nil
}

// Stages lists the enabled stages in execution order.
func (c Config) Stages() []Stage {
	stages := []Stage{StageResize}
	if c.Normalize {
		stages = append(stages, StageNormalize)
	}
	if c.Denoise {
		stages = append(stages, StageDenoise)
	}
	if c.Deblur {
		stages = append(stages, StageDeblur)
	}
	if c.BackgroundSubtract {
		stages = append(stages, StageBackground)
	}
	if c.ROICrop {
		stages = append(stages, StageROICrop)
	}
	return stages
}
