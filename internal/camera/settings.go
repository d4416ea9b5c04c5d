// Package camera positions the viewer camera to frame loaded models,
// using configurable distance heuristics and fixed preset views.
package camera

// Settings holds the distance heuristics used when framing models.
// Defaults suit building-scale models measured in meters; all values
// can be overridden through config or a partial SettingsUpdate.
type Settings struct {
	Near float64 `yaml:"near"`
	Far  float64 `yaml:"far"`

	CloseFitMultiplier float64 `yaml:"close_fit_multiplier"`
	FarFitMultiplier   float64 `yaml:"far_fit_multiplier"`
	CloseHeightOffset  float64 `yaml:"close_height_offset"`
	FarHeightOffset    float64 `yaml:"far_height_offset"`

	// MinDistance is the floor for the computed camera distance, so a
	// single-point model never collapses the camera onto its target.
	MinDistance float64 `yaml:"min_distance"`

	// Progressive scale thresholds: when the largest model dimension
	// exceeds a threshold, the base distance is multiplied by that
	// threshold's scale. Checks run in ascending order and the largest
	// exceeded threshold wins; scales do not compound.
	MediumThreshold    float64 `yaml:"medium_threshold"`
	MediumScale        float64 `yaml:"medium_scale"`
	LargeThreshold     float64 `yaml:"large_threshold"`
	LargeScale         float64 `yaml:"large_scale"`
	VeryLargeThreshold float64 `yaml:"very_large_threshold"`
	VeryLargeScale     float64 `yaml:"very_large_scale"`
}

// DefaultSettings returns the settings applied at session start.
func DefaultSettings() Settings {
	return Settings{
		Near:               0.1,
		Far:                10000,
		CloseFitMultiplier: 5.0,
		FarFitMultiplier:   8.0,
		CloseHeightOffset:  2.0,
		FarHeightOffset:    3.0,
		MinDistance:        200,
		MediumThreshold:    500,
		MediumScale:        2,
		LargeThreshold:     2000,
		LargeScale:         3,
		VeryLargeThreshold: 5000,
		VeryLargeScale:     4,
	}
}

// SettingsUpdate is a partial settings change; nil fields keep their
// current value.
type SettingsUpdate struct {
	Near *float64 `yaml:"near" json:"near"`
	Far  *float64 `yaml:"far" json:"far"`

	CloseFitMultiplier *float64 `yaml:"close_fit_multiplier" json:"closeFitMultiplier"`
	FarFitMultiplier   *float64 `yaml:"far_fit_multiplier" json:"farFitMultiplier"`
	CloseHeightOffset  *float64 `yaml:"close_height_offset" json:"closeHeightOffset"`
	FarHeightOffset    *float64 `yaml:"far_height_offset" json:"farHeightOffset"`
	MinDistance        *float64 `yaml:"min_distance" json:"minDistance"`

	MediumThreshold    *float64 `yaml:"medium_threshold" json:"mediumThreshold"`
	MediumScale        *float64 `yaml:"medium_scale" json:"mediumScale"`
	LargeThreshold     *float64 `yaml:"large_threshold" json:"largeThreshold"`
	LargeScale         *float64 `yaml:"large_scale" json:"largeScale"`
	VeryLargeThreshold *float64 `yaml:"very_large_threshold" json:"veryLargeThreshold"`
	VeryLargeScale     *float64 `yaml:"very_large_scale" json:"veryLargeScale"`
}

// Apply merges the non-nil fields of u into s.
func (s *Settings) Apply(u SettingsUpdate) {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&s.Near, u.Near)
	set(&s.Far, u.Far)
	set(&s.CloseFitMultiplier, u.CloseFitMultiplier)
	set(&s.FarFitMultiplier, u.FarFitMultiplier)
	set(&s.CloseHeightOffset, u.CloseHeightOffset)
	set(&s.FarHeightOffset, u.FarHeightOffset)
	set(&s.MinDistance, u.MinDistance)
	set(&s.MediumThreshold, u.MediumThreshold)
	set(&s.MediumScale, u.MediumScale)
	set(&s.LargeThreshold, u.LargeThreshold)
	set(&s.LargeScale, u.LargeScale)
	set(&s.VeryLargeThreshold, u.VeryLargeThreshold)
	set(&s.VeryLargeScale, u.VeryLargeScale)
}
