package priority

import "fmt"

// Config holds scoring weights and tier thresholds. All tunables live in
// configuration so triage policy can change without a code change.
type Config struct {
	UnconsciousWeight    float64 `json:"unconscious_weight" yaml:"unconscious_weight"`
	DrowsyWeight         float64 `json:"drowsy_weight" yaml:"drowsy_weight"`
	NotBreathingWeight   float64 `json:"not_breathing_weight" yaml:"not_breathing_weight"`
	BreathingDiffWeight  float64 `json:"breathing_difficulty_weight" yaml:"breathing_difficulty_weight"`
	AgeExtremeWeight     float64 `json:"age_extreme_weight" yaml:"age_extreme_weight"`
	YoungAgeYears        int     `json:"young_age_years" yaml:"young_age_years"`
	OldAgeYears          int     `json:"old_age_years" yaml:"old_age_years"`
	CardiacArrestWeight  float64 `json:"cardiac_arrest_weight" yaml:"cardiac_arrest_weight"`
	ChestPainWeight      float64 `json:"chest_pain_weight" yaml:"chest_pain_weight"`
	SevereBleedingWeight float64 `json:"severe_bleeding_weight" yaml:"severe_bleeding_weight"`
	StrokeWeight         float64 `json:"stroke_weight" yaml:"stroke_weight"`
	SevereTraumaWeight   float64 `json:"severe_trauma_weight" yaml:"severe_trauma_weight"`
	OverdoseWeight       float64 `json:"overdose_weight" yaml:"overdose_weight"`
	PregnancyWeight      float64 `json:"pregnancy_weight" yaml:"pregnancy_weight"`

	// KeywordWeights boosts the score when the chief complaint contains the
	// keyword (case-insensitive substring match).
	KeywordWeights map[string]float64 `json:"keyword_weights" yaml:"keyword_weights"`

	CriticalThreshold  float64 `json:"critical_threshold" yaml:"critical_threshold"`
	EmergencyThreshold float64 `json:"emergency_threshold" yaml:"emergency_threshold"`
	UrgentThreshold    float64 `json:"urgent_threshold" yaml:"urgent_threshold"`
}

// SetDefaults applies the baseline triage policy.
func (c *Config) SetDefaults() {
	if c.UnconsciousWeight == 0 {
		c.UnconsciousWeight = 40
	}
	if c.DrowsyWeight == 0 {
		c.DrowsyWeight = 15
	}
	if c.NotBreathingWeight == 0 {
		c.NotBreathingWeight = 40
	}
	if c.BreathingDiffWeight == 0 {
		c.BreathingDiffWeight = 20
	}
	if c.AgeExtremeWeight == 0 {
		c.AgeExtremeWeight = 10
	}
	if c.YoungAgeYears == 0 {
		c.YoungAgeYears = 5
	}
	if c.OldAgeYears == 0 {
		c.OldAgeYears = 65
	}
	if c.CardiacArrestWeight == 0 {
		c.CardiacArrestWeight = 45
	}
	if c.ChestPainWeight == 0 {
		c.ChestPainWeight = 20
	}
	if c.SevereBleedingWeight == 0 {
		c.SevereBleedingWeight = 25
	}
	if c.StrokeWeight == 0 {
		c.StrokeWeight = 30
	}
	if c.SevereTraumaWeight == 0 {
		c.SevereTraumaWeight = 25
	}
	if c.OverdoseWeight == 0 {
		c.OverdoseWeight = 15
	}
	if c.PregnancyWeight == 0 {
		c.PregnancyWeight = 15
	}
	if c.KeywordWeights == nil {
		c.KeywordWeights = map[string]float64{
			"cardiac": 25,
			"stroke":  25,
			"trauma":  20,
			"seizure": 15,
			"burn":    10,
		}
	}
	if c.CriticalThreshold == 0 {
		c.CriticalThreshold = 85
	}
	if c.EmergencyThreshold == 0 {
		c.EmergencyThreshold = 60
	}
	if c.UrgentThreshold == 0 {
		c.UrgentThreshold = 30
	}
}

// Validate rejects weight sets that could produce a non-monotonic score.
func (c Config) Validate() error {
	for name, w := range map[string]float64{
		"unconscious_weight":          c.UnconsciousWeight,
		"drowsy_weight":               c.DrowsyWeight,
		"not_breathing_weight":        c.NotBreathingWeight,
		"breathing_difficulty_weight": c.BreathingDiffWeight,
		"age_extreme_weight":          c.AgeExtremeWeight,
		"cardiac_arrest_weight":       c.CardiacArrestWeight,
		"chest_pain_weight":           c.ChestPainWeight,
		"severe_bleeding_weight":      c.SevereBleedingWeight,
		"stroke_weight":               c.StrokeWeight,
		"severe_trauma_weight":        c.SevereTraumaWeight,
		"overdose_weight":             c.OverdoseWeight,
		"pregnancy_weight":            c.PregnancyWeight,
	} {
		if w < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	for k, w := range c.KeywordWeights {
		if w < 0 {
			return fmt.Errorf("keyword weight %q must not be negative", k)
		}
	}
	if !(c.CriticalThreshold > c.EmergencyThreshold && c.EmergencyThreshold > c.UrgentThreshold && c.UrgentThreshold > 0) {
		return fmt.Errorf("thresholds must be strictly decreasing: critical > emergency > urgent > 0")
	}
	return nil
}
