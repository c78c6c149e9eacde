// Package priority scores incoming emergency calls. The engine is a pure
// function of the intake fields: no I/O, no clock, no side effects. Missing
// or unknown answers contribute zero weight, so a score can always be
// computed.
package priority

import (
	"strings"

	"github.com/careline/dispatch/core/model"
)

// Engine derives a (tier, score) pair from structured intake answers.
type Engine struct {
	cfg Config
}

// New returns an engine for the given weight configuration. Defaults are
// applied for any zero-valued field.
func New(cfg Config) Engine {
	cfg.SetDefaults()
	return Engine{cfg: cfg}
}

// Score computes the urgency of an intake. The score is clamped to [0, 100]
// and the tier follows the configured thresholds.
func (e Engine) Score(in model.Intake) (model.PriorityTier, float64) {
	score := 0.0

	switch in.Consciousness {
	case model.Unconscious:
		score += e.cfg.UnconsciousWeight
	case model.Drowsy:
		score += e.cfg.DrowsyWeight
	}

	switch in.Breathing {
	case model.NotBreathing:
		score += e.cfg.NotBreathingWeight
	case model.BreathingDifficulty:
		score += e.cfg.BreathingDiffWeight
	}

	if in.Age != nil {
		if *in.Age <= e.cfg.YoungAgeYears || *in.Age >= e.cfg.OldAgeYears {
			score += e.cfg.AgeExtremeWeight
		}
	}

	if in.CardiacArrest {
		score += e.cfg.CardiacArrestWeight
	}
	if in.ChestPain {
		score += e.cfg.ChestPainWeight
	}
	if in.SevereBleeding {
		score += e.cfg.SevereBleedingWeight
	}
	if in.StrokeSymptoms {
		score += e.cfg.StrokeWeight
	}
	if in.SevereTrauma {
		score += e.cfg.SevereTraumaWeight
	}
	if in.Overdose {
		score += e.cfg.OverdoseWeight
	}
	if in.PregnancyComplications {
		score += e.cfg.PregnancyWeight
	}

	complaint := strings.ToLower(in.ChiefComplaint)
	for kw, w := range e.cfg.KeywordWeights {
		if strings.Contains(complaint, kw) {
			score += w
		}
	}

	if score > 100 {
		score = 100
	}
	return e.tierFor(score), score
}

func (e Engine) tierFor(score float64) model.PriorityTier {
	switch {
	case score >= e.cfg.CriticalThreshold:
		return model.TierCritical
	case score >= e.cfg.EmergencyThreshold:
		return model.TierEmergency
	case score >= e.cfg.UrgentThreshold:
		return model.TierUrgent
	default:
		return model.TierRoutine
	}
}
