package model

import (
	"fmt"
	"time"

	"github.com/careline/dispatch/core/geo"
)

// PriorityTier buckets calls by urgency. Higher tiers are always served
// before lower ones.
type PriorityTier int

const (
	TierRoutine PriorityTier = iota
	TierUrgent
	TierEmergency
	TierCritical
)

func (t PriorityTier) String() string {
	switch t {
	case TierRoutine:
		return "routine"
	case TierUrgent:
		return "urgent"
	case TierEmergency:
		return "emergency"
	case TierCritical:
		return "critical"
	default:
		return fmt.Sprintf("PriorityTier(%d)", int(t))
	}
}

// CallStatus tracks a call through intake to resolution.
type CallStatus string

const (
	CallReceived  CallStatus = "received"
	CallQueued    CallStatus = "queued"
	CallAssigned  CallStatus = "assigned"
	CallCompleted CallStatus = "completed"
	CallCancelled CallStatus = "cancelled"
)

// Consciousness is the caller-reported state of the patient.
type Consciousness string

const (
	Conscious            Consciousness = "conscious"
	Drowsy               Consciousness = "drowsy"
	Unconscious          Consciousness = "unconscious"
	ConsciousnessUnknown Consciousness = "unknown"
)

// Breathing is the caller-reported breathing assessment.
type Breathing string

const (
	BreathingNormal     Breathing = "normal"
	BreathingDifficulty Breathing = "difficulty"
	NotBreathing        Breathing = "not_breathing"
	BreathingUnknown    Breathing = "unknown"
)

// Intake holds the structured answers collected by the call taker. Every
// assessment field is optional; unknown answers simply contribute nothing to
// the priority score.
type Intake struct {
	CallerName  string `json:"caller_name" validate:"omitempty,max=120"`
	CallerPhone string `json:"caller_phone" validate:"omitempty,e164"`

	Address  string    `json:"address" validate:"required"`
	Location geo.Point `json:"location"`

	ChiefComplaint string `json:"chief_complaint" validate:"required"`
	Age            *int   `json:"age,omitempty" validate:"omitempty,gte=0,lte=150"`

	Consciousness Consciousness `json:"consciousness,omitempty"`
	Breathing     Breathing     `json:"breathing,omitempty"`

	CardiacArrest          bool `json:"cardiac_arrest"`
	ChestPain              bool `json:"chest_pain"`
	SevereBleeding         bool `json:"severe_bleeding"`
	StrokeSymptoms         bool `json:"stroke_symptoms"`
	SevereTrauma           bool `json:"severe_trauma"`
	Overdose               bool `json:"overdose"`
	PregnancyComplications bool `json:"pregnancy_complications"`

	// RequiredCapability is the minimum vehicle class the responder must
	// have; zero accepts any class.
	RequiredCapability CapabilityClass `json:"required_capability,omitempty"`
	// RequiredSpecialty constrains the destination facility.
	RequiredSpecialty string `json:"required_specialty,omitempty"`
}

// EmergencyCall is a scored intake awaiting or undergoing dispatch.
type EmergencyCall struct {
	ID         string       `json:"id"`
	Number     string       `json:"number"`
	ReceivedAt time.Time    `json:"received_at"`
	Intake     Intake       `json:"intake"`
	Tier       PriorityTier `json:"tier"`
	Score      float64      `json:"score"`
	Status     CallStatus   `json:"status"`
}

// CallNumber builds the human-facing identifier, e.g. EC-20260831-1A2B3C.
func CallNumber(at time.Time, suffix string) string {
	return fmt.Sprintf("EC-%s-%s", at.Format("20060102"), suffix)
}

// Overdue reports whether an unresolved call has waited past the response
// target. Completed and cancelled calls are never overdue.
func (c EmergencyCall) Overdue(now time.Time, target time.Duration) bool {
	if c.Status == CallCompleted || c.Status == CallCancelled {
		return false
	}
	return now.Sub(c.ReceivedAt) > target
}
