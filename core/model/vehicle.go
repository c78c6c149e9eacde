package model

import "fmt"

// CapabilityClass orders transport units by clinical capability. A vehicle
// satisfies a requirement when its class is at least the required one.
type CapabilityClass int

const (
	ClassBLS  CapabilityClass = iota + 1 // basic life support
	ClassALS                             // advanced life support
	ClassMICU                            // mobile intensive care unit
)

func (c CapabilityClass) String() string {
	switch c {
	case ClassBLS:
		return "BLS"
	case ClassALS:
		return "ALS"
	case ClassMICU:
		return "MICU"
	default:
		return fmt.Sprintf("CapabilityClass(%d)", int(c))
	}
}

// Satisfies reports whether the class meets the minimum requirement.
// A zero requirement is satisfied by any class.
func (c CapabilityClass) Satisfies(min CapabilityClass) bool {
	return min == 0 || c >= min
}

// ParseCapabilityClass maps the wire representation to a class.
func ParseCapabilityClass(s string) (CapabilityClass, error) {
	switch s {
	case "BLS", "bls":
		return ClassBLS, nil
	case "ALS", "als":
		return ClassALS, nil
	case "MICU", "micu":
		return ClassMICU, nil
	}
	return 0, fmt.Errorf("unknown capability class %q", s)
}

// VehicleStatus is the operational state of a transport unit.
type VehicleStatus string

const (
	VehicleAvailable    VehicleStatus = "available"
	VehicleAssigned     VehicleStatus = "assigned"
	VehicleEnRoute      VehicleStatus = "en_route"
	VehicleOnScene      VehicleStatus = "on_scene"
	VehicleTransporting VehicleStatus = "transporting"
	VehicleOutOfService VehicleStatus = "out_of_service"
)

// Vehicle is a dispatchable transport unit. Its live position is held by the
// location store, not on the struct, so that matching always reads the most
// recent sample.
type Vehicle struct {
	ID       string          `json:"id"`
	Callsign string          `json:"callsign"`
	Class    CapabilityClass `json:"class"`
	Status   VehicleStatus   `json:"status"`
}

// Dispatchable reports whether the vehicle can accept a new assignment.
func (v Vehicle) Dispatchable() bool { return v.Status == VehicleAvailable }
