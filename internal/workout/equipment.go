package workout

import (
	"fmt"
)

// EquipmentKind names an equipment variant in the persisted form.
type EquipmentKind string

const (
	KindDumbbell   EquipmentKind = "dumbbell"
	KindBarbell    EquipmentKind = "barbell"
	KindMachine    EquipmentKind = "machine"
	KindCable      EquipmentKind = "cable"
	KindBodyweight EquipmentKind = "bodyweight"
)

// Equipment is a closed set of variants: Dumbbell, Barbell, Machine, Cable and Bodyweight. Each
// carries only the increment configuration it needs.
type Equipment interface {
	isEquipment()
	normalize() Equipment
}

// Dumbbell weights are logged per hand.
type Dumbbell struct {
	IncrementPerHand float64
}

// Barbell loads are logged as per-side plates on a bar of BarWeight.
type Barbell struct {
	BarWeight        float64
	IncrementPerSide float64
}

// Machine loads are logged as the stack total.
type Machine struct {
	Increment float64
}

// Cable loads are logged as the stack total.
type Cable struct {
	Increment float64
}

// Bodyweight loads are the added weight on top of the lifter's body.
type Bodyweight struct {
	Increment float64
}

func (Dumbbell) isEquipment()   {}
func (Barbell) isEquipment()    {}
func (Machine) isEquipment()    {}
func (Cable) isEquipment()      {}
func (Bodyweight) isEquipment() {}

func (d Dumbbell) normalize() Equipment {
	d.IncrementPerHand = max(d.IncrementPerHand, 0)
	return d
}

func (b Barbell) normalize() Equipment {
	b.BarWeight = max(b.BarWeight, 0)
	b.IncrementPerSide = max(b.IncrementPerSide, 0)
	return b
}

func (m Machine) normalize() Equipment {
	m.Increment = max(m.Increment, 0)
	return m
}

func (c Cable) normalize() Equipment {
	c.Increment = max(c.Increment, 0)
	return c
}

func (b Bodyweight) normalize() Equipment {
	b.Increment = max(b.Increment, 0)
	return b
}

// Equipment increment defaults.
const (
	DefaultDumbbellIncrementPerHand = 5
	DefaultBarbellIncrementPerSide  = 10
	DefaultBarWeight                = 45
	DefaultMachineIncrement         = 10
	DefaultBodyweightIncrement      = 5
)

// DefaultEquipment returns the variant for kind with default increments. An empty kind is treated
// as a machine so that documents written before equipment existed still load.
func DefaultEquipment(kind EquipmentKind) (Equipment, error) {
	switch kind {
	case KindDumbbell:
		return Dumbbell{IncrementPerHand: DefaultDumbbellIncrementPerHand}, nil
	case KindBarbell:
		return Barbell{BarWeight: DefaultBarWeight, IncrementPerSide: DefaultBarbellIncrementPerSide}, nil
	case KindMachine, "":
		return Machine{Increment: DefaultMachineIncrement}, nil
	case KindCable:
		return Cable{Increment: DefaultMachineIncrement}, nil
	case KindBodyweight:
		return Bodyweight{Increment: DefaultBodyweightIncrement}, nil
	default:
		return nil, fmt.Errorf("unknown equipment %q", kind)
	}
}

// KindOf returns the persisted name of eq, or "" for nil.
func KindOf(eq Equipment) EquipmentKind {
	switch eq.(type) {
	case Dumbbell:
		return KindDumbbell
	case Barbell:
		return KindBarbell
	case Machine:
		return KindMachine
	case Cable:
		return KindCable
	case Bodyweight:
		return KindBodyweight
	default:
		return ""
	}
}

// Increment is the total load change of one progression step: both hands for dumbbells, both
// sides for barbells and the flat increment otherwise.
func Increment(eq Equipment) float64 {
	switch e := eq.(type) {
	case Dumbbell:
		return 2 * max(e.IncrementPerHand, 0) //nolint:mnd // two hands
	case Barbell:
		return 2 * max(e.IncrementPerSide, 0) //nolint:mnd // two sides
	case Machine:
		return max(e.Increment, 0)
	case Cable:
		return max(e.Increment, 0)
	case Bodyweight:
		return max(e.Increment, 0)
	default:
		return 0
	}
}
