package rte

import "fmt"

// TargetKind is the kind of atmospheric quantity a Jacobian row belongs to.
type TargetKind int

const (
	TargetTemperature TargetKind = iota
	TargetVMR
	TargetFieldU
	TargetFieldV
	TargetFieldW
)

func (k TargetKind) String() string {
	switch k {
	case TargetTemperature:
		return "temperature"
	case TargetVMR:
		return "vmr"
	case TargetFieldU:
		return "field_u"
	case TargetFieldV:
		return "field_v"
	case TargetFieldW:
		return "field_w"
	default:
		return fmt.Sprintf("target(%d)", int(k))
	}
}

// Target is a retrieval quantity. Species is only used for TargetVMR.
// Jacobian values are per point: the derivative of the sensor radiance with
// respect to the quantity at each path point.
type Target struct {
	Kind    TargetKind
	Species string
}

func (t Target) String() string {
	if t.Kind == TargetVMR {
		return "vmr:" + t.Species
	}
	return t.Kind.String()
}

func (t Target) validate() error {
	switch t.Kind {
	case TargetTemperature, TargetFieldU, TargetFieldV, TargetFieldW:
		return nil
	case TargetVMR:
		if t.Species == "" {
			return fmt.Errorf("%w: vmr target without species", ErrShapeMismatch)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown target kind %d", ErrShapeMismatch, int(t.Kind))
	}
}
