// Package navio persists navigation states as flat records, either as
// whitespace-separated text or as fixed-layout little-endian binary.
//
// A record is the ordered field list
//
//	T X Y Z DX DY DZ A E
//
// holding the position timestamp, the Cartesian position, the Cartesian line
// of sight and the two ellipsoid parameters.
package navio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/signalsfoundry/limb-sounder/geom"
)

var (
	// ErrShortRecord reports a record with fewer fields or bytes than the
	// layout requires.
	ErrShortRecord = errors.New("short nav record")
	// ErrBadRecord reports a record whose fields do not parse or describe an
	// invalid ellipsoid.
	ErrBadRecord = errors.New("malformed nav record")
	// ErrUnknownFormat reports an unrecognised format name or value.
	ErrUnknownFormat = errors.New("unknown nav format")
)

// Format selects the on-disk encoding.
type Format int

const (
	FormatText Format = iota
	FormatBinary
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatBinary:
		return "binary"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat maps "text" or "binary" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "txt", "":
		return FormatText, nil
	case "binary", "bin":
		return FormatBinary, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// recordFields is the number of float64 values in one record.
const recordFields = 9

type record [recordFields]float64

func encode(n geom.Nav) record {
	return record{
		n.Pos.T, n.Pos.X, n.Pos.Y, n.Pos.Z,
		n.Los.DX, n.Los.DY, n.Los.DZ,
		n.Ellipsoid.A, n.Ellipsoid.E,
	}
}

func decode(r record) (geom.Nav, error) {
	el, err := geom.NewEllipsoid(r[7], r[8])
	if err != nil {
		return geom.Nav{}, fmt.Errorf("%w: %v", ErrBadRecord, err)
	}
	return geom.Nav{
		Pos:       geom.Cartesian{T: r[0], X: r[1], Y: r[2], Z: r[3]},
		Los:       geom.LosCartesian{DX: r[4], DY: r[5], DZ: r[6]},
		Ellipsoid: el,
	}, nil
}
