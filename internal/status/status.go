// Package status reduces the host signals to the single indicator status.
package status

import (
	"errors"
	"fmt"
)

// Status is the resolved state rendered on the lights.
type Status int

const (
	NotInUse Status = iota
	InUse
	Locked
)

// ErrUnknownStatus is returned by Parse for unrecognised names.
var ErrUnknownStatus = errors.New("unknown status")

// All lists every status in priority order, lowest first.
var All = []Status{NotInUse, InUse, Locked}

func (s Status) String() string {
	switch s {
	case NotInUse:
		return "not-in-use"
	case InUse:
		return "in-use"
	case Locked:
		return "locked"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Parse converts the text form of a status back to its value.
func Parse(s string) (Status, error) {
	for _, st := range All {
		if st.String() == s {
			return st, nil
		}
	}
	return NotInUse, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Resolve applies the fixed priority: a locked session always wins, then
// microphone capture, otherwise not in use.
func Resolve(micInUse, sessionLocked bool) Status {
	switch {
	case sessionLocked:
		return Locked
	case micInUse:
		return InUse
	default:
		return NotInUse
	}
}
