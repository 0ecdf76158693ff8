package unit

import (
	"fmt"
	"strings"
)

// Side identifies one of the two opposing groups in a battle.
type Side int

const (
	// Offense is the attacking side.
	Offense Side = iota
	// Defense is the defending side.
	Defense
)

// Sides lists both sides in the order rules check them.
var Sides = [2]Side{Offense, Defense}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Offense {
		return Defense
	}
	return Offense
}

func (s Side) String() string {
	switch s {
	case Offense:
		return "offense"
	case Defense:
		return "defense"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// ParseSide parses "offense" or "defense" case-insensitively.
func ParseSide(value string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "offense", "attacker":
		return Offense, nil
	case "defense", "defender":
		return Defense, nil
	default:
		return 0, fmt.Errorf("unknown side %q", value)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) {
	if s != Offense && s != Defense {
		return nil, fmt.Errorf("invalid side %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Side) UnmarshalText(text []byte) error {
	parsed, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
