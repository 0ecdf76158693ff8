package unit

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"sort"
	"strings"
)

// Flag is one unit type capability.
type Flag uint32

const (
	Air Flag = 1 << iota
	Sea
	Destroyer
	CanEvade
	CanNotBeTargetedByAll
	SuicideOnAttack
	SuicideOnDefense
	FirstStrike
	AntiAirGun
	Transport
	CannotTargetAir
	Infrastructure
)

var flagNames = map[Flag]string{
	Air:                   "air",
	Sea:                   "sea",
	Destroyer:             "destroyer",
	CanEvade:              "can_evade",
	CanNotBeTargetedByAll: "can_not_be_targeted_by_all",
	SuicideOnAttack:       "suicide_on_attack",
	SuicideOnDefense:      "suicide_on_defense",
	FirstStrike:           "first_strike",
	AntiAirGun:            "anti_air_gun",
	Transport:             "transport",
	CannotTargetAir:       "cannot_target_air",
	Infrastructure:        "infrastructure",
}

func (f Flag) String() string {
	if name, ok := flagNames[f]; ok {
		return name
	}
	return fmt.Sprintf("flag(%d)", uint32(f))
}

// Flags is a set of unit capabilities.
type Flags uint32

// NewFlags builds a set from individual flags.
func NewFlags(flags ...Flag) Flags {
	var out Flags
	for _, f := range flags {
		out |= Flags(f)
	}
	return out
}

// ParseFlags builds a set from flag names.
func ParseFlags(names []string) (Flags, error) {
	var out Flags
	for _, name := range names {
		flag, ok := flagByName(strings.ToLower(strings.TrimSpace(name)))
		if !ok {
			return 0, fmt.Errorf("unknown unit flag %q", name)
		}
		out |= Flags(flag)
	}
	return out, nil
}

func flagByName(name string) (Flag, bool) {
	for flag, candidate := range flagNames {
		if candidate == name {
			return flag, true
		}
	}
	return 0, false
}

// Has reports whether every given flag is set.
func (f Flags) Has(flags ...Flag) bool {
	for _, flag := range flags {
		if f&Flags(flag) == 0 {
			return false
		}
	}
	return true
}

// With returns a copy with flag set.
func (f Flags) With(flag Flag) Flags {
	return f | Flags(flag)
}

// Names returns the sorted flag names.
func (f Flags) Names() []string {
	names := make([]string, 0, bits.OnesCount32(uint32(f)))
	for flag, name := range flagNames {
		if f&Flags(flag) != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// MarshalJSON encodes flags as a sorted list of names.
func (f Flags) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Names())
}

// UnmarshalJSON decodes a list of flag names.
func (f *Flags) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	parsed, err := ParseFlags(names)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
