// Package scenario loads battle setups from YAML files.
//
// A scenario names the site, the optional rules, a table of unit types and
// the units each side brings. Units with a count expand into numbered ids.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	platformerrors "github.com/louisbranch/warfront/internal/platform/errors"
	"github.com/louisbranch/warfront/internal/services/battle/domain/state"
	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
)

// DefaultMaxRounds applies when a scenario leaves max_rounds unset.
const DefaultMaxRounds = 100

// Scenario is the YAML document.
type Scenario struct {
	ID             string              `yaml:"id"`
	Site           Site                `yaml:"site"`
	MaxRounds      int                 `yaml:"max_rounds"`
	Seed           int64               `yaml:"seed"`
	Rules          Rules               `yaml:"rules"`
	Players        map[string]string   `yaml:"players"`
	RetreatOptions []string            `yaml:"retreat_options"`
	UnitTypes      map[string]UnitType `yaml:"unit_types"`
	Units          []UnitSpec          `yaml:"units"`
	Dependents     map[string][]string `yaml:"dependents"`
}

// Site is where the battle happens.
type Site struct {
	Name  string `yaml:"name"`
	Water bool   `yaml:"water"`
}

// Rules toggles optional steps.
type Rules struct {
	DiceSides                     int  `yaml:"dice_sides"`
	SubmergeBeforeBattle          bool `yaml:"submerge_before_battle"`
	SubmergeAfterBattle           bool `yaml:"submerge_after_battle"`
	TransportCasualtiesRestricted bool `yaml:"transport_casualties_restricted"`
}

// UnitType is the shared profile of a unit type.
type UnitType struct {
	Attack  int      `yaml:"attack"`
	Defense int      `yaml:"defense"`
	AntiAir int      `yaml:"anti_air"`
	Bombard int      `yaml:"bombard"`
	Cost    int      `yaml:"cost"`
	Flags   []string `yaml:"flags"`
}

// UnitSpec places units of one type on a side.
type UnitSpec struct {
	ID      string `yaml:"id"`
	Type    string `yaml:"type"`
	Side    string `yaml:"side"`
	Count   int    `yaml:"count"`
	Bombard bool   `yaml:"bombard"`
}

// Load reads and parses a scenario file.
func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a scenario document. Unknown keys are rejected.
func Parse(data []byte) (Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		if errors.Is(err, io.EOF) {
			return Scenario{}, invalid("scenario is empty")
		}
		return Scenario{}, invalid("%v", err)
	}
	return sc, nil
}

// State builds round-one battle state. newID supplies the battle id when
// the scenario has none.
func (sc Scenario) State(newID func() (string, error)) (state.State, error) {
	battleID := strings.TrimSpace(sc.ID)
	if battleID == "" {
		if newID == nil {
			return state.State{}, invalid("battle id is required")
		}
		generated, err := newID()
		if err != nil {
			return state.State{}, err
		}
		battleID = generated
	}
	if strings.TrimSpace(sc.Site.Name) == "" {
		return state.State{}, invalid("site name is required")
	}
	if sc.MaxRounds < 0 {
		return state.State{}, invalid("max_rounds %d is negative", sc.MaxRounds)
	}
	if sc.Rules.DiceSides < 0 {
		return state.State{}, invalid("dice_sides %d is negative", sc.Rules.DiceSides)
	}
	maxRounds := sc.MaxRounds
	if maxRounds == 0 {
		maxRounds = DefaultMaxRounds
	}

	units, bombarding, err := sc.units()
	if err != nil {
		return state.State{}, err
	}
	st := state.New(battleID, state.Site{Name: sc.Site.Name, Water: sc.Site.Water}, maxRounds, state.Rules{
		DiceSides:                     sc.Rules.DiceSides,
		SubmergeBeforeBattle:          sc.Rules.SubmergeBeforeBattle,
		SubmergeAfterBattle:           sc.Rules.SubmergeAfterBattle,
		TransportCasualtiesRestricted: sc.Rules.TransportCasualtiesRestricted,
	}, units, bombarding)
	st.Seed = sc.Seed
	st.RetreatOptions = slices.Clone(sc.RetreatOptions)

	for name, player := range sc.Players {
		side, err := unit.ParseSide(name)
		if err != nil {
			return state.State{}, invalid("players: %v", err)
		}
		st.Players[side] = player
	}
	for host, deps := range sc.Dependents {
		hostUnit, ok := st.Units[unit.ID(host)]
		if !ok {
			return state.State{}, invalid("dependents: unknown host %q", host)
		}
		for _, dep := range deps {
			depUnit, ok := st.Units[unit.ID(dep)]
			if !ok {
				return state.State{}, invalid("dependents: %q carries unknown unit %q", host, dep)
			}
			if depUnit.Side != hostUnit.Side {
				return state.State{}, invalid("dependents: %q and %q are on different sides", host, dep)
			}
			st.Dependents[hostUnit.ID] = append(st.Dependents[hostUnit.ID], depUnit.ID)
		}
	}
	if err := st.Validate(); err != nil {
		return state.State{}, invalid("%v", err)
	}
	return st, nil
}

func (sc Scenario) units() ([]unit.Unit, []unit.ID, error) {
	var (
		units      []unit.Unit
		bombarding []unit.ID
	)
	seen := map[unit.ID]bool{}
	numbered := map[string]int{}
	for i, spec := range sc.Units {
		profile, ok := sc.UnitTypes[spec.Type]
		if !ok {
			return nil, nil, invalid("units[%d]: unknown unit type %q", i, spec.Type)
		}
		side, err := unit.ParseSide(spec.Side)
		if err != nil {
			return nil, nil, invalid("units[%d]: %v", i, err)
		}
		if spec.Bombard && side != unit.Offense {
			return nil, nil, invalid("units[%d]: only the offense bombards", i)
		}
		flags, err := unit.ParseFlags(profile.Flags)
		if err != nil {
			return nil, nil, invalid("unit type %q: %v", spec.Type, err)
		}
		count := spec.Count
		if count < 0 {
			return nil, nil, invalid("units[%d]: count %d is negative", i, count)
		}
		if count == 0 {
			count = 1
		}
		base := strings.TrimSpace(spec.ID)
		if base == "" {
			base = fmt.Sprintf("%s-%s", side, spec.Type)
		}
		for range count {
			id := unit.ID(base)
			if count > 1 || spec.ID == "" {
				numbered[base]++
				id = unit.ID(fmt.Sprintf("%s-%d", base, numbered[base]))
			}
			if seen[id] {
				return nil, nil, invalid("units[%d]: duplicate unit id %q", i, id)
			}
			seen[id] = true
			units = append(units, unit.Unit{
				ID:      id,
				Type:    spec.Type,
				Side:    side,
				Flags:   flags,
				Attack:  profile.Attack,
				Defense: profile.Defense,
				AntiAir: profile.AntiAir,
				Bombard: profile.Bombard,
				Cost:    profile.Cost,
			})
			if spec.Bombard {
				bombarding = append(bombarding, id)
			}
		}
	}
	return units, bombarding, nil
}

func invalid(format string, args ...any) error {
	reason := fmt.Sprintf(format, args...)
	return platformerrors.WithMetadata(platformerrors.CodeScenarioInvalid, "invalid scenario: "+reason, map[string]string{"Reason": reason})
}
