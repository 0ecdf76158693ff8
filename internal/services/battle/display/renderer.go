package display

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
)

// Localizer is the minimal message-printer contract required by Render.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

var supported = language.NewMatcher([]language.Tag{
	language.English,
	language.MustParse("pt-BR"),
})

// NewPrinter returns a printer for the closest supported locale.
func NewPrinter(locale string) *message.Printer {
	tag, _ := language.Parse(strings.TrimSpace(locale))
	_, index, _ := supported.Match(tag)
	if index == 1 {
		return message.NewPrinter(language.MustParse("pt-BR"))
	}
	return message.NewPrinter(language.English)
}

// Render returns the localized one-line description of evt.
func Render(loc Localizer, evt Event) string {
	side := localize(loc, "battle.side."+evt.Side.String())
	switch evt.Kind {
	case KindRoundSteps:
		return localize(loc, "battle.round.steps", evt.Round, strings.Join(evt.Steps, ", "))
	case KindDiceRolled:
		return localize(loc, "battle.dice.rolled", side, evt.Cause, joinInts(evt.Rolls), evt.Hits)
	case KindCasualtiesSelected:
		return localize(loc, "battle.casualties.selected", side, joinIDs(evt.Units))
	case KindUnitsRemoved, KindSuicide:
		return renderLosses(loc, evt)
	case KindUnitsSubmerged:
		return localize(loc, "battle.units.submerged", side, joinIDs(evt.Units))
	case KindUnitsRetreated:
		return localize(loc, "battle.units.retreated", side, joinIDs(evt.Units), evt.Destination)
	case KindAirCannotHitEvaders:
		return localize(loc, "battle.notice.air_cannot_hit_evaders", side)
	case KindBattleEnded:
		return localize(loc, "battle.ended", evt.Round, localize(loc, "battle.outcome."+evt.Outcome))
	default:
		return localize(loc, "battle.generic", string(evt.Kind))
	}
}

// renderLosses describes every side of a removal batch on one line.
func renderLosses(loc Localizer, evt Event) string {
	parts := make([]string, 0, len(evt.Losses))
	for _, l := range evt.Losses {
		side := localize(loc, "battle.side."+l.Side.String())
		switch {
		case evt.Kind == KindSuicide:
			parts = append(parts, localize(loc, "battle.units.suicide", side, joinIDs(l.Units), joinIDs(l.Dependents)))
		case len(l.Dependents) > 0:
			parts = append(parts, localize(loc, "battle.units.removed_with_dependents", side, joinIDs(l.Units), joinIDs(l.Dependents), evt.Cause))
		default:
			parts = append(parts, localize(loc, "battle.units.removed", side, joinIDs(l.Units), evt.Cause))
		}
	}
	return strings.Join(parts, "; ")
}

func localize(loc Localizer, key string, args ...any) string {
	if loc == nil {
		return key
	}
	return loc.Sprintf(key, args...)
}

func joinIDs(ids []unit.ID) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}

func joinInts(values []int) string {
	if len(values) == 0 {
		return "-"
	}
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}
