package display

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "battle.side.offense", "Attacker")
	message.SetString(lang, "battle.side.defense", "Defender")
	message.SetString(lang, "battle.round.steps", "Round %d: %s")
	message.SetString(lang, "battle.dice.rolled", "%s rolls %s (%s): %d hits")
	message.SetString(lang, "battle.casualties.selected", "%s casualties selected: %s")
	message.SetString(lang, "battle.units.removed", "%s loses %s (%s)")
	message.SetString(lang, "battle.units.removed_with_dependents", "%s loses %s and carried %s (%s)")
	message.SetString(lang, "battle.units.submerged", "%s submerges %s")
	message.SetString(lang, "battle.units.retreated", "%s retreats %s to %s")
	message.SetString(lang, "battle.notice.air_cannot_hit_evaders", "%s air units cannot hit submerged units without a destroyer")
	message.SetString(lang, "battle.units.suicide", "%s suicide units destroyed: %s; carried: %s")
	message.SetString(lang, "battle.ended", "Battle ended in round %d: %s")
	message.SetString(lang, "battle.outcome.offense_won", "attacker wins")
	message.SetString(lang, "battle.outcome.defense_won", "defender wins")
	message.SetString(lang, "battle.outcome.draw", "both sides destroyed")
	message.SetString(lang, "battle.outcome.stalemate", "stalemate")
	message.SetString(lang, "battle.outcome.retreated", "attacker retreated")
	message.SetString(lang, "battle.generic", "Battle event: %s")
}
