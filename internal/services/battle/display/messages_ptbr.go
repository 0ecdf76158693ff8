package display

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.MustParse("pt-BR")

	message.SetString(lang, "battle.side.offense", "Atacante")
	message.SetString(lang, "battle.side.defense", "Defensor")
	message.SetString(lang, "battle.round.steps", "Rodada %d: %s")
	message.SetString(lang, "battle.dice.rolled", "%s rola %s (%s): %d acertos")
	message.SetString(lang, "battle.casualties.selected", "%s baixas escolhidas: %s")
	message.SetString(lang, "battle.units.removed", "%s perde %s (%s)")
	message.SetString(lang, "battle.units.removed_with_dependents", "%s perde %s e a carga %s (%s)")
	message.SetString(lang, "battle.units.submerged", "%s submerge %s")
	message.SetString(lang, "battle.units.retreated", "%s recua %s para %s")
	message.SetString(lang, "battle.notice.air_cannot_hit_evaders", "%s: unidades aéreas não atingem submarinos sem um destróier")
	message.SetString(lang, "battle.units.suicide", "%s unidades suicidas destruídas: %s; carga: %s")
	message.SetString(lang, "battle.ended", "Batalha encerrada na rodada %d: %s")
	message.SetString(lang, "battle.outcome.offense_won", "vitória do atacante")
	message.SetString(lang, "battle.outcome.defense_won", "vitória do defensor")
	message.SetString(lang, "battle.outcome.draw", "ambos os lados destruídos")
	message.SetString(lang, "battle.outcome.stalemate", "impasse")
	message.SetString(lang, "battle.outcome.retreated", "o atacante recuou")
	message.SetString(lang, "battle.generic", "Evento de batalha: %s")
}
