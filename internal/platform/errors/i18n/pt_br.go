package i18n

var ptBR = map[Code]string{
	CodeUnknown:                    "Ocorreu um erro inesperado.",
	CodeBattleInvariant:            "A batalha {{.BattleID}} chegou a um estado inconsistente e não pode continuar.",
	CodeBattleUnknownStep:          "A batalha salva referencia uma etapa desconhecida: {{.Tag}}.",
	CodeBattleOver:                 "A batalha {{.BattleID}} já terminou.",
	CodeBattleNotPending:           "A batalha {{.BattleID}} não está aguardando uma decisão.",
	CodeDecisionMalformed:          "A decisão foi rejeitada: {{.Reason}}.",
	CodeDecisionKindMismatch:       "Esperava uma decisão {{.Expected}}, mas recebeu {{.Got}}.",
	CodeSnapshotUnsupportedVersion: "A versão {{.Version}} da batalha salva não é suportada.",
	CodeScenarioInvalid:            "O cenário é inválido: {{.Reason}}.",
	CodeNotFound:                   "A batalha {{.BattleID}} não foi encontrada.",
}
