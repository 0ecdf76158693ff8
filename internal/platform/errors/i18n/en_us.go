package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeUnknown                    = "UNKNOWN"
	CodeBattleInvariant            = "BATTLE_INVARIANT_VIOLATION"
	CodeBattleUnknownStep          = "BATTLE_UNKNOWN_STEP"
	CodeBattleOver                 = "BATTLE_OVER"
	CodeBattleNotPending           = "BATTLE_NOT_SUSPENDED"
	CodeDecisionMalformed          = "DECISION_MALFORMED"
	CodeDecisionKindMismatch       = "DECISION_KIND_MISMATCH"
	CodeSnapshotUnsupportedVersion = "SNAPSHOT_UNSUPPORTED_VERSION"
	CodeScenarioInvalid            = "SCENARIO_INVALID"
	CodeNotFound                   = "NOT_FOUND"
	CodeDiceInvalidSpec            = "DICE_INVALID_SPEC"
)

var enUS = map[Code]string{
	CodeUnknown:                    "An unexpected error occurred.",
	CodeBattleInvariant:            "Battle {{.BattleID}} reached an inconsistent state and cannot continue.",
	CodeBattleUnknownStep:          "Saved battle references an unknown step: {{.Tag}}.",
	CodeBattleOver:                 "Battle {{.BattleID}} is already over.",
	CodeBattleNotPending:           "Battle {{.BattleID}} is not waiting for a decision.",
	CodeDecisionMalformed:          "The decision was rejected: {{.Reason}}.",
	CodeDecisionKindMismatch:       "Expected a {{.Expected}} decision but received {{.Got}}.",
	CodeSnapshotUnsupportedVersion: "Saved battle version {{.Version}} is not supported.",
	CodeScenarioInvalid:            "The scenario is invalid: {{.Reason}}.",
	CodeNotFound:                   "Battle {{.BattleID}} was not found.",
	CodeDiceInvalidSpec:            "Invalid dice request.",
}
