// Package errors provides structured battle errors with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Engine errors
	CodeBattleInvariant   Code = "BATTLE_INVARIANT_VIOLATION"
	CodeBattleUnknownStep Code = "BATTLE_UNKNOWN_STEP"
	CodeBattleOver        Code = "BATTLE_OVER"
	CodeBattleNotPending  Code = "BATTLE_NOT_SUSPENDED"

	// Decision errors
	CodeDecisionMalformed    Code = "DECISION_MALFORMED"
	CodeDecisionKindMismatch Code = "DECISION_KIND_MISMATCH"

	// Snapshot errors
	CodeSnapshotUnsupportedVersion Code = "SNAPSHOT_UNSUPPORTED_VERSION"

	// Scenario errors
	CodeScenarioInvalid Code = "SCENARIO_INVALID"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Dice errors
	CodeDiceInvalidSpec Code = "DICE_INVALID_SPEC"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - bad caller input
	case CodeDecisionMalformed,
		CodeDecisionKindMismatch,
		CodeScenarioInvalid,
		CodeDiceInvalidSpec:
		return codes.InvalidArgument

	// FailedPrecondition - battle state doesn't allow operation
	case CodeBattleOver,
		CodeBattleNotPending,
		CodeSnapshotUnsupportedVersion:
		return codes.FailedPrecondition

	case CodeNotFound:
		return codes.NotFound

	// DataLoss - the saved battle can no longer be trusted
	case CodeBattleInvariant,
		CodeBattleUnknownStep:
		return codes.DataLoss

	default:
		return codes.Internal
	}
}

// Fatal reports whether errors with this code leave a battle unrecoverable.
func (c Code) Fatal() bool {
	switch c {
	case CodeBattleInvariant, CodeBattleUnknownStep, CodeSnapshotUnsupportedVersion:
		return true
	default:
		return false
	}
}
