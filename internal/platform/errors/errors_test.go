package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("resume: %w", New(CodeBattleOver, "battle finished"))
	if !stderrors.Is(err, New(CodeBattleOver, "")) {
		t.Fatal("expected code match through wrapping")
	}
	if stderrors.Is(err, New(CodeNotFound, "")) {
		t.Fatal("expected different code not to match")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(fmt.Errorf("x: %w", New(CodeScenarioInvalid, "bad"))); got != CodeScenarioInvalid {
		t.Fatalf("code = %q, want %q", got, CodeScenarioInvalid)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("code = %q, want %q", got, CodeUnknown)
	}
	if IsCode(nil, CodeUnknown) {
		t.Fatal("nil error should not carry a code")
	}
}

func TestUnwrapCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeUnknown, "save", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
}

func TestFatalCodes(t *testing.T) {
	tests := map[Code]bool{
		CodeBattleInvariant:            true,
		CodeBattleUnknownStep:          true,
		CodeSnapshotUnsupportedVersion: true,
		CodeDecisionMalformed:          false,
		CodeBattleOver:                 false,
	}
	for code, want := range tests {
		if got := code.Fatal(); got != want {
			t.Fatalf("%s fatal = %v, want %v", code, got, want)
		}
	}
}

func TestGRPCStatusCarriesDetails(t *testing.T) {
	err := WithMetadata(CodeBattleOver, "battle finished", map[string]string{"BattleID": "b1"})
	st, ok := status.FromError(GRPCStatus(err, "pt-BR"))
	if !ok {
		t.Fatal("expected grpc status")
	}
	if st.Code() != codes.FailedPrecondition {
		t.Fatalf("code = %v, want %v", st.Code(), codes.FailedPrecondition)
	}
	var info *errdetails.ErrorInfo
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			info = d
		case *errdetails.LocalizedMessage:
			localized = d
		}
	}
	if info == nil || info.Reason != string(CodeBattleOver) || info.Domain != Domain {
		t.Fatalf("error info = %v", info)
	}
	if localized == nil || localized.Message != "A batalha b1 já terminou." {
		t.Fatalf("localized = %v", localized)
	}
}

func TestGRPCStatusPlainError(t *testing.T) {
	st, _ := status.FromError(GRPCStatus(stderrors.New("boom"), "en-US"))
	if st.Code() != codes.Internal {
		t.Fatalf("code = %v, want %v", st.Code(), codes.Internal)
	}
	if GRPCStatus(nil, "en-US") != nil {
		t.Fatal("expected nil for nil error")
	}
}
