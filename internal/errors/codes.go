// Package errors provides structured error handling for the visage engine.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Changeset errors
	CodeChangesetInvalidScale       Code = "CHANGESET_INVALID_SCALE_MAGNITUDE"
	CodeChangesetInvalidDimension   Code = "CHANGESET_INVALID_DIMENSION"
	CodeChangesetInvalidDisposition Code = "CHANGESET_INVALID_DISPOSITION"

	// Definition errors
	CodeDefinitionEmptyName   Code = "DEFINITION_EMPTY_NAME"
	CodeDefinitionInvalidMode Code = "DEFINITION_INVALID_MODE"
	CodeDefinitionNotFound    Code = "DEFINITION_NOT_FOUND"

	// Automation errors
	CodeRuleInvalidLogic       Code = "RULE_INVALID_LOGIC"
	CodeRuleNoConditions       Code = "RULE_NO_CONDITIONS"
	CodeConditionInvalidKind   Code = "CONDITION_INVALID_KIND"
	CodeConditionInvalidOp     Code = "CONDITION_INVALID_OPERATOR"
	CodeConditionScriptFailure Code = "CONDITION_SCRIPT_FAILURE"

	// Entity errors
	CodeEntityNotFound Code = "ENTITY_NOT_FOUND"

	// Authority errors
	CodeLeaseHeldElsewhere Code = "AUTHORITY_LEASE_HELD_ELSEWHERE"
	CodeLeaseNotHeld       Code = "AUTHORITY_LEASE_NOT_HELD"

	// Storage errors
	CodeNotFound           Code = "NOT_FOUND"
	CodePersistenceFailure Code = "PERSISTENCE_FAILURE"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeChangesetInvalidScale,
		CodeChangesetInvalidDimension,
		CodeChangesetInvalidDisposition,
		CodeDefinitionEmptyName,
		CodeDefinitionInvalidMode,
		CodeRuleInvalidLogic,
		CodeRuleNoConditions,
		CodeConditionInvalidKind,
		CodeConditionInvalidOp:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeLeaseHeldElsewhere,
		CodeLeaseNotHeld:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeDefinitionNotFound,
		CodeEntityNotFound:
		return codes.NotFound

	// Unavailable - downstream persistence failed
	case CodePersistenceFailure:
		return codes.Unavailable

	default:
		return codes.Internal
	}
}
