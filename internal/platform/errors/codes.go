// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Campaign errors
	CodeCampaignIDRequired          Code = "CAMPAIGN_ID_REQUIRED"
	CodeCampaignAlreadyInitialized  Code = "CAMPAIGN_ALREADY_INITIALIZED"
	CodeCampaignNotInitialized      Code = "CAMPAIGN_NOT_INITIALIZED"
	CodeCampaignSponsorRequired     Code = "SPONSOR_ID_REQUIRED"
	CodeCampaignRewardAssetRequired Code = "REWARD_ASSET_REQUIRED"
	CodeCampaignCapacityInvalid     Code = "CAPACITY_INVALID"
	CodeCampaignStakeAmountInvalid  Code = "STAKE_AMOUNT_INVALID"

	// Roster errors
	CodeParticipantIDRequired  Code = "PARTICIPANT_ID_REQUIRED"
	CodeRosterFull             Code = "ROSTER_FULL"
	CodeDuplicateParticipant   Code = "DUPLICATE_PARTICIPANT"
	CodeParticipantNotFound    Code = "PARTICIPANT_NOT_FOUND"
	CodeParticipantIsCustodian Code = "PARTICIPANT_IS_CUSTODIAN"

	// Distribution errors
	CodeEmptyRoster        Code = "EMPTY_ROSTER"
	CodeAlreadyDistributed Code = "ALREADY_DISTRIBUTED"

	// Transfer errors
	CodeTransferFailed    Code = "TRANSFER_FAILED"
	CodeFundingDisabled   Code = "FUNDING_DISABLED"
	CodeFundingInvalid    Code = "FUNDING_INVALID"
	CodeAmountOutOfRange  Code = "AMOUNT_OUT_OF_RANGE"
	CodeCommandRejected   Code = "COMMAND_REJECTED"
	CodeEventFilterFailed Code = "EVENT_FILTER_INVALID"

	// Proof errors
	CodeProofInvalid  Code = "PROOF_INVALID"
	CodeProofExpired  Code = "PROOF_EXPIRED"
	CodeProofMismatch Code = "PROOF_MISMATCH"
	CodeProofReused   Code = "PROOF_REUSED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeCampaignIDRequired,
		CodeCampaignSponsorRequired,
		CodeCampaignRewardAssetRequired,
		CodeCampaignCapacityInvalid,
		CodeCampaignStakeAmountInvalid,
		CodeParticipantIDRequired,
		CodeParticipantIsCustodian,
		CodeFundingInvalid,
		CodeAmountOutOfRange,
		CodeEventFilterFailed:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeRosterFull,
		CodeEmptyRoster,
		CodeAlreadyDistributed,
		CodeCampaignNotInitialized,
		CodeTransferFailed,
		CodeFundingDisabled,
		CodeCommandRejected:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeParticipantNotFound:
		return codes.NotFound

	// AlreadyExists - unique resource constraint
	case CodeDuplicateParticipant,
		CodeCampaignAlreadyInitialized:
		return codes.AlreadyExists

	// PermissionDenied - caller could not prove identity
	case CodeProofInvalid,
		CodeProofExpired,
		CodeProofMismatch,
		CodeProofReused:
		return codes.PermissionDenied

	default:
		return codes.Internal
	}
}
