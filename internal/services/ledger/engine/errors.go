package engine

import (
	"errors"
	"strconv"

	apperrors "github.com/louisbranch/stakedrop/internal/platform/errors"
	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/campaign"
	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/command"
)

var (
	// ErrStoreRequired indicates a missing ledger store.
	ErrStoreRequired = errors.New("ledger store is required")
)

// validationError maps envelope validation failures to coded errors.
func validationError(err error) error {
	switch {
	case errors.Is(err, command.ErrCampaignIDRequired):
		return apperrors.Wrap(apperrors.CodeCampaignIDRequired, "campaign id is required", err)
	default:
		return apperrors.Wrap(apperrors.CodeCommandRejected, "command rejected", err)
	}
}

// transferError reports a failed value movement. The unit of work is rolled
// back by the caller, so nothing from the command persists.
func transferError(transfer campaign.Transfer, err error) error {
	metadata := map[string]string{
		"From":   transfer.From,
		"To":     transfer.To,
		"Kind":   string(transfer.Kind),
		"Amount": strconv.FormatUint(transfer.Amount, 10),
	}
	if transfer.AssetID != "" {
		metadata["AssetID"] = transfer.AssetID
	}
	return apperrors.WrapWithMetadata(apperrors.CodeTransferFailed, "transfer failed", metadata, err)
}
