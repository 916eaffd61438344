package campaign

import (
	"encoding/json"
	"fmt"

	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/event"
)

// TransferKind distinguishes native-currency balances from reward-asset balances.
type TransferKind string

const (
	TransferKindNative TransferKind = "native"
	TransferKindAsset  TransferKind = "asset"
)

// Transfer is one value movement an accepted event requires.
type Transfer struct {
	Kind    TransferKind
	AssetID string
	From    string
	To      string
	Amount  uint64
}

// Effects returns the transfers implied by evt, in execution order.
// Zero-amount movements are omitted.
func Effects(evt event.Event) ([]Transfer, error) {
	custody := CustodyAccount(evt.CampaignID)
	switch evt.Type {
	case EventTypeInitialized:
		var payload InitializedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", evt.Type, err)
		}
		return nonZero(Transfer{
			Kind:    TransferKindAsset,
			AssetID: payload.RewardAssetID,
			From:    payload.SponsorID,
			To:      custody,
			Amount:  payload.RewardPoolAmount,
		}), nil
	case EventTypeJoined, EventTypeLeft:
		var payload RosterChangedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", evt.Type, err)
		}
		transfer := Transfer{
			Kind:   TransferKindNative,
			From:   payload.ParticipantID,
			To:     custody,
			Amount: payload.StakeAmount,
		}
		if evt.Type == EventTypeLeft {
			transfer.From, transfer.To = custody, payload.ParticipantID
		}
		return nonZero(transfer), nil
	case EventTypeDistributed:
		var payload DistributedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", evt.Type, err)
		}
		transfers := make([]Transfer, 0, len(payload.Payouts))
		for _, payout := range payload.Payouts {
			transfers = append(transfers, nonZero(Transfer{
				Kind:    TransferKindAsset,
				AssetID: payload.RewardAssetID,
				From:    custody,
				To:      payout.ParticipantID,
				Amount:  payout.Amount,
			})...)
		}
		return transfers, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", evt.Type)
	}
}

func nonZero(transfer Transfer) []Transfer {
	if transfer.Amount == 0 {
		return nil
	}
	return []Transfer{transfer}
}
