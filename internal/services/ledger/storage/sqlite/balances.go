package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/campaign"
	"github.com/louisbranch/stakedrop/internal/services/ledger/storage"
)

func readBalance(ctx context.Context, q queryer, accountID, assetID string) (uint64, error) {
	var (
		amount int64
		row    *sql.Row
	)
	if assetID == "" {
		row = q.QueryRowContext(ctx, `SELECT amount FROM native_balances WHERE account_id = ?`, accountID)
	} else {
		row = q.QueryRowContext(ctx, `SELECT amount FROM asset_balances WHERE account_id = ? AND asset_id = ?`, accountID, assetID)
	}
	if err := row.Scan(&amount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return uint64(amount), nil
}

func writeBalance(ctx context.Context, q queryer, accountID, assetID string, amount uint64, at time.Time) error {
	stored, err := toStored(amount)
	if err != nil {
		return err
	}
	if assetID == "" {
		_, err = q.ExecContext(
			ctx,
			`INSERT INTO native_balances (account_id, amount, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT (account_id) DO UPDATE SET amount = excluded.amount, updated_at = excluded.updated_at`,
			accountID, stored, toMillis(at),
		)
	} else {
		_, err = q.ExecContext(
			ctx,
			`INSERT INTO asset_balances (account_id, asset_id, amount, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT (account_id, asset_id) DO UPDATE SET amount = excluded.amount, updated_at = excluded.updated_at`,
			accountID, assetID, stored, toMillis(at),
		)
	}
	if err != nil {
		return fmt.Errorf("write balance: %w", err)
	}
	return nil
}

// credit adds amount to an account and returns the new balance.
func credit(ctx context.Context, q queryer, accountID, assetID string, amount uint64, at time.Time) (uint64, error) {
	current, err := readBalance(ctx, q, accountID, assetID)
	if err != nil {
		return 0, err
	}
	if amount > math.MaxInt64-current {
		return 0, storage.ErrAmountOutOfRange
	}
	next := current + amount
	if err := writeBalance(ctx, q, accountID, assetID, next, at); err != nil {
		return 0, err
	}
	return next, nil
}

func debit(ctx context.Context, q queryer, accountID, assetID string, amount uint64, at time.Time) error {
	current, err := readBalance(ctx, q, accountID, assetID)
	if err != nil {
		return err
	}
	if current < amount {
		return fmt.Errorf("%s holds %d, needs %d: %w", accountID, current, amount, storage.ErrInsufficientFunds)
	}
	return writeBalance(ctx, q, accountID, assetID, current-amount, at)
}

// Transfer moves value between two accounts and journals the movement.
func (t *txStore) Transfer(ctx context.Context, campaignID string, eventSeq uint64, transfer campaign.Transfer, at time.Time) error {
	from := strings.TrimSpace(transfer.From)
	to := strings.TrimSpace(transfer.To)
	if from == "" || to == "" {
		return fmt.Errorf("transfer accounts are required")
	}
	assetID := ""
	switch transfer.Kind {
	case campaign.TransferKindNative:
	case campaign.TransferKindAsset:
		assetID = strings.TrimSpace(transfer.AssetID)
		if assetID == "" {
			return fmt.Errorf("asset transfer requires an asset id")
		}
	default:
		return fmt.Errorf("unknown transfer kind %q", transfer.Kind)
	}
	amount, err := toStored(transfer.Amount)
	if err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	if at.IsZero() {
		at = time.Now()
	}

	if err := debit(ctx, t.q, from, assetID, transfer.Amount, at); err != nil {
		return err
	}
	if _, err := credit(ctx, t.q, to, assetID, transfer.Amount, at); err != nil {
		return err
	}
	if _, err := t.q.ExecContext(
		ctx,
		`INSERT INTO transfers (campaign_id, event_seq, kind, asset_id, from_account, to_account, amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		campaignID,
		int64(eventSeq),
		string(transfer.Kind),
		assetID,
		from,
		to,
		amount,
		toMillis(at),
	); err != nil {
		return fmt.Errorf("journal transfer: %w", err)
	}
	return nil
}

// GetBalance returns an account's native balance, or its asset balance when
// assetID is set. Unknown accounts hold zero.
func (s *Store) GetBalance(ctx context.Context, accountID, assetID string) (storage.Balance, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Balance{}, err
	}
	accountID = strings.TrimSpace(accountID)
	assetID = strings.TrimSpace(assetID)
	if accountID == "" {
		return storage.Balance{}, fmt.Errorf("account id is required")
	}
	amount, err := readBalance(ctx, s.sqlDB, accountID, assetID)
	if err != nil {
		return storage.Balance{}, err
	}
	return storage.Balance{AccountID: accountID, AssetID: assetID, Amount: amount}, nil
}

// Credit adds funds to an account outside any campaign.
func (s *Store) Credit(ctx context.Context, accountID, assetID string, amount uint64) (storage.Balance, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Balance{}, err
	}
	accountID = strings.TrimSpace(accountID)
	assetID = strings.TrimSpace(assetID)
	if accountID == "" {
		return storage.Balance{}, fmt.Errorf("account id is required")
	}
	if _, err := toStored(amount); err != nil {
		return storage.Balance{}, err
	}

	var balance storage.Balance
	err := s.atomic(ctx, func(ctx context.Context, tx *txStore) error {
		next, err := credit(ctx, tx.q, accountID, assetID, amount, s.now())
		if err != nil {
			return err
		}
		balance = storage.Balance{AccountID: accountID, AssetID: assetID, Amount: next}
		return nil
	})
	if err != nil {
		return storage.Balance{}, err
	}
	return balance, nil
}

// ListTransfers returns the transfer journal for one campaign in execution order.
func (s *Store) ListTransfers(ctx context.Context, campaignID string) ([]storage.TransferRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, campaign_id, event_seq, kind, asset_id, from_account, to_account, amount, created_at
		   FROM transfers
		  WHERE campaign_id = ?
		  ORDER BY id ASC`,
		strings.TrimSpace(campaignID),
	)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var records []storage.TransferRecord
	for rows.Next() {
		var (
			record    storage.TransferRecord
			seq       int64
			kind      string
			amount    int64
			createdAt int64
		)
		if err := rows.Scan(
			&record.ID,
			&record.CampaignID,
			&seq,
			&kind,
			&record.AssetID,
			&record.From,
			&record.To,
			&amount,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("list transfers: %w", err)
		}
		record.EventSeq = uint64(seq)
		record.Kind = campaign.TransferKind(kind)
		record.Amount = uint64(amount)
		record.CreatedAt = fromMillis(createdAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	return records, nil
}
