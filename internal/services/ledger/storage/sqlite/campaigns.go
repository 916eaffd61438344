package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/stakedrop/internal/platform/grpc/pagination"
	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/campaign"
	"github.com/louisbranch/stakedrop/internal/services/ledger/storage"
)

const campaignColumns = `campaign_id, sponsor_id, reward_asset_id, reward_pool_amount,
		        capacity, stake_amount, distributed, share_amount, remainder_amount,
		        created_at, updated_at, distributed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (campaign.State, error) {
	var (
		state         campaign.State
		pool          int64
		stake         int64
		share         int64
		remainder     int64
		distributed   int
		createdAt     int64
		updatedAt     int64
		distributedAt int64
	)
	if err := row.Scan(
		&state.CampaignID,
		&state.SponsorID,
		&state.RewardAssetID,
		&pool,
		&state.Capacity,
		&stake,
		&distributed,
		&share,
		&remainder,
		&createdAt,
		&updatedAt,
		&distributedAt,
	); err != nil {
		return campaign.State{}, err
	}
	state.Initialized = true
	state.RewardPoolAmount = uint64(pool)
	state.StakeAmount = uint64(stake)
	state.ShareAmount = uint64(share)
	state.RemainderAmount = uint64(remainder)
	state.Distributed = distributed != 0
	state.CreatedAt = fromMillis(createdAt)
	state.UpdatedAt = fromMillis(updatedAt)
	state.DistributedAt = fromMillis(distributedAt)
	state.Roster = []string{}
	return state, nil
}

func loadRoster(ctx context.Context, q queryer, campaignID string) ([]string, error) {
	rows, err := q.QueryContext(
		ctx,
		`SELECT participant_id FROM campaign_participants WHERE campaign_id = ? ORDER BY position ASC`,
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	defer rows.Close()

	roster := []string{}
	for rows.Next() {
		var participantID string
		if err := rows.Scan(&participantID); err != nil {
			return nil, fmt.Errorf("load roster: %w", err)
		}
		roster = append(roster, participantID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	return roster, nil
}

func getCampaign(ctx context.Context, q queryer, campaignID string) (campaign.State, error) {
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return campaign.State{}, fmt.Errorf("campaign id is required")
	}
	row := q.QueryRowContext(
		ctx,
		`SELECT `+campaignColumns+`
		   FROM campaigns
		  WHERE campaign_id = ?`,
		campaignID,
	)
	state, err := scanCampaign(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return campaign.State{}, storage.ErrNotFound
		}
		return campaign.State{}, fmt.Errorf("get campaign: %w", err)
	}
	roster, err := loadRoster(ctx, q, campaignID)
	if err != nil {
		return campaign.State{}, err
	}
	state.Roster = roster
	return state, nil
}

// GetCampaign returns one campaign with its ordered roster.
func (s *Store) GetCampaign(ctx context.Context, campaignID string) (campaign.State, error) {
	if err := s.ready(ctx); err != nil {
		return campaign.State{}, err
	}
	return getCampaign(ctx, s.sqlDB, campaignID)
}

// GetCampaign returns the campaign as seen inside the transaction.
func (t *txStore) GetCampaign(ctx context.Context, campaignID string) (campaign.State, error) {
	return getCampaign(ctx, t.q, campaignID)
}

// PutCampaign upserts the campaign row and rewrites its roster.
func (t *txStore) PutCampaign(ctx context.Context, state campaign.State) error {
	campaignID := strings.TrimSpace(state.CampaignID)
	if campaignID == "" {
		return fmt.Errorf("campaign id is required")
	}
	amounts := make([]int64, 0, 4)
	for _, amount := range []uint64{state.RewardPoolAmount, state.StakeAmount, state.ShareAmount, state.RemainderAmount} {
		stored, err := toStored(amount)
		if err != nil {
			return err
		}
		amounts = append(amounts, stored)
	}
	distributed := 0
	if state.Distributed {
		distributed = 1
	}

	_, err := t.q.ExecContext(
		ctx,
		`INSERT INTO campaigns (
		   campaign_id, sponsor_id, reward_asset_id, reward_pool_amount,
		   capacity, stake_amount, distributed, share_amount, remainder_amount,
		   created_at, updated_at, distributed_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (campaign_id) DO UPDATE SET
		   distributed = excluded.distributed,
		   share_amount = excluded.share_amount,
		   remainder_amount = excluded.remainder_amount,
		   updated_at = excluded.updated_at,
		   distributed_at = excluded.distributed_at`,
		campaignID,
		state.SponsorID,
		state.RewardAssetID,
		amounts[0],
		state.Capacity,
		amounts[1],
		distributed,
		amounts[2],
		amounts[3],
		toMillis(state.CreatedAt),
		toMillis(state.UpdatedAt),
		toMillis(state.DistributedAt),
	)
	if err != nil {
		return fmt.Errorf("put campaign: %w", err)
	}

	if _, err := t.q.ExecContext(ctx, `DELETE FROM campaign_participants WHERE campaign_id = ?`, campaignID); err != nil {
		return fmt.Errorf("reset roster: %w", err)
	}
	for position, participantID := range state.Roster {
		if _, err := t.q.ExecContext(
			ctx,
			`INSERT INTO campaign_participants (campaign_id, participant_id, position) VALUES (?, ?, ?)`,
			campaignID,
			participantID,
			position,
		); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("roster participant %s: %w", participantID, storage.ErrAlreadyExists)
			}
			return fmt.Errorf("write roster: %w", err)
		}
	}
	return nil
}

// ListCampaigns returns one page of campaigns ordered by campaign id.
func (s *Store) ListCampaigns(ctx context.Context, pageSize int, pageToken string) (storage.CampaignPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.CampaignPage{}, err
	}
	if pageSize <= 0 {
		return storage.CampaignPage{}, fmt.Errorf("page size must be greater than zero")
	}
	cursor, err := pagination.DecodeToken(pageToken)
	if err != nil {
		return storage.CampaignPage{}, fmt.Errorf("%w: %v", storage.ErrInvalidPageToken, err)
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+campaignColumns+`
		   FROM campaigns
		  WHERE campaign_id > ?
		  ORDER BY campaign_id ASC
		  LIMIT ?`,
		cursor,
		pageSize+1,
	)
	if err != nil {
		return storage.CampaignPage{}, fmt.Errorf("list campaigns: %w", err)
	}
	page := storage.CampaignPage{Campaigns: make([]campaign.State, 0, pageSize)}
	for rows.Next() {
		state, err := scanCampaign(rows)
		if err != nil {
			_ = rows.Close()
			return storage.CampaignPage{}, fmt.Errorf("list campaigns: %w", err)
		}
		page.Campaigns = append(page.Campaigns, state)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return storage.CampaignPage{}, fmt.Errorf("list campaigns: %w", err)
	}
	_ = rows.Close()

	if len(page.Campaigns) > pageSize {
		page.Campaigns = page.Campaigns[:pageSize]
		page.NextPageToken = pagination.EncodeToken(page.Campaigns[pageSize-1].CampaignID)
	}
	for i := range page.Campaigns {
		roster, err := loadRoster(ctx, s.sqlDB, page.Campaigns[i].CampaignID)
		if err != nil {
			return storage.CampaignPage{}, err
		}
		page.Campaigns[i].Roster = roster
	}
	return page, nil
}
