package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/event"
	"github.com/louisbranch/stakedrop/internal/services/ledger/storage"
	"github.com/louisbranch/stakedrop/internal/services/ledger/storage/filter"
)

// AppendEvents stores events with the next per-campaign sequence numbers.
func (t *txStore) AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error) {
	stored := make([]event.Event, 0, len(events))
	for _, evt := range events {
		if err := evt.Validate(); err != nil {
			return nil, err
		}
		var lastSeq int64
		if err := t.q.QueryRowContext(
			ctx,
			`SELECT COALESCE(MAX(seq), 0) FROM campaign_events WHERE campaign_id = ?`,
			evt.CampaignID,
		).Scan(&lastSeq); err != nil {
			return nil, fmt.Errorf("next event seq: %w", err)
		}
		evt.Seq = uint64(lastSeq) + 1
		payload := evt.PayloadJSON
		if len(payload) == 0 {
			payload = []byte("{}")
		}
		if _, err := t.q.ExecContext(
			ctx,
			`INSERT INTO campaign_events (
			   campaign_id, seq, event_type, timestamp, actor_type, actor_id,
			   request_id, entity_type, entity_id, payload_json
			 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			evt.CampaignID,
			int64(evt.Seq),
			string(evt.Type),
			toMillis(evt.Timestamp),
			string(evt.ActorType),
			evt.ActorID,
			evt.RequestID,
			evt.EntityType,
			evt.EntityID,
			string(payload),
		); err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("append event %d: %w", evt.Seq, storage.ErrAlreadyExists)
			}
			return nil, fmt.Errorf("append event: %w", err)
		}
		stored = append(stored, evt)
	}
	return stored, nil
}

// ListEvents returns events for one campaign after query.AfterSeq, narrowed by
// the AIP-160 filter when one is given.
func (s *Store) ListEvents(ctx context.Context, query storage.EventQuery) (storage.EventPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.EventPage{}, err
	}
	campaignID := strings.TrimSpace(query.CampaignID)
	if campaignID == "" {
		return storage.EventPage{}, fmt.Errorf("campaign id is required")
	}
	if query.PageSize <= 0 {
		return storage.EventPage{}, fmt.Errorf("page size must be greater than zero")
	}
	cond, err := filter.ParseEventFilter(query.Filter)
	if err != nil {
		return storage.EventPage{}, fmt.Errorf("%w: %v", storage.ErrInvalidFilter, err)
	}

	sqlQuery := `SELECT campaign_id, seq, event_type, timestamp, actor_type, actor_id,
	                    request_id, entity_type, entity_id, payload_json
	               FROM campaign_events
	              WHERE campaign_id = ? AND seq > ?`
	args := []any{campaignID, int64(query.AfterSeq)}
	if !cond.Empty() {
		sqlQuery += " AND " + cond.Clause
		args = append(args, cond.Params...)
	}
	sqlQuery += " ORDER BY seq ASC LIMIT ?"
	args = append(args, query.PageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return storage.EventPage{}, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	page := storage.EventPage{Events: make([]event.Event, 0, query.PageSize)}
	for rows.Next() {
		var (
			evt       event.Event
			seq       int64
			eventType string
			timestamp int64
			actorType string
			payload   string
		)
		if err := rows.Scan(
			&evt.CampaignID,
			&seq,
			&eventType,
			&timestamp,
			&actorType,
			&evt.ActorID,
			&evt.RequestID,
			&evt.EntityType,
			&evt.EntityID,
			&payload,
		); err != nil {
			return storage.EventPage{}, fmt.Errorf("list events: %w", err)
		}
		evt.Seq = uint64(seq)
		evt.Type = event.Type(eventType)
		evt.Timestamp = fromMillis(timestamp)
		evt.ActorType = event.ActorType(actorType)
		evt.PayloadJSON = []byte(payload)
		page.Events = append(page.Events, evt)
	}
	if err := rows.Err(); err != nil {
		return storage.EventPage{}, fmt.Errorf("list events: %w", err)
	}
	if len(page.Events) > query.PageSize {
		page.Events = page.Events[:query.PageSize]
		page.HasMore = true
	}
	if n := len(page.Events); n > 0 {
		page.LastSeq = page.Events[n-1].Seq
	}
	return page, nil
}
