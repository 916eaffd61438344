package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/stakedrop/internal/platform/errors"
	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/campaign"
	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/command"
	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/event"
	"github.com/louisbranch/stakedrop/internal/services/ledger/storage"
)

const tracerName = "github.com/louisbranch/stakedrop/internal/services/ledger/engine"

// Engine executes campaign commands against a ledger store.
type Engine struct {
	store    storage.Store
	commands *command.Registry
	now      func() time.Time
	tracer   trace.Tracer
	locks    *keyedMutex
	defaults Defaults
}

// Defaults fill campaign parameters an initialize request leaves at zero.
type Defaults struct {
	Capacity    int
	StakeAmount uint64
}

const (
	// DefaultCapacity is the roster size used when none is configured.
	DefaultCapacity = 10
	// DefaultStakeAmount is the per-participant stake in native minor units.
	DefaultStakeAmount uint64 = 1_000_000_000
)

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithTracer overrides the tracer used for command spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithDefaults overrides the initialize defaults. Zero fields keep the
// built-in values.
func WithDefaults(defaults Defaults) Option {
	return func(e *Engine) {
		if defaults.Capacity > 0 {
			e.defaults.Capacity = defaults.Capacity
		}
		if defaults.StakeAmount > 0 {
			e.defaults.StakeAmount = defaults.StakeAmount
		}
	}
}

// New builds an engine with the campaign command registry.
func New(store storage.Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	registry, err := campaign.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("build command registry: %w", err)
	}
	e := &Engine{
		store:    store,
		commands: registry,
		now:      time.Now,
		tracer:   otel.Tracer(tracerName),
		locks:    newKeyedMutex(),
		defaults: Defaults{Capacity: DefaultCapacity, StakeAmount: DefaultStakeAmount},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Result captures the outcome of an accepted command.
type Result struct {
	State  campaign.State
	Events []event.Event
	// Payouts is set by distribution and includes zero shares.
	Payouts map[string]uint64
}

// Execute validates cmd, decides it against the stored campaign, and commits
// events, transfers, and the folded campaign together. Rejections return the
// coded application error and leave storage untouched.
func (e *Engine) Execute(ctx context.Context, cmd command.Command) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := e.tracer.Start(ctx, "ledger.execute", trace.WithAttributes(
		attribute.String("stakedrop.command_type", string(cmd.Type)),
		attribute.String("stakedrop.campaign_id", cmd.CampaignID),
	))
	defer span.End()

	result, err := e.execute(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperrors.CodeOf(err)))
		log.Printf("command rejected type=%s campaign_id=%s code=%s: %v", cmd.Type, cmd.CampaignID, apperrors.CodeOf(err), err)
		return Result{}, err
	}
	span.SetAttributes(attribute.Int("stakedrop.roster_size", len(result.State.Roster)))
	log.Printf("command accepted type=%s campaign_id=%s events=%d roster=%d/%d",
		cmd.Type, result.State.CampaignID, len(result.Events), len(result.State.Roster), result.State.Capacity)
	return result, nil
}

func (e *Engine) execute(ctx context.Context, cmd command.Command) (Result, error) {
	validated, err := e.commands.Validate(cmd)
	if err != nil {
		return Result{}, validationError(err)
	}

	unlock := e.locks.Lock(validated.CampaignID)
	defer unlock()

	var result Result
	err = e.store.Atomic(ctx, func(ctx context.Context, tx storage.Tx) error {
		state, err := tx.GetCampaign(ctx, validated.CampaignID)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("load campaign: %w", err)
			}
			state = campaign.State{}
		}

		decision := campaign.Decide(state, validated, e.now)
		if decision.Rejected() {
			return decision.Rejections[0].Err()
		}

		stored, err := tx.AppendEvents(ctx, decision.Events)
		if err != nil {
			return fmt.Errorf("append events: %w", err)
		}
		var payouts map[string]uint64
		for _, evt := range stored {
			transfers, err := campaign.Effects(evt)
			if err != nil {
				return fmt.Errorf("derive transfers: %w", err)
			}
			for _, transfer := range transfers {
				if err := tx.Transfer(ctx, evt.CampaignID, evt.Seq, transfer, evt.Timestamp); err != nil {
					return transferError(transfer, err)
				}
			}
			state, err = campaign.Fold(state, evt)
			if err != nil {
				return fmt.Errorf("fold event %d: %w", evt.Seq, err)
			}
			if evt.Type == campaign.EventTypeDistributed {
				var payload campaign.DistributedPayload
				if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
					return fmt.Errorf("decode payouts: %w", err)
				}
				payouts = payload.PayoutMap()
			}
		}
		if err := tx.PutCampaign(ctx, state); err != nil {
			return fmt.Errorf("save campaign: %w", err)
		}
		result = Result{State: state, Events: stored, Payouts: payouts}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

// GetCampaign returns the stored campaign or a NOT_FOUND error.
func (e *Engine) GetCampaign(ctx context.Context, campaignID string) (campaign.State, error) {
	state, err := e.store.GetCampaign(ctx, campaignID)
	if errors.Is(err, storage.ErrNotFound) {
		return campaign.State{}, apperrors.WithMetadata(apperrors.CodeNotFound, "campaign not found", map[string]string{"CampaignID": campaignID})
	}
	return state, err
}
