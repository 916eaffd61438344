package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrCampaignIDRequired indicates a missing campaign id.
	ErrCampaignIDRequired = errors.New("campaign id is required")
	// ErrTypeRequired indicates a missing command type.
	ErrTypeRequired = errors.New("command type is required")
	// ErrTypeUnknown indicates an unregistered command type.
	ErrTypeUnknown = errors.New("command type is not registered")
	// ErrActorTypeInvalid indicates an unknown actor type.
	ErrActorTypeInvalid = errors.New("actor type is invalid")
	// ErrActorNotAllowed indicates an actor type the command does not accept.
	ErrActorNotAllowed = errors.New("actor type may not issue this command")
	// ErrPayloadInvalid indicates malformed payload JSON.
	ErrPayloadInvalid = errors.New("payload json must be valid")
)

// Type identifies a ledger command such as "participant.join".
type Type string

// ActorType identifies who issued a command.
type ActorType string

const (
	// ActorTypeSystem is the ledger itself or an operator tool.
	ActorTypeSystem ActorType = "system"
	// ActorTypeSponsor is the account funding a campaign.
	ActorTypeSponsor ActorType = "sponsor"
	// ActorTypeParticipant is a roster member acting for themselves.
	ActorTypeParticipant ActorType = "participant"
)

func (a ActorType) valid() bool {
	switch a {
	case ActorTypeSystem, ActorTypeSponsor, ActorTypeParticipant:
		return true
	}
	return false
}

// Command is a request to change one campaign.
type Command struct {
	CampaignID  string
	Type        Type
	ActorType   ActorType
	ActorID     string
	RequestID   string
	PayloadJSON []byte
}

// Definition describes one command type.
type Definition struct {
	Type Type
	// Actors lists the actor types allowed to issue the command; empty allows all.
	Actors          []ActorType
	ValidatePayload func(json.RawMessage) error
}

func (d Definition) allows(actor ActorType) bool {
	return len(d.Actors) == 0 || slices.Contains(d.Actors, actor)
}

// Registry holds the command types a ledger accepts.
type Registry struct {
	definitions map[Type]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: map[Type]Definition{}}
}

// Register adds def. Each type may be registered once.
func (r *Registry) Register(def Definition) error {
	if r == nil {
		return errors.New("registry is required")
	}
	def.Type = normalizeType(def.Type)
	if def.Type == "" {
		return ErrTypeRequired
	}
	for _, actor := range def.Actors {
		if !actor.valid() {
			return fmt.Errorf("%w: %q", ErrActorTypeInvalid, actor)
		}
	}
	if r.definitions == nil {
		r.definitions = map[Type]Definition{}
	}
	if _, dup := r.definitions[def.Type]; dup {
		return fmt.Errorf("command type already registered: %s", def.Type)
	}
	r.definitions[def.Type] = def
	return nil
}

// Validate trims the envelope, defaults the actor to system and an empty
// payload to {}, and checks the command against its definition.
func (r *Registry) Validate(cmd Command) (Command, error) {
	if cmd.CampaignID = strings.TrimSpace(cmd.CampaignID); cmd.CampaignID == "" {
		return Command{}, ErrCampaignIDRequired
	}
	if cmd.Type = normalizeType(cmd.Type); cmd.Type == "" {
		return Command{}, ErrTypeRequired
	}
	def, ok := r.Definition(cmd.Type)
	if !ok {
		return Command{}, fmt.Errorf("%w: %s", ErrTypeUnknown, cmd.Type)
	}

	cmd.ActorType = ActorType(strings.TrimSpace(string(cmd.ActorType)))
	if cmd.ActorType == "" {
		cmd.ActorType = ActorTypeSystem
	}
	if !cmd.ActorType.valid() {
		return Command{}, ErrActorTypeInvalid
	}
	if !def.allows(cmd.ActorType) {
		return Command{}, fmt.Errorf("%w: %s by %s", ErrActorNotAllowed, cmd.Type, cmd.ActorType)
	}
	cmd.ActorID = strings.TrimSpace(cmd.ActorID)
	cmd.RequestID = strings.TrimSpace(cmd.RequestID)

	if len(cmd.PayloadJSON) == 0 {
		cmd.PayloadJSON = []byte("{}")
	}
	if !json.Valid(cmd.PayloadJSON) {
		return Command{}, ErrPayloadInvalid
	}
	if def.ValidatePayload != nil {
		if err := def.ValidatePayload(cmd.PayloadJSON); err != nil {
			return Command{}, fmt.Errorf("payload invalid: %w", err)
		}
	}
	return cmd, nil
}

// Definition returns the definition registered for cmdType.
func (r *Registry) Definition(cmdType Type) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	def, ok := r.definitions[normalizeType(cmdType)]
	return def, ok
}

// Types returns the registered command types in lexical order.
func (r *Registry) Types() []Type {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.definitions))
}

func normalizeType(t Type) Type {
	return Type(strings.TrimSpace(string(t)))
}
