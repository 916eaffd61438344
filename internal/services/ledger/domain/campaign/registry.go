package campaign

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/command"
)

// RegisterCommands adds the campaign command definitions to registry.
func RegisterCommands(registry *command.Registry) error {
	sponsorOrSystem := []command.ActorType{command.ActorTypeSponsor, command.ActorTypeSystem}
	participantOrSystem := []command.ActorType{command.ActorTypeParticipant, command.ActorTypeSystem}
	definitions := []command.Definition{
		{Type: CommandTypeInitialize, Actors: sponsorOrSystem, ValidatePayload: strictPayload[InitializePayload]},
		{Type: CommandTypeJoin, Actors: participantOrSystem, ValidatePayload: strictPayload[JoinPayload]},
		{Type: CommandTypeLeave, Actors: participantOrSystem, ValidatePayload: strictPayload[LeavePayload]},
		{Type: CommandTypeDistribute, Actors: sponsorOrSystem, ValidatePayload: strictPayload[struct{}]},
	}
	for _, def := range definitions {
		if err := registry.Register(def); err != nil {
			return fmt.Errorf("register %s: %w", def.Type, err)
		}
	}
	return nil
}

// NewRegistry returns a registry holding the campaign commands.
func NewRegistry() (*command.Registry, error) {
	registry := command.NewRegistry()
	if err := RegisterCommands(registry); err != nil {
		return nil, err
	}
	return registry, nil
}

func strictPayload[T any](raw json.RawMessage) error {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	var payload T
	return decoder.Decode(&payload)
}
