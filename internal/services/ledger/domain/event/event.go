package event

import (
	"errors"
	"strings"
	"time"
)

// Type identifies an event type string.
type Type string

// ActorType identifies who caused the event.
type ActorType string

const (
	// ActorTypeSystem indicates a system-originated event.
	ActorTypeSystem ActorType = "system"
	// ActorTypeSponsor indicates the campaign sponsor.
	ActorTypeSponsor ActorType = "sponsor"
	// ActorTypeParticipant indicates a roster participant.
	ActorTypeParticipant ActorType = "participant"
)

// Event is the canonical event envelope.
type Event struct {
	CampaignID  string
	Seq         uint64
	Type        Type
	Timestamp   time.Time
	ActorType   ActorType
	ActorID     string
	RequestID   string
	EntityType  string
	EntityID    string
	PayloadJSON []byte
}

var (
	// ErrCampaignIDRequired indicates an event without a campaign id.
	ErrCampaignIDRequired = errors.New("event campaign id is required")
	// ErrTypeRequired indicates an event without a type.
	ErrTypeRequired = errors.New("event type is required")
)

// Validate checks the envelope fields every stored event must carry.
func (e Event) Validate() error {
	if strings.TrimSpace(e.CampaignID) == "" {
		return ErrCampaignIDRequired
	}
	if strings.TrimSpace(string(e.Type)) == "" {
		return ErrTypeRequired
	}
	return nil
}
