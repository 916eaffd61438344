package campaign

import (
	"slices"
	"strings"
	"time"
)

// CustodyPrefix marks accounts owned by a campaign rather than a caller.
const CustodyPrefix = "custody:"

// CustodyAccount returns the account that escrows stakes and holds the reward pool.
func CustodyAccount(campaignID string) string {
	return CustodyPrefix + campaignID
}

// IsCustodyAccount reports whether accountID belongs to some campaign's custody.
func IsCustodyAccount(accountID string) bool {
	return strings.HasPrefix(accountID, CustodyPrefix)
}

// State captures campaign facts derived from domain events.
type State struct {
	Initialized      bool
	CampaignID       string
	SponsorID        string
	RewardAssetID    string
	RewardPoolAmount uint64
	Capacity         int
	StakeAmount      uint64
	Roster           []string
	Distributed      bool
	ShareAmount      uint64
	RemainderAmount  uint64
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DistributedAt    time.Time
}

// HasParticipant reports whether participantID is on the roster.
func (s State) HasParticipant(participantID string) bool {
	return slices.Contains(s.Roster, participantID)
}

// Full reports whether the roster has reached capacity.
func (s State) Full() bool {
	return len(s.Roster) >= s.Capacity
}

// Escrow is the native amount custody must hold for the current roster.
func (s State) Escrow() uint64 {
	return uint64(len(s.Roster)) * s.StakeAmount
}

// Clone returns a copy whose roster does not alias s.
func (s State) Clone() State {
	s.Roster = slices.Clone(s.Roster)
	return s
}
