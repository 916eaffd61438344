// Package campaign implements the airdrop campaign state machine.
//
// Decide evaluates a command against folded state and returns events or
// rejections without side effects. Fold replays events into State. Effects
// lists the value movements an accepted event requires; the engine executes
// them in the same unit of work that persists the events, so the roster and
// the custody balances never disagree.
package campaign
