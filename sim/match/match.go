// Package match drives a single match from PENDING to a terminal status:
// it owns the worker loop that alternates adapter calls and engine
// transitions, persisting every emitted event to the ledger in turn order.
package match

import (
	"github.com/match-sim/match-sim/sim"
)

// Status is the match lifecycle state machine: PENDING → RUNNING →
// {COMPLETED | FAILED}.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Participant binds a role to the adapter that will play it. Provider
// "composite" resolves Model to a stored composite configuration.
type Participant struct {
	Role     string
	Provider string
	Model    string
}

// Match is the unit of work the orchestrator consumes. The record itself is
// owned by an external collaborator; the orchestrator mutates only Status
// and Result.
type Match struct {
	ID           string
	GameType     sim.GameType
	Seed         int64
	Options      sim.Options
	Status       Status
	Participants []Participant
	Result       *sim.GameResult
}
