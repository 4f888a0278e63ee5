// Package sim provides the deterministic simulation engines behind match-sim.
//
// # Reading Guide
//
// Start with these three files to understand the kernel:
//   - event.go: the ledger vocabulary (GameEvent, PlayerMove, GameResult)
//   - engine.go: the Engine contract all five game engines implement
//   - rng.go: the frozen 32-bit LCG that makes every match replayable
//
// # Architecture
//
// The sim package defines the engine contract and the five concrete engines
// (chess, chutes & ladders, texas hold'em, blackjack, negotiation); the rest
// of the system lives in sub-packages:
//   - sim/adapter/: move generation (scripted, HTTP, composite strategies)
//   - sim/ledger/: event persistence (memory, SQLite)
//   - sim/match/: the orchestrator worker loop and replay verification
//
// Every engine owns a private mutable state struct per match, seeded from the
// match seed. State is never persisted: the event ledger plus the seed is the
// sole durable record, and re-deriving state means Initialize followed by
// replaying every historical move through ProcessMove in order.
package sim
