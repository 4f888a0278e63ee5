package sim

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Event types specific to the hold'em engine.
const (
	EventDealHole     = "DEAL_HOLE"
	EventBlindPosted  = "BLIND_POSTED"
	EventAction       = "ACTION"
	EventRoundAdvance = "ROUND_ADVANCE"
	EventShowdown     = "SHOWDOWN"
	EventPotAwarded   = "POT_AWARDED"
)

// Betting rounds in progression order.
const (
	roundPreflop  = "PREFLOP"
	roundFlop     = "FLOP"
	roundTurn     = "TURN"
	roundRiver    = "RIVER"
	roundShowdown = "SHOWDOWN"
)

type holdemSeat struct {
	role      string
	stack     int
	hole      []Card
	folded    bool
	committed int // chips committed in the current betting round
}

// HoldemEngine plays a single hand of fixed-raise Texas hold'em. Raises are
// always one big blind on top of the current bet: "RAISE 250" parses but the
// amount is ignored. Betting rounds advance on a fixed action-count
// heuristic (actions this round >= live players), not true action closure;
// this mirrors the reference behavior and changing it would change outcomes
// for a given seed.
type HoldemEngine struct {
	rng        *LCG
	deck       []Card
	next       int
	board      []Card
	seats      []*holdemSeat
	button     int
	smallBlind int
	bigBlind   int
	pot        int
	currentBet int
	round      string
	actions    int // actions taken in the current betting round
	acting     int
	turn       int
	finished   bool
}

// NewHoldemEngine returns an uninitialized hold'em engine.
func NewHoldemEngine() *HoldemEngine {
	return &HoldemEngine{}
}

// Initialize shuffles a single deck, seats the players, posts blinds and
// deals hole cards. Options: "players" (clamped to [2,9], default 2),
// "startingStack" ([100,100000], default 1000), "smallBlind" ([1,500],
// default 5), "bigBlind" ([2,2000], default 2x small blind), "button"
// (pins the dealer button; otherwise seed-derived).
func (e *HoldemEngine) Initialize(seed int64, opts Options) []GameEvent {
	e.rng = NewLCG(seed)
	players := optInt(opts, "players", 2, 2, 9)
	stack := optInt(opts, "startingStack", 1000, 100, 100000)
	e.smallBlind = optInt(opts, "smallBlind", 5, 1, 500)
	e.bigBlind = optInt(opts, "bigBlind", e.smallBlind*2, 2, 2000)

	// Draw order is fixed: shuffle first, then the button draw.
	e.deck = newShoe(1, e.rng)
	e.next = 0
	if _, ok := opts["button"]; ok {
		e.button = optInt(opts, "button", 0, 0, players-1)
	} else {
		e.button = e.rng.Intn(players)
	}

	e.seats = make([]*holdemSeat, players)
	for i := range e.seats {
		e.seats[i] = &holdemSeat{role: fmt.Sprintf("player%d", i+1), stack: stack}
	}
	e.board = nil
	e.pot = 0
	e.round = roundPreflop
	e.actions = 0
	e.turn = 0
	e.finished = false

	events := []GameEvent{{
		Turn:  0,
		Actor: ActorSystem,
		Type:  EventMatchStart,
		Payload: Payload{
			"game":           string(GameHoldem),
			"players":        players,
			"starting_stack": stack,
			"small_blind":    e.smallBlind,
			"big_blind":      e.bigBlind,
			"button":         e.button,
		},
	}}

	// Deal two hole cards per seat, one at a time, starting left of the button.
	n := players
	for r := 0; r < 2; r++ {
		for i := 1; i <= n; i++ {
			seat := e.seats[(e.button+i)%n]
			seat.hole = append(seat.hole, e.draw())
		}
	}
	for _, s := range e.seats {
		events = append(events, GameEvent{
			Turn:    0,
			Actor:   ActorSystem,
			Type:    EventDealHole,
			Payload: Payload{"seat": s.role, "cards": cardStrings(s.hole)},
		})
	}

	// Blind posting: heads-up the button is the small blind and acts first
	// preflop; with three or more players button+1/button+2 post and
	// button+3 opens.
	var sbIdx, bbIdx int
	if n == 2 {
		sbIdx, bbIdx = e.button, (e.button+1)%n
		e.acting = e.button
	} else {
		sbIdx, bbIdx = (e.button+1)%n, (e.button+2)%n
		e.acting = (e.button + 3) % n
	}
	events = append(events, e.postBlind(sbIdx, e.smallBlind, "small"))
	events = append(events, e.postBlind(bbIdx, e.bigBlind, "big"))
	e.currentBet = e.bigBlind

	logrus.Debugf("holdem: initialized players=%d button=%d blinds=%d/%d",
		players, e.button, e.smallBlind, e.bigBlind)
	return events
}

func (e *HoldemEngine) draw() Card {
	c := e.deck[e.next]
	e.next++
	return c
}

func (e *HoldemEngine) postBlind(idx, amount int, kind string) GameEvent {
	seat := e.seats[idx]
	if amount > seat.stack {
		amount = seat.stack
	}
	seat.stack -= amount
	seat.committed += amount
	e.pot += amount
	return GameEvent{
		Turn:    0,
		Actor:   ActorSystem,
		Type:    EventBlindPosted,
		Payload: Payload{"seat": seat.role, "blind": kind, "amount": amount, "pot": e.pot},
	}
}

// SystemPrompt renders the table state for the role's adapter.
func (e *HoldemEngine) SystemPrompt(role string) string {
	var seat *holdemSeat
	for _, s := range e.seats {
		if s.role == role {
			seat = s
		}
	}
	if seat == nil {
		return "You are observing a poker hand."
	}
	toCall := e.currentBet - seat.committed
	return fmt.Sprintf(
		"You are %s in a Texas hold'em hand. Round: %s. Board: [%s]. "+
			"Your hole cards: [%s]. Your stack: %d. Pot: %d. To call: %d. "+
			"Reply with one of FOLD, CHECK, CALL, BET, RAISE.",
		role, e.round, joinCards(e.board), joinCards(seat.hole), seat.stack, e.pot, toCall)
}

// Roles lists seats in position order.
func (e *HoldemEngine) Roles() []string {
	roles := make([]string, len(e.seats))
	for i, s := range e.seats {
		roles[i] = s.role
	}
	return roles
}

// ActiveRole is the seat whose action the betting round is waiting on.
func (e *HoldemEngine) ActiveRole() string {
	return e.seats[e.acting].role
}

func (e *HoldemEngine) liveCount() int {
	n := 0
	for _, s := range e.seats {
		if !s.folded {
			n++
		}
	}
	return n
}

// nextLive returns the first unfolded seat strictly after idx.
func (e *HoldemEngine) nextLive(idx int) int {
	n := len(e.seats)
	for i := 1; i <= n; i++ {
		cand := (idx + i) % n
		if !e.seats[cand].folded {
			return cand
		}
	}
	return idx
}

// ProcessMove applies one betting action for the acting seat. Unparseable or
// insufficient-stack actions are logged as ILLEGAL_ACTION and forced to FOLD.
func (e *HoldemEngine) ProcessMove(history []GameEvent, move PlayerMove) ([]GameEvent, *GameResult) {
	seat := e.seats[e.acting]
	e.turn++
	turn := e.turn

	action, reason := e.normalizeAction(seat, move.Content)

	var events []GameEvent
	if reason != "" {
		logrus.Infof("holdem: %s action %q forced to FOLD: %s", seat.role, move.Content, reason)
		events = append(events, GameEvent{
			Turn:    turn,
			Actor:   seat.role,
			Type:    EventIllegalAction,
			Payload: Payload{"move": move.Content, "reason": reason, "fallback": "FOLD"},
		})
		action = "FOLD"
	}

	paid := 0
	switch action {
	case "FOLD":
		seat.folded = true
	case "CHECK":
		// no chips move
	case "CALL":
		paid = e.currentBet - seat.committed
	case "RAISE":
		// Fixed sizing: raise to current bet plus one big blind. An opening
		// bet with no standing bet is one big blind.
		target := e.currentBet + e.bigBlind
		if e.currentBet == 0 {
			target = e.bigBlind
		}
		paid = target - seat.committed
		e.currentBet = target
	}
	if paid > 0 {
		seat.stack -= paid
		seat.committed += paid
		e.pot += paid
	}

	actionEvent := GameEvent{
		Turn:    turn,
		Actor:   seat.role,
		Type:    EventAction,
		Payload: Payload{"action": action, "amount": paid, "pot": e.pot},
	}
	if reason == "" {
		actionEvent.Payload["move"] = move.Content
	} else {
		actionEvent.Payload["forced"] = true
	}
	events = append(events, actionEvent)
	e.actions++

	// A single remaining player takes the pot immediately.
	if e.liveCount() == 1 {
		return e.awardToLastPlayer(turn, events)
	}

	// Known simplification: the round closes after a fixed number of actions
	// (one per live player), not on true action closure.
	if e.actions >= e.liveCount() {
		advanced, result := e.advanceRound(turn)
		events = append(events, advanced...)
		if result != nil {
			return events, result
		}
	} else {
		e.acting = e.nextLive(e.acting)
	}

	return events, nil
}

// normalizeAction parses the raw move text into FOLD/CHECK/CALL/RAISE and
// reports a non-empty reason when the action must be forced to FOLD.
func (e *HoldemEngine) normalizeAction(seat *holdemSeat, content string) (string, string) {
	fields := strings.Fields(strings.ToUpper(strings.TrimSpace(content)))
	if len(fields) == 0 {
		return "", "empty move"
	}
	verb := fields[0]
	toCall := e.currentBet - seat.committed

	switch verb {
	case "FOLD":
		return "FOLD", ""
	case "CHECK":
		if toCall > 0 {
			return "", fmt.Sprintf("cannot check facing a bet of %d", toCall)
		}
		return "CHECK", ""
	case "CALL":
		if toCall > seat.stack {
			return "", fmt.Sprintf("stack %d cannot cover call of %d", seat.stack, toCall)
		}
		return "CALL", ""
	case "BET", "RAISE":
		target := e.currentBet + e.bigBlind
		if e.currentBet == 0 {
			target = e.bigBlind
		}
		if target-seat.committed > seat.stack {
			return "", fmt.Sprintf("stack %d cannot cover raise to %d", seat.stack, target)
		}
		return "RAISE", ""
	default:
		return "", fmt.Sprintf("unrecognized action %q", verb)
	}
}

// advanceRound moves PREFLOP→FLOP→TURN→RIVER→SHOWDOWN, dealing board cards
// and resetting per-round betting state.
func (e *HoldemEngine) advanceRound(turn int) ([]GameEvent, *GameResult) {
	switch e.round {
	case roundPreflop:
		e.round = roundFlop
		e.board = append(e.board, e.draw(), e.draw(), e.draw())
	case roundFlop:
		e.round = roundTurn
		e.board = append(e.board, e.draw())
	case roundTurn:
		e.round = roundRiver
		e.board = append(e.board, e.draw())
	case roundRiver:
		e.round = roundShowdown
		return e.showdown(turn)
	}

	for _, s := range e.seats {
		s.committed = 0
	}
	e.currentBet = 0
	e.actions = 0
	e.acting = e.nextLive(e.button)

	return []GameEvent{{
		Turn:    turn,
		Actor:   ActorSystem,
		Type:    EventRoundAdvance,
		Payload: Payload{"round": e.round, "board": cardStrings(e.board)},
	}}, nil
}

// showdown evaluates every live hand and splits the pot evenly among ties.
// Remainder chips from an uneven split go to the earliest winner in deal
// order after the button.
func (e *HoldemEngine) showdown(turn int) ([]GameEvent, *GameResult) {
	type contender struct {
		idx   int
		score int
	}
	var contenders []contender
	showdownPayload := Payload{"board": cardStrings(e.board)}
	hands := Payload{}

	n := len(e.seats)
	for i := 1; i <= n; i++ {
		idx := (e.button + i) % n
		seat := e.seats[idx]
		if seat.folded {
			continue
		}
		score := evalBest(append(append([]Card{}, seat.hole...), e.board...))
		contenders = append(contenders, contender{idx, score})
		hands[seat.role] = Payload{
			"cards": cardStrings(seat.hole),
			"rank":  handName(score),
		}
	}
	showdownPayload["hands"] = hands

	best := -1
	for _, c := range contenders {
		if c.score > best {
			best = c.score
		}
	}
	var winners []int
	for _, c := range contenders {
		if c.score == best {
			winners = append(winners, c.idx)
		}
	}

	share := e.pot / len(winners)
	remainder := e.pot - share*len(winners)
	awards := Payload{}
	for i, idx := range winners {
		amount := share
		if i == 0 {
			amount += remainder
		}
		e.seats[idx].stack += amount
		awards[e.seats[idx].role] = amount
	}
	e.pot = 0

	result := e.finalResult()
	if len(winners) == 1 {
		result.WinnerID = e.seats[winners[0]].role
	}
	e.finished = true

	events := []GameEvent{
		{Turn: turn, Actor: ActorSystem, Type: EventShowdown, Payload: showdownPayload},
		{Turn: turn, Actor: ActorSystem, Type: EventPotAwarded, Payload: Payload{"awards": awards}},
		matchEndEvent(turn, result),
	}
	return events, result
}

// awardToLastPlayer ends the hand when everyone else has folded.
func (e *HoldemEngine) awardToLastPlayer(turn int, events []GameEvent) ([]GameEvent, *GameResult) {
	var winner *holdemSeat
	for _, s := range e.seats {
		if !s.folded {
			winner = s
			break
		}
	}
	winner.stack += e.pot
	awarded := e.pot
	e.pot = 0

	result := e.finalResult()
	result.WinnerID = winner.role
	e.finished = true

	events = append(events,
		GameEvent{
			Turn:    turn,
			Actor:   ActorSystem,
			Type:    EventPotAwarded,
			Payload: Payload{"awards": Payload{winner.role: awarded}, "uncontested": true},
		},
		matchEndEvent(turn, result),
	)
	return events, result
}

// finalResult reports every seat's closing stack as its score.
func (e *HoldemEngine) finalResult() *GameResult {
	scores := map[string]float64{}
	for _, s := range e.seats {
		scores[s.role] = float64(s.stack)
	}
	return &GameResult{Finished: true, Scores: scores}
}
