package sim

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Event types specific to the blackjack engine.
const (
	EventDeal            = "DEAL"
	EventDealerBlackjack = "DEALER_BLACKJACK"
	EventDealerReveal    = "DEALER_REVEAL"
	EventDealerHit       = "DEALER_HIT"
	EventDealerStand     = "DEALER_STAND"
	EventSettlement      = "SETTLEMENT"
)

// blackjackConfig is the resolved rule set, clamped from the options bag.
type blackjackConfig struct {
	decks            int
	players          int
	bet              int
	startingStack    int
	allowDouble      bool
	allowDoubleAny   bool
	allowDoubleSplit bool
	allowSplit       bool
	maxHands         int
	resplitAces      bool
	allowSurrender   bool
	allowInsurance   bool
	dealerPeek       bool
	dealerHitsSoft17 bool
	noHoleCard       bool
}

type bjHand struct {
	cards       []Card
	bet         int
	acted       bool // any action taken on this hand
	stood       bool
	busted      bool
	doubled     bool
	surrendered bool
	fromSplit   bool
	splitAces   bool
}

// done reports whether this hand needs no further player action.
func (h *bjHand) done() bool {
	return h.stood || h.busted || h.surrendered || h.doubled
}

type bjSeat struct {
	role      string
	stack     int
	hands     []*bjHand
	cur       int // index of the hand being played
	insurance int
}

// BlackjackEngine plays one round of blackjack for one or more seats against
// the house dealer. Each seat may hold several simultaneously-resolving hands
// after splits, so dealing, play and settlement all run hand-by-hand, never
// seat-by-seat.
type BlackjackEngine struct {
	rng      *LCG
	cfg      blackjackConfig
	shoe     []Card
	next     int
	dealer   []Card
	revealed bool
	peeked   bool
	seats    []*bjSeat
	acting   int
	turn     int
	finished bool
}

// NewBlackjackEngine returns an uninitialized blackjack engine.
func NewBlackjackEngine() *BlackjackEngine {
	return &BlackjackEngine{}
}

// Initialize shuffles the shoe and deals the opening hands. Options:
// "decks" (clamped to [1,8], default 6), "players" ([1,7], default 1),
// "bet" ([1,1000], default 10), "startingStack" ([bet,100000], default 1000),
// plus rule toggles: "allowDouble", "allowDoubleAny", "allowDoubleAfterSplit",
// "allowSplit", "maxHands" ([2,4]), "resplitAces", "allowSurrender",
// "allowInsurance", "dealerPeek", "dealerHitsSoft17", "noHoleCard".
func (e *BlackjackEngine) Initialize(seed int64, opts Options) []GameEvent {
	e.rng = NewLCG(seed)
	bet := optInt(opts, "bet", 10, 1, 1000)
	e.cfg = blackjackConfig{
		decks:            optInt(opts, "decks", 6, 1, 8),
		players:          optInt(opts, "players", 1, 1, 7),
		bet:              bet,
		startingStack:    optInt(opts, "startingStack", 1000, bet, 100000),
		allowDouble:      optBool(opts, "allowDouble", true),
		allowDoubleAny:   optBool(opts, "allowDoubleAny", true),
		allowDoubleSplit: optBool(opts, "allowDoubleAfterSplit", true),
		allowSplit:       optBool(opts, "allowSplit", true),
		maxHands:         optInt(opts, "maxHands", 4, 2, 4),
		resplitAces:      optBool(opts, "resplitAces", false),
		allowSurrender:   optBool(opts, "allowSurrender", true),
		allowInsurance:   optBool(opts, "allowInsurance", true),
		dealerPeek:       optBool(opts, "dealerPeek", true),
		dealerHitsSoft17: optBool(opts, "dealerHitsSoft17", false),
		noHoleCard:       optBool(opts, "noHoleCard", false),
	}

	e.shoe = newShoe(e.cfg.decks, e.rng)
	e.next = 0
	e.dealer = nil
	e.revealed = false
	e.peeked = false
	e.acting = 0
	e.turn = 0
	e.finished = false

	e.seats = make([]*bjSeat, e.cfg.players)
	for i := range e.seats {
		e.seats[i] = &bjSeat{
			role:  fmt.Sprintf("seat%d", i+1),
			stack: e.cfg.startingStack,
		}
	}

	events := []GameEvent{{
		Turn:  0,
		Actor: ActorSystem,
		Type:  EventMatchStart,
		Payload: Payload{
			"game":                string(GameBlackjack),
			"decks":               e.cfg.decks,
			"players":             e.cfg.players,
			"bet":                 e.cfg.bet,
			"starting_stack":      e.cfg.startingStack,
			"dealer_hits_soft_17": e.cfg.dealerHitsSoft17,
			"no_hole_card":        e.cfg.noHoleCard,
		},
	}}

	// Opening deal: one card per seat then the dealer, twice. In the
	// no-hole-card variant the dealer's second card is drawn only after all
	// players have acted.
	for r := 0; r < 2; r++ {
		for _, seat := range e.seats {
			if r == 0 {
				seat.stack -= e.cfg.bet
				seat.hands = []*bjHand{{bet: e.cfg.bet}}
			}
			h := seat.hands[0]
			h.cards = append(h.cards, e.draw())
		}
		if r == 0 || !e.cfg.noHoleCard {
			e.dealer = append(e.dealer, e.draw())
		}
	}

	dealPayload := Payload{"dealer_upcard": e.dealer[0].String()}
	hands := Payload{}
	for _, seat := range e.seats {
		hands[seat.role] = cardStrings(seat.hands[0].cards)
	}
	dealPayload["hands"] = hands
	events = append(events, GameEvent{
		Turn:    0,
		Actor:   ActorSystem,
		Type:    EventDeal,
		Payload: dealPayload,
	})

	logrus.Debugf("blackjack: initialized decks=%d players=%d upcard=%s",
		e.cfg.decks, e.cfg.players, e.dealer[0])
	return events
}

func (e *BlackjackEngine) draw() Card {
	if e.next >= len(e.shoe) {
		// Shoe exhausted mid-round: reshuffle a fresh shoe from the same
		// deterministic stream.
		e.shoe = newShoe(e.cfg.decks, e.rng)
		e.next = 0
	}
	c := e.shoe[e.next]
	e.next++
	return c
}

// handValue computes the best total, counting one ace as 11 when that does
// not bust ("soft").
func handValue(cards []Card) (total int, soft bool) {
	aces := 0
	for _, c := range cards {
		switch {
		case c.Rank == 14:
			aces++
			total++
		case c.Rank > 10:
			total += 10
		default:
			total += c.Rank
		}
	}
	if aces > 0 && total+10 <= 21 {
		return total + 10, true
	}
	return total, false
}

// isBlackjack is a natural: 21 on the first two cards of an unsplit hand.
func isBlackjack(h *bjHand) bool {
	if len(h.cards) != 2 || h.fromSplit {
		return false
	}
	total, _ := handValue(h.cards)
	return total == 21
}

func isTenValue(c Card) bool { return c.Rank >= 10 && c.Rank <= 13 }

// SystemPrompt renders the active seat's situation for its adapter.
func (e *BlackjackEngine) SystemPrompt(role string) string {
	for _, seat := range e.seats {
		if seat.role != role || seat.cur >= len(seat.hands) {
			continue
		}
		h := seat.hands[seat.cur]
		total, soft := handValue(h.cards)
		kind := "hard"
		if soft {
			kind = "soft"
		}
		return fmt.Sprintf(
			"You are %s playing blackjack. Your hand %d of %d: [%s] (%s %d). "+
				"Dealer shows: %s. Your stack: %d, bet: %d. "+
				"Reply with one of HIT, STAND, DOUBLE, SPLIT, INSURANCE, SURRENDER.",
			role, seat.cur+1, len(seat.hands), joinCards(h.cards), kind, total,
			e.dealer[0], seat.stack, h.bet)
	}
	return "You are playing blackjack. Reply with STAND."
}

// Roles lists seats in table order.
func (e *BlackjackEngine) Roles() []string {
	roles := make([]string, len(e.seats))
	for i, s := range e.seats {
		roles[i] = s.role
	}
	return roles
}

// ActiveRole is the seat owning the hand currently being played.
func (e *BlackjackEngine) ActiveRole() string {
	return e.seats[e.acting].role
}

// ProcessMove applies one player action to the active hand. Invalid actions
// degrade to the nearest legal default (DOUBLE/SPLIT to HIT, everything else
// to STAND) after an ILLEGAL_ACTION event.
func (e *BlackjackEngine) ProcessMove(history []GameEvent, move PlayerMove) ([]GameEvent, *GameResult) {
	seat := e.seats[e.acting]
	e.turn++
	turn := e.turn

	// Peek resolves before the first player action: with an ace or ten
	// showing and a hole card down, a dealer natural ends the round here.
	if !e.peeked {
		e.peeked = true
		if e.cfg.dealerPeek && !e.cfg.noHoleCard &&
			(e.dealer[0].Rank == 14 || isTenValue(e.dealer[0])) {
			if total, _ := handValue(e.dealer); total == 21 {
				e.revealed = true
				events := []GameEvent{{
					Turn:    turn,
					Actor:   ActorSystem,
					Type:    EventDealerBlackjack,
					Payload: Payload{"move": move.Content, "cards": cardStrings(e.dealer)},
				}}
				settle, result := e.settle(turn)
				return append(events, settle...), result
			}
		}
	}

	h := seat.hands[seat.cur]
	action, reason := e.normalizeAction(seat, h, move.Content)

	var events []GameEvent
	if reason != "" {
		logrus.Infof("blackjack: %s action %q degraded to %s: %s", seat.role, move.Content, action, reason)
		events = append(events, GameEvent{
			Turn:    turn,
			Actor:   seat.role,
			Type:    EventIllegalAction,
			Payload: Payload{"move": move.Content, "reason": reason, "fallback": action},
		})
	}

	actionPayload := Payload{"action": action, "hand": seat.cur}
	if reason == "" {
		actionPayload["move"] = move.Content
	} else {
		actionPayload["forced"] = true
	}

	switch action {
	case "HIT":
		c := e.draw()
		h.cards = append(h.cards, c)
		h.acted = true
		total, _ := handValue(h.cards)
		actionPayload["card"] = c.String()
		actionPayload["total"] = total
		if total > 21 {
			h.busted = true
			actionPayload["busted"] = true
		}

	case "STAND":
		h.stood = true
		h.acted = true
		total, _ := handValue(h.cards)
		actionPayload["total"] = total

	case "DOUBLE":
		seat.stack -= h.bet
		h.bet *= 2
		h.doubled = true
		h.acted = true
		c := e.draw()
		h.cards = append(h.cards, c)
		total, _ := handValue(h.cards)
		actionPayload["card"] = c.String()
		actionPayload["total"] = total
		actionPayload["bet"] = h.bet
		if total > 21 {
			h.busted = true
			actionPayload["busted"] = true
		}

	case "SPLIT":
		seat.stack -= h.bet
		aces := h.cards[0].Rank == 14
		second := &bjHand{
			cards:     []Card{h.cards[1], e.draw()},
			bet:       h.bet,
			fromSplit: true,
			splitAces: aces,
		}
		h.cards = []Card{h.cards[0], e.draw()}
		h.fromSplit = true
		h.splitAces = aces
		h.acted = false
		// Split aces receive one card each and stand automatically.
		if aces && !e.cfg.resplitAces {
			h.stood = true
			second.stood = true
		}
		rest := append([]*bjHand{second}, seat.hands[seat.cur+1:]...)
		seat.hands = append(seat.hands[:seat.cur+1], rest...)
		actionPayload["hands"] = len(seat.hands)
		actionPayload["cards"] = cardStrings(h.cards)

	case "INSURANCE":
		cost := h.bet / 2
		seat.stack -= cost
		seat.insurance = cost
		h.acted = true
		actionPayload["amount"] = cost

	case "SURRENDER":
		h.surrendered = true
		h.acted = true
	}

	events = append(events, GameEvent{
		Turn:    turn,
		Actor:   seat.role,
		Type:    EventAction,
		Payload: actionPayload,
	})

	if !e.advanceHand() {
		return events, nil
	}

	// All hands resolved: the dealer plays, then settlement.
	dealerEvents := e.playDealer(turn)
	events = append(events, dealerEvents...)
	settle, result := e.settle(turn)
	return append(events, settle...), result
}

// normalizeAction validates the requested action against the rule gates and
// returns the action to apply plus a non-empty degradation reason when the
// request was illegal.
func (e *BlackjackEngine) normalizeAction(seat *bjSeat, h *bjHand, content string) (string, string) {
	fields := strings.Fields(strings.ToUpper(strings.TrimSpace(content)))
	verb := ""
	if len(fields) > 0 {
		verb = fields[0]
	}

	switch verb {
	case "HIT":
		return "HIT", ""

	case "STAND":
		return "STAND", ""

	case "DOUBLE":
		if !e.cfg.allowDouble {
			return "HIT", "doubling is disabled"
		}
		if len(h.cards) != 2 || h.acted {
			return "HIT", "double requires the first two cards"
		}
		if h.fromSplit && !e.cfg.allowDoubleSplit {
			return "HIT", "double after split is disabled"
		}
		if !e.cfg.allowDoubleAny {
			if total, soft := handValue(h.cards); soft || total < 9 || total > 11 {
				return "HIT", "double restricted to hard 9-11"
			}
		}
		if seat.stack < h.bet {
			return "HIT", fmt.Sprintf("stack %d cannot cover double of %d", seat.stack, h.bet)
		}
		return "DOUBLE", ""

	case "SPLIT":
		if !e.cfg.allowSplit {
			return "HIT", "splitting is disabled"
		}
		if len(h.cards) != 2 || h.acted {
			return "HIT", "split requires the first two cards"
		}
		if h.cards[0].Rank != h.cards[1].Rank {
			return "HIT", "split requires a matched pair"
		}
		if len(seat.hands) >= e.cfg.maxHands {
			return "HIT", fmt.Sprintf("seat is capped at %d hands", e.cfg.maxHands)
		}
		if h.cards[0].Rank == 14 && h.splitAces && !e.cfg.resplitAces {
			return "HIT", "aces cannot be resplit"
		}
		if seat.stack < h.bet {
			return "HIT", fmt.Sprintf("stack %d cannot cover split bet of %d", seat.stack, h.bet)
		}
		return "SPLIT", ""

	case "INSURANCE":
		if !e.cfg.allowInsurance {
			return "STAND", "insurance is disabled"
		}
		if e.dealer[0].Rank != 14 {
			return "STAND", "insurance requires the dealer to show an ace"
		}
		if e.revealed {
			return "STAND", "hole card already revealed"
		}
		if h.acted || seat.cur != 0 || len(seat.hands) != 1 || seat.insurance > 0 {
			return "STAND", "insurance is a first action only"
		}
		if seat.stack < h.bet/2 {
			return "STAND", "stack cannot cover insurance"
		}
		return "INSURANCE", ""

	case "SURRENDER":
		if !e.cfg.allowSurrender {
			return "STAND", "surrender is disabled"
		}
		if len(h.cards) != 2 || h.acted || h.fromSplit {
			return "STAND", "surrender is a first action only"
		}
		return "SURRENDER", ""

	default:
		return "STAND", fmt.Sprintf("unrecognized action %q", verb)
	}
}

// advanceHand moves the cursor to the next hand needing action, walking hands
// within a seat and then seats across the table. Returns true when every hand
// is resolved.
func (e *BlackjackEngine) advanceHand() bool {
	for e.acting < len(e.seats) {
		seat := e.seats[e.acting]
		for seat.cur < len(seat.hands) && seat.hands[seat.cur].done() {
			seat.cur++
		}
		if seat.cur < len(seat.hands) {
			return false
		}
		e.acting++
	}
	e.acting = len(e.seats) - 1
	return true
}

// playDealer reveals (or draws) the hole card and hits to 17, honoring the
// soft-17 toggle. The dealer does not draw when no live hand remains.
func (e *BlackjackEngine) playDealer(turn int) []GameEvent {
	if e.cfg.noHoleCard {
		e.dealer = append(e.dealer, e.draw())
	}
	e.revealed = true

	events := []GameEvent{{
		Turn:    turn,
		Actor:   ActorSystem,
		Type:    EventDealerReveal,
		Payload: Payload{"cards": cardStrings(e.dealer)},
	}}

	live := false
	for _, seat := range e.seats {
		for _, h := range seat.hands {
			if !h.busted && !h.surrendered {
				live = true
			}
		}
	}
	if !live {
		return events
	}

	for {
		total, soft := handValue(e.dealer)
		if total > 17 || (total == 17 && (!soft || !e.cfg.dealerHitsSoft17)) {
			events = append(events, GameEvent{
				Turn:    turn,
				Actor:   ActorSystem,
				Type:    EventDealerStand,
				Payload: Payload{"total": total},
			})
			return events
		}
		c := e.draw()
		e.dealer = append(e.dealer, c)
		newTotal, _ := handValue(e.dealer)
		ev := GameEvent{
			Turn:    turn,
			Actor:   ActorSystem,
			Type:    EventDealerHit,
			Payload: Payload{"card": c.String(), "total": newTotal},
		}
		if newTotal > 21 {
			ev.Payload["busted"] = true
			events = append(events, ev)
			return events
		}
		events = append(events, ev)
	}
}

// settle resolves every hand individually in the fixed order: surrender,
// bust, player blackjack over a non-blackjack dealer, dealer blackjack over a
// non-blackjack player, dealer bust, high-card compare, push. Insurance pays
// 2:1 only against a dealer natural.
func (e *BlackjackEngine) settle(turn int) ([]GameEvent, *GameResult) {
	dealerTotal, _ := handValue(e.dealer)
	dealerBJ := len(e.dealer) == 2 && dealerTotal == 21
	dealerBust := dealerTotal > 21

	var events []GameEvent
	for _, seat := range e.seats {
		for i, h := range seat.hands {
			total, _ := handValue(h.cards)
			var outcome string
			var payout int
			switch {
			case h.surrendered:
				outcome, payout = "surrender", h.bet/2
			case h.busted:
				outcome, payout = "bust", 0
			case isBlackjack(h) && !dealerBJ:
				outcome, payout = "blackjack", h.bet+h.bet*3/2
			case dealerBJ && !isBlackjack(h):
				outcome, payout = "dealer_blackjack", 0
			case dealerBust:
				outcome, payout = "dealer_bust", 2*h.bet
			case total > dealerTotal:
				outcome, payout = "win", 2*h.bet
			case total < dealerTotal:
				outcome, payout = "lose", 0
			default:
				outcome, payout = "push", h.bet
			}
			seat.stack += payout
			events = append(events, GameEvent{
				Turn:  turn,
				Actor: ActorSystem,
				Type:  EventSettlement,
				Payload: Payload{
					"seat":    seat.role,
					"hand":    i,
					"cards":   cardStrings(h.cards),
					"total":   total,
					"outcome": outcome,
					"bet":     h.bet,
					"payout":  payout,
				},
			})
		}
		if seat.insurance > 0 && dealerBJ {
			win := seat.insurance * 3
			seat.stack += win
			events = append(events, GameEvent{
				Turn:    turn,
				Actor:   ActorSystem,
				Type:    EventSettlement,
				Payload: Payload{"seat": seat.role, "outcome": "insurance", "payout": win},
			})
		}
	}

	scores := map[string]float64{}
	winner := ""
	best := -1
	unique := true
	for _, seat := range e.seats {
		scores[seat.role] = float64(seat.stack)
		if seat.stack > best {
			best, winner, unique = seat.stack, seat.role, true
		} else if seat.stack == best {
			unique = false
		}
	}
	result := &GameResult{Finished: true, Scores: scores}
	if unique && len(e.seats) > 1 {
		result.WinnerID = winner
	}
	e.finished = true
	events = append(events, matchEndEvent(turn, result))
	return events, result
}
