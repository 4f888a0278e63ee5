package adapter

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/match-sim/match-sim/sim"
)

// Strategy selects how a Composite orchestrates its member adapters.
type Strategy string

const (
	StrategyRoundRobin Strategy = "ROUND_ROBIN"
	StrategyRandom     Strategy = "RANDOM"
	StrategyFallback   Strategy = "FALLBACK"
	StrategyPipeline   Strategy = "PIPELINE"
)

// Member is one underlying adapter reference in a composite configuration.
type Member struct {
	AdapterRef string `yaml:"adapterRef"`
	Weight     int    `yaml:"weight"`
	Position   int    `yaml:"position"`
}

// PipelineStep is one ordered step of a PIPELINE composite. PromptTemplate
// may contain {{system}}, {{history}} and {{input}} placeholders.
type PipelineStep struct {
	AdapterRef     string `yaml:"adapterRef"`
	Position       int    `yaml:"position"`
	PromptTemplate string `yaml:"promptTemplate"`
}

// CompositeConfig is the stored configuration a Composite resolves on first
// use.
type CompositeConfig struct {
	Strategy      Strategy       `yaml:"strategy"`
	Members       []Member       `yaml:"members"`
	PipelineSteps []PipelineStep `yaml:"pipelineSteps"`
}

// defaultPipelineTemplate is used when a step carries no template.
const defaultPipelineTemplate = "Previous output:\n{{input}}\n\nContinue."

// resolveState is the explicit two-state machine behind lazy configuration
// loading: unresolved until the first GenerateMove, then resolved and cached
// for the adapter's lifetime. The mutex makes concurrent first use race-free.
type resolveState int

const (
	stateUnresolved resolveState = iota
	stateResolved
)

type compositeMember struct {
	adapter Adapter
	weight  int
}

type compositeStep struct {
	adapter  Adapter
	template string
}

// Composite is the meta-adapter: it wraps N member adapters behind one of the
// four orchestration strategies.
type Composite struct {
	load       func() (CompositeConfig, error)
	resolveRef func(ref string) (Adapter, error)
	seed       int64

	mu      sync.Mutex
	state   resolveState
	cfg     CompositeConfig
	members []compositeMember
	steps   []compositeStep
	rng     *sim.LCG
	calls   uint64
}

// NewComposite creates a Composite over a stored configuration. load is
// invoked once, on first use; resolveRef maps member adapterRefs to concrete
// adapters; seed drives the RANDOM strategy deterministically.
func NewComposite(load func() (CompositeConfig, error), resolveRef func(string) (Adapter, error), seed int64) *Composite {
	return &Composite{load: load, resolveRef: resolveRef, seed: seed}
}

// resolve loads and caches the configuration. Idempotent; callers hold no
// lock.
func (c *Composite) resolve() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateResolved {
		return nil
	}

	cfg, err := c.load()
	if err != nil {
		return fmt.Errorf("load composite config: %w", err)
	}

	switch cfg.Strategy {
	case StrategyRoundRobin, StrategyRandom, StrategyFallback:
		if len(cfg.Members) == 0 {
			return fmt.Errorf("strategy %s requires at least one member", cfg.Strategy)
		}
		members := append([]Member{}, cfg.Members...)
		sort.SliceStable(members, func(i, j int) bool { return members[i].Position < members[j].Position })
		c.members = make([]compositeMember, len(members))
		for i, m := range members {
			a, err := c.resolveRef(m.AdapterRef)
			if err != nil {
				return fmt.Errorf("resolve member %q: %w", m.AdapterRef, err)
			}
			weight := m.Weight
			if weight <= 0 {
				weight = 1
			}
			c.members[i] = compositeMember{adapter: a, weight: weight}
		}

	case StrategyPipeline:
		if len(cfg.PipelineSteps) < 2 {
			return fmt.Errorf("strategy PIPELINE requires at least two steps")
		}
		steps := append([]PipelineStep{}, cfg.PipelineSteps...)
		sort.SliceStable(steps, func(i, j int) bool { return steps[i].Position < steps[j].Position })
		c.steps = make([]compositeStep, len(steps))
		for i, s := range steps {
			a, err := c.resolveRef(s.AdapterRef)
			if err != nil {
				return fmt.Errorf("resolve step %q: %w", s.AdapterRef, err)
			}
			template := s.PromptTemplate
			if template == "" {
				template = defaultPipelineTemplate
			}
			c.steps[i] = compositeStep{adapter: a, template: template}
		}

	default:
		return fmt.Errorf("unknown composite strategy %q", cfg.Strategy)
	}

	c.cfg = cfg
	c.rng = sim.NewLCG(c.seed)
	c.state = stateResolved
	logrus.Debugf("composite: resolved strategy=%s members=%d steps=%d",
		cfg.Strategy, len(c.members), len(c.steps))
	return nil
}

// GenerateMove dispatches to the configured strategy. Resolution failures are
// reported through the sentinel, never as a panic or error.
func (c *Composite) GenerateMove(ctx context.Context, systemPrompt string, history []sim.GameEvent) string {
	if err := c.resolve(); err != nil {
		return Errorf("composite: %v", err)
	}

	switch c.cfg.Strategy {
	case StrategyRoundRobin:
		return c.roundRobin(ctx, systemPrompt, history)
	case StrategyRandom:
		return c.random(ctx, systemPrompt, history)
	case StrategyFallback:
		return c.fallback(ctx, systemPrompt, history)
	default:
		return c.pipeline(ctx, systemPrompt, history)
	}
}

// roundRobin cycles members in position order, one per call.
func (c *Composite) roundRobin(ctx context.Context, systemPrompt string, history []sim.GameEvent) string {
	c.mu.Lock()
	idx := int(c.calls % uint64(len(c.members)))
	c.calls++
	member := c.members[idx]
	c.mu.Unlock()
	return member.adapter.GenerateMove(ctx, systemPrompt, history)
}

// random draws a uniform value in [0, totalWeight) and walks members
// subtracting each weight until the running total falls to zero or below.
func (c *Composite) random(ctx context.Context, systemPrompt string, history []sim.GameEvent) string {
	c.mu.Lock()
	total := 0
	for _, m := range c.members {
		total += m.weight
	}
	draw := c.rng.Intn(total)
	member := c.members[len(c.members)-1]
	for _, m := range c.members {
		draw -= m.weight
		if draw <= 0 {
			member = m
			break
		}
	}
	c.mu.Unlock()
	return member.adapter.GenerateMove(ctx, systemPrompt, history)
}

// fallback tries members in order and returns the first non-sentinel
// response; when every member fails, the last sentinel is returned.
func (c *Composite) fallback(ctx context.Context, systemPrompt string, history []sim.GameEvent) string {
	last := Errorf("fallback: no members")
	for _, m := range c.members {
		resp := m.adapter.GenerateMove(ctx, systemPrompt, history)
		if !IsError(resp) {
			return resp
		}
		logrus.Debugf("composite: fallback member failed: %s", resp)
		last = resp
	}
	return last
}

// pipeline chains steps: each step's output becomes the next step's
// {{input}}. A sentinel at any step aborts immediately and is returned
// as-is.
func (c *Composite) pipeline(ctx context.Context, systemPrompt string, history []sim.GameEvent) string {
	serialized := SerializeHistory(history)
	input := ""
	for _, s := range c.steps {
		prompt := strings.NewReplacer(
			"{{system}}", systemPrompt,
			"{{history}}", serialized,
			"{{input}}", input,
		).Replace(s.template)
		out := s.adapter.GenerateMove(ctx, prompt, history)
		if IsError(out) {
			return out
		}
		input = out
	}
	return input
}

var _ Adapter = (*Composite)(nil)
