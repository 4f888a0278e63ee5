package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/match-sim/match-sim/sim"
	"github.com/match-sim/match-sim/sim/adapter"
	"github.com/match-sim/match-sim/sim/ledger"
	"github.com/match-sim/match-sim/sim/match"
)

var (
	// CLI flags shared by run and replay
	gameType    string // Game engine to run
	seed        int64  // Seed for the engine's deterministic RNG
	logLevel    string // Log verbosity level
	ledgerPath  string // SQLite ledger path ("" = in-memory)
	optionsPath string // YAML file with the engine option bag

	// run-only flags
	turnCap        int      // Caller-supplied safety ceiling on move count
	players        []string // role=provider:model participant bindings
	compositesPath string   // YAML file with named composite adapter configs
	modelEndpoint  string   // OpenAI-compatible base URL for provider "openai"
	modelAPIKey    string   // API key for provider "openai"

	// replay-only flags
	matchID string // Match to verify
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "matchsim",
	Short: "Deterministic turn-based match simulator for model-backed players",
}

// runCmd executes one match using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a match to completion",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		gt := sim.GameType(gameType)
		opts, err := loadOptions(optionsPath)
		if err != nil {
			logrus.Fatalf("Unable to read options file: %v", err)
		}

		store, err := openStore(ledgerPath)
		if err != nil {
			logrus.Fatalf("Unable to open ledger store: %v", err)
		}
		defer store.Close()

		composites, err := loadComposites(compositesPath)
		if err != nil {
			logrus.Fatalf("Unable to read composites file: %v", err)
		}
		resolve := buildResolver(modelEndpoint, modelAPIKey, composites, seed)

		participants, err := buildParticipants(gt, seed, opts, players)
		if err != nil {
			logrus.Fatalf("Invalid participants: %v", err)
		}

		m := &match.Match{
			ID:           uuid.NewString(),
			GameType:     gt,
			Seed:         seed,
			Options:      opts,
			Status:       match.StatusPending,
			Participants: participants,
		}

		orch := match.NewOrchestrator(store, resolve, turnCap)
		if err := orch.Run(context.Background(), m); err != nil {
			logrus.Fatalf("Match failed: %v", err)
		}

		fmt.Printf("match %s: %s\n", m.ID, m.Status)
		if m.Result != nil {
			for role, score := range m.Result.Scores {
				fmt.Printf("  %s: %g\n", role, score)
			}
			if m.Result.WinnerID != "" {
				fmt.Printf("  winner: %s\n", m.Result.WinnerID)
			}
		}
	},
}

// replayCmd verifies a persisted ledger against a fresh replay
var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a persisted ledger and verify it is reproducible",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		if ledgerPath == "" {
			logrus.Fatalf("--db is required for replay")
		}
		if matchID == "" {
			logrus.Fatalf("--match-id is required for replay")
		}

		opts, err := loadOptions(optionsPath)
		if err != nil {
			logrus.Fatalf("Unable to read options file: %v", err)
		}

		store, err := ledger.OpenSQLite(ledgerPath)
		if err != nil {
			logrus.Fatalf("Unable to open ledger store: %v", err)
		}
		defer store.Close()

		recorded, err := store.Events(context.Background(), matchID)
		if err != nil {
			logrus.Fatalf("Unable to load ledger: %v", err)
		}
		if len(recorded) == 0 {
			logrus.Fatalf("No events found for match %s", matchID)
		}

		ok, err := match.Verify(sim.GameType(gameType), seed, opts, recorded)
		if err != nil {
			logrus.Fatalf("Replay failed: %v", err)
		}
		if !ok {
			logrus.Fatalf("Ledger for match %s is NOT reproducible", matchID)
		}
		fmt.Printf("match %s: ledger verified (%d events)\n", matchID, len(recorded))
	},
}

// gamesCmd lists the registered game types
var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "List supported game types",
	Run: func(cmd *cobra.Command, args []string) {
		for _, gt := range sim.GameTypes() {
			probe, err := sim.NewEngine(gt)
			if err != nil {
				continue
			}
			probe.Initialize(0, sim.Options{})
			fmt.Printf("%s (roles: %s)\n", gt, strings.Join(probe.Roles(), ", "))
		}
	},
}

func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

func openStore(path string) (ledger.Store, error) {
	if path == "" {
		return ledger.NewMemory(), nil
	}
	return ledger.OpenSQLite(path)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// splitRef parses a "provider:model" adapter reference.
func splitRef(ref string) (string, string) {
	parts := strings.SplitN(ref, ":", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

// buildResolver maps (provider, model) pairs to adapters. Provider "scripted"
// treats the model field as a semicolon-separated move list; "openai" targets
// an OpenAI-compatible endpoint; "composite" looks up a named stored config.
func buildResolver(endpoint, apiKey string, composites map[string]adapter.CompositeConfig, seed int64) adapter.ResolveFunc {
	var resolve adapter.ResolveFunc
	resolve = func(provider, model string) (adapter.Adapter, error) {
		switch provider {
		case "scripted":
			return adapter.NewScripted(strings.Split(model, ";")...), nil
		case "openai":
			return adapter.NewHTTP(adapter.HTTPConfig{
				BaseURL: endpoint,
				APIKey:  apiKey,
				Model:   model,
			}), nil
		case "composite":
			load := func() (adapter.CompositeConfig, error) {
				cfg, ok := composites[model]
				if !ok {
					return adapter.CompositeConfig{}, fmt.Errorf("unknown composite config %q", model)
				}
				return cfg, nil
			}
			resolveRef := func(ref string) (adapter.Adapter, error) {
				p, m := splitRef(ref)
				return resolve(p, m)
			}
			return adapter.NewComposite(load, resolveRef, seed), nil
		default:
			return nil, fmt.Errorf("unknown adapter provider %q", provider)
		}
	}
	return resolve
}

// buildParticipants binds every engine role to a provider:model pair from the
// --player flags, defaulting unbound roles to a scripted ROLL stub.
func buildParticipants(gt sim.GameType, seed int64, opts sim.Options, bindings []string) ([]match.Participant, error) {
	bound := map[string]match.Participant{}
	for _, b := range bindings {
		parts := strings.SplitN(b, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("player binding %q must be role=provider:model", b)
		}
		provider, model := splitRef(parts[1])
		bound[parts[0]] = match.Participant{Role: parts[0], Provider: provider, Model: model}
	}

	// A throwaway engine instance resolves the role list for this option bag.
	probe, err := sim.NewEngine(gt)
	if err != nil {
		return nil, err
	}
	probe.Initialize(seed, opts)

	var participants []match.Participant
	for _, role := range probe.Roles() {
		if p, ok := bound[role]; ok {
			participants = append(participants, p)
			continue
		}
		logrus.Warnf("role %s has no --player binding, using a scripted stub", role)
		participants = append(participants, match.Participant{
			Role: role, Provider: "scripted", Model: "ROLL",
		})
	}
	return participants, nil
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().StringVar(&gameType, "game", string(sim.GameChutes), "Game type (see 'matchsim games')")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for the engine's deterministic RNG")
	runCmd.Flags().IntVar(&turnCap, "turn-cap", match.DefaultTurnCap, "Safety ceiling on moves before a forced draw")
	runCmd.Flags().StringVar(&ledgerPath, "db", "", "SQLite ledger path (empty = in-memory)")
	runCmd.Flags().StringVar(&optionsPath, "options", "", "YAML file with engine options")
	runCmd.Flags().StringArrayVar(&players, "player", nil, "Participant binding role=provider:model (repeatable)")
	runCmd.Flags().StringVar(&compositesPath, "composites", "", "YAML file with named composite adapter configs")
	runCmd.Flags().StringVar(&modelEndpoint, "endpoint", "", "OpenAI-compatible base URL for provider 'openai'")
	runCmd.Flags().StringVar(&modelAPIKey, "api-key", os.Getenv("MATCHSIM_API_KEY"), "API key for provider 'openai'")

	replayCmd.Flags().StringVar(&gameType, "game", string(sim.GameChutes), "Game type of the recorded match")
	replayCmd.Flags().Int64Var(&seed, "seed", 42, "Seed the recorded match ran with")
	replayCmd.Flags().StringVar(&ledgerPath, "db", "", "SQLite ledger path")
	replayCmd.Flags().StringVar(&optionsPath, "options", "", "YAML file with engine options")
	replayCmd.Flags().StringVar(&matchID, "match-id", "", "Match to verify")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(gamesCmd)
}
