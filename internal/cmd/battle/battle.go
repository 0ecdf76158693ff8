// Package battle parses battle command flags and drives saved battles.
package battle

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"

	entrypoint "github.com/louisbranch/warfront/internal/platform/cmd"
	platformerrors "github.com/louisbranch/warfront/internal/platform/errors"
	"github.com/louisbranch/warfront/internal/platform/id"
	"github.com/louisbranch/warfront/internal/random"
	"github.com/louisbranch/warfront/internal/services/battle/app"
	"github.com/louisbranch/warfront/internal/services/battle/autopilot"
	"github.com/louisbranch/warfront/internal/services/battle/display"
	"github.com/louisbranch/warfront/internal/services/battle/domain/checkpoint"
	"github.com/louisbranch/warfront/internal/services/battle/domain/decision"
	"github.com/louisbranch/warfront/internal/services/battle/domain/replay"
	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
	"github.com/louisbranch/warfront/internal/services/battle/gateway"
	"github.com/louisbranch/warfront/internal/services/battle/scenario"
	battlesqlite "github.com/louisbranch/warfront/internal/services/battle/storage/sqlite"
)

// Config holds battle command configuration.
type Config struct {
	DBPath           string `env:"WARFRONT_BATTLE_DB_PATH" envDefault:"data/battles.db"`
	MaxRounds        int    `env:"WARFRONT_BATTLE_MAX_ROUNDS" envDefault:"100"`
	Seed             int64  `env:"WARFRONT_BATTLE_SEED"`
	Locale           string `env:"WARFRONT_BATTLE_LOCALE" envDefault:"en-US"`
	DecisionAttempts int    `env:"WARFRONT_BATTLE_DECISION_ATTEMPTS" envDefault:"3"`
	GatewayMaxTries  uint   `env:"WARFRONT_GATEWAY_MAX_TRIES" envDefault:"5"`
	RetreatPolicy    string `env:"WARFRONT_AUTOPILOT_RETREAT_POLICY"`
	SubmergePolicy   string `env:"WARFRONT_AUTOPILOT_SUBMERGE_POLICY"`

	Scenario   string
	Resume     string
	Response   string
	Human      string
	History    string
	Transcript string
	List       bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the battle save store")
	fs.IntVar(&cfg.MaxRounds, "max-rounds", cfg.MaxRounds, "Round limit for scenarios that set none")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Dice seed for scenarios that set none (0 picks one)")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Locale for battle notifications")
	fs.StringVar(&cfg.Scenario, "scenario", "", "Start a battle from a scenario YAML file")
	fs.StringVar(&cfg.Resume, "resume", "", "Continue the saved battle with this id")
	fs.StringVar(&cfg.Response, "response", "", "JSON decision response file answering the pending request (with -resume)")
	fs.StringVar(&cfg.Human, "human", "", "Side whose decisions are answered by hand: offense or defense")
	fs.StringVar(&cfg.History, "history", "", "Print the recorded history of a battle")
	fs.StringVar(&cfg.Transcript, "transcript", "", "Also append notifications to this file")
	fs.BoolVar(&cfg.List, "list", false, "List saved battles")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	modes := 0
	for _, set := range []bool{cfg.Scenario != "", cfg.Resume != "", cfg.History != "", cfg.List} {
		if set {
			modes++
		}
	}
	if modes != 1 {
		return errors.New("exactly one of -scenario, -resume, -history or -list is required")
	}
	if cfg.Response != "" && cfg.Resume == "" {
		return errors.New("-response requires -resume")
	}
	if cfg.Human != "" {
		if _, err := unit.ParseSide(cfg.Human); err != nil {
			return fmt.Errorf("-human: %w", err)
		}
	}
	return nil
}

// Run executes the battle command and writes results to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceBattle, func(ctx context.Context) error {
		err := run(ctx, cfg, out)
		if err != nil {
			reportError(out, err, cfg.Locale)
		}
		return err
	})
}

// reportError prints the localized message of a coded error, with the status
// code a gRPC host would answer with.
func reportError(out io.Writer, err error, locale string) {
	if platformerrors.CodeOf(err) == platformerrors.CodeUnknown {
		return
	}
	st := status.Convert(platformerrors.GRPCStatus(err, locale))
	for _, detail := range st.Details() {
		if msg, ok := detail.(*errdetails.LocalizedMessage); ok {
			fmt.Fprintf(out, "error (%s): %s\n", st.Code(), msg.GetMessage())
			return
		}
	}
}

func run(ctx context.Context, cfg Config, out io.Writer) error {
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create battle storage dir: %w", err)
		}
	}
	store, err := battlesqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open battle sqlite store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close battle sqlite store: %v", closeErr)
		}
	}()

	switch {
	case cfg.List:
		return listBattles(ctx, store, out)
	case cfg.History != "":
		return printHistory(ctx, store, cfg.History, out)
	}

	sinks := display.Fanout{display.NewLogSink(log.New(out, "", 0), cfg.Locale)}
	if cfg.Transcript != "" {
		file, err := os.OpenFile(cfg.Transcript, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open transcript: %w", err)
		}
		defer file.Close()
		sinks = append(sinks, display.NewLogSink(log.New(file, "", log.LstdFlags), cfg.Locale))
	}
	if cfg.Resume != "" {
		if cfg, err = seated(ctx, cfg, store); err != nil {
			return err
		}
	}
	router, err := newRouter(cfg, store)
	if err != nil {
		return err
	}
	host, err := app.New(app.Config{
		Store:            store,
		Gateway:          router,
		Display:          sinks,
		Log:              store,
		DecisionAttempts: cfg.DecisionAttempts,
	})
	if err != nil {
		return err
	}

	var result app.Result
	switch {
	case cfg.Scenario != "":
		result, err = startScenario(ctx, host, store, cfg)
	case cfg.Response != "":
		var resp decision.Response
		resp, err = readResponse(cfg.Response)
		if err == nil {
			result, err = host.Respond(ctx, cfg.Resume, resp)
		}
	default:
		result, err = host.Advance(ctx, cfg.Resume)
	}
	if err != nil {
		return err
	}
	return printResult(out, result)
}

// newRouter lets the autopilot answer every side except the human one,
// whose decisions are deferred until a -response arrives.
func newRouter(cfg Config, store *battlesqlite.Store) (gateway.Router, error) {
	pilot, err := autopilot.New(autopilot.Config{
		RetreatPolicy:  cfg.RetreatPolicy,
		SubmergePolicy: cfg.SubmergePolicy,
		Snapshots:      store,
	})
	if err != nil {
		return gateway.Router{}, err
	}
	automatic := gateway.NewRetrying(pilot, gateway.RetryConfig{MaxTries: cfg.GatewayMaxTries})
	router := gateway.Router{Offense: automatic, Defense: automatic}
	if cfg.Human == "" {
		return router, nil
	}
	side, err := unit.ParseSide(cfg.Human)
	if err != nil {
		return gateway.Router{}, err
	}
	if side == unit.Offense {
		router.Offense = gateway.Deferred{}
	} else {
		router.Defense = gateway.Deferred{}
	}
	return router, nil
}

// seated fills the human side of a resumed battle from its saved seat so a
// later invocation cannot hand that side to the autopilot.
func seated(ctx context.Context, cfg Config, store *battlesqlite.Store) (Config, error) {
	side, ok, err := store.HumanSide(ctx, cfg.Resume)
	if err != nil {
		return cfg, err
	}
	if ok {
		if cfg.Human == "" {
			cfg.Human = side.String()
			return cfg, nil
		}
		asked, err := unit.ParseSide(cfg.Human)
		if err != nil {
			return cfg, err
		}
		if asked != side {
			return cfg, fmt.Errorf("battle %s is played by hand on the %s side", cfg.Resume, side)
		}
		return cfg, nil
	}
	if cfg.Human == "" {
		return cfg, nil
	}
	if _, err := store.LoadSnapshot(ctx, cfg.Resume); err != nil {
		return cfg, err
	}
	return cfg, seatHuman(ctx, store, cfg.Resume, cfg.Human)
}

func seatHuman(ctx context.Context, store *battlesqlite.Store, battleID, human string) error {
	side, err := unit.ParseSide(human)
	if err != nil {
		return err
	}
	return store.SeatHuman(ctx, battleID, side)
}

func startScenario(ctx context.Context, host *app.Host, store *battlesqlite.Store, cfg Config) (app.Result, error) {
	sc, err := scenario.Load(cfg.Scenario)
	if err != nil {
		return app.Result{}, err
	}
	if sc.MaxRounds == 0 {
		sc.MaxRounds = cfg.MaxRounds
	}
	if sc.Seed == 0 {
		seed, err := random.Resolve(cfg.Seed)
		if err != nil {
			return app.Result{}, err
		}
		sc.Seed = seed
	}
	st, err := sc.State(id.NewID)
	if err != nil {
		return app.Result{}, err
	}
	if cfg.Human != "" {
		_, err := store.LoadSnapshot(ctx, st.ID)
		if err == nil {
			return app.Result{}, fmt.Errorf("battle %s already exists", st.ID)
		}
		if !errors.Is(err, checkpoint.ErrNotFound) {
			return app.Result{}, err
		}
		if err := seatHuman(ctx, store, st.ID, cfg.Human); err != nil {
			return app.Result{}, err
		}
	}
	log.Printf("starting battle %s at %s (seed %d)", st.ID, st.Site.Name, st.Seed)
	return host.Start(ctx, st)
}

func readResponse(path string) (decision.Response, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return decision.Response{}, fmt.Errorf("read response: %w", err)
	}
	var resp decision.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return decision.Response{}, fmt.Errorf("parse response: %w", err)
	}
	return resp, nil
}

func printResult(out io.Writer, result app.Result) error {
	fmt.Fprintf(out, "battle %s: %s in round %d", result.BattleID, result.Status, result.Round)
	if result.Outcome != "" {
		fmt.Fprintf(out, " (%s)", result.Outcome)
	}
	fmt.Fprintln(out)
	if result.Pending == nil {
		return nil
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result.Pending)
}

func listBattles(ctx context.Context, store *battlesqlite.Store, out io.Writer) error {
	records, err := store.ListBattles(ctx, 0)
	if err != nil {
		return err
	}
	for _, r := range records {
		outcome := string(r.Outcome)
		if outcome == "" {
			outcome = "-"
		}
		fmt.Fprintf(out, "%s\t%s\tround %d\t%s\t%s\n", r.BattleID, r.Phase, r.Round, outcome, r.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func printHistory(ctx context.Context, store *battlesqlite.Store, battleID string, out io.Writer) error {
	result, err := replay.Replay(ctx, store, battleID, replay.Options{})
	if err != nil {
		return err
	}
	for _, c := range result.Changes {
		line := fmt.Sprintf("%4d r%d %s %s", c.Seq, c.Round, c.Kind, c.Side)
		if len(c.Units) > 0 {
			ids := make([]string, len(c.Units))
			for i, u := range c.Units {
				ids[i] = string(u)
			}
			line += " [" + strings.Join(ids, " ") + "]"
		}
		for _, extra := range []string{c.Cause, c.Destination, c.Detail} {
			if extra != "" {
				line += " " + extra
			}
		}
		fmt.Fprintln(out, line)
	}
	s := result.Summary
	outcome := s.Outcome
	if outcome == "" {
		outcome = "in progress"
	}
	fmt.Fprintf(out, "%s: %d rounds, %d removed, %d submerged, %d retreated, %s\n",
		s.BattleID, s.Rounds, len(s.Removed), len(s.Submerged), len(s.Retreated), outcome)
	return nil
}
