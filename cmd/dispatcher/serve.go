package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/clothline/dispatch/config"
	"github.com/clothline/dispatch/internal/agentapi"
	"github.com/clothline/dispatch/internal/analyzer"
	"github.com/clothline/dispatch/internal/executor"
	"github.com/clothline/dispatch/internal/llm"
	"github.com/clothline/dispatch/internal/message"
	"github.com/clothline/dispatch/internal/metrics"
	"github.com/clothline/dispatch/internal/session"
	"github.com/clothline/dispatch/internal/specialist"
	"github.com/clothline/dispatch/internal/statsapi"
	"github.com/clothline/dispatch/internal/telemetry"
	"github.com/clothline/dispatch/logger"

	"github.com/clothline/dispatch/internal/dispatcher"
)

// ServeCmd runs the interactive demo loop: one process, stdin turns, the
// full Analyzer -> Executor -> Fuser pipeline behind it. There is no network
// transport for turns (SPEC_FULL §1, non-goal); the only optional HTTP
// surface is the read-only /stats endpoint.
type ServeCmd struct {
	Stats      bool   `help:"Also serve GET /stats on global.stats's host:port (only when global.stats.enabled is true)."`
	ResetStats bool   `name:"reset-stats" help:"Reset the in-process metrics registry before starting."`
	UserID     string `help:"User id to attribute demo turns to." default:"demo-user"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	level, _ := logger.ParseLevel(cli.LogLevel)
	logger.Init(level, os.Stderr, cli.LogFormat)
	log := logger.GetLogger()

	cfg, err := loadServeConfig(cli.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	adapter, err := llm.BuildAdapter(cfg)
	if err != nil {
		return fmt.Errorf("building llm adapter: %w", err)
	}

	agents, err := buildSpecialists(cfg, adapter)
	if err != nil {
		return fmt.Errorf("building specialists: %w", err)
	}

	an := analyzer.NewAnalyzer(adapter)
	ex := executor.New(agents, cfg.Global.Dispatcher.AgentTimeout())
	met := metrics.New(prometheus.NewRegistry())
	if c.ResetStats {
		met.Reset()
	}

	tracer, err := telemetry.New(false, "dispatcher")
	if err != nil {
		return fmt.Errorf("building tracer: %w", err)
	}

	store := session.NewStore()
	d := dispatcher.New(store, an, agents, ex, met, tracer, cfg.Global.Dispatcher.TurnTimeout())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down")
		cancel()
	}()

	if c.Stats && cfg.Global.Stats.Enabled {
		addr := fmt.Sprintf("%s:%d", cfg.Global.Stats.Host, cfg.Global.Stats.Port)
		srv := &http.Server{Addr: addr, Handler: statsapi.NewHandler(met)}
		go func() {
			log.Info("stats endpoint listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("stats server failed", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	return runREPL(ctx, d, c.UserID)
}

// runREPL is a minimal stdin/stdout chat loop: one ProcessTurn call per
// line, one fixed conversation id per process run.
func runREPL(ctx context.Context, d *dispatcher.Dispatcher, userID string) error {
	conversationID := uuid.NewString()
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("dispatcher demo — type a message, /quit to exit")
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nbye")
			return nil
		default:
		}

		fmt.Print("you: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			fmt.Println("bye")
			return nil
		}

		msg := message.New(userID, conversationID, line)
		resp, err := d.ProcessTurn(ctx, userID, msg)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Printf("%s: %s\n", resp.AgentID, resp.Content)
	}
}

func loadServeConfig(path string) (*config.Config, error) {
	if path == "" {
		var cfg config.Config
		cfg.SetDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return config.LoadConfig(path)
}

// buildSpecialists constructs the five fixed specialist agents from their
// config entries (§4.5). Product search and order lookup are stubs per
// SPEC_FULL §4.5: those backends are out of core scope.
func buildSpecialists(cfg *config.Config, adapter *llm.Adapter) (*agentapi.Registry, error) {
	reg := agentapi.NewRegistry()

	products := specialist.StubProductSearch{}
	orders := specialist.StubOrderLookup{}

	constructors := map[string]agentapi.Agent{
		"reception_agent": specialist.NewReceptionAgent(adapter),
		"sales_agent":     specialist.NewSalesAgent(adapter, products),
		"order_agent":     specialist.NewOrderAgent(adapter, orders),
		"knowledge_agent": specialist.NewKnowledgeAgent(adapter),
		"styling_agent":   specialist.NewStylingAgent(adapter, products),
	}

	for id, agent := range constructors {
		if _, ok := cfg.Agents[id]; !ok {
			continue
		}
		if err := reg.Register(agent); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
