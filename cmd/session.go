package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mj1618/desktop-pilot/internal/backend"
	"github.com/mj1618/desktop-pilot/internal/config"
	"github.com/mj1618/desktop-pilot/internal/coords"
	"github.com/mj1618/desktop-pilot/internal/engine"
	"github.com/mj1618/desktop-pilot/internal/model"
	"github.com/mj1618/desktop-pilot/internal/output"
	"github.com/mj1618/desktop-pilot/internal/planner"
)

// session ties one backend connection to an engine and, for run, a planner.
type session struct {
	backend *backend.Client
	mapper  *coords.Mapper
	engine  *engine.Engine
	planner planner.Planner
	logger  *slog.Logger
	// progress receives one line per outcome; results go to stdout.
	progress io.Writer
}

// connectBackend dials the automation endpoint. With no command
// configured for stdio, this binary's own serve command is started.
func connectBackend(ctx context.Context, bc config.BackendConfig, dryRun bool, log *slog.Logger) (*backend.Client, error) {
	dial := backend.Config{
		Transport: bc.Transport,
		Command:   bc.Command,
		Args:      bc.Args,
		URL:       bc.URL,
	}
	if dial.Transport == "stdio" && dial.Command == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate executable: %w", err)
		}
		dial.Command = self
		dial.Args = []string{"serve", "--log-level", "warn"}
		if dryRun {
			dial.Args = append(dial.Args, "--dry-run")
		}
	}

	c, err := backend.Dial(ctx, dial, log.With("component", "backend"))
	if err != nil {
		return nil, err
	}
	if err := c.Ping(ctx); err != nil {
		c.Close()
		return nil, err
	}
	log.Info("connected to automation endpoint", "transport", dial.Transport, "tools", len(c.Tools()))
	return c, nil
}

// newSession builds the mapper and engine for an open backend.
func newSession(c *backend.Client, ec config.EngineConfig, cc config.CoordinatesConfig, log *slog.Logger, progress io.Writer) *session {
	s := &session{backend: c, logger: log, progress: progress}

	var mapper engine.Normalizer
	if !cc.Disabled {
		s.mapper = coords.NewMapper(c, coords.WithTTL(cc.CacheTTL), coords.WithLogger(log.With("component", "coords")))
		mapper = s.mapper
	}
	s.engine = engine.New(c, mapper, engineOptions(ec, log, s.report))
	return s
}

func engineOptions(ec config.EngineConfig, log *slog.Logger, onOutcome func(model.ActionOutcome)) engine.Options {
	delay := ec.ActionDelay
	if delay == 0 {
		delay = -1
	}
	kinds := make([]model.ErrorKind, 0, len(ec.FatalErrorKinds))
	for _, k := range ec.FatalErrorKinds {
		kinds = append(kinds, model.ErrorKind(strings.TrimSpace(k)))
	}
	return engine.Options{
		ActionTimeout:     ec.ActionTimeout,
		ActionDelay:       delay,
		GracefulAbortWait: ec.GracefulAbortWait,
		Retries:           ec.RetryAttempts,
		RetryDelay:        ec.RetryDelay,
		StrictPlans:       ec.StrictPlans,
		Policy:            engine.NewPolicy(ec.CriticalActions, kinds),
		Logger:            log.With("component", "engine"),
		OnOutcome:         onOutcome,
	}
}

func (s *session) report(o model.ActionOutcome) {
	if s.progress == nil {
		return
	}
	fmt.Fprintln(s.progress, output.OutcomeLine(o, s.engine.Status().Total))
}

// executePlan submits plan and runs it. The first SIGINT or SIGTERM
// aborts gracefully; a second one, or an expired graceful wait, cancels
// the run.
func (s *session) executePlan(ctx context.Context, plan model.Plan) (*model.RunSummary, error) {
	if err := s.engine.Submit(plan); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	finished := make(chan struct{})
	defer close(finished)
	go s.watchSignals(runCtx, cancel, sigs, finished)

	summary, err := s.engine.Execute(runCtx)
	if err != nil {
		return nil, err
	}
	if s.progress != nil {
		fmt.Fprintln(s.progress, output.SummaryLine(summary))
	}
	return summary, nil
}

func (s *session) watchSignals(ctx context.Context, cancel context.CancelFunc, sigs <-chan os.Signal, finished <-chan struct{}) {
	select {
	case <-sigs:
	case <-finished:
		return
	}
	s.logger.Warn("interrupt received, finishing the current action (interrupt again to stop now)")
	graceful := make(chan bool, 1)
	go func() { graceful <- s.engine.AbortGracefully(ctx) }()

	select {
	case ok := <-graceful:
		if !ok {
			s.logger.Warn("graceful abort timed out, cancelling")
			cancel()
		}
	case <-sigs:
		s.logger.Warn("second interrupt, cancelling")
		s.engine.Abort()
		cancel()
	case <-finished:
	}
}

// runIntent captures the screen, asks the planner for a plan and executes it.
func (s *session) runIntent(ctx context.Context, intent string) (*model.RunSummary, error) {
	if s.planner == nil {
		return nil, errors.New("no planner configured")
	}
	snapshot, err := s.backend.CaptureSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture screen: %w", err)
	}
	if s.mapper != nil {
		// The planner sees this snapshot, so coordinates are measured
		// against it.
		s.mapper.Invalidate()
	}

	begin := time.Now()
	plan, err := s.planner.Plan(ctx, snapshot, intent)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	s.logger.Info("plan ready", "actions", len(plan), "elapsed_ms", time.Since(begin).Milliseconds())
	if s.progress != nil {
		for i, a := range plan {
			fmt.Fprintf(s.progress, "  %d. %s\n", i+1, a.Label())
		}
	}
	return s.executePlan(ctx, plan)
}

// interactive reads intents line by line until EOF, "exit" or "quit".
// A failing intent is reported and the loop continues.
func (s *session) interactive(ctx context.Context, in io.Reader, prompt io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(prompt, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(prompt)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		summary, err := s.runIntent(ctx, line)
		if err != nil {
			s.logger.Error("intent failed", "intent", line, "error", err)
			continue
		}
		if err := output.Print(summary); err != nil {
			return err
		}
	}
}

func (s *session) close() {
	if err := s.backend.Close(); err != nil {
		s.logger.Debug("close backend", "error", err)
	}
}
