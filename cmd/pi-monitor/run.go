package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arjunvk16/pi-monitor/internal/ai"
	"github.com/arjunvk16/pi-monitor/internal/config"
	"github.com/arjunvk16/pi-monitor/internal/engine"
	"github.com/arjunvk16/pi-monitor/internal/executor"
	"github.com/arjunvk16/pi-monitor/internal/history"
	"github.com/arjunvk16/pi-monitor/internal/memory"
	"github.com/arjunvk16/pi-monitor/internal/monitor"
	"github.com/arjunvk16/pi-monitor/internal/notify"
	"github.com/arjunvk16/pi-monitor/internal/probe"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the monitoring daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon()
	},
}

func runDaemon() error {
	ctx := context.Background()

	// A missing credential is the only fatal configuration condition.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	notifier, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
	if err != nil {
		return err
	}

	classifier, err := ai.LoadSeverityClassifier(cfg.SeverityRules)
	if err != nil {
		return err
	}

	primary, err := ai.NewAnthropicProvider(cfg.AnthropicAPIKey, "")
	if err != nil {
		return err
	}
	providers := []ai.Provider{primary}
	if cfg.HasFallbackProvider() {
		fallback, err := ai.NewOpenAIProvider(cfg.OpenAIAPIKey, "")
		if err != nil {
			return err
		}
		providers = append(providers, fallback)
		color.Green("✅ OpenAI fallback: active")
	}

	chain, err := ai.NewChain(&ai.ChainConfig{
		Providers:   providers,
		BaseBackoff: cfg.BaseBackoff,
		Classifier:  classifier,
		Notifier:    notifier,
	})
	if err != nil {
		return err
	}

	fixes := memory.Load(cfg.CacheFile)
	fmt.Printf("Fix cache: %d learned fix(es) loaded from %s\n", fixes.Len(), cfg.CacheFile)

	var recorder engine.Recorder
	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		// History is diagnostic only; run without it rather than refusing
		// to start.
		fmt.Printf("History: unavailable, continuing without audit trail: %v\n", err)
	} else {
		defer store.Close()
		recorder = store
	}

	exec := executor.NewHostExecutor(cfg.CommandTimeout, cfg.UseNsenter)

	eng, err := engine.New(&engine.Deps{
		Memory:   fixes,
		Chain:    chain,
		Executor: exec,
		Notifier: notifier,
		Recorder: recorder,
	})
	if err != nil {
		return err
	}

	loop, err := monitor.NewLoop(&monitor.Deps{
		Engine:   eng,
		Notifier: notifier,
		Probes: []probe.Probe{
			probe.NewMountProbe(exec, cfg.MountPoint),
			probe.NewServiceProbe(exec, cfg.ServiceUnit),
		},
		Interval:      cfg.PollInterval,
		HeartbeatFile: cfg.HeartbeatFile,
	})
	if err != nil {
		return err
	}

	notifier.Send(ctx, "🧠 *pi-monitor started*\nFeatures: fix memory + multi-AI failover")

	if err := loop.Start(ctx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	fmt.Println("Monitor running. Press Ctrl+C to stop.")
	<-sigCh
	fmt.Println("\nShutting down...")
	loop.Stop()
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)
}
