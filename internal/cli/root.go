// Package cli provides the command-line interface for dialogue
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/AbdouB/dialogue/internal/config"
	"github.com/AbdouB/dialogue/internal/db"
	"github.com/AbdouB/dialogue/internal/engine"
	"github.com/AbdouB/dialogue/internal/llm"
	"github.com/AbdouB/dialogue/internal/models"
	"github.com/AbdouB/dialogue/internal/registry"
)

// Version is stamped by main
var Version = "dev"

// app carries what PersistentPreRunE sets up for the subcommands
type app struct {
	outputText bool // --text flag for human-readable output (default is JSON)
	verbose    bool
	configPath string
	dbPath     string

	cfg      *config.Config
	logger   *zap.Logger
	reg      *registry.Registry
	database *db.DB
	stdin    io.Reader
}

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd(stdin io.Reader) *cobra.Command {
	a := &app{stdin: stdin}

	rootCmd := &cobra.Command{
		Use:   "dialogue",
		Short: "Simulate stakeholder reactions to national energy scenarios",
		Long: `Dialogue - Stakeholder responses for energy scenarios

Reads a scenario (capacity mix, investment, emissions) and reports how nine
stakeholder groups would react: initial reaction, appreciations, concerns,
questions and engagement advice.

Quick Start:
  dialogue stakeholders                          # List stakeholder groups
  dialogue respond scenario.json -s finance      # One stakeholder's response
  dialogue respond scenario.json -c least-developed
  dialogue compare scenario.json -s policy-makers
  dialogue explore scenario.json --re2030 65     # Sentiment shifts
  dialogue scenario save kenya scenario.yaml     # Store in the library
  dialogue serve                                 # HTTP API`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	rootCmd.PersistentFlags().BoolVar(&a.outputText, "text", false, "Human-readable text output (default is JSON)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose logging")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default dialogue.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "Scenario library database path")

	rootCmd.AddCommand(
		newVersionCmd(),
		newStakeholdersCmd(a),
		newContextsCmd(a),
		newVariantsCmd(a),
		newRespondCmd(a),
		newCompareCmd(a),
		newExploreCmd(a),
		newMetricCmd(a),
		newDeriveCmd(a),
		newScenarioCmd(a),
		newServeCmd(a),
	)
	return rootCmd
}

// Execute runs the CLI
func Execute() error {
	rootCmd := newRootCmd(os.Stdin)
	if err := rootCmd.Execute(); err != nil {
		text, _ := rootCmd.PersistentFlags().GetBool("text")
		outputError(rootCmd.ErrOrStderr(), text, err)
		return err
	}
	return nil
}

func (a *app) setup() error {
	cfg, err := config.LoadFromEnv(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.dbPath != "" {
		cfg.Database.Path = a.dbPath
	}
	a.cfg = cfg

	logCfg := zap.NewProductionConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.Logging.ZapLevel())
	if a.verbose {
		logCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := logCfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	a.logger = logger

	if dir := cfg.Engine.RegistryDir; dir != "" {
		a.reg, err = registry.LoadDir(dir)
	} else {
		a.reg, err = registry.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load stakeholder registry: %w", err)
	}
	return nil
}

func (a *app) close() {
	if a.database != nil {
		a.database.Close()
		a.database = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// engine builds an engine with the configured defaults. The Ollama
// enhancer is attached when enhance is set or enabled in config.
func (a *app) engine(enhance bool) *engine.Engine {
	opts := []engine.Option{
		engine.WithLogger(a.logger),
		engine.WithDefaults(engine.Options{
			Context: models.ContextID(a.cfg.Engine.DefaultContext),
			Variant: models.VariantID(a.cfg.Engine.DefaultVariant),
		}),
	}
	if enhance || a.cfg.Enhancement.Enabled {
		enhancer := llm.NewOllamaEnhancer(llm.Config{
			BaseURL:     a.cfg.Enhancement.BaseURL,
			Model:       a.cfg.Enhancement.Model,
			Temperature: a.cfg.Enhancement.Temperature,
			MaxTokens:   a.cfg.Enhancement.MaxTokens,
		}, a.logger)
		opts = append(opts, engine.WithEnhancer(enhancer, a.cfg.Enhancement.Timeout()))
	}
	return engine.New(a.reg, opts...)
}

// store opens the scenario library on first use
func (a *app) store() (*db.ScenarioRepository, error) {
	if a.database == nil {
		database, err := db.Open(a.cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.database = database
	}
	return db.NewScenarioRepository(a.database), nil
}

// outputResult outputs the result in the appropriate format.
// Default is JSON, use --text for human-readable.
func (a *app) outputResult(cmd *cobra.Command, result interface{}) error {
	w := cmd.OutOrStdout()
	if a.outputText {
		return renderText(w, result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError outputs an error in the appropriate format
func outputError(w io.Writer, text bool, err error) {
	if text {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	result := map[string]interface{}{
		"status": "error",
		"error":  err.Error(),
	}
	var unknown *registry.UnknownIDError
	if errors.As(err, &unknown) && len(unknown.Suggestions) > 0 {
		result["suggestions"] = unknown.Suggestions
	}
	json.NewEncoder(w).Encode(result)
}

// readScenario reads a scenario from a file or stdin ("-"). YAML is
// chosen by extension; stdin is sniffed.
func (a *app) readScenario(input string) (*models.Scenario, error) {
	var (
		data []byte
		err  error
	)
	if input == "-" {
		data, err = io.ReadAll(a.stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("no input provided on stdin")
		}
	} else {
		data, err = os.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
	}

	var s models.Scenario
	if isYAML(input, data) {
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	} else if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return &s, nil
}

func isYAML(name string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	case ".json":
		return false
	}
	trimmed := strings.TrimSpace(string(data))
	return !strings.HasPrefix(trimmed, "{")
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dialogue version %s (Go)\n", Version)
		},
	}
}
