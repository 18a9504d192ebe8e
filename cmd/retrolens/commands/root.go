package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/retrolens/retrolens/internal/config"
	"github.com/retrolens/retrolens/internal/llm"
	"github.com/retrolens/retrolens/internal/logging"
)

const Version = "0.1.0"

var (
	logLevelFlag string
	configFlag   string
	modelFlag    string
)

var rootCmd = &cobra.Command{
	Use:   "retrolens",
	Short: "Retrolens - AI agents for agile retrospectives",
	Long: `Retrolens runs AI-assisted facilitation agents for agile teams:
5 Whys root-cause analysis, support-ticket empathy mapping, and
user-story voting.

API keys are read from the environment (ANTHROPIC_API_KEY, OPENAI_API_KEY,
TAVILY_API_KEY); a .env file in the working directory is loaded if present.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Missing .env is the common case, not an error.
		_ = godotenv.Load()
		return logging.Initialize(logLevelFlag)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info",
		"Log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "",
		"Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "",
		"Model provider: anthropic (default), openai, or mock:<scenario.yaml>")
}

// loadConfig resolves the effective configuration for a subcommand.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newProvider builds the LLM provider. The --model flag wins over the
// config file's provider selector.
func newProvider(cfg *config.Config) (llm.Provider, error) {
	selector := modelFlag
	if selector == "" {
		selector = cfg.Model.Provider
	}

	llmCfg := llm.DefaultConfig()
	if cfg.Model.Name != "" {
		llmCfg.Model = cfg.Model.Name
	}
	if cfg.Model.BaseURL != "" {
		llmCfg.BaseURL = cfg.Model.BaseURL
	}
	if cfg.Model.MaxTokens > 0 {
		llmCfg.MaxTokens = cfg.Model.MaxTokens
	}
	llmCfg.Temperature = cfg.Model.Temperature
	return llm.NewFromSpec(selector, llmCfg)
}

// HandleError prints the error and exits non-zero.
func HandleError(err error, msg string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
		os.Exit(1)
	}
}
