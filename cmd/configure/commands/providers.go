package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck-api/internal/config"
	"github.com/taskdeck/taskdeck-api/internal/services/llm"
)

// NewProvidersCmd creates the providers command
func NewProvidersCmd() *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Show configured model providers",
		Long:  "Show the primary and fallback language model providers, optionally probing their health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			logger := zap.NewNop()

			var primary llm.Provider
			if cfg.OpenAIKey != "" {
				primary = llm.NewOpenAIProvider(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, cfg.GenerateTimeout, logger, false)
				fmt.Printf("primary:  %s (model %q)\n", primary.Name(), cfg.AIModel)
			} else {
				fmt.Println("primary:  not configured (OPENAI_API_KEY is empty)")
			}

			secondary := llm.NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel, cfg.GenerateTimeout, cfg.ProbeTimeout, logger, false)
			fmt.Printf("fallback: %s (model %q at %s)\n", secondary.Name(), cfg.OllamaModel, cfg.OllamaURL)

			if !probe {
				return nil
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			fmt.Println("\nProbing providers...")
			if primary != nil {
				if err := primary.HealthCheck(ctx); err != nil {
					fmt.Printf("✗ %s: %v\n", primary.Name(), err)
				} else {
					fmt.Printf("✓ %s is healthy\n", primary.Name())
				}
			}
			if err := secondary.HealthCheck(ctx); err != nil {
				fmt.Printf("✗ %s: %v\n", secondary.Name(), err)
			} else {
				fmt.Printf("✓ %s is healthy\n", secondary.Name())
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", false, "Probe provider health endpoints")

	return cmd
}
