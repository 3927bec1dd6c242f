package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck-api/internal/config"
	"github.com/taskdeck/taskdeck-api/internal/database"
	"github.com/taskdeck/taskdeck-api/internal/middleware"
	"github.com/taskdeck/taskdeck-api/internal/queue"
)

// NewCheckCmd creates the check command
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check backing service connectivity",
		Long:  "Verify that the database, Redis, RabbitMQ and the OIDC endpoints are reachable with the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			failed := 0

			fmt.Println("Checking database...")
			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				fmt.Printf("✗ database: %v\n", err)
				failed++
			} else {
				fmt.Println("✓ database is reachable")
				if err := db.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}

			fmt.Println("\nChecking Redis...")
			redisClient, err := middleware.NewRedisClient(cfg.RedisURL)
			if err != nil {
				fmt.Printf("✗ redis: %v\n", err)
				failed++
			} else {
				fmt.Println("✓ redis is reachable")
				if err := redisClient.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close redis: %v\n", err)
				}
			}

			fmt.Println("\nChecking RabbitMQ...")
			jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
			if err != nil {
				fmt.Printf("✗ rabbitmq: %v\n", err)
				failed++
			} else {
				if err := jobQueue.HealthCheck(ctx); err != nil {
					fmt.Printf("✗ rabbitmq: %v\n", err)
					failed++
				} else {
					fmt.Println("✓ rabbitmq is reachable")
				}
				if err := jobQueue.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close rabbitmq: %v\n", err)
				}
			}

			fmt.Println("\nChecking JWKS endpoint...")
			client := &http.Client{Timeout: 10 * time.Second}
			resp, err := client.Get(cfg.JWKSURL)
			if err != nil {
				fmt.Printf("✗ jwks: %v\n", err)
				failed++
			} else {
				if resp.StatusCode != http.StatusOK {
					fmt.Printf("✗ jwks: endpoint returned status %d\n", resp.StatusCode)
					failed++
				} else {
					fmt.Println("✓ jwks endpoint is accessible")
				}
				resp.Body.Close()
			}

			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			fmt.Println("\nAll checks passed")
			return nil
		},
	}

	return cmd
}
