package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slotbook/cmd/internal/config"
	"slotbook/cmd/internal/domain/database"
	"slotbook/cmd/internal/domain/database/repository"
	"slotbook/cmd/internal/middleware"
	"slotbook/cmd/internal/service"
	"slotbook/cmd/internal/utils/validators"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "slotbook",
		Short:         "Appointment booking API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(workerCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(tokenCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the job dispatcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Process queued jobs from redis or kafka",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := database.Init(cfg.DatabaseDriver, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
			log.Infof("database schema is up to date")
			return nil
		},
	}
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var req service.CreateUserRequest
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a customer or provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := database.Init(cfg.DatabaseDriver, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			userService := service.NewUserService(repository.NewUserRepository(db), validators.New())
			user, apierr := userService.CreateUser(cmd.Context(), &req)
			if apierr != nil {
				return apierr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s, provider=%t)\n", user.ID, user.Email, user.Provider)
			return nil
		},
	}
	addCmd.Flags().StringVar(&req.Sub, "sub", "", "identity provider subject")
	addCmd.Flags().StringVar(&req.Name, "name", "", "display name")
	addCmd.Flags().StringVar(&req.Email, "email", "", "email address")
	addCmd.Flags().BoolVar(&req.Provider, "provider", false, "mark the user as a provider")
	cmd.AddCommand(addCmd)
	return cmd
}

func tokenCmd() *cobra.Command {
	var sub, email string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an HS256 bearer token for local use",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.AuthMode != "jwt" {
				return fmt.Errorf("tokens can only be minted with AUTH_MODE=jwt")
			}
			token, err := middleware.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer).Sign(sub, email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&sub, "sub", "", "subject of the user the token is for")
	cmd.Flags().StringVar(&email, "email", "", "optional email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log.SetLevel(cfg.GommonLevel())
	return cfg, nil
}
