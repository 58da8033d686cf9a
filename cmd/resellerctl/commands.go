package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/reseller-panel/internal/config"
	tokenclient "github.com/magabrotheeeer/reseller-panel/internal/grpc/client"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/jwt"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/logger"
	"github.com/magabrotheeeer/reseller-panel/internal/metrics"
	"github.com/magabrotheeeer/reseller-panel/internal/migrations"
	"github.com/magabrotheeeer/reseller-panel/internal/services/account"
	"github.com/magabrotheeeer/reseller-panel/internal/services/ledger"
	"github.com/magabrotheeeer/reseller-panel/internal/storage/repository"
)

type rootOptions struct {
	configPath string
}

// env — открытые зависимости одной команды.
type env struct {
	cfg *config.Config
	log *slog.Logger
	db  *repository.Storage
}

func (o *rootOptions) open(ctx context.Context) (*env, error) {
	path := o.configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: logger.New(cfg.Env), db: db}, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "resellerctl",
		Short:         "Reseller panel administration",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (defaults to $CONFIG_PATH)")

	root.AddCommand(
		newMigrateCmd(opts),
		newCreateAdminCmd(opts),
		newAdjustCreditsCmd(opts),
		newTokenCmd(),
		newVersionCmd(),
	)
	return root
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "resellerctl %s\n", Version)
		},
	}
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema migrations",
	}

	var steps int
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()
			e, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer e.db.Close()
			if err := migrations.Run(e.db.DB, e.cfg.MigrationsPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 {
				return errors.New("--steps must be at least 1")
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()
			e, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer e.db.Close()
			if err := migrations.Down(e.db.DB, e.cfg.MigrationsPath, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()
			e, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer e.db.Close()
			v, dirty, err := migrations.Version(e.db.DB, e.cfg.MigrationsPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
			return nil
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func newCreateAdminCmd(opts *rootOptions) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()
			e, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer e.db.Close()

			svc := account.New(e.db, jwt.NewJWTMaker(e.cfg.JWTSecretKey, e.cfg.TokenTTL), e.log, metrics.NewNoop())
			acc, err := svc.CreateAdmin(ctx, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin created: %s (%s)\n", acc.Email, acc.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	return cmd
}

func newAdjustCreditsCmd(opts *rootOptions) *cobra.Command {
	var actorID, targetID string
	var amount int64
	cmd := &cobra.Command{
		Use:   "adjust-credits",
		Short: "Adjust an account balance on behalf of an actor",
		Long: `Applies the same rules as the API: the actor must manage the target,
a reseller pays from its own balance, and no balance may go below zero.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if actorID == "" || targetID == "" {
				return errors.New("--actor and --target are required")
			}
			if amount == 0 {
				return errors.New("--amount must be non-zero")
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()
			e, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer e.db.Close()

			if err := ledger.New(e.db, e.log, metrics.NewNoop()).Adjust(ctx, actorID, targetID, amount); err != nil {
				return err
			}
			target, err := e.db.GetAccount(ctx, targetID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "balance of %s is now %d\n", target.Email, target.Credits)
			return nil
		},
	}
	cmd.Flags().StringVar(&actorID, "actor", "", "id of the account performing the adjustment")
	cmd.Flags().StringVar(&targetID, "target", "", "id of the account to adjust")
	cmd.Flags().Int64Var(&amount, "amount", 0, "signed amount of credits")
	return cmd
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Access token utilities",
	}

	var addr, token string
	verify := &cobra.Command{
		Use:   "verify",
		Short: "Check a token against the panel's gRPC token service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" || token == "" {
				return errors.New("--addr and --token are required")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			c, err := tokenclient.NewTokenClient(addr)
			if err != nil {
				return err
			}
			defer c.Close()

			info, err := c.Validate(ctx, token)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "account: %s\nemail: %s\nrole: %s\ncredits: %d\nsubscription: %s\n",
				info.AccountID, info.Email, info.Role, info.Credits, info.SubscriptionStatus)
			return nil
		},
	}
	verify.Flags().StringVar(&addr, "addr", "localhost:9090", "token service address")
	verify.Flags().StringVar(&token, "token", "", "access token")

	cmd.AddCommand(verify)
	return cmd
}
