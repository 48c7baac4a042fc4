package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"marketadmin/internal/adapters/email"
	web "marketadmin/internal/adapters/http"
	"marketadmin/internal/adapters/http/perf"
	"marketadmin/internal/adapters/storage"
	auditStore "marketadmin/internal/adapters/storage/audit"
	bannerStore "marketadmin/internal/adapters/storage/banner"
	categoryStore "marketadmin/internal/adapters/storage/category"
	contactStore "marketadmin/internal/adapters/storage/contact"
	flashDealStore "marketadmin/internal/adapters/storage/flashdeal"
	productStore "marketadmin/internal/adapters/storage/product"
	reviewStore "marketadmin/internal/adapters/storage/review"
	roleStore "marketadmin/internal/adapters/storage/role"
	sellerPackageStore "marketadmin/internal/adapters/storage/sellerpackage"
	settingStore "marketadmin/internal/adapters/storage/setting"
	staffStore "marketadmin/internal/adapters/storage/staff"
	uploadStore "marketadmin/internal/adapters/storage/upload"
	"marketadmin/internal/adapters/uploads"
	"marketadmin/internal/application/orchestrators"
	"marketadmin/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

var cfg *config.Config

// newRootCmd builds the command tree. Running the root command alone serves.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "marketadmin",
		Short:         "Marketplace admin back-office",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			setupLogging(cfg)
			return nil
		},
		RunE: runServe,
	}
	root.AddCommand(
		&cobra.Command{Use: "serve", Short: "Run the admin HTTP server", RunE: runServe},
		newMigrateCmd(),
		newCreateAdminCmd(),
	)
	return root
}

func newMigrateCmd() *cobra.Command {
	var status bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			if status {
				return storage.MigrationStatus(db)
			}
			if err := storage.Migrate(db); err != nil {
				return err
			}
			v, err := storage.SchemaVersion(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
			return nil
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "print migration status instead of applying")
	return cmd
}

func newCreateAdminCmd() *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the owner account if no account has that email",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			db, err := storage.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := storage.Migrate(db); err != nil {
				return err
			}
			acct, created, err := orchestrators.ExecuteCreateAdmin(cmd.Context(), orchestrators.CreateAdminInput{
				Name: name, Email: email, Password: password,
			}, orchestrators.CreateAdminDeps{
				StaffStore: staffStore.NewSQLiteStore(db),
				GenerateID: uuid.NewString,
				Now:        time.Now,
			})
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintf(cmd.OutOrStdout(), "account %s already exists\n", acct.Email)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s\n", acct.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// setupLogging installs the default slog handler: JSON in production, text otherwise.
func setupLogging(c *config.Config) {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	var h slog.Handler
	if c.IsProduction() {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

func newStores(db storage.SQLDB) *web.Stores {
	return &web.Stores{
		StaffStore:         staffStore.NewSQLiteStore(db),
		RoleStore:          roleStore.NewSQLiteStore(db),
		SettingStore:       settingStore.NewSQLiteStore(db),
		UploadStore:        uploadStore.NewSQLiteStore(db),
		CategoryStore:      categoryStore.NewSQLiteStore(db),
		ProductStore:       productStore.NewSQLiteStore(db),
		BannerStore:        bannerStore.NewSQLiteStore(db),
		FlashDealStore:     flashDealStore.NewSQLiteStore(db),
		ReviewStore:        reviewStore.NewSQLiteStore(db),
		ContactStore:       contactStore.NewSQLiteStore(db),
		SellerPackageStore: sellerPackageStore.NewSQLiteStore(db),
		AuditStore:         auditStore.NewSQLiteStore(db),
	}
}

// seed stores default settings and the configured owner account. Both are idempotent.
func seed(ctx context.Context, s *web.Stores) error {
	if _, err := orchestrators.ExecuteSeedSettings(ctx, orchestrators.SettingsDeps{
		SettingStore: s.SettingStore,
		Now:          time.Now,
	}); err != nil {
		return err
	}
	_, created, err := orchestrators.ExecuteCreateAdmin(ctx, orchestrators.CreateAdminInput{
		Email: cfg.AdminEmail, Password: cfg.AdminPassword,
	}, orchestrators.CreateAdminDeps{
		StaffStore: s.StaffStore,
		GenerateID: uuid.NewString,
		Now:        time.Now,
	})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		slog.Info("admin_created", "email", cfg.AdminEmail)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.DBPath != ":memory:" {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
	}

	if err := storage.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	stores := newStores(storage.NewTimedDB(db, collector))
	if err := seed(ctx, stores); err != nil {
		return err
	}

	if cfg.ResendKey == "" {
		if cfg.IsProduction() {
			slog.Warn("MARKETADMIN_RESEND_KEY is not set, contact replies will not be delivered")
		} else {
			slog.Info("email sender configured (noop)")
		}
	}
	web.SetEmailSender(email.New(cfg.ResendKey, cfg.MailFrom))

	fs, err := uploads.NewFileStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	if cfg.CSRFKey == nil {
		cfg.CSRFKey = make([]byte, 32)
		if _, err := rand.Read(cfg.CSRFKey); err != nil {
			return fmt.Errorf("generate csrf key: %w", err)
		}
		slog.Info("csrf key generated for this run; forms break across restarts")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           web.NewRouter(cfg, stores, collector, fs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go purgeSessions(ctx, time.Minute*10)

	schema, err := storage.SchemaVersion(db)
	if err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env, "schema", schema)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// purgeSessions drops expired sessions until ctx ends.
func purgeSessions(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := web.Sessions().Purge(); n > 0 {
				slog.Debug("sessions_purged", "count", n)
			}
		}
	}
}
