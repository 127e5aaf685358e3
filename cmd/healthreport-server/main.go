package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ehr/healthreport/internal/config"
	"github.com/ehr/healthreport/internal/domain/identity"
	"github.com/ehr/healthreport/internal/platform/db"
	"github.com/ehr/healthreport/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "healthreport-server",
		Short: "Health report status and identity reconciliation API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(pendingCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// migrationsFS returns the directory given by --dir, or the migrations
// compiled into the binary.
func migrationsFS(cmd *cobra.Command) fs.FS {
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		return os.DirFS(dir)
	}
	return migrations.FS
}

func withMigrator(fsys fs.FS, fn func(ctx context.Context, m *db.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, db.NewMigrator(pool, fsys))
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(migrationsFS(cmd), func(ctx context.Context, m *db.Migrator) error {
				count, err := m.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Printf("Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (default: embedded)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(migrationsFS(cmd), func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
				for _, s := range statuses {
					status, appliedAt := "pending", ""
					if s.Applied {
						status = "applied"
						if s.AppliedAt != nil {
							appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
						}
					}
					fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
				}
				return nil
			})
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (default: embedded)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func pendingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Inspect partner/facility pairs awaiting provisioning",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List pending registrations, most recently seen first",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			limit, _ := cmd.Flags().GetInt("limit")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			rec := identity.NewReconciler(nil, identity.NewPendingRegistrationRepoPG(pool), newLogger(cfg))
			items, total, err := rec.ListPending(ctx, identity.PendingStatus(status), limit, 0)
			if err != nil {
				return err
			}
			return printPending(os.Stdout, items, total)
		},
	}
	listCmd.Flags().String("status", string(identity.PendingStatusPending), "Filter by status (pending, approved, rejected; empty for all)")
	listCmd.Flags().Int("limit", 50, "Maximum rows to print")
	cmd.AddCommand(listCmd)

	return cmd
}

func printPending(out io.Writer, items []*identity.PendingRegistration, total int) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARTNER\tFACILITY\tSTATUS\tCOUNT\tFIRST SEEN\tLAST SEEN")
	for _, p := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", p.PartnerID, p.FacilityID, p.Status, p.RequestCount,
			p.FirstSeenAt.Format("2006-01-02 15:04"), p.LastSeenAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "\n%d of %d shown\n", len(items), total)
	return w.Flush()
}
