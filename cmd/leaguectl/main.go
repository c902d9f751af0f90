// Command leaguectl is the Club League operator CLI.
//
// Usage:
//
//	leaguectl migrate up
//	leaguectl migrate down [--all]
//	leaguectl migrate version
//	leaguectl fixtures generate --league <id> --as <user-id> [--interval 3] [--platform Xbox] [--seed 42]
//	leaguectl standings --league <id>
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/golang-migrate/migrate/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/trentd187/club-league/internal/config"
	"github.com/trentd187/club-league/internal/database"
	"github.com/trentd187/club-league/internal/fixtures"
	"github.com/trentd187/club-league/internal/logging"
	"github.com/trentd187/club-league/internal/repository"
	"github.com/trentd187/club-league/internal/standings"
)

func main() {
	root := &cobra.Command{
		Use:           "leaguectl",
		Short:         "Club League operator CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(fixturesCmd())
	root.AddCommand(standingsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env is what every subcommand starts from.
type env struct {
	cfg    *config.Config
	logger zerolog.Logger
}

func loadEnv() (*env, error) {
	cfg, err := config.LoadForTools()
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logging.New(cfg.IsDevelopment(), cfg.LogLevel)}, nil
}

// withDB opens the database for the duration of fn. Ctrl-C cancels ctx.
func withDB(fn func(ctx context.Context, e *env, db *gorm.DB) error) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	db, err := database.Connect(e.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return fn(ctx, e, db)
}

// --------------------------------------------------------------------------
// migrate
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			return database.RunMigrations(e.cfg.MigrationsPath, e.cfg.DatabaseURL, e.logger)
		},
	})

	var all bool
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration, or all of them with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *migrate.Migrate) error {
				if all {
					return m.Down()
				}
				return m.Steps(-1)
			})
		},
	}
	down.Flags().BoolVar(&all, "all", false, "Roll back every migration")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *migrate.Migrate) error {
				version, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			})
		},
	})
	return cmd
}

func withMigrator(fn func(m *migrate.Migrate) error) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	m, err := database.NewMigrator(e.cfg.MigrationsPath, e.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := fn(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// --------------------------------------------------------------------------
// fixtures
// --------------------------------------------------------------------------

func fixturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Manage league calendars",
	}
	cmd.AddCommand(fixturesGenerateCmd())
	return cmd
}

func fixturesGenerateCmd() *cobra.Command {
	var (
		leagueID, createdBy, platform string
		interval                      int
		seed                          uint64
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Replace a league's calendar with a freshly generated one",
		Long: "Deletes every fixture of the league and plans a new calendar from its active teams.\n" +
			"With --seed the pairings are reproducible: the same seed and teams give the same calendar.",
		RunE: func(cmd *cobra.Command, args []string) error {
			league, err := uuid.Parse(leagueID)
			if err != nil {
				return fmt.Errorf("--league: %w", err)
			}
			actor, err := uuid.Parse(createdBy)
			if err != nil {
				return fmt.Errorf("--as: %w", err)
			}

			return withDB(func(ctx context.Context, e *env, db *gorm.DB) error {
				fcfg := fixtures.Config{
					DefaultIntervalDays: e.cfg.DefaultMatchIntervalDays,
					Location:            e.cfg.MatchLocation,
				}
				if cmd.Flags().Changed("seed") {
					fcfg.NewRand = fixtures.SeededRand(seed)
				}
				svc := fixtures.NewService(repository.NewFixtures(db), fcfg, e.logger)

				result, err := svc.Generate(ctx, fixtures.GenerateRequest{
					LeagueID:     league,
					IntervalDays: interval,
					Platform:     platform,
					CreatedBy:    actor,
				})
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "WEEK\tDATE\tHOME\tAWAY")
				for _, f := range result.Fixtures {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", f.MatchWeek, f.MatchDate.In(e.cfg.MatchLocation).Format("2006-01-02 15:04"), f.HomeTeamID, f.AwayTeamID)
				}
				if err := w.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\n%d fixtures created, %d deleted\n", len(result.Fixtures), result.Deleted)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&leagueID, "league", "", "League ID")
	cmd.Flags().StringVar(&createdBy, "as", "", "User ID recorded as the fixtures' creator")
	cmd.Flags().IntVar(&interval, "interval", 0, "Days between match days (0 uses the league setting)")
	cmd.Flags().StringVar(&platform, "platform", fixtures.DefaultPlatform, "Platform the matches are played on")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for reproducible pairings")
	_ = cmd.MarkFlagRequired("league")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

// --------------------------------------------------------------------------
// standings
// --------------------------------------------------------------------------

func standingsCmd() *cobra.Command {
	var leagueID string
	cmd := &cobra.Command{
		Use:   "standings",
		Short: "Print a league table",
		RunE: func(cmd *cobra.Command, args []string) error {
			league, err := uuid.Parse(leagueID)
			if err != nil {
				return fmt.Errorf("--league: %w", err)
			}
			return withDB(func(ctx context.Context, e *env, db *gorm.DB) error {
				rows, err := standings.NewService(repository.NewStandings(db)).Standings(ctx, league)
				if err != nil {
					return err
				}
				return printStandings(cmd.OutOrStdout(), rows)
			})
		},
	}
	cmd.Flags().StringVar(&leagueID, "league", "", "League ID")
	_ = cmd.MarkFlagRequired("league")
	return cmd
}
