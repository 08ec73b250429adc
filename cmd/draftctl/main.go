package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/Black-And-White-Club/marathon-draft/app"
	"github.com/Black-And-White-Club/marathon-draft/app/eventbus"
	"github.com/Black-And-White-Club/marathon-draft/app/modules/lock"
	lockservice "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/application"
	"github.com/Black-And-White-Club/marathon-draft/app/modules/lock/locktime"
	scoringservice "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/application"
	scoringdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/domain"
	"github.com/Black-And-White-Club/marathon-draft/app/observability"
	"github.com/Black-And-White-Club/marathon-draft/config"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	competitionFlag := &cli.StringFlag{Name: "competition", Aliases: []string{"c"}, Required: true, Usage: "competition UUID"}
	policyFlag := &cli.StringFlag{Name: "policy", Value: "scoring_policy.yaml", Usage: "scoring policy file"}

	return &cli.App{
		Name:      "draftctl",
		Usage:     "marathon-draft administration",
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "configuration file"},
		},
		Commands: []*cli.Command{
			{
				Name:  "lock",
				Usage: "competition lock administration",
				Subcommands: []*cli.Command{
					{
						Name:  "set",
						Usage: `schedule the lock, e.g. --at "saturday 7am" --tz America/New_York`,
						Flags: []cli.Flag{
							competitionFlag,
							&cli.StringFlag{Name: "at", Required: true, Usage: "RFC3339 or natural-language time"},
							&cli.StringFlag{Name: "tz", Usage: "IANA zone or abbreviation for --at"},
						},
						Action: func(c *cli.Context) error {
							return withLockService(c, func(ctx context.Context, svc *lockservice.LockService, id uuid.UUID) (any, error) {
								return svc.ScheduleLock(ctx, id, c.String("at"), c.String("tz"))
							})
						},
					},
					{
						Name:  "finalize",
						Usage: "mark race results final",
						Flags: []cli.Flag{competitionFlag},
						Action: func(c *cli.Context) error {
							return withLockService(c, func(ctx context.Context, svc *lockservice.LockService, id uuid.UUID) (any, error) {
								return svc.FinalizeResults(ctx, id)
							})
						},
					},
					{
						Name:  "status",
						Usage: "show the lock configuration and phase",
						Flags: []cli.Flag{competitionFlag},
						Action: func(c *cli.Context) error {
							return withLockService(c, func(ctx context.Context, svc *lockservice.LockService, id uuid.UUID) (any, error) {
								return svc.Status(ctx, id)
							})
						},
					},
				},
			},
			{
				Name:  "score",
				Usage: "score a YAML results file offline",
				Flags: []cli.Flag{
					policyFlag,
					&cli.StringFlag{Name: "results", Required: true, Usage: "results file"},
					&cli.StringFlag{Name: "xlsx", Usage: "also write breakdowns to this workbook"},
				},
				Action: func(c *cli.Context) error {
					return scoreFile(c.Context, c.App.Writer, c.String("policy"), c.String("results"), c.String("xlsx"))
				},
			},
			{
				Name:  "policy",
				Usage: "scoring policy tools",
				Subcommands: []*cli.Command{
					{
						Name:  "check",
						Usage: "validate a scoring policy file",
						Flags: []cli.Flag{policyFlag},
						Action: func(c *cli.Context) error {
							p, err := scoringservice.LoadPolicy(c.String("policy"))
							if err != nil {
								return err
							}
							fmt.Fprintf(c.App.Writer, "policy ok: %d placement ranks, %d bonuses, %d record thresholds\n",
								len(p.PlacementTable), len(p.PerformanceBonuses), len(p.RecordThresholds))
							return nil
						},
					},
				},
			},
		},
	}
}

type lockAction func(ctx context.Context, svc *lockservice.LockService, competitionID uuid.UUID) (any, error)

// withLockService connects to Postgres, NATS and the River queue, runs fn and
// prints its result as JSON.
func withLockService(c *cli.Context, fn lockAction) error {
	ctx := c.Context
	competitionID, err := uuid.Parse(c.String("competition"))
	if err != nil {
		return fmt.Errorf("invalid --competition: %w", err)
	}

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	obs, err := observability.Init(ctx, config.ToObsConfig(cfg))
	if err != nil {
		return err
	}
	defer obs.Shutdown(context.WithoutCancel(ctx))

	db := app.OpenDB(cfg.Postgres.DSN)
	defer db.Close()

	bus, err := eventbus.NewEventBus(ctx, eventbus.Config{
		URL:           cfg.NATS.URL,
		NKeySeed:      cfg.NATS.NKeySeed,
		DurablePrefix: cfg.NATS.DurablePrefix,
	}, obs.Logger)
	if err != nil {
		return err
	}
	defer bus.Close()

	module, err := lock.NewLockModule(ctx, cfg, obs, db, bus, locktime.RealClock{})
	if err != nil {
		return err
	}
	defer module.Close(context.WithoutCancel(ctx))

	res, err := fn(ctx, module.LockService, competitionID)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, res)
}

func printJSON(w io.Writer, v any) error {
	if r, ok := v.(lockservice.LockResult); ok {
		if r.IsFailure() {
			return *r.Failure
		}
		v = r.Success
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ResultsFile is the offline scoring input.
type ResultsFile struct {
	Results []scoringdomain.RaceResult `yaml:"results"`
}

func scoreFile(ctx context.Context, out io.Writer, policyPath, resultsPath, xlsxPath string) error {
	policy, err := scoringservice.LoadPolicy(policyPath)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(resultsPath)
	if err != nil {
		return fmt.Errorf("failed to read results: %w", err)
	}
	var file ResultsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse results: %w", err)
	}

	breakdowns, err := scoringservice.ScoreOffline(ctx, policy, file.Results)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPETITOR\tSTATUS\tPLACEMENT\tGAP\tBONUS\tRECORDS\tTOTAL\tRATIFIED")
	for _, b := range breakdowns {
		bonus, records := 0, 0
		for _, a := range b.PerformanceBonuses {
			bonus += a.Points
		}
		for _, r := range b.RecordBonuses {
			records += r.Points
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			b.CompetitorID, b.Status, b.PlacementPoints, b.TimeGapPoints, bonus, records,
			b.TotalPoints, scoringdomain.RatifiedTotal(b))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if xlsxPath == "" {
		return nil
	}
	workbook, err := scoringservice.BuildWorkbook(breakdowns, nil)
	if err != nil {
		return err
	}
	return os.WriteFile(xlsxPath, workbook, 0o644)
}
