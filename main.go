package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"channel-relay/bot"
	"channel-relay/config"
	"channel-relay/database"
	"channel-relay/handlers"
	"channel-relay/markup"
	"channel-relay/models"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "channel-relay",
		Usage: "relay posts from watched channels to a target channel after moderation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Aliases: []string{"c"},
				Value:   ".",
				Usage:   "directory holding .env, config.yaml and config/filters.json",
				EnvVars: []string{"RELAY_CONFIG_DIR"},
			},
		},
		Action: run,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "start the relay (default)",
				Action: run,
			},
			{
				Name:  "pending",
				Usage: "print posts waiting for a decision",
				Action: func(cCtx *cli.Context) error {
					return withStore(cCtx, func(ctx context.Context, store *database.PostStore) error {
						summary, err := handlers.PendingSummary(ctx, store, handlers.PendingLimit)
						if err != nil {
							return err
						}
						fmt.Fprintln(cCtx.App.Writer, markup.VisibleText(summary))
						return nil
					})
				},
			},
			{
				Name:  "stats",
				Usage: "print post counts per status",
				Action: func(cCtx *cli.Context) error {
					return withStore(cCtx, func(ctx context.Context, store *database.PostStore) error {
						counts, err := store.CountByStatus(ctx)
						if err != nil {
							return err
						}
						if len(counts) == 0 {
							fmt.Fprintln(cCtx.App.Writer, "no posts")
						}
						for _, sc := range counts {
							fmt.Fprintf(cCtx.App.Writer, "%-10s %d\n", sc.Status, sc.Count)
						}
						return nil
					})
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(cCtx *cli.Context) (*models.Config, error) {
	return config.LoadConfig(cCtx.String("config-dir"))
}

func run(cCtx *cli.Context) error {
	cfg, err := loadConfig(cCtx)
	if err != nil {
		return err
	}
	return bot.Run(cfg)
}

func withStore(cCtx *cli.Context, fn func(ctx context.Context, store *database.PostStore) error) error {
	cfg, err := loadConfig(cCtx)
	if err != nil {
		return err
	}
	db, err := database.InitDB(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(cCtx.Context, database.NewPostStore(db))
}
