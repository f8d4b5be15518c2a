package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"channel-relay/database"
	"channel-relay/dedup"
	"channel-relay/filter"
	relaygrpc "channel-relay/grpc"
	"channel-relay/handlers"
	"channel-relay/media"
	"channel-relay/models"
	"channel-relay/moderation"
	"channel-relay/transport/telegram"
	"channel-relay/utils"

	"github.com/jmoiron/sqlx"
)

// Bot owns every long-lived component of the relay.
type Bot struct {
	cfg *models.Config
	log *utils.Logger

	db         *sqlx.DB
	store      *database.PostStore
	media      *media.Store
	telegram   *telegram.Bot
	session    *telegram.Session
	controller *moderation.Controller
	capture    *handlers.Capture
	commands   *handlers.Commands
	health     *relaygrpc.HealthServer

	ingestTasks     *handlers.Dispatcher
	moderationTasks *handlers.Dispatcher

	cancel    context.CancelFunc
	listeners *listenerGroup
}

// NewBot creates and wires a Bot. Nothing connects until Start.
func NewBot(cfg *models.Config, log *utils.Logger) (*Bot, error) {
	db, err := database.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	store := database.NewPostStore(db)

	f, err := filter.New(cfg.Filters)
	if err != nil {
		db.Close()
		return nil, err
	}
	mediaStore, err := media.NewStore(cfg.Media.Dir)
	if err != nil {
		db.Close()
		return nil, err
	}
	tgBot, err := telegram.NewBot(cfg.Bot.Token, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	session := telegram.NewSession(cfg.Telegram, cfg.Ingest.Channels, log)

	moderator := models.ChatRef(strconv.FormatInt(cfg.Bot.ModeratorID, 10))
	controller := moderation.NewController(store, tgBot, moderation.Options{
		Moderator:   moderator,
		ModeratorID: cfg.Bot.ModeratorID,
		Target:      models.ChatRef(cfg.Bot.TargetChannel),
		AutoMode:    cfg.Ingest.AutoMode,
	}, log)

	b := &Bot{
		cfg:        cfg,
		log:        log,
		db:         db,
		store:      store,
		media:      mediaStore,
		telegram:   tgBot,
		session:    session,
		controller: controller,
		capture: &handlers.Capture{
			Source:    session,
			Bot:       tgBot,
			Filter:    f,
			Guard:     dedup.NewGuard(store),
			Store:     store,
			Media:     mediaStore,
			Moderator: controller,
			Config:    cfg.Ingest,
			AlertTo:   models.ChatRef(cfg.Filters.AlertRecipient),
			Log:       log,
		},
		commands: &handlers.Commands{
			Store:     store,
			Presenter: controller,
			Bot:       tgBot,
			Auth:      utils.NewAuth(cfg.Bot.ModeratorID),
			Started:   time.Now(),
			Log:       log,
		},
		ingestTasks:     handlers.NewDispatcher("Ingest", cfg.Ingest.Workers, log),
		moderationTasks: handlers.NewDispatcher("Moderation", cfg.Ingest.Workers, log),
	}
	if cfg.GRPC.Listen != "" {
		b.health = relaygrpc.NewHealthServer(cfg.GRPC.Listen, log)
	}
	return b, nil
}

// Start registers bot commands, starts the scheduler and runs both listeners
// in the background. Done reports when a listener stops on its own.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.telegram.RegisterCommands(); err != nil {
		b.log.Warn("Bot", "Start", "cannot register bot commands: "+err.Error())
	}

	ctx, b.cancel = context.WithCancel(ctx)
	err := startScheduler(ctx, b.cfg.Scheduler, &jobs{
		store:      b.store,
		media:      b.media,
		bot:        b.telegram,
		moderator:  models.ChatRef(strconv.FormatInt(b.cfg.Bot.ModeratorID, 10)),
		staleAfter: b.cfg.Media.StaleAfter,
		log:        b.log,
	})
	if err != nil {
		b.cancel()
		return err
	}

	if b.health != nil {
		go func() {
			if err := b.health.Serve(); err != nil {
				b.log.Error("gRPC", "Serve", err.Error())
			}
		}()
	}

	b.listeners = startListeners(ctx, func(ctx context.Context) error {
		b.setServing(relaygrpc.ServiceIngest, true)
		defer b.setServing(relaygrpc.ServiceIngest, false)
		if err := b.session.Run(ctx, b.capture.Listener(b.ingestTasks)); err != nil {
			return fmt.Errorf("source listener: %w", err)
		}
		return nil
	}, func(ctx context.Context) error {
		b.setServing(relaygrpc.ServiceModeration, true)
		defer b.setServing(relaygrpc.ServiceModeration, false)
		h := handlers.Register(b.moderationTasks, b.controller, b.commands)
		if err := b.telegram.Run(ctx, h); err != nil {
			return fmt.Errorf("bot listener: %w", err)
		}
		return nil
	})

	b.log.Info("Bot", "Start", fmt.Sprintf("relay is running, watching %d channels", len(b.cfg.Ingest.Channels)))
	return nil
}

// Done delivers the listeners' combined result once both have stopped.
func (b *Bot) Done() <-chan error {
	return b.listeners.Done()
}

// Stop cancels the listeners, waits for them to return so no new task is
// scheduled, then drains in-flight tasks and releases resources.
func (b *Bot) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	if b.listeners != nil {
		b.listeners.Wait()
	}
	stopScheduler()
	b.ingestTasks.Wait()
	b.moderationTasks.Wait()
	if b.health != nil {
		b.health.Stop()
	}
	if err := b.db.Close(); err != nil {
		b.log.Warn("Bot", "Stop", "failed to close database: "+err.Error())
	}
	b.log.Info("Bot", "Stop", "relay stopped gracefully")
	b.log.Sync()
}

func (b *Bot) setServing(service string, serving bool) {
	if b.health != nil {
		b.health.SetServing(service, serving)
	}
}

// Run is the main entry point for the relay.
func Run(cfg *models.Config) error {
	log, err := utils.NewLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	if err := log.AttachDiscord(cfg.Bot.DiscordToken, cfg.Bot.AdminDiscordChannel); err != nil {
		log.Warn("Bot", "Run", "discord admin mirror unavailable: "+err.Error())
	}

	bot, err := NewBot(cfg, log)
	if err != nil {
		return fmt.Errorf("error initializing relay: %w", err)
	}
	if err := bot.Start(context.Background()); err != nil {
		bot.Stop()
		return fmt.Errorf("error starting relay: %w", err)
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer signal.Stop(sc)

	var runErr error
	select {
	case <-sc:
	case runErr = <-bot.Done():
		if errors.Is(runErr, context.Canceled) {
			runErr = nil
		}
	}
	bot.Stop()
	return runErr
}
