package handlers

import (
	"context"
	"fmt"

	"channel-relay/transport"
)

// CallbackHandler applies an inline button press.
type CallbackHandler interface {
	HandleCallback(ctx context.Context, cb transport.Callback) error
}

// Register builds the bot-side handlers, running every event on d.
func Register(d *Dispatcher, callbacks CallbackHandler, commands *Commands) transport.BotHandlers {
	return transport.BotHandlers{
		OnCallback: func(ctx context.Context, cb transport.Callback) {
			d.Go(ctx, "Callback", func(ctx context.Context) error {
				return callbacks.HandleCallback(ctx, cb)
			})
		},
		OnCommand: func(ctx context.Context, cmd transport.Command) {
			d.Go(ctx, "Command", func(ctx context.Context) error {
				if err := commands.Handle(ctx, cmd); err != nil {
					return fmt.Errorf("/%s: %w", cmd.Name, err)
				}
				return nil
			})
		},
	}
}
