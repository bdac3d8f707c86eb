package bootstrap

import (
	"context"

	"courtbook/internal/infra/events"
	"courtbook/internal/pkg/config"
	"courtbook/internal/usecase/commands"

	"go.uber.org/fx"
)

var EventsModule = fx.Module("events",
	fx.Provide(
		NewEventPublisher,
		func(p events.Publisher) commands.EventPublisher { return p },
	),
)

func NewEventPublisher(lc fx.Lifecycle, cfg config.Config) (events.Publisher, error) {
	pub, err := events.NewPublisher(cfg.Events)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return pub.Close()
		},
	})
	return pub, nil
}
