package components

import (
	"courtbook/internal/cache"
	"courtbook/internal/pkg/clock"
	"courtbook/internal/pkg/config"
	"courtbook/internal/usecase/commands"
	"courtbook/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	commands.NewInflightGuard,
	commands.NewUpcomingGames,
	func(cfg config.Config) config.BookingConfig { return cfg.Booking },
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewBookingQueries,
		queries.NewAvailabilityQueries,
		queries.NewVenueQueries,
		func(source queries.MessageSource, msgCache *cache.MessageCache, cfg config.Config) queries.ChatQueries {
			return queries.NewChatQueries(source, msgCache, cfg.Cache.MaxMessages)
		},
	),
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewBookingCommands,
		commands.NewParticipantCommands,
	),
)
