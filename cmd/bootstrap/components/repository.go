package components

import (
	"courtbook/internal/infra/readstore"
	"courtbook/internal/infra/repository"
	"courtbook/internal/usecase/commands"
	"courtbook/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		repository.NewReservationRepository,
		repository.NewCourtRepository,
		repository.NewParticipantRepository,
		repository.NewAutoAcceptJobRepository,
		readstore.NewBookingReadStore,
		readstore.NewMessageReadStore,

		// Interface bindings for the use case layer.
		func(r *repository.ReservationRepository) commands.ReservationRepository { return r },
		func(r *repository.CourtRepository) commands.CourtRepository { return r },
		func(r *repository.ParticipantRepository) commands.ParticipantRepository { return r },
		func(r *repository.AutoAcceptJobRepository) commands.AutoAcceptScheduler { return r },
		func(s *readstore.BookingReadStore) queries.BookingReadStore { return s },
		func(s *readstore.MessageReadStore) queries.MessageSource { return s },
		func(r *repository.CourtRepository) queries.CourtLister { return r },
		func(pool *pgxpool.Pool) commands.TxBeginner { return pool },
	),
)
