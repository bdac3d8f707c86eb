package components

import (
	"context"

	"courtbook/internal/pkg/config"
	"courtbook/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		worker.NewPGStore,
		func(s *worker.PGStore) worker.Store { return s },
		worker.NewEvaluator,
		func(ev *worker.Evaluator, cfg config.Config) *worker.Worker {
			return worker.NewWorker(ev, cfg.Booking.AutoAcceptPoll)
		},
	),
	fx.Invoke(startWorker),
)

func startWorker(lc fx.Lifecycle, w *worker.Worker) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go w.Run(ctx)
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			return nil
		},
	})
}
