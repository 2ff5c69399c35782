package main

import (
	"context"
	"log/slog"
	"os"

	"ledger/config"
	"ledger/internal/delivery"
	"ledger/internal/delivery/api"
	"ledger/internal/delivery/api/middleware"
	"ledger/internal/delivery/api/router/handler"
	"ledger/internal/domain/service"
	"ledger/internal/infra/auth"
	"ledger/internal/infra/auth/google"
	logs "ledger/internal/infra/log"
	"ledger/internal/infra/persistence"
	"ledger/internal/infra/pubsub"
	"ledger/internal/usecase/impl"
	"ledger/trust"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		pubsub.Module,
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		persistence.NewStore,
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewPasswordHasher,
			newTokenCodec,
			newGuard,
			fx.Annotate(
				func(codec *trust.Codec) *trust.Codec { return codec },
				fx.As(new(service.TokenIssuer)),
			),
			google.NewIDTokenVerifier,
		),
	)
}

// newTokenCodec builds the codec from the shared token section.
func newTokenCodec(cfg *config.Config) (*trust.Codec, error) {
	return trust.NewCodec(cfg.Token)
}

func newGuard(codec *trust.Codec) *trust.Guard {
	return trust.NewGuard(codec)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewIdentityService,
			impl.NewUserService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewOAuth2Middleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewUserHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	params.Append(fx.Hook{
		OnStart: func(context.Context) error {
			for _, d := range params.Deliveries {
				go func() {
					if err := d.Serve(ctx); err != nil {
						slog.Error("Failed to start server", slog.Any("error", err))
						os.Exit(1)
					}
				}()
			}

			return nil
		},
	})
}
