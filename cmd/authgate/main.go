package main

import (
	"context"
	"log/slog"
	"os"

	"authgate/config"
	"authgate/internal/delivery"
	"authgate/internal/delivery/api"
	apimiddleware "authgate/internal/delivery/api/middleware"
	"authgate/internal/delivery/api/router/handler"
	"authgate/internal/domain/repository"
	"authgate/internal/domain/service"
	"authgate/internal/infra/auth"
	"authgate/internal/infra/auth/firebase"
	"authgate/internal/infra/auth/google"
	logs "authgate/internal/infra/log"
	"authgate/internal/infra/mail"
	"authgate/internal/infra/persistence/memory"
	"authgate/internal/infra/persistence/mongo"
	"authgate/internal/infra/persistence/postgres"
	"authgate/internal/infra/pubsub"
	"authgate/internal/infra/ratelimit"
	"authgate/internal/usecase/impl"

	"github.com/pkg/errors"
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
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
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
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			newUserRepository,
		),
	)
}

type repositoryParams struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// newUserRepository opens only the store selected by store.driver.
func newUserRepository(params repositoryParams) (repository.UserRepository, error) {
	driver := params.Config.Store.Driver
	params.Logger.Info("Opening user store", slog.String("driver", driver))

	switch driver {
	case config.StoreDriverPostgres:
		db, err := postgres.New(postgres.Params{
			Lifecycle: params.Lifecycle,
			Config:    params.Config,
			Logger:    params.Logger,
		})
		if err != nil {
			return nil, err
		}

		return postgres.NewUserRepository(db), nil
	case config.StoreDriverMongo:
		collection, err := mongo.New(mongo.Params{
			Lifecycle: params.Lifecycle,
			Config:    params.Config,
			Logger:    params.Logger,
		})
		if err != nil {
			return nil, err
		}

		return mongo.NewUserRepository(collection), nil
	case config.StoreDriverMemory:
		params.Logger.Warn("Using in-memory user store, sessions are lost on restart")

		return memory.NewUserRepository(), nil
	default:
		return nil, errors.Errorf("unknown store driver: %s", driver)
	}
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
			newOAuthVerifier,
			mail.NewMailer,
			pubsub.NewEventPublisher,
			ratelimit.NewRateLimiter,
		),
	)
}

// newOAuthVerifier returns nil when no provider is configured, in which
// case the OAuth sign-in trusts the profile posted by the client.
func newOAuthVerifier(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.OAuthVerifier, error) {
	if cfg.OAuth == nil {
		return nil, nil
	}

	switch cfg.OAuth.Provider {
	case "":
		logger.Warn("OAuth provider not configured, ID tokens will not be verified")

		return nil, nil
	case config.OAuthProviderGoogle:
		return google.NewVerifier(cfg, logger)
	case config.OAuthProviderFirebase:
		verifier, err := firebase.NewVerifier(ctx, cfg, logger)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create Firebase verifier")
		}

		return verifier, nil
	default:
		return nil, errors.Errorf("unknown oauth provider: %s", cfg.OAuth.Provider)
	}
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewSessionService,
			impl.NewPasswordService,
			impl.NewProfileService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			apimiddleware.NewAuthMiddleware,
			apimiddleware.NewRateLimitMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewPasswordHandler,
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
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
