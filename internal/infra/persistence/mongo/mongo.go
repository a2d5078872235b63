// Package mongo implements the user store on MongoDB.
package mongo

import (
	"context"
	"log/slog"

	"authgate/config"
	"authgate/internal/domain/lifecycle"
	"authgate/internal/errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/fx"
)

const (
	indexEmail        = "users_email_key"
	indexUsername     = "users_username_key"
	indexRefreshToken = "users_refresh_token_key"
	indexResetToken   = "users_reset_password_token_key"
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New connects to MongoDB and returns the users collection. The connection is
// verified and indexes are created on start.
func New(params Params) (*mongo.Collection, error) {
	cfg := params.Config.Mongo
	if cfg == nil || cfg.URI == "" || cfg.Database == "" {
		return nil, errors.New("mongo.uri and mongo.database are required for the mongo store")
	}

	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerAPIOptions(serverAPI).
		SetConnectTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create MongoDB client")
	}

	collection := client.Database(cfg.Database).Collection(cfg.Collection)

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := client.Ping(ctx, readpref.Primary()); err != nil {
				return errors.Wrap(err, "failed to ping MongoDB")
			}

			if err := EnsureIndexes(ctx, collection); err != nil {
				return err
			}

			params.Logger.Info("MongoDB connected",
				slog.String("database", cfg.Database),
				slog.String("collection", cfg.Collection))

			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	})

	return collection, nil
}

// EnsureIndexes creates the unique indexes the store relies on.
func EnsureIndexes(ctx context.Context, collection *mongo.Collection) error {
	presentString := func(field string) bson.M {
		return bson.M{field: bson.M{"$type": "string"}}
	}

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(indexEmail).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName(indexUsername).SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "refresh_token", Value: 1}},
			Options: options.Index().SetName(indexRefreshToken).SetUnique(true).
				SetPartialFilterExpression(presentString("refresh_token")),
		},
		{
			Keys: bson.D{{Key: "reset_password_token", Value: 1}},
			Options: options.Index().SetName(indexResetToken).SetUnique(true).
				SetPartialFilterExpression(presentString("reset_password_token")),
		},
	})
	if err != nil {
		return errors.Wrap(err, "failed to create MongoDB indexes")
	}

	return nil
}
