package database

import (
	"context"
	"fmt"

	"github.com/vedran77/taskmate/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// ConnectMongo builds the shared client. The driver dials lazily and
// re-establishes lost connections on its own, so no network I/O happens here.
func ConnectMongo(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1).
		SetStrict(true).
		SetDeprecationErrors(true)

	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerAPIOptions(serverAPI).
		SetMaxPoolSize(cfg.DBMaxPoolSize).
		SetConnectTimeout(cfg.DBConnectTimeout).
		SetServerSelectionTimeout(cfg.DBConnectTimeout).
		SetRetryWrites(true).
		SetRetryReads(true).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("unable to create mongo client: %w", err)
	}

	return &Mongo{client: client, db: client.Database(cfg.MongoDatabase)}, nil
}

func (m *Mongo) Database() *mongo.Database {
	return m.db
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
