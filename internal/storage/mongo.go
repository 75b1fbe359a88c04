package storage

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"webindexer/internal/document"
)

const (
	DefaultMongoDatabase   = "webCrawlerArchive"
	DefaultMongoCollection = "webpages"
)

type MongoOptions struct {
	URI        string
	Database   string
	Collection string
	// Reset wipes the collection on start instead of resuming.
	Reset  bool
	Logger *zap.Logger
}

// Mongo stores one document per URL, using the URL as _id.
type Mongo struct {
	Client     *mongo.Client
	Collection *mongo.Collection
	logger     *zap.Logger
}

func NewMongo(ctx context.Context, opts MongoOptions) (*Mongo, error) {
	if opts.URI == "" {
		return nil, errors.New("mongo: uri is required")
	}
	if opts.Database == "" {
		opts.Database = DefaultMongoDatabase
	}
	if opts.Collection == "" {
		opts.Collection = DefaultMongoCollection
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	collection := client.Database(opts.Database).Collection(opts.Collection)
	if opts.Reset {
		res, err := collection.DeleteMany(ctx, bson.D{})
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("mongo reset: %w", err)
		}
		opts.Logger.Info("mongo collection reset",
			zap.String("collection", opts.Collection), zap.Int64("deleted", res.DeletedCount))
	}

	return &Mongo{
		Client:     client,
		Collection: collection,
		logger:     opts.Logger,
	}, nil
}

func (s *Mongo) Put(ctx context.Context, doc document.Document) error {
	if doc.URL == "" {
		return ErrEmptyURL
	}
	_, err := s.Collection.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: doc.URL}},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo put %s: %w", doc.URL, err)
	}
	return nil
}

func (s *Mongo) Exists(ctx context.Context, url string) (bool, error) {
	n, err := s.Collection.CountDocuments(ctx,
		bson.D{{Key: "_id", Value: url}},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("mongo exists %s: %w", url, err)
	}
	return n > 0, nil
}

func (s *Mongo) ScanAll(ctx context.Context) iter.Seq2[document.Document, error] {
	return func(yield func(document.Document, error) bool) {
		cur, err := s.Collection.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "fetched_at", Value: 1}}))
		if err != nil {
			yield(document.Document{}, fmt.Errorf("mongo scan: %w", err))
			return
		}
		defer cur.Close(ctx)

		for cur.Next(ctx) {
			var doc document.Document
			if err := cur.Decode(&doc); err != nil {
				yield(document.Document{}, fmt.Errorf("mongo decode: %w", err))
				return
			}
			if !yield(doc, nil) {
				return
			}
		}
		if err := cur.Err(); err != nil {
			yield(document.Document{}, fmt.Errorf("mongo cursor: %w", err))
		}
	}
}

func (s *Mongo) Close(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	return s.Client.Disconnect(ctx)
}
