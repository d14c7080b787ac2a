package storage

import (
	"context"
	"errors"

	"github.com/yourname/eduflow/internal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "users"

// MongoStorage is the remote document store: users/{uid} holds the whole document.
type MongoStorage struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger internal.Logger
}

type mongoDocument struct {
	ID                string `bson:"_id"`
	internal.Document `bson:",inline"`
}

type changeEvent struct {
	OperationType string `bson:"operationType"`
	FullDocument  bson.M `bson:"fullDocument"`
}

func NewMongoStorage(ctx context.Context, uri, database string, logger internal.Logger) (*MongoStorage, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		logger.Errorf("failed to connect to mongo: %v", err)
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		logger.Errorf("failed to ping mongo: %v", err)
		return nil, err
	}
	return &MongoStorage{
		client: client,
		coll:   client.Database(database).Collection(mongoCollection),
		logger: logger,
	}, nil
}

func (m *MongoStorage) Get(ctx context.Context, uid string) (Snapshot, error) {
	if err := validUID(uid); err != nil {
		return Snapshot{}, err
	}
	var data bson.M
	err := m.coll.FindOne(ctx, bson.M{"_id": uid}).Decode(&data)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Snapshot{}, nil
		}
		m.logger.Errorf("failed to load user document: %v", err)
		return Snapshot{}, err
	}
	delete(data, "_id")
	return Snapshot{Exists: true, Data: data}, nil
}

func (m *MongoStorage) Set(ctx context.Context, uid string, doc internal.Document) error {
	if err := validUID(uid); err != nil {
		return err
	}
	_, err := m.coll.ReplaceOne(ctx, bson.M{"_id": uid}, mongoDocument{ID: uid, Document: doc},
		options.Replace().SetUpsert(true))
	if err != nil {
		m.logger.Errorf("failed to replace user document: %v", err)
	}
	return err
}

// Subscribe requires a replica set or sharded cluster; change streams are not
// available on a standalone server.
func (m *MongoStorage) Subscribe(ctx context.Context, uid string, fn func(Snapshot)) (func(), error) {
	if err := validUID(uid); err != nil {
		return nil, err
	}
	pipeline := mongo.Pipeline{{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: uid}}}}}
	stream, err := m.coll.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		m.logger.Errorf("failed to open change stream: %v", err)
		return nil, err
	}
	initial, err := m.Get(ctx, uid)
	if err != nil {
		_ = stream.Close(context.Background())
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer stream.Close(context.Background())
		fn(initial)
		for stream.Next(watchCtx) {
			var ev changeEvent
			if err := stream.Decode(&ev); err != nil {
				m.logger.Warnf("failed to decode change event: %v", err)
				continue
			}
			switch ev.OperationType {
			case "delete":
				fn(Snapshot{})
			case "insert", "replace", "update":
				if ev.FullDocument == nil {
					continue
				}
				delete(ev.FullDocument, "_id")
				fn(Snapshot{Exists: true, Data: ev.FullDocument})
			}
		}
		if err := stream.Err(); err != nil && watchCtx.Err() == nil {
			m.logger.Errorf("change stream stopped: %v", err)
		}
	}()
	return func() {
		cancel()
		<-done
	}, nil
}

func (m *MongoStorage) Close() error {
	return m.client.Disconnect(context.Background())
}

var _ DocumentStore = (*MongoStorage)(nil)
