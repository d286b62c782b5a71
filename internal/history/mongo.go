package history

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the Mongo collection holding progress entries.
const CollectionName = "goal_progress"

// MongoRecorder persists entries in MongoDB.
type MongoRecorder struct {
	coll *mongo.Collection
}

// NewMongoRecorder uses the goal_progress collection of db.
func NewMongoRecorder(db *mongo.Database) *MongoRecorder {
	return &MongoRecorder{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the (goalId, recordedAt) index used by List.
func (r *MongoRecorder) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "goalId", Value: 1}, {Key: "recordedAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create goal_progress index: %w", err)
	}
	return nil
}

func (r *MongoRecorder) Record(ctx context.Context, entry Entry) error {
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("insert progress entry: %w", err)
	}
	return nil
}

func (r *MongoRecorder) List(ctx context.Context, goalID string) ([]Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "recordedAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"goalId": goalID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find progress entries: %w", err)
	}
	entries := make([]Entry, 0)
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode progress entries: %w", err)
	}
	return entries, nil
}

func (r *MongoRecorder) Forget(ctx context.Context, goalID string) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"goalId": goalID}); err != nil {
		return fmt.Errorf("delete progress entries: %w", err)
	}
	return nil
}
