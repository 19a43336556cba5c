package vitals

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const readingsCollection = "vitals_readings"

type readingRepoMongo struct {
	coll *mongo.Collection
}

func NewReadingRepoMongo(db *mongo.Database) ReadingRepository {
	return &readingRepoMongo{coll: db.Collection(readingsCollection)}
}

func (r *readingRepoMongo) InsertMany(ctx context.Context, readings []*Reading) (int, error) {
	if len(readings) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, len(readings))
	for i, rd := range readings {
		docs[i] = rd
	}

	res, err := r.coll.InsertMany(ctx, docs)
	if err != nil {
		return 0, err
	}
	return len(res.InsertedIDs), nil
}

func (r *readingRepoMongo) ListRecentByPatient(ctx context.Context, patientID uuid.UUID, limit int64) ([]*Reading, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cur, err := r.coll.Find(ctx, bson.M{"patientId": patientID.String()}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	readings := []*Reading{}
	if err := cur.All(ctx, &readings); err != nil {
		return nil, err
	}
	return readings, nil
}
