package insight

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const insightCollection = "ai_insights"

// insightDoc is the persisted form of an Insight; the id is a Mongo ObjectID
// rendered as hex on the way out.
type insightDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	PatientID       string             `bson:"patientId"`
	GeneratedAt     time.Time          `bson:"generatedAt"`
	TriggerSource   TriggerSource      `bson:"triggerSource"`
	RiskCategory    RiskCategory       `bson:"riskCategory"`
	ConfidenceScore float64            `bson:"confidenceScore"`
	Reasoning       string             `bson:"reasoning"`
	KeyFactors      []string           `bson:"keyFactors"`
	MedicationLinks []string           `bson:"medicationLinks"`
	Recommendations Recommendations    `bson:"recommendations"`
}

func (d *insightDoc) toInsight() *Insight {
	ins := &Insight{
		ID:              d.ID.Hex(),
		PatientID:       d.PatientID,
		GeneratedAt:     d.GeneratedAt,
		TriggerSource:   d.TriggerSource,
		RiskCategory:    d.RiskCategory,
		ConfidenceScore: d.ConfidenceScore,
		Reasoning:       d.Reasoning,
		KeyFactors:      d.KeyFactors,
		MedicationLinks: d.MedicationLinks,
		Recommendations: d.Recommendations,
	}
	if ins.KeyFactors == nil {
		ins.KeyFactors = []string{}
	}
	if ins.MedicationLinks == nil {
		ins.MedicationLinks = []string{}
	}
	if ins.Recommendations.Lifestyle == nil {
		ins.Recommendations.Lifestyle = []string{}
	}
	if ins.Recommendations.Medical == nil {
		ins.Recommendations.Medical = []string{}
	}
	return ins
}

type repoMongo struct {
	col *mongo.Collection
}

func NewRepoMongo(database *mongo.Database) Repository {
	return &repoMongo{col: database.Collection(insightCollection)}
}

func (r *repoMongo) Save(ctx context.Context, ins *Insight) (string, error) {
	doc := insightDoc{
		PatientID:       ins.PatientID,
		GeneratedAt:     ins.GeneratedAt,
		TriggerSource:   ins.TriggerSource,
		RiskCategory:    ins.RiskCategory,
		ConfidenceScore: ins.ConfidenceScore,
		Reasoning:       ins.Reasoning,
		KeyFactors:      ins.KeyFactors,
		MedicationLinks: ins.MedicationLinks,
		Recommendations: ins.Recommendations,
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return "", err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", errors.New("unexpected inserted id type")
	}
	ins.ID = oid.Hex()
	return ins.ID, nil
}

func (r *repoMongo) FindByPatient(ctx context.Context, patientID uuid.UUID) ([]*Insight, error) {
	opts := options.Find().SetSort(bson.D{{Key: "generatedAt", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"patientId": patientID.String()}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	insights := []*Insight{}
	for cur.Next(ctx) {
		var doc insightDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		insights = append(insights, doc.toInsight())
	}
	return insights, cur.Err()
}

func (r *repoMongo) FindByID(ctx context.Context, id string) (*Insight, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var doc insightDoc
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toInsight(), nil
}
