// Package mongo keeps reports in a MongoDB collection, one document per report.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"salaryreport/internal/core"
)

type Config struct {
	URI        string
	Database   string
	Collection string
}

type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

type inputDoc struct {
	BasicSalary float64 `bson:"basic_salary"`
	Incentives  float64 `bson:"incentives"`
	Spends      float64 `bson:"spends"`
	Recharge    float64 `bson:"recharge"`
	Grocery     float64 `bson:"grocery"`
}

type reportDoc struct {
	ID                primitive.ObjectID `bson:"_id"`
	CreatedAt         time.Time          `bson:"created_at"`
	Input             inputDoc           `bson:"input"`
	TotalIncome       float64            `bson:"total_income"`
	TotalExpenses     float64            `bson:"total_expenses"`
	NetSavings        float64            `bson:"net_savings"`
	SavingsPercentage float64            `bson:"savings_percentage"`
	Chart             string             `bson:"chart,omitempty"`
	ChartError        string             `bson:"chart_error,omitempty"`
	SourceAddress     string             `bson:"source_address,omitempty"`
}

// Open connects to MongoDB, verifies the connection and ensures the
// listing index exists.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &Store{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		now:    time.Now,
	}

	_, err = s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create created_at index: %w", err)
	}

	slog.Info("Connected to MongoDB", "database", cfg.Database, "collection", cfg.Collection)
	return s, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return core.StorageFailure("ping", err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, report core.SalaryReport, input core.SalaryInput, sourceAddress string) (core.StoredReport, error) {
	oid := primitive.NewObjectID()
	rec := core.StoredReport{
		ID: oid.Hex(),
		// BSON dates carry milliseconds only.
		CreatedAt:     s.now().UTC().Truncate(time.Millisecond),
		SalaryReport:  report,
		Input:         input,
		SourceAddress: sourceAddress,
	}

	if _, err := s.coll.InsertOne(ctx, toDoc(oid, rec)); err != nil {
		return core.StoredReport{}, core.StorageFailure("insert", err)
	}
	return rec, nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]core.StoredReport, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(core.ClampLimit(limit)))

	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, core.StorageFailure("list", err)
	}
	var docs []reportDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, core.StorageFailure("list", err)
	}

	out := make([]core.StoredReport, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromDoc(d))
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (core.StoredReport, error) {
	oid, err := core.ParseReportID(id)
	if err != nil {
		return core.StoredReport{}, err
	}

	var d reportDoc
	err = s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.StoredReport{}, core.NotFound(oid.Hex())
	}
	if err != nil {
		return core.StoredReport{}, core.StorageFailure("get", err)
	}
	return fromDoc(d), nil
}

func toDoc(oid primitive.ObjectID, r core.StoredReport) reportDoc {
	return reportDoc{
		ID:        oid,
		CreatedAt: r.CreatedAt,
		Input: inputDoc{
			BasicSalary: r.Input.BasicSalary,
			Incentives:  r.Input.Incentives,
			Spends:      r.Input.Spends,
			Recharge:    r.Input.Recharge,
			Grocery:     r.Input.Grocery,
		},
		TotalIncome:       r.TotalIncome,
		TotalExpenses:     r.TotalExpenses,
		NetSavings:        r.NetSavings,
		SavingsPercentage: r.SavingsPercentage,
		Chart:             r.Chart,
		ChartError:        r.ChartError,
		SourceAddress:     r.SourceAddress,
	}
}

func fromDoc(d reportDoc) core.StoredReport {
	return core.StoredReport{
		ID:        d.ID.Hex(),
		CreatedAt: d.CreatedAt.UTC(),
		SalaryReport: core.SalaryReport{
			TotalIncome:       d.TotalIncome,
			TotalExpenses:     d.TotalExpenses,
			NetSavings:        d.NetSavings,
			SavingsPercentage: d.SavingsPercentage,
			Chart:             d.Chart,
			ChartError:        d.ChartError,
		},
		Input: core.SalaryInput{
			BasicSalary: d.Input.BasicSalary,
			Incentives:  d.Input.Incentives,
			Spends:      d.Input.Spends,
			Recharge:    d.Input.Recharge,
			Grocery:     d.Input.Grocery,
		},
		SourceAddress: d.SourceAddress,
	}
}
