package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/annel0/horde-survival/internal/sim"
)

// MongoConfig настройки подключения к MongoDB
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoRunRepo хранит итоги забегов документами MongoDB, _id = RunID
type MongoRunRepo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type runDocument struct {
	RunID      string       `bson:"_id"`
	Seed       int64        `bson:"seed"`
	Mode       string       `bson:"mode"`
	Outcome    string       `bson:"outcome"`
	Elapsed    float64      `bson:"elapsed"`
	Ticks      uint64       `bson:"ticks"`
	Wave       int          `bson:"wave"`
	Stats      sim.RunStats `bson:"stats"`
	FinishedAt time.Time    `bson:"finished_at"`
}

func NewMongoRunRepo(ctx context.Context, cfg MongoConfig) (*MongoRunRepo, error) {
	if cfg.Database == "" {
		cfg.Database = "horde"
	}
	if cfg.Collection == "" {
		cfg.Collection = "runs"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("MongoDB недоступна: %w", err)
	}

	repo := &MongoRunRepo{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}
	finishedIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "finished_at", Value: -1}},
		Options: options.Index().SetName("finished_at_desc"),
	}
	if _, err := repo.collection.Indexes().CreateOne(ctx, finishedIdx); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("не удалось создать индекс: %w", err)
	}
	return repo, nil
}

func (m *MongoRunRepo) Save(ctx context.Context, res RunResult) error {
	if res.RunID == "" {
		return ErrInvalidRun
	}
	doc := runDocument{
		RunID:      res.RunID,
		Seed:       res.Seed,
		Mode:       res.Mode,
		Outcome:    res.Outcome,
		Elapsed:    res.Elapsed,
		Ticks:      res.Ticks,
		Wave:       res.Wave,
		Stats:      res.Stats,
		FinishedAt: res.FinishedAt,
	}
	_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": res.RunID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("ошибка сохранения забега %s: %w", res.RunID, err)
	}
	return nil
}

func fromDocument(d runDocument) RunResult {
	return RunResult{
		RunID:      d.RunID,
		Seed:       d.Seed,
		Mode:       d.Mode,
		Outcome:    d.Outcome,
		Elapsed:    d.Elapsed,
		Ticks:      d.Ticks,
		Wave:       d.Wave,
		Stats:      d.Stats,
		FinishedAt: d.FinishedAt.UTC(),
	}
}

func (m *MongoRunRepo) Load(ctx context.Context, runID string) (RunResult, bool, error) {
	var doc runDocument
	err := m.collection.FindOne(ctx, bson.M{"_id": runID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return RunResult{}, false, nil
	}
	if err != nil {
		return RunResult{}, false, fmt.Errorf("ошибка загрузки забега %s: %w", runID, err)
	}
	return fromDocument(doc), true, nil
}

func (m *MongoRunRepo) Recent(ctx context.Context, n int) ([]RunResult, error) {
	if n <= 0 {
		return nil, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "finished_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(n))
	cur, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки забегов: %w", err)
	}
	defer cur.Close(ctx)

	var docs []runDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]RunResult, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromDocument(d))
	}
	return out, nil
}

func (m *MongoRunRepo) Delete(ctx context.Context, runID string) error {
	_, err := m.collection.DeleteOne(ctx, bson.M{"_id": runID})
	return err
}

func (m *MongoRunRepo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
