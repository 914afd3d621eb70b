package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Rrens/ai-interviewer/internal/config"
	"github.com/Rrens/ai-interviewer/internal/domain"
)

// SessionRepository stores sessions as native documents keyed by _id
type SessionRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect dials the server and selects the sessions collection
func Connect(ctx context.Context, cfg config.MongoConfig) (*SessionRepository, error) {
	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	return &SessionRepository{client: client, coll: coll}, nil
}

func (r *SessionRepository) Load(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	// relaxed extended JSON is plain JSON for the types a session uses
	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to convert session %s: %w", id, err)
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &s, nil
}

func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", session.SessionID, err)
	}

	var doc bson.D
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return fmt.Errorf("failed to convert session %s: %w", session.SessionID, err)
	}
	doc = append(bson.D{{Key: "_id", Value: session.SessionID}}, doc...)

	_, err = r.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: session.SessionID}},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) List(ctx context.Context) ([]string, error) {
	values, err := r.coll.Distinct(ctx, "_id", bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	ids := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *SessionRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
