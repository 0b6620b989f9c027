package mongo

import (
	"context"
	"errors"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionSessionState = "session_state"
	mirrorNamespace        = "atreo-auth"
)

type sessionStateDoc struct {
	SessionID string    `bson:"_id"`
	Namespace string    `bson:"namespace"`
	User      *string   `bson:"user"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// SessionMirrorRepository keeps the user-only projection of a session in the
// atreo-auth namespace. The stored string is the exact JSON the durable store
// holds; a null user means "signed out".
type SessionMirrorRepository struct {
	col *mongo.Collection
	ttl time.Duration
}

func NewSessionMirrorRepository(db *mongo.Database, ttl time.Duration) *SessionMirrorRepository {
	return &SessionMirrorRepository{col: db.Collection(collectionSessionState), ttl: ttl}
}

// Put upserts the mirrored user. A nil raw stores null.
func (r *SessionMirrorRepository) Put(ctx context.Context, sessionID string, raw []byte) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := sessionStateDoc{
		SessionID: sessionID,
		Namespace: mirrorNamespace,
		UpdatedAt: time.Now().UTC(),
	}
	if raw != nil {
		s := string(raw)
		doc.User = &s
	}

	filter := bson.M{"_id": sessionID, "namespace": mirrorNamespace}
	_, err := r.col.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	return err
}

// Get returns nil when nothing, or null, is mirrored for sessionID.
func (r *SessionMirrorRepository) Get(ctx context.Context, sessionID string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc sessionStateDoc
	err := r.col.FindOne(ctx, bson.M{"_id": sessionID, "namespace": mirrorNamespace}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	if doc.User == nil {
		return nil, nil
	}
	return []byte(*doc.User), nil
}

// EnsureIndexes lets mirrored sessions expire alongside their Redis keys.
func (r *SessionMirrorRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "namespace", Value: 1}}},
	}
	if r.ttl > 0 {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(expireAfterSeconds(r.ttl)),
		})
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// expireAfterSeconds converts ttl for a TTL index, clamping to the int32
// range the index option accepts.
func expireAfterSeconds(ttl time.Duration) int32 {
	secs := int64(ttl / time.Second)
	if secs > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(secs)
}
