package store

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"wiki_tracker/internal/config"
	"wiki_tracker/internal/models"
)

type mongoEntry struct {
	RevisionID    int64     `bson:"revision_id"`
	Timestamp     time.Time `bson:"timestamp"`
	FirstSentence *string   `bson:"first_sentence"`
}

// MongoStore keeps the cache in a MongoDB collection, one document per
// revision, for setups where several machines share one cache. Writes go to
// the collection immediately; Save is therefore a no-op checkpoint.
type MongoStore struct {
	client  *mongo.Client
	coll    *mongo.Collection
	entries map[int64]models.CacheEntry
}

func NewMongoStore(cfg config.DBConfig) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Connection))
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	s := &MongoStore{
		client:  client,
		coll:    client.Database(cfg.Database).Collection(cfg.Collection),
		entries: make(map[int64]models.CacheEntry),
	}

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "revision_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := s.coll.Indexes().CreateOne(ctx, indexModel); err != nil {
		log.Printf("creating revision_id index: %v", err)
	}

	return s, nil
}

func (s *MongoStore) Load() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		log.Printf("cache collection unreadable, starting from empty cache: %v", err)
		return nil
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var e mongoEntry
		if err := cursor.Decode(&e); err != nil {
			log.Printf("cache decode, skipping document: %v", err)
			continue
		}
		s.entries[e.RevisionID] = models.CacheEntry{
			RevisionID:    e.RevisionID,
			Timestamp:     e.Timestamp,
			FirstSentence: e.FirstSentence,
		}
	}
	if err := cursor.Err(); err != nil {
		return err
	}

	log.Printf("cache load backend=mongo entries=%d", len(s.entries))
	return nil
}

func (s *MongoStore) Has(revisionID int64) bool {
	_, ok := s.entries[revisionID]
	return ok
}

func (s *MongoStore) Merge(entries []models.CacheEntry) int {
	added := 0
	for _, e := range entries {
		if _, exists := s.entries[e.RevisionID]; exists {
			continue
		}
		if err := s.insert(e); err != nil {
			log.Printf("cache insert revision %d: %v", e.RevisionID, err)
			continue
		}
		s.entries[e.RevisionID] = e
		added++
	}
	return added
}

// insert uses $setOnInsert so an entry written by a concurrent run is kept,
// preserving the append-only contract.
func (s *MongoStore) insert(e models.CacheEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	doc := mongoEntry{
		RevisionID:    e.RevisionID,
		Timestamp:     e.Timestamp.UTC(),
		FirstSentence: e.FirstSentence,
	}
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"revision_id": e.RevisionID}
	update := bson.M{"$setOnInsert": doc}

	_, err := s.coll.UpdateOne(ctx, filter, update, opts)
	return err
}

func (s *MongoStore) BackfillTimestamps(revisions []models.Revision) int {
	byID := make(map[int64]time.Time, len(revisions))
	for _, r := range revisions {
		byID[r.ID] = r.Timestamp
	}

	patched := 0
	for id, e := range s.entries {
		if !e.Timestamp.IsZero() {
			continue
		}
		ts, ok := byID[id]
		if !ok {
			continue
		}
		e.Timestamp = ts
		s.entries[id] = e

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := s.coll.UpdateOne(ctx, bson.M{"revision_id": id}, bson.M{"$set": bson.M{"timestamp": ts.UTC()}})
		cancel()
		if err != nil {
			log.Printf("cache backfill revision %d: %v", id, err)
			continue
		}
		patched++
	}
	return patched
}

func (s *MongoStore) Entries() []models.CacheEntry {
	out := make([]models.CacheEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].RevisionID < out[j].RevisionID
	})
	return out
}

func (s *MongoStore) Len() int { return len(s.entries) }

func (s *MongoStore) Save() error { return nil }

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
