package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/stromtarif/stromtarif/pkg/log"
	"github.com/stromtarif/stromtarif/pkg/types"
)

const (
	pricesCollection = "daily_prices"
	metaCollection   = "meta"
	syncDoc          = "sync"
)

// FirestoreProvider implements Database using Google Cloud Firestore. Every
// day is one document keyed by YYYY-MM-DD holding the record as a JSON
// string.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	// the project ID may be detected from the environment
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func profileCollection(variant types.ProfileVariant) (string, error) {
	if !variant.Valid() {
		return "", fmt.Errorf("unknown profile variant: %q", string(variant))
	}
	return "profile_days_" + string(variant), nil
}

type firestoreDoc struct {
	key  string
	data any
}

// setAll writes all documents with a BulkWriter and returns the first error.
func (f *FirestoreProvider) setAll(ctx context.Context, collection string, docs []firestoreDoc) error {
	coll := f.client.Collection(collection)
	bw := f.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(docs))
	for _, d := range docs {
		jsonBytes, err := json.Marshal(d.data)
		if err != nil {
			bw.End()
			return fmt.Errorf("failed to marshal %s/%s: %w", collection, d.key, err)
		}
		day, err := time.Parse(time.DateOnly, d.key)
		if err != nil {
			bw.End()
			return fmt.Errorf("invalid day key %s: %w", d.key, err)
		}
		job, err := bw.Set(coll.Doc(d.key), map[string]interface{}{
			"json": string(jsonBytes),
			"day":  day,
		})
		if err != nil {
			bw.End()
			return fmt.Errorf("failed to queue %s/%s: %w", collection, d.key, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("failed to write %s/%s: %w", collection, docs[i].key, err)
		}
	}
	log.Ctx(ctx).DebugContext(ctx, "wrote firestore documents", slog.String("collection", collection), slog.Int("count", len(docs)))
	return nil
}

// getAll calls fn with the JSON body of every document in the collection
// in key order.
func (f *FirestoreProvider) getAll(ctx context.Context, collection string, fn func(key string, body []byte) error) error {
	iter := f.client.Collection(collection).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("error iterating %s: %w", collection, err)
		}

		val, err := doc.DataAt("json")
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "doc missing json", slog.String("collection", collection), slog.String("docID", doc.Ref.ID), slog.Any("err", err))
			return fmt.Errorf("document %s/%s missing 'json' field: %w", collection, doc.Ref.ID, err)
		}
		jsonStr, ok := val.(string)
		if !ok {
			log.Ctx(ctx).WarnContext(ctx, "doc json not string", slog.String("collection", collection), slog.String("docID", doc.Ref.ID))
			return fmt.Errorf("document %s/%s 'json' field is not string", collection, doc.Ref.ID)
		}
		if err := fn(doc.Ref.ID, []byte(jsonStr)); err != nil {
			return err
		}
	}
	return nil
}

// UpsertDailyPrices implements Database.
func (f *FirestoreProvider) UpsertDailyPrices(ctx context.Context, prices []types.DailyPrices) error {
	docs := make([]firestoreDoc, 0, len(prices))
	for _, p := range prices {
		key, err := dayKey(p.Date)
		if err != nil {
			return err
		}
		docs = append(docs, firestoreDoc{key: key, data: p})
	}
	return f.setAll(ctx, pricesCollection, docs)
}

// GetDailyPrices implements Database.
func (f *FirestoreProvider) GetDailyPrices(ctx context.Context) ([]types.DailyPrices, error) {
	var prices []types.DailyPrices
	err := f.getAll(ctx, pricesCollection, func(key string, body []byte) error {
		var p types.DailyPrices
		if err := json.Unmarshal(body, &p); err != nil {
			return fmt.Errorf("failed to unmarshal daily prices (id=%s): %w", key, err)
		}
		if p.Date == "" {
			date, err := keyDate(key)
			if err != nil {
				return err
			}
			p.Date = date
		}
		prices = append(prices, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prices, nil
}

// UpsertProfileDays implements Database.
func (f *FirestoreProvider) UpsertProfileDays(ctx context.Context, variant types.ProfileVariant, days []types.ProfileDay) error {
	collection, err := profileCollection(variant)
	if err != nil {
		return err
	}
	docs := make([]firestoreDoc, 0, len(days))
	for _, d := range days {
		key, err := dayKey(d.Date)
		if err != nil {
			return err
		}
		d.Variant = variant
		docs = append(docs, firestoreDoc{key: key, data: d})
	}
	return f.setAll(ctx, collection, docs)
}

// GetProfileDays implements Database.
func (f *FirestoreProvider) GetProfileDays(ctx context.Context, variant types.ProfileVariant) ([]types.ProfileDay, error) {
	collection, err := profileCollection(variant)
	if err != nil {
		return nil, err
	}
	var days []types.ProfileDay
	err = f.getAll(ctx, collection, func(key string, body []byte) error {
		var d types.ProfileDay
		if err := json.Unmarshal(body, &d); err != nil {
			return fmt.Errorf("failed to unmarshal profile day (id=%s): %w", key, err)
		}
		if d.Date == "" {
			date, err := keyDate(key)
			if err != nil {
				return err
			}
			d.Date = date
		}
		days = append(days, d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return days, nil
}

// SetLastSync implements Database.
func (f *FirestoreProvider) SetLastSync(ctx context.Context, t time.Time) error {
	_, err := f.client.Collection(metaCollection).Doc(syncDoc).Set(ctx, map[string]interface{}{
		"syncedAt": t.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to save last sync: %w", err)
	}
	return nil
}

// GetLastSync implements Database.
func (f *FirestoreProvider) GetLastSync(ctx context.Context) (time.Time, error) {
	doc, err := f.client.Collection(metaCollection).Doc(syncDoc).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, fmt.Errorf("failed to fetch sync doc: %w", err)
	}
	val, err := doc.DataAt("syncedAt")
	if err != nil {
		return time.Time{}, fmt.Errorf("sync document missing 'syncedAt' field: %w", err)
	}
	t, ok := val.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("sync 'syncedAt' field is not a timestamp")
	}
	return t, nil
}
