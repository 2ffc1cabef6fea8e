package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"resumescan/internal/config"
	resumescanErrors "resumescan/internal/errors"
	"resumescan/internal/types"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	analysesCollection = "resumes"
	usersCollection    = "users"

	// DefaultHistoryLimit caps history listings when no limit is given
	DefaultHistoryLimit = 50
)

// Store persists analysis history and per-user quota counters in MongoDB
type Store struct {
	client    *mongo.Client
	analyses  *mongo.Collection
	users     *mongo.Collection
	freeLimit int
}

// Connect dials MongoDB and verifies the connection
func Connect(ctx context.Context, cfg config.MongoConfig, freeLimit int) (*Store, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI).SetTimeout(timeout))
	if err != nil {
		return nil, resumescanErrors.NewStorageError(resumescanErrors.ErrCodeStoreFailed, "Failed to connect to MongoDB", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, resumescanErrors.NewStorageError(resumescanErrors.ErrCodeStoreFailed, "Failed to ping MongoDB", err)
	}

	s := New(client.Database(cfg.Database), freeLimit)
	s.client = client
	return s, nil
}

// New creates a store over an existing database handle
func New(db *mongo.Database, freeLimit int) *Store {
	return &Store{
		analyses:  db.Collection(analysesCollection),
		users:     db.Collection(usersCollection),
		freeLimit: freeLimit,
	}
}

// FreeLimit is the number of analyses a free user may run
func (s *Store) FreeLimit() int {
	return s.freeLimit
}

// EnsureIndexes creates the lookup indexes used by history and quota queries
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.analyses.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "uploadDate", Value: -1}}},
		{Keys: bson.D{{Key: "analysisResult.score", Value: -1}}},
		{Keys: bson.D{{Key: "userEmail", Value: 1}, {Key: "uploadDate", Value: -1}}},
	})
	if err != nil {
		return resumescanErrors.NewStorageError(resumescanErrors.ErrCodeStoreFailed, "Failed to create analysis indexes", err)
	}

	_, err = s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return resumescanErrors.NewStorageError(resumescanErrors.ErrCodeStoreFailed, "Failed to create user indexes", err)
	}
	return nil
}

// FindUser looks a user up by email. A missing user yields nil, nil.
func (s *Store) FindUser(ctx context.Context, email string) (*User, error) {
	var user User
	err := s.users.FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, resumescanErrors.NewStorageError(resumescanErrors.ErrCodeStoreFailed, "Failed to load user", err)
	}
	return &user, nil
}

// CheckQuota returns the user for email, refusing free users who have used up
// their analyses. Unknown users are treated as new free accounts.
func (s *Store) CheckQuota(ctx context.Context, email string) (*User, error) {
	user, err := s.FindUser(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &User{Email: normalizeEmail(email), SubscriptionTier: types.TierFree}
	}

	if user.Tier() == types.TierFree && user.ResumeCount >= s.freeLimit {
		return user, resumescanErrors.NewValidationError(resumescanErrors.ErrCodeQuotaExceeded,
			"All free analyses have been used. Upgrade to Pro for unlimited analyses.", nil).
			WithContext("resume_count", user.ResumeCount).
			WithContext("free_limit", s.freeLimit)
	}
	return user, nil
}

// SaveAnalysis inserts the document and counts it against the owner's quota
func (s *Store) SaveAnalysis(ctx context.Context, doc *AnalysisDocument) error {
	doc.UserEmail = normalizeEmail(doc.UserEmail)
	if _, err := s.analyses.InsertOne(ctx, doc); err != nil {
		return resumescanErrors.NewStorageError(resumescanErrors.ErrCodeStoreFailed, "Failed to save analysis", err)
	}
	if doc.UserEmail == "" {
		return nil
	}

	_, err := s.users.UpdateOne(ctx,
		bson.M{"email": doc.UserEmail},
		bson.M{
			"$inc":         bson.M{"resumeCount": 1},
			"$setOnInsert": bson.M{"subscriptionTier": types.TierFree},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return resumescanErrors.NewStorageError(resumescanErrors.ErrCodeStoreFailed, "Failed to update resume count", err)
	}
	return nil
}

// History lists a user's analyses, newest first
func (s *Store) History(ctx context.Context, email string, limit int) ([]types.AnalysisSummary, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "uploadDate", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"id": 1, "uploadDate": 1, "originalName": 1, "analysisResult.score": 1, "analysisResult.atsScore": 1})

	cursor, err := s.analyses.Find(ctx, bson.M{"userEmail": normalizeEmail(email)}, opts)
	if err != nil {
		return nil, resumescanErrors.NewStorageError(resumescanErrors.ErrCodeStoreFailed, "Failed to query history", err)
	}
	defer cursor.Close(ctx)

	var docs []AnalysisDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, resumescanErrors.NewStorageError(resumescanErrors.ErrCodeStoreFailed, "Failed to decode history", err)
	}

	summaries := make([]types.AnalysisSummary, 0, len(docs))
	for i := range docs {
		summaries = append(summaries, docs[i].Summary())
	}
	return summaries, nil
}

// GetAnalysis loads one stored analysis by id
func (s *Store) GetAnalysis(ctx context.Context, id string) (*AnalysisDocument, error) {
	var doc AnalysisDocument
	err := s.analyses.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, resumescanErrors.NewStorageError(resumescanErrors.ErrCodeNotFound, "Analysis not found", err).
			WithContext("id", id)
	}
	if err != nil {
		return nil, resumescanErrors.NewStorageError(resumescanErrors.ErrCodeStoreFailed, "Failed to load analysis", err)
	}
	return &doc, nil
}

// Close disconnects the client when the store owns it
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
