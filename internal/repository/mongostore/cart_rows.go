// Package mongostore keeps the carts of authenticated users in a MongoDB collection, one
// document per user.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type cartDocument struct {
	UserID    string           `bson:"user_id"`
	Items     []domain.CartRow `bson:"items"`
	UpdatedAt time.Time        `bson:"updated_at"`
}

type CartRowStore struct {
	collection *mongo.Collection
}

func NewCartRowStore(db *mongo.Database) *CartRowStore {
	return &CartRowStore{collection: db.Collection("cart_items")}
}

func (s *CartRowStore) ListCartRows(ctx context.Context, userID string) ([]domain.CartRow, error) {
	var doc cartDocument
	err := s.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart rows: %w", err)
	}
	return doc.Items, nil
}

func (s *CartRowStore) ReplaceCartRows(ctx context.Context, userID string, rows []domain.CartRow) error {
	items := make([]domain.CartRow, 0, len(rows))
	for _, row := range rows {
		row.UserID = userID
		items = append(items, row)
	}

	doc := cartDocument{UserID: userID, Items: items, UpdatedAt: time.Now()}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"user_id": userID}, doc, opts); err != nil {
		return fmt.Errorf("failed to replace cart rows: %w", err)
	}
	return nil
}

func (s *CartRowStore) DeleteCartRows(ctx context.Context, userID string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("failed to delete cart rows: %w", err)
	}
	return nil
}

func (s *CartRowStore) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(30 * 24 * 60 * 60),
		},
	}

	if _, err := s.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
