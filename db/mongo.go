package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectToMongo initializes a MongoDB connection and verifies it with a ping
func ConnectToMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, nil
}

// EnsureIndexes creates the unique keys the repositories rely on
func EnsureIndexes(ctx context.Context, client *mongo.Client, dbName string) error {
	database := client.Database(dbName)

	indexes := []struct {
		collection string
		model      mongo.IndexModel
	}{
		{CountriesCollection, mongo.IndexModel{Keys: bson.D{{Key: "cca3", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{CountriesCollection, mongo.IndexModel{Keys: bson.D{{Key: "region", Value: 1}}}},
		{RegionsCollection, mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{TravelStatusCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "countryCode", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{FavoritesCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "countryCode", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
	}

	for _, idx := range indexes {
		if _, err := database.Collection(idx.collection).Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", idx.collection, err)
		}
	}
	return nil
}
