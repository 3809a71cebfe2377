package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"worldatlas/db"
	"worldatlas/internal/config"
	"worldatlas/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.MongoURI == "" {
		log.Fatalf("MONGODB_URI is not set in .env file. Migration cannot continue.")
	}

	if cfg.SQLitePath == "" {
		dataDir := "data"
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
		cfg.SQLitePath = filepath.Join(dataDir, cfg.DatabaseName+".db")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log.Println("Connecting to MongoDB...")
	mongoClient, err := db.ConnectToMongo(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())

	log.Println("Connecting to SQLite...")
	sqliteDB, err := db.ConnectToSQLite(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to connect to SQLite: %v", err)
	}

	if err := db.InitializeSchema(sqliteDB); err != nil {
		log.Fatalf("Failed to initialize SQLite schema: %v", err)
	}

	source := db.NewRepositoryFactory(nil, mongoClient, cfg.DatabaseName)
	target := db.NewRepositoryFactory(sqliteDB, nil, cfg.DatabaseName)
	defer target.Close(context.Background())

	log.Println("Migrating countries...")
	migrateCountries(ctx, source.NewCountryRepository(), target.NewCountryRepository())

	log.Println("Migrating region rollups...")
	migrateRegions(ctx, source.NewRegionRepository(), target.NewRegionRepository())

	log.Println("Migrating travel statuses...")
	migrateTravelStatuses(ctx, mongoClient.Database(cfg.DatabaseName).Collection(db.TravelStatusCollection), target.NewTravelStatusRepository())

	log.Println("Migrating favorites...")
	migrateFavorites(ctx, mongoClient.Database(cfg.DatabaseName).Collection(db.FavoritesCollection), target.NewFavoriteRepository())

	log.Println("Migration completed successfully!")
	log.Printf("SQLite database is available at: %s", cfg.SQLitePath)
	log.Println("To use SQLite, set DATABASE_TYPE=sqlite in your .env file")
}

func migrateCountries(ctx context.Context, from, to db.CountryRepository) {
	countries, err := from.FindAll(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch countries: %v", err)
	}

	count := 0
	for _, country := range countries {
		if err := to.Upsert(ctx, country); err != nil {
			log.Printf("Failed to store country %s in SQLite: %v", country.CCA3, err)
			continue
		}
		count++
	}
	log.Printf("Migrated %d countries", count)
}

func migrateRegions(ctx context.Context, from, to db.RegionRepository) {
	rollups, err := from.FindAll(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch region rollups: %v", err)
	}

	count := 0
	for _, rollup := range rollups {
		if err := to.Upsert(ctx, rollup); err != nil {
			log.Printf("Failed to store region %s in SQLite: %v", rollup.Name, err)
			continue
		}
		count++
	}
	log.Printf("Migrated %d region rollups", count)
}

// Travel statuses are read straight from the collection since the
// repository only lists them per user
func migrateTravelStatuses(ctx context.Context, collection *mongo.Collection, to db.TravelStatusRepository) {
	cursor, err := collection.Find(ctx, bson.M{})
	if err != nil {
		log.Fatalf("Failed to fetch travel statuses: %v", err)
	}
	defer cursor.Close(ctx)

	count := 0
	for cursor.Next(ctx) {
		var status models.UserCountryStatus
		if err := cursor.Decode(&status); err != nil {
			log.Printf("Failed to decode travel status: %v", err)
			continue
		}

		if _, err := to.Upsert(ctx, &status); err != nil {
			log.Printf("Failed to store travel status in SQLite: %v", err)
			continue
		}
		count++
	}
	log.Printf("Migrated %d travel statuses", count)
}

func migrateFavorites(ctx context.Context, collection *mongo.Collection, to db.FavoriteRepository) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		log.Fatalf("Failed to fetch favorites: %v", err)
	}
	defer cursor.Close(ctx)

	count := 0
	for cursor.Next(ctx) {
		var favorite models.Favorite
		if err := cursor.Decode(&favorite); err != nil {
			log.Printf("Failed to decode favorite: %v", err)
			continue
		}

		if err := to.Add(ctx, favorite.UserID, favorite.CountryCode); err != nil {
			log.Printf("Failed to store favorite in SQLite: %v", err)
			continue
		}
		count++
	}
	log.Printf("Migrated %d favorites", count)
}
