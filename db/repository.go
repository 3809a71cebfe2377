package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"worldatlas/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrNotSQLite is returned for SQLite-only features on a Mongo-backed factory
	ErrNotSQLite = errors.New("database is not SQLite")
)

// Repository defines a common interface for all repositories
type Repository interface {
	Close() error
}

// CountryFilter narrows country listings. Zero values mean "no filter".
type CountryFilter struct {
	Region      string
	Subregion   string
	Independent *bool
	Search      string
}

// CountrySort selects the listing order
type CountrySort struct {
	Field string // "name", "population" or "area"
	Desc  bool
}

// CountryRepository defines the interface for country operations
type CountryRepository interface {
	Repository
	FindByCode(ctx context.Context, code string) (*models.Country, error)
	FindByCodes(ctx context.Context, codes []string) ([]*models.Country, error)
	FindAll(ctx context.Context) ([]*models.Country, error)
	List(ctx context.Context, filter CountryFilter, sort CountrySort, skip, limit int) ([]*models.Country, int64, error)
	TopBy(ctx context.Context, field, region string, limit int) ([]*models.Country, error)
	Count(ctx context.Context) (int64, error)
	Upsert(ctx context.Context, country *models.Country) error
	SumByRegion(ctx context.Context) ([]models.RegionTotals, error)
	LanguageCounts(ctx context.Context, codes []string, region string, limit int) ([]models.LanguageCount, error)
}

// RegionRepository defines the interface for region rollup operations
type RegionRepository interface {
	Repository
	FindByName(ctx context.Context, name string) (*models.RegionRollup, error)
	FindAll(ctx context.Context) ([]*models.RegionRollup, error)
	Upsert(ctx context.Context, rollup *models.RegionRollup) error
}

// TravelStatusRepository defines the interface for user travel statuses
type TravelStatusRepository interface {
	Repository
	Upsert(ctx context.Context, status *models.UserCountryStatus) (*models.UserCountryStatus, error)
	FindByUser(ctx context.Context, userID string) ([]*models.UserCountryStatus, error)
	FindByUserAndStatus(ctx context.Context, userID string, status models.TravelStatus) ([]*models.UserCountryStatus, error)
	FindOne(ctx context.Context, userID, countryCode string) (*models.UserCountryStatus, error)
	Delete(ctx context.Context, userID, countryCode string) error
}

// FavoriteRepository defines the interface for a user's favourite countries.
// Add and Remove are idempotent.
type FavoriteRepository interface {
	Repository
	Add(ctx context.Context, userID, countryCode string) error
	Remove(ctx context.Context, userID, countryCode string) error
	FindCodes(ctx context.Context, userID string) ([]string, error)
}

// Collection names used by the Mongo repositories
const (
	CountriesCollection    = "countries"
	RegionsCollection      = "regions"
	TravelStatusCollection = "usercountrystatuses"
	FavoritesCollection    = "favorites"
)

// RepositoryFactory creates repositories based on the database type
type RepositoryFactory struct {
	SQLiteDB    *sql.DB
	MongoClient *mongo.Client
	DBName      string
	Manager     *DBManager
}

// NewRepositoryFactory creates a new repository factory. Exactly one of
// sqliteDB and mongoClient is expected to be non-nil.
func NewRepositoryFactory(sqliteDB *sql.DB, mongoClient *mongo.Client, dbName string) *RepositoryFactory {
	f := &RepositoryFactory{
		SQLiteDB:    sqliteDB,
		MongoClient: mongoClient,
		DBName:      dbName,
	}
	if sqliteDB != nil {
		f.Manager = NewDBManager()
	}
	return f
}

// NewCountryRepository creates a new country repository
func (f *RepositoryFactory) NewCountryRepository() CountryRepository {
	if f.SQLiteDB != nil {
		return NewSQLiteCountryRepository(f.SQLiteDB, f.Manager)
	}
	return NewMongoCountryRepository(f.MongoClient, f.DBName, CountriesCollection)
}

// NewRegionRepository creates a new region rollup repository
func (f *RepositoryFactory) NewRegionRepository() RegionRepository {
	if f.SQLiteDB != nil {
		return NewSQLiteRegionRepository(f.SQLiteDB, f.Manager)
	}
	return NewMongoRegionRepository(f.MongoClient, f.DBName, RegionsCollection)
}

// NewTravelStatusRepository creates a new travel status repository
func (f *RepositoryFactory) NewTravelStatusRepository() TravelStatusRepository {
	if f.SQLiteDB != nil {
		return NewSQLiteTravelStatusRepository(f.SQLiteDB, f.Manager)
	}
	return NewMongoTravelStatusRepository(f.MongoClient, f.DBName, TravelStatusCollection)
}

// NewFavoriteRepository creates a new favourites repository
func (f *RepositoryFactory) NewFavoriteRepository() FavoriteRepository {
	if f.SQLiteDB != nil {
		return NewSQLiteFavoriteRepository(f.SQLiteDB, f.Manager)
	}
	return NewMongoFavoriteRepository(f.MongoClient, f.DBName, FavoritesCollection)
}

// NewCacheRepository creates a SQLite-backed cache store for the named cache
func (f *RepositoryFactory) NewCacheRepository(name string) (*SQLiteCacheRepository, error) {
	if f.SQLiteDB == nil {
		return nil, fmt.Errorf("cache store %s: %w", name, ErrNotSQLite)
	}
	return NewSQLiteCacheRepository(f.SQLiteDB, name, f.Manager), nil
}

// Ping checks the underlying connection
func (f *RepositoryFactory) Ping(ctx context.Context) error {
	if f.SQLiteDB != nil {
		return f.SQLiteDB.PingContext(ctx)
	}
	return f.MongoClient.Ping(ctx, nil)
}

// Backend names the active database type
func (f *RepositoryFactory) Backend() string {
	if f.SQLiteDB != nil {
		return "sqlite"
	}
	return "mongodb"
}

// Close releases the underlying connection and stops the write manager
func (f *RepositoryFactory) Close(ctx context.Context) error {
	if f.Manager != nil {
		f.Manager.Stop()
	}
	if f.SQLiteDB != nil {
		return f.SQLiteDB.Close()
	}
	if f.MongoClient != nil {
		return f.MongoClient.Disconnect(ctx)
	}
	return nil
}
