package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
	"worldatlas/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCountryRepository implements the CountryRepository interface for MongoDB
type MongoCountryRepository struct {
	client     *mongo.Client
	database   string
	collection string
}

// NewMongoCountryRepository creates a new MongoCountryRepository
func NewMongoCountryRepository(client *mongo.Client, database, collection string) *MongoCountryRepository {
	return &MongoCountryRepository{
		client:     client,
		database:   database,
		collection: collection,
	}
}

// Close is a no-op; the client is owned by the RepositoryFactory
func (r *MongoCountryRepository) Close() error {
	return nil
}

func (r *MongoCountryRepository) coll() *mongo.Collection {
	return r.client.Database(r.database).Collection(r.collection)
}

var mongoSortFields = map[string]string{
	"name":       "name.common",
	"population": "population.value",
	"area":       "area",
}

func decodeCountries(ctx context.Context, cursor *mongo.Cursor) ([]*models.Country, error) {
	defer cursor.Close(ctx)

	countries := []*models.Country{}
	if err := cursor.All(ctx, &countries); err != nil {
		return nil, fmt.Errorf("error decoding countries: %w", err)
	}
	return countries, nil
}

// FindByCode finds a country by its cca3 or cca2 code
func (r *MongoCountryRepository) FindByCode(ctx context.Context, code string) (*models.Country, error) {
	var country models.Country
	filter := bson.M{"$or": bson.A{bson.M{"cca3": code}, bson.M{"cca2": code}}}
	err := r.coll().FindOne(ctx, filter).Decode(&country)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding country: %w", err)
	}
	return &country, nil
}

// FindByCodes finds every country whose cca3 is in codes. Unknown codes are skipped.
func (r *MongoCountryRepository) FindByCodes(ctx context.Context, codes []string) ([]*models.Country, error) {
	if len(codes) == 0 {
		return []*models.Country{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "cca3", Value: 1}})
	cursor, err := r.coll().Find(ctx, bson.M{"cca3": bson.M{"$in": codes}}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding countries by code: %w", err)
	}
	return decodeCountries(ctx, cursor)
}

// FindAll returns every country ordered by cca3
func (r *MongoCountryRepository) FindAll(ctx context.Context) ([]*models.Country, error) {
	opts := options.Find().SetSort(bson.D{{Key: "cca3", Value: 1}})
	cursor, err := r.coll().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding countries: %w", err)
	}
	return decodeCountries(ctx, cursor)
}

func mongoCountryFilter(filter CountryFilter) bson.M {
	query := bson.M{}
	if filter.Region != "" {
		query["region"] = filter.Region
	}
	if filter.Subregion != "" {
		query["subregion"] = filter.Subregion
	}
	if filter.Independent != nil {
		query["independent"] = *filter.Independent
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name.common": pattern},
			bson.M{"name.official": pattern},
			bson.M{"cca3": pattern},
			bson.M{"cca2": pattern},
		}
	}
	return query
}

// List returns one page of countries matching filter, plus the total match count
func (r *MongoCountryRepository) List(ctx context.Context, filter CountryFilter, sort CountrySort, skip, limit int) ([]*models.Country, int64, error) {
	query := mongoCountryFilter(filter)

	total, err := r.coll().CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting countries: %w", err)
	}

	field, ok := mongoSortFields[sort.Field]
	if !ok {
		field = "name.common"
	}
	direction := 1
	if sort.Desc {
		direction = -1
	}

	opts := options.Find().
		SetSort(bson.D{{Key: field, Value: direction}, {Key: "cca3", Value: 1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	cursor, err := r.coll().Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing countries: %w", err)
	}
	countries, err := decodeCountries(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}

	return countries, total, nil
}

// TopBy returns the limit largest countries by field ("population" or
// "area"), optionally restricted to a region
func (r *MongoCountryRepository) TopBy(ctx context.Context, field, region string, limit int) ([]*models.Country, error) {
	if field != "population" && field != "area" {
		return nil, fmt.Errorf("unsupported sort field %q", field)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: mongoSortFields[field], Value: -1}, {Key: "cca3", Value: 1}}).
		SetLimit(int64(limit))
	cursor, err := r.coll().Find(ctx, mongoCountryFilter(CountryFilter{Region: region}), opts)
	if err != nil {
		return nil, fmt.Errorf("error finding top countries: %w", err)
	}
	return decodeCountries(ctx, cursor)
}

// Count returns the number of stored countries
func (r *MongoCountryRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.coll().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("error counting countries: %w", err)
	}
	return count, nil
}

// Upsert creates or replaces a country, keeping its original creation time
func (r *MongoCountryRepository) Upsert(ctx context.Context, country *models.Country) error {
	now := time.Now().UTC()
	country.UpdatedAt = now
	if country.CreatedAt.IsZero() {
		country.CreatedAt = now
	}

	raw, err := bson.Marshal(country)
	if err != nil {
		return fmt.Errorf("error encoding country: %w", err)
	}
	var set bson.M
	if err := bson.Unmarshal(raw, &set); err != nil {
		return fmt.Errorf("error encoding country: %w", err)
	}
	delete(set, "createdAt")

	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"createdAt": country.CreatedAt},
	}
	_, err = r.coll().UpdateOne(ctx, bson.M{"cca3": country.CCA3}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("error upserting country: %w", err)
	}
	return nil
}

// SumByRegion groups countries by region with population and area totals
// and the member codes of each group
func (r *MongoCountryRepository) SumByRegion(ctx context.Context) ([]models.RegionTotals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$region"},
			{Key: "totalPopulation", Value: bson.D{{Key: "$sum", Value: "$population.value"}}},
			{Key: "totalArea", Value: bson.D{{Key: "$sum", Value: "$area"}}},
			{Key: "codes", Value: bson.D{{Key: "$push", Value: "$cca3"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cursor, err := r.coll().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating regions: %w", err)
	}
	defer cursor.Close(ctx)

	var totals []models.RegionTotals
	if err := cursor.All(ctx, &totals); err != nil {
		return nil, fmt.Errorf("error decoding region totals: %w", err)
	}
	return totals, nil
}

// LanguageCounts counts language names across the countries in codes,
// optionally restricted to a region, most spoken first
func (r *MongoCountryRepository) LanguageCounts(ctx context.Context, codes []string, region string, limit int) ([]models.LanguageCount, error) {
	match := bson.D{}
	if len(codes) > 0 {
		match = append(match, bson.E{Key: "cca3", Value: bson.D{{Key: "$in", Value: codes}}})
	}
	if region != "" {
		match = append(match, bson.E{Key: "region", Value: region})
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$project", Value: bson.D{
			{Key: "languages", Value: bson.D{{Key: "$objectToArray", Value: bson.D{
				{Key: "$ifNull", Value: bson.A{"$languages", bson.D{}}},
			}}}},
		}}},
		{{Key: "$unwind", Value: "$languages"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$languages.v"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := r.coll().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error counting languages: %w", err)
	}
	defer cursor.Close(ctx)

	counts := []models.LanguageCount{}
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("error decoding language counts: %w", err)
	}
	return counts, nil
}

// MongoRegionRepository implements the RegionRepository interface for MongoDB
type MongoRegionRepository struct {
	client     *mongo.Client
	database   string
	collection string
}

// NewMongoRegionRepository creates a new MongoRegionRepository
func NewMongoRegionRepository(client *mongo.Client, database, collection string) *MongoRegionRepository {
	return &MongoRegionRepository{
		client:     client,
		database:   database,
		collection: collection,
	}
}

// Close is a no-op; the client is owned by the RepositoryFactory
func (r *MongoRegionRepository) Close() error {
	return nil
}

func (r *MongoRegionRepository) coll() *mongo.Collection {
	return r.client.Database(r.database).Collection(r.collection)
}

// FindByName finds a region rollup by name
func (r *MongoRegionRepository) FindByName(ctx context.Context, name string) (*models.RegionRollup, error) {
	var rollup models.RegionRollup
	err := r.coll().FindOne(ctx, bson.M{"name": name}).Decode(&rollup)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding region: %w", err)
	}
	return &rollup, nil
}

// FindAll returns every region rollup ordered by name
func (r *MongoRegionRepository) FindAll(ctx context.Context) ([]*models.RegionRollup, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.coll().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding regions: %w", err)
	}
	defer cursor.Close(ctx)

	var rollups []*models.RegionRollup
	if err := cursor.All(ctx, &rollups); err != nil {
		return nil, fmt.Errorf("error decoding regions: %w", err)
	}
	return rollups, nil
}

// Upsert creates or replaces the rollup with the same name
func (r *MongoRegionRepository) Upsert(ctx context.Context, rollup *models.RegionRollup) error {
	opts := options.Update().SetUpsert(true)
	_, err := r.coll().UpdateOne(ctx, bson.M{"name": rollup.Name}, bson.M{"$set": rollup}, opts)
	if err != nil {
		return fmt.Errorf("error upserting region %s: %w", rollup.Name, err)
	}
	return nil
}

// MongoTravelStatusRepository implements the TravelStatusRepository interface for MongoDB
type MongoTravelStatusRepository struct {
	client     *mongo.Client
	database   string
	collection string
}

// NewMongoTravelStatusRepository creates a new MongoTravelStatusRepository
func NewMongoTravelStatusRepository(client *mongo.Client, database, collection string) *MongoTravelStatusRepository {
	return &MongoTravelStatusRepository{
		client:     client,
		database:   database,
		collection: collection,
	}
}

// Close is a no-op; the client is owned by the RepositoryFactory
func (r *MongoTravelStatusRepository) Close() error {
	return nil
}

func (r *MongoTravelStatusRepository) coll() *mongo.Collection {
	return r.client.Database(r.database).Collection(r.collection)
}

func (r *MongoTravelStatusRepository) find(ctx context.Context, filter bson.M) ([]*models.UserCountryStatus, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "countryCode", Value: 1}})
	cursor, err := r.coll().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding travel statuses: %w", err)
	}
	defer cursor.Close(ctx)

	statuses := []*models.UserCountryStatus{}
	if err := cursor.All(ctx, &statuses); err != nil {
		return nil, fmt.Errorf("error decoding travel statuses: %w", err)
	}
	return statuses, nil
}

// FindByUser returns every status of a user, oldest first
func (r *MongoTravelStatusRepository) FindByUser(ctx context.Context, userID string) ([]*models.UserCountryStatus, error) {
	return r.find(ctx, bson.M{"userId": userID})
}

// FindByUserAndStatus returns a user's entries with the given status, oldest first
func (r *MongoTravelStatusRepository) FindByUserAndStatus(ctx context.Context, userID string, status models.TravelStatus) ([]*models.UserCountryStatus, error) {
	return r.find(ctx, bson.M{"userId": userID, "status": status})
}

// FindOne returns the status of one country for a user
func (r *MongoTravelStatusRepository) FindOne(ctx context.Context, userID, countryCode string) (*models.UserCountryStatus, error) {
	var status models.UserCountryStatus
	err := r.coll().FindOne(ctx, bson.M{"userId": userID, "countryCode": countryCode}).Decode(&status)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding travel status: %w", err)
	}
	return &status, nil
}

// Upsert creates or replaces the (user, country) entry and returns the stored document
func (r *MongoTravelStatusRepository) Upsert(ctx context.Context, status *models.UserCountryStatus) (*models.UserCountryStatus, error) {
	now := time.Now().UTC()

	set := bson.M{
		"status":    status.Status,
		"note":      status.Note,
		"startDate": status.StartDate,
		"endDate":   status.EndDate,
		"updatedAt": now,
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.UserCountryStatus
	err := r.coll().FindOneAndUpdate(ctx, bson.M{"userId": status.UserID, "countryCode": status.CountryCode}, update, opts).Decode(&stored)
	if err != nil {
		return nil, fmt.Errorf("error upserting travel status: %w", err)
	}
	return &stored, nil
}

// Delete removes the (user, country) entry
func (r *MongoTravelStatusRepository) Delete(ctx context.Context, userID, countryCode string) error {
	result, err := r.coll().DeleteOne(ctx, bson.M{"userId": userID, "countryCode": countryCode})
	if err != nil {
		return fmt.Errorf("error deleting travel status: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MongoFavoriteRepository implements the FavoriteRepository interface for MongoDB
type MongoFavoriteRepository struct {
	client     *mongo.Client
	database   string
	collection string
}

// NewMongoFavoriteRepository creates a new MongoFavoriteRepository
func NewMongoFavoriteRepository(client *mongo.Client, database, collection string) *MongoFavoriteRepository {
	return &MongoFavoriteRepository{
		client:     client,
		database:   database,
		collection: collection,
	}
}

// Close is a no-op; the client is owned by the RepositoryFactory
func (r *MongoFavoriteRepository) Close() error {
	return nil
}

func (r *MongoFavoriteRepository) coll() *mongo.Collection {
	return r.client.Database(r.database).Collection(r.collection)
}

// Add stars a country for the user, keeping the original timestamp when it
// is already starred
func (r *MongoFavoriteRepository) Add(ctx context.Context, userID, countryCode string) error {
	filter := bson.M{"userId": userID, "countryCode": countryCode}
	update := bson.M{"$setOnInsert": bson.M{"createdAt": time.Now().UTC()}}
	if _, err := r.coll().UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("error adding favorite: %w", err)
	}
	return nil
}

// Remove unstars a country; removing one that is not starred is not an error
func (r *MongoFavoriteRepository) Remove(ctx context.Context, userID, countryCode string) error {
	if _, err := r.coll().DeleteOne(ctx, bson.M{"userId": userID, "countryCode": countryCode}); err != nil {
		return fmt.Errorf("error removing favorite: %w", err)
	}
	return nil
}

// FindCodes returns the user's starred country codes, oldest first
func (r *MongoFavoriteRepository) FindCodes(ctx context.Context, userID string) ([]string, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll().Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding favorites: %w", err)
	}
	defer cursor.Close(ctx)

	var favorites []models.Favorite
	if err := cursor.All(ctx, &favorites); err != nil {
		return nil, fmt.Errorf("error decoding favorites: %w", err)
	}
	codes := make([]string, len(favorites))
	for i, f := range favorites {
		codes[i] = f.CountryCode
	}
	return codes, nil
}
