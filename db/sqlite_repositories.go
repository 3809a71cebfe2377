package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"worldatlas/internal/util"
	"worldatlas/models"
)

// SQLiteCountryRepository implements the CountryRepository interface for SQLite.
// The full document is stored as JSON in the doc column; the remaining
// columns exist for filtering and sorting.
type SQLiteCountryRepository struct {
	db      *sql.DB
	manager *DBManager
}

// NewSQLiteCountryRepository creates a new SQLiteCountryRepository
func NewSQLiteCountryRepository(db *sql.DB, manager *DBManager) *SQLiteCountryRepository {
	return &SQLiteCountryRepository{db: db, manager: manager}
}

// Close is a no-op; the connection is owned by the RepositoryFactory
func (r *SQLiteCountryRepository) Close() error {
	return nil
}

// sortColumns maps public sort fields to columns
var sortColumns = map[string]string{
	"name":       "name_common",
	"population": "population",
	"area":       "area",
}

// searchFieldSep keeps a search term from matching across two fields
const searchFieldSep = "\x1f"

// searchText is the lowercased haystack for name and code search; SQLite's
// LOWER folds ASCII only
func searchText(c *models.Country) string {
	return strings.ToLower(strings.Join([]string{c.Name.Common, c.Name.Official, c.CCA3, c.CCA2}, searchFieldSep))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func scanCountryDocs(rows *sql.Rows) ([]*models.Country, error) {
	defer rows.Close()

	var countries []*models.Country
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("error scanning country: %w", err)
		}
		var country models.Country
		if err := json.Unmarshal([]byte(doc), &country); err != nil {
			return nil, fmt.Errorf("error decoding country document: %w", err)
		}
		countries = append(countries, &country)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating countries: %w", err)
	}

	return countries, nil
}

// placeholders returns "?, ?, ?" for n arguments
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(values []string) []interface{} {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// FindByCode finds a country by its cca3 or cca2 code
func (r *SQLiteCountryRepository) FindByCode(ctx context.Context, code string) (*models.Country, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, `SELECT doc FROM countries WHERE cca3 = ? OR cca2 = ? LIMIT 1`, code, code).Scan(&doc)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding country: %w", err)
	}

	var country models.Country
	if err := json.Unmarshal([]byte(doc), &country); err != nil {
		return nil, fmt.Errorf("error decoding country document: %w", err)
	}
	return &country, nil
}

// FindByCodes finds every country whose cca3 is in codes. Unknown codes are skipped.
func (r *SQLiteCountryRepository) FindByCodes(ctx context.Context, codes []string) ([]*models.Country, error) {
	if len(codes) == 0 {
		return []*models.Country{}, nil
	}

	query := `SELECT doc FROM countries WHERE cca3 IN (` + placeholders(len(codes)) + `) ORDER BY cca3`
	rows, err := r.db.QueryContext(ctx, query, stringArgs(codes)...)
	if err != nil {
		return nil, fmt.Errorf("error querying countries by code: %w", err)
	}
	return scanCountryDocs(rows)
}

// FindAll returns every country ordered by cca3
func (r *SQLiteCountryRepository) FindAll(ctx context.Context) ([]*models.Country, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT doc FROM countries ORDER BY cca3`)
	if err != nil {
		return nil, fmt.Errorf("error querying countries: %w", err)
	}
	return scanCountryDocs(rows)
}

func countryWhere(filter CountryFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if filter.Region != "" {
		clauses = append(clauses, "region = ?")
		args = append(args, filter.Region)
	}
	if filter.Subregion != "" {
		clauses = append(clauses, "subregion = ?")
		args = append(args, filter.Subregion)
	}
	if filter.Independent != nil {
		clauses = append(clauses, "independent = ?")
		args = append(args, *filter.Independent)
	}
	if filter.Search != "" {
		clauses = append(clauses, `search_text LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(filter.Search))+"%")
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// List returns one page of countries matching filter, plus the total match count
func (r *SQLiteCountryRepository) List(ctx context.Context, filter CountryFilter, sort CountrySort, skip, limit int) ([]*models.Country, int64, error) {
	where, args := countryWhere(filter)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM countries`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting countries: %w", err)
	}

	column, ok := sortColumns[sort.Field]
	if !ok {
		column = "name_common"
	}
	direction := "ASC"
	if sort.Desc {
		direction = "DESC"
	}

	query := fmt.Sprintf(`SELECT doc FROM countries%s ORDER BY %s %s, cca3 ASC LIMIT ? OFFSET ?`, where, column, direction)
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, skip)...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing countries: %w", err)
	}
	countries, err := scanCountryDocs(rows)
	if err != nil {
		return nil, 0, err
	}

	return countries, total, nil
}

// TopBy returns the limit largest countries by field ("population" or
// "area"), optionally restricted to a region
func (r *SQLiteCountryRepository) TopBy(ctx context.Context, field, region string, limit int) ([]*models.Country, error) {
	if field != "population" && field != "area" {
		return nil, fmt.Errorf("unsupported sort field %q", field)
	}

	where, args := countryWhere(CountryFilter{Region: region})
	query := fmt.Sprintf(`SELECT doc FROM countries%s ORDER BY %s DESC, cca3 ASC LIMIT ?`, where, field)
	rows, err := r.db.QueryContext(ctx, query, append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("error querying top countries: %w", err)
	}
	return scanCountryDocs(rows)
}

// Count returns the number of stored countries
func (r *SQLiteCountryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM countries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting countries: %w", err)
	}
	return count, nil
}

// Upsert creates or replaces a country, keeping its original creation time
func (r *SQLiteCountryRepository) Upsert(ctx context.Context, country *models.Country) error {
	return r.manager.ExecuteOperation(func() error {
		return util.RetryOnLock(func() error {
			now := time.Now().UTC()
			country.UpdatedAt = now

			var createdAt time.Time
			err := r.db.QueryRowContext(ctx, `SELECT created_at FROM countries WHERE cca3 = ?`, country.CCA3).Scan(&createdAt)
			switch {
			case err == sql.ErrNoRows:
				if country.CreatedAt.IsZero() {
					country.CreatedAt = now
				}
			case err != nil:
				return fmt.Errorf("error checking existing country: %w", err)
			default:
				country.CreatedAt = createdAt
			}

			doc, err := json.Marshal(country)
			if err != nil {
				return fmt.Errorf("error encoding country: %w", err)
			}

			_, err = r.db.ExecContext(ctx, `
			INSERT INTO countries (cca3, cca2, name_common, name_official, search_text, region, subregion, independent, population, area, doc, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(cca3) DO UPDATE SET
				cca2 = excluded.cca2, name_common = excluded.name_common, name_official = excluded.name_official,
				search_text = excluded.search_text,
				region = excluded.region, subregion = excluded.subregion, independent = excluded.independent,
				population = excluded.population, area = excluded.area, doc = excluded.doc, updated_at = excluded.updated_at`,
				country.CCA3, country.CCA2, country.Name.Common, country.Name.Official, searchText(country),
				country.Region, country.Subregion, country.Independent,
				country.Population.Value, country.Area, string(doc),
				country.CreatedAt, country.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("error upserting country: %w", err)
			}
			return nil
		})
	})
}

// SumByRegion groups countries by region with population and area totals
// and the member codes of each group
func (r *SQLiteCountryRepository) SumByRegion(ctx context.Context) ([]models.RegionTotals, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT region, SUM(population), SUM(area), json_group_array(cca3)
	FROM countries
	GROUP BY region
	ORDER BY region`)
	if err != nil {
		return nil, fmt.Errorf("error aggregating regions: %w", err)
	}
	defer rows.Close()

	var totals []models.RegionTotals
	for rows.Next() {
		var t models.RegionTotals
		var codes string
		if err := rows.Scan(&t.Region, &t.TotalPopulation, &t.TotalArea, &codes); err != nil {
			return nil, fmt.Errorf("error scanning region totals: %w", err)
		}
		if err := json.Unmarshal([]byte(codes), &t.Codes); err != nil {
			return nil, fmt.Errorf("error decoding region members: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating region totals: %w", err)
	}

	return totals, nil
}

// LanguageCounts counts language names across the countries in codes,
// optionally restricted to a region, most spoken first
func (r *SQLiteCountryRepository) LanguageCounts(ctx context.Context, codes []string, region string, limit int) ([]models.LanguageCount, error) {
	var clauses []string
	var args []interface{}
	if len(codes) > 0 {
		clauses = append(clauses, "c.cca3 IN ("+placeholders(len(codes))+")")
		args = append(args, stringArgs(codes)...)
	}
	if region != "" {
		clauses = append(clauses, "c.region = ?")
		args = append(args, region)
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	query := `
	SELECT l.value AS language, COUNT(*) AS count
	FROM countries c, json_each(c.doc, '$.languages') l` + where + `
	GROUP BY l.value
	ORDER BY count DESC, language ASC
	LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("error counting languages: %w", err)
	}
	defer rows.Close()

	counts := []models.LanguageCount{}
	for rows.Next() {
		var lc models.LanguageCount
		if err := rows.Scan(&lc.Language, &lc.Count); err != nil {
			return nil, fmt.Errorf("error scanning language count: %w", err)
		}
		counts = append(counts, lc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating language counts: %w", err)
	}

	return counts, nil
}

// SQLiteRegionRepository implements the RegionRepository interface for SQLite
type SQLiteRegionRepository struct {
	db      *sql.DB
	manager *DBManager
}

// NewSQLiteRegionRepository creates a new SQLiteRegionRepository
func NewSQLiteRegionRepository(db *sql.DB, manager *DBManager) *SQLiteRegionRepository {
	return &SQLiteRegionRepository{db: db, manager: manager}
}

// Close is a no-op; the connection is owned by the RepositoryFactory
func (r *SQLiteRegionRepository) Close() error {
	return nil
}

const regionColumns = `name, total_population, total_area, average_population_density, country_count, territory_count, last_aggregated_at`

func scanRegion(scan func(dest ...interface{}) error) (*models.RegionRollup, error) {
	var rollup models.RegionRollup
	err := scan(&rollup.Name, &rollup.TotalPopulation, &rollup.TotalArea, &rollup.AveragePopulationDensity,
		&rollup.CountryCount, &rollup.TerritoryCount, &rollup.LastAggregatedAt)
	if err != nil {
		return nil, err
	}
	return &rollup, nil
}

// FindByName finds a region rollup by name
func (r *SQLiteRegionRepository) FindByName(ctx context.Context, name string) (*models.RegionRollup, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+regionColumns+` FROM regions WHERE name = ?`, name)
	rollup, err := scanRegion(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning region: %w", err)
	}
	return rollup, nil
}

// FindAll returns every region rollup ordered by name
func (r *SQLiteRegionRepository) FindAll(ctx context.Context) ([]*models.RegionRollup, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+regionColumns+` FROM regions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("error querying regions: %w", err)
	}
	defer rows.Close()

	var rollups []*models.RegionRollup
	for rows.Next() {
		rollup, err := scanRegion(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("error scanning region: %w", err)
		}
		rollups = append(rollups, rollup)
	}
	return rollups, rows.Err()
}

// Upsert creates or replaces the rollup with the same name
func (r *SQLiteRegionRepository) Upsert(ctx context.Context, rollup *models.RegionRollup) error {
	return r.manager.ExecuteOperation(func() error {
		return util.RetryOnLock(func() error {
			_, err := r.db.ExecContext(ctx, `
			INSERT INTO regions (`+regionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				total_population = excluded.total_population, total_area = excluded.total_area,
				average_population_density = excluded.average_population_density,
				country_count = excluded.country_count, territory_count = excluded.territory_count,
				last_aggregated_at = excluded.last_aggregated_at`,
				rollup.Name, rollup.TotalPopulation, rollup.TotalArea, rollup.AveragePopulationDensity,
				rollup.CountryCount, rollup.TerritoryCount, rollup.LastAggregatedAt,
			)
			if err != nil {
				return fmt.Errorf("error upserting region %s: %w", rollup.Name, err)
			}
			return nil
		})
	})
}

// SQLiteTravelStatusRepository implements the TravelStatusRepository interface for SQLite
type SQLiteTravelStatusRepository struct {
	db      *sql.DB
	manager *DBManager
}

// NewSQLiteTravelStatusRepository creates a new SQLiteTravelStatusRepository
func NewSQLiteTravelStatusRepository(db *sql.DB, manager *DBManager) *SQLiteTravelStatusRepository {
	return &SQLiteTravelStatusRepository{db: db, manager: manager}
}

// Close is a no-op; the connection is owned by the RepositoryFactory
func (r *SQLiteTravelStatusRepository) Close() error {
	return nil
}

const travelStatusColumns = `user_id, country_code, status, note, start_date, end_date, created_at, updated_at`

func scanTravelStatus(scan func(dest ...interface{}) error) (*models.UserCountryStatus, error) {
	var status models.UserCountryStatus
	var startDate, endDate sql.NullTime

	err := scan(&status.UserID, &status.CountryCode, &status.Status, &status.Note,
		&startDate, &endDate, &status.CreatedAt, &status.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if startDate.Valid {
		status.StartDate = &startDate.Time
	}
	if endDate.Valid {
		status.EndDate = &endDate.Time
	}
	return &status, nil
}

func (r *SQLiteTravelStatusRepository) query(ctx context.Context, where string, args ...interface{}) ([]*models.UserCountryStatus, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+travelStatusColumns+` FROM travel_statuses WHERE `+where+` ORDER BY created_at, country_code`, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying travel statuses: %w", err)
	}
	defer rows.Close()

	statuses := []*models.UserCountryStatus{}
	for rows.Next() {
		status, err := scanTravelStatus(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("error scanning travel status: %w", err)
		}
		statuses = append(statuses, status)
	}
	return statuses, rows.Err()
}

// FindByUser returns every status of a user, oldest first
func (r *SQLiteTravelStatusRepository) FindByUser(ctx context.Context, userID string) ([]*models.UserCountryStatus, error) {
	return r.query(ctx, `user_id = ?`, userID)
}

// FindByUserAndStatus returns a user's entries with the given status, oldest first
func (r *SQLiteTravelStatusRepository) FindByUserAndStatus(ctx context.Context, userID string, status models.TravelStatus) ([]*models.UserCountryStatus, error) {
	return r.query(ctx, `user_id = ? AND status = ?`, userID, string(status))
}

// FindOne returns the status of one country for a user
func (r *SQLiteTravelStatusRepository) FindOne(ctx context.Context, userID, countryCode string) (*models.UserCountryStatus, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+travelStatusColumns+` FROM travel_statuses WHERE user_id = ? AND country_code = ?`, userID, countryCode)
	status, err := scanTravelStatus(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning travel status: %w", err)
	}
	return status, nil
}

// Upsert creates or replaces the (user, country) entry and returns the stored row
func (r *SQLiteTravelStatusRepository) Upsert(ctx context.Context, status *models.UserCountryStatus) (*models.UserCountryStatus, error) {
	err := r.manager.ExecuteOperation(func() error {
		return util.RetryOnLock(func() error {
			now := time.Now().UTC()
			status.UpdatedAt = now

			var createdAt time.Time
			err := r.db.QueryRowContext(ctx, `SELECT created_at FROM travel_statuses WHERE user_id = ? AND country_code = ?`,
				status.UserID, status.CountryCode).Scan(&createdAt)
			switch {
			case err == sql.ErrNoRows:
				status.CreatedAt = now
			case err != nil:
				return fmt.Errorf("error checking existing travel status: %w", err)
			default:
				status.CreatedAt = createdAt
			}

			_, err = r.db.ExecContext(ctx, `
			INSERT INTO travel_statuses (`+travelStatusColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id, country_code) DO UPDATE SET
				status = excluded.status, note = excluded.note, start_date = excluded.start_date,
				end_date = excluded.end_date, updated_at = excluded.updated_at`,
				status.UserID, status.CountryCode, string(status.Status), status.Note,
				nullableTime(status.StartDate), nullableTime(status.EndDate),
				status.CreatedAt, status.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("error upserting travel status: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

// Delete removes the (user, country) entry
func (r *SQLiteTravelStatusRepository) Delete(ctx context.Context, userID, countryCode string) error {
	return r.manager.ExecuteOperation(func() error {
		return util.RetryOnLock(func() error {
			result, err := r.db.ExecContext(ctx, `DELETE FROM travel_statuses WHERE user_id = ? AND country_code = ?`, userID, countryCode)
			if err != nil {
				return fmt.Errorf("error deleting travel status: %w", err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if affected == 0 {
				return ErrNotFound
			}
			return nil
		})
	})
}

// SQLiteFavoriteRepository implements the FavoriteRepository interface for SQLite
type SQLiteFavoriteRepository struct {
	db      *sql.DB
	manager *DBManager
}

// NewSQLiteFavoriteRepository creates a new SQLiteFavoriteRepository
func NewSQLiteFavoriteRepository(db *sql.DB, manager *DBManager) *SQLiteFavoriteRepository {
	return &SQLiteFavoriteRepository{db: db, manager: manager}
}

// Close is a no-op; the connection is owned by the RepositoryFactory
func (r *SQLiteFavoriteRepository) Close() error {
	return nil
}

// Add stars a country for the user, keeping the original timestamp when it
// is already starred
func (r *SQLiteFavoriteRepository) Add(ctx context.Context, userID, countryCode string) error {
	return r.manager.ExecuteOperation(func() error {
		return util.RetryOnLock(func() error {
			_, err := r.db.ExecContext(ctx, `
			INSERT INTO favorites (user_id, country_code, created_at) VALUES (?, ?, ?)
			ON CONFLICT(user_id, country_code) DO NOTHING`,
				userID, countryCode, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("error adding favorite: %w", err)
			}
			return nil
		})
	})
}

// Remove unstars a country; removing one that is not starred is not an error
func (r *SQLiteFavoriteRepository) Remove(ctx context.Context, userID, countryCode string) error {
	return r.manager.ExecuteOperation(func() error {
		return util.RetryOnLock(func() error {
			if _, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = ? AND country_code = ?`, userID, countryCode); err != nil {
				return fmt.Errorf("error removing favorite: %w", err)
			}
			return nil
		})
	})
}

// FindCodes returns the user's starred country codes, oldest first
func (r *SQLiteFavoriteRepository) FindCodes(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT country_code FROM favorites WHERE user_id = ? ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying favorites: %w", err)
	}
	defer rows.Close()

	codes := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("error scanning favorite: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
