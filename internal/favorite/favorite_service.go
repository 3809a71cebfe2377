package favorite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"worldatlas/db"
	"worldatlas/models"

	"go.uber.org/zap"
)

var ErrInvalidInput = errors.New("invalid favorite")

type FavoriteService struct {
	Favorites db.FavoriteRepository
	Countries db.CountryRepository
	logger    *zap.Logger
}

func NewFavoriteService(favorites db.FavoriteRepository, countries db.CountryRepository, logger *zap.Logger) *FavoriteService {
	return &FavoriteService{
		Favorites: favorites,
		Countries: countries,
		logger:    logger,
	}
}

func normalize(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", fmt.Errorf("%w: country code is required", ErrInvalidInput)
	}
	return code, nil
}

// Add stars a country and returns the user's codes, oldest first. The
// country must exist; cca2 codes are stored as cca3.
func (s *FavoriteService) Add(ctx context.Context, userID, code string) ([]string, error) {
	code, err := normalize(code)
	if err != nil {
		return nil, err
	}
	country, err := s.Countries.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to find country %s: %w", code, err)
	}
	if err := s.Favorites.Add(ctx, userID, country.CCA3); err != nil {
		return nil, fmt.Errorf("failed to add favorite: %w", err)
	}

	s.logger.Debug("favorite added", zap.String("user_id", userID), zap.String("country", country.CCA3))
	return s.Codes(ctx, userID)
}

// Remove unstars a country and returns the remaining codes. Unknown codes
// are removed as given so stale entries can still be cleared.
func (s *FavoriteService) Remove(ctx context.Context, userID, code string) ([]string, error) {
	code, err := normalize(code)
	if err != nil {
		return nil, err
	}
	country, err := s.Countries.FindByCode(ctx, code)
	switch {
	case err == nil:
		code = country.CCA3
	case !errors.Is(err, db.ErrNotFound):
		return nil, fmt.Errorf("failed to find country %s: %w", code, err)
	}
	if err := s.Favorites.Remove(ctx, userID, code); err != nil {
		return nil, fmt.Errorf("failed to remove favorite: %w", err)
	}

	s.logger.Debug("favorite removed", zap.String("user_id", userID), zap.String("country", code))
	return s.Codes(ctx, userID)
}

func (s *FavoriteService) Codes(ctx context.Context, userID string) ([]string, error) {
	codes, err := s.Favorites.FindCodes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return codes, nil
}

// List returns the user's favourite countries in the order they were
// starred. Codes no longer in the catalogue are skipped.
func (s *FavoriteService) List(ctx context.Context, userID string) ([]*models.Country, error) {
	codes, err := s.Codes(ctx, userID)
	if err != nil {
		return nil, err
	}
	found, err := s.Countries.FindByCodes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorite countries: %w", err)
	}

	byCode := make(map[string]*models.Country, len(found))
	for _, c := range found {
		byCode[c.CCA3] = c
	}
	countries := make([]*models.Country, 0, len(codes))
	for _, code := range codes {
		if c, ok := byCode[code]; ok {
			countries = append(countries, c)
		}
	}
	return countries, nil
}
