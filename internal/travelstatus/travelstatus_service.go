package travelstatus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"worldatlas/db"
	"worldatlas/models"

	"go.uber.org/zap"
)

var (
	ErrInvalidInput   = errors.New("invalid travel status")
	ErrLivingConflict = errors.New("another country is already marked as living")
)

// Input is a create-or-update request for one country
type Input struct {
	CountryCode string              `json:"countryCode"`
	Status      models.TravelStatus `json:"status"`
	Note        string              `json:"note"`
	StartDate   *time.Time          `json:"startDate"`
	EndDate     *time.Time          `json:"endDate"`
}

type TravelStatusService struct {
	Statuses  db.TravelStatusRepository
	Countries db.CountryRepository
	logger    *zap.Logger
}

func NewTravelStatusService(statuses db.TravelStatusRepository, countries db.CountryRepository, logger *zap.Logger) *TravelStatusService {
	return &TravelStatusService{
		Statuses:  statuses,
		Countries: countries,
		logger:    logger,
	}
}

// Upsert sets the user's status for a country. A user lives in at most one
// country at a time.
func (s *TravelStatusService) Upsert(ctx context.Context, userID string, in Input) (*models.UserCountryStatus, error) {
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: status must be visited, bucket or living", ErrInvalidInput)
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return nil, fmt.Errorf("%w: endDate is before startDate", ErrInvalidInput)
	}

	code := strings.ToUpper(strings.TrimSpace(in.CountryCode))
	if code == "" {
		return nil, fmt.Errorf("%w: countryCode is required", ErrInvalidInput)
	}
	country, err := s.Countries.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to find country %s: %w", code, err)
	}

	if in.Status == models.TravelStatusLiving {
		living, err := s.Statuses.FindByUserAndStatus(ctx, userID, models.TravelStatusLiving)
		if err != nil {
			return nil, fmt.Errorf("failed to check living status: %w", err)
		}
		for _, l := range living {
			if l.CountryCode != country.CCA3 {
				return nil, fmt.Errorf("%w: %s", ErrLivingConflict, l.CountryCode)
			}
		}
	}

	status, err := s.Statuses.Upsert(ctx, &models.UserCountryStatus{
		UserID:      userID,
		CountryCode: country.CCA3,
		Status:      in.Status,
		Note:        strings.TrimSpace(in.Note),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save travel status: %w", err)
	}

	s.logger.Debug("travel status saved",
		zap.String("user_id", userID),
		zap.String("country", country.CCA3),
		zap.String("status", string(in.Status)))
	return status, nil
}

func (s *TravelStatusService) List(ctx context.Context, userID string) ([]*models.UserCountryStatus, error) {
	statuses, err := s.Statuses.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list travel statuses: %w", err)
	}
	return statuses, nil
}

func (s *TravelStatusService) Get(ctx context.Context, userID, code string) (*models.UserCountryStatus, error) {
	status, err := s.Statuses.FindOne(ctx, userID, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, fmt.Errorf("failed to get travel status: %w", err)
	}
	return status, nil
}

func (s *TravelStatusService) Delete(ctx context.Context, userID, code string) error {
	if err := s.Statuses.Delete(ctx, userID, strings.ToUpper(strings.TrimSpace(code))); err != nil {
		return fmt.Errorf("failed to delete travel status: %w", err)
	}
	return nil
}
