package routestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cellway/cellway/internal/api/models"
	"github.com/cellway/cellway/internal/geo"
	"github.com/cellway/cellway/internal/routing"
)

// Service errors.
var (
	ErrNotAuthorized = errors.New("not authorized to access this saved route")
)

// Validation constants.
const (
	MaxEndpointNameLength = 120
	MaxImageDataURLLength = 256 * 1024
)

// SaveRequest is the input for saving a route.
type SaveRequest struct {
	OriginName      string
	Origin          geo.Point
	DestinationName string
	Destination     geo.Point
	Kind            string
	Geometry        []geo.Point
	DistanceMeters  float64
	DurationSeconds float64
	SignalScore     float64
	HasAlternatives bool
	ImageDataURL    *string
}

// Service provides saved route operations.
type Service struct {
	repo Repository
}

// NewService creates a new saved route service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Save stores a route for a user. When the user is at the cap, the
// oldest saved route is evicted first.
func (s *Service) Save(ctx context.Context, userID string, input *SaveRequest) (*SavedRoute, error) {
	if fieldErrors := s.validateSaveInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	kind, err := routing.ParseKind(input.Kind)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for count >= MaxSavedRoutesPerUser {
		if err := s.repo.DeleteOldest(ctx, userID); err != nil {
			return nil, err
		}
		count--
	}

	route := &SavedRoute{
		ID:     "rt_" + uuid.New().String()[:22],
		UserID: userID,
		Origin: Endpoint{
			Name:  strings.TrimSpace(input.OriginName),
			Point: input.Origin,
		},
		Destination: Endpoint{
			Name:  strings.TrimSpace(input.DestinationName),
			Point: input.Destination,
		},
		Kind:            kind,
		Geometry:        input.Geometry,
		DistanceMeters:  input.DistanceMeters,
		DurationSeconds: input.DurationSeconds,
		SignalScore:     input.SignalScore,
		HasAlternatives: input.HasAlternatives,
		ImageDataURL:    input.ImageDataURL,
		CreatedAt:       time.Now(),
	}

	if err := s.repo.Create(ctx, route); err != nil {
		return nil, err
	}
	return route, nil
}

// List retrieves a user's saved routes, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*SavedRoute, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get retrieves a saved route by ID for a user.
func (s *Service) Get(ctx context.Context, userID, routeID string) (*SavedRoute, error) {
	return s.repo.GetByUserAndID(ctx, userID, routeID)
}

// Delete deletes a saved route for a user.
func (s *Service) Delete(ctx context.Context, userID, routeID string) error {
	// Verify ownership
	if _, err := s.repo.GetByUserAndID(ctx, userID, routeID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, routeID)
}

// validateSaveInput validates the save route input.
func (s *Service) validateSaveInput(input *SaveRequest) []models.FieldError {
	var errs []models.FieldError

	if strings.TrimSpace(input.OriginName) == "" {
		errs = append(errs, models.FieldError{Field: "origin.name", Message: "is required"})
	} else if len(input.OriginName) > MaxEndpointNameLength {
		errs = append(errs, models.FieldError{Field: "origin.name", Message: "must be at most 120 characters"})
	}

	if strings.TrimSpace(input.DestinationName) == "" {
		errs = append(errs, models.FieldError{Field: "destination.name", Message: "is required"})
	} else if len(input.DestinationName) > MaxEndpointNameLength {
		errs = append(errs, models.FieldError{Field: "destination.name", Message: "must be at most 120 characters"})
	}

	errs = append(errs, validatePoint(input.Origin, "origin.point")...)
	errs = append(errs, validatePoint(input.Destination, "destination.point")...)

	if input.Kind == "" {
		errs = append(errs, models.FieldError{Field: "kind", Message: "is required"})
	} else if _, err := routing.ParseKind(input.Kind); err != nil {
		errs = append(errs, models.FieldError{Field: "kind", Message: "must be one of fastest, cell_coverage, balanced"})
	}

	if len(input.Geometry) < 2 {
		errs = append(errs, models.FieldError{Field: "geometry", Message: "must contain at least 2 points"})
	}

	if input.DistanceMeters < 0 {
		errs = append(errs, models.FieldError{Field: "distanceMeters", Message: "must not be negative"})
	}
	if input.DurationSeconds < 0 {
		errs = append(errs, models.FieldError{Field: "durationSeconds", Message: "must not be negative"})
	}

	if input.ImageDataURL != nil {
		if !strings.HasPrefix(*input.ImageDataURL, "data:image/") {
			errs = append(errs, models.FieldError{Field: "imageDataUrl", Message: "must be a data:image/ URL"})
		} else if len(*input.ImageDataURL) > MaxImageDataURLLength {
			errs = append(errs, models.FieldError{Field: "imageDataUrl", Message: "must be at most 256KB"})
		}
	}

	return errs
}

// validatePoint validates a coordinate pair.
func validatePoint(p geo.Point, prefix string) []models.FieldError {
	var errs []models.FieldError

	if p.Lat < -90 || p.Lat > 90 {
		errs = append(errs, models.FieldError{
			Field:   prefix + ".lat",
			Message: "must be between -90 and 90",
		})
	}
	if p.Lon < -180 || p.Lon > 180 {
		errs = append(errs, models.FieldError{
			Field:   prefix + ".lon",
			Message: "must be between -180 and 180",
		})
	}

	return errs
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
