package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sabohub/internal/apperr"
	"sabohub/internal/geo"
	"sabohub/internal/models"
)

const (
	DefaultRecentLimit = 50
	MaxRecentLimit     = 500
)

// Movement thresholds for annotating pings. Pings are always stored; these
// only decide event_type and is_moving.
const (
	minDistanceForMove   = 5.0  // meters
	minSecondsForChange  = 10.0 // seconds
	minSpeedForMoving    = 0.5  // m/s
	maxSpeedForStopped   = 1.0  // m/s
	periodicPingInterval = 60 * time.Second
)

// LocationInput is one device position report.
type LocationInput struct {
	JourneyPlanID *uint      `json:"journey_plan_id"`
	ClientPingID  *uuid.UUID `json:"client_ping_id"`
	Latitude      float64    `json:"latitude"`
	Longitude     float64    `json:"longitude"`
	Accuracy      *float64   `json:"accuracy"`
	Altitude      *float64   `json:"altitude"`
	Speed         *float64   `json:"speed"`
	Heading       *float64   `json:"heading"`
	BatteryLevel  *int       `json:"battery_level"`
	NetworkType   string     `json:"network_type"`
}

// Publisher fans saved pings out to live subscribers.
type Publisher interface {
	PublishLocation(companyID uuid.UUID, ping models.LocationPing)
}

// LocationService stores the append-only ping stream of each rep.
type LocationService struct {
	locations LocationRepository
	journeys  JourneyRepository
	publisher Publisher
	now       func() time.Time
}

func NewLocationService(locations LocationRepository, journeys JourneyRepository, publisher Publisher) *LocationService {
	return &LocationService{locations: locations, journeys: journeys, publisher: publisher, now: time.Now}
}

// Record stores one ping for the calling rep. A retried ping carrying an
// already stored client_ping_id returns the stored row instead of a duplicate.
func (s *LocationService) Record(ctx context.Context, actor Actor, in LocationInput) (*models.LocationPing, error) {
	pt := geo.Point{Lat: in.Latitude, Lng: in.Longitude}
	if !pt.Valid() {
		return nil, apperr.Validation("coordinates out of range")
	}
	if in.BatteryLevel != nil && (*in.BatteryLevel < 0 || *in.BatteryLevel > 100) {
		return nil, apperr.Validation("battery_level must be between 0 and 100")
	}
	if in.JourneyPlanID != nil {
		plan, err := s.journeys.Get(ctx, actor.CompanyID, *in.JourneyPlanID)
		if err != nil {
			return nil, err
		}
		if plan.RepID != actor.UserID {
			return nil, fmt.Errorf("journey plan %d belongs to another rep: %w", plan.ID, apperr.ErrForbidden)
		}
	}

	ping := &models.LocationPing{
		CompanyID:     actor.CompanyID,
		RepID:         actor.UserID,
		JourneyPlanID: in.JourneyPlanID,
		ClientPingID:  in.ClientPingID,
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		Accuracy:      in.Accuracy,
		Altitude:      in.Altitude,
		Speed:         in.Speed,
		Heading:       in.Heading,
		BatteryLevel:  in.BatteryLevel,
		NetworkType:   in.NetworkType,
		RecordedAt:    s.now().UTC(),
	}

	last, err := s.locations.Latest(ctx, actor.CompanyID, actor.UserID)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("failed to fetch last location: %w", err)
	}
	annotateMovement(ping, last)

	stored, created, err := s.locations.Insert(ctx, ping)
	if err != nil {
		return nil, fmt.Errorf("failed to save location: %w", err)
	}
	if !created {
		logrus.WithFields(logrus.Fields{
			"rep_id":         actor.UserID,
			"client_ping_id": in.ClientPingID,
		}).Debug("Duplicate location ping ignored")
		return stored, nil
	}

	if s.publisher != nil {
		s.publisher.PublishLocation(actor.CompanyID, *stored)
	}
	logrus.WithFields(logrus.Fields{
		"rep_id":     actor.UserID,
		"event_type": stored.EventType,
		"distance_m": fmt.Sprintf("%.2f", stored.DistanceFromLast),
	}).Debug("Location ping saved")
	return stored, nil
}

// Recent returns the newest pings of a rep, newest first.
func (s *LocationService) Recent(ctx context.Context, actor Actor, repID uint, limit int) ([]models.LocationPing, error) {
	if !actor.IsManager() && repID != actor.UserID {
		return nil, fmt.Errorf("cannot read another rep's locations: %w", apperr.ErrForbidden)
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	return s.locations.Recent(ctx, actor.CompanyID, repID, limit)
}

// Trail returns the pings of a journey oldest first.
func (s *LocationService) Trail(ctx context.Context, actor Actor, planID uint) ([]models.LocationPing, error) {
	plan, err := s.journeys.Get(ctx, actor.CompanyID, planID)
	if err != nil {
		return nil, err
	}
	if !actor.IsManager() && plan.RepID != actor.UserID {
		return nil, fmt.Errorf("journey plan %d belongs to another rep: %w", planID, apperr.ErrForbidden)
	}
	return s.locations.ForJourney(ctx, actor.CompanyID, planID)
}

// TrailPoints reduces pings to their coordinates.
func TrailPoints(pings []models.LocationPing) []geo.Point {
	points := make([]geo.Point, len(pings))
	for i, p := range pings {
		points[i] = geo.Point{Lat: p.Latitude, Lng: p.Longitude}
	}
	return points
}

// annotateMovement classifies ping against the rep's previous ping.
func annotateMovement(ping *models.LocationPing, last *models.LocationPing) {
	speed := 0.0
	if ping.Speed != nil && *ping.Speed > 0 {
		speed = *ping.Speed
	}
	if last == nil || last.ID == 0 {
		ping.EventType = "initial"
		ping.IsMoving = speed >= minSpeedForMoving
		return
	}

	distance := geo.DistanceMeters(
		geo.Point{Lat: last.Latitude, Lng: last.Longitude},
		geo.Point{Lat: ping.Latitude, Lng: ping.Longitude},
	)
	elapsed := ping.RecordedAt.Sub(last.RecordedAt).Seconds()
	ping.DistanceFromLast = distance
	ping.IsMoving = speed >= minSpeedForMoving || distance >= minDistanceForMove

	switch {
	case distance >= minDistanceForMove:
		ping.EventType = "move"
	case last.IsMoving && speed < maxSpeedForStopped && elapsed >= minSecondsForChange:
		ping.EventType = "stopped"
	case !last.IsMoving && speed >= minSpeedForMoving && elapsed >= minSecondsForChange:
		ping.EventType = "started"
	case elapsed >= periodicPingInterval.Seconds():
		ping.EventType = "periodic"
	default:
		ping.EventType = "stationary"
	}
}
