package services

import (
	"context"
	"errors"
	"strings"

	"github.com/tbox/dashboard/models"
	"github.com/tbox/dashboard/repositories"
)

// VehicleService reads vehicle telemetry
type VehicleService struct {
	vehicles repositories.VehicleRepository
}

// NewVehicleService creates a new VehicleService
func NewVehicleService(vehicles repositories.VehicleRepository) *VehicleService {
	return &VehicleService{vehicles: vehicles}
}

// GetByDeviceName returns the latest telemetry snapshot of a device
func (s *VehicleService) GetByDeviceName(ctx context.Context, deviceName string) (*models.Vehicle, error) {
	deviceName = strings.TrimSpace(deviceName)
	if deviceName == "" {
		return nil, NewDomainError(ErrorTypeValidation, "device name is required", nil)
	}

	vehicle, err := s.vehicles.GetLatestByDeviceName(ctx, deviceName)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, WrapInternal("failed to load vehicle", err)
	}
	return vehicle, nil
}
