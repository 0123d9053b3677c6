package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tbox/dashboard/models"
	"github.com/tbox/dashboard/repositories"
	"go.uber.org/zap"
)

// VehicleRepository implements the repositories.VehicleRepository interface
type VehicleRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewVehicleRepository creates a new vehicle repository
func NewVehicleRepository(db *DB, logger *zap.Logger) repositories.VehicleRepository {
	return &VehicleRepository{
		db:     db,
		logger: logger,
	}
}

// GetLatestByDeviceName retrieves the most recent snapshot of a device
func (r *VehicleRepository) GetLatestByDeviceName(ctx context.Context, deviceName string) (*models.Vehicle, error) {
	query := `
		SELECT id, device_id, device_name, device_type, version, event,
		       license_plate_no, time_stamp, status, created_at
		FROM vehicles
		WHERE device_name = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	executor := GetExecutor(ctx, r.db)
	vehicle := &models.Vehicle{}
	var status []byte

	err := executor.QueryRowContext(ctx, query, deviceName).Scan(
		&vehicle.ID,
		&vehicle.DeviceID,
		&vehicle.DeviceName,
		&vehicle.DeviceType,
		&vehicle.Version,
		&vehicle.Event,
		&vehicle.LicensePlateNo,
		&vehicle.TimeStamp,
		&status,
		&vehicle.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("vehicle %s: %w", deviceName, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	vehicle.Status = status

	return vehicle, nil
}
