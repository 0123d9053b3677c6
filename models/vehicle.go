package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Vehicle is a telemetry snapshot reported by a telematics box
type Vehicle struct {
	ID             uuid.UUID       `json:"_id" db:"id"`
	DeviceID       string          `json:"id" db:"device_id"`
	DeviceName     string          `json:"deviceName" db:"device_name"`
	DeviceType     string          `json:"deviceType" db:"device_type"`
	Version        string          `json:"version" db:"version"`
	Event          string          `json:"event" db:"event"`
	LicensePlateNo *string         `json:"licensePlateNo" db:"license_plate_no"`
	TimeStamp      string          `json:"timeStamp" db:"time_stamp"` // As reported by the device
	Status         json.RawMessage `json:"status" db:"status"`        // JSONB array of status objects
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
}

// TableName returns the table name for the Vehicle model
func (Vehicle) TableName() string {
	return "vehicles"
}

// LicensePlate returns the plate number or "N/A" when the device reported none
func (v *Vehicle) LicensePlate() string {
	if v.LicensePlateNo == nil || *v.LicensePlateNo == "" {
		return "N/A"
	}
	return *v.LicensePlateNo
}

// StatusEntries decodes the status array. A null or empty status yields no entries.
func (v *Vehicle) StatusEntries() ([]map[string]interface{}, error) {
	if len(v.Status) == 0 || string(v.Status) == "null" {
		return nil, nil
	}
	var entries []map[string]interface{}
	if err := json.Unmarshal(v.Status, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
