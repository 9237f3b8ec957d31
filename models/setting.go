package models

import "time"

// System setting keys
const (
	SettingRegistrationOpen = "registration_open"
	SettingMaintenanceMode  = "maintenance_mode"
)

type SystemSetting struct {
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// PublicStatus is what unauthenticated pages see.
type PublicStatus struct {
	RegistrationEnabled bool `json:"registrationEnabled"`
	MaintenanceMode     bool `json:"maintenanceMode"`
}

type SystemStatus struct {
	PublicStatus
	Settings []SystemSetting `json:"settings"`
}

type UpdateStatusRequest struct {
	RegistrationEnabled *bool `json:"registrationEnabled"`
	MaintenanceMode     *bool `json:"maintenanceMode"`
}

func (r UpdateStatusRequest) Empty() bool {
	return r.RegistrationEnabled == nil && r.MaintenanceMode == nil
}
