package domain

import "time"

// Device bed sensor device (devices table)
type Device struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	BoardType       *int      `json:"boardtype,omitempty"`
	MAC             *string   `json:"mac,omitempty"`
	HardwareVersion *string   `json:"hardware_version,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
