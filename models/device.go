// File: tecnicosrd/models/device.go
package models

import "time"

// Session is a signed-in device. Only the SHA-256 hash of the issued token is stored.
type Session struct {
	DeviceID  string    `bson:"deviceId" json:"deviceId"`
	TokenHash string    `bson:"tokenHash" json:"-"`
	LastLogin time.Time `bson:"lastLogin" json:"lastLogin"`
}
