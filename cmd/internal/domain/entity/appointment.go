package entity

import (
	"errors"
	"time"
)

// ErrSlotTaken is returned by the storage layer when an active appointment
// already holds the provider's slot.
var ErrSlotTaken = errors.New("appointment slot already taken")

type Appointment struct {
	ID         int       `gorm:"primaryKey"`
	CustomerID int       `gorm:"not null;index"` // References: users(id)
	ProviderID int       `gorm:"not null;index:idx_appointments_provider_slot,unique,where:canceled_at IS NULL"`
	Date       time.Time `gorm:"not null"`
	Slot       time.Time `gorm:"not null;index:idx_appointments_provider_slot,unique,where:canceled_at IS NULL"`
	CanceledAt *time.Time
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`

	// Relations
	Customer User `gorm:"foreignKey:CustomerID;references:ID"`
	Provider User `gorm:"foreignKey:ProviderID;references:ID"`
}

func (a *Appointment) IsCanceled() bool {
	return a.CanceledAt != nil
}

// IsPast reports whether the appointment date is before now.
func (a *Appointment) IsPast(now time.Time) bool {
	return a.Date.Before(now)
}

// IsCancelable reports whether there is still more than lead time left
// before the appointment.
func (a *Appointment) IsCancelable(now time.Time, lead time.Duration) bool {
	return a.Date.Add(-lead).After(now)
}
