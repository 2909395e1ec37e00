package repository

import (
	"context"
	"errors"
	"time"

	"slotbook/cmd/internal/domain/entity"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

type DefaultAppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *DefaultAppointmentRepository {
	return &DefaultAppointmentRepository{db: db}
}

// FindByID loads the appointment with its provider and customer.
func (a *DefaultAppointmentRepository) FindByID(ctx context.Context, id int) (*entity.Appointment, error) {
	var appt entity.Appointment
	err := a.db.WithContext(ctx).
		Preload("Provider").
		Preload("Customer").
		First(&appt, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// IsSlotTaken reports whether the provider already has an active
// appointment at the given hour slot.
func (a *DefaultAppointmentRepository) IsSlotTaken(ctx context.Context, providerID int, slot time.Time) (bool, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&entity.Appointment{}).
		Where("provider_id = ?", providerID).
		Where("slot = ?", slot.UTC()).
		Where("canceled_at IS NULL").
		Count(&count).Error

	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new appointment. A conflicting active appointment for the
// same provider and slot yields entity.ErrSlotTaken.
func (a *DefaultAppointmentRepository) Create(ctx context.Context, appointment *entity.Appointment) error {
	err := a.db.WithContext(ctx).
		Omit("Customer", "Provider").
		Create(appointment).Error
	if isUniqueViolation(err) {
		return entity.ErrSlotTaken
	}
	return err
}

// Cancel sets canceled_at on an active appointment. It returns false when
// the appointment was already canceled.
func (a *DefaultAppointmentRepository) Cancel(ctx context.Context, appointment *entity.Appointment, at time.Time) (bool, error) {
	at = at.UTC()
	res := a.db.WithContext(ctx).
		Model(&entity.Appointment{}).
		Where("id = ?", appointment.ID).
		Where("canceled_at IS NULL").
		Updates(map[string]any{"canceled_at": at, "updated_at": at})

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	appointment.CanceledAt = &at
	appointment.UpdatedAt = at
	return true, nil
}

// FindActiveByCustomer pages through the customer's active appointments in
// date order, provider and provider avatar included.
func (a *DefaultAppointmentRepository) FindActiveByCustomer(ctx context.Context, customerID, limit, offset int) ([]*entity.Appointment, error) {
	var appts []*entity.Appointment
	err := a.db.WithContext(ctx).
		Preload("Provider.Avatar").
		Where("customer_id = ?", customerID).
		Where("canceled_at IS NULL").
		Order("date asc").
		Order("id asc").
		Limit(limit).
		Offset(offset).
		Find(&appts).Error
	return appts, err
}

// FindProviderSlots finds the provider's active appointments whose slot
// falls in [from, to). Only the slot column is loaded.
func (a *DefaultAppointmentRepository) FindProviderSlots(ctx context.Context, providerID int, from, to time.Time) ([]*entity.Appointment, error) {
	var results []*entity.Appointment
	err := a.db.WithContext(ctx).
		Model(&entity.Appointment{}).
		Select("slot").
		Where("provider_id = ?", providerID).
		Where("canceled_at IS NULL").
		Where("slot >= ?", from.UTC()).
		Where("slot < ?", to.UTC()).
		Order("slot asc").
		Find(&results).Error

	if err != nil {
		return nil, err
	}
	return results, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
