package service

import (
	"context"
	"errors"
	"time"

	"slotbook/cmd/internal/domain/entity"
	"slotbook/cmd/internal/jobs"
	"slotbook/cmd/internal/utils"
	"slotbook/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

const (
	PageSize             = 20
	CancellationLeadTime = 2 * time.Hour
)

// Bookable hours of a provider's day, in the formatter's time zone.
var workHours = []int{8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19}

type AppointmentRepository interface {
	FindByID(ctx context.Context, id int) (*entity.Appointment, error)
	IsSlotTaken(ctx context.Context, providerID int, slot time.Time) (bool, error)
	Create(ctx context.Context, appointment *entity.Appointment) error
	Cancel(ctx context.Context, appointment *entity.Appointment, at time.Time) (bool, error)
	FindActiveByCustomer(ctx context.Context, customerID, limit, offset int) ([]*entity.Appointment, error)
	FindProviderSlots(ctx context.Context, providerID int, from, to time.Time) ([]*entity.Appointment, error)
}

type Notifier interface {
	Notify(ctx context.Context, recipientID int, content string) (*entity.Notification, error)
}

type JobDispatcher interface {
	Enqueue(ctx context.Context, key string, payload any) error
}

type AppointmentRequest struct {
	ProviderID *int   `json:"provider_id" validate:"required"`
	Date       string `json:"date" validate:"required,iso8601"`
}

type AvatarResponse struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

type ProviderSummary struct {
	ID     int             `json:"id"`
	Name   string          `json:"name"`
	Avatar *AvatarResponse `json:"avatar"`
}

type AppointmentResponse struct {
	ID         int              `json:"id"`
	CustomerID int              `json:"customer_id"`
	ProviderID int              `json:"provider_id"`
	Date       string           `json:"date"`
	CanceledAt *string          `json:"canceled_at"`
	Past       bool             `json:"past"`
	Cancelable bool             `json:"cancelable"`
	CreatedAt  string           `json:"created_at"`
	UpdatedAt  string           `json:"updated_at"`
	Provider   *ProviderSummary `json:"provider,omitempty"`
}

type SlotAvailability struct {
	Time      string `json:"time"`
	Value     string `json:"value"`
	Available bool   `json:"available"`
}

type DefaultAppointmentService struct {
	AppointmentRepo AppointmentRepository
	UserRepo        UserRepository
	Notifier        Notifier
	Jobs            JobDispatcher
	Validate        *validator.Validate
	Clock           utils.Clock
	Formatter       *utils.DateFormatter
	FilesBaseURL    string
}

func NewAppointmentService(apptRepo AppointmentRepository, userRepo UserRepository, notifier Notifier, jobs JobDispatcher, validate *validator.Validate) *DefaultAppointmentService {
	return &DefaultAppointmentService{
		AppointmentRepo: apptRepo,
		UserRepo:        userRepo,
		Notifier:        notifier,
		Jobs:            jobs,
		Validate:        validate,
		Clock:           utils.SystemClock{},
		Formatter:       utils.NewDateFormatter("en-US", time.UTC),
	}
}

// GetAppointments pages through the caller's active appointments.
func (a *DefaultAppointmentService) GetAppointments(ctx context.Context, subId string, page int) ([]*AppointmentResponse, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(ctx, a.UserRepo, subId)
	if apierr != nil {
		return nil, apierr
	}

	if page < 1 {
		page = 1
	}

	appts, err := a.AppointmentRepo.FindActiveByCustomer(ctx, caller.ID, PageSize, (page-1)*PageSize)
	if err != nil {
		log.Errorf("failed to find appointments for user %d: %v", caller.ID, err)
		return nil, apierror.InternalServerError
	}

	now := a.Clock.Now()
	response := make([]*AppointmentResponse, len(appts))
	for i, appt := range appts {
		response[i] = a.toAppointmentResponse(appt, now)
	}
	return response, nil
}

// CreateAppointment books the provider's slot for the caller. Checks run in
// a fixed order and the first failing one decides the error.
func (a *DefaultAppointmentService) CreateAppointment(ctx context.Context, req *AppointmentRequest, subId string) (*AppointmentResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := a.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	date, err := utils.ParseDate(req.Date)
	if err != nil {
		return nil, apierror.ValidationError
	}
	slot := utils.StartOfHour(date)

	caller, apierr := resolveCaller(ctx, a.UserRepo, subId)
	if apierr != nil {
		return nil, apierr
	}

	provider, err := a.UserRepo.FindProvider(ctx, *req.ProviderID)
	if err != nil {
		log.Errorf("failed to fetch provider %d: %v", *req.ProviderID, err)
		return nil, apierror.InternalServerError
	}

	if provider == nil {
		return nil, apierror.NotAProviderError
	}

	if provider.ID == caller.ID {
		return nil, apierror.SelfBookingError
	}

	now := a.Clock.Now()
	if utils.IsPast(slot, now) {
		return nil, apierror.PastDateError
	}

	taken, err := a.AppointmentRepo.IsSlotTaken(ctx, provider.ID, slot)
	if err != nil {
		log.Errorf("failed to check if slot %s is taken for provider %d: %v", utils.FormatTime(slot), provider.ID, err)
		return nil, apierror.InternalServerError
	}

	if taken {
		return nil, apierror.SlotUnavailableError
	}

	appointment := &entity.Appointment{
		CustomerID: caller.ID,
		ProviderID: provider.ID,
		Date:       date,
		Slot:       slot,
	}

	err = a.AppointmentRepo.Create(ctx, appointment)
	if errors.Is(err, entity.ErrSlotTaken) {
		return nil, apierror.SlotUnavailableError
	}
	if err != nil {
		log.Errorf("failed to save appointment: %v", err)
		return nil, apierror.InternalServerError
	}
	appointment.Customer = *caller
	appointment.Provider = *provider

	_, err = a.Notifier.Notify(ctx, provider.ID, a.Formatter.BookingMessage(caller.Name, slot))
	if err != nil {
		log.Errorf("failed to notify provider %d of appointment %d: %v", provider.ID, appointment.ID, err)
		return nil, apierror.InternalServerError
	}

	return a.toAppointmentResponse(appointment, now), nil
}

// CancelAppointment soft-cancels one of the caller's appointments and hands
// the cancellation mail to the job queue.
func (a *DefaultAppointmentService) CancelAppointment(ctx context.Context, id int, issuerSub string) (*AppointmentResponse, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(ctx, a.UserRepo, issuerSub)
	if apierr != nil {
		return nil, apierr
	}

	appt, err := a.AppointmentRepo.FindByID(ctx, id)
	if err != nil {
		log.Errorf("failed to fetch appointment by id %d: %v", id, err)
		return nil, apierror.InternalServerError
	}

	if appt == nil {
		return nil, apierror.AppointmentNotFoundError
	}

	if appt.CustomerID != caller.ID {
		return nil, apierror.ForbiddenError
	}

	if appt.IsCanceled() {
		return nil, apierror.AlreadyCanceledError
	}

	now := a.Clock.Now()
	if utils.IsLeadWindowElapsed(appt.Date, now, CancellationLeadTime) {
		return nil, apierror.LateCancellationError
	}

	canceled, err := a.AppointmentRepo.Cancel(ctx, appt, now)
	if err != nil {
		log.Errorf("failed to cancel appointment by id %d: %v", id, err)
		return nil, apierror.InternalServerError
	}

	if !canceled {
		return nil, apierror.AlreadyCanceledError
	}

	payload := jobs.NewCancellationMailPayload(appt, caller)
	if err := a.Jobs.Enqueue(ctx, jobs.CancellationMailKey, payload); err != nil {
		log.Errorf("failed to enqueue %s for appointment %d: %v", jobs.CancellationMailKey, appt.ID, err)
	}

	return a.toAppointmentResponse(appt, now), nil
}

// GetAvailability lists the provider's bookable hours for a day given as
// YYYY-MM-DD.
func (a *DefaultAppointmentService) GetAvailability(ctx context.Context, providerID int, day string) ([]*SlotAvailability, apierror.ErrorResponse) {
	loc := a.Formatter.Location()
	dayStart, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return nil, apierror.NewInvalidParamTypeError("date", "YYYY-MM-DD")
	}

	provider, err := a.UserRepo.FindProvider(ctx, providerID)
	if err != nil {
		log.Errorf("failed to fetch provider %d: %v", providerID, err)
		return nil, apierror.InternalServerError
	}

	if provider == nil {
		return nil, apierror.NotAProviderError
	}

	booked, err := a.AppointmentRepo.FindProviderSlots(ctx, provider.ID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		log.Errorf("failed to fetch slots of provider %d on %s: %v", provider.ID, day, err)
		return nil, apierror.InternalServerError
	}

	taken := make(map[int64]bool, len(booked))
	for _, appt := range booked {
		taken[appt.Slot.Unix()] = true
	}

	now := a.Clock.Now()
	slots := make([]*SlotAvailability, len(workHours))
	for i, hour := range workHours {
		at := time.Date(dayStart.Year(), dayStart.Month(), dayStart.Day(), hour, 0, 0, 0, loc)
		slot := utils.StartOfHour(at)
		slots[i] = &SlotAvailability{
			Time:      at.Format("15:04"),
			Value:     utils.FormatTime(at),
			Available: !utils.IsPast(slot, now) && !taken[slot.Unix()],
		}
	}
	return slots, nil
}

func (a *DefaultAppointmentService) toAppointmentResponse(appt *entity.Appointment, now time.Time) *AppointmentResponse {
	resp := &AppointmentResponse{
		ID:         appt.ID,
		CustomerID: appt.CustomerID,
		ProviderID: appt.ProviderID,
		Date:       utils.FormatTime(appt.Date),
		CanceledAt: utils.FormatTimePtr(appt.CanceledAt),
		Past:       appt.IsPast(now),
		Cancelable: appt.IsCancelable(now, CancellationLeadTime),
		CreatedAt:  utils.FormatTime(appt.CreatedAt),
		UpdatedAt:  utils.FormatTime(appt.UpdatedAt),
	}
	if appt.Provider.ID != 0 {
		resp.Provider = toProviderSummary(&appt.Provider, a.FilesBaseURL)
	}
	return resp
}

func toProviderSummary(user *entity.User, filesBaseURL string) *ProviderSummary {
	summary := &ProviderSummary{ID: user.ID, Name: user.Name}
	if user.Avatar != nil {
		summary.Avatar = &AvatarResponse{
			URL:  user.Avatar.URL(filesBaseURL),
			Path: user.Avatar.Path,
		}
	}
	return summary
}
