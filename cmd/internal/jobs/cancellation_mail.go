package jobs

import (
	"context"
	"errors"
	"time"

	"slotbook/cmd/internal/domain/entity"
	"slotbook/cmd/internal/mail"
	"slotbook/cmd/internal/queue"
	"slotbook/cmd/internal/utils"
)

const CancellationMailKey = "CancellationMail"

type PersonPayload struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AppointmentPayload struct {
	ID         int           `json:"id"`
	Date       time.Time     `json:"date"`
	CanceledAt *time.Time    `json:"canceled_at"`
	Provider   PersonPayload `json:"provider"`
}

// CancellationMailPayload carries the canceled appointment and the user
// who canceled it.
type CancellationMailPayload struct {
	Appointment AppointmentPayload `json:"appointment"`
	User        PersonPayload      `json:"user"`
}

func NewCancellationMailPayload(appt *entity.Appointment, user *entity.User) *CancellationMailPayload {
	return &CancellationMailPayload{
		Appointment: AppointmentPayload{
			ID:         appt.ID,
			Date:       appt.Date,
			CanceledAt: appt.CanceledAt,
			Provider:   toPerson(&appt.Provider),
		},
		User: toPerson(user),
	}
}

// CancellationMail tells the provider that a customer canceled.
type CancellationMail struct {
	sender    mail.Sender
	formatter *utils.DateFormatter
}

func NewCancellationMail(sender mail.Sender, formatter *utils.DateFormatter) *CancellationMail {
	return &CancellationMail{sender: sender, formatter: formatter}
}

func (j *CancellationMail) Handle(ctx context.Context, job *queue.Job) error {
	var payload CancellationMailPayload
	if err := job.Decode(&payload); err != nil {
		return err
	}

	provider := payload.Appointment.Provider
	if provider.Email == "" {
		return errors.New("cancellation mail: provider email missing")
	}

	return j.sender.Send(ctx, &mail.Message{
		To:      provider.Email,
		ToName:  provider.Name,
		Subject: j.formatter.CancellationSubject(),
		Body:    j.formatter.CancellationBody(provider.Name, payload.User.Name, payload.Appointment.Date),
	})
}

func toPerson(u *entity.User) PersonPayload {
	return PersonPayload{ID: u.ID, Name: u.Name, Email: u.Email}
}
