package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"slotbook/cmd/internal/domain/entity"
	"slotbook/cmd/internal/utils/apierror"
)

type fakeNotificationRepo struct {
	notifications map[int]*entity.Notification
	nextID        int
	saveErr       error
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{notifications: make(map[int]*entity.Notification)}
}

func (r *fakeNotificationRepo) Save(_ context.Context, notification *entity.Notification) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.nextID++
	notification.ID = r.nextID
	notification.CreatedAt = time.Date(2024, 6, 10, 8, 0, r.nextID, 0, time.UTC)
	r.notifications[notification.ID] = notification
	return nil
}

func (r *fakeNotificationRepo) FindByRecipient(_ context.Context, recipientID, limit int) ([]*entity.Notification, error) {
	var result []*entity.Notification
	for _, n := range r.notifications {
		if n.RecipientID == recipientID {
			result = append(result, n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *fakeNotificationRepo) FindByID(_ context.Context, id int) (*entity.Notification, error) {
	return r.notifications[id], nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, notification *entity.Notification) error {
	notification.Read = true
	return nil
}

func newNotificationFixture() (*DefaultNotificationService, *fakeNotificationRepo) {
	repo := newFakeNotificationRepo()
	users := newFakeUserRepo(customerAna, providerBruno)
	return NewNotificationService(repo, users), repo
}

func TestNotify(t *testing.T) {
	svc, repo := newNotificationFixture()

	n, err := svc.Notify(context.Background(), providerBruno.ID, "  New appointment from Ana for June 10, at 14:00 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.ID == 0 || n.Read {
		t.Errorf("expected stored unread notification, got %+v", n)
	}
	if n.Content != "New appointment from Ana for June 10, at 14:00" {
		t.Errorf("expected trimmed content, got %q", n.Content)
	}
	if len(repo.notifications) != 1 {
		t.Errorf("expected 1 stored notification, got %d", len(repo.notifications))
	}
}

func TestNotify_Rejects(t *testing.T) {
	svc, repo := newNotificationFixture()

	if _, err := svc.Notify(context.Background(), 0, "hello"); err == nil {
		t.Error("expected error for missing recipient")
	}
	if _, err := svc.Notify(context.Background(), providerBruno.ID, "   "); err == nil {
		t.Error("expected error for empty content")
	}

	storeErr := errors.New("database is locked")
	repo.saveErr = storeErr
	if _, err := svc.Notify(context.Background(), providerBruno.ID, "hello"); !errors.Is(err, storeErr) {
		t.Errorf("expected store error to propagate, got %v", err)
	}
	if len(repo.notifications) != 0 {
		t.Errorf("expected nothing stored, got %d", len(repo.notifications))
	}
}

func TestGetNotifications(t *testing.T) {
	svc, _ := newNotificationFixture()
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		if _, err := svc.Notify(ctx, providerBruno.ID, "booking"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := svc.Notify(ctx, customerAna.ID, "not for bruno"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	list, apierr := svc.GetNotifications(ctx, "sub-bruno")
	if apierr != nil {
		t.Fatalf("unexpected error: %v", apierr)
	}
	if len(list) != 20 {
		t.Fatalf("expected 20 notifications, got %d", len(list))
	}
	if list[0].ID != 25 {
		t.Errorf("expected newest notification first, got id %d", list[0].ID)
	}

	if _, apierr := svc.GetNotifications(ctx, "sub-ghost"); apierr != apierror.UserNotFoundError {
		t.Errorf("expected UserNotFoundError, got %v", apierr)
	}
}

func TestMarkRead(t *testing.T) {
	svc, _ := newNotificationFixture()
	ctx := context.Background()

	n, err := svc.Notify(ctx, providerBruno.ID, "booking")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, apierr := svc.MarkRead(ctx, n.ID, "sub-ana"); apierr != apierror.NotificationNotFoundError {
		t.Errorf("expected NotificationNotFoundError for other user, got %v", apierr)
	}
	if _, apierr := svc.MarkRead(ctx, 999, "sub-bruno"); apierr != apierror.NotificationNotFoundError {
		t.Errorf("expected NotificationNotFoundError for unknown id, got %v", apierr)
	}

	resp, apierr := svc.MarkRead(ctx, n.ID, "sub-bruno")
	if apierr != nil {
		t.Fatalf("unexpected error: %v", apierr)
	}
	if !resp.Read {
		t.Error("expected notification to be read")
	}
}
