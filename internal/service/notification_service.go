package service

import (
	"context"
	"strings"
	"time"

	"gorm.io/datatypes"

	"yard-service/internal/model"
	"yard-service/internal/repository"
)

const defaultNotificationPageLimit = 20

type NotificationService struct {
	repo *repository.Repository
	now  func() time.Time
}

func NewNotificationService(repo *repository.Repository) *NotificationService {
	return &NotificationService{repo: repo, now: time.Now}
}

type ListNotificationsInput struct {
	IsRead *bool
	Type   string
	Page   int
	Limit  int
}

type NotificationList struct {
	Notifications []model.Notification `json:"notifications"`
	Pagination    Page                 `json:"pagination"`
	UnreadCount   int64                `json:"unreadCount"`
}

func (s *NotificationService) List(ctx context.Context, principal model.Principal, input ListNotificationsInput) (*NotificationList, error) {
	if err := Authorize(principal, OpNotificationInbox); err != nil {
		return nil, err
	}

	filter := repository.NotificationFilter{
		RecipientID: principal.UserID,
		IsRead:      input.IsRead,
		Pagination:  pagination(input.Page, input.Limit, defaultNotificationPageLimit),
	}
	if raw := strings.TrimSpace(input.Type); raw != "" {
		kind := model.NotificationType(strings.ToLower(raw))
		if !kind.Valid() {
			return nil, invalidInput("unknown notification type %q", raw)
		}
		filter.Type = &kind
	}

	notifications, total, err := s.repo.Notifications.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.Notifications.CountUnread(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	return &NotificationList{
		Notifications: notifications,
		Pagination:    newPage(filter.Pagination, total),
		UnreadCount:   unread,
	}, nil
}

type CreateNotificationInput struct {
	RecipientID    string
	Type           string
	Title          string
	Message        string
	TruckRequestID string
}

// Create sends a manual notification. Unlike the automatic fan-out its failure is reported.
func (s *NotificationService) Create(ctx context.Context, principal model.Principal, input CreateNotificationInput) (*model.Notification, error) {
	if err := Authorize(principal, OpNotificationCreate); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	message := strings.TrimSpace(input.Message)
	if strings.TrimSpace(input.RecipientID) == "" || title == "" || message == "" {
		return nil, invalidInput("recipientId, title and message are required")
	}
	recipientID, err := parseID(input.RecipientID, "recipientId")
	if err != nil {
		return nil, err
	}

	kind := model.NotificationTypeGeneral
	if raw := strings.TrimSpace(input.Type); raw != "" {
		kind = model.NotificationType(strings.ToLower(raw))
		if !kind.Valid() {
			return nil, invalidInput("type must be one of truck_request, status_update, assignment, general")
		}
	}

	requestID, err := parseOptionalID(input.TruckRequestID, "truckRequestId")
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.Users.GetByID(ctx, recipientID); err != nil {
		return nil, lookupErr(err, "Recipient")
	}

	data := model.NotificationData{TruckRequestID: requestID}
	if requestID != nil {
		data.ActionURL = model.RequestActionURL(*requestID)
	}
	notification := &model.Notification{
		RecipientID: recipientID,
		SenderID:    &principal.UserID,
		Type:        kind,
		Title:       title,
		Message:     message,
		Data:        datatypes.NewJSONType(data),
	}
	if err := s.repo.Notifications.Create(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, principal model.Principal, id string) (*model.Notification, error) {
	notification, err := s.owned(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if !notification.IsRead {
		notification.MarkRead(s.now())
		if err := s.repo.Notifications.Update(ctx, notification); err != nil {
			return nil, err
		}
	}
	return notification, nil
}

func (s *NotificationService) Delete(ctx context.Context, principal model.Principal, id string) error {
	notification, err := s.owned(ctx, principal, id)
	if err != nil {
		return err
	}
	return lookupErr(s.repo.Notifications.Delete(ctx, notification.ID), "Notification")
}

func (s *NotificationService) MarkAllRead(ctx context.Context, principal model.Principal) (int64, error) {
	if err := Authorize(principal, OpNotificationInbox); err != nil {
		return 0, err
	}
	return s.repo.Notifications.MarkAllRead(ctx, principal.UserID, s.now())
}

// owned loads a notification of the caller; other users' notifications look missing.
func (s *NotificationService) owned(ctx context.Context, principal model.Principal, id string) (*model.Notification, error) {
	if err := Authorize(principal, OpNotificationInbox); err != nil {
		return nil, err
	}
	notificationID, err := parseID(id, "notification id")
	if err != nil {
		return nil, err
	}
	notification, err := s.repo.Notifications.GetByID(ctx, notificationID)
	if err != nil {
		return nil, lookupErr(err, "Notification")
	}
	if notification.RecipientID != principal.UserID {
		return nil, notFound("Notification")
	}
	return notification, nil
}
