package routes

import (
	"context"
	"net/http"
	"strconv"

	"slotbook/cmd/internal/service"
	"slotbook/cmd/internal/utils"
	"slotbook/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type NotificationService interface {
	GetNotifications(ctx context.Context, subId string) ([]*service.NotificationResponse, apierror.ErrorResponse)
	MarkRead(ctx context.Context, id int, subId string) (*service.NotificationResponse, apierror.ErrorResponse)
}

type DefaultNotificationRoute struct {
	NotificationService NotificationService
}

func NewNotificationDefault(notificationService NotificationService) *DefaultNotificationRoute {
	return &DefaultNotificationRoute{NotificationService: notificationService}
}

func (n *DefaultNotificationRoute) GetNotifications(c echo.Context) error {
	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	notifications, apierr := n.NotificationService.GetNotifications(c.Request().Context(), data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"notifications": notifications}
	return c.JSON(http.StatusOK, &resp)
}

func (n *DefaultNotificationRoute) MarkRead(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errResp := apierror.NewSimple(400, "ID is not a number")
		return c.JSON(errResp.Code(), errResp)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	notification, apierr := n.NotificationService.MarkRead(c.Request().Context(), id, data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, notification)
}
