package routes

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"slotbook/cmd/internal/service"
	"slotbook/cmd/internal/utils"
	"slotbook/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type AppointmentService interface {
	GetAppointments(ctx context.Context, subId string, page int) ([]*service.AppointmentResponse, apierror.ErrorResponse)
	CreateAppointment(ctx context.Context, req *service.AppointmentRequest, subId string) (*service.AppointmentResponse, apierror.ErrorResponse)
	CancelAppointment(ctx context.Context, id int, sub string) (*service.AppointmentResponse, apierror.ErrorResponse)
	GetAvailability(ctx context.Context, providerID int, day string) ([]*service.SlotAvailability, apierror.ErrorResponse)
}

type DefaultAppointmentRoute struct {
	AppointmentService AppointmentService
}

func NewAppointmentDefault(apptService AppointmentService) *DefaultAppointmentRoute {
	return &DefaultAppointmentRoute{AppointmentService: apptService}
}

func (a *DefaultAppointmentRoute) GetAppointments(c echo.Context) error {
	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	// Anything that is not a positive number reads as the first page.
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}

	appts, apierr := a.AppointmentService.GetAppointments(c.Request().Context(), data.Sub, page)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"appointments": appts, "page": page}
	return c.JSON(http.StatusOK, &resp)
}

func (a *DefaultAppointmentRoute) CreateAppointment(c echo.Context) error {
	var req service.AppointmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, apierror.MalformedBodyError)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	appt, apierr := a.AppointmentService.CreateAppointment(c.Request().Context(), &req, data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, appt)
}

func (a *DefaultAppointmentRoute) CancelAppointment(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errResp := apierror.NewSimple(400, "ID is not a number")
		return c.JSON(errResp.Code(), errResp)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	appt, apierr := a.AppointmentService.CancelAppointment(c.Request().Context(), id, data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, appt)
}

func (a *DefaultAppointmentRoute) GetAvailability(c echo.Context) error {
	providerID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errResp := apierror.NewInvalidParamTypeError("id", "int32")
		return c.JSON(errResp.Code(), errResp)
	}

	day := strings.TrimSpace(c.QueryParam("date"))
	if day == "" {
		return c.JSON(400, apierror.NewMissingParamError("date"))
	}

	slots, apierr := a.AppointmentService.GetAvailability(c.Request().Context(), providerID, day)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"slots": slots}
	return c.JSON(http.StatusOK, &resp)
}
