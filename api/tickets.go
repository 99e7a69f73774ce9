package api

import (
	"net/http"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/Domenick1991/ticketbooking/internal/service/booking"
	"github.com/Domenick1991/ticketbooking/internal/service/tickets"
	"github.com/gin-gonic/gin"
)

const reservedMessage = "The tickets are reserved for booking. Please proceed payment for booking"

type TicketHandler struct {
	tickets  tickets.TicketUseCase
	bookings booking.BookingUseCase
}

type reserveRequest struct {
	TicketIDs []string `json:"ticketIds" binding:"required"`
}

type reserveResponse struct {
	Message      string `json:"message"`
	PaymentToken string `json:"paymentToken"`
}

type confirmPaymentRequest struct {
	PaymentToken  string `json:"paymentToken" binding:"required,uuid"`
	PaymentStatus string `json:"paymentStatus" binding:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func NewTicketHandler(tickets tickets.TicketUseCase, bookings booking.BookingUseCase) *TicketHandler {
	return &TicketHandler{tickets: tickets, bookings: bookings}
}

func (h *TicketHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("/reserve", h.reserve)
	router.POST("/confirm-payment", h.confirmPayment)
}

func (h *TicketHandler) list(c *gin.Context) {
	var filter *domain.TicketType
	if raw := c.Query("ticketType"); raw != "" {
		ticketType, err := domain.ParseTicketType(raw)
		if err != nil {
			writeError(c, err)
			return
		}
		filter = &ticketType
	}

	result, err := h.tickets.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TicketHandler) reserve(c *gin.Context) {
	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	token, err := h.bookings.Reserve(c.Request.Context(), req.TicketIDs)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, reserveResponse{Message: reservedMessage, PaymentToken: token})
}

func (h *TicketHandler) confirmPayment(c *gin.Context) {
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	outcome, err := domain.ParseOutcome(req.PaymentStatus)
	if err != nil {
		writeError(c, err)
		return
	}

	status, err := h.bookings.ResolvePayment(c.Request.Context(), req.PaymentToken, outcome)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: "The tickets are " + string(status) + "."})
}
