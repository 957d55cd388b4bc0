package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Yolouth/rezerwacja-konsultacji/internal/domain"
	"github.com/Yolouth/rezerwacja-konsultacji/internal/metrics"
	"github.com/Yolouth/rezerwacja-konsultacji/internal/service/bookings"
	"github.com/Yolouth/rezerwacja-konsultacji/internal/store"
)

type bookingsService interface {
	AvailableSlots(ctx context.Context, date string) ([]string, error)
	Create(ctx context.Context, in bookings.CreateInput) (domain.Booking, error)
	List(ctx context.Context) ([]domain.Booking, error)
}

type BookingsHandler struct {
	svc bookingsService
	log *slog.Logger
	m   *metrics.Metrics
}

func NewBookingsHandler(svc bookingsService, m *metrics.Metrics, log *slog.Logger) *BookingsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &BookingsHandler{
		svc: svc,
		log: log.With(slog.String("component", "http.bookings")),
		m:   m,
	}
}

// GET /api/available-slots?date=YYYY-MM-DD
func (h *BookingsHandler) AvailableSlots(c *gin.Context) {
	slots, err := h.svc.AvailableSlots(c.Request.Context(), c.Query("date"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available_slots": slots})
}

type bookTrainingRequest struct {
	ClientName   string `json:"client_name"`
	ClientEmail  string `json:"client_email"`
	TrainingDate string `json:"training_date"`
	TrainingTime string `json:"training_time"`
	Phone        string `json:"phone"`
	Message      string `json:"message"`
}

// POST /api/book-training
func (h *BookingsHandler) BookTraining(c *gin.Context) {
	var req bookTrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	b, err := h.svc.Create(c.Request.Context(), bookings.CreateInput{
		ClientName:   req.ClientName,
		ClientEmail:  req.ClientEmail,
		TrainingDate: req.TrainingDate,
		TrainingTime: req.TrainingTime,
		Phone:        req.Phone,
		Message:      req.Message,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	if h.m != nil {
		h.m.BookingsCreated.Inc()
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":     "success",
		"message":    "booking created",
		"booking_id": b.ID,
	})
}

type bookingResponse struct {
	ID              int64     `json:"id"`
	ClientName      string    `json:"client_name"`
	ClientEmail     string    `json:"client_email"`
	Phone           string    `json:"phone,omitempty"`
	TrainingDate    string    `json:"training_date"`
	TrainingTime    string    `json:"training_time"`
	Message         string    `json:"message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	CalendarEventID string    `json:"calendar_event_id,omitempty"`
	ReminderSent    bool      `json:"reminder_sent"`
}

// GET /api/bookings
func (h *BookingsHandler) ListBookings(c *gin.Context) {
	rows, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]bookingResponse, 0, len(rows))
	for _, b := range rows {
		out = append(out, bookingResponse{
			ID:              b.ID,
			ClientName:      b.ClientName,
			ClientEmail:     b.ClientEmail,
			Phone:           b.Phone,
			TrainingDate:    b.TrainingDate.String(),
			TrainingTime:    b.TrainingTime.String(),
			Message:         b.Message,
			CreatedAt:       b.CreatedAt,
			CalendarEventID: b.CalendarEventID,
			ReminderSent:    b.ReminderSent,
		})
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out})
}

func (h *BookingsHandler) writeError(c *gin.Context, err error) {
	var vErr *bookings.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
	case errors.Is(err, bookings.ErrPastDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "training_date cannot be in the past"})
	case errors.Is(err, store.ErrConflict):
		if h.m != nil {
			h.m.BookingConflicts.Inc()
		}
		h.log.Info("slot conflict", slog.String("path", c.FullPath()))
		c.JSON(http.StatusConflict, gin.H{"error": "this slot is already booked"})
	default:
		h.log.Error("request failed", slog.String("path", c.FullPath()), slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
