package reservations

import (
	"errors"
	"time"

	"qrbooks/core/logger"
	coreauth "qrbooks/core/middleware/auth"
	auditfeat "qrbooks/feature/audit"
	auditmodels "qrbooks/feature/audit/models"
	authmodels "qrbooks/feature/auth/models"
	roommodels "qrbooks/feature/rooms/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for reservations.
type Handler struct {
	service *Service
	audit   *auditfeat.Service
	tokens  *coreauth.Manager
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, audit *auditfeat.Service, tokens *coreauth.Manager, logger *zap.Logger) *Handler {
	return &Handler{service: service, audit: audit, tokens: tokens, logger: logger}
}

// RegisterRoutes registers the reservation routes. Every route requires
// a valid access token.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/reservations", coreauth.New(h.tokens))
	group.Get("/", h.HandleListMine)
	group.Get("/mine", h.HandleListMine)
	group.Post("/", h.HandleCreate)
	group.Patch("/:id", coreauth.RequireRoles(string(authmodels.RoleTeacher), string(authmodels.RoleAdmin)), h.HandleUpdate)
	group.Delete("/:id", h.HandleCancel)
	group.Get("/room/:id/history", coreauth.RequireRoles(string(authmodels.RoleTeacher), string(authmodels.RoleAdmin)), h.HandleRoomHistory)
}

type createRequest struct {
	RoomID    uint   `json:"room_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type updateRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// HandleListMine returns the caller's reservations, newest first.
// @Summary My reservations
// @Description List the authenticated user's reservations.
// @Tags reservations
// @Produce json
// @Success 200 {array} models.Reservation "Reservations"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /reservations/mine [get]
func (h *Handler) HandleListMine(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	userID, _ := coreauth.UserID(c)
	items, err := h.service.ForUser(c.Context(), userID)
	if err != nil {
		l.Error("Reservation listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(items)
}

// HandleCreate books a reservation for the caller.
// @Summary Create reservation
// @Description Book a slot in a room for the authenticated user.
// @Tags reservations
// @Accept json
// @Produce json
// @Param reservation body createRequest true "Slot to book"
// @Success 201 {object} models.Reservation "Reservation"
// @Failure 400 {object} map[string]string "Validation failure"
// @Failure 404 {object} map[string]string "Room not found"
// @Failure 409 {object} map[string]string "Slot conflict"
// @Router /reservations [post]
func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid request body"})
	}

	start, end, err := ParseSlot(req.StartTime, req.EndTime)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": err.Error()})
	}

	room, err := h.service.GetRoom(c.Context(), req.RoomID)
	if err != nil {
		l.Error("Room lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	if room == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"msg": "room not found"})
	}
	if !RoleCanBook(coreauth.Role(c), room.Type) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"msg": "room is not bookable with your role"})
	}

	userID, _ := coreauth.UserID(c)
	res, err := h.service.Create(c.Context(), room, userID, start, end)
	if err != nil {
		return h.writeBookingError(c, l, err)
	}

	h.audit.Record(c.Context(), &userID, auditmodels.ActionCreateReservation, "reservation created", fiber.Map{
		"reservation_id": res.ID,
		"room_id":        room.ID,
		"start_time":     res.StartTime,
		"end_time":       res.EndTime,
	})
	return c.Status(fiber.StatusCreated).JSON(res)
}

// HandleUpdate moves a reservation to a new slot. Teacher or admin only.
// @Summary Update reservation
// @Description Move a reservation to new times, re-checking conflicts.
// @Tags reservations
// @Accept json
// @Produce json
// @Param id path int true "Reservation ID"
// @Param reservation body updateRequest true "New slot"
// @Success 200 {object} models.Reservation "Reservation"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 409 {object} map[string]string "Slot conflict"
// @Router /reservations/{id} [patch]
func (h *Handler) HandleUpdate(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid reservation id"})
	}

	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid request body"})
	}
	start, end, err := ParseSlot(req.StartTime, req.EndTime)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": err.Error()})
	}

	res, err := h.service.Get(c.Context(), uint(id))
	if err != nil {
		l.Error("Reservation lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	if res == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"msg": "reservation not found"})
	}

	room, err := h.service.GetRoom(c.Context(), res.RoomID)
	if err != nil || room == nil {
		l.Error("Room lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	if err := h.service.UpdateTimes(c.Context(), res, room, start, end); err != nil {
		return h.writeBookingError(c, l, err)
	}

	actorID, _ := coreauth.UserID(c)
	h.audit.Record(c.Context(), &actorID, auditmodels.ActionUpdateReservation, "reservation moved", fiber.Map{
		"reservation_id": res.ID,
		"start_time":     res.StartTime,
		"end_time":       res.EndTime,
	})
	return c.JSON(res)
}

// HandleCancel cancels a reservation. Owners can cancel their own;
// teachers and admins can cancel anyone's.
// @Summary Cancel reservation
// @Description Cancel a reservation owned by the caller, or any as staff.
// @Tags reservations
// @Produce json
// @Param id path int true "Reservation ID"
// @Success 200 {object} map[string]string "Cancellation confirmation"
// @Failure 403 {object} map[string]string "Not the owner"
// @Failure 404 {object} map[string]string "Not found"
// @Router /reservations/{id} [delete]
func (h *Handler) HandleCancel(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid reservation id"})
	}

	res, err := h.service.Get(c.Context(), uint(id))
	if err != nil {
		l.Error("Reservation lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	if res == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"msg": "reservation not found"})
	}

	userID, _ := coreauth.UserID(c)
	role := coreauth.Role(c)
	if res.UserID != userID && role != string(authmodels.RoleTeacher) && role != string(authmodels.RoleAdmin) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"msg": "not your reservation"})
	}

	if err := h.service.Cancel(c.Context(), res); err != nil {
		l.Error("Reservation cancel failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	h.audit.Record(c.Context(), &userID, auditmodels.ActionCancelReservation, "reservation cancelled", fiber.Map{
		"reservation_id": res.ID,
	})
	return c.JSON(fiber.Map{"msg": "reservation cancelled"})
}

// HandleRoomHistory returns every reservation a room has had. Teacher
// or admin only.
// @Summary Room history
// @Description Full reservation history for a room, newest first.
// @Tags reservations
// @Produce json
// @Param id path int true "Room ID"
// @Success 200 {array} models.Reservation "Reservations"
// @Failure 404 {object} map[string]string "Room not found"
// @Router /reservations/room/{id}/history [get]
func (h *Handler) HandleRoomHistory(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid room id"})
	}

	room, err := h.service.GetRoom(c.Context(), uint(id))
	if err != nil {
		l.Error("Room lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	if room == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"msg": "room not found"})
	}

	items, err := h.service.History(c.Context(), room.ID)
	if err != nil {
		l.Error("History listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(items)
}

func (h *Handler) writeBookingError(c *fiber.Ctx, l *zap.Logger, err error) error {
	switch {
	case errors.Is(err, ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"msg": err.Error()})
	case errors.Is(err, ErrInvalidRange),
		errors.Is(err, ErrPastStart),
		errors.Is(err, ErrOutsideWindow),
		errors.Is(err, ErrRoomBlocked):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": err.Error()})
	default:
		l.Error("Reservation write failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

// RoleCanBook reports whether the role may book a room of the given type.
// Public rooms are open to everyone, admin rooms to staff, service rooms
// to admins only.
func RoleCanBook(role string, roomType roommodels.RoomType) bool {
	switch roomType {
	case roommodels.TypePublic:
		return true
	case roommodels.TypeAdmin:
		return role == string(authmodels.RoleTeacher) || role == string(authmodels.RoleAdmin)
	case roommodels.TypeService:
		return role == string(authmodels.RoleAdmin)
	default:
		return false
	}
}

// slot time layouts accepted from clients, tried in order.
var slotLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}

// ParseSlot parses a pair of client-supplied slot times into UTC.
func ParseSlot(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := parseSlotTime(startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid start_time")
	}
	end, err := parseSlotTime(endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid end_time")
	}
	return start, end, nil
}

func parseSlotTime(raw string) (time.Time, error) {
	for _, layout := range slotLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("unrecognized time format")
}
