package rooms

import (
	"errors"
	"time"

	"qrbooks/core/logger"
	coreauth "qrbooks/core/middleware/auth"
	auditfeat "qrbooks/feature/audit"
	auditmodels "qrbooks/feature/audit/models"
	authmodels "qrbooks/feature/auth/models"
	"qrbooks/feature/reservations"
	resmodels "qrbooks/feature/reservations/models"
	"qrbooks/feature/rooms/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// freeSlotLookahead bounds how far ahead the room detail view computes
// free windows.
const freeSlotLookahead = 24 * time.Hour

// Handler handles HTTP requests for the room catalog.
type Handler struct {
	service      *Service
	reservations *reservations.Service
	audit        *auditfeat.Service
	tokens       *coreauth.Manager
	logger       *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, res *reservations.Service, audit *auditfeat.Service, tokens *coreauth.Manager, logger *zap.Logger) *Handler {
	return &Handler{service: service, reservations: res, audit: audit, tokens: tokens, logger: logger}
}

// RegisterRoutes registers the room routes. Listings are public so the
// QR landing page works without a session; writes require a token.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/rooms")
	group.Get("/", coreauth.Optional(h.tokens), h.HandleList)
	group.Get("/:id", coreauth.Optional(h.tokens), h.HandleDetail)
	group.Get("/:id/qr.png", h.HandleQRImage)
	group.Post("/", coreauth.New(h.tokens), coreauth.RequireRoles(string(authmodels.RoleAdmin)), h.HandleCreate)
	group.Post("/:id/reserve", coreauth.New(h.tokens), h.HandleReserve)
}

// ReservationSlot is the compact booking representation embedded in
// room views.
type ReservationSlot struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// RoomView is a room with its derived live status.
type RoomView struct {
	models.Room
	Status  string           `json:"status"`
	Current *ReservationSlot `json:"current_reservation"`
	Next    *ReservationSlot `json:"next_reservation"`
}

// RoomDetail extends RoomView with the schedule and free windows.
type RoomDetail struct {
	RoomView
	Schedule  []ReservationSlot     `json:"schedule"`
	FreeSlots []reservations.Window `json:"free_slots"`
}

type createRoomRequest struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	BookingStart *string `json:"booking_start"`
	BookingEnd   *string `json:"booking_end"`
}

type reserveRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// HandleList returns every room with its live status.
// @Summary List rooms
// @Description All rooms with derived status, current and next booking.
// @Tags rooms
// @Produce json
// @Success 200 {array} RoomView "Rooms"
// @Router /rooms [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	rooms, err := h.service.List(c.Context())
	if err != nil {
		l.Error("Room listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	now := time.Now().UTC()
	views := make([]RoomView, 0, len(rooms))
	for i := range rooms {
		view, err := h.buildView(c, &rooms[i], now)
		if err != nil {
			l.Error("Room status resolution failed", zap.Uint("room_id", rooms[i].ID), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		}
		views = append(views, *view)
	}
	return c.JSON(views)
}

// HandleDetail returns one room with its schedule and free windows.
// @Summary Room detail
// @Description One room with live status, schedule and 24h free slots.
// @Tags rooms
// @Produce json
// @Param id path int true "Room ID"
// @Success 200 {object} RoomDetail "Room detail"
// @Failure 404 {object} map[string]string "Room not found"
// @Router /rooms/{id} [get]
func (h *Handler) HandleDetail(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	room, ok, err := h.lookupRoom(c)
	if err != nil {
		l.Error("Room lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	if !ok {
		return nil
	}

	now := time.Now().UTC()
	view, err := h.buildView(c, room, now)
	if err != nil {
		l.Error("Room status resolution failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	schedule, err := h.reservations.Schedule(c.Context(), room.ID)
	if err != nil {
		l.Error("Schedule listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	free, err := h.reservations.FreeWindows(c.Context(), room, now, freeSlotLookahead)
	if err != nil {
		l.Error("Free slot computation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	detail := RoomDetail{
		RoomView:  *view,
		Schedule:  make([]ReservationSlot, 0, len(schedule)),
		FreeSlots: free,
	}
	for i := range schedule {
		detail.Schedule = append(detail.Schedule, toSlot(&schedule[i]))
	}
	return c.JSON(detail)
}

// HandleQRImage streams the room's QR code PNG from object storage.
// @Summary Room QR code
// @Description PNG image encoding the room's booking page URL.
// @Tags rooms
// @Produce png
// @Param id path int true "Room ID"
// @Success 200 {file} binary "PNG image"
// @Failure 404 {object} map[string]string "Room or code not found"
// @Router /rooms/{id}/qr.png [get]
func (h *Handler) HandleQRImage(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	room, ok, err := h.lookupRoom(c)
	if err != nil {
		l.Error("Room lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	if !ok {
		return nil
	}

	obj, err := h.service.qr.Fetch(c.Context(), room.ID)
	if err != nil {
		l.Warn("QR image fetch failed", zap.Uint("room_id", room.ID), zap.Error(err))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"msg": "qr code not found"})
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.SendStream(obj)
}

// HandleCreate adds a room to the catalog. Admin only.
// @Summary Create room
// @Description Create a room and generate its QR code.
// @Tags rooms
// @Accept json
// @Produce json
// @Param room body createRoomRequest true "New room"
// @Success 201 {object} models.Room "Room"
// @Failure 400 {object} map[string]string "Validation failure"
// @Failure 409 {object} map[string]string "Name taken"
// @Router /rooms [post]
func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var req createRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid request body"})
	}

	roomType := models.RoomType(req.Type)
	if req.Type == "" {
		roomType = models.TypePublic
	}

	room, err := h.service.Create(c.Context(), CreateParams{
		Name:         req.Name,
		Type:         roomType,
		BookingStart: req.BookingStart,
		BookingEnd:   req.BookingEnd,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrRoomExists):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"msg": err.Error()})
		case errors.Is(err, ErrInvalidType), errors.Is(err, ErrInvalidWindow):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": err.Error()})
		default:
			l.Error("Room creation failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		}
	}

	actorID, _ := coreauth.UserID(c)
	h.audit.Record(c.Context(), &actorID, auditmodels.ActionUpdateRoom, "room created", fiber.Map{
		"room_id": room.ID,
		"name":    room.Name,
		"type":    room.Type,
	})
	return c.Status(fiber.StatusCreated).JSON(room)
}

// HandleReserve books the room for the caller, the endpoint behind the
// QR code's booking page.
// @Summary Reserve room
// @Description Book a slot in this room for the authenticated user.
// @Tags rooms
// @Accept json
// @Produce json
// @Param id path int true "Room ID"
// @Param slot body reserveRequest true "Slot to book"
// @Success 201 {object} resmodels.Reservation "Reservation"
// @Failure 400 {object} map[string]string "Validation failure"
// @Failure 403 {object} map[string]string "Room not bookable"
// @Failure 409 {object} map[string]string "Slot conflict"
// @Router /rooms/{id}/reserve [post]
func (h *Handler) HandleReserve(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	room, ok, err := h.lookupRoom(c)
	if err != nil {
		l.Error("Room lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	if !ok {
		return nil
	}

	if !reservations.RoleCanBook(coreauth.Role(c), room.Type) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"msg": "room is not bookable with your role"})
	}

	var req reserveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid request body"})
	}
	start, end, err := reservations.ParseSlot(req.StartTime, req.EndTime)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": err.Error()})
	}

	userID, _ := coreauth.UserID(c)
	res, err := h.reservations.Create(c.Context(), room, userID, start, end)
	if err != nil {
		switch {
		case errors.Is(err, reservations.ErrConflict):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"msg": err.Error()})
		case errors.Is(err, reservations.ErrInvalidRange),
			errors.Is(err, reservations.ErrPastStart),
			errors.Is(err, reservations.ErrOutsideWindow),
			errors.Is(err, reservations.ErrRoomBlocked):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": err.Error()})
		default:
			l.Error("Reservation create failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		}
	}

	h.audit.Record(c.Context(), &userID, auditmodels.ActionCreateReservation, "reservation created via room page", fiber.Map{
		"reservation_id": res.ID,
		"room_id":        room.ID,
	})
	return c.Status(fiber.StatusCreated).JSON(res)
}

// lookupRoom resolves the :id route parameter. When the second return
// value is false the response has already been written.
func (h *Handler) lookupRoom(c *fiber.Ctx) (*models.Room, bool, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return nil, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid room id"})
	}

	room, err := h.service.Get(c.Context(), uint(id))
	if err != nil {
		return nil, false, err
	}
	if room == nil {
		return nil, false, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"msg": "room not found"})
	}
	return room, true, nil
}

func (h *Handler) buildView(c *fiber.Ctx, room *models.Room, now time.Time) (*RoomView, error) {
	view := &RoomView{Room: *room, Status: models.StatusAvailable}

	current, err := h.reservations.CurrentActive(c.Context(), room.ID, now)
	if err != nil {
		return nil, err
	}
	next, err := h.reservations.NextAfter(c.Context(), room.ID, now)
	if err != nil {
		return nil, err
	}

	if current != nil {
		slot := toSlot(current)
		view.Current = &slot
	}
	if next != nil {
		slot := toSlot(next)
		view.Next = &slot
	}

	switch {
	case room.IsBlocked:
		view.Status = models.StatusBlocked
	case current != nil:
		view.Status = models.StatusOccupied
	}
	return view, nil
}

func toSlot(res *resmodels.Reservation) ReservationSlot {
	slot := ReservationSlot{
		ID:        res.ID,
		UserID:    res.UserID,
		StartTime: res.StartTime,
		EndTime:   res.EndTime,
	}
	if res.User != nil {
		slot.UserName = res.User.Name
	}
	return slot
}
