package admin

import (
	"errors"
	"strings"

	"qrbooks/core/logger"
	coreauth "qrbooks/core/middleware/auth"
	"qrbooks/core/utils"
	auditfeat "qrbooks/feature/audit"
	auditmodels "qrbooks/feature/audit/models"
	authfeat "qrbooks/feature/auth"
	authmodels "qrbooks/feature/auth/models"
	"qrbooks/feature/reservations"
	resmodels "qrbooks/feature/reservations/models"
	"qrbooks/feature/rooms"
	roommodels "qrbooks/feature/rooms/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles the admin console API. Every route requires the admin
// role.
type Handler struct {
	rooms        *rooms.Service
	reservations *reservations.Service
	users        *authfeat.Service
	audit        *auditfeat.Service
	stats        *Service
	tokens       *coreauth.Manager
	logger       *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(roomSvc *rooms.Service, resSvc *reservations.Service, userSvc *authfeat.Service, auditSvc *auditfeat.Service, stats *Service, tokens *coreauth.Manager, logger *zap.Logger) *Handler {
	return &Handler{
		rooms:        roomSvc,
		reservations: resSvc,
		users:        userSvc,
		audit:        auditSvc,
		stats:        stats,
		tokens:       tokens,
		logger:       logger,
	}
}

// RegisterRoutes registers the admin routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/admin",
		coreauth.New(h.tokens),
		coreauth.RequireRoles(string(authmodels.RoleAdmin)))

	group.Get("/rooms", h.HandleSearchRooms)
	group.Post("/rooms", h.HandleCreateRoom)
	group.Patch("/rooms/:id", h.HandlePatchRoom)
	group.Post("/rooms/bulk-block", h.HandleBulkBlock)
	group.Post("/rooms/:id/generate-qr", h.HandleGenerateQR)
	group.Post("/rooms/:id/reserve", h.HandleReserveForUser)

	group.Get("/reservations", h.HandleSearchReservations)
	group.Patch("/reservations/:id", h.HandlePatchReservation)
	group.Post("/reservations/bulk-cancel", h.HandleBulkCancel)

	group.Get("/users", h.HandleSearchUsers)
	group.Post("/users", h.HandleCreateUser)
	group.Patch("/users/:id", h.HandlePatchUser)
	group.Post("/users/:id/reset-password", h.HandleResetPassword)

	group.Get("/audit", h.HandleAuditLog)
	group.Get("/stats", h.HandleStats)
}

// pagedResponse wraps a result page with its metadata.
type pagedResponse struct {
	Items any            `json:"items"`
	Meta  utils.PageMeta `json:"meta"`
}

// HandleSearchRooms returns a filtered page of rooms.
// @Summary Search rooms
// @Description Paginated room search with name, type and status filters.
// @Tags admin
// @Produce json
// @Param q query string false "Name fragment"
// @Param type query string false "Comma separated room types"
// @Param status query string false "available, occupied or blocked"
// @Param page query int false "Page number"
// @Param per_page query int false "Page size"
// @Success 200 {object} pagedResponse "Rooms"
// @Router /admin/rooms [get]
func (h *Handler) HandleSearchRooms(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	params := rooms.SearchParams{
		Query:   c.Query("q"),
		Status:  c.Query("status"),
		Page:    c.QueryInt("page"),
		PerPage: c.QueryInt("per_page"),
	}
	for _, raw := range splitList(c.Query("type")) {
		params.Types = append(params.Types, roommodels.RoomType(raw))
	}

	items, meta, err := h.rooms.Search(c.Context(), params)
	if err != nil {
		l.Error("Room search failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(pagedResponse{Items: items, Meta: meta})
}

type createRoomRequest struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	BookingStart *string `json:"booking_start"`
	BookingEnd   *string `json:"booking_end"`
}

// HandleCreateRoom creates a room, mirroring POST /rooms for console use.
// @Summary Create room
// @Description Create a room and generate its QR code.
// @Tags admin
// @Accept json
// @Produce json
// @Param room body createRoomRequest true "New room"
// @Success 201 {object} roommodels.Room "Room"
// @Router /admin/rooms [post]
func (h *Handler) HandleCreateRoom(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var req createRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid request body"})
	}

	roomType := roommodels.RoomType(req.Type)
	if req.Type == "" {
		roomType = roommodels.TypePublic
	}

	room, err := h.rooms.Create(c.Context(), rooms.CreateParams{
		Name:         req.Name,
		Type:         roomType,
		BookingStart: req.BookingStart,
		BookingEnd:   req.BookingEnd,
	})
	if err != nil {
		return h.writeRoomError(c, l, err)
	}

	h.recordAction(c, auditmodels.ActionUpdateRoom, "room created", fiber.Map{"room_id": room.ID, "name": room.Name})
	return c.Status(fiber.StatusCreated).JSON(room)
}

type patchRoomRequest struct {
	Name         *string  `json:"name"`
	Type         *string  `json:"type"`
	IsBlocked    *bool    `json:"is_blocked"`
	BookingStart **string `json:"booking_start"`
	BookingEnd   **string `json:"booking_end"`
}

// HandlePatchRoom applies partial changes to a room.
// @Summary Patch room
// @Description Update name, type, block flag or booking window.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Room ID"
// @Param room body patchRoomRequest true "Changes"
// @Success 200 {object} roommodels.Room "Room"
// @Router /admin/rooms/{id} [patch]
func (h *Handler) HandlePatchRoom(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	room, ok, err := h.lookupRoom(c)
	if err != nil {
		l.Error("Room lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	if !ok {
		return nil
	}

	var req patchRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid request body"})
	}

	params := rooms.UpdateParams{
		Name:         req.Name,
		IsBlocked:    req.IsBlocked,
		BookingStart: req.BookingStart,
		BookingEnd:   req.BookingEnd,
	}
	if req.Type != nil {
		roomType := roommodels.RoomType(*req.Type)
		params.Type = &roomType
	}

	if err := h.rooms.Update(c.Context(), room, params); err != nil {
		return h.writeRoomError(c, l, err)
	}

	h.recordAction(c, auditmodels.ActionUpdateRoom, "room updated", fiber.Map{"room_id": room.ID})
	return c.JSON(room)
}

type bulkBlockRequest struct {
	IDs     []uint `json:"ids"`
	Blocked bool   `json:"blocked"`
}

// HandleBulkBlock blocks or unblocks a set of rooms at once.
// @Summary Bulk block rooms
// @Description Set the block flag on many rooms in one call.
// @Tags admin
// @Accept json
// @Produce json
// @Param rooms body bulkBlockRequest true "Room ids and target flag"
// @Success 200 {object} map[string]int64 "Changed row count"
// @Router /admin/rooms/bulk-block [post]
func (h *Handler) HandleBulkBlock(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var req bulkBlockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid request body"})
	}

	changed, err := h.rooms.BulkSetBlocked(c.Context(), req.IDs, req.Blocked)
	if err != nil {
		l.Error("Bulk block failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	h.recordAction(c, auditmodels.ActionUpdateRoom, "rooms bulk blocked", fiber.Map{"ids": req.IDs, "blocked": req.Blocked})
	return c.JSON(fiber.Map{"changed": changed})
}

// HandleGenerateQR regenerates a room's QR code.
// @Summary Regenerate QR
// @Description Re-render and re-upload the room's QR code image.
// @Tags admin
// @Produce json
// @Param id path int true "Room ID"
// @Success 200 {object} roommodels.Room "Room with fresh QR URL"
// @Router /admin/rooms/{id}/generate-qr [post]
func (h *Handler) HandleGenerateQR(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	room, ok, err := h.lookupRoom(c)
	if err != nil {
		l.Error("Room lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	if !ok {
		return nil
	}

	if err := h.rooms.SyncQR(c.Context(), room); err != nil {
		l.Error("QR regeneration failed", zap.Uint("room_id", room.ID), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "qr generation failed"})
	}

	h.recordAction(c, auditmodels.ActionUpdateRoom, "qr regenerated", fiber.Map{"room_id": room.ID})
	return c.JSON(room)
}

type reserveForUserRequest struct {
	UserID    uint   `json:"user_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// HandleReserveForUser books a room on behalf of another user.
// @Summary Reserve for user
// @Description Book a slot in the room for the given user.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Room ID"
// @Param reservation body reserveForUserRequest true "User and slot"
// @Success 201 {object} resmodels.Reservation "Reservation"
// @Router /admin/rooms/{id}/reserve [post]
func (h *Handler) HandleReserveForUser(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	room, ok, err := h.lookupRoom(c)
	if err != nil {
		l.Error("Room lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	if !ok {
		return nil
	}

	var req reserveForUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid request body"})
	}

	user, err := h.users.GetByID(c.Context(), req.UserID)
	if err != nil {
		l.Error("User lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	if user == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"msg": "user not found"})
	}

	start, end, err := reservations.ParseSlot(req.StartTime, req.EndTime)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": err.Error()})
	}

	res, err := h.reservations.Create(c.Context(), room, user.ID, start, end)
	if err != nil {
		return h.writeReservationError(c, l, err)
	}

	h.recordAction(c, auditmodels.ActionCreateReservation, "reservation created for user", fiber.Map{
		"reservation_id": res.ID,
		"room_id":        room.ID,
		"user_id":        user.ID,
	})
	return c.Status(fiber.StatusCreated).JSON(res)
}

// HandleSearchReservations returns a filtered page of reservations.
// @Summary Search reservations
// @Description Paginated reservation search with text, room, user, status
// @Description and time range filters.
// @Tags admin
// @Produce json
// @Param q query string false "Room or user name fragment"
// @Param room_id query int false "Room filter"
// @Param user_id query int false "User filter"
// @Param status query string false "Comma separated statuses"
// @Param from query string false "Overlap window start (RFC 3339)"
// @Param until query string false "Overlap window end (RFC 3339)"
// @Param page query int false "Page number"
// @Param per_page query int false "Page size"
// @Success 200 {object} pagedResponse "Reservations"
// @Router /admin/reservations [get]
func (h *Handler) HandleSearchReservations(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	params := reservations.SearchParams{
		Query:   c.Query("q"),
		Page:    c.QueryInt("page"),
		PerPage: c.QueryInt("per_page"),
	}
	if id := c.QueryInt("room_id"); id > 0 {
		roomID := uint(id)
		params.RoomID = &roomID
	}
	if id := c.QueryInt("user_id"); id > 0 {
		userID := uint(id)
		params.UserID = &userID
	}
	for _, raw := range splitList(c.Query("status")) {
		params.Statuses = append(params.Statuses, resmodels.ReservationStatus(raw))
	}
	if raw := c.Query("from"); raw != "" {
		from, _, err := reservations.ParseSlot(raw, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid from"})
		}
		params.From = &from
	}
	if raw := c.Query("until"); raw != "" {
		until, _, err := reservations.ParseSlot(raw, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid until"})
		}
		params.Until = &until
	}

	items, meta, err := h.reservations.Search(c.Context(), params)
	if err != nil {
		l.Error("Reservation search failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(pagedResponse{Items: items, Meta: meta})
}

type patchReservationRequest struct {
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	UserID    *uint   `json:"user_id"`
	Status    *string `json:"status"`
}

// HandlePatchReservation moves, reassigns or restates a reservation.
// @Summary Patch reservation
// @Description Update times (conflict checked), owner or status.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Reservation ID"
// @Param reservation body patchReservationRequest true "Changes"
// @Success 200 {object} resmodels.Reservation "Reservation"
// @Router /admin/reservations/{id} [patch]
func (h *Handler) HandlePatchReservation(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid reservation id"})
	}

	res, err := h.reservations.Get(c.Context(), uint(id))
	if err != nil {
		l.Error("Reservation lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	if res == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"msg": "reservation not found"})
	}

	var req patchReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid request body"})
	}

	if req.StartTime != nil || req.EndTime != nil {
		if req.StartTime == nil || req.EndTime == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "start_time and end_time must be set together"})
		}
		start, end, err := reservations.ParseSlot(*req.StartTime, *req.EndTime)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": err.Error()})
		}
		room, err := h.reservations.GetRoom(c.Context(), res.RoomID)
		if err != nil || room == nil {
			l.Error("Room lookup failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		}
		if err := h.reservations.UpdateTimes(c.Context(), res, room, start, end); err != nil {
			return h.writeReservationError(c, l, err)
		}
	}

	if req.UserID != nil {
		user, err := h.users.GetByID(c.Context(), *req.UserID)
		if err != nil {
			l.Error("User lookup failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		}
		if user == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"msg": "user not found"})
		}
		if err := h.reservations.Reassign(c.Context(), res, user.ID); err != nil {
			l.Error("Reservation reassign failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		}
	}

	if req.Status != nil {
		if err := h.reservations.SetStatus(c.Context(), res, resmodels.ReservationStatus(*req.Status)); err != nil {
			if errors.Is(err, reservations.ErrInvalidStatus) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": err.Error()})
			}
			l.Error("Reservation status update failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		}
	}

	h.recordAction(c, auditmodels.ActionUpdateReservation, "reservation updated", fiber.Map{"reservation_id": res.ID})
	return c.JSON(res)
}

type bulkCancelRequest struct {
	IDs []uint `json:"ids"`
}

// HandleBulkCancel cancels a set of active reservations at once.
// @Summary Bulk cancel reservations
// @Description Cancel many active reservations in one call.
// @Tags admin
// @Accept json
// @Produce json
// @Param reservations body bulkCancelRequest true "Reservation ids"
// @Success 200 {object} map[string]int64 "Changed row count"
// @Router /admin/reservations/bulk-cancel [post]
func (h *Handler) HandleBulkCancel(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var req bulkCancelRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid request body"})
	}

	changed, err := h.reservations.BulkCancel(c.Context(), req.IDs)
	if err != nil {
		l.Error("Bulk cancel failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	h.recordAction(c, auditmodels.ActionCancelReservation, "reservations bulk cancelled", fiber.Map{"ids": req.IDs})
	return c.JSON(fiber.Map{"changed": changed})
}

// HandleSearchUsers returns a filtered page of user accounts.
// @Summary Search users
// @Description Paginated user search with name and role filters.
// @Tags admin
// @Produce json
// @Param q query string false "Name fragment"
// @Param role query string false "Comma separated roles"
// @Param page query int false "Page number"
// @Param per_page query int false "Page size"
// @Success 200 {object} pagedResponse "Users"
// @Router /admin/users [get]
func (h *Handler) HandleSearchUsers(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	params := authfeat.SearchParams{
		Query:   c.Query("q"),
		Page:    c.QueryInt("page"),
		PerPage: c.QueryInt("per_page"),
	}
	for _, raw := range splitList(c.Query("role")) {
		params.Roles = append(params.Roles, authmodels.UserRole(raw))
	}

	items, meta, err := h.users.Search(c.Context(), params)
	if err != nil {
		l.Error("User search failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(pagedResponse{Items: items, Meta: meta})
}

type createUserRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// HandleCreateUser creates an account with any role.
// @Summary Create user
// @Description Create an account from the admin console.
// @Tags admin
// @Accept json
// @Produce json
// @Param user body createUserRequest true "New account"
// @Success 201 {object} authmodels.User "Account"
// @Router /admin/users [post]
func (h *Handler) HandleCreateUser(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid request body"})
	}

	role := authmodels.UserRole(req.Role)
	if req.Role == "" {
		role = authmodels.RoleStudent
	}

	user, err := h.users.Create(c.Context(), req.Name, req.Password, role)
	if err != nil {
		return h.writeUserError(c, l, err)
	}

	h.recordAction(c, auditmodels.ActionCreateUser, "user created", fiber.Map{"user_id": user.ID, "role": user.Role})
	return c.Status(fiber.StatusCreated).JSON(user)
}

type patchUserRequest struct {
	Name *string `json:"name"`
	Role *string `json:"role"`
}

// HandlePatchUser renames a user or changes their role.
// @Summary Patch user
// @Description Update a user's name or role.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param user body patchUserRequest true "Changes"
// @Success 200 {object} authmodels.User "Account"
// @Router /admin/users/{id} [patch]
func (h *Handler) HandlePatchUser(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	user, ok, err := h.lookupUser(c)
	if err != nil {
		l.Error("User lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	if !ok {
		return nil
	}

	var req patchUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid request body"})
	}

	params := authfeat.UpdateParams{Name: req.Name}
	if req.Role != nil {
		role := authmodels.UserRole(*req.Role)
		params.Role = &role
	}

	if err := h.users.Update(c.Context(), user, params); err != nil {
		return h.writeUserError(c, l, err)
	}

	h.recordAction(c, auditmodels.ActionCreateUser, "user updated", fiber.Map{"user_id": user.ID})
	return c.JSON(user)
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// HandleResetPassword replaces a user's password.
// @Summary Reset password
// @Description Set a new password for the user.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param password body resetPasswordRequest true "New password"
// @Success 200 {object} map[string]string "Confirmation"
// @Router /admin/users/{id}/reset-password [post]
func (h *Handler) HandleResetPassword(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	user, ok, err := h.lookupUser(c)
	if err != nil {
		l.Error("User lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	if !ok {
		return nil
	}

	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid request body"})
	}

	if err := h.users.SetPassword(c.Context(), user, req.Password); err != nil {
		return h.writeUserError(c, l, err)
	}

	h.recordAction(c, auditmodels.ActionCreateUser, "password reset", fiber.Map{"user_id": user.ID})
	return c.JSON(fiber.Map{"msg": "password updated"})
}

// HandleAuditLog returns the most recent audit entries.
// @Summary Audit log
// @Description Most recent audit entries, newest first.
// @Tags admin
// @Produce json
// @Param limit query int false "Maximum entries"
// @Success 200 {array} auditmodels.AuditLog "Entries"
// @Router /admin/audit [get]
func (h *Handler) HandleAuditLog(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	entries, err := h.audit.ListRecent(c.Context(), c.QueryInt("limit"))
	if err != nil {
		l.Error("Audit listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(entries)
}

// HandleStats returns the dashboard snapshot.
// @Summary Dashboard stats
// @Description Room, reservation and user counters for the dashboard.
// @Tags admin
// @Produce json
// @Success 200 {object} Stats "Snapshot"
// @Router /admin/stats [get]
func (h *Handler) HandleStats(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	stats, err := h.stats.Snapshot(c.Context())
	if err != nil {
		l.Error("Stats snapshot failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(stats)
}

func (h *Handler) lookupRoom(c *fiber.Ctx) (*roommodels.Room, bool, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return nil, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid room id"})
	}
	room, err := h.rooms.Get(c.Context(), uint(id))
	if err != nil {
		return nil, false, err
	}
	if room == nil {
		return nil, false, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"msg": "room not found"})
	}
	return room, true, nil
}

func (h *Handler) lookupUser(c *fiber.Ctx) (*authmodels.User, bool, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return nil, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid user id"})
	}
	user, err := h.users.GetByID(c.Context(), uint(id))
	if err != nil {
		return nil, false, err
	}
	if user == nil {
		return nil, false, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"msg": "user not found"})
	}
	return user, true, nil
}

func (h *Handler) recordAction(c *fiber.Ctx, action auditmodels.AuditAction, description string, payload any) {
	actorID, _ := coreauth.UserID(c)
	h.audit.Record(c.Context(), &actorID, action, description, payload)
}

func (h *Handler) writeRoomError(c *fiber.Ctx, l *zap.Logger, err error) error {
	switch {
	case errors.Is(err, rooms.ErrRoomExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"msg": err.Error()})
	case errors.Is(err, rooms.ErrInvalidType), errors.Is(err, rooms.ErrInvalidWindow):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": err.Error()})
	default:
		l.Error("Room write failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

func (h *Handler) writeReservationError(c *fiber.Ctx, l *zap.Logger, err error) error {
	switch {
	case errors.Is(err, reservations.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"msg": err.Error()})
	case errors.Is(err, reservations.ErrInvalidRange),
		errors.Is(err, reservations.ErrPastStart),
		errors.Is(err, reservations.ErrOutsideWindow),
		errors.Is(err, reservations.ErrRoomBlocked):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": err.Error()})
	default:
		l.Error("Reservation write failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

func (h *Handler) writeUserError(c *fiber.Ctx, l *zap.Logger, err error) error {
	switch {
	case errors.Is(err, authfeat.ErrUserExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"msg": err.Error()})
	case errors.Is(err, authfeat.ErrWeakPassword), errors.Is(err, authfeat.ErrInvalidRole):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": err.Error()})
	default:
		l.Error("User write failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
