package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qrbooks/core/utils"
	"qrbooks/feature/reservations/models"
	roommodels "qrbooks/feature/rooms/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Validation errors returned by the reservation service.
var (
	ErrConflict      = errors.New("reservation conflicts with an existing booking")
	ErrInvalidRange  = errors.New("start time must be before end time")
	ErrPastStart     = errors.New("start time must not be in the past")
	ErrOutsideWindow = errors.New("reservation is outside the room's booking window")
	ErrRoomBlocked   = errors.New("room is blocked for maintenance")
	ErrInvalidStatus = errors.New("unknown reservation status")
)

// clockLayout is the "HH:MM" layout used by room booking windows.
const clockLayout = "15:04"

// Service handles reservation lifecycle and availability queries.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a new reservation service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Get returns the reservation with the given id including its room and
// user, or nil when no such reservation exists.
func (s *Service) Get(ctx context.Context, id uint) (*models.Reservation, error) {
	var res models.Reservation
	err := s.db.WithContext(ctx).
		Preload("Room").
		Preload("User").
		First(&res, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// GetRoom returns the room with the given id, or nil when no such room
// exists. Kept here so handlers in this package need no room service.
func (s *Service) GetRoom(ctx context.Context, id uint) (*roommodels.Room, error) {
	var room roommodels.Room
	err := s.db.WithContext(ctx).First(&room, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// Create validates and books a reservation for the room. The overlap
// check and the insert run in one transaction; on MySQL the check locks
// matching rows so two clients cannot book the same slot concurrently.
func (s *Service) Create(ctx context.Context, room *roommodels.Room, userID uint, start, end time.Time) (*models.Reservation, error) {
	start, end = start.UTC(), end.UTC()
	if err := s.validate(room, start, end, time.Now().UTC()); err != nil {
		return nil, err
	}

	res := models.Reservation{
		RoomID:    room.ID,
		UserID:    userID,
		StartTime: start,
		EndTime:   end,
		Status:    models.StatusActive,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.conflictCheck(tx, room.ID, start, end, 0); err != nil {
			return err
		}
		return tx.Create(&res).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Two identical slots raced past the overlap check; the unique
		// index on (room_id, start_time, end_time) caught the loser.
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reservation created",
		zap.Uint("reservation_id", res.ID),
		zap.Uint("room_id", room.ID),
		zap.Uint("user_id", userID))
	return &res, nil
}

// UpdateTimes moves an existing reservation to a new slot, re-running
// the conflict check against everything except the reservation itself.
func (s *Service) UpdateTimes(ctx context.Context, res *models.Reservation, room *roommodels.Room, start, end time.Time) error {
	start, end = start.UTC(), end.UTC()
	if err := s.validate(room, start, end, time.Now().UTC()); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.conflictCheck(tx, res.RoomID, start, end, res.ID); err != nil {
			return err
		}
		res.StartTime = start
		res.EndTime = end
		return tx.Model(res).Updates(map[string]any{
			"start_time": start,
			"end_time":   end,
		}).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}

// Cancel marks the reservation cancelled. Cancelling twice is a no-op.
func (s *Service) Cancel(ctx context.Context, res *models.Reservation) error {
	if res.Status == models.StatusCancelled {
		return nil
	}
	res.Status = models.StatusCancelled
	return s.db.WithContext(ctx).Model(res).Update("status", models.StatusCancelled).Error
}

// SetStatus forces a reservation into the given status.
func (s *Service) SetStatus(ctx context.Context, res *models.Reservation, status models.ReservationStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	res.Status = status
	return s.db.WithContext(ctx).Model(res).Update("status", status).Error
}

// Reassign transfers the reservation to another user.
func (s *Service) Reassign(ctx context.Context, res *models.Reservation, userID uint) error {
	res.UserID = userID
	return s.db.WithContext(ctx).Model(res).Update("user_id", userID).Error
}

// BulkCancel cancels every listed active reservation and returns how
// many rows changed.
func (s *Service) BulkCancel(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id IN ? AND status = ?", ids, models.StatusActive).
		Update("status", models.StatusCancelled)
	return result.RowsAffected, result.Error
}

// MarkFinished flips active reservations whose end time has passed to
// finished. It returns how many rows changed.
func (s *Service) MarkFinished(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("status = ? AND end_time <= ?", models.StatusActive, now.UTC()).
		Update("status", models.StatusFinished)
	return result.RowsAffected, result.Error
}

// CurrentActive returns the active reservation covering the instant, or
// nil when the room is free at that time.
func (s *Service) CurrentActive(ctx context.Context, roomID uint, at time.Time) (*models.Reservation, error) {
	var res models.Reservation
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("room_id = ? AND status = ? AND start_time <= ? AND end_time > ?",
			roomID, models.StatusActive, at.UTC(), at.UTC()).
		Order("start_time ASC").
		First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// NextAfter returns the next active reservation starting after the
// instant, or nil when nothing is scheduled.
func (s *Service) NextAfter(ctx context.Context, roomID uint, after time.Time) (*models.Reservation, error) {
	var res models.Reservation
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("room_id = ? AND status = ? AND start_time > ?",
			roomID, models.StatusActive, after.UTC()).
		Order("start_time ASC").
		First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Schedule returns the room's active reservations in chronological order.
func (s *Service) Schedule(ctx context.Context, roomID uint) ([]models.Reservation, error) {
	var items []models.Reservation
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("room_id = ? AND status = ?", roomID, models.StatusActive).
		Order("start_time ASC").
		Find(&items).Error
	return items, err
}

// History returns every reservation the room has ever had, newest first.
func (s *Service) History(ctx context.Context, roomID uint) ([]models.Reservation, error) {
	var items []models.Reservation
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("room_id = ?", roomID).
		Order("start_time DESC").
		Find(&items).Error
	return items, err
}

// ForUser returns the user's reservations, newest first.
func (s *Service) ForUser(ctx context.Context, userID uint) ([]models.Reservation, error) {
	var items []models.Reservation
	err := s.db.WithContext(ctx).
		Preload("Room").
		Where("user_id = ?", userID).
		Order("start_time DESC").
		Find(&items).Error
	return items, err
}

// Window is a free interval between bookings.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// FreeWindows computes the gaps between active reservations within
// [from, from+lookahead), clipped to the room's booking window hours.
func (s *Service) FreeWindows(ctx context.Context, room *roommodels.Room, from time.Time, lookahead time.Duration) ([]Window, error) {
	from = from.UTC()
	horizon := from.Add(lookahead)

	var booked []models.Reservation
	err := s.db.WithContext(ctx).
		Where("room_id = ? AND status = ? AND start_time < ? AND end_time > ?",
			room.ID, models.StatusActive, horizon, from).
		Order("start_time ASC").
		Find(&booked).Error
	if err != nil {
		return nil, err
	}

	windows := make([]Window, 0, len(booked)+1)
	cursor := from
	for _, res := range booked {
		if res.StartTime.After(cursor) {
			windows = append(windows, Window{Start: cursor, End: res.StartTime})
		}
		if res.EndTime.After(cursor) {
			cursor = res.EndTime
		}
	}
	if cursor.Before(horizon) {
		windows = append(windows, Window{Start: cursor, End: horizon})
	}
	return windows, nil
}

// SearchParams filters the paginated reservation listing.
type SearchParams struct {
	Query    string
	RoomID   *uint
	UserID   *uint
	Statuses []models.ReservationStatus
	From     *time.Time
	Until    *time.Time
	Page     int
	PerPage  int
}

// Search returns a page of reservations matching the filters, newest
// first, with rooms and users preloaded.
func (s *Service) Search(ctx context.Context, params SearchParams) ([]models.Reservation, utils.PageMeta, error) {
	page, perPage := utils.NormalizePage(params.Page, params.PerPage)

	query := s.db.WithContext(ctx).Model(&models.Reservation{})
	if params.Query != "" {
		token := "%" + utils.LowerToken(params.Query) + "%"
		query = query.Where(
			"room_id IN (SELECT id FROM rooms WHERE LOWER(name) LIKE ?) OR user_id IN (SELECT id FROM users WHERE LOWER(name) LIKE ?)",
			token, token)
	}
	if params.RoomID != nil {
		query = query.Where("room_id = ?", *params.RoomID)
	}
	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if len(params.Statuses) > 0 {
		query = query.Where("status IN ?", params.Statuses)
	}
	if params.From != nil {
		query = query.Where("end_time > ?", params.From.UTC())
	}
	if params.Until != nil {
		query = query.Where("start_time < ?", params.Until.UTC())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, utils.PageMeta{}, err
	}

	var items []models.Reservation
	err := query.
		Preload("Room").
		Preload("User").
		Order("start_time DESC").
		Offset(utils.PageOffset(page, perPage)).
		Limit(perPage).
		Find(&items).Error
	if err != nil {
		return nil, utils.PageMeta{}, err
	}

	return items, utils.NewPageMeta(page, perPage, total), nil
}

// validate rejects slots that are inverted, already past, on a blocked
// room, or outside the room's booking window.
func (s *Service) validate(room *roommodels.Room, start, end, now time.Time) error {
	if !start.Before(end) {
		return ErrInvalidRange
	}
	if start.Before(now) {
		return ErrPastStart
	}
	if room.IsBlocked {
		return ErrRoomBlocked
	}
	return checkBookingWindow(room, start, end)
}

// checkBookingWindow enforces the room's "HH:MM" daily window. The
// clock strings compare correctly as plain strings, so no parsing is
// needed beyond formatting the slot times.
func checkBookingWindow(room *roommodels.Room, start, end time.Time) error {
	if room.BookingStart == nil && room.BookingEnd == nil {
		return nil
	}
	// Multi-day slots cannot fit inside a daily window.
	if start.Format("2006-01-02") != end.Format("2006-01-02") {
		return ErrOutsideWindow
	}

	startClock := start.Format(clockLayout)
	endClock := end.Format(clockLayout)
	if room.BookingStart != nil && startClock < *room.BookingStart {
		return ErrOutsideWindow
	}
	if room.BookingEnd != nil && (endClock > *room.BookingEnd || endClock == "00:00") {
		return ErrOutsideWindow
	}
	return nil
}

// conflictCheck fails with ErrConflict when an active reservation
// overlaps [start, end) for the room. excludeID skips the reservation
// being moved. On MySQL the matching rows are locked FOR UPDATE so the
// subsequent insert cannot race; SQLite serializes writes on its own.
func (s *Service) conflictCheck(tx *gorm.DB, roomID uint, start, end time.Time, excludeID uint) error {
	query := tx.Model(&models.Reservation{}).
		Where("room_id = ? AND status = ? AND start_time < ? AND end_time > ?",
			roomID, models.StatusActive, end, start)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if tx.Dialector.Name() == "mysql" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var conflicts []models.Reservation
	if err := query.Limit(1).Find(&conflicts).Error; err != nil {
		return fmt.Errorf("conflict check failed: %w", err)
	}
	if len(conflicts) > 0 {
		return ErrConflict
	}
	return nil
}
