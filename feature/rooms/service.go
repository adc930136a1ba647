package rooms

import (
	"context"
	"errors"

	"qrbooks/core/utils"
	resmodels "qrbooks/feature/reservations/models"
	"qrbooks/feature/rooms/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Validation errors returned by the room service.
var (
	ErrRoomExists    = errors.New("room name is already taken")
	ErrInvalidType   = errors.New("unknown room type")
	ErrInvalidWindow = errors.New("booking window must be HH:MM with start before end")
)

// Service handles room catalog operations and QR code upkeep.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
	qr     *Generator
}

// NewService creates a new room service.
func NewService(db *gorm.DB, logger *zap.Logger, qr *Generator) *Service {
	return &Service{db: db, logger: logger, qr: qr}
}

// Get returns the room with the given id, or nil when no such room exists.
func (s *Service) Get(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	err := s.db.WithContext(ctx).First(&room, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// GetByName returns the room with the given name, or nil when no such
// room exists.
func (s *Service) GetByName(ctx context.Context, name string) (*models.Room, error) {
	var room models.Room
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// List returns all rooms ordered by name.
func (s *Service) List(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	err := s.db.WithContext(ctx).Order("name ASC").Find(&rooms).Error
	return rooms, err
}

// Count returns the total number of rooms.
func (s *Service) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Room{}).Count(&count).Error
	return count, err
}

// CreateParams describes a new room.
type CreateParams struct {
	Name         string
	Type         models.RoomType
	BookingStart *string
	BookingEnd   *string
}

// Create validates and stores a new room, then generates its QR code.
// A QR failure does not fail the creation; the code can be regenerated.
func (s *Service) Create(ctx context.Context, params CreateParams) (*models.Room, error) {
	if !params.Type.Valid() {
		return nil, ErrInvalidType
	}
	if !validWindow(params.BookingStart, params.BookingEnd) {
		return nil, ErrInvalidWindow
	}

	existing, err := s.GetByName(ctx, params.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrRoomExists
	}

	room := models.Room{
		Name:         params.Name,
		Type:         params.Type,
		BookingStart: params.BookingStart,
		BookingEnd:   params.BookingEnd,
	}
	if err := s.db.WithContext(ctx).Create(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrRoomExists
		}
		return nil, err
	}

	if err := s.SyncQR(ctx, &room); err != nil {
		s.logger.Warn("QR generation failed, room created without code",
			zap.Uint("room_id", room.ID), zap.Error(err))
	}

	s.logger.Info("Room created", zap.Uint("room_id", room.ID), zap.String("name", room.Name))
	return &room, nil
}

// SyncQR regenerates the room's QR code and persists its public URL.
func (s *Service) SyncQR(ctx context.Context, room *models.Room) error {
	if s.qr == nil {
		return nil
	}
	url, err := s.qr.Generate(ctx, room.ID)
	if err != nil {
		return err
	}
	room.QRCodeURL = &url
	return s.db.WithContext(ctx).Model(room).Update("qr_code_url", url).Error
}

// UpdateParams carries optional room fields for Update; nil means
// unchanged. The window fields use a double pointer so callers can
// distinguish "leave alone" (nil) from "clear" (*nil).
type UpdateParams struct {
	Name         *string
	Type         *models.RoomType
	IsBlocked    *bool
	BookingStart **string
	BookingEnd   **string
}

// Update applies the given changes to the room.
func (s *Service) Update(ctx context.Context, room *models.Room, params UpdateParams) error {
	if params.Name != nil && *params.Name != room.Name {
		existing, err := s.GetByName(ctx, *params.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrRoomExists
		}
		room.Name = *params.Name
	}
	if params.Type != nil {
		if !params.Type.Valid() {
			return ErrInvalidType
		}
		room.Type = *params.Type
	}
	if params.IsBlocked != nil {
		room.IsBlocked = *params.IsBlocked
	}
	if params.BookingStart != nil {
		room.BookingStart = *params.BookingStart
	}
	if params.BookingEnd != nil {
		room.BookingEnd = *params.BookingEnd
	}
	if !validWindow(room.BookingStart, room.BookingEnd) {
		return ErrInvalidWindow
	}
	return s.db.WithContext(ctx).Save(room).Error
}

// BulkSetBlocked blocks or unblocks every listed room and returns how
// many rows changed.
func (s *Service) BulkSetBlocked(ctx context.Context, ids []uint, blocked bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).
		Model(&models.Room{}).
		Where("id IN ?", ids).
		Update("is_blocked", blocked)
	return result.RowsAffected, result.Error
}

// SearchParams filters the paginated room listing.
type SearchParams struct {
	Query   string
	Types   []models.RoomType
	Status  string
	Page    int
	PerPage int
}

// Search returns a page of rooms matching the filters, ordered by name.
// The occupied and available statuses are resolved with an EXISTS
// subquery against active reservations covering the current instant.
func (s *Service) Search(ctx context.Context, params SearchParams) ([]models.Room, utils.PageMeta, error) {
	page, perPage := utils.NormalizePage(params.Page, params.PerPage)

	query := s.db.WithContext(ctx).Model(&models.Room{})
	if params.Query != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+utils.LowerToken(params.Query)+"%")
	}
	if len(params.Types) > 0 {
		query = query.Where("type IN ?", params.Types)
	}

	switch params.Status {
	case models.StatusBlocked:
		query = query.Where("is_blocked = ?", true)
	case models.StatusOccupied:
		query = query.Where("is_blocked = ?", false).
			Where("EXISTS (?)", s.occupiedNow(ctx))
	case models.StatusAvailable:
		query = query.Where("is_blocked = ?", false).
			Where("NOT EXISTS (?)", s.occupiedNow(ctx))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, utils.PageMeta{}, err
	}

	var rooms []models.Room
	err := query.
		Order("name ASC").
		Offset(utils.PageOffset(page, perPage)).
		Limit(perPage).
		Find(&rooms).Error
	if err != nil {
		return nil, utils.PageMeta{}, err
	}

	return rooms, utils.NewPageMeta(page, perPage, total), nil
}

func (s *Service) occupiedNow(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&resmodels.Reservation{}).
		Select("1").
		Where("reservations.room_id = rooms.id").
		Where("reservations.status = ?", resmodels.StatusActive).
		Where("reservations.start_time <= CURRENT_TIMESTAMP AND reservations.end_time > CURRENT_TIMESTAMP")
}

// validWindow accepts nil sides; set sides must be "HH:MM" and ordered.
func validWindow(start, end *string) bool {
	if start != nil && !validClock(*start) {
		return false
	}
	if end != nil && !validClock(*end) {
		return false
	}
	if start != nil && end != nil && *start >= *end {
		return false
	}
	return true
}

func validClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	hh := (int(s[0]-'0') * 10) + int(s[1]-'0')
	mm := (int(s[3]-'0') * 10) + int(s[4]-'0')
	for _, c := range []byte{s[0], s[1], s[3], s[4]} {
		if c < '0' || c > '9' {
			return false
		}
	}
	return hh >= 0 && hh <= 23 && mm >= 0 && mm <= 59
}
