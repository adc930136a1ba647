package auth

import (
	"context"
	"errors"

	"qrbooks/core/utils"
	"qrbooks/feature/auth/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// MinPasswordLength is the shortest password Create and SetPassword accept.
const MinPasswordLength = 8

// Validation errors returned by the user service.
var (
	ErrUserExists   = errors.New("user name is already taken")
	ErrWeakPassword = errors.New("password must be at least 8 characters long")
	ErrInvalidRole  = errors.New("unknown user role")
)

// Service handles user accounts and credential checks.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a new user service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// GetByID returns the user with the given id, or nil when no such user exists.
func (s *Service) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByName returns the user with the given name, or nil when no such user exists.
func (s *Service) GetByName(ctx context.Context, name string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Count returns the total number of user accounts.
func (s *Service) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}

// Create validates and stores a new user account.
func (s *Service) Create(ctx context.Context, name, password string, role models.UserRole) (*models.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	existing, err := s.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:           name,
		Role:           role,
		HashedPassword: string(hashed),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	s.logger.Info("User created", zap.Uint("user_id", user.ID), zap.String("role", string(role)))
	return &user, nil
}

// VerifyPassword reports whether the password matches the stored hash.
func (s *Service) VerifyPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) == nil
}

// SetPassword validates and replaces the user's password hash.
func (s *Service) SetPassword(ctx context.Context, user *models.User, password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.HashedPassword = string(hashed)
	return s.db.WithContext(ctx).Model(user).Update("hashed_password", user.HashedPassword).Error
}

// UpdateParams carries optional user fields for Update; nil means unchanged.
type UpdateParams struct {
	Name *string
	Role *models.UserRole
}

// Update applies the given changes to the user.
func (s *Service) Update(ctx context.Context, user *models.User, params UpdateParams) error {
	if params.Name != nil && *params.Name != user.Name {
		existing, err := s.GetByName(ctx, *params.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrUserExists
		}
		user.Name = *params.Name
	}
	if params.Role != nil {
		if !params.Role.Valid() {
			return ErrInvalidRole
		}
		user.Role = *params.Role
	}
	return s.db.WithContext(ctx).Save(user).Error
}

// SearchParams filters the paginated user listing.
type SearchParams struct {
	Query   string
	Roles   []models.UserRole
	Page    int
	PerPage int
}

// Search returns a page of users matching the filters, ordered by name.
func (s *Service) Search(ctx context.Context, params SearchParams) ([]models.User, utils.PageMeta, error) {
	page, perPage := utils.NormalizePage(params.Page, params.PerPage)

	query := s.db.WithContext(ctx).Model(&models.User{})
	if params.Query != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+utils.LowerToken(params.Query)+"%")
	}
	if len(params.Roles) > 0 {
		query = query.Where("role IN ?", params.Roles)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, utils.PageMeta{}, err
	}

	var users []models.User
	err := query.
		Order("name ASC").
		Offset(utils.PageOffset(page, perPage)).
		Limit(perPage).
		Find(&users).Error
	if err != nil {
		return nil, utils.PageMeta{}, err
	}

	return users, utils.NewPageMeta(page, perPage, total), nil
}
