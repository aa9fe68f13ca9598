package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"yard-service/internal/model"
	"yard-service/internal/repository"
	"yard-service/internal/utils"
)

const defaultUserPageLimit = 20

// TokenRevoker invalidates an access token until it would have expired anyway.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

type UserService struct {
	repo    *repository.Repository
	revoker TokenRevoker
	now     func() time.Time
}

// NewUserService accepts a nil revoker; logout then only clears device tokens.
func NewUserService(repo *repository.Repository, revoker TokenRevoker) *UserService {
	return &UserService{
		repo:    repo,
		revoker: revoker,
		now:     time.Now,
	}
}

// Resolve returns the active user behind an authenticated email.
func (s *UserService) Resolve(ctx context.Context, email string) (*model.User, error) {
	user, err := s.repo.Users.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPermissionDenied
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrPermissionDenied
	}
	return user, nil
}

type SignInInput struct {
	Email string
	Name  string
}

// SignIn creates the user on first sign-in and stamps the last login otherwise.
func (s *UserService) SignIn(ctx context.Context, input SignInInput) (*model.User, bool, error) {
	return s.signIn(ctx, input, true)
}

func (s *UserService) signIn(ctx context.Context, input SignInInput, retry bool) (*model.User, bool, error) {
	email := utils.NormalizeEmail(input.Email)
	if email == "" {
		return nil, false, ErrUnauthenticated
	}
	now := s.now()

	user, err := s.repo.Users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if user != nil {
		if !user.IsActive {
			return nil, false, ErrPermissionDenied
		}
		user.LastLogin = &now
		if err := s.repo.Users.Update(ctx, user); err != nil {
			return nil, false, err
		}
		return user, false, nil
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = email[:strings.Index(email+"@", "@")]
	}
	user = &model.User{
		Name:         name,
		Email:        email,
		Role:         model.RoleLoader,
		Department:   model.DepartmentLoading,
		IsActive:     true,
		DeviceTokens: pq.StringArray{},
		Preferences:  datatypes.NewJSONType(model.DefaultPreferences()),
		LastLogin:    &now,
	}
	if err := s.repo.Users.Create(ctx, user); err != nil {
		if retry && errors.Is(err, gorm.ErrDuplicatedKey) {
			// Concurrent first sign-in for the same email; the second lookup finds the winner.
			return s.signIn(ctx, input, false)
		}
		return nil, false, err
	}
	return user, true, nil
}

// Logout revokes the presented token and forgets the user's push device tokens.
func (s *UserService) Logout(ctx context.Context, principal model.Principal, tokenID string, expiresAt time.Time) error {
	if s.revoker != nil && tokenID != "" {
		if err := s.revoker.Revoke(ctx, tokenID, expiresAt.Sub(s.now())); err != nil {
			return err
		}
	}

	user, err := s.repo.Users.GetByID(ctx, principal.UserID)
	if err != nil {
		return lookupErr(err, "User")
	}
	user.ClearDeviceTokens()
	return s.repo.Users.Update(ctx, user)
}

type ListUsersInput struct {
	Role       string
	Department string
	IsActive   *bool
	Page       int
	Limit      int
}

type UserList struct {
	Users      []model.User `json:"users"`
	Pagination Page         `json:"pagination"`
}

func (s *UserService) ListUsers(ctx context.Context, principal model.Principal, input ListUsersInput) (*UserList, error) {
	if err := Authorize(principal, OpUserList); err != nil {
		return nil, err
	}

	filter := repository.UserFilter{
		IsActive:   input.IsActive,
		Pagination: pagination(input.Page, input.Limit, defaultUserPageLimit),
	}
	if raw := strings.TrimSpace(input.Role); raw != "" {
		role := model.Role(strings.ToLower(raw))
		if !role.Valid() {
			return nil, invalidInput("unknown role %q", raw)
		}
		filter.Role = &role
	}
	if raw := strings.TrimSpace(input.Department); raw != "" {
		department := model.Department(strings.ToLower(raw))
		if !department.Valid() {
			return nil, invalidInput("unknown department %q", raw)
		}
		filter.Department = &department
	}

	users, total, err := s.repo.Users.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &UserList{Users: users, Pagination: newPage(filter.Pagination, total)}, nil
}

type UpdateUserInput struct {
	Role       string
	Department string
	IsActive   *bool
}

// UpdateUser applies the recognised fields and ignores unknown role or department values.
func (s *UserService) UpdateUser(ctx context.Context, principal model.Principal, id string, input UpdateUserInput) (*model.User, error) {
	if err := Authorize(principal, OpUserUpdate); err != nil {
		return nil, err
	}

	userID, err := parseID(id, "user id")
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "User")
	}

	if role := model.Role(strings.ToLower(strings.TrimSpace(input.Role))); role.Valid() {
		user.Role = role
	}
	if department := model.Department(strings.ToLower(strings.TrimSpace(input.Department))); department.Valid() {
		user.Department = department
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.repo.Users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

type Profile struct {
	*model.User
	DriverProfile *model.DriverProfile `json:"driverProfile,omitempty"`
}

func (s *UserService) GetProfile(ctx context.Context, principal model.Principal) (*Profile, error) {
	if err := Authorize(principal, OpUserProfile); err != nil {
		return nil, err
	}

	user, err := s.repo.Users.GetByID(ctx, principal.UserID)
	if err != nil {
		return nil, lookupErr(err, "User")
	}

	profile := &Profile{User: user}
	if user.Role == model.RoleDriver {
		driver, err := s.repo.Drivers.GetByUserID(ctx, user.ID)
		switch {
		case err == nil:
			profile.DriverProfile = driver
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}
	return profile, nil
}

type UpdateProfileInput struct {
	Name        *string
	Phone       *string
	Preferences *model.NotificationPreferences
}

func (s *UserService) UpdateProfile(ctx context.Context, principal model.Principal, input UpdateProfileInput) (*model.User, error) {
	if err := Authorize(principal, OpUserProfile); err != nil {
		return nil, err
	}

	user, err := s.repo.Users.GetByID(ctx, principal.UserID)
	if err != nil {
		return nil, lookupErr(err, "User")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, invalidInput("name must not be empty")
		}
		user.Name = name
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Preferences != nil {
		user.Preferences = datatypes.NewJSONType(*input.Preferences)
	}

	if err := s.repo.Users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AddDeviceToken registers a push token and returns how many the user now has.
func (s *UserService) AddDeviceToken(ctx context.Context, principal model.Principal, token string) (int, error) {
	return s.changeDeviceTokens(ctx, principal, token, func(user *model.User, token string) {
		user.AddDeviceToken(token)
	})
}

func (s *UserService) RemoveDeviceToken(ctx context.Context, principal model.Principal, token string) (int, error) {
	return s.changeDeviceTokens(ctx, principal, token, func(user *model.User, token string) {
		user.RemoveDeviceToken(token)
	})
}

func (s *UserService) changeDeviceTokens(ctx context.Context, principal model.Principal, token string, apply func(*model.User, string)) (int, error) {
	if err := Authorize(principal, OpUserProfile); err != nil {
		return 0, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, invalidInput("device token is required")
	}

	user, err := s.repo.Users.GetByID(ctx, principal.UserID)
	if err != nil {
		return 0, lookupErr(err, "User")
	}
	apply(user, token)
	if err := s.repo.Users.Update(ctx, user); err != nil {
		return 0, err
	}
	return len(user.DeviceTokens), nil
}
