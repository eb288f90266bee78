package service

import (
	"errors"
	"regexp"
	"strings"

	"songvault/database"
	"songvault/database/model"
	"songvault/logger"
	"songvault/util/crypto"
)

const (
	minPasswordLength = 6
	maxAboutLength    = 1000
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Validation failures are user-correctable; each maps to a distinct
// user-visible message at the handler boundary.
var (
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrPasswordTooShort  = errors.New("password too short")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrAlreadyRegistered = errors.New("email already registered")
	ErrAboutTooLong      = errors.New("about text too long")
)

// UserService implements registration, credential verification and
// profile/account mutation on top of a UserRepository.
type UserService struct {
	users database.UserRepository
}

func NewUserService(users database.UserRepository) *UserService {
	return &UserService{users: users}
}

// NormalizeEmail lowercases and trims an email address. One account per
// normalized email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateCredentials checks email syntax, password length and password
// confirmation, in that order.
func validateCredentials(email, password, confirm string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

// Register creates a new user with a hashed password. Returns
// ErrAlreadyRegistered when the email is taken, including when a
// concurrent insert wins the race at the storage layer.
func (s *UserService) Register(email, password, confirm string) (*model.User, error) {
	email = NormalizeEmail(email)
	if err := validateCredentials(email, password, confirm); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(email); err == nil {
		return nil, ErrAlreadyRegistered
	} else if !database.IsNotFound(err) {
		return nil, err
	}

	hashedPassword, err := crypto.HashPasswordAsBcrypt(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:    email,
		Password: hashedPassword,
	}
	if err := s.users.Insert(user); err != nil {
		if database.IsDuplicate(err) {
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}
	return user, nil
}

// CheckUser verifies a credential pair. Returns nil on unknown email and
// on wrong password alike; callers must surface one uniform message for
// both so account existence cannot be probed.
func (s *UserService) CheckUser(email, password string) *model.User {
	user, err := s.users.FindByEmail(NormalizeEmail(email))
	if database.IsNotFound(err) {
		return nil
	} else if err != nil {
		logger.Warning("check user err:", err)
		return nil
	}

	if !crypto.CheckPasswordHash(user.Password, password) {
		return nil
	}
	return user
}

// GetUser loads a user by id.
func (s *UserService) GetUser(id int) (*model.User, error) {
	return s.users.FindByID(id)
}

// UpdateProfile replaces the user's about text.
func (s *UserService) UpdateProfile(userId int, about string) error {
	if len(about) > maxAboutLength {
		return ErrAboutTooLong
	}
	user, err := s.users.FindByID(userId)
	if err != nil {
		return err
	}
	user.About = about
	return s.users.Update(user)
}

// UpdateAccount changes the user's email and password, applying the same
// validation rules as registration and re-hashing the password.
func (s *UserService) UpdateAccount(userId int, email, password, confirm string) error {
	email = NormalizeEmail(email)
	if err := validateCredentials(email, password, confirm); err != nil {
		return err
	}

	user, err := s.users.FindByID(userId)
	if err != nil {
		return err
	}

	if other, err := s.users.FindByEmail(email); err == nil && other.Id != user.Id {
		return ErrAlreadyRegistered
	} else if err != nil && !database.IsNotFound(err) {
		return err
	}

	hashedPassword, err := crypto.HashPasswordAsBcrypt(password)
	if err != nil {
		return err
	}

	user.Email = email
	user.Password = hashedPassword
	if err := s.users.Update(user); err != nil {
		if database.IsDuplicate(err) {
			return ErrAlreadyRegistered
		}
		return err
	}
	return nil
}
