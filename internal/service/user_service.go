package service

import (
	"context"
	"strings"
	"sync"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// MsgBadCredentials is shown when login fails for any reason.
const MsgBadCredentials = "Please enter a correct username and password."

type UserService struct {
	userRepo repository.UserRepository
	hashCost int
}

type RegisterInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo, hashCost: bcrypt.DefaultCost}
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// compareAgainstDummy spends the same bcrypt work for unknown usernames.
func compareAgainstDummy(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("yatube-dummy-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

// Register validates input, hashes the password and creates the account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	fields := models.FieldErrors{}
	if err := validation.ValidateUsername(username); err != nil {
		fields.Add("username", err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		fields.Add("password", err.Error())
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:  username,
		Password:  string(hashed),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if models.IsCode(err, models.CodeDuplicateKey) {
			fields.Add("username", "A user with that username already exists.")
			return nil, models.NewFieldValidationError(fields)
		}
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials. Any failure is UNAUTHENTICATED with MsgBadCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			compareAgainstDummy(password)
			return nil, models.NewUnauthenticatedError(MsgBadCredentials)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthenticatedError(MsgBadCredentials)
	}
	return user, nil
}

// DeleteUser removes the account named by username together with its posts.
func (s *UserService) DeleteUser(ctx context.Context, username string) error {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, user.ID)
}
