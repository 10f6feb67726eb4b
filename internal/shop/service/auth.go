package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/shopease/shopease/internal/common/logging"
	"github.com/shopease/shopease/internal/common/shoperrors"
	"github.com/shopease/shopease/internal/shop/model"
	"github.com/shopease/shopease/internal/shop/repository"
)

const invalidCredentials = "Invalid username or password."

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,50}$`)

type registration struct {
	Username string `validate:"required,username"`
	Email    string `validate:"required,email"`
	Password string `validate:"min=6"`
}

var registrationMessages = map[string]string{
	"Username": "Username must be 3-50 characters long and contain only letters, numbers, and underscores.",
	"Email":    "Email must be a valid email address.",
	"Password": "Password must be at least 6 characters long.",
}

type AuthService struct {
	store    repository.UserStore
	validate *validator.Validate
	cost     int
}

func NewAuthService(store repository.UserStore) *AuthService {
	validate := validator.New()
	// Registration can't fail: the tag name is fixed and the function non-nil.
	_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return &AuthService{
		store:    store,
		validate: validate,
		cost:     bcrypt.DefaultCost,
	}
}

// Register creates a user with a bcrypt hash of password. Invalid input gives *shoperrors.ErrInvalidArgument
// for the first offending field; a taken username gives *shoperrors.ErrAlreadyExists.
func (s *AuthService) Register(ctx context.Context, username string, email string, password string) (*model.User, error) {
	r := registration{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := s.validate.Struct(r); err != nil {
		return nil, validationError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), s.cost)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	user := &model.User{
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: string(hash),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	logging.ForComponent("auth").WithField("user", user.Code()).Infof("Registered user %s", user.Username)
	return user, nil
}

// Login returns the user if the password matches. An unknown user and a wrong password give the same
// *shoperrors.ErrUnauthenticated.
func (s *AuthService) Login(ctx context.Context, username string, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.WithStack(&shoperrors.ErrInvalidArgument{
			Name:    "username",
			Value:   username,
			Message: "Username and password cannot be empty.",
		})
	}

	user, err := s.store.UserByUsername(ctx, username)
	var notFound *shoperrors.ErrNotFound
	if errors.As(err, &notFound) {
		return nil, errors.WithStack(&shoperrors.ErrUnauthenticated{Message: invalidCredentials})
	} else if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errors.WithStack(&shoperrors.ErrUnauthenticated{Message: invalidCredentials})
	}
	return user, nil
}

func validationError(err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return errors.WithStack(err)
	}
	fe := fieldErrors[0]
	value := fe.Value()
	if fe.Field() == "Password" {
		value = "******"
	}
	return errors.WithStack(&shoperrors.ErrInvalidArgument{
		Name:    strings.ToLower(fe.Field()),
		Value:   value,
		Message: registrationMessages[fe.Field()],
	})
}
