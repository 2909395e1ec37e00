package service

import (
	"context"
	"strconv"

	"slotbook/cmd/internal/domain/entity"
	"slotbook/cmd/internal/utils"
	"slotbook/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

type UserRepository interface {
	FindByID(ctx context.Context, id int) (*entity.User, error)
	FindBySub(ctx context.Context, sub string) (*entity.User, error)
	FindProvider(ctx context.Context, id int) (*entity.User, error)
	FindProviders(ctx context.Context) ([]*entity.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, user *entity.User) error
}

// CreateUserRequest is used by the operator CLI; there is no public
// sign-up endpoint.
type CreateUserRequest struct {
	Sub      string `json:"sub" validate:"required,max=128,nospaces"`
	Name     string `json:"name" validate:"required,min=2,max=80"`
	Email    string `json:"email" validate:"required,email"`
	Provider bool   `json:"provider"`
}

type UserResponse struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Provider  bool            `json:"provider"`
	Avatar    *AvatarResponse `json:"avatar"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

type DefaultUserService struct {
	UserRepo     UserRepository
	Validate     *validator.Validate
	FilesBaseURL string
}

func NewUserService(userRepo UserRepository, validate *validator.Validate) *DefaultUserService {
	return &DefaultUserService{UserRepo: userRepo, Validate: validate}
}

func (u *DefaultUserService) GetProviders(ctx context.Context) ([]*ProviderSummary, apierror.ErrorResponse) {
	providers, err := u.UserRepo.FindProviders(ctx)
	if err != nil {
		log.Errorf("failed to fetch providers: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*ProviderSummary, len(providers))
	for i, p := range providers {
		resp[i] = toProviderSummary(p, u.FilesBaseURL)
	}
	return resp, nil
}

// GetUser looks a user up by id, or resolves the caller when rawId is "@me".
func (u *DefaultUserService) GetUser(ctx context.Context, rawId, subId string) (*UserResponse, apierror.ErrorResponse) {
	user, apierr := u.fetchUser(ctx, rawId, subId)
	if apierr != nil {
		return nil, apierr
	}

	if user == nil {
		return nil, apierror.NotFoundError
	}
	return u.toUserResponse(user), nil
}

func (u *DefaultUserService) CreateUser(ctx context.Context, req *CreateUserRequest) (*UserResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	found, err := u.UserRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		log.Errorf("failed to check if user already exists: %v", err)
		return nil, apierror.InternalServerError
	}

	if found {
		return nil, apierror.UserAlreadyExistsError
	}

	user := &entity.User{
		SubUUID:  req.Sub,
		Name:     req.Name,
		Email:    req.Email,
		Provider: req.Provider,
	}

	if err := u.UserRepo.Save(ctx, user); err != nil {
		log.Errorf("failed to create user: %v", err)
		return nil, apierror.InternalServerError
	}
	return u.toUserResponse(user), nil
}

func (u *DefaultUserService) fetchUser(ctx context.Context, rawId, sub string) (*entity.User, apierror.ErrorResponse) {
	if rawId == "@me" {
		return u.fetchBySub(ctx, sub)
	}
	return u.fetchByID(ctx, rawId)
}

func (u *DefaultUserService) fetchBySub(ctx context.Context, sub string) (*entity.User, apierror.ErrorResponse) {
	user, err := u.UserRepo.FindBySub(ctx, sub)
	if err != nil {
		log.Errorf("failed to find user (%s) by sub: %v", sub, err)
		return nil, apierror.InternalServerError
	}
	return user, nil
}

func (u *DefaultUserService) fetchByID(ctx context.Context, rawId string) (*entity.User, apierror.ErrorResponse) {
	userId, err := strconv.Atoi(rawId)
	if err != nil {
		return nil, apierror.NewInvalidParamTypeError("id", "int32")
	}
	user, err := u.UserRepo.FindByID(ctx, userId)
	if err != nil {
		log.Errorf("failed to find user (%s) by id: %v", rawId, err)
		return nil, apierror.InternalServerError
	}
	return user, nil
}

func (u *DefaultUserService) toUserResponse(user *entity.User) *UserResponse {
	resp := &UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Provider:  user.Provider,
		CreatedAt: utils.FormatTime(user.CreatedAt),
		UpdatedAt: utils.FormatTime(user.UpdatedAt),
	}
	if user.Avatar != nil {
		resp.Avatar = &AvatarResponse{URL: user.Avatar.URL(u.FilesBaseURL), Path: user.Avatar.Path}
	}
	return resp
}

// resolveCaller maps the token subject to a stored user.
func resolveCaller(ctx context.Context, repo UserRepository, sub string) (*entity.User, apierror.ErrorResponse) {
	caller, err := repo.FindBySub(ctx, sub)
	if err != nil {
		log.Errorf("failed to fetch user %s: %v", sub, err)
		return nil, apierror.InternalServerError
	}

	if caller == nil {
		return nil, apierror.UserNotFoundError
	}
	return caller, nil
}
