package service

import (
	"context"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type UserService struct {
	userRepo repository.UserRepository
}

// UpdateProfileInput carries a partial profile update. Nil fields are left
// untouched.
type UpdateProfileInput struct {
	Name   *string
	Avatar *string
	Bio    *string
}

// UserPage is one page of a user listing.
type UserPage struct {
	Users       []*models.User `json:"users"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	Total       int64          `json:"total"`
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetUser(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", id.Hex())
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, page, limit int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	users, total, err := s.userRepo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, models.NewStoreError(err)
	}

	return &UserPage{
		Users:       users,
		TotalPages:  int((total + int64(limit) - 1) / int64(limit)),
		CurrentPage: page,
		Total:       total,
	}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id bson.ObjectID, in UpdateProfileInput) (*models.User, error) {
	set := bson.M{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, models.NewValidationError("Name is required")
		}
		if len(name) > 100 {
			return nil, models.NewValidationError("Name too long (max 100 characters)")
		}
		set["name"] = name
	}
	if in.Avatar != nil {
		set["avatar"] = *in.Avatar
	}
	if in.Bio != nil {
		set["bio"] = *in.Bio
	}

	if len(set) == 0 {
		return s.GetUser(ctx, id)
	}

	user, err := s.userRepo.Update(ctx, id, set)
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", id.Hex())
	}
	return user, nil
}
