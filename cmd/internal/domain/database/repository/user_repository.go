package repository

import (
	"context"
	"errors"

	"slotbook/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *DefaultUserRepository {
	return &DefaultUserRepository{db: db}
}

func (u *DefaultUserRepository) FindByID(ctx context.Context, id int) (*entity.User, error) {
	var user entity.User
	err := u.db.WithContext(ctx).Preload("Avatar").First(&user, id).Error
	return found(&user, err)
}

func (u *DefaultUserRepository) FindBySub(ctx context.Context, sub string) (*entity.User, error) {
	var user entity.User
	err := u.db.WithContext(ctx).Where("sub_uuid = ?", sub).First(&user).Error
	return found(&user, err)
}

// FindProvider returns the user only if it is flagged as a provider.
func (u *DefaultUserRepository) FindProvider(ctx context.Context, id int) (*entity.User, error) {
	var user entity.User
	err := u.db.WithContext(ctx).
		Preload("Avatar").
		Where("id = ?", id).
		Where("provider = ?", true).
		First(&user).Error
	return found(&user, err)
}

func (u *DefaultUserRepository) FindProviders(ctx context.Context) ([]*entity.User, error) {
	var users []*entity.User
	err := u.db.WithContext(ctx).
		Preload("Avatar").
		Where("provider = ?", true).
		Order("name asc").
		Find(&users).Error
	return users, err
}

func (u *DefaultUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := u.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}

func (u *DefaultUserRepository) Save(ctx context.Context, user *entity.User) error {
	return u.db.WithContext(ctx).Save(user).Error
}

func found[T any](v *T, err error) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
