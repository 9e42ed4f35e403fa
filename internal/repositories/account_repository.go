package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"milelog/internal/models/db_models"
)

// AccountRepository is also the user directory consulted when resolving a
// caller's email to a user id.
type AccountRepository interface {
	Insert(ctx context.Context, account *db_models.Account) error
	FindById(ctx context.Context, id uint) (*db_models.Account, error)
	FindByEmail(ctx context.Context, email string) (*db_models.Account, error)
	FindByPhone(ctx context.Context, phone string) (*db_models.Account, error)
	EnableTwoFactor(ctx context.Context, id uint) error
	SetCustomCategories(ctx context.Context, id uint, categories []string) error
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{
		db: db,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *accountRepository) Insert(ctx context.Context, account *db_models.Account) error {
	account.Email = normalizeEmail(account.Email)
	return a.db.WithContext(ctx).Create(account).Error
}

func (a *accountRepository) FindById(ctx context.Context, id uint) (*db_models.Account, error) {
	return a.first(ctx, "id = ?", id)
}

func (a *accountRepository) FindByEmail(ctx context.Context, email string) (*db_models.Account, error) {
	return a.first(ctx, "email = ?", normalizeEmail(email))
}

func (a *accountRepository) FindByPhone(ctx context.Context, phone string) (*db_models.Account, error) {
	return a.first(ctx, "phone = ?", strings.TrimSpace(phone))
}

func (a *accountRepository) first(ctx context.Context, query string, args ...interface{}) (*db_models.Account, error) {
	var account db_models.Account
	err := a.db.WithContext(ctx).Where(query, args...).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

func (a *accountRepository) EnableTwoFactor(ctx context.Context, id uint) error {
	return a.db.WithContext(ctx).
		Model(&db_models.Account{}).
		Where("id = ?", id).
		Update("two_factor_enabled", true).Error
}

func (a *accountRepository) SetCustomCategories(ctx context.Context, id uint, categories []string) error {
	return a.db.WithContext(ctx).
		Model(&db_models.Account{}).
		Where("id = ?", id).
		Update("custom_categories", pq.StringArray(categories)).Error
}
