package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"milelog/internal/models/db_models"
	"milelog/internal/models/request_models"
	"milelog/internal/models/response_models"
	"milelog/internal/repositories"
	mem "milelog/pkg/memcache"
	"milelog/pkg/utils"
)

const otpLength = 6

type AccountServiceInterface interface {
	CreateAccount(ctx context.Context, request request_models.SignUpRequest) (*response_models.AccountResponse, error)
	Login(ctx context.Context, request request_models.LoginRequest) (*response_models.AccountLoginResponse, error)
	SendVerificationCode(ctx context.Context, phone string) error
	VerifyCode(ctx context.Context, request request_models.VerifyCodeRequest) (*response_models.AccountLoginResponse, error)
	GetCategories(ctx context.Context, email string) (*response_models.CategoriesResponse, error)
	AddCategory(ctx context.Context, email, name string) (*response_models.CategoriesResponse, error)
}

type AccountService struct {
	accountRepo repositories.AccountRepository
	codes       mem.VerificationCodeStore
	sms         ISMSService
	clock       utils.Clock
	jwtSecret   []byte
}

func NewAccountService(
	accountRepo repositories.AccountRepository,
	codes mem.VerificationCodeStore,
	sms ISMSService,
	clock utils.Clock,
	jwtSecret []byte,
) AccountServiceInterface {
	return &AccountService{
		accountRepo: accountRepo,
		codes:       codes,
		sms:         sms,
		clock:       clock,
		jwtSecret:   jwtSecret,
	}
}

func (a *AccountService) CreateAccount(ctx context.Context, request request_models.SignUpRequest) (*response_models.AccountResponse, error) {
	existingAccount, err := a.accountRepo.FindByEmail(ctx, request.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if existingAccount != nil {
		return nil, utils.ErrEmailAlreadyExists
	}

	hashedPassword, err := utils.HashPassword(request.Password)
	if err != nil {
		return nil, err
	}

	newAccount := &db_models.Account{
		Name:         strings.TrimSpace(request.Name),
		Email:        request.Email,
		PasswordHash: hashedPassword,
		Phone:        strings.TrimSpace(request.Phone),
	}
	newAccount.CreatedAt = a.clock.Now()

	if err := a.accountRepo.Insert(ctx, newAccount); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	log.WithField("user_id", newAccount.ID).Info("Account created")
	return toAccountResponse(newAccount), nil
}

func (a *AccountService) Login(ctx context.Context, request request_models.LoginRequest) (*response_models.AccountLoginResponse, error) {
	account, err := a.accountRepo.FindByEmail(ctx, request.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if account == nil {
		return nil, utils.ErrInvalidCredentials
	}

	if err := utils.ComparePasswords(account.PasswordHash, request.Password); err != nil {
		return nil, utils.ErrInvalidCredentials
	}

	if account.TwoFactorEnabled && account.Phone != "" {
		if err := a.SendVerificationCode(ctx, account.Phone); err != nil {
			return nil, err
		}
		return &response_models.AccountLoginResponse{TwoFactorRequired: true}, nil
	}

	return a.tokenFor(account)
}

func (a *AccountService) SendVerificationCode(ctx context.Context, phone string) error {
	code, err := utils.GenerateOtpCode(otpLength)
	if err != nil {
		return err
	}

	a.codes.Issue(phone, code)
	if err := a.sms.SendVerificationCode(ctx, phone, code); err != nil {
		log.WithError(err).WithField("phone", phone).Error("Failed to send verification code")
		return fmt.Errorf("%w: %v", utils.ErrSMSDelivery, err)
	}
	return nil
}

func (a *AccountService) VerifyCode(ctx context.Context, request request_models.VerifyCodeRequest) (*response_models.AccountLoginResponse, error) {
	if err := a.codes.Verify(request.Phone, request.Code); err != nil {
		switch {
		case errors.Is(err, mem.ErrTooManyAttempts):
			return nil, utils.ErrTooManyAttempts
		case errors.Is(err, mem.ErrCodeMismatch):
			return nil, utils.ErrInvalidCode
		default:
			return nil, utils.ErrCodeExpired
		}
	}

	account, err := a.accountRepo.FindByPhone(ctx, request.Phone)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if account == nil {
		// Phone verified before an account was linked to it.
		return &response_models.AccountLoginResponse{}, nil
	}

	if !account.TwoFactorEnabled {
		if err := a.accountRepo.EnableTwoFactor(ctx, account.ID); err != nil {
			return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
		}
	}
	return a.tokenFor(account)
}

func (a *AccountService) tokenFor(account *db_models.Account) (*response_models.AccountLoginResponse, error) {
	token, err := utils.CreateToken(a.jwtSecret, account.ID, account.Email, a.clock.Now())
	if err != nil {
		return nil, err
	}
	return &response_models.AccountLoginResponse{Token: token}, nil
}

func (a *AccountService) findByEmail(ctx context.Context, email string) (*db_models.Account, error) {
	if strings.TrimSpace(email) == "" {
		return nil, utils.ErrAuthenticationRequired
	}
	account, err := a.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if account == nil {
		return nil, utils.ErrUserNotFound
	}
	return account, nil
}

func (a *AccountService) GetCategories(ctx context.Context, email string) (*response_models.CategoriesResponse, error) {
	account, err := a.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return categoriesResponse(account.CustomCategories), nil
}

func (a *AccountService) AddCategory(ctx context.Context, email, name string) (*response_models.CategoriesResponse, error) {
	account, err := a.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, utils.ErrInvalidInput
	}
	if _, err := ResolveCategory(name, account.CustomCategories); err == nil {
		return categoriesResponse(account.CustomCategories), nil
	}

	custom := append(append([]string{}, account.CustomCategories...), name)
	if err := a.accountRepo.SetCustomCategories(ctx, account.ID, custom); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return categoriesResponse(custom), nil
}

func categoriesResponse(custom []string) *response_models.CategoriesResponse {
	out := &response_models.CategoriesResponse{
		BuiltIn: append([]string{}, BuiltInCategories...),
		Custom:  []string{},
	}
	out.Custom = append(out.Custom, custom...)
	return out
}

func toAccountResponse(account *db_models.Account) *response_models.AccountResponse {
	return &response_models.AccountResponse{
		ID:               account.ID,
		Name:             account.Name,
		Email:            account.Email,
		Phone:            account.Phone,
		TwoFactorEnabled: account.TwoFactorEnabled,
	}
}
