package controllers

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
	"milelog/internal/models/request_models"
	"milelog/internal/models/response_models"
)

type MockTripService struct {
	mock.Mock
}

func (m *MockTripService) IngestTrip(ctx context.Context, email string, req *request_models.TripSubmission) (*response_models.IngestResult, error) {
	args := m.Called(ctx, email, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response_models.IngestResult), args.Error(1)
}

func (m *MockTripService) UpdateTrip(ctx context.Context, email string, tripID uint, req *request_models.TripUpdateRequest) (*response_models.TripResponse, error) {
	args := m.Called(ctx, email, tripID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response_models.TripResponse), args.Error(1)
}

func (m *MockTripService) DeleteTrip(ctx context.Context, email string, tripID uint) error {
	args := m.Called(ctx, email, tripID)
	return args.Error(0)
}

func (m *MockTripService) ListTrips(ctx context.Context, email string, req request_models.ListTripsRequest) ([]response_models.TripResponse, error) {
	args := m.Called(ctx, email, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]response_models.TripResponse), args.Error(1)
}

func (m *MockTripService) ListClients(ctx context.Context, email string) ([]string, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTripService) DeductionSummary(ctx context.Context, email string, year int) (*response_models.DeductionSummary, error) {
	args := m.Called(ctx, email, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response_models.DeductionSummary), args.Error(1)
}

func (m *MockTripService) ExportCSV(ctx context.Context, email string, year int, w io.Writer) error {
	args := m.Called(ctx, email, year, w)
	if s, ok := args.Get(0).(string); ok {
		_, _ = io.WriteString(w, s)
	}
	return args.Error(1)
}

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateAccount(ctx context.Context, request request_models.SignUpRequest) (*response_models.AccountResponse, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response_models.AccountResponse), args.Error(1)
}

func (m *MockAccountService) Login(ctx context.Context, request request_models.LoginRequest) (*response_models.AccountLoginResponse, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response_models.AccountLoginResponse), args.Error(1)
}

func (m *MockAccountService) SendVerificationCode(ctx context.Context, phone string) error {
	args := m.Called(ctx, phone)
	return args.Error(0)
}

func (m *MockAccountService) VerifyCode(ctx context.Context, request request_models.VerifyCodeRequest) (*response_models.AccountLoginResponse, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response_models.AccountLoginResponse), args.Error(1)
}

func (m *MockAccountService) GetCategories(ctx context.Context, email string) (*response_models.CategoriesResponse, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response_models.CategoriesResponse), args.Error(1)
}

func (m *MockAccountService) AddCategory(ctx context.Context, email, name string) (*response_models.CategoriesResponse, error) {
	args := m.Called(ctx, email, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response_models.CategoriesResponse), args.Error(1)
}
