package handlers

import (
	"context"

	"github.com/davidashby/verba/internal/auth"
	"github.com/davidashby/verba/internal/services"
)

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterFunc             func(ctx context.Context, in services.RegisterInput) (*services.UserResponse, error)
	LoginFunc                func(ctx context.Context, email, password, totpCode, ipAddress string) (*services.AuthResponse, error)
	RefreshFunc              func(ctx context.Context, refreshToken string) (*services.RefreshResponse, error)
	LogoutFunc               func(ctx context.Context, userID string) (bool, error)
	GetProfileFunc           func(ctx context.Context, userID string) (*services.UserResponse, error)
	UpdateProfileFunc        func(ctx context.Context, userID string, in services.UpdateProfileInput) (*services.UserResponse, error)
	RequestPasswordResetFunc func(ctx context.Context, email string) error
	ConfirmPasswordResetFunc func(ctx context.Context, token, newPassword string) error
	SetupTOTPFunc            func(ctx context.Context, userID string) (*auth.TOTPSetup, error)
	EnableTOTPFunc           func(ctx context.Context, userID, code string) error
}

func (m *MockAuthService) Register(ctx context.Context, in services.RegisterInput) (*services.UserResponse, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, in)
	}
	return &services.UserResponse{}, nil
}

func (m *MockAuthService) Login(ctx context.Context, email, password, totpCode, ipAddress string) (*services.AuthResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password, totpCode, ipAddress)
	}
	return &services.AuthResponse{}, nil
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*services.RefreshResponse, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	return &services.RefreshResponse{}, nil
}

func (m *MockAuthService) Logout(ctx context.Context, userID string) (bool, error) {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, userID)
	}
	return true, nil
}

func (m *MockAuthService) GetProfile(ctx context.Context, userID string) (*services.UserResponse, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, userID)
	}
	return &services.UserResponse{ID: userID}, nil
}

func (m *MockAuthService) UpdateProfile(ctx context.Context, userID string, in services.UpdateProfileInput) (*services.UserResponse, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, userID, in)
	}
	return &services.UserResponse{ID: userID}, nil
}

func (m *MockAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if m.RequestPasswordResetFunc != nil {
		return m.RequestPasswordResetFunc(ctx, email)
	}
	return nil
}

func (m *MockAuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if m.ConfirmPasswordResetFunc != nil {
		return m.ConfirmPasswordResetFunc(ctx, token, newPassword)
	}
	return nil
}

func (m *MockAuthService) SetupTOTP(ctx context.Context, userID string) (*auth.TOTPSetup, error) {
	if m.SetupTOTPFunc != nil {
		return m.SetupTOTPFunc(ctx, userID)
	}
	return &auth.TOTPSetup{}, nil
}

func (m *MockAuthService) EnableTOTP(ctx context.Context, userID, code string) error {
	if m.EnableTOTPFunc != nil {
		return m.EnableTOTPFunc(ctx, userID, code)
	}
	return nil
}
