// Package businessflow contains the core business logic and use cases for authentication workflows
package businessflow

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/linkpulse/linkpulse/app/dto"
	"github.com/linkpulse/linkpulse/app/services"
	"github.com/linkpulse/linkpulse/models"
	"github.com/linkpulse/linkpulse/repository"
	"github.com/linkpulse/linkpulse/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthFlow handles signup and login
type AuthFlow interface {
	Signup(ctx context.Context, request *dto.SignupRequest, metadata *ClientMetadata) (*dto.SignupResponse, error)
	Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
}

// AuthFlowImpl implements the authentication business flow
type AuthFlowImpl struct {
	userRepo        repository.UserRepository
	auditRepo       repository.AuditLogRepository
	tokenService    services.TokenService
	notificationSvc services.NotificationService
	db              *gorm.DB
}

// NewAuthFlow creates a new authentication flow instance
func NewAuthFlow(
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	notificationSvc services.NotificationService,
	db *gorm.DB,
) AuthFlow {
	return &AuthFlowImpl{
		userRepo:        userRepo,
		auditRepo:       auditRepo,
		tokenService:    tokenService,
		notificationSvc: notificationSvc,
		db:              db,
	}
}

// Signup registers a new account and returns an access token
func (af *AuthFlowImpl) Signup(ctx context.Context, request *dto.SignupRequest, metadata *ClientMetadata) (*dto.SignupResponse, error) {
	if request == nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Request body is required", nil)
	}

	username := strings.TrimSpace(request.Username)
	email := strings.ToLower(strings.TrimSpace(request.Email))

	var user *models.User
	err := repository.WithTransaction(ctx, af.db, func(txCtx context.Context) error {
		existing, err := af.userRepo.ByEmail(txCtx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrEmailAlreadyExists
		}

		existing, err = af.userRepo.ByUsername(txCtx, username)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrUsernameTaken
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		user = &models.User{
			UUID:         uuid.New(),
			Username:     username,
			Email:        email,
			PasswordHash: string(hash),
			Credits:      utils.SignupCredits,
			IsActive:     utils.ToPtr(true),
		}
		return af.userRepo.Save(txCtx, user)
	})
	if err != nil {
		if IsEmailAlreadyExists(err) || IsUsernameTaken(err) {
			return nil, err
		}
		return nil, NewBusinessError("SIGNUP_FAILED", "Failed to create account", err)
	}

	accessToken, _, err := af.tokenService.GenerateTokens(user.ID)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate tokens", err)
	}

	if err := af.notificationSvc.SendWelcomeEmail(user.Email, user.Username); err != nil {
		log.Printf("auth: failed to send welcome email to %s: %v", user.Email, err)
	}

	af.audit(ctx, &user.ID, models.AuditActionSignupCompleted, "Account created", true, metadata)

	return &dto.SignupResponse{
		Message: "Account created successfully",
		Token:   accessToken,
		User:    ToAuthUserDTO(*user),
	}, nil
}

// Login authenticates a user with username/email and password
func (af *AuthFlowImpl) Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	if request == nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Request body is required", nil)
	}

	user, err := af.findByIdentifier(ctx, request.Identifier)
	if err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Failed to lookup account", err)
	}
	if user == nil {
		af.audit(ctx, nil, models.AuditActionLoginFailed, "Unknown identifier "+request.Identifier, false, metadata)
		return nil, ErrUserNotFound
	}

	if !utils.IsTrue(user.IsActive) {
		af.audit(ctx, &user.ID, models.AuditActionLoginFailed, "Inactive account", false, metadata)
		return nil, ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(request.Password)); err != nil {
		af.audit(ctx, &user.ID, models.AuditActionLoginFailed, "Incorrect password", false, metadata)
		return nil, ErrIncorrectPassword
	}

	accessToken, _, err := af.tokenService.GenerateTokens(user.ID)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate tokens", err)
	}

	if err := af.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		log.Printf("auth: failed to update last login for user %d: %v", user.ID, err)
	}

	af.audit(ctx, &user.ID, models.AuditActionLoginSuccessful, "Login successful", true, metadata)

	return &dto.LoginResponse{
		Message: "Login successful",
		Token:   accessToken,
		User:    ToAuthUserDTO(*user),
	}, nil
}

// findByIdentifier accepts either a username or an email address
func (af *AuthFlowImpl) findByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return af.userRepo.ByEmail(ctx, strings.ToLower(identifier))
	}
	return af.userRepo.ByUsername(ctx, identifier)
}

func (af *AuthFlowImpl) audit(ctx context.Context, userID *uint, action, description string, success bool, metadata *ClientMetadata) {
	row := &models.AuditLog{
		UserID:      userID,
		Action:      action,
		Description: &description,
		Success:     utils.ToPtr(success),
	}
	if metadata != nil {
		if metadata.IPAddress != "" {
			row.IPAddress = &metadata.IPAddress
		}
		if metadata.UserAgent != "" {
			row.UserAgent = &metadata.UserAgent
		}
		if metadata.RequestID != "" {
			row.RequestID = &metadata.RequestID
		}
		if bs, err := json.Marshal(metadata); err == nil {
			row.Metadata = bs
		}
	}
	if err := af.auditRepo.Save(ctx, row); err != nil {
		log.Printf("auth: failed to write audit log for action %s: %v", action, err)
	}
}
