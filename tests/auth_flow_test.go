// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"testing"
	"time"

	"github.com/linkpulse/linkpulse/app/dto"
	"github.com/linkpulse/linkpulse/app/services"
	businessflow "github.com/linkpulse/linkpulse/business_flow"
	"github.com/linkpulse/linkpulse/models"
	"github.com/linkpulse/linkpulse/repository"
	testingutil "github.com/linkpulse/linkpulse/testing"
	"github.com/linkpulse/linkpulse/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFlow(t *testing.T, testDB *testingutil.TestDB) businessflow.AuthFlow {
	t.Helper()

	tokenService, err := services.NewTokenService(
		15*time.Minute, 7*24*time.Hour,
		"test-issuer", "test-audience",
		false, "", "",
		"test-secret-key-for-jwt-signing-32-chars",
	)
	require.NoError(t, err)

	return businessflow.NewAuthFlow(
		repository.NewUserRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		tokenService,
		services.NewNotificationService(services.NewMockEmailProvider()),
		testDB.DB,
	)
}

func signupRequest(username, email string) *dto.SignupRequest {
	return &dto.SignupRequest{
		Username:        username,
		Email:           email,
		Password:        "Sup3rSecret",
		ConfirmPassword: "Sup3rSecret",
	}
}

func TestAuthFlowSignup(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newAuthFlow(t, testDB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("203.0.113.10", "test-agent")

		t.Run("HappyPath", func(t *testing.T) {
			response, err := flow.Signup(ctx, signupRequest("alice", "alice@example.com"), metadata)
			require.NoError(t, err)
			assert.NotEmpty(t, response.Token)
			assert.Equal(t, "alice", response.User.Username)
			assert.Equal(t, int64(utils.SignupCredits), response.User.Credits)

			var stored models.User
			require.NoError(t, testDB.DB.Where("username = ?", "alice").Last(&stored).Error)
			assert.NotEqual(t, "Sup3rSecret", stored.PasswordHash)
			assert.True(t, utils.IsTrue(stored.IsActive))
		})

		t.Run("DuplicateEmail", func(t *testing.T) {
			_, err := flow.Signup(ctx, signupRequest("bob", "alice@example.com"), metadata)
			assert.True(t, businessflow.IsEmailAlreadyExists(err))
		})

		t.Run("DuplicateUsername", func(t *testing.T) {
			_, err := flow.Signup(ctx, signupRequest("alice", "bob@example.com"), metadata)
			assert.True(t, businessflow.IsUsernameTaken(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestAuthFlowLogin(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newAuthFlow(t, testDB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("203.0.113.10", "test-agent")

		_, err := flow.Signup(ctx, signupRequest("carol", "carol@example.com"), metadata)
		require.NoError(t, err)

		t.Run("LoginByUsername", func(t *testing.T) {
			response, err := flow.Login(ctx, &dto.LoginRequest{Identifier: "carol", Password: "Sup3rSecret"}, metadata)
			require.NoError(t, err)
			assert.NotEmpty(t, response.Token)
			assert.Equal(t, "carol", response.User.Username)
		})

		t.Run("LoginByEmail", func(t *testing.T) {
			response, err := flow.Login(ctx, &dto.LoginRequest{Identifier: "carol@example.com", Password: "Sup3rSecret"}, metadata)
			require.NoError(t, err)
			assert.NotEmpty(t, response.Token)
		})

		t.Run("WrongPassword", func(t *testing.T) {
			_, err := flow.Login(ctx, &dto.LoginRequest{Identifier: "carol", Password: "WrongPass1"}, metadata)
			assert.True(t, businessflow.IsIncorrectPassword(err))
		})

		t.Run("UnknownIdentifier", func(t *testing.T) {
			_, err := flow.Login(ctx, &dto.LoginRequest{Identifier: "nobody", Password: "Sup3rSecret"}, metadata)
			assert.True(t, businessflow.IsUserNotFound(err))
		})

		t.Run("InactiveAccount", func(t *testing.T) {
			require.NoError(t, testDB.DB.Model(&models.User{}).
				Where("username = ?", "carol").Update("is_active", false).Error)

			_, err := flow.Login(ctx, &dto.LoginRequest{Identifier: "carol", Password: "Sup3rSecret"}, metadata)
			assert.True(t, businessflow.IsAccountInactive(err))
		})

		return nil
	})
	require.NoError(t, err)
}
