// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billowria/teampulse/internal/gateway"
	"github.com/billowria/teampulse/internal/platform/apperr"
	"github.com/billowria/teampulse/internal/platform/sec"
)

// # Test Fakes

type fakeUserRepo struct {
	byID map[string]*User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]*User{}}
}

func (repo *fakeUserRepo) FindByID(_ context.Context, id string) (*User, error) {
	if user, ok := repo.byID[id]; ok {
		return user, nil
	}
	return nil, apperr.NotFound("User not found")
}

func (repo *fakeUserRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	for _, user := range repo.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User not found with this email")
}

func (repo *fakeUserRepo) FindByUsername(_ context.Context, username string) (*User, error) {
	for _, user := range repo.byID {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User not found with this username")
}

func (repo *fakeUserRepo) Create(_ context.Context, user *User) error {
	repo.byID[user.ID] = user
	return nil
}

func (repo *fakeUserRepo) Update(_ context.Context, user *User) error {
	repo.byID[user.ID] = user
	return nil
}

func (repo *fakeUserRepo) UpdatePassword(_ context.Context, userID, newHash string) error {
	if user, ok := repo.byID[userID]; ok {
		user.PasswordHash = newHash
	}
	return nil
}

func (repo *fakeUserRepo) SoftDelete(_ context.Context, id string) error {
	delete(repo.byID, id)
	return nil
}

type fakeSessionRepo struct {
	byHash map[string]*Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{byHash: map[string]*Session{}}
}

func (repo *fakeSessionRepo) Create(_ context.Context, session *Session) error {
	repo.byHash[session.TokenHash] = session
	return nil
}

func (repo *fakeSessionRepo) FindByTokenHash(_ context.Context, tokenHash string) (*Session, error) {
	session, ok := repo.byHash[tokenHash]
	if !ok || session.IsRevoked || session.ExpiresAt.Before(time.Now()) {
		return nil, apperr.NotFound("Session not found or expired")
	}
	return session, nil
}

func (repo *fakeSessionRepo) Revoke(_ context.Context, sessionID string) error {
	for _, session := range repo.byHash {
		if session.ID == sessionID {
			session.IsRevoked = true
		}
	}
	return nil
}

func (repo *fakeSessionRepo) RevokeAll(_ context.Context, userID string) error {
	for _, session := range repo.byHash {
		if session.UserID == userID {
			session.IsRevoked = true
		}
	}
	return nil
}

func (repo *fakeSessionRepo) RevokeOthers(_ context.Context, userID, currentSessionID string) error {
	for _, session := range repo.byHash {
		if session.UserID == userID && session.ID != currentSessionID {
			session.IsRevoked = true
		}
	}
	return nil
}

func (repo *fakeSessionRepo) DeleteExpired(_ context.Context) error { return nil }

type fakeResetRepo struct {
	tokens map[string]string
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: map[string]string{}}
}

func (repo *fakeResetRepo) Set(_ context.Context, token, userID string, _ time.Duration) error {
	repo.tokens[token] = userID
	return nil
}

func (repo *fakeResetRepo) Get(_ context.Context, token string) (string, error) {
	if userID, ok := repo.tokens[token]; ok {
		return userID, nil
	}
	return "", apperr.NotFound("Reset token is invalid or expired")
}

func (repo *fakeResetRepo) Delete(_ context.Context, token string) error {
	delete(repo.tokens, token)
	return nil
}

type fakeTokenProvider struct{}

func (fakeTokenProvider) GenerateAccessToken(userID, _, _ string, _ time.Duration) (string, error) {
	return "access-" + userID, nil
}

func newTestService() (*Service, *fakeUserRepo) {
	users := newFakeUserRepo()
	service := NewService(users, newFakeSessionRepo(), newFakeResetRepo(), nil, fakeTokenProvider{})
	return service, users
}

func registerTestUser(t *testing.T, service *Service, username, email, password string) *User {
	t.Helper()
	user, err := service.Register(context.Background(), RegisterInput{
		Username:    username,
		Email:       email,
		Password:    password,
		DisplayName: username,
	})
	require.NoError(t, err)
	return user
}

// # Tests

func TestRegisterRejectsDuplicateIdentity(t *testing.T) {
	service, _ := newTestService()
	registerTestUser(t, service, "minh", "minh@teampulse.dev", "s3cretpass")

	_, err := service.Register(context.Background(), RegisterInput{
		Username: "other",
		Email:    "minh@teampulse.dev",
		Password: "s3cretpass",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)

	_, err = service.Register(context.Background(), RegisterInput{
		Username: "minh",
		Email:    "new@teampulse.dev",
		Password: "s3cretpass",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)
}

func TestRegisterDefaultsToActiveMember(t *testing.T) {
	service, _ := newTestService()
	user := registerTestUser(t, service, "linh", "linh@teampulse.dev", "s3cretpass")

	assert.Equal(t, sec.RoleMember, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "s3cretpass", user.PasswordHash)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	service, _ := newTestService()
	registerTestUser(t, service, "minh", "minh@teampulse.dev", "s3cretpass")

	_, err := service.Login(context.Background(), LoginInput{Login: "minh", Password: "wrong-password"})
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)

	_, err = service.Login(context.Background(), LoginInput{Login: "ghost", Password: "s3cretpass"})
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
}

func TestLoginRejectsDeactivatedAccount(t *testing.T) {
	service, users := newTestService()
	user := registerTestUser(t, service, "minh", "minh@teampulse.dev", "s3cretpass")
	users.byID[user.ID].IsActive = false

	_, err := service.Login(context.Background(), LoginInput{Login: "minh", Password: "s3cretpass"})
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
}

func TestLoginEmitsSessionChange(t *testing.T) {
	service, _ := newTestService()
	user := registerTestUser(t, service, "minh", "minh@teampulse.dev", "s3cretpass")

	var events []*gateway.Session
	service.OnSessionChange(func(session *gateway.Session) {
		events = append(events, session)
	})

	login, err := service.Login(context.Background(), LoginInput{Login: "minh", Password: "s3cretpass"})
	require.NoError(t, err)

	require.Len(t, events, 1)
	require.NotNil(t, events[0])
	assert.Equal(t, user.ID, events[0].UserID)
	assert.Equal(t, login.RefreshToken, events[0].Token)

	require.NoError(t, service.Logout(context.Background(), login.RefreshToken))
	require.Len(t, events, 2)
	assert.Nil(t, events[1])
}

func TestRefreshSessionRotatesToken(t *testing.T) {
	service, _ := newTestService()
	registerTestUser(t, service, "minh", "minh@teampulse.dev", "s3cretpass")

	login, err := service.Login(context.Background(), LoginInput{Login: "minh", Password: "s3cretpass"})
	require.NoError(t, err)

	rotated, err := service.RefreshSession(context.Background(), login.RefreshToken, "ua", "127.0.0.1")
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	// The old token must be unusable after rotation.
	_, err = service.RefreshSession(context.Background(), login.RefreshToken, "ua", "127.0.0.1")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
}

func TestResetPasswordRevokesEverySession(t *testing.T) {
	service, _ := newTestService()
	registerTestUser(t, service, "minh", "minh@teampulse.dev", "s3cretpass")

	login, err := service.Login(context.Background(), LoginInput{Login: "minh", Password: "s3cretpass"})
	require.NoError(t, err)

	token, err := service.RequestPasswordReset(context.Background(), "minh@teampulse.dev")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, service.ResetPassword(context.Background(), token, "brandnewpass"))

	// Old refresh token is dead, new password works.
	_, err = service.RefreshSession(context.Background(), login.RefreshToken, "ua", "127.0.0.1")
	require.Error(t, err)

	_, err = service.Login(context.Background(), LoginInput{Login: "minh", Password: "brandnewpass"})
	require.NoError(t, err)
}

func TestSessionBridgeTracksCurrentSession(t *testing.T) {
	service, _ := newTestService()
	registerTestUser(t, service, "minh", "minh@teampulse.dev", "s3cretpass")
	bridge := NewSessionBridge(service)

	current, err := bridge.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)

	login, err := service.Login(context.Background(), LoginInput{Login: "minh", Password: "s3cretpass"})
	require.NoError(t, err)

	current, err = bridge.CurrentSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, login.RefreshToken, current.Token)

	require.NoError(t, bridge.SignOut(context.Background()))

	current, err = bridge.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)
}
