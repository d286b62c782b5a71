package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"trajectfit/internal/auth"
	apperrors "trajectfit/internal/errors"
	"trajectfit/internal/model"
)

func strPtr(s string) *string { return &s }

func TestUserService_Create(t *testing.T) {
	existing := &model.User{ID: uuid.New(), Email: "taken@example.com", Username: "taken"}

	tests := []struct {
		name          string
		input         CreateUserInput
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:  "successful registration",
			input: CreateUserInput{Email: "new@example.com", Username: "newbie", Password: "password123"},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("FindByUsername", mock.Anything, "newbie").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
		},
		{
			name:  "email already exists",
			input: CreateUserInput{Email: "taken@example.com", Username: "other", Password: "password123"},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "taken@example.com").Return(existing, nil)
			},
			expectedError: ErrUserAlreadyExists,
		},
		{
			name:  "username already exists",
			input: CreateUserInput{Email: "fresh@example.com", Username: "taken", Password: "password123"},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "fresh@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("FindByUsername", mock.Anything, "taken").Return(existing, nil)
			},
			expectedError: ErrUserAlreadyExists,
		},
		{
			name:  "unique index catches concurrent registration",
			input: CreateUserInput{Email: "race@example.com", Username: "racer", Password: "password123"},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "race@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("FindByUsername", mock.Anything, "racer").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(gorm.ErrDuplicatedKey)
			},
			expectedError: ErrUserAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.setupMock(repo)
			svc := NewUserService(repo, nil)

			user, err := svc.Create(context.Background(), tt.input)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.True(t, errors.Is(err, apperrors.ErrConflict))
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.input.Email, user.Email)
				assert.Equal(t, model.RoleUser, user.Role)
				assert.True(t, user.IsActive)
				assert.NotEqual(t, tt.input.Password, user.PasswordHash)
				assert.True(t, auth.VerifyPassword(tt.input.Password, user.PasswordHash))
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestUserService_Create_SaltsEveryHash(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)
	repo.On("FindByUsername", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
	svc := NewUserService(repo, nil)

	a, err := svc.Create(context.Background(), CreateUserInput{Email: "a@example.com", Username: "a", Password: "samepassword"})
	require.NoError(t, err)
	b, err := svc.Create(context.Background(), CreateUserInput{Email: "b@example.com", Username: "b", Password: "samepassword"})
	require.NoError(t, err)

	assert.NotEqual(t, a.PasswordHash, b.PasswordHash)
}

func TestUserService_Update(t *testing.T) {
	id := uuid.New()
	other := &model.User{ID: uuid.New(), Email: "other@example.com", Username: "other"}

	current := func() *model.User {
		return &model.User{ID: id, Email: "me@example.com", Username: "me", PasswordHash: "old-hash", Role: model.RoleUser, IsActive: true}
	}

	tests := []struct {
		name          string
		input         UpdateUserInput
		setupMock     func(*MockUserRepository)
		expectedError error
		check         func(*testing.T, *model.User)
	}{
		{
			name:  "user not found",
			input: UpdateUserInput{FirstName: strPtr("Ann")},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrNotFound,
		},
		{
			name:  "email taken by another user",
			input: UpdateUserInput{Email: strPtr("other@example.com")},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, id).Return(current(), nil)
				m.On("FindByEmail", mock.Anything, "other@example.com").Return(other, nil)
			},
			expectedError: ErrEmailTaken,
		},
		{
			name:  "username taken by another user",
			input: UpdateUserInput{Username: strPtr("other")},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, id).Return(current(), nil)
				m.On("FindByUsername", mock.Anything, "other").Return(other, nil)
			},
			expectedError: ErrUsernameTaken,
		},
		{
			name:  "unchanged email skips lookup",
			input: UpdateUserInput{Email: strPtr("me@example.com"), LastName: strPtr("Smith")},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, id).Return(current(), nil)
				m.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
			check: func(t *testing.T, u *model.User) {
				require.NotNil(t, u.LastName)
				assert.Equal(t, "Smith", *u.LastName)
				assert.Equal(t, "old-hash", u.PasswordHash)
			},
		},
		{
			name:  "password is re-hashed",
			input: UpdateUserInput{Password: strPtr("brand-new-secret")},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, id).Return(current(), nil)
				m.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
			check: func(t *testing.T, u *model.User) {
				assert.NotEqual(t, "old-hash", u.PasswordHash)
				assert.True(t, auth.VerifyPassword("brand-new-secret", u.PasswordHash))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.setupMock(repo)
			svc := NewUserService(repo, nil)

			user, err := svc.Update(context.Background(), id, tt.input)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
				repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				tt.check(t, user)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestUserService_Delete(t *testing.T) {
	id := uuid.New()

	t.Run("missing user", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("Delete", mock.Anything, id).Return(int64(0), nil)
		err := NewUserService(repo, nil).Delete(context.Background(), id)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("deleted", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("Delete", mock.Anything, id).Return(int64(1), nil)
		assert.NoError(t, NewUserService(repo, nil).Delete(context.Background(), id))
	})
}

func TestUserService_GetByEmail_AbsentIsNil(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)

	user, err := NewUserService(repo, nil).GetByEmail(context.Background(), "ghost@example.com")
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserService_GetByID_NotFoundMessage(t *testing.T) {
	id := uuid.New()
	repo := new(MockUserRepository)
	repo.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)

	_, err := NewUserService(repo, nil).GetByID(context.Background(), id)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, "User with ID "+id.String()+" not found", err.Error())
}

func TestUserService_RepositoryFailureIsNotConflict(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindByEmail", mock.Anything, "x@example.com").Return(nil, errors.New("connection refused"))

	_, err := NewUserService(repo, nil).Create(context.Background(), CreateUserInput{Email: "x@example.com", Username: "x", Password: "password123"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrConflict))
	assert.Equal(t, 500, apperrors.MapErrorToHTTP(err).StatusCode)
}
