package user

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"biteme-be/internal/auth"
	"biteme-be/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRepository) Create(ctx context.Context, u *User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id string) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) UpdateProfile(ctx context.Context, id string, changes ProfileChanges) (*User, error) {
	args := m.Called(ctx, id, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) SetAdmin(ctx context.Context, email string, admin bool, at time.Time) (*User, error) {
	args := m.Called(ctx, email, admin, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo Repository) (*service, *auth.Credentials) {
	creds := auth.NewCredentials("testsecret", time.Hour)
	svc := NewService(repo, creds).(*service)
	svc.now = func() time.Time { return testNow }
	return svc, creds
}

func storedUser(t *testing.T, password string) *User {
	t.Helper()
	hashed, err := auth.HashPassword(password)
	require.NoError(t, err)
	return &User{
		ID:             "65f1c0ffee0000000000abcd",
		Email:          "ada@biteme.test",
		FullName:       "Ada Lovelace",
		HashedPassword: hashed,
		IsActive:       true,
	}
}

type verifySpy struct {
	*auth.Credentials
	calls int
}

func (v *verifySpy) Verify(password, digest string) bool {
	v.calls++
	return v.Credentials.Verify(password, digest)
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		svc, creds := newTestService(repo)

		repo.On("FindByEmail", ctx, "ada@biteme.test").Return(nil, ErrUserNotFound)
		repo.On("Create", ctx, mock.AnythingOfType("*user.User")).Run(func(args mock.Arguments) {
			args.Get(1).(*User).ID = "65f1c0ffee0000000000abcd"
		}).Return(nil)

		u, err := svc.Register(ctx, RegisterInput{
			Email:    "  Ada@BiteMe.test ",
			Password: "password123",
			FullName: " Ada Lovelace ",
		})

		require.NoError(t, err)
		assert.Equal(t, "65f1c0ffee0000000000abcd", u.ID)
		assert.Equal(t, "ada@biteme.test", u.Email)
		assert.Equal(t, "Ada Lovelace", u.FullName)
		assert.True(t, u.IsActive)
		assert.False(t, u.IsAdmin)
		assert.Equal(t, testNow, u.CreatedAt)
		assert.NotEqual(t, "password123", u.HashedPassword)
		assert.True(t, creds.Verify("password123", u.HashedPassword))
		repo.AssertExpectations(t)
	})

	t.Run("EmailTaken", func(t *testing.T) {
		repo := new(MockRepository)
		svc, _ := newTestService(repo)

		repo.On("FindByEmail", ctx, "ada@biteme.test").Return(&User{ID: "x"}, nil)

		_, err := svc.Register(ctx, RegisterInput{Email: "ada@biteme.test", Password: "password123", FullName: "Ada"})
		assert.ErrorIs(t, err, ErrEmailExists)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("ShortPassword", func(t *testing.T) {
		repo := new(MockRepository)
		svc, _ := newTestService(repo)

		_, err := svc.Register(ctx, RegisterInput{Email: "ada@biteme.test", Password: "short", FullName: "Ada"})
		assert.ErrorIs(t, err, ErrInvalidInput)
		repo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	})

	t.Run("MultibytePasswordOverBcryptLimit", func(t *testing.T) {
		repo := new(MockRepository)
		svc, _ := newTestService(repo)

		_, err := svc.Register(ctx, RegisterInput{
			Email:    "ada@biteme.test",
			Password: strings.Repeat("é", 72),
			FullName: "Ada",
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
		repo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	})

	t.Run("BadEmail", func(t *testing.T) {
		repo := new(MockRepository)
		svc, _ := newTestService(repo)

		_, err := svc.Register(ctx, RegisterInput{Email: "not-an-email", Password: "password123", FullName: "Ada"})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("IssuesBearerToken", func(t *testing.T) {
		repo := new(MockRepository)
		svc, creds := newTestService(repo)
		u := storedUser(t, "password123")

		repo.On("FindByEmail", ctx, "ada@biteme.test").Return(u, nil)

		tok, err := svc.Login(ctx, "ADA@biteme.test", "password123")
		require.NoError(t, err)
		assert.Equal(t, "bearer", tok.TokenType)

		claims, err := creds.ValidateToken(tok.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, u.ID, claims.Subject)
		assert.Equal(t, u.Email, claims.Email)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		repo := new(MockRepository)
		svc, _ := newTestService(repo)

		repo.On("FindByEmail", ctx, "ada@biteme.test").Return(storedUser(t, "password123"), nil)

		_, err := svc.Login(ctx, "ada@biteme.test", "password124")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		repo := new(MockRepository)
		svc, creds := newTestService(repo)
		spy := &verifySpy{Credentials: creds}
		svc.creds = spy

		repo.On("FindByEmail", ctx, "ghost@biteme.test").Return(nil, ErrUserNotFound)

		_, err := svc.Login(ctx, "ghost@biteme.test", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, 1, spy.calls, "unknown accounts still pay for a bcrypt compare")
	})

	t.Run("Inactive", func(t *testing.T) {
		repo := new(MockRepository)
		svc, _ := newTestService(repo)
		u := storedUser(t, "password123")
		u.IsActive = false

		repo.On("FindByEmail", ctx, "ada@biteme.test").Return(u, nil)

		_, err := svc.Login(ctx, "ada@biteme.test", "password123")
		assert.ErrorIs(t, err, ErrInactiveUser)
	})

	t.Run("StoreDown", func(t *testing.T) {
		repo := new(MockRepository)
		svc, _ := newTestService(repo)
		boom := errors.New("connection refused")

		repo.On("FindByEmail", ctx, "ada@biteme.test").Return(nil, boom)

		_, err := svc.Login(ctx, "ada@biteme.test", "password123")
		assert.ErrorIs(t, err, boom)
	})
}

func TestService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	id := "65f1c0ffee0000000000abcd"

	t.Run("NoChanges", func(t *testing.T) {
		repo := new(MockRepository)
		svc, _ := newTestService(repo)

		_, err := svc.UpdateProfile(ctx, id, UpdateProfileParams{})
		assert.ErrorIs(t, err, ErrNoChanges)
	})

	t.Run("MultibytePasswordOverBcryptLimit", func(t *testing.T) {
		repo := new(MockRepository)
		svc, _ := newTestService(repo)
		password := strings.Repeat("é", 72)

		_, err := svc.UpdateProfile(ctx, id, UpdateProfileParams{Password: &password})
		assert.ErrorIs(t, err, ErrInvalidInput)
		repo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("EmailTakenByAnotherUser", func(t *testing.T) {
		repo := new(MockRepository)
		svc, _ := newTestService(repo)
		email := "bob@biteme.test"

		repo.On("FindByEmail", ctx, email).Return(&User{ID: "someone-else"}, nil)

		_, err := svc.UpdateProfile(ctx, id, UpdateProfileParams{Email: &email})
		assert.ErrorIs(t, err, ErrEmailExists)
		repo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("SameEmailIsAllowed", func(t *testing.T) {
		repo := new(MockRepository)
		svc, _ := newTestService(repo)
		email := "Ada@BiteMe.test"

		repo.On("FindByEmail", ctx, "ada@biteme.test").Return(&User{ID: id}, nil)
		repo.On("UpdateProfile", ctx, id, mock.MatchedBy(func(c ProfileChanges) bool {
			return *c.Email == "ada@biteme.test" && c.HashedPassword == nil && c.UpdatedAt.Equal(testNow)
		})).Return(&User{ID: id, Email: "ada@biteme.test"}, nil)

		u, err := svc.UpdateProfile(ctx, id, UpdateProfileParams{Email: &email})
		require.NoError(t, err)
		assert.Equal(t, "ada@biteme.test", u.Email)
		repo.AssertExpectations(t)
	})

	t.Run("PasswordIsRehashed", func(t *testing.T) {
		repo := new(MockRepository)
		svc, creds := newTestService(repo)
		password := "new-password-1"

		repo.On("UpdateProfile", ctx, id, mock.MatchedBy(func(c ProfileChanges) bool {
			return c.HashedPassword != nil && creds.Verify(password, *c.HashedPassword)
		})).Return(&User{ID: id}, nil)

		_, err := svc.UpdateProfile(ctx, id, UpdateProfileParams{Password: &password})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestService_SetAdmin(t *testing.T) {
	t.Run("Operator", func(t *testing.T) {
		ctx := utils.WithInternalRequest(context.Background())
		repo := new(MockRepository)
		svc, _ := newTestService(repo)

		repo.On("SetAdmin", ctx, "ada@biteme.test", true, testNow).Return(&User{ID: "1", IsAdmin: true}, nil)

		u, err := svc.SetAdmin(ctx, " ADA@biteme.test", true)
		require.NoError(t, err)
		assert.True(t, u.IsAdmin)
	})

	t.Run("RegularRequest", func(t *testing.T) {
		repo := new(MockRepository)
		svc, _ := newTestService(repo)

		_, err := svc.SetAdmin(context.Background(), "ada@biteme.test", true)
		assert.ErrorIs(t, err, ErrOperatorOnly)
		repo.AssertNotCalled(t, "SetAdmin", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("ResolvesUser", func(t *testing.T) {
		repo := new(MockRepository)
		svc, creds := newTestService(repo)
		u := storedUser(t, "password123")
		token, err := creds.IssueToken(u.ID, u.Email, false)
		require.NoError(t, err)

		repo.On("FindByID", ctx, u.ID).Return(u, nil)

		got, err := svc.Authenticate(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("Garbage", func(t *testing.T) {
		repo := new(MockRepository)
		svc, _ := newTestService(repo)

		_, err := svc.Authenticate(ctx, "not.a.token")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("DeletedUser", func(t *testing.T) {
		repo := new(MockRepository)
		svc, creds := newTestService(repo)
		token, err := creds.IssueToken("65f1c0ffee0000000000dead", "gone@biteme.test", false)
		require.NoError(t, err)

		repo.On("FindByID", ctx, "65f1c0ffee0000000000dead").Return(nil, ErrUserNotFound)

		_, err = svc.Authenticate(ctx, token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("Deactivated", func(t *testing.T) {
		repo := new(MockRepository)
		svc, creds := newTestService(repo)
		u := storedUser(t, "password123")
		u.IsActive = false
		token, err := creds.IssueToken(u.ID, u.Email, false)
		require.NoError(t, err)

		repo.On("FindByID", ctx, u.ID).Return(u, nil)

		_, err = svc.Authenticate(ctx, token)
		assert.ErrorIs(t, err, ErrInactiveUser)
	})
}
