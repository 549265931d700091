package user_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videotube/internal/apperr"
	"videotube/internal/user"
)

type fakeStore struct {
	accounts map[string]user.Account
}

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: make(map[string]user.Account)}
}

func (f *fakeStore) Create(_ context.Context, account user.Account) error {
	for _, existing := range f.accounts {
		if existing.Username == account.Username || existing.Email == account.Email {
			return user.ErrDuplicate
		}
	}
	f.accounts[account.ID] = account
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (user.Account, error) {
	account, ok := f.accounts[id]
	if !ok {
		return user.Account{}, user.ErrNotFound
	}
	return account, nil
}

func (f *fakeStore) GetByLogin(_ context.Context, usernameOrEmail string) (user.Account, error) {
	for _, account := range f.accounts {
		if account.Username == usernameOrEmail || account.Email == usernameOrEmail {
			return account, nil
		}
	}
	return user.Account{}, user.ErrNotFound
}

func (f *fakeStore) SetRefreshToken(_ context.Context, id, token string, expiresAt time.Time) error {
	account := f.accounts[id]
	account.RefreshToken = &token
	account.RefreshTokenExpiresAt = &expiresAt
	f.accounts[id] = account
	return nil
}

func (f *fakeStore) RotateRefreshToken(_ context.Context, id, presented, next string, expiresAt time.Time) error {
	account, ok := f.accounts[id]
	if !ok {
		return user.ErrNotFound
	}
	if account.RefreshToken == nil || *account.RefreshToken != presented {
		return user.ErrTokenMismatch
	}
	account.RefreshToken = &next
	account.RefreshTokenExpiresAt = &expiresAt
	f.accounts[id] = account
	return nil
}

func (f *fakeStore) ClearRefreshToken(_ context.Context, id string) error {
	account, ok := f.accounts[id]
	if !ok {
		return nil
	}
	account.RefreshToken = nil
	account.RefreshTokenExpiresAt = nil
	f.accounts[id] = account
	return nil
}

func (f *fakeStore) UpdatePasswordHash(_ context.Context, id, hash string) error {
	account, ok := f.accounts[id]
	if !ok {
		return user.ErrNotFound
	}
	account.PasswordHash = hash
	f.accounts[id] = account
	return nil
}

func (f *fakeStore) ClearExpiredRefreshTokens(_ context.Context, _ int) (int64, error) {
	return 0, nil
}

func validInput() user.RegisterInput {
	return user.RegisterInput{
		Username:  "Alice",
		FullName:  "Alice Example",
		Email:     "Alice@X.com",
		Password:  "p1",
		AvatarRef: "avatar.png",
	}
}

func kindOf(t *testing.T, err error) apperr.Kind {
	t.Helper()

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	return appErr.Kind
}

func TestRegisterNormalizesAndSanitizes(t *testing.T) {
	store := newFakeStore()
	service := user.NewService(store)

	view, err := service.Register(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, "alice", view.Username)
	assert.Equal(t, "alice@x.com", view.Email)
	assert.NotEmpty(t, view.ID)

	// The stored hash is not the plaintext and never leaks into the view.
	stored := store.accounts[view.ID]
	assert.NotEqual(t, "p1", stored.PasswordHash)
	assert.True(t, user.CheckPassword(stored.PasswordHash, "p1"))

	encoded, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "password")
	assert.NotContains(t, string(encoded), "refresh")
	assert.NotContains(t, string(encoded), stored.PasswordHash)
}

func TestRegisterRequiresAllFields(t *testing.T) {
	service := user.NewService(newFakeStore())

	for _, mutate := range []func(*user.RegisterInput){
		func(in *user.RegisterInput) { in.Username = " " },
		func(in *user.RegisterInput) { in.FullName = "" },
		func(in *user.RegisterInput) { in.Email = "\t" },
		func(in *user.RegisterInput) { in.Password = "  " },
		func(in *user.RegisterInput) { in.AvatarRef = "" },
	} {
		input := validInput()
		mutate(&input)

		_, err := service.Register(context.Background(), input)
		assert.Equal(t, apperr.KindValidation, kindOf(t, err))
	}
}

func TestRegisterDuplicateUsernameCaseInsensitive(t *testing.T) {
	service := user.NewService(newFakeStore())

	_, err := service.Register(context.Background(), validInput())
	require.NoError(t, err)

	second := validInput()
	second.Username = "ALICE"
	second.Email = "other@x.com"

	_, err = service.Register(context.Background(), second)
	assert.Equal(t, apperr.KindConflict, kindOf(t, err))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service := user.NewService(newFakeStore())

	_, err := service.Register(context.Background(), validInput())
	require.NoError(t, err)

	second := validInput()
	second.Username = "bob"

	_, err = service.Register(context.Background(), second)
	assert.Equal(t, apperr.KindConflict, kindOf(t, err))
}

func TestChangePasswordMatrix(t *testing.T) {
	store := newFakeStore()
	service := user.NewService(store)

	view, err := service.Register(context.Background(), validInput())
	require.NoError(t, err)

	err = service.ChangePassword(context.Background(), view.ID, "p1", "p2", "mismatch")
	assert.Equal(t, apperr.KindValidation, kindOf(t, err))

	err = service.ChangePassword(context.Background(), view.ID, "wrong", "p2", "p2")
	assert.Equal(t, apperr.KindUnauthorized, kindOf(t, err))

	require.NoError(t, service.ChangePassword(context.Background(), view.ID, "p1", "p2", "p2"))

	stored := store.accounts[view.ID]
	assert.False(t, user.CheckPassword(stored.PasswordHash, "p1"))
	assert.True(t, user.CheckPassword(stored.PasswordHash, "p2"))
}

func TestChangePasswordUnknownAccount(t *testing.T) {
	service := user.NewService(newFakeStore())

	err := service.ChangePassword(context.Background(), "missing", "p1", "p2", "p2")
	assert.Equal(t, apperr.KindUnauthorized, kindOf(t, err))
}

func TestPublicProjectionExcludesSecrets(t *testing.T) {
	token := "stored-refresh-token"
	account := user.Account{
		ID:           "id-1",
		Username:     "alice",
		Email:        "a@x.com",
		FullName:     "Alice",
		PasswordHash: "$2a$10$hash",
		RefreshToken: &token,
	}

	encoded, err := json.Marshal(account.Public())
	require.NoError(t, err)

	assert.NotContains(t, string(encoded), "$2a$10$hash")
	assert.NotContains(t, string(encoded), token)
}
