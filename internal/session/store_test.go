package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/five82/veriaccess/internal/session/mocks"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 7,
		"exp":     exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestStore_SetTokensAndRead(t *testing.T) {
	s := NewStore(NewMemoryStorage())

	require.NoError(t, s.SetTokens("access-1", "refresh-1"))

	access, ok := s.AccessToken()
	require.True(t, ok)
	require.Equal(t, "access-1", access)

	refresh, ok := s.RefreshToken()
	require.True(t, ok)
	require.Equal(t, "refresh-1", refresh)
}

func TestStore_SetTokensEmptyRefreshKeepsExisting(t *testing.T) {
	s := NewStore(NewMemoryStorage())
	require.NoError(t, s.SetTokens("access-1", "refresh-1"))

	require.NoError(t, s.SetTokens("access-2", ""))

	access, _ := s.AccessToken()
	refresh, _ := s.RefreshToken()
	require.Equal(t, "access-2", access)
	require.Equal(t, "refresh-1", refresh)
}

func TestStore_ClearRemovesEverything(t *testing.T) {
	mem := NewMemoryStorage()
	s := NewStore(mem)
	require.NoError(t, s.SetTokens("a", "r"))
	require.NoError(t, s.SetUser(User{ID: 1, Username: "guard"}))

	require.NoError(t, s.Clear())

	_, ok := s.AccessToken()
	require.False(t, ok)
	_, ok = s.RefreshToken()
	require.False(t, ok)
	_, ok = s.User()
	require.False(t, ok)
	require.Zero(t, mem.Len())
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	mem := NewMemoryStorage()
	s := NewStore(mem)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
	require.Zero(t, mem.Len())
}

func TestStore_ClearDeletesKeysInOneCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := mocks.NewMockStorage(ctrl)
	storage.EXPECT().Delete(KeyAccessToken, KeyRefreshToken, KeyUser).Return(nil).Times(1)

	require.NoError(t, NewStore(storage).Clear())
}

func TestStore_ClearWrapsStorageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := mocks.NewMockStorage(ctrl)
	boom := errors.New("disk full")
	storage.EXPECT().Delete(gomock.Any(), gomock.Any(), gomock.Any()).Return(boom)

	err := NewStore(storage).Clear()
	require.ErrorIs(t, err, boom)
}

func TestStore_SetTokensStopsOnAccessWriteFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := mocks.NewMockStorage(ctrl)
	storage.EXPECT().Set(KeyAccessToken, "a").Return(errors.New("read-only"))

	err := NewStore(storage).SetTokens("a", "r")
	require.Error(t, err)
	require.Contains(t, err.Error(), "store access token")
}

func TestStore_UnavailableReadsNoSession(t *testing.T) {
	s := NewStore(nil)

	require.False(t, s.Available())
	require.NoError(t, s.SetTokens("a", "r"))
	require.NoError(t, s.SetUser(User{ID: 1}))
	require.NoError(t, s.Clear())

	_, ok := s.AccessToken()
	require.False(t, ok)
	_, ok = s.User()
	require.False(t, ok)
	require.False(t, s.IsAuthenticated(time.Now()))
}

func TestStore_NilStoreIsUnavailable(t *testing.T) {
	var s *Store
	require.False(t, s.Available())
	_, ok := s.AccessToken()
	require.False(t, ok)
}

func TestStore_UserRoundTripAndCorruptRecord(t *testing.T) {
	mem := NewMemoryStorage()
	s := NewStore(mem)

	require.NoError(t, s.SetUser(User{ID: 3, Username: "ana", Role: &Role{ID: 1, Name: AdminRole}}))
	u, ok := s.User()
	require.True(t, ok)
	require.Equal(t, "ana", u.Username)
	require.True(t, s.IsAdmin())
	require.True(t, s.HasRole(AdminRole))

	require.NoError(t, mem.Set(KeyUser, "{not json"))
	_, ok = s.User()
	require.False(t, ok)
	require.False(t, s.IsAdmin())
}

func TestStore_IsAuthenticated(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"valid", signedToken(t, now.Add(time.Hour)), true},
		{"expired", signedToken(t, now.Add(-time.Minute)), false},
		{"garbage", "not-a-jwt", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(NewMemoryStorage())
			if tt.token != "" {
				require.NoError(t, s.SetTokens(tt.token, "r"))
			}
			require.Equal(t, tt.want, s.IsAuthenticated(now))
		})
	}
}

func TestUser_IsAdmin(t *testing.T) {
	tests := []struct {
		name string
		user User
		want bool
	}{
		{"plain", User{Username: "res"}, false},
		{"staff", User{IsStaff: true}, true},
		{"superuser", User{IsSuperuser: true}, true},
		{"admin role", User{Role: &Role{Name: AdminRole}}, true},
		{"other role", User{Role: &Role{Name: "Security"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.user.IsAdmin())
		})
	}
}

func TestUser_DisplayName(t *testing.T) {
	require.Equal(t, "Ana Ruiz", User{Username: "ana", FirstName: "Ana", LastName: "Ruiz"}.DisplayName())
	require.Equal(t, "ana", User{Username: "ana"}.DisplayName())
}
