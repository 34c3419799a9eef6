package veriaccess

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/five82/veriaccess/internal/api"
	"github.com/five82/veriaccess/internal/session"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *session.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := session.NewStore(session.NewMemoryStorage())
	apiClient, err := api.New(api.Options{BaseURL: srv.URL + "/api", Session: store})
	require.NoError(t, err)
	client, err := New(apiClient, nil)
	require.NoError(t, err)
	return client, store
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_RequiresAPIClient(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)
}

func TestList_DecodesBareArrayAndEnvelope(t *testing.T) {
	var bare List[AccessZone]
	require.NoError(t, json.Unmarshal([]byte(`[{"id":1,"name":"Lobby"}]`), &bare))
	require.Len(t, bare.Items, 1)
	require.False(t, bare.Paginated)
	require.Equal(t, 1, bare.Count)

	var page List[AccessZone]
	raw := `{"count":12,"next":"http://h/api/access/access-zones/?page=2","previous":null,"results":[{"id":2,"name":"Garage"}]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &page))
	require.True(t, page.Paginated)
	require.Equal(t, 12, page.Count)
	require.Equal(t, "Garage", page.Items[0].Name)
	require.Contains(t, page.Next, "page=2")
	require.Empty(t, page.Previous)

	var empty List[AccessZone]
	require.NoError(t, json.Unmarshal([]byte(`null`), &empty))
	require.NotNil(t, empty.Items)

	var bad List[AccessZone]
	require.Error(t, json.Unmarshal([]byte(`42`), &bad))
}

func TestLogin_PersistsSession(t *testing.T) {
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login/", r.URL.Path)
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		require.Equal(t, "guard", in["username"])
		writeJSON(w, http.StatusOK, map[string]any{
			"access":  "a1",
			"refresh": "r1",
			"user":    map[string]any{"id": 3, "username": "guard", "is_staff": true},
		})
	}))

	resp, err := client.Login(context.Background(), " guard ", "secret")
	require.NoError(t, err)
	require.Equal(t, "a1", resp.Access)

	tok, _ := store.AccessToken()
	require.Equal(t, "a1", tok)
	rt, _ := store.RefreshToken()
	require.Equal(t, "r1", rt)
	require.True(t, store.IsAdmin())
}

func TestLogin_RejectedCredentialsLeaveSessionEmpty(t *testing.T) {
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
	}))

	_, err := client.Login(context.Background(), "guard", "wrong")
	require.Equal(t, "No active account found with the given credentials", api.Message(err))
	_, ok := store.AccessToken()
	require.False(t, ok)

	_, err = client.Login(context.Background(), "", "x")
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestRegister_ForcesNonStaffAndPersistsOnlyFullPair(t *testing.T) {
	var body map[string]any
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusCreated, map[string]any{"access": "a-only"})
	}))

	_, err := client.Register(context.Background(), Registration{Username: "new", Email: "n@x.io", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, false, body["is_staff"])
	require.Equal(t, false, body["is_superuser"])
	require.Equal(t, "new", body["username"])

	_, ok := store.AccessToken()
	require.False(t, ok)
}

func TestLogout_ClearsEvenWhenBackendFails(t *testing.T) {
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	require.NoError(t, store.SetTokens("a", "r"))
	require.NoError(t, store.SetUser(session.User{ID: 1}))

	require.NoError(t, client.Logout(context.Background()))
	_, ok := store.AccessToken()
	require.False(t, ok)
	_, ok = store.User()
	require.False(t, ok)
}

func TestCheckSession(t *testing.T) {
	calls := 0
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, http.StatusOK, map[string]any{"id": 5, "username": "ana"})
	}))

	require.False(t, client.CheckSession(context.Background()))
	require.Zero(t, calls)

	require.NoError(t, store.SetTokens("a", "r"))
	require.True(t, client.CheckSession(context.Background()))
	user, ok := store.User()
	require.True(t, ok)
	require.Equal(t, "ana", user.Username)
}

func TestCheckSession_ExpiredRefreshReturnsFalse(t *testing.T) {
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	require.NoError(t, store.SetTokens("a", "r"))

	require.False(t, client.CheckSession(context.Background()))
	_, ok := store.RefreshToken()
	require.False(t, ok)
}

func TestCreateVisitor_JSONDefaultsToPending(t *testing.T) {
	var body map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusCreated, map[string]any{"id": 7, "first_name": "Ana", "last_name": "Ruiz", "status": "pending"})
	}))

	v, err := client.CreateVisitor(context.Background(), NewVisitor{FirstName: "Ana", LastName: "Ruiz", IDNumber: "X1"})
	require.NoError(t, err)
	require.Equal(t, "pending", body["status"])
	require.Equal(t, "Ana Ruiz", v.FullName())
}

func TestCreateVisitor_PhotoSendsMultipart(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "pending", r.FormValue("status"))
		require.Equal(t, "Ana", r.FormValue("first_name"))
		f, _, err := r.FormFile("photo")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		require.Equal(t, "img", string(data))
		writeJSON(w, http.StatusCreated, map[string]any{"id": 8})
	}))

	v, err := client.CreateVisitor(context.Background(), NewVisitor{
		FirstName: "Ana",
		Photo:     &Photo{Filename: "ana.png", ContentType: "image/png", Data: []byte("img")},
	})
	require.NoError(t, err)
	require.EqualValues(t, 8, v.ID)
}

func TestUpdateVisitorStatus_FallsBackToPatch(t *testing.T) {
	var paths []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.URL.Path == "/api/access/visitors/4/update_status/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": 4, "status": "approved"})
	}))

	v, err := client.UpdateVisitorStatus(context.Background(), 4, VisitorApproved)
	require.NoError(t, err)
	require.Equal(t, VisitorApproved, v.Status)
	require.Equal(t, []string{
		"PATCH /api/access/visitors/4/update_status/",
		"PATCH /api/access/visitors/4/",
	}, paths)
}

func TestUpdateVisitorStatus_ForbiddenIsNotRetried(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "No permission."})
	}))

	_, err := client.UpdateVisitorStatus(context.Background(), 4, VisitorDenied)
	require.Equal(t, api.Forbidden, api.Normalize(err).Kind)
	require.Equal(t, 1, calls)
}

func TestVisitors_DegradesToEmptyOnServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	visitors, err := client.Visitors(context.Background())
	require.NoError(t, err)
	require.Empty(t, visitors)

	_, err = client.AccessZones(context.Background())
	require.Equal(t, api.ServerError, api.Normalize(err).Kind)
}

func TestRecentAccessLogs_DefaultLimit(t *testing.T) {
	var limit string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/access/access-logs/recent/", r.URL.Path)
		limit = r.URL.Query().Get("limit")
		writeJSON(w, http.StatusOK, []map[string]any{{
			"id": 1, "status": "granted", "direction": "in",
			"user_detail":         map[string]any{"id": 2, "username": "ana"},
			"access_point_detail": map[string]any{"id": 3, "name": "Main gate"},
			"timestamp":           "2024-05-01T10:00:00Z",
		}})
	}))

	logs, err := client.RecentAccessLogs(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, "10", limit)
	require.Len(t, logs, 1)
	require.True(t, logs[0].Granted())
	require.Equal(t, "ana", logs[0].Who())
	require.Equal(t, "Main gate", logs[0].Where())
	require.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), logs[0].ParsedTimestamp())
}

func TestRemoteControl_RejectsUnknownAction(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler())
	_, err := client.RemoteControl(context.Background(), 1, "explode")
	require.Error(t, err)
}

func TestCreateVehicle_DefaultsOwnerToSignedInUser(t *testing.T) {
	var body map[string]any
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusCreated, map[string]any{"id": 1, "license_plate": "ABC123"})
	}))

	_, err := client.CreateVehicle(context.Background(), NewVehicle{LicensePlate: "ABC123"})
	require.True(t, errors.Is(err, ErrNoSignedInUser))

	require.NoError(t, store.SetUser(session.User{ID: 42}))
	v, err := client.CreateVehicle(context.Background(), NewVehicle{LicensePlate: "ABC123", ParkingArea: 2})
	require.NoError(t, err)
	require.Equal(t, "ABC123", v.LicensePlate)
	require.EqualValues(t, 42, body["user"])
}

func TestCreateVehicle_ValidationMessage(t *testing.T) {
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"license_plate": {"This field is required."}})
	}))
	require.NoError(t, store.SetUser(session.User{ID: 1}))

	_, err := client.CreateVehicle(context.Background(), NewVehicle{})
	norm := api.Normalize(err)
	require.Equal(t, api.ValidationError, norm.Kind)
	require.Equal(t, "license_plate: This field is required.", norm.Message)
}

func TestRegisterEntryAndExit(t *testing.T) {
	var directions []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in vehicleMove
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		directions = append(directions, r.URL.Path+" "+in.Direction)
		writeJSON(w, http.StatusCreated, map[string]any{"id": 1, "direction": in.Direction})
	}))

	_, err := client.RegisterEntry(context.Background(), 1, 2)
	require.NoError(t, err)
	_, err = client.RegisterExit(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"/api/parking/register-entry/ in", "/api/parking/register-exit/ out"}, directions)
}

func TestPreferences(t *testing.T) {
	var patched string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"count": 1, "results": []map[string]any{{"id": 9, "email_enabled": true}}})
		case http.MethodPatch:
			patched = r.URL.Path
			writeJSON(w, http.StatusOK, map[string]any{"id": 9, "email_enabled": false})
		}
	}))

	prefs, err := client.Preferences(context.Background())
	require.NoError(t, err)
	require.True(t, prefs.EmailEnabled)

	updated, err := client.UpdatePreferences(context.Background(), Fields{"email_enabled": false})
	require.NoError(t, err)
	require.False(t, updated.EmailEnabled)
	require.Equal(t, "/api/notifications/preferences/9/", patched)
}

func TestPreferences_EmptyList(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	}))
	_, err := client.Preferences(context.Background())
	require.ErrorIs(t, err, ErrNoPreferences)
}

func TestUnread(t *testing.T) {
	got := Unread([]Notification{{ID: 1, Read: true}, {ID: 2}, {ID: 3}})
	require.Len(t, got, 2)
	require.EqualValues(t, 2, got[0].ID)
}

func TestGeneratedReports_FilterByReport(t *testing.T) {
	var queries []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		writeJSON(w, http.StatusOK, []any{})
	}))

	_, err := client.GeneratedReports(context.Background(), 0)
	require.NoError(t, err)
	_, err = client.GeneratedReports(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, []string{"", "report=3"}, queries)
}

func TestGenerateReport_FlattensParams(t *testing.T) {
	var body map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusCreated, map[string]any{"id": 1, "report": 3, "format": "pdf"})
	}))

	out, err := client.GenerateReport(context.Background(), 3, ReportParams{Format: "pdf", PeriodStart: "2024-01-01"})
	require.NoError(t, err)
	require.Equal(t, "pdf", out.Format)
	require.EqualValues(t, 3, body["report"])
	require.Equal(t, "2024-01-01", body["period_start"])
}

func TestEndEmergency_SendsTimestamp(t *testing.T) {
	var body map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/api/security/events/6/", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, map[string]any{"id": 6})
	}))

	at := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	_, err := client.EndEmergency(context.Background(), 6, "all clear", at)
	require.NoError(t, err)
	require.Equal(t, "2024-02-03T04:05:06Z", body["ended_at"])
	require.Equal(t, "all clear", body["notes"])
}
