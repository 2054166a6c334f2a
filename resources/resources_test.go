package resources_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	auth "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/internal/fakeapi"
	"github.com/goliatone/go-auth-client/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSession struct {
	token   string
	logouts int
}

func (s *staticSession) Token() string { return s.token }

func (s *staticSession) Logout(context.Context) {
	s.token = ""
	s.logouts++
}

type noticeLog struct {
	mu      sync.Mutex
	notices []auth.Notice
}

func (n *noticeLog) Notify(notice auth.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

type fixture struct {
	backend  *fakeapi.Server
	client   *auth.Client
	session  *staticSession
	notices  *noticeLog
	requests func() []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	backend := fakeapi.New()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	userID := backend.AddUser("alice", "secret")
	token, _, err := backend.IssueToken(userID, "alice", time.Hour)
	require.NoError(t, err)

	opts := auth.DefaultOptions()
	opts.BaseURL = srv.URL + fakeapi.Prefix

	f := &fixture{
		backend:  backend,
		session:  &staticSession{token: token},
		notices:  &noticeLog{},
		requests: backend.Requests,
	}

	f.client, err = auth.NewClient(opts, f.session,
		auth.WithNotifier(f.notices),
		auth.WithClientLogger(auth.NopLogger()),
	)
	require.NoError(t, err)
	return f
}

func TestDataSources_CRUD(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	api := resources.NewDataSources(f.client)

	list, err := api.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	created, err := api.Create(ctx, resources.CreateDataSourceRequest{
		Name:             "warehouse",
		DBType:           "postgres",
		ConnectionConfig: map[string]any{"host": "db.internal", "port": float64(5432)},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "warehouse", created.Name)
	assert.Equal(t, "postgres", created.DBType)
	assert.Equal(t, float64(5432), created.ConnectionConfig["port"])
	assert.False(t, created.CreatedAt.IsZero())

	got, err := api.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	updated, err := api.Update(ctx, created.ID, resources.UpdateDataSourceRequest{Name: resources.String("analytics")})
	require.NoError(t, err)
	assert.Equal(t, "analytics", updated.Name)
	assert.Equal(t, "postgres", updated.DBType, "fields not set are kept")

	list, err = api.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, api.Delete(ctx, created.ID))

	_, err = api.Get(ctx, created.ID)
	assert.True(t, auth.IsNotFound(err))

	assert.Equal(t, []string{
		"GET /data-sources",
		"POST /data-sources",
		"GET /data-sources/" + created.ID,
		"PUT /data-sources/" + created.ID,
		"GET /data-sources",
		"DELETE /data-sources/" + created.ID,
		"GET /data-sources/" + created.ID,
	}, f.requests())
}

func TestStorages_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	api := resources.NewStorages(f.client)

	_, err := api.Create(ctx, resources.CreateStorageRequest{StorageType: "s3"})
	require.Error(t, err)
	assert.True(t, auth.IsValidationError(err))
	assert.Equal(t, 422, auth.StatusCode(err))

	require.Len(t, f.notices.notices, 1)
	assert.Equal(t, auth.NoticeValidation, f.notices.notices[0].Kind)
	assert.Equal(t, "name is required", f.notices.notices[0].Message)

	storage, err := api.Create(ctx, resources.CreateStorageRequest{
		Name:           "exports",
		StorageType:    "s3",
		UploadEndpoint: "https://s3.example.com/up",
	})
	require.NoError(t, err)

	_, err = api.Update(ctx, storage.ID, resources.UpdateStorageRequest{Name: resources.String("")})
	assert.True(t, auth.IsValidationError(err))
}

func TestCollection_EmptyID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	api := resources.NewTasks(f.client)

	_, err := api.Get(ctx, "  ")
	assert.True(t, auth.IsValidationError(err))
	assert.True(t, auth.IsValidationError(api.Delete(ctx, "")))

	_, err = api.Execute(ctx, "", "export", nil)
	assert.True(t, auth.IsValidationError(err))

	assert.Empty(t, f.requests(), "nothing is sent for an empty id")
	assert.Empty(t, f.notices.notices)
}

func TestCollection_MissingRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := resources.NewStorages(f.client).Delete(ctx, "no such/id")
	require.Error(t, err)
	assert.True(t, auth.IsNotFound(err))
	assert.Equal(t, []string{"DELETE /storages/no such/id"}, f.requests())
}

func TestTasks_Execute(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	api := resources.NewTasks(f.client)

	task, err := api.Create(ctx, resources.CreateTaskRequest{Name: "nightly", TaskType: "export"})
	require.NoError(t, err)
	assert.Equal(t, "pending", task.Status)

	out, err := api.Execute(ctx, task.ID, "export", map[string]any{"dry_run": true})
	require.NoError(t, err)
	assert.Equal(t, task.ID, out["task_id"])
	assert.Equal(t, "running", out["status"])

	got, err := api.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "running", got.Status)

	_, err = api.Execute(ctx, "missing", "export", nil)
	assert.True(t, auth.IsNotFound(err))
}

func TestResources_ExpiredSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.backend.Revoke(f.session.token)

	_, err := resources.NewTasks(f.client).List(ctx)
	require.Error(t, err)
	assert.True(t, auth.IsUnauthorized(err))
	assert.Equal(t, 1, f.session.logouts)
	assert.Empty(t, f.session.Token())

	require.Len(t, f.notices.notices, 1)
	assert.Equal(t, auth.NoticeSessionExpired, f.notices.notices[0].Kind)
}
