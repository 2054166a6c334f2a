// Package resources provides typed access to the console backend
// collections. Every call goes through an *auth.Client so the session token
// is attached and failures are reported the same way everywhere.
package resources

import (
	"context"
	"net/url"
	"strings"
	"time"

	auth "github.com/goliatone/go-auth-client"
	goerrors "github.com/goliatone/go-errors"
)

// DataSource is a database connection registered in the console
type DataSource struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	DBType           string         `json:"db_type"`
	ConnectionConfig map[string]any `json:"connection_config"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type CreateDataSourceRequest struct {
	Name             string         `json:"name"`
	DBType           string         `json:"db_type"`
	ConnectionConfig map[string]any `json:"connection_config"`
}

type UpdateDataSourceRequest struct {
	Name             *string        `json:"name,omitempty"`
	DBType           *string        `json:"db_type,omitempty"`
	ConnectionConfig map[string]any `json:"connection_config,omitempty"`
}

// Storage is an upload/download target registered in the console
type Storage struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	StorageType      string         `json:"storage_type"`
	UploadEndpoint   string         `json:"upload_endpoint"`
	DownloadEndpoint string         `json:"download_endpoint"`
	AuthConfig       map[string]any `json:"auth_config"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type CreateStorageRequest struct {
	Name             string         `json:"name"`
	StorageType      string         `json:"storage_type"`
	UploadEndpoint   string         `json:"upload_endpoint"`
	DownloadEndpoint string         `json:"download_endpoint"`
	AuthConfig       map[string]any `json:"auth_config"`
}

type UpdateStorageRequest struct {
	Name             *string        `json:"name,omitempty"`
	StorageType      *string        `json:"storage_type,omitempty"`
	UploadEndpoint   *string        `json:"upload_endpoint,omitempty"`
	DownloadEndpoint *string        `json:"download_endpoint,omitempty"`
	AuthConfig       map[string]any `json:"auth_config,omitempty"`
}

// Task is a unit of work run by the executor
type Task struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	TaskType  string         `json:"task_type"`
	Status    string         `json:"status"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type CreateTaskRequest struct {
	Name     string         `json:"name"`
	TaskType string         `json:"task_type"`
	Metadata map[string]any `json:"metadata"`
}

type UpdateTaskRequest struct {
	Name     *string        `json:"name,omitempty"`
	TaskType *string        `json:"task_type,omitempty"`
	Status   *string        `json:"status,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// String returns a pointer to s, handy for update requests
func String(s string) *string {
	return &s
}

// collection implements CRUD for one backend path
type collection[T, C, U any] struct {
	client *auth.Client
	path   string
}

func (c collection[T, C, U]) itemPath(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", goerrors.New("empty id", goerrors.CategoryValidation)
	}
	return c.path + "/" + url.PathEscape(id), nil
}

// List returns every record
func (c collection[T, C, U]) List(ctx context.Context) ([]T, error) {
	var out []T
	if err := c.client.Get(ctx, c.path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create stores a new record and returns it as saved by the backend
func (c collection[T, C, U]) Create(ctx context.Context, req C) (*T, error) {
	out := new(T)
	if err := c.client.Post(ctx, c.path, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the record with the given id
func (c collection[T, C, U]) Get(ctx context.Context, id string) (*T, error) {
	path, err := c.itemPath(id)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := c.client.Get(ctx, path, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies the set fields of req to the record
func (c collection[T, C, U]) Update(ctx context.Context, id string, req U) (*T, error) {
	path, err := c.itemPath(id)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := c.client.Put(ctx, path, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the record
func (c collection[T, C, U]) Delete(ctx context.Context, id string) error {
	path, err := c.itemPath(id)
	if err != nil {
		return err
	}
	return c.client.Delete(ctx, path)
}

// DataSources manages /data-sources
type DataSources struct {
	collection[DataSource, CreateDataSourceRequest, UpdateDataSourceRequest]
}

// NewDataSources creates the data source API
func NewDataSources(client *auth.Client) *DataSources {
	return &DataSources{collection[DataSource, CreateDataSourceRequest, UpdateDataSourceRequest]{
		client: client,
		path:   "/data-sources",
	}}
}

// Storages manages /storages
type Storages struct {
	collection[Storage, CreateStorageRequest, UpdateStorageRequest]
}

// NewStorages creates the storage API
func NewStorages(client *auth.Client) *Storages {
	return &Storages{collection[Storage, CreateStorageRequest, UpdateStorageRequest]{
		client: client,
		path:   "/storages",
	}}
}

// ExecutePath is the executor endpoint
const ExecutePath = "/executor/execute"

// Tasks manages /tasks and runs tasks on the executor
type Tasks struct {
	collection[Task, CreateTaskRequest, UpdateTaskRequest]
}

// NewTasks creates the task API
func NewTasks(client *auth.Client) *Tasks {
	return &Tasks{collection[Task, CreateTaskRequest, UpdateTaskRequest]{
		client: client,
		path:   "/tasks",
	}}
}

// Execute asks the executor to run task id. The task id is sent as
// metadata.task_id; entries in metadata take precedence.
func (t *Tasks) Execute(ctx context.Context, id, taskType string, metadata map[string]any) (map[string]any, error) {
	if strings.TrimSpace(id) == "" {
		return nil, goerrors.New("empty task id", goerrors.CategoryValidation)
	}

	meta := map[string]any{"task_id": id}
	for k, v := range metadata {
		meta[k] = v
	}

	out := map[string]any{}
	err := t.client.Post(ctx, ExecutePath, map[string]any{
		"task_type": taskType,
		"metadata":  meta,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}
