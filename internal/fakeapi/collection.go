package fakeapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// collection is an in-memory JSON resource keyed by id
type collection struct {
	mu       sync.Mutex
	now      func() time.Time
	defaults map[string]any
	records  map[string]map[string]any
}

func newCollection(now func() time.Time, defaults map[string]any) *collection {
	return &collection{
		now:      now,
		defaults: defaults,
		records:  map[string]map[string]any{},
	}
}

func (c *collection) mount(r chi.Router) {
	r.Get("/", c.list)
	r.Post("/", c.create)
	r.Get("/{id}", c.show)
	r.Put("/{id}", c.update)
	r.Delete("/{id}", c.remove)
}

func (c *collection) list(w http.ResponseWriter, _ *http.Request) {
	c.mu.Lock()
	out := make([]map[string]any, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, rec)
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		ci, _ := out[i]["created_at"].(string)
		cj, _ := out[j]["created_at"].(string)
		if ci == cj {
			return out[i]["id"].(string) < out[j]["id"].(string)
		}
		return ci < cj
	})
	writeJSON(w, http.StatusOK, out)
}

func (c *collection) create(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeObject(w, r)
	if !ok {
		return
	}
	if name, _ := body["name"].(string); name == "" {
		writeError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "name is required")
		return
	}

	now := c.now().UTC().Format(time.RFC3339Nano)
	rec := map[string]any{}
	for k, v := range c.defaults {
		rec[k] = v
	}
	for k, v := range body {
		rec[k] = v
	}
	rec["id"] = uuid.NewString()
	rec["created_at"] = now
	rec["updated_at"] = now

	c.mu.Lock()
	c.records[rec["id"].(string)] = rec
	c.mu.Unlock()

	writeJSON(w, http.StatusCreated, rec)
}

func (c *collection) show(w http.ResponseWriter, r *http.Request) {
	rec, ok := c.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (c *collection) update(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeObject(w, r)
	if !ok {
		return
	}
	if name, present := body["name"]; present {
		if s, _ := name.(string); s == "" {
			writeError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "name must not be empty")
			return
		}
	}

	rec, ok := c.patch(chi.URLParam(r, "id"), body)
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (c *collection) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c.mu.Lock()
	_, ok := c.records[id]
	delete(c.records, id)
	c.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *collection) get(id string) (map[string]any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[id]
	if !ok {
		return nil, false
	}
	return copyRecord(rec), true
}

func (c *collection) patch(id string, fields map[string]any) (map[string]any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[id]
	if !ok {
		return nil, false
	}
	for k, v := range fields {
		switch k {
		case "id", "created_at", "updated_at":
			continue
		}
		rec[k] = v
	}
	rec["updated_at"] = c.now().UTC().Format(time.RFC3339Nano)
	return copyRecord(rec), true
}

func copyRecord(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	body := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body")
		return nil, false
	}
	return body, true
}
