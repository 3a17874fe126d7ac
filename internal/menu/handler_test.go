package menu

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foodiebot/orderchat/internal/domain"
)

type fakeMenuLister struct {
	items      []domain.MenuItem
	categories []string
	category   string
	err        error
}

func (f *fakeMenuLister) ListAvailable(_ context.Context, category string) ([]domain.MenuItem, error) {
	f.category = category
	return f.items, f.err
}

func (f *fakeMenuLister) Categories(_ context.Context) ([]string, error) {
	return f.categories, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandler_HandleList(t *testing.T) {
	t.Run("lists available items", func(t *testing.T) {
		repo := &fakeMenuLister{items: []domain.MenuItem{
			{ID: 1, Name: "Veg Burger", Price: 149, Category: "Burgers"},
			{ID: 3, Name: "Margherita Pizza", Price: 299, Category: "Pizza"},
		}}
		handler := NewHandler(repo, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/menu", nil)
		rec := httptest.NewRecorder()

		handler.HandleList(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}

		var items []domain.MenuItem
		if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(items) != 2 {
			t.Errorf("expected 2 items, got %d", len(items))
		}
	})

	t.Run("passes the category filter through", func(t *testing.T) {
		repo := &fakeMenuLister{}
		handler := NewHandler(repo, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/menu?category=Pizza", nil)
		rec := httptest.NewRecorder()

		handler.HandleList(rec, req)

		if repo.category != "Pizza" {
			t.Errorf("expected category Pizza, got %q", repo.category)
		}
	})

	t.Run("empty menu is an empty array, not null", func(t *testing.T) {
		handler := NewHandler(&fakeMenuLister{}, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/menu", nil)
		rec := httptest.NewRecorder()

		handler.HandleList(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if got := rec.Body.String(); got != "[]\n" {
			t.Errorf("expected empty array, got %q", got)
		}
	})

	t.Run("repository failure is a 500", func(t *testing.T) {
		handler := NewHandler(&fakeMenuLister{err: errors.New("db down")}, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/menu", nil)
		rec := httptest.NewRecorder()

		handler.HandleList(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleCategories(t *testing.T) {
	repo := &fakeMenuLister{categories: []string{"All", "Burgers", "Pizza"}}
	handler := NewHandler(repo, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/menu/categories", nil)
	rec := httptest.NewRecorder()

	handler.HandleCategories(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var categories []string
	if err := json.Unmarshal(rec.Body.Bytes(), &categories); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(categories) != 3 || categories[0] != "All" {
		t.Errorf("unexpected categories: %v", categories)
	}
}
