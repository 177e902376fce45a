// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/olegiv/trapo-admin/internal/middleware"
	"github.com/olegiv/trapo-admin/internal/render"
)

// PagesHandler serves the browser pages: the login and register forms,
// the console shell and the views the admin guard renders.
type PagesHandler struct {
	renderer  *render.Renderer
	staticDir string
	logger    *slog.Logger
}

// NewPagesHandler creates a PagesHandler. When staticDir holds an
// index.html, the console shell is served from it instead of the
// embedded template.
func NewPagesHandler(renderer *render.Renderer, staticDir string, logger *slog.Logger) *PagesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PagesHandler{renderer: renderer, staticDir: staticDir, logger: logger}
}

// Login handles GET /login.
func (h *PagesHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login", render.TemplateData{Title: "Login"})
}

// Register handles GET /admin/register.
func (h *PagesHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register", render.TemplateData{Title: "Register"})
}

// Shell handles GET /admin and /admin/*. It is mounted behind the admin
// guard, so the session user is always an admin here.
func (h *PagesHandler) Shell(w http.ResponseWriter, r *http.Request) {
	if index := h.indexFile(); index != "" {
		http.ServeFile(w, r, index)
		return
	}

	data := render.TemplateData{Title: "Dashboard"}
	if store := middleware.GetSession(r); store != nil {
		data.Data = store.User()
	}
	h.render(w, r, http.StatusOK, "shell", data)
}

// GuardViews returns the loading and access-denied pages for
// middleware.RequireAdmin. The guard sets the status code.
func (h *PagesHandler) GuardViews() middleware.GuardViews {
	return middleware.GuardViews{
		Loading: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.render(w, r, http.StatusServiceUnavailable, "loading", render.TemplateData{Title: "Loading"})
		}),
		Denied: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data := render.TemplateData{Title: "Access denied"}
			if store := middleware.GetSession(r); store != nil {
				data.Data = store.User()
			}
			h.render(w, r, http.StatusForbidden, "denied", data)
		}),
	}
}

func (h *PagesHandler) indexFile() string {
	if h.staticDir == "" {
		return ""
	}
	index := filepath.Join(h.staticDir, "index.html")
	if info, err := os.Stat(index); err != nil || info.IsDir() {
		return ""
	}
	return index
}

func (h *PagesHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data render.TemplateData) {
	if err := h.renderer.Render(w, status, name, data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page", "page", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
