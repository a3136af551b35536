// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render parses the site templates once and renders them with
// per-request data: language, current user and session flash messages.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/ocms-community/internal/i18n"
	"github.com/olegiv/ocms-community/internal/middleware"
	"github.com/olegiv/ocms-community/internal/store"
)

// Session keys for flash messages. The flash value is an i18n key.
const (
	sessionKeyFlash     = "flash"
	sessionKeyFlashType = "flash_type"
)

// Flash types.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// blankLinesRegex collapses runs of blank lines left behind by template actions.
var blankLinesRegex = regexp.MustCompile(`(\r?\n[ \t]*){2,}`)

// Renderer handles template rendering with caching.
type Renderer struct {
	templates      map[string]*template.Template
	sessionManager *scs.SessionManager
	siteName       string
	isDev          bool
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS    fs.FS
	SessionManager *scs.SessionManager
	SiteName       string
	IsDev          bool
}

// templateGroup is a directory of page templates sharing layouts.
type templateGroup struct {
	dir     string
	layouts []string
}

const (
	baseLayout  = "layouts/base.html"
	adminLayout = "layouts/admin.html"
)

var templateGroups = []templateGroup{
	{dir: "site", layouts: []string{baseLayout}},
	{dir: "users", layouts: []string{baseLayout}},
	{dir: "admin", layouts: []string{baseLayout, adminLayout}},
}

// New creates a new Renderer with parsed templates.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		templates:      make(map[string]*template.Template),
		sessionManager: cfg.SessionManager,
		siteName:       cfg.SiteName,
		isDev:          cfg.IsDev,
	}

	if err := r.parseTemplates(cfg.TemplatesFS); err != nil {
		return nil, err
	}

	return r, nil
}

// parseTemplates parses every page template together with its layouts and
// the shared partials. Templates are keyed "group/name".
func (r *Renderer) parseTemplates(templatesFS fs.FS) error {
	partials, err := templateFiles(templatesFS, "partials")
	if err != nil {
		return fmt.Errorf("getting partials: %w", err)
	}

	for _, group := range templateGroups {
		pages, err := templateFiles(templatesFS, group.dir)
		if err != nil {
			return fmt.Errorf("getting %s templates: %w", group.dir, err)
		}

		for _, tmplPath := range pages {
			name := group.dir + "/" + strings.TrimSuffix(path.Base(tmplPath), ".html")

			files := append([]string{}, group.layouts...)
			files = append(files, partials...)
			files = append(files, tmplPath)

			tmpl, err := template.New("").Funcs(TemplateFuncs()).ParseFS(templatesFS, files...)
			if err != nil {
				return fmt.Errorf("parsing template %s: %w", name, err)
			}
			r.templates[name] = tmpl
		}
	}

	return nil
}

// templateFiles returns all .html files in a directory. A missing
// directory yields no files.
func templateFiles(templatesFS fs.FS, dir string) ([]string, error) {
	var files []string

	entries, err := fs.ReadDir(templatesFS, dir)
	if err != nil {
		return files, nil
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}

	return files, nil
}

// Has reports whether a template called name was parsed.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// TemplateFuncs returns the functions available to every template.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"T": func(lang, key string, args ...any) string {
			return i18n.T(lang, key, args...)
		},
		"formatDate": func(v any) string {
			t, ok := asTime(v)
			if !ok {
				return ""
			}
			return t.Format("02.01.2006")
		},
		"formatDateTime": func(v any) string {
			t, ok := asTime(v)
			if !ok {
				return ""
			}
			return t.Format("02.01.2006 15:04")
		},
		// inputDateTime formats a value for <input type="datetime-local">.
		"inputDateTime": func(v any) string {
			t, ok := asTime(v)
			if !ok {
				return ""
			}
			return t.Format("2006-01-02T15:04")
		},
		"truncate": truncate,
		"hasPrefix": func(s, prefix string) bool {
			return strings.HasPrefix(s, prefix)
		},
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"seq": func(start, end int) []int {
			var result []int
			for i := start; i <= end; i++ {
				result = append(result, i)
			}
			return result
		},
		"dict": func(pairs ...any) (map[string]any, error) {
			if len(pairs)%2 != 0 {
				return nil, fmt.Errorf("dict: odd number of arguments")
			}
			m := make(map[string]any, len(pairs)/2)
			for i := 0; i < len(pairs); i += 2 {
				key, ok := pairs[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
				}
				m[key] = pairs[i+1]
			}
			return m, nil
		},
	}
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	}
	return time.Time{}, false
}

// truncate shortens s to at most length runes, adding an ellipsis when cut.
func truncate(s string, length int) string {
	if utf8.RuneCountInString(s) <= length {
		return s
	}
	runes := []rune(s)
	return string(runes[:length]) + "..."
}

// TemplateData holds data passed to templates.
type TemplateData struct {
	Title string
	Data  any

	// Form holds submitted values for redisplay, Errors the translated
	// per-field messages and Notice a form-level message.
	Form   map[string]string
	Errors map[string]string
	Notice string

	// Filled in by Render.
	Lang        string
	SiteName    string
	User        *store.User
	Path        string
	Flash       string
	FlashType   string
	CurrentYear int
}

// Render renders a template with status 200.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, name string, data TemplateData) error {
	return r.RenderStatus(w, req, http.StatusOK, name, data)
}

// RenderStatus renders a template with the given status code.
func (r *Renderer) RenderStatus(w http.ResponseWriter, req *http.Request, status int, name string, data TemplateData) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	data.CurrentYear = time.Now().Year()
	data.Lang = middleware.GetLanguage(req)
	data.SiteName = r.siteName
	data.User = middleware.GetUser(req)
	data.Path = req.URL.Path

	if r.sessionManager != nil {
		if flash := r.sessionManager.PopString(req.Context(), sessionKeyFlash); flash != "" {
			data.Flash = i18n.T(data.Lang, flash)
			data.FlashType = r.sessionManager.PopString(req.Context(), sessionKeyFlashType)
			if data.FlashType == "" {
				data.FlashType = FlashInfo
			}
		}
	}

	// Render to buffer first to catch errors
	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write(blankLinesRegex.ReplaceAll(buf.Bytes(), []byte("\n")))
	return err
}

// SetFlash stores a flash message key in the session for the next render.
func (r *Renderer) SetFlash(req *http.Request, key, flashType string) {
	if r.sessionManager != nil {
		r.sessionManager.Put(req.Context(), sessionKeyFlash, key)
		r.sessionManager.Put(req.Context(), sessionKeyFlashType, flashType)
	}
}
