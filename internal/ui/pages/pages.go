// Package pages holds the HTML pages of the app. Each page is a
// templ.Component backed by an embedded html/template, so handlers render
// them through ui.Render like any other component.
package pages

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/templui/travelmap/internal/ctxkeys"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.New("").ParseFS(templatesFS, "templates/*.html"))

// page is the data every template sees.
type page struct {
	Title     string
	AppName   string
	Nonce     string
	CSRFToken string
	Data      any
}

// LoginData drives the login page.
type LoginData struct {
	Error          string
	HasCoupleImage bool
}

// MapData drives the map page.
type MapData struct {
	HasCoupleImage bool
	MaxUploadSize  int64
}

func Login(data LoginData) templ.Component {
	return component("login.html", "Sign in", data)
}

func Map(data MapData) templ.Component {
	return component("map.html", "Map", data)
}

func NotFound() templ.Component {
	return component("not_found.html", "Not found", nil)
}

func component(name, title string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := page{
			Title:     title,
			AppName:   "Travel Map",
			Nonce:     templ.GetNonce(ctx),
			CSRFToken: ctxkeys.CSRFToken(ctx),
			Data:      data,
		}
		if cfg := ctxkeys.Config(ctx); cfg != nil && cfg.AppName != "" {
			p.AppName = cfg.AppName
		}
		return templates.ExecuteTemplate(w, name, p)
	})
}
