package pages

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/templui/travelmap/internal/config"
	"github.com/templui/travelmap/internal/ctxkeys"
)

func renderString(t *testing.T, ctx context.Context, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestMapPageCarriesNonceAndCSRF(t *testing.T) {
	ctx := templ.WithNonce(context.Background(), "n0nce")
	ctx = ctxkeys.WithCSRFToken(ctx, "tok3n")
	ctx = ctxkeys.WithConfig(ctx, &config.Config{AppName: "Our Trips"})

	html := renderString(t, ctx, Map(MapData{HasCoupleImage: true, MaxUploadSize: 1024}))

	for _, want := range []string{
		`<script nonce="n0nce">`,
		`content="tok3n"`,
		`1024`,
		`src="/couple-image"`,
		`Our Trips`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("map page missing %q", want)
		}
	}
}

func TestLoginPageEscapesError(t *testing.T) {
	ctx := ctxkeys.WithCSRFToken(context.Background(), "tok3n")
	html := renderString(t, ctx, Login(LoginData{Error: "<b>wrong</b>"}))

	if strings.Contains(html, "<b>wrong</b>") {
		t.Error("error message rendered unescaped")
	}
	if !strings.Contains(html, `name="csrf_token" value="tok3n"`) {
		t.Error("login form lacks the csrf field")
	}
	if strings.Contains(html, "/couple-image") {
		t.Error("couple image shown although none exists")
	}
}

func TestNotFoundRenders(t *testing.T) {
	html := renderString(t, context.Background(), NotFound())
	if !strings.Contains(html, "Nothing here") {
		t.Error("unexpected not found page")
	}
}
