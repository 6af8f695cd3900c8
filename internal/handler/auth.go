package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/travelmap/internal/ctxkeys"
	"github.com/templui/travelmap/internal/service"
	"github.com/templui/travelmap/internal/ui"
	"github.com/templui/travelmap/internal/ui/pages"
)

type AuthHandler struct {
	authService        *service.AuthService
	coupleImageService *service.CoupleImageService
}

func NewAuthHandler(authService *service.AuthService, coupleImageService *service.CoupleImageService) *AuthHandler {
	return &AuthHandler{
		authService:        authService,
		coupleImageService: coupleImageService,
	}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, pages.Login(pages.LoginData{
		HasCoupleImage: hasCoupleImage(r, h.coupleImageService),
	}))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	sess, err := h.authService.Login(r.Context(), r.PostFormValue("code"))
	if err != nil {
		status := http.StatusInternalServerError
		message := "Something went wrong, please try again."
		if errors.Is(err, service.ErrInvalidAccessCode) {
			status = http.StatusUnauthorized
			message = "That code is not right."
		} else {
			slog.Error("login failed", "error", err)
		}

		ui.RenderStatus(w, r, status, pages.Login(pages.LoginData{
			Error:          message,
			HasCoupleImage: hasCoupleImage(r, h.coupleImageService),
		}))
		return
	}

	h.authService.SetSessionCookie(w, sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := ctxkeys.Session(r.Context()); sess != nil {
		err := h.authService.Logout(r.Context(), sess.Token)
		if err != nil {
			slog.Error("failed to invalidate session", "error", err)
		}
	}

	h.authService.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// hasCoupleImage reports whether the logo exists. Lookup errors only hide it.
func hasCoupleImage(r *http.Request, svc *service.CoupleImageService) bool {
	_, err := svc.Current(r.Context())
	return err == nil
}
