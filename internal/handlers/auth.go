package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"

	"ShopAdmin/internal/auth"
	"ShopAdmin/internal/metrics"
	mw "ShopAdmin/internal/middleware"

	"go.uber.org/zap"
)

// DashboardPath is where a successful login lands.
const DashboardPath = "/admin"

const invalidCredentialsMsg = "Invalid email or password"

// loginErrors maps the ?error= codes used by form-post redirects to the
// messages shown on the login page. Other values are ignored.
var loginErrors = map[string]string{
	"invalid": invalidCredentialsMsg,
	"form":    "Invalid form",
	"server":  "Internal server error",
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ShowLoginPage renders the login form. A request that already passes the
// session guard is sent to the dashboard instead.
func (h *Handlers) ShowLoginPage(w http.ResponseWriter, r *http.Request) {
	_, err := h.guard.Authorize(r)
	if err == nil {
		http.Redirect(w, r, DashboardPath, http.StatusFound)
		return
	}
	if auth.IsPersistence(err) {
		h.logger.Warn("login page guard check failed", zap.Error(err))
	}

	data := map[string]any{"Title": "Admin login", "LoginAPI": mw.LoginPath}
	if msg, ok := loginErrors[r.URL.Query().Get("error")]; ok {
		data["Error"] = msg
	}
	h.render(w, "login", data)
}

// HandleLogin accepts a JSON body {email, password} and answers in JSON.
// Plain form posts are answered with redirects.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	asJSON := isJSON(r)

	var in loginRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if asJSON {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			jsonError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Redirect(w, r, loginErrorURL("form"), http.StatusFound)
			return
		}
		in.Email = r.FormValue("email")
		in.Password = r.FormValue("password")
	}

	admin, err := h.verifier.Login(w, r, in.Email, in.Password)
	switch {
	case err == nil:
		h.metrics.Login(metrics.LoginSuccess)
		h.logger.Info("admin logged in", zap.Int64("admin_id", admin.ID))
		if !asJSON {
			http.Redirect(w, r, DashboardPath, http.StatusFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"redirect": DashboardPath})

	case errors.Is(err, auth.ErrInvalidCredentials):
		h.metrics.Login(metrics.LoginInvalid)
		if !asJSON {
			http.Redirect(w, r, loginErrorURL("invalid"), http.StatusFound)
			return
		}
		jsonError(w, http.StatusUnauthorized, invalidCredentialsMsg)

	default:
		h.metrics.Login(metrics.LoginError)
		if !asJSON {
			h.logger.Error("login failed", zap.Error(err))
			http.Redirect(w, r, loginErrorURL("server"), http.StatusFound)
			return
		}
		h.internalError(w, r, "login failed", err)
	}
}

// HandleLogout destroys the session and returns to the login page.
func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.verifier.Logout(w, r); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		http.Error(w, "Logout failed", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, mw.LoginPath, http.StatusFound)
}

func isJSON(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && ct == "application/json"
}

func loginErrorURL(code string) string {
	return mw.LoginPath + "?error=" + url.QueryEscape(code)
}
