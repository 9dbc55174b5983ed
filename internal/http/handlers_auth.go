package http

import (
	"errors"
	"net/http"

	"wallet/internal/apiclient"
	"wallet/internal/log"
	"wallet/internal/notify"
	"wallet/internal/session"
	"wallet/internal/validation"
)

type loginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type loginView struct {
	Email  string
	Errors validation.FieldErrors
	Flash  *notify.Notification
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(session.CookieName); err == nil {
		if _, ok := s.sessions.Get(c.Value); ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}
	s.render(w, r, "login.html", http.StatusOK, loginView{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	var form loginForm
	if err := decodeForm(w, r, &form); err != nil {
		logger.WarnContext(ctx, "Login form rejected", log.FieldError, err.Error())
		s.render(w, r, "login.html", http.StatusBadRequest, loginView{Flash: notify.Error("Invalid request")})
		return
	}

	if err := validation.Default().Struct(form); err != nil {
		var fe validation.FieldErrors
		if !errors.As(err, &fe) {
			fe = validation.FieldErrors{"email": "Invalid value"}
		}
		s.render(w, r, "login.html", http.StatusUnprocessableEntity, loginView{Email: form.Email, Errors: fe})
		return
	}

	res, err := s.api.Login(ctx, form.Email, form.Password)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, apiclient.ErrUnauthorized) {
			status = http.StatusUnauthorized
		}
		logger.WarnContext(ctx, "Login failed", log.FieldOperation, log.OpLogin, "email", form.Email, log.FieldError, err.Error())
		s.render(w, r, "login.html", status, loginView{Email: form.Email, Flash: notify.Error(apiclient.Message(err))})
		return
	}

	sess := s.sessions.Create(res.Token, res.User)
	s.setSessionCookie(w, sess)
	logger.InfoContext(ctx, "User logged in", log.FieldOperation, log.OpLogin, "email", res.User.Email, log.FieldSessionID, sess.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogoutPage(w http.ResponseWriter, r *http.Request) {
	s.renderHome(w, r, homeState{Modal: modalLogout}, http.StatusOK)
}

// handleLogout ends the session locally even if the API call fails; the
// token is dropped either way.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := s.api.Logout(sess.Context(r.Context())); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "API logout failed", log.FieldOperation, log.OpLogout, log.FieldError, err.Error())
	}
	s.sessions.Delete(sess.ID)
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
