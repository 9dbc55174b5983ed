package http

import (
	"net/http"

	"wallet/internal/forms"
	"wallet/internal/log"
	"wallet/internal/notify"
)

func (s *Server) handleNewCategory(w http.ResponseWriter, r *http.Request) {
	s.refresh(r)
	s.renderHome(w, r, homeState{Modal: modalCategory}, http.StatusOK)
}

// handleCreateCategory closes the modal (redirect) only on success; on
// any failure the modal is rendered again with the user's input.
func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(ctx)

	var form forms.Form
	if err := decodeForm(w, r, &form); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Category form rejected", log.FieldError, err.Error())
		redirectWithFlash(w, r, sess, notify.Error("Invalid request"), "/")
		return
	}

	res := s.forms.SubmitCategory(sess.Context(ctx), s.api, form)
	if !res.Closed {
		status := http.StatusOK
		if len(res.FieldErrors) > 0 {
			status = http.StatusUnprocessableEntity
		}
		s.renderHome(w, r, homeState{
			Modal:        modalCategory,
			CategoryForm: form,
			FieldErrors:  res.FieldErrors,
			Flash:        res.Notification,
		}, status)
		return
	}
	redirectWithFlash(w, r, sess, res.Notification, "/")
}
