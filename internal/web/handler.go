package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"medical-portal/internal/auth"
	"medical-portal/internal/chat"
	"medical-portal/internal/patient"
)

// ChatService is the slice of the chat service the pages need.
type ChatService interface {
	History(identityID uuid.UUID) []chat.Message
	Send(ctx context.Context, identityID uuid.UUID, text string) (chat.Message, bool)
}

// Handler serves the portal's server-rendered pages: login, signup,
// dashboard, chat, profile and edit-profile, composed into a shared
// header/footer shell.
type Handler struct {
	auth      auth.Service
	patients  patient.Service
	chat      ChatService
	templates *template.Template
	cookieAge int
	logger    *zap.Logger
}

// NewHandler loads the HTML templates from tmplDir.
func NewHandler(tmplDir string, authSvc auth.Service, patients patient.Service, chatSvc ChatService, cookieAge int, logger *zap.Logger) (*Handler, error) {
	tmpl, err := template.ParseGlob(filepath.Join(tmplDir, "*.html"))
	if err != nil {
		return nil, err
	}
	return &Handler{
		auth:      authSvc,
		patients:  patients,
		chat:      chatSvc,
		templates: tmpl,
		cookieAge: cookieAge,
		logger:    logger,
	}, nil
}

func (h *Handler) render(w http.ResponseWriter, name string, data interface{}) {
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("template render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

type authPageView struct {
	Email     string // session email; empty on the auth pages themselves
	FormEmail string
	Error     string
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, "login.html", authPageView{})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	email := r.FormValue("email")
	_, token, err := h.auth.SignIn(r.Context(), email, r.FormValue("password"))
	if err != nil {
		h.render(w, "login.html", authPageView{FormEmail: email, Error: authMessage(err)})
		return
	}
	h.setSessionCookie(w, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, "signup.html", authPageView{})
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	email := r.FormValue("email")
	_, token, err := h.auth.SignUp(r.Context(), email, r.FormValue("password"))
	if err != nil {
		h.render(w, "signup.html", authPageView{FormEmail: email, Error: authMessage(err)})
		return
	}
	h.setSessionCookie(w, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout is fail-open: a failed session teardown is logged but never blocks
// navigation away from the protected views.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(r.Context(), auth.TokenFromRequest(r)); err != nil {
		h.logger.Warn("logout failed", zap.Error(err))
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type dashboardView struct {
	Email string
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())
	h.render(w, "dashboard.html", dashboardView{Email: ident.Email})
}

type profileView struct {
	Email    string
	Saved    bool
	NotFound bool
	Error    string

	Name    string
	Gender  string
	DOB     string
	Age     string
	Height  string
	Weight  string
	HasBMI  bool
	BMI     string
	Created string

	PersonalHistory string
	FamilyHistory   string
	Allergies       string
	Medications     string
	Remarks         string
}

func (h *Handler) ProfilePage(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())
	view := profileView{
		Email: ident.Email,
		Saved: r.URL.Query().Get("saved") == "1",
	}

	rec, err := h.patients.Fetch(r.Context(), ident.ID)
	switch {
	case errors.Is(err, patient.ErrNotFound):
		view.NotFound = true
	case err != nil:
		h.logger.Error("profile fetch failed", zap.Error(err))
		view.Error = "Error fetching patient data. Please try again."
	default:
		view.Name = rec.Name
		view.Gender = string(rec.Gender)
		view.DOB = rec.DateOfBirth.Format("January 2, 2006")
		view.Age = fmt.Sprintf("%d years", rec.Age(time.Now()))
		view.Height = formatMeasure(rec.Height, "cm")
		view.Weight = formatMeasure(rec.Weight, "kg")
		if bmi, ok := rec.BMI(); ok {
			view.HasBMI = true
			view.BMI = strconv.FormatFloat(bmi, 'f', 1, 64)
		}
		view.Created = rec.CreatedAt.Format("January 2, 2006")
		view.PersonalHistory = rec.PersonalHistory
		view.FamilyHistory = rec.FamilyHistory
		view.Allergies = rec.Allergies
		view.Medications = rec.Medications
		view.Remarks = rec.Remarks
	}
	h.render(w, "profile.html", view)
}

type editView struct {
	Email             string
	Error             string
	Draft             patient.Draft
	ExpectedUpdatedAt string
}

func (h *Handler) EditProfilePage(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())
	view := editView{Email: ident.Email}

	rec, err := h.patients.Fetch(r.Context(), ident.ID)
	switch {
	case errors.Is(err, patient.ErrNotFound):
		// No document yet: start from an empty draft, first save creates it.
	case err != nil:
		h.logger.Error("edit fetch failed", zap.Error(err))
		view.Error = "Error fetching patient data. Please try again."
	default:
		view.Draft = patient.DraftFrom(rec)
		view.ExpectedUpdatedAt = rec.UpdatedAt.Format(time.RFC3339Nano)
	}
	h.render(w, "edit_profile.html", view)
}

func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	draft := patient.Draft{
		Name:            r.FormValue("name"),
		Gender:          r.FormValue("gender"),
		DateOfBirth:     r.FormValue("dateOfBirth"),
		Height:          r.FormValue("height"),
		Weight:          r.FormValue("weight"),
		PersonalHistory: r.FormValue("personalHistory"),
		FamilyHistory:   r.FormValue("familyHistory"),
		Allergies:       r.FormValue("allergies"),
		Medications:     r.FormValue("medications"),
		Remarks:         r.FormValue("remarks"),
	}

	var expected time.Time
	if raw := r.FormValue("expectedUpdatedAt"); raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			expected = t
		}
	}

	_, err := h.patients.Save(r.Context(), ident.ID, draft, expected)
	if err != nil {
		view := editView{
			Email:             ident.Email,
			Draft:             draft,
			ExpectedUpdatedAt: r.FormValue("expectedUpdatedAt"),
		}
		switch {
		case errors.Is(err, patient.ErrValidation):
			view.Error = err.Error()
		case errors.Is(err, patient.ErrConflict):
			view.Error = "Your profile was changed in another session. Please reload and try again."
		default:
			h.logger.Error("profile save failed", zap.Error(err))
			view.Error = "Failed to update profile. Please try again."
		}
		h.render(w, "edit_profile.html", view)
		return
	}

	http.Redirect(w, r, "/profile?saved=1", http.StatusSeeOther)
}

type chatView struct {
	Email    string
	Messages []chat.Message
}

func (h *Handler) ChatPage(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())
	h.render(w, "chat.html", chatView{
		Email:    ident.Email,
		Messages: h.chat.History(ident.ID),
	})
}

func (h *Handler) SendChat(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	h.chat.Send(r.Context(), ident.ID, r.FormValue("text"))
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

func authMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, auth.ErrWeakPassword):
		return err.Error()
	default:
		return "Authentication service unavailable. Please try again."
	}
}

func formatMeasure(v *float64, unit string) string {
	if v == nil {
		return "Not provided"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + " " + unit
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   h.cookieAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// RegisterRoutes mounts the public auth pages and, behind the guard, the
// protected views.
func RegisterRoutes(r chi.Router, h *Handler, guard func(http.Handler) http.Handler) {
	r.Get("/login", h.LoginPage)
	r.Post("/login", h.Login)
	r.Get("/signup", h.SignupPage)
	r.Post("/signup", h.Signup)
	r.Post("/logout", h.Logout)

	r.Group(func(p chi.Router) {
		p.Use(guard)
		p.Get("/", h.Dashboard)
		p.Get("/profile", h.ProfilePage)
		p.Get("/edit-profile", h.EditProfilePage)
		p.Post("/edit-profile", h.SaveProfile)
		p.Get("/chat", h.ChatPage)
		p.Post("/chat/send", h.SendChat)
	})
}
