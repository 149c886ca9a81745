package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"spacebook/internal/app"
	"spacebook/internal/idtoken"
	"spacebook/internal/ratelimit"
	"spacebook/internal/store"
	"spacebook/internal/util"
	"spacebook/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App                     *app.App
	TokenVerifier           *idtoken.Verifier
	TrustedProxies          *util.TrustedProxies
	RedisAddr               string
	RedisPassword           string
	WriteRateLimitPerMinute int
}

// Server exposes the booking API over HTTP.
type Server struct {
	app            *app.App
	tokenVerifier  *idtoken.Verifier
	trustedProxies *util.TrustedProxies
	mux            *http.ServeMux
	writeLimiter   *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured. Rate limiting on write
// endpoints is enabled only when a Redis address is supplied.
func New(cfg Config) (*Server, error) {
	s := &Server{
		app:            cfg.App,
		tokenVerifier:  cfg.TokenVerifier,
		trustedProxies: cfg.TrustedProxies,
		mux:            http.NewServeMux(),
	}
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		limit := cfg.WriteRateLimitPerMinute
		if limit <= 0 {
			limit = 60
		}
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "spacebook:ratelimit:write", limit, time.Minute)
		if err != nil {
			return nil, fmt.Errorf("init write limiter: %w", err)
		}
		s.writeLimiter = limiter
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler wrapped in the shared middleware.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithCORS(util.WithRequestID(util.WithRequestLog("api", s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.Handle("/user", s.authenticated(s.handleCurrentUser))

	s.mux.Handle("/users", s.authenticated(s.handleUsers))
	s.mux.Handle("/users/", s.authenticated(s.handleUserByID))

	s.mux.Handle("/reservations", s.authenticated(s.handleReservations))
	s.mux.Handle("/reservations/", s.authenticated(s.handleReservationByID))

	s.mux.Handle("/donations", s.authenticated(s.handleDonations))
	s.mux.Handle("/donations/", s.authenticated(s.handleDonationByID))
}

// handleIndex serves the unauthenticated health probe. The catch-all pattern
// also lands unknown paths here, which must 404.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"api":       "up",
		"timestamp": time.Now().UnixMilli(),
	})
}

// identity resolution

type authHandler func(http.ResponseWriter, *http.Request, domain.User)

// authenticated verifies the bearer token and reconciles its claims against
// the users table, provisioning a user on first authentication. Every
// failure surfaces as 401 with the underlying message preserved.
func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.resolveUser(r)
		if err != nil {
			s.audit(r, "auth.resolve", "fail", "reason", err.Error())
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		s.audit(r, "auth.resolve", "success", "user_id", user.ID)
		next(w, r, user)
	})
}

func (s *Server) resolveUser(r *http.Request) (domain.User, error) {
	token, ok := bearerToken(r)
	if !ok {
		return domain.User{}, errors.New("missing or malformed bearer token")
	}
	claims, err := s.tokenVerifier.Verify(token)
	if err != nil {
		return domain.User{}, fmt.Errorf("verify token: %w", err)
	}
	user, err := s.app.FindOrCreateUser(candidateFromClaims(claims))
	if err != nil {
		return domain.User{}, fmt.Errorf("reconcile user: %w", err)
	}
	return user, nil
}

func candidateFromClaims(claims idtoken.Claims) domain.User {
	first, last := splitName(claims.Name)
	return domain.User{
		FirstName: first,
		LastName:  last,
		Email:     claims.Email,
	}
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(strings.TrimSpace(name))
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// GET /user
func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// users

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		users, err := s.app.ListUsers()
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, users)
	case http.MethodPost:
		if !s.allowWrite(w, r) {
			return
		}
		s.handleCreateUser(w, r)
	case http.MethodPut:
		if !s.allowWrite(w, r) {
			return
		}
		s.handleUpdateUser(w, r, "")
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id := pathID(r, "/users/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		found, ok, err := s.app.GetUser(id)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "UserNotFound"})
			return
		}
		writeJSON(w, http.StatusOK, found)
	case http.MethodPut:
		if !s.allowWrite(w, r) {
			return
		}
		s.handleUpdateUser(w, r, id)
	case http.MethodDelete:
		if !s.allowWrite(w, r) {
			return
		}
		s.handleDeleteUser(w, r, id)
	default:
		methodNotAllowed(w)
	}
}

type createUserRequest struct {
	domain.User
	Password string `json:"password"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	// Conflict-checked create: a supplied id that already resolves wins a
	// 400 before any insert is attempted. The check-then-act window is
	// closed by the primary-key constraint below.
	if req.ID != "" {
		_, exists, err := s.app.GetUser(req.ID)
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		if exists {
			writeMessage(w, http.StatusBadRequest, app.ErrUserExists.Error())
			return
		}
	}
	created, err := s.app.CreateUser(req.User, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeMessage(w, http.StatusBadRequest, app.ErrUserExists.Error())
			return
		}
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User successfully created.",
		"user":    created,
	})
}

type updateUserRequest struct {
	ID string `json:"id"`
	domain.UserPatch
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request, routeID string) {
	var req updateUserRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	id := routeID
	if id == "" {
		id = req.ID
	}
	_, ok, err := s.app.GetUser(id)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("Could not find user '%s'", id))
		return
	}
	updated, err := s.app.UpdateUser(id, req.UserPatch)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": fmt.Sprintf("Could not update user: '%s'", id),
			"error":   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User updated.",
		"user":    updated,
	})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request, id string) {
	found, ok, err := s.app.GetUser(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": fmt.Sprintf("Could not delete user with ID: %s", id),
			"error":   err.Error(),
		})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "UserNotFound"})
		return
	}
	if _, err := s.app.RemoveUser(id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": fmt.Sprintf("Could not delete user with ID: %s", id),
			"error":   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Profile '%s' was deleted.", id),
		"user":    found,
	})
}

// reservations

func (s *Server) handleReservations(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		reservations, err := s.app.ListReservations()
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, reservations)
	case http.MethodPost:
		if !s.allowWrite(w, r) {
			return
		}
		s.handleCreateReservation(w, r)
	case http.MethodPut:
		if !s.allowWrite(w, r) {
			return
		}
		s.handleUpdateReservation(w, r, "")
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleReservationByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id := pathID(r, "/reservations/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		found, ok, err := s.app.GetReservation(id)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Reservation Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, found)
	case http.MethodPut:
		if !s.allowWrite(w, r) {
			return
		}
		s.handleUpdateReservation(w, r, id)
	case http.MethodDelete:
		if !s.allowWrite(w, r) {
			return
		}
		s.handleDeleteReservation(w, r, id)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var req domain.Reservation
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ID != "" {
		_, exists, err := s.app.GetReservation(req.ID)
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		if exists {
			writeMessage(w, http.StatusBadRequest, app.ErrReservationExists.Error())
			return
		}
	}
	created, err := s.app.CreateReservation(req)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeMessage(w, http.StatusBadRequest, app.ErrReservationExists.Error())
			return
		}
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Reservation successfully created.",
		"reservation": created,
	})
}

type updateReservationRequest struct {
	ID string `json:"id"`
	domain.ReservationPatch
}

func (s *Server) handleUpdateReservation(w http.ResponseWriter, r *http.Request, routeID string) {
	var req updateReservationRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	id := routeID
	if id == "" {
		id = req.ID
	}
	_, ok, err := s.app.GetReservation(id)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("Could not find reservation '%s'", id))
		return
	}
	updated, err := s.app.UpdateReservation(id, req.ReservationPatch)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": fmt.Sprintf("Could not update reservation: '%s'", id),
			"error":   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Reservation updated.",
		"reservation": updated,
	})
}

func (s *Server) handleDeleteReservation(w http.ResponseWriter, r *http.Request, id string) {
	found, ok, err := s.app.GetReservation(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": fmt.Sprintf("Could not delete reservation with ID: %s", id),
			"error":   err.Error(),
		})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Reservation Not Found"})
		return
	}
	if _, err := s.app.RemoveReservation(id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": fmt.Sprintf("Could not delete reservation with ID: %s", id),
			"error":   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     fmt.Sprintf("Reservation '%s' was deleted.", id),
		"reservation": found,
	})
}

// donations

func (s *Server) handleDonations(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		donations, err := s.app.ListDonations()
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, donations)
	case http.MethodPost:
		if !s.allowWrite(w, r) {
			return
		}
		s.handleCreateDonation(w, r)
	case http.MethodPut:
		if !s.allowWrite(w, r) {
			return
		}
		s.handleUpdateDonation(w, r, "")
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleDonationByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id := pathID(r, "/donations/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		found, ok, err := s.app.GetDonation(id)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "DonationNotFound"})
			return
		}
		writeJSON(w, http.StatusOK, found)
	case http.MethodPut:
		if !s.allowWrite(w, r) {
			return
		}
		s.handleUpdateDonation(w, r, id)
	case http.MethodDelete:
		if !s.allowWrite(w, r) {
			return
		}
		s.handleDeleteDonation(w, r, id)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCreateDonation(w http.ResponseWriter, r *http.Request) {
	var req domain.Donation
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ID != "" {
		_, exists, err := s.app.GetDonation(req.ID)
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		if exists {
			writeMessage(w, http.StatusBadRequest, app.ErrDonationExists.Error())
			return
		}
	}
	created, err := s.app.CreateDonation(req)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeMessage(w, http.StatusBadRequest, app.ErrDonationExists.Error())
			return
		}
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Donation successfully created.",
		"donation": created,
	})
}

type updateDonationRequest struct {
	ID string `json:"id"`
	domain.DonationPatch
}

func (s *Server) handleUpdateDonation(w http.ResponseWriter, r *http.Request, routeID string) {
	var req updateDonationRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	id := routeID
	if id == "" {
		id = req.ID
	}
	_, ok, err := s.app.GetDonation(id)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("Could not find donation '%s'", id))
		return
	}
	updated, err := s.app.UpdateDonation(id, req.DonationPatch)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": fmt.Sprintf("Could not update donation: '%s'", id),
			"error":   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Donation updated.",
		"donation": updated,
	})
}

func (s *Server) handleDeleteDonation(w http.ResponseWriter, r *http.Request, id string) {
	found, ok, err := s.app.GetDonation(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": fmt.Sprintf("Could not delete donation with ID: %s", id),
			"error":   err.Error(),
		})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "DonationNotFound"})
		return
	}
	if _, err := s.app.RemoveDonation(id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": fmt.Sprintf("Could not delete donation with ID: %s", id),
			"error":   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  fmt.Sprintf("Donation '%s' was deleted.", id),
		"donation": found,
	})
}

// helpers

func pathID(r *http.Request, prefix string) string {
	id := strings.TrimPrefix(r.URL.Path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		slog.Warn("missing bearer prefix", "path", r.URL.Path)
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		slog.Warn("empty bearer token", "path", r.URL.Path)
		return "", false
	}
	return token, true
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func (s *Server) allowWrite(w http.ResponseWriter, r *http.Request) bool {
	if s.writeLimiter == nil {
		return true
	}
	key := r.URL.Path + "|" + util.ClientIP(r, s.trustedProxies)
	if s.writeLimiter.Allow(key) {
		return true
	}
	s.audit(r, "write.ratelimit", "rate_limited")
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, "too many write requests")
	return false
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r, s.trustedProxies),
	}
	logAttrs = append(logAttrs, attrs...)
	if outcome == "success" {
		slog.Info("security_event", logAttrs...)
		return
	}
	slog.Warn("security_event", logAttrs...)
}
