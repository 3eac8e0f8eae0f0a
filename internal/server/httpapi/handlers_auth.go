package httpapi

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/foodable/internal/apperr"
	"github.com/dmitrijs2005/foodable/internal/server/metrics"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, err := bind[registerRequest](r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	user, err := s.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	metrics.RecordAuthEvent(metrics.EventRegister)

	respondCreated(w, fmt.Sprintf("Registration success: %s", user.Username), user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := bind[loginRequest](r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	res, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if ae, ok := apperr.As(err); ok && ae.Status == http.StatusUnauthorized {
			metrics.RecordAuthEvent(metrics.EventLoginFailure)
		}
		s.WriteError(w, r, err)
		return
	}
	metrics.RecordAuthEvent(metrics.EventLoginSuccess)

	w.Header().Set("Authorization", "Bearer "+res.Token)
	respondOK(w, "Login successful", res)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	req, err := bind[refreshRequest](r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	token, err := s.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	metrics.RecordAuthEvent(metrics.EventRefresh)

	respondOK(w, "Token refreshed successfully", map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	if err := s.auth.Logout(r.Context(), claims.UserID); err != nil {
		s.WriteError(w, r, err)
		return
	}
	metrics.RecordAuthEvent(metrics.EventLogout)

	respondOK(w, "Logout successful", nil)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	profile, err := s.auth.Profile(r.Context(), claims.UserID)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	respondOK(w, "Profile retrieved successfully", profile)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	req, err := bind[changePasswordRequest](r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	claims, _ := ClaimsFromContext(r.Context())
	if err := s.auth.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		s.WriteError(w, r, err)
		return
	}
	metrics.RecordAuthEvent(metrics.EventPasswordChange)

	respondOK(w, "Password changed successfully", nil)
}
