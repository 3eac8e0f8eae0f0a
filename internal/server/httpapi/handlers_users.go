package httpapi

import "net/http"

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	users, p, err := s.users.List(r.Context(), page)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	respondPaginated(w, "Users retrieved successfully", users, p)
}

func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	user, err := s.users.GetByID(r.Context(), id)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	respondOK(w, "User retrieved successfully", user)
}

func (s *Server) handleUserByEmail(w http.ResponseWriter, r *http.Request) {
	email, err := parseEmail(r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	user, err := s.users.GetByEmail(r.Context(), email)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	respondOK(w, "User retrieved successfully", user)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	req, err := bind[updateProfileRequest](r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	patch := req.patch()

	claims, _ := ClaimsFromContext(r.Context())
	user, err := s.users.UpdateProfile(r.Context(), claims.UserID, patch)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	respondOK(w, "Profile updated successfully", user)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	if err := s.users.DeleteAccount(r.Context(), claims.UserID); err != nil {
		s.WriteError(w, r, err)
		return
	}
	respondOK(w, "Account deleted successfully", nil)
}
