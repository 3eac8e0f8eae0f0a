package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/foodable/internal/apperr"
)

const MsgUploadsDisabled = "Image uploads are not enabled"

func (s *Server) handleCreateDonation(w http.ResponseWriter, r *http.Request) {
	req, err := bind[createDonationRequest](r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	claims, _ := ClaimsFromContext(r.Context())
	d, err := s.donations.Create(r.Context(), claims.UserID, req.donation())
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	respondCreated(w, "Donation created successfully", d)
}

func (s *Server) handleListDonations(w http.ResponseWriter, r *http.Request) {
	filter, page, err := parseDonationsQuery(r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	list, p, err := s.donations.List(r.Context(), filter, page)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	respondPaginated(w, "Donations retrieved successfully", list, p)
}

func (s *Server) handleMyDonations(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	claims, _ := ClaimsFromContext(r.Context())
	list, p, err := s.donations.ListByUser(r.Context(), claims.UserID, page)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	respondPaginated(w, "User donations retrieved successfully", list, p)
}

func (s *Server) handleGetDonation(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	d, err := s.donations.Get(r.Context(), id)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	respondOK(w, "Donation retrieved successfully", d)
}

func (s *Server) handleUpdateDonation(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	req, err := bind[updateDonationRequest](r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	patch := req.patch()

	claims, _ := ClaimsFromContext(r.Context())
	d, err := s.donations.Update(r.Context(), claims.UserID, id, patch)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	respondOK(w, "Donation updated successfully", d)
}

func (s *Server) handleDeleteDonation(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	claims, _ := ClaimsFromContext(r.Context())
	if err := s.donations.Delete(r.Context(), claims.UserID, id); err != nil {
		s.WriteError(w, r, err)
		return
	}
	respondOK(w, "Donation deleted successfully", nil)
}

func (s *Server) handleImageUploadURL(w http.ResponseWriter, r *http.Request) {
	if s.images == nil {
		s.WriteError(w, r, apperr.New(http.StatusServiceUnavailable, MsgUploadsDisabled))
		return
	}
	req, err := bind[uploadURLRequest](r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}

	claims, _ := ClaimsFromContext(r.Context())
	up, err := s.images.CreateUploadURL(r.Context(), claims.UserID, req.ContentType)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	respondOK(w, "Upload URL created successfully", up)
}
