package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/foodable/internal/server/models"
	"github.com/dmitrijs2005/foodable/internal/server/validation"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

var errBadJSON = errors.New("malformed json body")

// decodeJSON reads a JSON object into dst. An empty body leaves dst at its
// zero value so that validation reports the missing fields.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return err
	}
	return fmt.Errorf("%w: %v", errBadJSON, err)
}

// bind decodes, normalizes and validates a request body.
func bind[T any, P interface {
	*T
	normalize()
}](r *http.Request) (*T, error) {
	var v T
	if err := decodeJSON(r, &v); err != nil {
		return nil, err
	}
	P(&v).normalize()
	if err := validation.Struct(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Email    string `json:"email" validate:"required,max=255,email"`
	Password string `json:"password" validate:"required,min=8,strongpassword"`
}

func (r *registerRequest) normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = validation.NormalizeEmail(r.Email)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *loginRequest) normalize() {
	r.Email = validation.NormalizeEmail(r.Email)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (r *refreshRequest) normalize() {
	r.RefreshToken = strings.TrimSpace(r.RefreshToken)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

func (r *changePasswordRequest) normalize() {}

type updateProfileRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=50,username"`
	Email    *string `json:"email" validate:"omitempty,max=255,email"`
}

func (r *updateProfileRequest) normalize() {
	if r.Username != nil {
		v := strings.TrimSpace(*r.Username)
		r.Username = &v
	}
	if r.Email != nil {
		v := validation.NormalizeEmail(*r.Email)
		r.Email = &v
	}
}

func (r *updateProfileRequest) patch() models.UserPatch {
	return models.UserPatch{Username: r.Username, Email: r.Email}
}

type createDonationRequest struct {
	ItemName          string  `json:"item_name" validate:"required,min=2,max=255"`
	ItemQuantity      *int    `json:"item_quantity" validate:"required,min=1,max=1000"`
	DietaryPreference string  `json:"dietary_preference" validate:"required,oneof=halal non-halal vegan vegetarian"`
	ExpiryDate        string  `json:"expiry_date" validate:"required,isodate,notpast"`
	ImageURL          *string `json:"image_url" validate:"omitempty,url"`
}

func (r *createDonationRequest) normalize() {
	r.ItemName = strings.TrimSpace(r.ItemName)
	r.ExpiryDate = strings.TrimSpace(r.ExpiryDate)
	r.ImageURL = trimOptional(r.ImageURL)
}

// donation converts a validated request.
func (r *createDonationRequest) donation() *models.Donation {
	expiry, _ := models.ParseDate(r.ExpiryDate)
	return &models.Donation{
		ItemName:          r.ItemName,
		ItemQuantity:      *r.ItemQuantity,
		DietaryPreference: models.DietaryPreference(r.DietaryPreference),
		ExpiryDate:        expiry,
		ImageURL:          r.ImageURL,
	}
}

type updateDonationRequest struct {
	ItemName          *string `json:"item_name" validate:"omitempty,min=2,max=255"`
	ItemQuantity      *int    `json:"item_quantity" validate:"omitempty,min=1,max=1000"`
	DietaryPreference *string `json:"dietary_preference" validate:"omitempty,oneof=halal non-halal vegan vegetarian"`
	ExpiryDate        *string `json:"expiry_date" validate:"omitempty,isodate"`
	ImageURL          *string `json:"image_url" validate:"omitempty,url"`
	Status            *string `json:"status" validate:"omitempty,oneof=pending approved claimed expired"`
}

func (r *updateDonationRequest) normalize() {
	if r.ItemName != nil {
		v := strings.TrimSpace(*r.ItemName)
		r.ItemName = &v
	}
	if r.ExpiryDate != nil {
		v := strings.TrimSpace(*r.ExpiryDate)
		r.ExpiryDate = &v
	}
	r.ImageURL = trimOptional(r.ImageURL)
}

func (r *updateDonationRequest) patch() models.DonationPatch {
	p := models.DonationPatch{
		ItemName:     r.ItemName,
		ItemQuantity: r.ItemQuantity,
		ImageURL:     r.ImageURL,
	}
	if r.DietaryPreference != nil {
		v := models.DietaryPreference(*r.DietaryPreference)
		p.DietaryPreference = &v
	}
	if r.ExpiryDate != nil {
		if d, err := models.ParseDate(*r.ExpiryDate); err == nil {
			p.ExpiryDate = &d
		}
	}
	if r.Status != nil {
		v := models.DonationStatus(*r.Status)
		p.Status = &v
	}
	return p
}

type uploadURLRequest struct {
	ContentType string `json:"contentType" validate:"omitempty,oneof=image/jpeg image/png image/webp image/gif"`
}

func (r *uploadURLRequest) normalize() {
	r.ContentType = strings.ToLower(strings.TrimSpace(r.ContentType))
}

// trimOptional trims an optional string and treats blank as absent.
func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

type pageQuery struct {
	Page  int `json:"page" validate:"gte=1,lte=1000000"`
	Limit int `json:"limit" validate:"gte=1,lte=100"`
}

type donationsQuery struct {
	Page   int    `json:"page" validate:"gte=1,lte=1000000"`
	Limit  int    `json:"limit" validate:"gte=1,lte=100"`
	Status string `json:"status" validate:"omitempty,oneof=pending approved claimed expired"`
}

type idParam struct {
	ID int64 `json:"id" validate:"gt=0"`
}

type emailQuery struct {
	Email string `json:"email" validate:"required,email"`
}

// queryInt returns def for an absent parameter and 0 for a non-numeric one,
// which then fails validation.
func queryInt(r *http.Request, key string, def int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func parsePage(r *http.Request) (models.PageRequest, error) {
	q := pageQuery{
		Page:  queryInt(r, "page", models.DefaultPage),
		Limit: queryInt(r, "limit", models.DefaultLimit),
	}
	if err := validation.Struct(&q); err != nil {
		return models.PageRequest{}, err
	}
	return models.PageRequest{Page: q.Page, Limit: q.Limit}, nil
}

func parseDonationsQuery(r *http.Request) (models.DonationFilter, models.PageRequest, error) {
	q := donationsQuery{
		Page:   queryInt(r, "page", models.DefaultPage),
		Limit:  queryInt(r, "limit", models.DefaultLimit),
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
	}
	if err := validation.Struct(&q); err != nil {
		return models.DonationFilter{}, models.PageRequest{}, err
	}
	filter := models.DonationFilter{Status: models.DonationStatus(q.Status)}
	return filter, models.PageRequest{Page: q.Page, Limit: q.Limit}, nil
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		id = 0
	}
	p := idParam{ID: id}
	if err := validation.Struct(&p); err != nil {
		return 0, err
	}
	return p.ID, nil
}

func parseEmail(r *http.Request) (string, error) {
	q := emailQuery{Email: validation.NormalizeEmail(r.URL.Query().Get("email"))}
	if err := validation.Struct(&q); err != nil {
		return "", err
	}
	return q.Email, nil
}
