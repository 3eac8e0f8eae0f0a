package validation

import "fmt"

var fieldMessages = map[string]string{
	"username.required": "Username is required",
	"username.min":      "Username must be between 3 and 50 characters",
	"username.max":      "Username must be between 3 and 50 characters",
	"username.username": "Username can only contain letters, numbers, underscores, and hyphens",

	"email.required": "Email is required",
	"email.email":    "Must be a valid email address",
	"email.max":      "Email must be at most 255 characters",

	"password.required":       "Password is required",
	"password.min":            "Password must be at least 8 characters long",
	"password.strongpassword": "Password must contain at least one uppercase letter, one lowercase letter, and one number",

	"currentPassword.required":   "Current password is required",
	"newPassword.required":       "New password is required",
	"newPassword.min":            "Password must be at least 8 characters long",
	"newPassword.strongpassword": "Password must contain at least one uppercase letter, one lowercase letter, and one number",
	"confirmPassword.required":   "Password confirmation is required",
	"confirmPassword.eqfield":    "Passwords do not match",

	"item_name.required": "Item name is required",
	"item_name.min":      "Item name must be between 2 and 255 characters",
	"item_name.max":      "Item name must be between 2 and 255 characters",

	"item_quantity.required": "Item quantity is required",
	"item_quantity.min":      "Item quantity must be between 1 and 1000",
	"item_quantity.max":      "Item quantity must be between 1 and 1000",

	"dietary_preference.required": "Dietary preference is required",
	"dietary_preference.oneof":    "Invalid dietary preference",

	"expiry_date.required": "Expiry date is required",
	"expiry_date.isodate":  "Invalid date format",
	"expiry_date.notpast":  "Expiry date cannot be in the past",

	"image_url.url": "Image URL must be a valid URL",

	"status.oneof": "Invalid status",

	"contentType.oneof": "Unsupported image content type",

	"id.gt": "ID must be a positive integer",

	"page.gte":  "Page must be a positive integer",
	"page.lte":  "Page must be at most 1000000",
	"limit.gte": "Limit must be between 1 and 100",
	"limit.lte": "Limit must be between 1 and 100",
}

var tagMessages = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email address",
	"url":      "%s must be a valid URL",
}

// Message returns the client-facing text for a failed rule.
func Message(field, tag, param string) string {
	if m, ok := fieldMessages[field+"."+tag]; ok {
		return m
	}
	if tmpl, ok := tagMessages[tag]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if param != "" {
		return fmt.Sprintf("%s failed %s=%s validation", field, tag, param)
	}
	return fmt.Sprintf("%s failed %s validation", field, tag)
}
