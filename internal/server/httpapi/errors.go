package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/foodable/internal/apperr"
	"github.com/dmitrijs2005/foodable/internal/common"
	"github.com/dmitrijs2005/foodable/internal/dbx"
	"github.com/go-sql-driver/mysql"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	MsgInvalidJSON     = "Invalid JSON payload"
	MsgBodyTooLarge    = "Request body too large"
	MsgTokenExpired    = "Token has expired"
	MsgInvalidToken    = "Invalid token"
	MsgDuplicate       = "A record with this value already exists"
	MsgMissingRef      = "Referenced resource does not exist"
	MsgDBConnection    = "Database connection failed"
	MsgDBOperation     = "Database operation failed"
	MsgUnexpected      = "An unexpected error occurred"
	MsgTooManyRequests = "Too many requests from this IP, please try again later."
	MsgTooManyAuth     = "Too many authentication attempts, please try again later."
	MsgNeedJSON        = "Content-Type must be application/json"
)

// classify maps err to the status and client message of the error body.
func classify(err error, production bool) *apperr.Error {
	if ae, ok := apperr.As(err); ok {
		return ae
	}

	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return apperr.Wrap(http.StatusRequestEntityTooLarge, MsgBodyTooLarge, err)
	case errors.Is(err, errBadJSON):
		return apperr.Wrap(http.StatusBadRequest, MsgInvalidJSON, err)
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, common.ErrTokenExpired):
		return apperr.Wrap(http.StatusUnauthorized, MsgTokenExpired, err)
	case isJWTError(err), errors.Is(err, common.ErrInvalidToken):
		return apperr.Wrap(http.StatusUnauthorized, MsgInvalidToken, err)
	case dbx.IsUniqueViolation(err):
		return apperr.Wrap(http.StatusConflict, MsgDuplicate, err)
	case dbx.IsForeignKeyViolation(err):
		return apperr.Wrap(http.StatusBadRequest, MsgMissingRef, err)
	case dbx.IsConnError(err):
		return apperr.Wrap(http.StatusInternalServerError, MsgDBConnection, err)
	case isDriverError(err):
		return apperr.Wrap(http.StatusInternalServerError, MsgDBOperation, err)
	case errors.Is(err, common.ErrorNotFound):
		return apperr.Wrap(http.StatusNotFound, "Resource not found", err)
	}

	if production {
		return apperr.Internal(MsgUnexpected, err)
	}
	return apperr.Internal(err.Error(), err)
}

func isJWTError(err error) bool {
	return errors.Is(err, jwt.ErrTokenMalformed) ||
		errors.Is(err, jwt.ErrTokenSignatureInvalid) ||
		errors.Is(err, jwt.ErrTokenUnverifiable) ||
		errors.Is(err, jwt.ErrTokenNotValidYet) ||
		errors.Is(err, jwt.ErrTokenInvalidClaims)
}

func isDriverError(err error) bool {
	var me *mysql.MySQLError
	var pe *pgconn.PgError
	return errors.As(err, &me) || errors.As(err, &pe)
}

// WriteError answers with the error envelope. 5xx errors are logged with
// their cause; the stack is only returned outside production.
func (s *Server) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	ae := classify(err, s.production)

	if ae.Status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "status", ae.Status, "error", err)
	} else {
		s.logger.Debug(r.Context(), "request rejected",
			"method", r.Method, "path", r.URL.Path, "status", ae.Status, "error", err)
	}

	body := &Response{
		Success:    false,
		Message:    ae.Message,
		StatusCode: ae.Status,
		Errors:     ae.Fields,
	}
	if !s.production {
		body.Stack = ae.Stack()
	}
	writeJSON(w, ae.Status, body)
}
