package web

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"marketadmin/internal/adapters/http/middleware"
	"marketadmin/internal/application/orchestrators"
	"marketadmin/internal/domain/banner"
	"marketadmin/internal/domain/category"
	"marketadmin/internal/domain/contact"
	"marketadmin/internal/domain/flashdeal"
	"marketadmin/internal/domain/product"
	"marketadmin/internal/domain/review"
	"marketadmin/internal/domain/role"
	"marketadmin/internal/domain/sellerpackage"
	"marketadmin/internal/domain/setting"
	"marketadmin/internal/domain/staff"
	"marketadmin/internal/domain/upload"
)

// envelope is the JSON body of every AJAX response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("json_encode_failed", "error", err)
	}
}

func jsonOK(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func jsonFail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// userErrors are safe to show verbatim; they all map to 422.
var userErrors = []error{
	banner.ErrEmptyTitle, banner.ErrInvalidURL, banner.ErrInvalidPosition, banner.ErrImageRequired,
	category.ErrEmptyName, category.ErrNameTooLong, category.ErrInvalidCommission, category.ErrSelfParent,
	category.ErrDescendantParent, category.ErrInvalidOrderLevel, category.ErrEmptyTranslation,
	contact.ErrEmptyReply, contact.ErrReplyTooLong, contact.ErrNoEmail,
	flashdeal.ErrEmptyTitle, flashdeal.ErrTitleTooLong, flashdeal.ErrInvalidDates, flashdeal.ErrMissingDates,
	flashdeal.ErrInvalidColor, flashdeal.ErrInvalidTextColor, flashdeal.ErrDuplicateProduct, flashdeal.ErrNoProducts,
	product.ErrEmptyName, product.ErrNameTooLong, product.ErrDescriptionTooLong, product.ErrNegativePrice, product.ErrNotFinite,
	product.ErrNegativeDiscount, product.ErrDiscountOverPrice, product.ErrPercentOver100,
	product.ErrInvalidDiscountType, product.ErrInvalidAddedBy, product.ErrSellerRequired, product.ErrNegativeStock,
	review.ErrInvalidRating, review.ErrInvalidStatus, review.ErrEmptyCustomer, review.ErrProductMissing,
	role.ErrEmptyName, role.ErrNameTooLong, role.ErrNoPermissions, role.ErrUnknownPermission,
	sellerpackage.ErrEmptyName, sellerpackage.ErrNameTooLong, sellerpackage.ErrNegativeAmount,
	sellerpackage.ErrNegativeLimit, sellerpackage.ErrInvalidDuration,
	setting.ErrUnknownType, setting.ErrEmptySiteName, setting.ErrInvalidBool, setting.ErrInvalidInt, setting.ErrValueTooLong,
	staff.ErrEmptyName, staff.ErrNameTooLong, staff.ErrEmptyEmail, staff.ErrEmailTooLong, staff.ErrInvalidEmail,
	staff.ErrRoleRequired, staff.ErrEmptyPassword, staff.ErrPasswordTooShort,
	upload.ErrEmptyFile, upload.ErrTooLarge, upload.ErrUnsupportedImage,
	orchestrators.ErrParentNotFound, orchestrators.ErrCategoryRequired, orchestrators.ErrUnknownProduct,
	orchestrators.ErrRoleNotFound,
}

// errBadRequest marks malformed input detected by a handler.
var errBadRequest = errors.New("bad request")

// badRequest wraps msg so that errorStatus maps it to 400 and shows msg.
func badRequest(msg string) error {
	return &requestError{msg: msg}
}

type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }
func (e *requestError) Unwrap() error { return errBadRequest }

// errorStatus maps an action error to a status code and a message that is
// safe to show. Unknown errors are internal.
func errorStatus(err error) (int, string, bool) {
	var settingErr *orchestrators.SettingError
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, err.Error(), true
	case errors.As(err, &settingErr):
		return http.StatusUnprocessableEntity, settingErr.Error(), true
	case errors.Is(err, orchestrators.ErrSelfAction), errors.Is(err, staff.ErrAdminImmutable):
		return http.StatusForbidden, err.Error(), true
	case errors.Is(err, role.ErrInUse), errors.Is(err, orchestrators.ErrEmailTaken),
		errors.Is(err, orchestrators.ErrRoleNameTaken):
		return http.StatusConflict, err.Error(), true
	case errors.Is(err, orchestrators.ErrReplyNotSent):
		return http.StatusBadGateway, orchestrators.ErrReplyNotSent.Error(), true
	case errors.Is(err, orchestrators.ErrProductNotFound), errors.Is(err, orchestrators.ErrCategoryNotFound),
		errors.Is(err, orchestrators.ErrFlashDealNotFound), errors.Is(err, orchestrators.ErrBannerNotFound),
		errors.Is(err, orchestrators.ErrSellerPackageNotFound), errors.Is(err, orchestrators.ErrContactNotFound),
		errors.Is(err, orchestrators.ErrStaffNotFound):
		return http.StatusNotFound, err.Error(), true
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound, "the record no longer exists", true
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity, userMessage(err, target), true
		}
	}
	return http.StatusInternalServerError, "internal server error", false
}

// userMessage keeps wrapped detail ("unknown permission: foo") but drops
// anything that wraps a user error from below.
func userMessage(err, target error) string {
	msg := err.Error()
	if strings.HasPrefix(msg, target.Error()) {
		return msg
	}
	return target.Error()
}

// writeActionError answers a failed AJAX action.
func writeActionError(w http.ResponseWriter, err error) {
	status, msg, known := errorStatus(err)
	if !known {
		slog.Error("internal_error", "error", err.Error())
	}
	jsonFail(w, status, msg)
}

// --- form parsing ---

// formInt parses an optional integer field; empty means 0.
func formInt(r *http.Request, key string) (int, error) {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest(key + " must be a whole number")
	}
	return n, nil
}

// formFloat parses an optional decimal field; empty means 0.
func formFloat(r *http.Request, key string) (float64, error) {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return 0, nil
	}
	return parseDecimal(key, v)
}

// parseDecimal accepts finite decimals only; ParseFloat alone lets NaN and Inf through.
func parseDecimal(key, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, badRequest(key + " must be a number")
	}
	return f, nil
}

// formIntInto parses key into dst and returns the parse error, if any.
func formIntInto(r *http.Request, key string, dst *int) error {
	n, err := formInt(r, key)
	*dst = n
	return err
}

// formFloatInto parses key into dst and returns the parse error, if any.
func formFloatInto(r *http.Request, key string, dst *float64) error {
	f, err := formFloat(r, key)
	*dst = f
	return err
}

// firstErr returns the first non-nil error.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// formBool reads a checkbox.
func formBool(r *http.Request, key string) bool {
	switch r.FormValue(key) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}

// parseForm parses urlencoded and multipart bodies alike.
func parseForm(r *http.Request, maxMemory int64) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(maxMemory)
	}
	return r.ParseForm()
}

// currentPrincipal returns the signed-in principal; routes behind RequireAuth always have one.
func currentPrincipal(r *http.Request) orchestrators.Principal {
	p, _ := middleware.GetPrincipal(r.Context())
	return p
}
