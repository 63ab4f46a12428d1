package handlers

import (
	"context"
	"errors"
	"net/http"

	"routeline/internal/directions"
	"routeline/internal/geocode"
	"routeline/internal/polyline"
	"routeline/internal/service/route"

	"github.com/gin-gonic/gin"
)

// APIError is a structured error response
type APIError struct {
	Code    string `json:"code"`    // bad_request, not_found, invalid_polyline, ...
	Message string `json:"message"` // human-readable message
	Kind    string `json:"kind,omitempty"`
	Offset  *int   `json:"offset,omitempty"` // byte offset for decode errors
	Index   *int   `json:"index,omitempty"`  // coordinate index for encode errors
}

func abortWithError(c *gin.Context, status int, apiErr APIError) {
	c.AbortWithStatusJSON(status, gin.H{"error": apiErr})
}

func badRequest(c *gin.Context, msg string) {
	abortWithError(c, http.StatusBadRequest, APIError{Code: "bad_request", Message: msg})
}

// codecError describes a polyline error; ok is false for any other error
func codecError(err error) (APIError, bool) {
	apiErr := APIError{Code: "invalid_polyline", Message: err.Error()}

	switch {
	case errors.Is(err, polyline.ErrTruncated):
		apiErr.Kind = "truncated"
	case errors.Is(err, polyline.ErrInvalidByte):
		apiErr.Kind = "invalid_byte"
	case errors.Is(err, polyline.ErrOverflow):
		apiErr.Kind = "overflow"
	case errors.Is(err, polyline.ErrPrecision):
		apiErr.Kind = "precision"
	default:
		return APIError{}, false
	}

	var decodeErr *polyline.DecodeError
	if errors.As(err, &decodeErr) {
		apiErr.Offset = &decodeErr.Offset
	}
	var encodeErr *polyline.EncodeError
	if errors.As(err, &encodeErr) {
		apiErr.Index = &encodeErr.Index
	}
	return apiErr, true
}

// writeCodecError answers a request whose own input failed to encode or decode
func writeCodecError(c *gin.Context, err error) {
	if apiErr, ok := codecError(err); ok {
		abortWithError(c, http.StatusBadRequest, apiErr)
		return
	}
	_ = c.Error(err)
	abortWithError(c, http.StatusInternalServerError, APIError{Code: "internal_error", Message: "internal error"})
}

// writeRouteError maps route planning failures. Geometry errors here come
// from the directions provider, so they are upstream failures.
func writeRouteError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, route.ErrRouteNotFound):
		abortWithError(c, http.StatusNotFound, APIError{Code: "not_found", Message: err.Error()})
	case errors.Is(err, route.ErrEmptyAddress):
		abortWithError(c, http.StatusBadRequest, APIError{Code: "bad_request", Message: err.Error()})
	case errors.Is(err, geocode.ErrAddressNotFound), errors.Is(err, directions.ErrNoRoute):
		abortWithError(c, http.StatusUnprocessableEntity, APIError{Code: "unroutable", Message: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		abortWithError(c, http.StatusGatewayTimeout, APIError{Code: "upstream_timeout", Message: err.Error()})
	default:
		apiErr, ok := codecError(err)
		if !ok {
			apiErr = APIError{Code: "upstream_error", Message: err.Error()}
		}
		abortWithError(c, http.StatusBadGateway, apiErr)
	}
}
