package httputil

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-sod/kd/internal/logging"
)

const maxBodyBytes = 64 * 1024 * 1024

// DecodeJSON enforces a JSON POST and decodes the body into v. On failure it
// has already written the response and returns false.
func DecodeJSON(ctx context.Context, w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Method != http.MethodPost {
		RespError(ctx, w, http.StatusMethodNotAllowed, "method %v is not allowed", r.Method)
		return false
	}
	if t := r.Header.Get("content-type"); !strings.HasPrefix(t, "application/json") {
		RespError(ctx, w, http.StatusUnsupportedMediaType, "content-type is not application/json")
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	d.DisallowUnknownFields()
	if err := d.Decode(v); err != nil {
		DecodeErr(ctx, w, err)
		return false
	}
	return true
}

func DecodeErr(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		syntaxErr      *json.SyntaxError
		unmarshalError *json.UnmarshalTypeError
		maxBytesErr    *http.MaxBytesError
	)
	switch {
	case errors.As(err, &syntaxErr):
		RespBadRequest(ctx, w, "malformed json at position %v", syntaxErr.Offset)
	case errors.Is(err, io.ErrUnexpectedEOF):
		RespBadRequest(ctx, w, "malformed json")
	case errors.As(err, &unmarshalError):
		RespBadRequest(ctx, w, "invalid value %v at position %v", unmarshalError.Field, unmarshalError.Offset)
	case strings.HasPrefix(err.Error(), "json: unknown field"):
		fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
		RespBadRequest(ctx, w, "unknown field %s", fieldName)
	case errors.Is(err, io.EOF):
		RespBadRequest(ctx, w, "body must not be empty")
	case errors.As(err, &maxBytesErr):
		RespError(ctx, w, http.StatusRequestEntityTooLarge, "body must not be larger than %d bytes", maxBytesErr.Limit)
	default:
		RespInternalError(ctx, w, "failed to decode json %v", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// RespError writes {"error": msg} with the given status.
func RespError(ctx context.Context, w http.ResponseWriter, status int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logging.FromContext(ctx).Debugf("http %d: %s", status, msg)
	RespJSON(ctx, w, status, errorBody{Error: msg})
}

func RespBadRequest(ctx context.Context, w http.ResponseWriter, format string, args ...interface{}) {
	RespError(ctx, w, http.StatusBadRequest, format, args...)
}

func RespNotFound(ctx context.Context, w http.ResponseWriter, format string, args ...interface{}) {
	RespError(ctx, w, http.StatusNotFound, format, args...)
}

func RespInternalError(ctx context.Context, w http.ResponseWriter, format string, args ...interface{}) {
	logging.FromContext(ctx).Errorf(format, args...)
	RespJSON(ctx, w, http.StatusInternalServerError, errorBody{Error: "internal error"})
}

func RespJSON(ctx context.Context, w http.ResponseWriter, status int, v interface{}) {
	bytes, err := json.Marshal(v)
	if err != nil {
		logging.FromContext(ctx).Errorf("failed to encode output json %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(bytes)
}

// RequireBearer rejects requests without the expected bearer token. An empty
// token disables the check.
func RequireBearer(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	expected := []byte("Bearer " + token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if subtle.ConstantTimeCompare([]byte(r.Header.Get("Authorization")), expected) != 1 {
			RespError(r.Context(), w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
