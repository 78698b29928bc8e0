package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"credit-engine/internal/api/handler/dto"
	"credit-engine/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return fmt.Errorf("%w: request body is required", apperrors.ErrInvalidArgument)
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %w", apperrors.ErrInvalidArgument, err)
	}
	if decoder.Decode(&struct{}{}) != io.EOF {
		return fmt.Errorf("%w: body must contain a single JSON object", apperrors.ErrInvalidArgument)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func respondError(w http.ResponseWriter, err error) {
	status, detail := errorDetail(err)
	if status >= http.StatusInternalServerError {
		slog.Default().Error("Unhandled internal error", "error", err)
	}
	respondJSON(w, status, dto.ErrorResponse{Error: detail})
}

func errorDetail(err error) (int, dto.ErrorDetail) {
	var (
		fieldErrs  apperrors.ValidationErrors
		fieldErr   *apperrors.ValidationError
		appErr     *apperrors.AppError
		tooLarge   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &fieldErrs):
		fields := make([]dto.FieldError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, dto.FieldError{Field: fe.Field, Message: fe.Message})
		}
		return http.StatusBadRequest, dto.ErrorDetail{Message: "Validation failed.", Fields: fields}
	case errors.As(err, &fieldErr):
		return http.StatusBadRequest, dto.ErrorDetail{
			Message: "Validation failed.",
			Fields:  []dto.FieldError{{Field: fieldErr.Field, Message: fieldErr.Message}},
		}
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, dto.ErrorDetail{Message: "Request body too large."}
	case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest, dto.ErrorDetail{Message: err.Error()}
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, dto.ErrorDetail{Message: err.Error()}
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrAlreadyExists):
		return http.StatusConflict, dto.ErrorDetail{Message: err.Error()}
	case errors.As(err, &appErr):
		return http.StatusInternalServerError, dto.ErrorDetail{Code: appErr.Code, Message: "An unexpected error occurred."}
	default:
		return http.StatusInternalServerError, dto.ErrorDetail{Message: "An unexpected error occurred."}
	}
}

// logLevelFor keeps expected client failures out of the error log.
func logLevelFor(err error) slog.Level {
	if status, _ := errorDetail(err); status < http.StatusInternalServerError {
		return slog.LevelWarn
	}
	return slog.LevelError
}

func pathID(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s not found in URL path", apperrors.ErrInvalidArgument, param)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s in URL path: %s", apperrors.ErrInvalidArgument, param, raw)
	}
	return id, nil
}
