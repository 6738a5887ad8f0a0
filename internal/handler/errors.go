package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/hitoshi/portfolio/internal/middleware"
	"github.com/hitoshi/portfolio/internal/model"
)

// handleServiceError はサービス層から返されたエラーを統一エラーレスポンスに変換する。
// 想定外のエラーは詳細をログにのみ記録し、500を返す。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	middleware.WriteErrorResponse(w, toAPIError(r, err))
}

// toAPIError はエラーを対応するAPIErrorに変換する。
func toAPIError(r *http.Request, err error) *model.APIError {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return model.NewInvalidInputError(verr.Fields)
	}

	switch {
	case errors.Is(err, model.ErrUnauthorized):
		return model.NewUnauthorizedError()
	case errors.Is(err, model.ErrInvalidCredentials):
		return model.NewInvalidCredentialsError()
	case errors.Is(err, model.ErrNotFound):
		return model.NewNotFoundError()
	case errors.Is(err, model.ErrTooManyAttempts):
		return model.NewTooManyRequestsError()
	}

	slog.Error("internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	return model.NewInternalError()
}

// maxBodyBytes はJSONリクエストボディの上限。
const maxBodyBytes = 1 << 20

// decodeJSON はリクエストボディをvにデコードする。サイズはmaxBodyBytesまでに制限する。
// 失敗した場合は原因をフィールド単位の検証エラーとして返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) *model.ValidationError {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return decodeFailure(err)
	}
	return nil
}

// decodeFailure はデコードエラーをフィールド単位の検証エラーに変換する。
// 型が合わないフィールドはそのフィールド名で、それ以外はbodyとして報告する。
func decodeFailure(err error) *model.ValidationError {
	verr := &model.ValidationError{}

	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		verr.Add(typeErr.Field, fmt.Sprintf("Expected %s", jsonTypeName(typeErr.Type.Kind())))
	case errors.As(err, &maxErr):
		verr.Add("body", "Request body is too large")
	default:
		verr.Add("body", "Request body must be a valid JSON object")
	}
	return verr
}

func jsonTypeName(k reflect.Kind) string {
	switch k {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Int, reflect.Int64, reflect.Float64:
		return "number"
	default:
		return "object"
	}
}
