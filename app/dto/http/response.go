package http

// Stable error codes returned alongside the human-readable message.
const (
	CodeBadRequest            = "bad_request"
	CodeConflict              = "conflict"
	CodeInvalidCredentials    = "invalid_credentials"
	CodeUnauthenticated       = "unauthenticated"
	CodeInvalidToken          = "invalid_token"
	CodeTokenInvalidOrExpired = "token_invalid_or_expired"
	CodeForbidden             = "forbidden"
	CodeDeliveryFailed        = "delivery_failed"
	CodeSamePassword          = "same_password"
	CodeAlreadyVerified       = "already_verified"
	CodeNotFound              = "not_found"
	CodeInternal              = "internal"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func NewError(code, message string) ErrorResponse {
	return ErrorResponse{Error: message, Code: code}
}

func InternalError() ErrorResponse {
	return ErrorResponse{Error: "internal server error", Code: CodeInternal}
}
