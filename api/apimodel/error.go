package apimodel

// Error is the json error response returned by all api endpoints
type Error struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// Predefined error codes
const (
	InvalidRequest     = "invalid_request"
	InvalidClient      = "invalid_client"
	MalformedToken     = "malformed_token"
	NotFound           = "not_found"
	InsufficientRights = "insufficient_rights"
	ServerError        = "server_error"
)

// ErrorInvalidRequest returns an Error for invalid requests with the given description
func ErrorInvalidRequest(description string) Error {
	return Error{
		Error:            InvalidRequest,
		ErrorDescription: description,
	}
}

// ErrorUnauthorized returns an Error for unauthorized requests with the given description
func ErrorUnauthorized(description string) Error {
	return Error{
		Error:            InvalidClient,
		ErrorDescription: description,
	}
}

// ErrorMalformedToken returns an Error for credentials that are not valid compact jws
func ErrorMalformedToken(description string) Error {
	return Error{
		Error:            MalformedToken,
		ErrorDescription: description,
	}
}

// ErrorInsufficientRights returns an Error for requests that are
// authenticated but lack the required privileges
func ErrorInsufficientRights(description string) Error {
	return Error{
		Error:            InsufficientRights,
		ErrorDescription: description,
	}
}

// ErrorNotFound returns a not-found Error with the given description
func ErrorNotFound(description string) Error {
	return Error{
		Error:            NotFound,
		ErrorDescription: description,
	}
}

// ErrorServerError returns an internal server error Error with the given description
func ErrorServerError(description string) Error {
	return Error{
		Error:            ServerError,
		ErrorDescription: description,
	}
}
