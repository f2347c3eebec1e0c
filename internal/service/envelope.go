package service

// Response is the uniform envelope returned by every operation.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`

	// Err carries the categorized failure for in-process callers.
	Err *Error `json:"-"`
}

func ok(data any, message string) Response {
	return Response{Success: true, Data: data, Message: message}
}

func fail(err *Error) Response {
	return Response{Success: false, Error: err.Message, Err: err}
}

// InvalidBody is the response for a request body that cannot be decoded.
func InvalidBody(err error) Response {
	return fail(validationError("Cuerpo de la solicitud inválido", err))
}
