package service

// RequestError is a client-input validation failure. It carries the HTTP
// status and the public message; no upstream call is made when one is
// returned.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}
