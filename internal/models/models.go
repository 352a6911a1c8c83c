package models

// DJ login
type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// Error response
type ErrorResponse struct {
	Error string `json:"error"`
}
