package api

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	Success   bool   `json:"success"`
	ExpiresAt string `json:"expiresAt"`
}

type AuthCheckResponse struct {
	Authenticated bool `json:"authenticated"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
