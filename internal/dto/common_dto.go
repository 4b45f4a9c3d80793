package dto

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Storage   string `json:"storage"`
	Driver    string `json:"driver"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type IDListResponse struct {
	IDs   []string `json:"ids"`
	Count int      `json:"count"`
}
