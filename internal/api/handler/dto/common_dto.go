package dto

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorDetail struct {
	Code    string       `json:"code,omitempty"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

const IngestionAccepted = "accepted"

type IngestionRunResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}
