package dto

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

// NoteResponse is a single note with the caller's access to it.
type NoteResponse struct {
	Note       any    `json:"note"`
	Permission string `json:"permission"`
}
