package dto

type CreateNoteRequest struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Priority  string  `json:"priority"`
	ShareWith []int64 `json:"share_with,omitempty"`
	CanEdit   bool    `json:"can_edit"`
}

type UpdateNoteRequest struct {
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	Priority *string `json:"priority,omitempty"`
	IsDone   *bool   `json:"is_done,omitempty"`
}

type ShareNoteRequest struct {
	UserIDs []int64 `json:"user_ids"`
	CanEdit bool    `json:"can_edit"`
}

type CreateProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Status      string  `json:"status,omitempty"`
}

type UpdateProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Status      string  `json:"status,omitempty"`
}

type AddImageRequest struct {
	ImageURL string `json:"image_url"`
}

// DueDate is a calendar day (YYYY-MM-DD); empty means no date.
type CreateMilestoneRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	DueDate     string  `json:"due_date,omitempty"`
	Status      string  `json:"status,omitempty"`
}

type UpdateMilestoneRequest struct {
	Status string `json:"status"`
}
