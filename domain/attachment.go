package domain

import "time"

// Attachment is file metadata linked to a task. Content storage is delegated
// elsewhere; URL points at wherever the upload landed.
type Attachment struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"taskId"`
	URL        string    `json:"url"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mimeType"`
	UploadedBy string    `json:"uploadedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}
