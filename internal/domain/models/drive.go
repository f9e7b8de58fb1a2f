package models

import "io"

// DriveItem is a file or folder in the cloud drive
type DriveItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	WebURL   string `json:"webUrl"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType,omitempty"`
	ParentID string `json:"parentId,omitempty"`
	IsFolder bool   `json:"isFolder"`
}

// DriveContent is a streamed file body. Callers must close Body.
type DriveContent struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}
