package models

import "time"

// ApplicationDocument is a file stored in the cloud drive for an application
type ApplicationDocument struct {
	ID            string    `json:"id" db:"id"`
	ApplicationID string    `json:"applicationId" db:"application_id"`
	Name          string    `json:"name" db:"name"`
	DriveItemID   string    `json:"driveItemId" db:"drive_item_id"`
	WebURL        string    `json:"webUrl" db:"web_url"`
	MimeType      string    `json:"mimeType" db:"mime_type"`
	Size          int64     `json:"size" db:"size"`
	UploadedBy    *string   `json:"uploadedBy,omitempty" db:"uploaded_by"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// ApplicationPDFUpload records a PDF placed in the financial-year folder layout
type ApplicationPDFUpload struct {
	ID            string    `json:"id" db:"id"`
	ApplicationID string    `json:"applicationId" db:"application_id"`
	FileNumber    string    `json:"fileNumber" db:"file_number"`
	FolderPath    string    `json:"folderPath" db:"folder_path"`
	FileName      string    `json:"fileName" db:"file_name"`
	DriveItemID   string    `json:"driveItemId" db:"drive_item_id"`
	WebURL        string    `json:"webUrl" db:"web_url"`
	UploadedBy    *string   `json:"uploadedBy,omitempty" db:"uploaded_by"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// CompanyFile is an external document linked to a company
type CompanyFile struct {
	ID          string    `json:"id" db:"id"`
	CompanyID   string    `json:"companyId" db:"company_id"`
	Name        string    `json:"name" db:"name"`
	URL         string    `json:"url" db:"url"`
	DriveItemID *string   `json:"driveItemId,omitempty" db:"drive_item_id"`
	CreatedBy   *string   `json:"createdBy,omitempty" db:"created_by"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
