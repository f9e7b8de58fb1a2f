package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/domain/repositories"
)

const applicationDocumentColumns = `id, application_id, name, drive_item_id, web_url, mime_type, size, uploaded_by, created_at`

// PostgresApplicationDocumentRepository implements ApplicationDocumentRepository
type PostgresApplicationDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewApplicationDocumentRepository creates a new application document repository
func NewApplicationDocumentRepository(config *RepositoryConfig) repositories.ApplicationDocumentRepository {
	return &PostgresApplicationDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func scanApplicationDocument(row pgx.Row, d *models.ApplicationDocument) error {
	return row.Scan(
		&d.ID,
		&d.ApplicationID,
		&d.Name,
		&d.DriveItemID,
		&d.WebURL,
		&d.MimeType,
		&d.Size,
		&d.UploadedBy,
		&d.CreatedAt,
	)
}

// Create inserts document metadata
func (r *PostgresApplicationDocumentRepository) Create(ctx context.Context, d *models.ApplicationDocument) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (application_id, name, drive_item_id, web_url, mime_type, size, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, r.tables.ApplicationDocuments)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		d.ApplicationID, d.Name, d.DriveItemID, d.WebURL, d.MimeType, d.Size, d.UploadedBy, d.CreatedAt,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return wrapWriteError(err, "create application document", "application_document",
			fmt.Sprintf("document '%s' already exists", d.Name))
	}
	return nil
}

// GetByID retrieves document metadata by ID
func (r *PostgresApplicationDocumentRepository) GetByID(ctx context.Context, id string) (*models.ApplicationDocument, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, applicationDocumentColumns, r.tables.ApplicationDocuments)

	var d models.ApplicationDocument
	if err := scanApplicationDocument(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id), &d); err != nil {
		return nil, wrapNotFound(err, "get application document", "document", id)
	}
	return &d, nil
}

// ListByApplication lists documents newest first
func (r *PostgresApplicationDocumentRepository) ListByApplication(ctx context.Context, applicationID string) ([]models.ApplicationDocument, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE application_id = $1 ORDER BY created_at DESC`,
		applicationDocumentColumns, r.tables.ApplicationDocuments)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list application documents: %w", err)
	}
	defer rows.Close()

	docs := []models.ApplicationDocument{}
	for rows.Next() {
		var d models.ApplicationDocument
		if err := scanApplicationDocument(rows, &d); err != nil {
			return nil, fmt.Errorf("scan application document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Delete removes document metadata
func (r *PostgresApplicationDocumentRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.ApplicationDocuments)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete application document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// CreatePDFUpload records an uploaded PDF
func (r *PostgresApplicationDocumentRepository) CreatePDFUpload(ctx context.Context, u *models.ApplicationPDFUpload) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (application_id, file_number, folder_path, file_name, drive_item_id, web_url, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, r.tables.ApplicationPDFs)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		u.ApplicationID, u.FileNumber, u.FolderPath, u.FileName, u.DriveItemID, u.WebURL, u.UploadedBy, u.CreatedAt,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return wrapWriteError(err, "create pdf upload", "pdf_upload", "pdf upload already recorded")
	}
	return nil
}

// ListPDFUploads lists PDF uploads of an application newest first
func (r *PostgresApplicationDocumentRepository) ListPDFUploads(ctx context.Context, applicationID string) ([]models.ApplicationPDFUpload, error) {
	query := fmt.Sprintf(`
		SELECT id, application_id, file_number, folder_path, file_name, drive_item_id, web_url, uploaded_by, created_at
		FROM %s WHERE application_id = $1 ORDER BY created_at DESC
	`, r.tables.ApplicationPDFs)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list pdf uploads: %w", err)
	}
	defer rows.Close()

	uploads := []models.ApplicationPDFUpload{}
	for rows.Next() {
		var u models.ApplicationPDFUpload
		if err := rows.Scan(&u.ID, &u.ApplicationID, &u.FileNumber, &u.FolderPath, &u.FileName,
			&u.DriveItemID, &u.WebURL, &u.UploadedBy, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pdf upload: %w", err)
		}
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}
