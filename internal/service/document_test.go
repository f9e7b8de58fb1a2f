package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/domain/services"
)

const testFolder = "Applications/FY 2025-2026/05-May/TVF-0007"

func newTestDocumentService(docs *memDocuments, drive *memDrive, audit *nopAudit) services.DocumentService {
	apps := &visibleApplications{byID: map[string]*models.Application{
		"app-1": {
			ID:          "app-1",
			FileNumber:  "TVF-0007",
			CompanyName: "Acme Finance",
			CreatedAt:   time.Date(2025, time.May, 14, 9, 0, 0, 0, time.UTC),
		},
	}}
	return NewDocumentService(docs, apps, drive, audit, "Applications", discardLogger())
}

func TestUploadDocument_StoresInApplicationFolder(t *testing.T) {
	docs := &memDocuments{}
	drive := &memDrive{}
	audit := &nopAudit{}
	svc := newTestDocumentService(docs, drive, audit)

	doc, err := svc.UploadDocument(context.Background(), staffPrincipal("u1"), &services.UploadDocumentRequest{
		ApplicationID: "app-1",
		FileName:      `C:\scans\deed.pdf`,
		ContentType:   "application/pdf",
		Size:          5,
		Content:       strings.NewReader("%PDF-"),
		DriveToken:    "tok",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{testFolder}, drive.folders)
	assert.Equal(t, "%PDF-", string(drive.uploads["deed.pdf"]))

	require.Len(t, docs.docs, 1)
	assert.Equal(t, doc.ID, docs.docs[0].ID)
	assert.Equal(t, "app-1", doc.ApplicationID)
	assert.Equal(t, "item:deed.pdf", doc.DriveItemID)
	assert.Equal(t, "application/pdf", doc.MimeType)
	assert.Equal(t, int64(5), doc.Size)
	require.NotNil(t, doc.UploadedBy)
	assert.Equal(t, "u1", *doc.UploadedBy)
	assert.Equal(t, []string{"application_document:create"}, audit.records)
}

func TestUploadDocument_RequiresDriveToken(t *testing.T) {
	drive := &memDrive{}
	svc := newTestDocumentService(&memDocuments{}, drive, &nopAudit{})

	_, err := svc.UploadDocument(context.Background(), staffPrincipal("u1"), &services.UploadDocumentRequest{
		ApplicationID: "app-1",
		FileName:      "deed.pdf",
		Size:          5,
		Content:       strings.NewReader("%PDF-"),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, drive.folders)
}

func TestUploadDocument_HiddenApplication(t *testing.T) {
	drive := &memDrive{}
	svc := newTestDocumentService(&memDocuments{}, drive, &nopAudit{})

	_, err := svc.UploadDocument(context.Background(), staffPrincipal("u1"), &services.UploadDocumentRequest{
		ApplicationID: "app-other",
		FileName:      "deed.pdf",
		Size:          5,
		Content:       strings.NewReader("%PDF-"),
		DriveToken:    "tok",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, drive.uploads)
}

func TestUploadDocument_RemovesDriveItemWhenInsertFails(t *testing.T) {
	docs := &memDocuments{createErr: errors.New("insert failed")}
	drive := &memDrive{}
	audit := &nopAudit{}
	svc := newTestDocumentService(docs, drive, audit)

	_, err := svc.UploadDocument(context.Background(), staffPrincipal("u1"), &services.UploadDocumentRequest{
		ApplicationID: "app-1",
		FileName:      "deed.pdf",
		Size:          5,
		Content:       strings.NewReader("%PDF-"),
		DriveToken:    "tok",
	})
	require.Error(t, err)
	assert.Equal(t, []string{"item:deed.pdf"}, drive.deleted)
	assert.Empty(t, audit.records)
}

func TestGenerateDocument_CopiesTemplateContent(t *testing.T) {
	docs := &memDocuments{}
	drive := &memDrive{
		templates: map[string]*models.DriveItem{
			"tpl-1": {ID: "tpl-1", Name: "Search Report.docx", Size: 8, MimeType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		},
		content: map[string]string{"tpl-1": "template"},
	}
	audit := &nopAudit{}
	svc := newTestDocumentService(docs, drive, audit)

	doc, err := svc.GenerateDocument(context.Background(), staffPrincipal("u1"), &services.GenerateDocumentRequest{
		ApplicationID:  "app-1",
		TemplateItemID: "tpl-1",
		DriveToken:     "tok",
	})
	require.NoError(t, err)

	assert.Equal(t, "TVF-0007 - Search Report.docx", doc.Name)
	assert.Equal(t, "template", string(drive.uploads[doc.Name]))
	assert.Equal(t, drive.templates["tpl-1"].MimeType, doc.MimeType)
	assert.Equal(t, []string{testFolder}, drive.folders)
	require.Len(t, docs.docs, 1)
	assert.Equal(t, []string{"application_document:create"}, audit.records)
}

func TestGenerateDocument_KeepsTemplateExtension(t *testing.T) {
	drive := &memDrive{
		templates: map[string]*models.DriveItem{"tpl-1": {ID: "tpl-1", Name: "Opinion.docx", Size: 3}},
		content:   map[string]string{"tpl-1": "abc"},
	}
	svc := newTestDocumentService(&memDocuments{}, drive, &nopAudit{})

	doc, err := svc.GenerateDocument(context.Background(), staffPrincipal("u1"), &services.GenerateDocumentRequest{
		ApplicationID:  "app-1",
		TemplateItemID: "tpl-1",
		Name:           "Legal Opinion",
		DriveToken:     "tok",
	})
	require.NoError(t, err)
	assert.Equal(t, "Legal Opinion.docx", doc.Name)
}

func TestGenerateDocument_FolderTemplate(t *testing.T) {
	drive := &memDrive{
		templates: map[string]*models.DriveItem{"tpl-1": {ID: "tpl-1", Name: "Templates", IsFolder: true}},
	}
	svc := newTestDocumentService(&memDocuments{}, drive, &nopAudit{})

	_, err := svc.GenerateDocument(context.Background(), staffPrincipal("u1"), &services.GenerateDocumentRequest{
		ApplicationID:  "app-1",
		TemplateItemID: "tpl-1",
		DriveToken:     "tok",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, drive.uploads)
}

func TestUploadPDF_RecordsFolderPath(t *testing.T) {
	docs := &memDocuments{}
	drive := &memDrive{}
	svc := newTestDocumentService(docs, drive, &nopAudit{})

	upload, err := svc.UploadPDF(context.Background(), staffPrincipal("u1"), &services.UploadDocumentRequest{
		ApplicationID: "app-1",
		FileName:      "final.PDF",
		Size:          5,
		Content:       strings.NewReader("%PDF-"),
		DriveToken:    "tok",
	})
	require.NoError(t, err)

	assert.Equal(t, testFolder, upload.FolderPath)
	assert.Equal(t, "TVF-0007", upload.FileNumber)
	assert.Equal(t, "final.PDF", upload.FileName)

	listed, err := svc.ListPDFUploads(context.Background(), staffPrincipal("u1"), "app-1")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestUploadPDF_RejectsOtherTypes(t *testing.T) {
	drive := &memDrive{}
	svc := newTestDocumentService(&memDocuments{}, drive, &nopAudit{})

	_, err := svc.UploadPDF(context.Background(), staffPrincipal("u1"), &services.UploadDocumentRequest{
		ApplicationID: "app-1",
		FileName:      "scan.jpg",
		Size:          5,
		Content:       strings.NewReader("abcde"),
		DriveToken:    "tok",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, drive.uploads)
}

func TestDeleteDocument_RemovesRecordAndDriveItem(t *testing.T) {
	docs := &memDocuments{docs: []models.ApplicationDocument{
		{ID: "doc-1", ApplicationID: "app-1", Name: "deed.pdf", DriveItemID: "item-1"},
	}}
	drive := &memDrive{}
	audit := &nopAudit{}
	svc := newTestDocumentService(docs, drive, audit)

	require.NoError(t, svc.DeleteDocument(context.Background(), staffPrincipal("u1"), "doc-1", "tok"))

	assert.Empty(t, docs.docs)
	assert.Equal(t, []string{"item-1"}, drive.deleted)
	assert.Equal(t, []string{"application_document:delete"}, audit.records)
}

func TestDeleteDocument_WithoutTokenKeepsDriveItem(t *testing.T) {
	docs := &memDocuments{docs: []models.ApplicationDocument{
		{ID: "doc-1", ApplicationID: "app-1", DriveItemID: "item-1"},
	}}
	drive := &memDrive{}
	svc := newTestDocumentService(docs, drive, &nopAudit{})

	require.NoError(t, svc.DeleteDocument(context.Background(), staffPrincipal("u1"), "doc-1", ""))
	assert.Empty(t, docs.docs)
	assert.Empty(t, drive.deleted)
}

func TestDeleteDocument_HiddenApplication(t *testing.T) {
	docs := &memDocuments{docs: []models.ApplicationDocument{
		{ID: "doc-1", ApplicationID: "app-other", DriveItemID: "item-1"},
	}}
	svc := newTestDocumentService(docs, &memDrive{}, &nopAudit{})

	err := svc.DeleteDocument(context.Background(), staffPrincipal("u1"), "doc-1", "tok")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Len(t, docs.docs, 1)
}

func TestDeleteDocument_ApplicationLookupFailurePassesThrough(t *testing.T) {
	docs := &memDocuments{docs: []models.ApplicationDocument{{ID: "doc-1", ApplicationID: "app-1"}}}
	dbErr := errors.New("connection reset")
	svc := NewDocumentService(docs, &visibleApplications{err: dbErr}, &memDrive{}, &nopAudit{}, "Applications", discardLogger())

	err := svc.DeleteDocument(context.Background(), staffPrincipal("u1"), "doc-1", "tok")
	require.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.Len(t, docs.docs, 1)
}
