package onedrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	abstractions "github.com/microsoft/kiota-abstractions-go"
	"github.com/microsoftgraph/msgraph-sdk-go-core/fileuploader"
	"github.com/microsoftgraph/msgraph-sdk-go/drives"
	graphmodels "github.com/microsoftgraph/msgraph-sdk-go/models"

	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
)

const (
	// SimpleUploadLimit is the largest body Graph accepts in a single PUT
	SimpleUploadLimit = 4 << 20

	// uploadChunkSize must be a multiple of 320 KiB
	uploadChunkSize = 16 * (320 << 10)
)

// UploadFile stores content as parentID/name, replacing an existing file of the same name.
// Bodies up to SimpleUploadLimit use one PUT; larger ones go through an upload session.
func (c *Client) UploadFile(ctx context.Context, token, parentID, name string, content io.Reader, size int64, contentType string) (*models.DriveItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("file name is required: %w", domain.ErrValidation)
	}
	if size < 0 {
		return nil, fmt.Errorf("file size is required: %w", domain.ErrValidation)
	}

	s, err := c.open(ctx, token)
	if err != nil {
		return nil, err
	}

	var item *models.DriveItem
	if size <= SimpleUploadLimit {
		item, err = s.simpleUpload(parentID, name, content, size, contentType)
	} else {
		item, err = c.sessionUpload(s, parentID, name, content, size)
	}
	if err != nil {
		return nil, err
	}

	c.logger.Debug("drive file uploaded", "id", item.ID, "name", name, "size", size)
	return item, nil
}

func (s *session) simpleUpload(parentID, name string, content io.Reader, size int64, contentType string) (*models.DriveItem, error) {
	data, err := io.ReadAll(io.LimitReader(content, size))
	if err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}
	if int64(len(data)) != size {
		return nil, fmt.Errorf("upload body is %d bytes, expected %d: %w", len(data), size, domain.ErrValidation)
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	headers := abstractions.NewRequestHeaders()
	headers.Add("Content-Type", contentType)

	item, err := s.items.ByDriveItemId(childRef(parentID, name)).Content().Put(s.ctx, data,
		&drives.ItemItemsItemContentRequestBuilderPutRequestConfiguration{Headers: headers})
	if err != nil {
		return nil, translate(err)
	}
	return toModel(item), nil
}

func (c *Client) sessionUpload(s *session, parentID, name string, content io.Reader, size int64) (*models.DriveItem, error) {
	stream, cleanup, err := seekable(content)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	props := graphmodels.NewDriveItemUploadableProperties()
	props.SetAdditionalData(map[string]interface{}{
		"@microsoft.graph.conflictBehavior": "replace",
	})
	body := drives.NewItemItemsItemCreateUploadSessionPostRequestBody()
	body.SetItem(props)

	uploadSession, err := s.items.ByDriveItemId(childRef(parentID, name)).CreateUploadSession().Post(s.ctx, body, nil)
	if err != nil {
		return nil, fmt.Errorf("create upload session: %w", translate(err))
	}

	task := fileuploader.NewLargeFileUploadTask[graphmodels.DriveItemable](
		c.adapter, uploadSession, stream, uploadChunkSize,
		graphmodels.CreateDriveItemFromDiscriminatorValue, nil)

	result := task.Upload(func(sent, total int64) {
		c.logger.Debug("drive upload progress", "name", name, "sent", sent, "total", total)
	})
	if !result.GetUploadSucceeded() {
		// An abandoned session expires on its own
		return nil, fmt.Errorf("upload session for %q (%d bytes) did not complete: %w", name, size, domain.ErrUnavailable)
	}

	item := toModel(result.GetItemResponse())
	if item == nil {
		return nil, errors.New("upload session finished without returning an item")
	}
	return item, nil
}

// seekable returns content as an io.ReadSeeker, spooling it to a temp file
// when the reader cannot seek. Multipart parts can, so they are used as is.
func seekable(content io.Reader) (io.ReadSeeker, func(), error) {
	if rs, ok := content.(io.ReadSeeker); ok {
		return rs, func() {}, nil
	}

	f, err := os.CreateTemp("", "titledesk-upload-*")
	if err != nil {
		return nil, nil, fmt.Errorf("spool upload: %w", err)
	}
	cleanup := func() {
		f.Close()
		os.Remove(f.Name())
	}
	if _, err := io.Copy(f, content); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("spool upload: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("spool upload: %w", err)
	}
	return f, cleanup, nil
}
