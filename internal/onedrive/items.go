package onedrive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	abstractions "github.com/microsoft/kiota-abstractions-go"
	kiotahttp "github.com/microsoft/kiota-http-go"
	"github.com/microsoftgraph/msgraph-sdk-go/drives"
	graphmodels "github.com/microsoftgraph/msgraph-sdk-go/models"

	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
)

// GetItem returns metadata of an item by ID
func (c *Client) GetItem(ctx context.Context, token, itemID string) (*models.DriveItem, error) {
	s, err := c.open(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.get(itemRef(itemID))
}

func (s *session) get(ref string) (*models.DriveItem, error) {
	item, err := s.items.ByDriveItemId(ref).Get(s.ctx, nil)
	if err != nil {
		return nil, translate(err)
	}
	return toModel(item), nil
}

// CreateFolder creates a child folder. An existing folder of the same name is an ErrConflict.
func (c *Client) CreateFolder(ctx context.Context, token, parentID, name string) (*models.DriveItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("folder name is required: %w", domain.ErrValidation)
	}

	s, err := c.open(ctx, token)
	if err != nil {
		return nil, err
	}
	item, err := s.createFolder(parentID, name)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("drive folder created", "id", item.ID, "name", name, "parent_id", parentID)
	return item, nil
}

func (s *session) createFolder(parentID, name string) (*models.DriveItem, error) {
	body := graphmodels.NewDriveItem()
	body.SetName(&name)
	body.SetFolder(graphmodels.NewFolder())
	body.SetAdditionalData(map[string]interface{}{
		"@microsoft.graph.conflictBehavior": "fail",
	})

	item, err := s.items.ByDriveItemId(itemRef(parentID)).Children().Post(s.ctx, body, nil)
	if err != nil {
		return nil, translate(err)
	}
	return toModel(item), nil
}

// EnsureFolderPath walks path from the drive root, creating missing folders,
// and returns the last one.
func (c *Client) EnsureFolderPath(ctx context.Context, token, path string) (*models.DriveItem, error) {
	s, err := c.open(ctx, token)
	if err != nil {
		return nil, err
	}

	segments := splitPath(path)
	if len(segments) == 0 {
		return s.get(itemRef(""))
	}

	var current *models.DriveItem
	parentID := ""
	for i, seg := range segments {
		sofar := strings.Join(segments[:i+1], "/")

		item, err := s.get(pathRef(sofar))
		if errors.Is(err, domain.ErrNotFound) {
			item, err = s.createFolder(parentID, seg)
			if errors.Is(err, domain.ErrConflict) {
				// Created concurrently by another request
				item, err = s.get(pathRef(sofar))
			}
			if err == nil {
				c.logger.Debug("drive folder created", "id", item.ID, "path", sofar)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("ensure folder %q: %w", sofar, err)
		}
		if !item.IsFolder {
			return nil, &domain.ConflictError{
				Message:      fmt.Sprintf("%q exists and is not a folder", sofar),
				ResourceType: "drive_item",
				ResourceID:   item.ID,
			}
		}

		current = item
		parentID = item.ID
	}
	return current, nil
}

// CopyItem starts an asynchronous copy of itemID into parentID under name.
// Graph answers 202 with a monitor URL to poll for completion.
func (c *Client) CopyItem(ctx context.Context, token, itemID, parentID, name string) (string, error) {
	s, err := c.open(ctx, token)
	if err != nil {
		return "", err
	}

	body := drives.NewItemItemsItemCopyPostRequestBody()
	if parentID != "" {
		parent := graphmodels.NewItemReference()
		parent.SetId(&parentID)
		body.SetParentReference(parent)
	}
	if name != "" {
		body.SetName(&name)
	}

	inspect := kiotahttp.NewHeadersInspectionOptions()
	inspect.InspectResponseHeaders = true
	config := &drives.ItemItemsItemCopyRequestBuilderPostRequestConfiguration{
		Options: []abstractions.RequestOption{inspect},
	}

	if _, err := s.items.ByDriveItemId(itemRef(itemID)).Copy().Post(s.ctx, body, config); err != nil {
		return "", translate(err)
	}

	monitor := ""
	if loc := inspect.GetResponseHeaders().Get("Location"); len(loc) > 0 {
		monitor = loc[0]
	}
	return monitor, nil
}

// Download opens the item's content. The caller must close the returned body.
// The request is built by the SDK but sent directly so the body streams
// instead of being buffered.
func (c *Client) Download(ctx context.Context, token, itemID string) (*models.DriveContent, error) {
	s, err := c.open(ctx, token)
	if err != nil {
		return nil, err
	}

	info, err := s.items.ByDriveItemId(itemRef(itemID)).Content().ToGetRequestInformation(s.ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	if err := c.auth.AuthenticateRequest(s.ctx, info, nil); err != nil {
		return nil, fmt.Errorf("authenticate download request: %w", err)
	}
	native, err := c.adapter.ConvertToNativeRequest(s.ctx, info)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	req, ok := native.(*http.Request)
	if !ok {
		return nil, fmt.Errorf("unexpected native request type %T", native)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graph download: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, readGraphError(resp)
	}

	return &models.DriveContent{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}, nil
}

// Checkout locks the item for editing by the caller
func (c *Client) Checkout(ctx context.Context, token, itemID string) error {
	s, err := c.open(ctx, token)
	if err != nil {
		return err
	}
	if err := s.items.ByDriveItemId(itemRef(itemID)).Checkout().Post(s.ctx, nil); err != nil {
		return translate(err)
	}
	return nil
}

// Checkin releases a checkout with an optional comment
func (c *Client) Checkin(ctx context.Context, token, itemID, comment string) error {
	s, err := c.open(ctx, token)
	if err != nil {
		return err
	}

	body := drives.NewItemItemsItemCheckinPostRequestBody()
	body.SetComment(&comment)
	if err := s.items.ByDriveItemId(itemRef(itemID)).Checkin().Post(s.ctx, body, nil); err != nil {
		return translate(err)
	}
	return nil
}

// DeleteItem moves the item to the drive's recycle bin
func (c *Client) DeleteItem(ctx context.Context, token, itemID string) error {
	if itemID == "" {
		return fmt.Errorf("item id is required: %w", domain.ErrValidation)
	}

	s, err := c.open(ctx, token)
	if err != nil {
		return err
	}
	if err := s.items.ByDriveItemId(itemID).Delete(s.ctx, nil); err != nil {
		return translate(err)
	}

	c.logger.Debug("drive item deleted", "id", itemID)
	return nil
}
