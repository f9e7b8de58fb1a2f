package onedrive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	abstractions "github.com/microsoft/kiota-abstractions-go"
	"github.com/microsoft/kiota-abstractions-go/authentication"
	kiotahttp "github.com/microsoft/kiota-http-go"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	"github.com/microsoftgraph/msgraph-sdk-go/drives"
	graphmodels "github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/models/odataerrors"

	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
)

// DefaultBaseURL is the Microsoft Graph v1.0 endpoint
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// Client talks to the caller's OneDrive through the Graph SDK. It holds no
// credentials: each call carries the delegated token it was given.
type Client struct {
	graph      *msgraphsdk.GraphServiceClient
	adapter    abstractions.RequestAdapter
	auth       authentication.AuthenticationProvider
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a Graph client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, logger *slog.Logger) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid graph base url %q", baseURL)
	}

	// No retry handler: throttling surfaces as ErrUnavailable and the caller decides
	httpClient := kiotahttp.GetDefaultClient(
		kiotahttp.NewRedirectHandler(),
		kiotahttp.NewParametersNameDecodingHandler(),
		kiotahttp.NewUserAgentHandler(),
		kiotahttp.NewHeadersInspectionHandler(),
	)
	httpClient.Timeout = 5 * time.Minute

	auth := authentication.NewBaseBearerTokenAuthenticationProvider(&delegatedTokenProvider{graphHost: u.Host})
	adapter, err := msgraphsdk.NewGraphRequestAdapterWithParseNodeFactoryAndSerializationWriterFactoryAndHttpClient(auth, nil, nil, httpClient)
	if err != nil {
		return nil, fmt.Errorf("create graph request adapter: %w", err)
	}
	adapter.SetBaseUrl(baseURL)

	return &Client{
		graph:      msgraphsdk.NewGraphServiceClient(adapter),
		adapter:    adapter,
		auth:       auth,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

type tokenKey struct{}

// delegatedTokenProvider hands the request's token to Graph and to nothing
// else. Upload session URLs live on another host and are pre-authorized.
type delegatedTokenProvider struct {
	graphHost string
}

func (p *delegatedTokenProvider) GetAuthorizationToken(ctx context.Context, u *url.URL, _ map[string]interface{}) (string, error) {
	if u == nil || !strings.EqualFold(u.Host, p.graphHost) {
		return "", nil
	}
	token, _ := ctx.Value(tokenKey{}).(string)
	return token, nil
}

func (p *delegatedTokenProvider) GetAllowedHostsValidator() *authentication.AllowedHostsValidator {
	return &authentication.AllowedHostsValidator{}
}

// session is one authorized call sequence against the caller's drive
type session struct {
	ctx   context.Context
	items *drives.ItemItemsRequestBuilder
}

// open attaches token to ctx and resolves the caller's drive
func (c *Client) open(ctx context.Context, token string) (*session, error) {
	if token == "" {
		return nil, fmt.Errorf("onedrive access token missing: %w", domain.ErrUnauthorized)
	}
	ctx = context.WithValue(ctx, tokenKey{}, token)

	drive, err := c.graph.Me().Drive().Get(ctx, nil)
	if err != nil {
		return nil, translate(err)
	}
	if drive.GetId() == nil {
		return nil, errors.New("graph returned a drive without an id")
	}
	return &session{ctx: ctx, items: c.graph.Drives().ByDriveId(*drive.GetId()).Items()}, nil
}

// itemRef addresses an item by ID; "" is the drive root
func itemRef(id string) string {
	if id == "" {
		return "root"
	}
	return id
}

// pathRef addresses an item by its path under the drive root
func pathRef(path string) string {
	return "root:/" + strings.Join(splitPath(path), "/") + ":"
}

// childRef addresses name inside the folder parentID
func childRef(parentID, name string) string {
	return itemRef(parentID) + ":/" + name + ":"
}

// GraphError is an error response from Graph
type GraphError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *GraphError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("graph request failed with status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("graph %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Unwrap maps Graph statuses onto domain sentinels so handlers can classify them
func (e *GraphError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusConflict, http.StatusPreconditionFailed, http.StatusLocked:
		return domain.ErrConflict
	case http.StatusBadRequest:
		return domain.ErrValidation
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return domain.ErrUnavailable
	default:
		return nil
	}
}

// translate turns SDK errors into GraphError. Transport errors pass through.
func translate(err error) error {
	var odataErr *odataerrors.ODataError
	if errors.As(err, &odataErr) {
		gerr := &GraphError{StatusCode: odataErr.ResponseStatusCode, Message: odataErr.Message}
		if main := odataErr.GetErrorEscaped(); main != nil {
			gerr.Code = deref(main.GetCode())
			gerr.Message = deref(main.GetMessage())
		}
		return gerr
	}

	var apiErr *abstractions.ApiError
	if errors.As(err, &apiErr) {
		return &GraphError{StatusCode: apiErr.ResponseStatusCode, Message: apiErr.Message}
	}
	return fmt.Errorf("graph request: %w", err)
}

// readGraphError decodes an error body from a response read outside the SDK
func readGraphError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	gerr := &GraphError{StatusCode: resp.StatusCode, Message: string(body)}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Code != "" {
		gerr.Code = envelope.Error.Code
		gerr.Message = envelope.Error.Message
	}
	return gerr
}

func toModel(d graphmodels.DriveItemable) *models.DriveItem {
	if d == nil {
		return nil
	}
	item := &models.DriveItem{
		ID:       deref(d.GetId()),
		Name:     deref(d.GetName()),
		WebURL:   deref(d.GetWebUrl()),
		IsFolder: d.GetFolder() != nil,
	}
	if size := d.GetSize(); size != nil {
		item.Size = *size
	}
	if f := d.GetFile(); f != nil {
		item.MimeType = deref(f.GetMimeType())
	}
	if parent := d.GetParentReference(); parent != nil {
		item.ParentID = deref(parent.GetId())
	}
	return item
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func splitPath(p string) []string {
	var parts []string
	for _, s := range strings.Split(p, "/") {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}
