package gcal

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// OAuthCredentials holds the application-level OAuth client configuration.
type OAuthCredentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// NewOAuthConfig builds the oauth2 config used to mint per-workspace HTTP
// clients.
func NewOAuthConfig(creds OAuthCredentials) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURI,
		Endpoint:     google.Endpoint,
		Scopes:       []string{calendar.CalendarEventsReadonlyScope},
	}
}

// Client is the SDK-backed EventLister implementation.
type Client struct {
	svc *calendar.Service
}

// NewClient creates a Google Calendar API client from a workspace's OAuth
// token pair. The refresh token may be empty; the access token may not.
func NewClient(ctx context.Context, config *oauth2.Config, accessToken, refreshToken string) (*Client, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("access token cannot be empty")
	}

	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}

	// Create HTTP client from token; the oauth2 transport refreshes
	// expired access tokens transparently when a refresh token is present.
	httpClient := config.Client(ctx, token)

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &Client{svc: svc}, nil
}

// ListEvents implements EventLister against the vendor SDK.
func (c *Client) ListEvents(ctx context.Context, params ListParams) (*EventPage, error) {
	calendarID := params.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}

	call := c.svc.Events.List(calendarID).
		ShowDeleted(params.ShowDeleted).
		SingleEvents(params.SingleEvents)

	if params.SyncToken != "" {
		call = call.SyncToken(params.SyncToken)
	} else {
		if !params.TimeMin.IsZero() {
			call = call.TimeMin(params.TimeMin.Format(time.RFC3339))
		}
		if !params.TimeMax.IsZero() {
			call = call.TimeMax(params.TimeMax.Format(time.RFC3339))
		}
	}

	if params.MaxResults > 0 {
		call = call.MaxResults(params.MaxResults)
	}
	if params.PageToken != "" {
		call = call.PageToken(params.PageToken)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	page := &EventPage{
		Items:         make([]ExternalEvent, 0, len(resp.Items)),
		NextSyncToken: resp.NextSyncToken,
		NextPageToken: resp.NextPageToken,
	}

	for _, item := range resp.Items {
		if item == nil {
			continue
		}
		page.Items = append(page.Items, fromSDKEvent(item))
	}

	return page, nil
}

// fromSDKEvent converts one vendor SDK event into the narrow representation.
func fromSDKEvent(ev *calendar.Event) ExternalEvent {
	out := ExternalEvent{
		ID:          ev.Id,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		ColorID:     ev.ColorId,
		Status:      ev.Status,
	}
	if ev.Start != nil {
		out.Start = EventTime{DateTime: ev.Start.DateTime, Date: ev.Start.Date}
	}
	if ev.End != nil {
		out.End = EventTime{DateTime: ev.End.DateTime, Date: ev.End.Date}
	}
	return out
}

// Provider builds per-workspace listers from a shared OAuth config.
type Provider struct {
	config *oauth2.Config
}

// NewProvider creates a ListerProvider backed by the vendor SDK.
func NewProvider(creds OAuthCredentials) *Provider {
	return &Provider{config: NewOAuthConfig(creds)}
}

// ListerFor implements ListerProvider.
func (p *Provider) ListerFor(ctx context.Context, accessToken, refreshToken string) (EventLister, error) {
	return NewClient(ctx, p.config, accessToken, refreshToken)
}
