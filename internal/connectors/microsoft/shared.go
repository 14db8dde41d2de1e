package microsoft

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

// graphRequestInterval paces requests per tenant 100ms apart, with no
// burst, to stay well under Graph's per-app throttling thresholds
// (grounded on the teacher's eodhd client, which paces per-provider REST
// calls the same way with x/time/rate).
const graphRequestInterval = 100 * time.Millisecond

// SharedState is the process-wide Graph client state one tenant's
// connector family (SharePoint + Outlook + Teams) shares: a single OAuth2
// client-credentials token cache and a single rate limiter, since Graph
// throttles an application registration as one client no matter which
// sub-surface is calling (spec §5).
type SharedState struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	tokenSrc oauth2.TokenSource

	deltaMu    sync.Mutex
	deltaLinks map[string]string // keyed by site ID
}

// NewSharedState builds the shared client-credentials token source for
// tenantID, scoped to the Graph "https://graph.microsoft.com/.default" scope.
func NewSharedState(tenantID, clientID, clientSecret string) *SharedState {
	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}
	return &SharedState{
		limiter:    rate.NewLimiter(rate.Every(graphRequestInterval), 1),
		tokenSrc:   cfg.TokenSource(context.Background()),
		deltaLinks: make(map[string]string),
	}
}

// AuthHeader waits for the shared rate limiter and returns the current
// bearer token's Authorization header value.
func (s *SharedState) AuthHeader(ctx context.Context) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("microsoft: rate limiter wait: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, err := s.tokenSrc.Token()
	if err != nil {
		return "", fmt.Errorf("microsoft: acquire Graph token: %w", err)
	}
	return "Bearer " + tok.AccessToken, nil
}

// DeltaLink returns the stored @odata.deltaLink for siteID, if any.
func (s *SharedState) DeltaLink(siteID string) (string, bool) {
	s.deltaMu.Lock()
	defer s.deltaMu.Unlock()
	link, ok := s.deltaLinks[siteID]
	return link, ok
}

// SetDeltaLink persists the @odata.deltaLink for siteID. Per spec §8
// scenario 6, an empty link must never overwrite a previously stored one.
func (s *SharedState) SetDeltaLink(siteID, link string) {
	if link == "" {
		return
	}
	s.deltaMu.Lock()
	defer s.deltaMu.Unlock()
	s.deltaLinks[siteID] = link
}
