package engagement

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/utafrali/PaintCatalog/pkg/httpclient"
)

const remoteServiceName = "engagement"

type submitRequest struct {
	EntityID string `json:"entity_id"`
}

type submitResponse struct {
	Count *int `json:"count"`
}

// RemoteSubmitter posts submissions to an HTTP engagement endpoint. Likes go
// to <base>/likes and votes to <base>/votes.
type RemoteSubmitter struct {
	client  httpclient.Doer
	baseURL string
}

// NewRemoteSubmitter creates a submitter for the endpoint at baseURL. client
// is normally a circuit-breaker client.
func NewRemoteSubmitter(client httpclient.Doer, baseURL string) *RemoteSubmitter {
	return &RemoteSubmitter{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// Submit posts {entity_id} and expects {count} back.
func (r *RemoteSubmitter) Submit(ctx context.Context, s Submission) (int, error) {
	if err := s.validate(); err != nil {
		return 0, fmt.Errorf("submit %s: %w", s.Kind, err)
	}

	endpoint, err := url.JoinPath(r.baseURL, string(s.Kind)+"s")
	if err != nil {
		return 0, fmt.Errorf("submit %s: build url: %w", s.Kind, err)
	}

	var resp submitResponse
	if err := httpclient.PostJSON(ctx, r.client, endpoint, remoteServiceName, submitRequest{EntityID: s.EntityID}, &resp); err != nil {
		return 0, fmt.Errorf("submit %s for %s: %w", s.Kind, s.EntityID, err)
	}
	if resp.Count == nil {
		return 0, fmt.Errorf("submit %s for %s: response has no count", s.Kind, s.EntityID)
	}
	return *resp.Count, nil
}
