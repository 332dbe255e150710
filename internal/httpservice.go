package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const DefaultServiceURL = "http://localhost:3000"

// ServiceError is a non-2xx reply from the clustering service.
type ServiceError struct {
	Op     string
	Status int
	Body   string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: service returned status %d: %s", e.Op, e.Status, e.Body)
}

var _ ClusteringService = (*HTTPService)(nil)

// HTTPService talks JSON over HTTP to the clustering service.
type HTTPService struct {
	baseURL string
	client  *http.Client
}

func NewHTTPService(baseURL string, timeout time.Duration) *HTTPService {
	if baseURL == "" {
		baseURL = DefaultServiceURL
	}
	return &HTTPService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type initializeRequest struct {
	Method      string `json:"method"`
	NumClusters int    `json:"num_clusters"`
}

type stepRequest struct {
	Centroids   []Point `json:"centroids"`
	NumClusters int     `json:"num_clusters"`
}

type generateResponse struct {
	Data []Point `json:"data"`
}

type initializeResponse struct {
	Centroids []Point `json:"centroids"`
}

type stepResponse struct {
	NewCentroids []Point    `json:"new_centroids"`
	Clusters     ClusterMap `json:"clusters"`
	OldCentroids []Point    `json:"old_centroids,omitempty"`
}

func (s *HTTPService) Generate(ctx context.Context) ([]Point, error) {
	var resp generateResponse
	if err := s.post(ctx, "generate", nil, &resp, "data"); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (s *HTTPService) Initialize(ctx context.Context, method string, k int) ([]Point, error) {
	var resp initializeResponse
	req := initializeRequest{Method: method, NumClusters: k}
	if err := s.post(ctx, "initialize", req, &resp, "centroids"); err != nil {
		return nil, err
	}
	return resp.Centroids, nil
}

func (s *HTTPService) Step(ctx context.Context, centroids []Point, k int) (*StepResult, error) {
	if centroids == nil {
		centroids = []Point{}
	}

	var resp stepResponse
	req := stepRequest{Centroids: centroids, NumClusters: k}
	if err := s.post(ctx, "step", req, &resp, "new_centroids", "clusters"); err != nil {
		return nil, err
	}
	return &StepResult{
		Centroids:    resp.NewCentroids,
		Clusters:     resp.Clusters,
		OldCentroids: resp.OldCentroids,
	}, nil
}

func (s *HTTPService) post(ctx context.Context, op string, payload, out any, required ...string) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/"+op, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServiceError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if !gjson.ValidBytes(raw) {
		return fmt.Errorf("%s: %w: body is not valid JSON", op, ErrMalformedResponse)
	}
	for _, field := range required {
		if !gjson.GetBytes(raw, field).Exists() {
			return fmt.Errorf("%s: %w: missing field %q", op, ErrMalformedResponse, field)
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrMalformedResponse, err)
	}
	return nil
}
