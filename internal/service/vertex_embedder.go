package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// VertexEmbedder implements Embedder against the Vertex AI text-embedding
// predict endpoint. Credentials are resolved once at construction; a failed
// construction leaves the keyword extractor permanently degraded rather than
// retrying the model load per call.
type VertexEmbedder struct {
	projectID   string
	location    string
	tokenSource oauth2.TokenSource
	client      *http.Client
}

// NewVertexEmbedder resolves application default credentials and returns an
// embedder bound to the given project and location.
func NewVertexEmbedder(ctx context.Context, projectID, location string) (*VertexEmbedder, error) {
	if projectID == "" {
		return nil, fmt.Errorf("embedding model requires a project id")
	}
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return nil, fmt.Errorf("failed to get default credentials: %w", err)
	}
	return &VertexEmbedder{
		projectID:   projectID,
		location:    location,
		tokenSource: creds.TokenSource,
		client:      &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Embed returns the embedding vector for one span of text.
func (e *VertexEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	// Endpoint: https://{LOCATION}-aiplatform.googleapis.com/v1/projects/{PROJECT}/locations/{LOCATION}/publishers/google/models/{MODEL}:predict
	url := fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/text-embedding-004:predict", e.location, e.projectID, e.location)

	requestBody := map[string]interface{}{
		"instances": []map[string]interface{}{
			{"content": text},
		},
	}
	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}

	token, err := e.tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding API returned status: %d", resp.StatusCode)
	}

	var result struct {
		Predictions []struct {
			Embeddings struct {
				Values []float32 `json:"values"`
			} `json:"embeddings"`
		} `json:"predictions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(result.Predictions) == 0 {
		return nil, fmt.Errorf("embedding response contained no predictions")
	}
	return result.Predictions[0].Embeddings.Values, nil
}
