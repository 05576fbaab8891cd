// This file implements the alternative embedding-based judge spec.md
// §4.7 permits: instead of asking a chat model yes/no, embed both sides
// and compare cosine similarity against a threshold. Grounded on
// other_examples' WingThing embedding experiment's embed()/cosine() pair -
// same OpenAI /v1/embeddings request shape, same normalized dot-product
// similarity - adapted into the Judge interface and given a small
// in-memory cache, since the same entity description is frequently
// embedded many times across one query session.
package noetic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
)

// EmbeddingJudge is a Judge backed by an embeddings endpoint and cosine
// similarity, rather than a chat model's yes/no judgment.
type EmbeddingJudge struct {
	client    *retryablehttp.Client
	endpoint  string
	model     string
	dims      int
	threshold float64

	mu    sync.Mutex
	cache map[string][]float64
}

// EmbeddingJudgeOption configures an EmbeddingJudge at construction.
type EmbeddingJudgeOption func(*EmbeddingJudge)

// WithEmbeddingEndpoint overrides the default endpoint
// (http://localhost:9090/v1/embeddings).
func WithEmbeddingEndpoint(url string) EmbeddingJudgeOption {
	return func(j *EmbeddingJudge) { j.endpoint = url }
}

// WithEmbeddingModel sets the embedding model name.
func WithEmbeddingModel(model string) EmbeddingJudgeOption {
	return func(j *EmbeddingJudge) { j.model = model }
}

// WithEmbeddingDimensions sets the requested vector dimensionality.
func WithEmbeddingDimensions(n int) EmbeddingJudgeOption {
	return func(j *EmbeddingJudge) { j.dims = n }
}

// WithEmbeddingThreshold sets the minimum cosine similarity treated as a
// match across all five Judge methods.
func WithEmbeddingThreshold(t float64) EmbeddingJudgeOption {
	return func(j *EmbeddingJudge) { j.threshold = t }
}

// NewEmbeddingJudge creates an EmbeddingJudge.
func NewEmbeddingJudge(opts ...EmbeddingJudgeOption) *EmbeddingJudge {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil

	j := &EmbeddingJudge{
		client:    client,
		endpoint:  "http://localhost:9090/v1/embeddings",
		model:     "text-embedding-3-small",
		dims:      256,
		threshold: 0.7,
		cache:     make(map[string][]float64),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (j *EmbeddingJudge) embed(ctx context.Context, text string) ([]float64, error) {
	j.mu.Lock()
	if v, ok := j.cache[text]; ok {
		j.mu.Unlock()
		return v, nil
	}
	j.mu.Unlock()

	reqBody := embeddingRequest{Model: j.model, Input: []string{text}, Dimensions: j.dims}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &JudgeFailure{Operation: "embed", Err: err}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, j.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &JudgeFailure{Operation: "embed", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, &JudgeFailure{Operation: "embed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &JudgeFailure{Operation: "embed", Err: fmt.Errorf("embeddings endpoint returned %d: %s", resp.StatusCode, string(body))}
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &JudgeFailure{Operation: "embed", Err: err}
	}
	if len(parsed.Data) == 0 {
		return nil, &JudgeFailure{Operation: "embed", Err: fmt.Errorf("embeddings endpoint returned no vectors")}
	}

	vec := parsed.Data[0].Embedding
	j.mu.Lock()
	j.cache[text] = vec
	j.mu.Unlock()
	return vec, nil
}

func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func (j *EmbeddingJudge) similarity(ctx context.Context, a, b string) (float64, error) {
	va, err := j.embed(ctx, a)
	if err != nil {
		return 0, err
	}
	vb, err := j.embed(ctx, b)
	if err != nil {
		return 0, err
	}
	return cosine(va, vb), nil
}

func (j *EmbeddingJudge) ConceptualMatch(ctx context.Context, subject, reference string) (bool, error) {
	sim, err := j.similarity(ctx, subject, reference)
	if err != nil {
		return false, err
	}
	return sim >= j.threshold, nil
}

func (j *EmbeddingJudge) HasAttribute(ctx context.Context, attr, subject string) (bool, error) {
	sim, err := j.similarity(ctx, attr, subject)
	if err != nil {
		return false, err
	}
	return sim >= j.threshold, nil
}

func (j *EmbeddingJudge) SharesAttribute(ctx context.Context, attr, subjectA, subjectB string) (bool, error) {
	a, err := j.HasAttribute(ctx, attr, subjectA)
	if err != nil || !a {
		return false, err
	}
	return j.HasAttribute(ctx, attr, subjectB)
}

// Differentiate has no natural embedding-based answer - cosine similarity
// yields a score, not a description - so it reports the two subjects'
// labels separated by "vs." when they're dissimilar, and an empty string
// (meaning "no distinguishing answer") when they're not.
func (j *EmbeddingJudge) Differentiate(ctx context.Context, subjectA, subjectB string) (string, error) {
	sim, err := j.similarity(ctx, subjectA, subjectB)
	if err != nil {
		return "", err
	}
	if sim >= j.threshold {
		return "", nil
	}
	return strings.TrimSpace(subjectA) + " vs. " + strings.TrimSpace(subjectB), nil
}

func (j *EmbeddingJudge) SimilarAlong(ctx context.Context, axis, subjectA, subjectB string) (bool, error) {
	sim, err := j.similarity(ctx, subjectA+" with respect to "+axis, subjectB+" with respect to "+axis)
	if err != nil {
		return false, err
	}
	return sim >= j.threshold, nil
}
