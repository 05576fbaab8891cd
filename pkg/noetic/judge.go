// This file implements the judge client: the HTTP boundary between the
// resolution engine and an external LLM judge, reached over an
// OpenAI-compatible chat-completions endpoint. The request construction
// mirrors other_examples' embedding helper's plain net/http+encoding/json
// style, but the transport itself is gokanlogic's dependency-free stance
// abandoned deliberately in favor of hashicorp/go-retryablehttp, the
// retrying HTTP client the rest of the pack (hashicorp-nomad and friends)
// reaches for whenever a call crosses a network boundary that might
// transiently fail - exactly the case here, since the driver keeps running
// across many judge calls in one session.
package noetic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
)

// Judge answers the five semantic questions the language's builtins and
// SemanticMatch goal pose: conceptual identity, attribute possession,
// shared attribute, differentia, and similarity-along-an-axis. Every
// method maps a network failure, non-2xx response, or malformed response
// body to a *JudgeFailure rather than a zero-value success, so the engine
// (not the client) decides that failure means goal failure (spec §4.7).
type Judge interface {
	// ConceptualMatch reports whether subject and reference describe the
	// same concept - the backing call for L =~= R.
	ConceptualMatch(ctx context.Context, subject, reference string) (bool, error)

	// HasAttribute reports whether subject possesses characteristic attr.
	HasAttribute(ctx context.Context, attr, subject string) (bool, error)

	// SharesAttribute reports whether both subjects possess characteristic
	// attr.
	SharesAttribute(ctx context.Context, attr, subjectA, subjectB string) (bool, error)

	// Differentiate answers what distinguishes subjectA from subjectB; an
	// empty result means the judge had nothing to offer.
	Differentiate(ctx context.Context, subjectA, subjectB string) (string, error)

	// SimilarAlong reports whether subjectA and subjectB are alike along
	// axis, at or above the judge's configured threshold.
	SimilarAlong(ctx context.Context, axis, subjectA, subjectB string) (bool, error)
}

// HTTPJudge is a Judge backed by a chat-completions endpoint. It is the
// default judge the CLI host wires up.
type HTTPJudge struct {
	client    *retryablehttp.Client
	endpoint  string
	model     string
	threshold float64
}

// HTTPJudgeOption configures an HTTPJudge at construction.
type HTTPJudgeOption func(*HTTPJudge)

// WithEndpoint overrides the default judge endpoint
// (http://localhost:9090/v1/chat/completions).
func WithEndpoint(url string) HTTPJudgeOption { return func(j *HTTPJudge) { j.endpoint = url } }

// WithModel sets the model name sent in each request.
func WithModel(model string) HTTPJudgeOption { return func(j *HTTPJudge) { j.model = model } }

// WithThreshold sets the minimum score similar_attr/3 treats as a match.
func WithThreshold(t float64) HTTPJudgeOption { return func(j *HTTPJudge) { j.threshold = t } }

// NewHTTPJudge creates an HTTPJudge with retryablehttp's default backoff
// policy (exponential, capped retries on connection errors and 5xx
// responses).
func NewHTTPJudge(opts ...HTTPJudgeOption) *HTTPJudge {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil // retryablehttp's own request/retry logging is switched off

	j := &HTTPJudge{
		client:    client,
		endpoint:  "http://localhost:9090/v1/chat/completions",
		model:     "gpt-4o-mini",
		threshold: 0.7,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat json.RawMessage `json:"response_format"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// similarityResponseFormat and friends pin the chat completion's output to
// a strict JSON schema per spec §4.7, one per shape the five judge
// operations return: a [0,1] similarity score, a boolean result, or a
// string result. Sending the schema up front means the client never has
// to scrape a yes/no sentence out of free text.
var (
	similarityResponseFormat = json.RawMessage(`{"type":"json_schema","json_schema":{"name":"similarity","strict":true,"schema":{"type":"object","properties":{"similarity":{"type":"number"}},"required":["similarity"],"additionalProperties":false}}}`)
	boolResponseFormat       = json.RawMessage(`{"type":"json_schema","json_schema":{"name":"result","strict":true,"schema":{"type":"object","properties":{"result":{"type":"boolean"}},"required":["result"],"additionalProperties":false}}}`)
	stringResponseFormat     = json.RawMessage(`{"type":"json_schema","json_schema":{"name":"result","strict":true,"schema":{"type":"object","properties":{"result":{"type":"string"}},"required":["result"],"additionalProperties":false}}}`)
)

// ask sends a single-turn chat completion pinned to format and returns the
// trimmed JSON content of the first choice. Any failure - network, status,
// decode - is wrapped as a *JudgeFailure.
func (j *HTTPJudge) ask(ctx context.Context, operation, prompt string, format json.RawMessage) (string, error) {
	reqBody := chatCompletionRequest{
		Model:       j.model,
		Temperature: 0,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a precise semantic judge. Answer only in the pinned JSON shape, with no extra commentary."},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: format,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", &JudgeFailure{Operation: operation, Err: err}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, j.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &JudgeFailure{Operation: operation, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return "", &JudgeFailure{Operation: operation, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", &JudgeFailure{Operation: operation, Err: fmt.Errorf("judge returned %d: %s", resp.StatusCode, string(body))}
	}

	var parsed chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &JudgeFailure{Operation: operation, Err: err}
	}
	if len(parsed.Choices) == 0 {
		return "", &JudgeFailure{Operation: operation, Err: fmt.Errorf("judge returned no choices")}
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func (j *HTTPJudge) askSimilarity(ctx context.Context, operation, prompt string) (float64, error) {
	content, err := j.ask(ctx, operation, prompt, similarityResponseFormat)
	if err != nil {
		return 0, err
	}
	var body struct {
		Similarity float64 `json:"similarity"`
	}
	if err := json.Unmarshal([]byte(content), &body); err != nil {
		return 0, nil // spec §4.7: malformed response degrades to a score of 0, not an error
	}
	if body.Similarity < 0 {
		return 0, nil
	}
	if body.Similarity > 1 {
		return 1, nil
	}
	return body.Similarity, nil
}

func (j *HTTPJudge) askBool(ctx context.Context, operation, prompt string) (bool, error) {
	content, err := j.ask(ctx, operation, prompt, boolResponseFormat)
	if err != nil {
		return false, err
	}
	var body struct {
		Result bool `json:"result"`
	}
	if err := json.Unmarshal([]byte(content), &body); err != nil {
		return false, nil // spec §4.7: malformed response degrades to false, not an error
	}
	return body.Result, nil
}

func (j *HTTPJudge) askString(ctx context.Context, operation, prompt string) (string, error) {
	content, err := j.ask(ctx, operation, prompt, stringResponseFormat)
	if err != nil {
		return "", err
	}
	var body struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal([]byte(content), &body); err != nil {
		return "", nil // spec §4.7: malformed response degrades to empty, not an error
	}
	return body.Result, nil
}

func (j *HTTPJudge) ConceptualMatch(ctx context.Context, subject, reference string) (bool, error) {
	prompt := fmt.Sprintf("Does %q describe the same concept as %q? Report your confidence as a similarity between 0 and 1.", subject, reference)
	score, err := j.askSimilarity(ctx, "=~=", prompt)
	if err != nil {
		return false, err
	}
	return score >= j.threshold, nil
}

func (j *HTTPJudge) HasAttribute(ctx context.Context, attr, subject string) (bool, error) {
	prompt := fmt.Sprintf("Does %q possess the characteristic %q?", subject, attr)
	return j.askBool(ctx, "has_attr", prompt)
}

func (j *HTTPJudge) SharesAttribute(ctx context.Context, attr, subjectA, subjectB string) (bool, error) {
	prompt := fmt.Sprintf("Do both %q and %q possess the characteristic %q?", subjectA, subjectB, attr)
	return j.askBool(ctx, "share_attr", prompt)
}

func (j *HTTPJudge) Differentiate(ctx context.Context, subjectA, subjectB string) (string, error) {
	prompt := fmt.Sprintf("In one short phrase, what distinguishes %q from %q?", subjectA, subjectB)
	return j.askString(ctx, "differentia", prompt)
}

func (j *HTTPJudge) SimilarAlong(ctx context.Context, axis, subjectA, subjectB string) (bool, error) {
	prompt := fmt.Sprintf("On a scale from 0 (not at all alike) to 1 (identical), how alike are %q and %q with respect to %q?", subjectA, subjectB, axis)
	score, err := j.askSimilarity(ctx, "similar_attr", prompt)
	if err != nil {
		return false, err
	}
	return score >= j.threshold, nil
}

// describeTerm renders a term the way the judge should see it: ground
// strings and atoms pass through bare, everything else falls back to
// surface syntax via the term's String method.
func describeTerm(t Term, fr FieldResolver) string {
	switch v := t.(type) {
	case *String:
		return v.Value
	case *Atom:
		return v.Value
	default:
		return t.String()
	}
}

// judgeTimeout bounds a single judge call per spec §5's cancellation note:
// timeouts are per-request, never global.
const judgeTimeout = 30 * time.Second
