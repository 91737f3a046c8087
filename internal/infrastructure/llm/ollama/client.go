package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/document-triage/internal/core/ports"
	"github.com/kirillkom/document-triage/internal/infrastructure/resilience"
)

// Options bound one classification request against the oracle.
type Options struct {
	Model           string
	MaxTokens       int
	Temperature     float64
	MaxContentBytes int
	Timeout         time.Duration
}

// Client is the classification oracle adapter. It assembles one prompt per
// document, invokes the generate endpoint, and surfaces transport and
// status failures as classified, structured errors.
type Client struct {
	baseURL    string
	opts       Options
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL string, opts Options, executor *resilience.Executor) *Client {
	if opts.MaxContentBytes <= 0 {
		opts.MaxContentBytes = 16000
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		executor:   executor,
	}
}

func (c *Client) Classify(ctx context.Context, req ports.OracleRequest) (string, error) {
	reqBody := map[string]any{
		"model":  c.opts.Model,
		"prompt": buildClassificationPrompt(req, c.opts.MaxContentBytes),
		"stream": false,
		"format": "json",
		"options": map[string]any{
			"num_predict": c.opts.MaxTokens,
			"temperature": c.opts.Temperature,
		},
	}

	var response struct {
		Response string `json:"response"`
	}

	call := func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/generate", reqBody, &response, "classify")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "oracle.classify", call, classifyOracleError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("classify document", err)
	}
	return strings.TrimSpace(response.Response), nil
}
