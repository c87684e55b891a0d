// Package parser implements the client for the external resume-parsing
// service. The service receives the raw PDF and returns a structured
// document; this package maps that response into the normalized
// ResumeRecord consumed by the rest of the pipeline.
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"skilllink/internal/config"
	skilllinkErrors "skilllink/internal/errors"
	"skilllink/internal/resilience"
	"skilllink/internal/types"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Document is one uploaded resume handed to the pipeline
type Document struct {
	FileName string
	Content  []byte
}

// Client sends uploaded resumes to the parsing service
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.Breaker[*types.ResumeRecord]
	logger     *skilllinkErrors.Logger
}

// NewClient creates a parsing service client from configuration
func NewClient(cfg config.ServiceConfig, logger *skilllinkErrors.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   *cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: resilience.NewBreaker[*types.ResumeRecord]("parser", cfg.CircuitBreaker, logger),
		logger:  logger,
	}
}

// Parse uploads the document and returns the normalized resume record.
// The upload is a single multipart request; it is not retried
// automatically since re-submission is the caller's recovery path.
func (c *Client) Parse(ctx context.Context, doc Document, secret string) (types.ResumeRecord, error) {
	tracer := otel.Tracer("skilllink.parser")
	ctx, span := tracer.Start(ctx, "parser.parse_resume")
	defer span.End()
	span.SetAttributes(
		attribute.String("document.name", doc.FileName),
		attribute.Int("document.bytes", len(doc.Content)),
	)

	record, err := c.breaker.Execute(func() (*types.ResumeRecord, error) {
		return c.doParse(ctx, doc, secret)
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return types.EmptyResumeRecord(), err
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("resume.skills", len(record.Skills)),
		attribute.Int("resume.experience", len(record.Experience)),
	)
	return *record, nil
}

func (c *Client) doParse(ctx context.Context, doc Document, secret string) (*types.ResumeRecord, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", doc.FileName)
	if err != nil {
		return nil, skilllinkErrors.NewInternalError("MULTIPART_BUILD_FAILED",
			"Failed to build the parsing request body", err)
	}
	if _, err := part.Write(doc.Content); err != nil {
		return nil, skilllinkErrors.NewInternalError("MULTIPART_BUILD_FAILED",
			"Failed to write the document into the request body", err)
	}
	if err := writer.Close(); err != nil {
		return nil, skilllinkErrors.NewInternalError("MULTIPART_BUILD_FAILED",
			"Failed to finalize the parsing request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/resumes", &body)
	if err != nil {
		return nil, skilllinkErrors.NewInternalError("REQUEST_BUILD_FAILED",
			"Failed to create the parsing request", err)
	}
	req.Header.Set("Authorization", "Bearer "+secret)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, skilllinkErrors.NewTransportError(skilllinkErrors.ErrCodeUpstreamUnreach,
			"Resume parsing request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, upstreamStatusError("Resume parsing failed", resp)
	}

	var payload parsedDocument
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, skilllinkErrors.NewContractError(skilllinkErrors.ErrCodeResponseContract,
			"Parsing service returned an undecodable document", err)
	}

	record := payload.toResumeRecord()
	return &record, nil
}

// upstreamStatusError builds a transport error carrying the upstream
// status text and a bounded excerpt of the response body.
func upstreamStatusError(message string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	detail := strings.TrimSpace(string(body))

	err := skilllinkErrors.NewTransportError(skilllinkErrors.ErrCodeUpstreamStatus,
		fmt.Sprintf("%s: %s", message, resp.Status), nil).
		WithContext("status_code", resp.StatusCode)
	if detail != "" {
		err = err.WithContext("upstream_body", detail)
	}
	return err
}
