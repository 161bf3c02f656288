// Package central implements the CodeVerifier domain interface as an HTTP
// client for the central identity app, used by satellite deployments.
package central

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"passport/config"
	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/service"
)

const verifyPath = "/v1/auth/verify"

// client calls POST {baseURL}/v1/auth/verify with a bounded deadline.
type client struct {
	baseURL string
	http    *http.Client
}

// NewClient is the constructor for the central verification client.
func NewClient(cfg *config.Config) (service.CodeVerifier, error) {
	if cfg.Central == nil || cfg.Central.BaseURL == "" {
		return nil, errors.New("central.baseUrl must be provided")
	}

	return &client{
		baseURL: strings.TrimSuffix(cfg.Central.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Central.VerifyTimeout},
	}, nil
}

type verifyRequest struct {
	App       string `json:"app"`
	Code      string `json:"code"`
	Signature string `json:"signature"`
}

// upstreamErrorBody is the error envelope of the central app. Decoded
// defensively: an unparseable body falls back to a generic message.
type upstreamErrorBody struct {
	Message string   `json:"message"`
	Details []string `json:"details"`
}

// Verify redeems the code against the central app. The central app's 404 and
// 403 answers map onto the same domain errors a local verification would
// produce; any other failure is surfaced as an upstream error carrying the
// original status and message.
func (c *client) Verify(ctx context.Context, app, code, signature string) (entity.Identity, error) {
	body, err := json.Marshal(verifyRequest{App: app, Code: code, Signature: signature})
	if err != nil {
		return entity.Identity{}, errors.Wrap(err, "failed to encode verify request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+verifyPath, bytes.NewReader(body))
	if err != nil {
		return entity.Identity{}, errors.Wrap(err, "failed to build verify request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return entity.Identity{}, errors.Wrap(err, "central verification call failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return entity.Identity{}, c.decodeError(resp)
	}

	var identity entity.Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return entity.Identity{}, errors.Wrap(err, "failed to decode verify response")
	}

	return identity, nil
}

func (c *client) decodeError(resp *http.Response) error {
	var body upstreamErrorBody
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if readErr == nil {
		// Best effort; an empty struct is an acceptable outcome.
		_ = json.Unmarshal(raw, &body)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return domainerrors.ErrAuthCodeNotFound.WrapMessage("central verification returned not found")
	case http.StatusForbidden:
		return domainerrors.ErrInvalidCodeSignature.WrapMessage("central verification rejected signature")
	default:
		return domainerrors.NewUpstreamError(resp.StatusCode, body.Message, strings.Join(body.Details, "; "))
	}
}
