package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/json-iterator/go/extra"

	"kiosk/internal/apperr"
	"kiosk/internal/config"
	"kiosk/internal/dto"
	"kiosk/internal/logger"
)

// Client is the terminal's view of the central verification server.
// Every call returns ok plus a payload; failures carry a short Error string
// instead of a Go error so screens can render them directly.
type Client interface {
	VerifyFace(ctx context.Context, cedula string, flow dto.FlowType, image []byte) (bool, dto.VerifyResult)
	CheckPendingRegistrations(ctx context.Context) (bool, dto.PendingRegistrations)
	ConfirmRegistration(ctx context.Context, req dto.ConfirmRequest) (bool, dto.ConfirmResult)
}

const serverErrorMessage = "Error del servidor"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var fuzzyOnce sync.Once

// HTTPClient talks to the server over HTTP with an API key header.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	terminalID string
	http       *http.Client
	validate   *validator.Validate
	logger     *logger.Logger
}

// NewHTTPClient creates a client with the configured bounded timeout.
func NewHTTPClient(config *config.Config, logger *logger.Logger) *HTTPClient {
	fuzzyOnce.Do(extra.RegisterFuzzyDecoders)

	return &HTTPClient{
		baseURL:    strings.TrimRight(config.APIURL, "/"),
		apiKey:     config.APIKey,
		terminalID: config.TerminalID,
		http:       &http.Client{Timeout: config.APITimeout},
		validate:   validator.New(),
		logger:     logger,
	}
}

// TerminalID returns the identifier sent with every request.
func (c *HTTPClient) TerminalID() string {
	return c.terminalID
}

// VerifyFace uploads a JPEG for the given cedula and flow.
func (c *HTTPClient) VerifyFace(ctx context.Context, cedula string, flow dto.FlowType, image []byte) (bool, dto.VerifyResult) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	fields := map[string]string{
		"cedula":        cedula,
		"terminal_id":   c.terminalID,
		"tipo_registro": string(flow),
	}
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			return false, dto.VerifyResult{Error: unexpected(err)}
		}
	}

	part, err := form.CreateFormFile("image", "image.jpg")
	if err != nil {
		return false, dto.VerifyResult{Error: unexpected(err)}
	}
	if _, err := part.Write(image); err != nil {
		return false, dto.VerifyResult{Error: unexpected(err)}
	}
	if err := form.Close(); err != nil {
		return false, dto.VerifyResult{Error: unexpected(err)}
	}

	var result dto.VerifyResult
	if msg := c.do(ctx, http.MethodPost, "/verify-terminal", nil, &body, form.FormDataContentType(), &result); msg != "" {
		return false, dto.VerifyResult{Error: msg}
	}
	return true, result
}

// CheckPendingRegistrations lists enrollments waiting for this terminal.
func (c *HTTPClient) CheckPendingRegistrations(ctx context.Context) (bool, dto.PendingRegistrations) {
	query := url.Values{"terminal_id": {c.terminalID}}

	var result dto.PendingRegistrations
	if msg := c.do(ctx, http.MethodGet, "/pending-registrations", query, nil, "", &result); msg != "" {
		return false, dto.PendingRegistrations{Error: msg}
	}

	valid := result.Registrations[:0]
	for _, reg := range result.Registrations {
		if err := c.validate.Struct(reg); err != nil {
			c.logger.Warning("Skipping malformed pending registration %q: %v", reg.ID, err)
			continue
		}
		valid = append(valid, reg)
	}
	result.Registrations = valid
	return true, result
}

// ConfirmRegistration reports an enrollment outcome.
func (c *HTTPClient) ConfirmRegistration(ctx context.Context, req dto.ConfirmRequest) (bool, dto.ConfirmResult) {
	if req.TerminalID == "" {
		req.TerminalID = c.terminalID
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return false, dto.ConfirmResult{Error: unexpected(err)}
	}

	var result dto.ConfirmResult
	if msg := c.do(ctx, http.MethodPost, "/confirm-registration", nil, bytes.NewReader(payload), "application/json", &result); msg != "" {
		return false, dto.ConfirmResult{Error: msg}
	}
	return true, result
}

// do performs one round-trip and decodes a 200 body into out. It returns a
// user-facing error message, or "" on success.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out interface{}) string {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return unexpected(err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warning("%s %s: %v", method, path, fmt.Errorf("%w: %v", apperr.ErrTransportFailure, err))
		return fmt.Sprintf("Error de conexión: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("Error de conexión: %v", err)
	}

	c.logger.Info("%s %s -> %d (%s)", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode != http.StatusOK {
		var detail struct {
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(data, &detail); err == nil && detail.Detail != "" {
			c.logger.Warning("%s %s: %v", method, path, fmt.Errorf("%w: %s", apperr.ErrTransportFailure, detail.Detail))
			return detail.Detail
		}
		return serverErrorMessage
	}

	if err := json.Unmarshal(data, out); err != nil {
		return unexpected(err)
	}
	return ""
}

func unexpected(err error) string {
	return fmt.Sprintf("Error inesperado: %v", err)
}
