// Package client talks to a slidedeck server over HTTP. Client implements
// ports.PresentationStore and ports.ImageStore, so an editor can persist remotely.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/slidedeck/internal/logging"
	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/sony/gobreaker"
)

// ErrUnavailable is returned while the circuit breaker rejects calls.
var ErrUnavailable = errors.New("presentation service unavailable")

// StatusError is a non-2xx reply the client could not map to a domain error.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server replied %d: %s", e.Code, e.Message)
}

// Client is an HTTP client for the presentation API.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger

	breakerSettings gobreaker.Settings
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger used for breaker state changes.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithBreaker overrides the circuit breaker settings. Name, IsSuccessful and
// OnStateChange are filled in when unset.
func WithBreaker(settings gobreaker.Settings) Option {
	return func(c *Client) {
		c.breakerSettings = settings
	}
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logging.NewNop(),
		breakerSettings: gobreaker.Settings{
			MaxRequests: 5,
			Interval:    30 * time.Second,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	settings := c.breakerSettings
	if settings.Name == "" {
		settings.Name = "slidedeck-client"
	}
	if settings.IsSuccessful == nil {
		// Client errors say nothing about the health of the server.
		settings.IsSuccessful = func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < http.StatusInternalServerError
			}
			return err == nil ||
				errors.Is(err, domain.ErrPresentationNotFound) ||
				errors.Is(err, domain.ErrImageNotFound)
		}
	}
	if settings.OnStateChange == nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		}
	}
	c.breaker = gobreaker.NewCircuitBreaker(settings)
	return c
}

// State reports the circuit breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

type presentationBody struct {
	Slides domain.Slides `json:"slides"`
}

// Load implements ports.PresentationStore.
func (c *Client) Load(ctx context.Context, patientID string) (domain.Document, error) {
	var body presentationBody
	err := c.do(ctx, http.MethodGet, presentationPath(patientID), nil, &body, domain.ErrPresentationNotFound)
	if err != nil {
		return domain.Document{}, err
	}
	if body.Slides == nil {
		body.Slides = domain.Slides{}
	}
	return domain.Document{Slides: body.Slides}, nil
}

// Save implements ports.PresentationStore.
func (c *Client) Save(ctx context.Context, patientID string, doc domain.Document) error {
	slides := doc.Slides
	if slides == nil {
		slides = domain.Slides{}
	}
	return c.do(ctx, http.MethodPost, presentationPath(patientID), presentationBody{Slides: slides}, nil, nil)
}

// Delete implements ports.PresentationStore.
func (c *Client) Delete(ctx context.Context, patientID string) error {
	return c.do(ctx, http.MethodDelete, presentationPath(patientID), nil, nil, nil)
}

// List implements ports.PresentationStore.
func (c *Client) List(ctx context.Context) ([]string, error) {
	var body struct {
		Patients []string `json:"patients"`
	}
	if err := c.do(ctx, http.MethodGet, "/presentation", nil, &body, nil); err != nil {
		return nil, err
	}
	return body.Patients, nil
}

// PutImage implements ports.ImageStore.
func (c *Client) PutImage(ctx context.Context, patientID, contentType string, data []byte) (string, error) {
	req := struct {
		ContentType string `json:"contentType"`
		Data        []byte `json:"data"`
	}{contentType, data}
	var resp struct {
		Location string `json:"location"`
	}
	if err := c.do(ctx, http.MethodPost, presentationPath(patientID)+"/image", req, &resp, nil); err != nil {
		return "", err
	}
	return resp.Location, nil
}

// GetImage implements ports.ImageStore.
func (c *Client) GetImage(ctx context.Context, patientID, imageID string) (domain.Image, error) {
	res, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.send(ctx, http.MethodGet, domain.ImageLocation(patientID, imageID), nil)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if err := checkStatus(resp, domain.ErrImageNotFound); err != nil {
			return nil, err
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		return domain.Image{
			ID:          imageID,
			PatientID:   patientID,
			ContentType: resp.Header.Get("Content-Type"),
			Data:        data,
		}, nil
	})
	if err != nil {
		return domain.Image{}, c.wrap(err)
	}
	return res.(domain.Image), nil
}

// do sends a JSON request through the breaker and decodes a JSON reply into out.
// A 404 reply becomes notFound when it is set.
func (c *Client) do(ctx context.Context, method, path string, in, out any, notFound error) error {
	_, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.send(ctx, method, path, in)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if err := checkStatus(resp, notFound); err != nil {
			return nil, err
		}
		if out == nil {
			return nil, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return nil, nil
	})
	return c.wrap(err)
}

func (c *Client) send(ctx context.Context, method, path string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func (c *Client) wrap(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func checkStatus(resp *http.Response, notFound error) error {
	if resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound && notFound != nil {
		return notFound
	}
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(raw, &body) != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
	}
	return &StatusError{Code: resp.StatusCode, Message: body.Error}
}

func presentationPath(patientID string) string {
	return "/presentation/" + url.PathEscape(patientID)
}
