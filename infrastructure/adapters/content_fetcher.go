package adapters

import (
	"io"
	"net/http"
	"time"

	"creative-ads-pipeline/application/ports/outbound"
	"creative-ads-pipeline/domain"
)

// ContentFetcher is the shared request/response primitive for the upstream
// adapters. A status code of 300 or above is surfaced as an UpstreamError
// carrying the status and response body; transport failures (including
// timeouts) travel the same error channel.
type ContentFetcher interface {
	FetchContent(req *http.Request, service string) ([]byte, error)
}

type contentFetcher struct {
	logger outbound.LoggerPort
	client *http.Client
}

func NewContentFetcher(logger outbound.LoggerPort, timeout time.Duration) ContentFetcher {
	return &contentFetcher{
		logger: logger,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *contentFetcher) FetchContent(req *http.Request, service string) ([]byte, error) {
	res, err := c.client.Do(req)
	if err != nil {
		c.logger.ErrorWithFields(err, "Failed to send the HTTP request", map[string]interface{}{
			"service": service,
			"method":  req.Method,
			"URL":     req.URL.String(),
		})
		return nil, &domain.UpstreamError{Service: service, Message: err.Error()}
	}

	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.ErrorWithFields(err, "Failed to close the response body", map[string]interface{}{
				"service": service,
				"URL":     req.URL.String(),
			})
		}
	}(res.Body)

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		c.logger.ErrorWithFields(err, "Failed to read the response body", map[string]interface{}{
			"service": service,
			"URL":     req.URL.String(),
		})
		return nil, &domain.UpstreamError{Service: service, Message: err.Error()}
	}

	if res.StatusCode >= 300 {
		c.logger.ErrorWithFields(nil, "HTTP request returned non-success status code", map[string]interface{}{
			"service": service,
			"method":  req.Method,
			"URL":     req.URL.String(),
			"status":  res.StatusCode,
			"message": string(payload),
		})
		return nil, &domain.UpstreamError{Service: service, StatusCode: res.StatusCode, Message: string(payload)}
	}

	return payload, nil
}
