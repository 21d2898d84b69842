package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/aws/smithy-go"
	"github.com/go-resty/resty/v2"
)

// s3 error codes that mean the request will never succeed with the current
// credentials.
var unauthorizedCodes = map[string]struct{}{
	"AccessDenied":          {},
	"InvalidAccessKeyId":    {},
	"SignatureDoesNotMatch": {},
	"ExpiredToken":          {},
	"InvalidToken":          {},
	"AllAccessDisabled":     {},
}

var transientCodes = map[string]struct{}{
	"SlowDown":           {},
	"RequestTimeout":     {},
	"ServiceUnavailable": {},
	"InternalError":      {},
}

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(resp.StatusCode())
	}

	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, body)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, body)
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return fmt.Errorf("%w: http %d: %s", ErrTransient, resp.StatusCode(), body)
	}

	if resp.StatusCode() >= http.StatusInternalServerError {
		return fmt.Errorf("%w: http %d: %s", ErrTransient, resp.StatusCode(), body)
	}
	return fmt.Errorf("%w: http %d: %s", ErrObjectStorage, resp.StatusCode(), body)
}

// mapTransportError classifies an error returned before any response was
// received, or returned by the AWS SDK.
func mapTransportError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if _, ok := unauthorizedCodes[apiErr.ErrorCode()]; ok {
			return fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		if _, ok := transientCodes[apiErr.ErrorCode()]; ok {
			return fmt.Errorf("%w: %w", ErrTransient, err)
		}
	}

	var statusErr interface{ HTTPStatusCode() int }
	if errors.As(err, &statusErr) {
		switch code := statusErr.HTTPStatusCode(); {
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return fmt.Errorf("%w: %w", ErrUnauthorized, err)
		case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %w", ErrTransient, err)
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}

	return fmt.Errorf("%w: %w", ErrObjectStorage, err)
}
