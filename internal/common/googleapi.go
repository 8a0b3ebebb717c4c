package common

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// ClassifyAPIError marks Google API errors as retryable only for throttling and
// server-side failures. Other errors are returned unchanged.
func ClassifyAPIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", ErrRateLimit, err)
		case apiErr.Code >= http.StatusInternalServerError:
			return &RetryableError{Err: err, Retryable: true}
		default:
			return &RetryableError{Err: err, Retryable: false}
		}
	}
	return err
}
