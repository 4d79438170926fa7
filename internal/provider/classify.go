package provider

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/atlantislabs/atlantis/internal/domain"
)

// Transient error markers observed in vendor error bodies that do not carry
// a usable status code.
var transientTokens = []string{
	"insufficient_quota",
	"429",
	"rate limit",
	"connection",
	"refused",
	"unavailable",
	"timeout",
}

// Classify maps a vendor error to the domain taxonomy: transient outages
// become PROVIDER_UNAVAILABLE (callers degrade gracefully), credential
// problems become PROVIDER_CONFIG (fatal, never retried), everything else
// becomes PROVIDER_ERROR.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return err
	}

	if status, ok := statusCode(err); ok {
		return classifyStatus(status, err)
	}

	if isTransient(err) {
		return domain.NewDomainErrorWithCause(domain.ErrCodeProviderUnavailable, "provider temporarily unavailable", err)
	}

	return domain.NewDomainErrorWithCause(domain.ErrCodeProviderError, "provider request failed", err)
}

func statusCode(err error) (int, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, true
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode, true
	}

	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return genaiErr.Code, true
	}

	return 0, false
}

func classifyStatus(status int, err error) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.NewDomainErrorWithCause(domain.ErrCodeProviderConfig, "provider rejected credentials", err)
	case status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500:
		return domain.NewDomainErrorWithCause(domain.ErrCodeProviderUnavailable, "provider temporarily unavailable", err)
	default:
		return domain.NewDomainErrorWithCause(domain.ErrCodeProviderError, "provider request failed", err)
	}
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	text := strings.ToLower(err.Error())
	for _, token := range transientTokens {
		if strings.Contains(text, token) {
			return true
		}
	}
	return false
}
