package skiplist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker decides whether a sender's domain is excluded from labeling
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new skip list checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		domain = strings.TrimPrefix(domain, "@")
		if domain != "" {
			normalized = append(normalized, domain)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized skip list", zap.Strings("domains", normalized))
	}

	return &Checker{
		domains: normalized,
		logger:  logger,
	}
}

// IsSkipped reports whether the address's domain, or a parent domain, is listed
func (c *Checker) IsSkipped(address string) bool {
	if c == nil || len(c.domains) == 0 {
		return false
	}

	at := strings.LastIndex(address, "@")
	if at < 0 {
		return false
	}
	domain := strings.ToLower(strings.TrimSpace(address[at+1:]))
	if domain == "" {
		return false
	}

	for _, skipped := range c.domains {
		if domain == skipped || strings.HasSuffix(domain, "."+skipped) {
			if c.logger != nil {
				c.logger.Debug("Sender domain is on the skip list",
					zap.String("domain", domain),
					zap.String("email", address))
			}
			return true
		}
	}

	return false
}

// Domains returns the normalized domain list
func (c *Checker) Domains() []string {
	out := make([]string, len(c.domains))
	copy(out, c.domains)
	return out
}
