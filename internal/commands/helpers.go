package commands

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ppiankov/baselinespectre/internal/compat"
)

// enhanceError wraps an error with context and suggestions for common issues.
func enhanceError(action string, err error) error {
	msg := err.Error()

	var hint string
	var discoveryErr *compat.DiscoveryError
	switch {
	case errors.As(err, &discoveryErr):
		hint = "Check the glob syntax; quote patterns so the shell does not expand them, e.g. 'src/**/*.js'"
	case errors.Is(err, compat.ErrInvalidBaselineYear):
		hint = fmt.Sprintf("Use a --baseline-year of %d or later", compat.MinBaselineYear)
	case strings.Contains(msg, "features file") || strings.Contains(msg, "feature data"):
		hint = "Check --features-file points to a valid feature catalog, or omit it to use the builtin one"
	case strings.Contains(msg, "NoCredentialProviders") || strings.Contains(msg, "failed to retrieve credentials"):
		hint = "Configure AWS credentials: set AWS_PROFILE, AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY, or run 'aws configure'"
	case strings.Contains(msg, "ExpiredToken"):
		hint = "AWS session token expired. Refresh credentials or run 'aws sso login'"
	case strings.Contains(msg, "AccessDenied"):
		hint = "Insufficient permissions. The uploading role needs s3:PutObject on the destination"
	case strings.Contains(msg, "NoSuchBucket"):
		hint = "The destination bucket does not exist. Check the --upload URI"
	case strings.Contains(msg, "RequestExpired"):
		hint = "Request expired. Check system clock synchronization"
	}

	if hint != "" {
		return fmt.Errorf("%s: %w\n  hint: %s", action, err, hint)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// computeTargetHash generates a SHA256 hash identifying the scanned file set.
func computeTargetHash(patterns []string, baselineYear int) string {
	sorted := slices.Clone(patterns)
	slices.Sort(sorted)
	input := fmt.Sprintf("patterns:%s,year:%d", strings.Join(sorted, ","), baselineYear)
	h := sha256.Sum256([]byte(input))
	return fmt.Sprintf("sha256:%x", h)
}

// splitPatterns flattens space-separated pattern lists, the form CI inputs
// usually arrive in.
func splitPatterns(lists ...[]string) []string {
	var out []string
	for _, list := range lists {
		for _, entry := range list {
			out = append(out, strings.Fields(entry)...)
		}
	}
	return out
}
