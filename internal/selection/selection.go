// Package selection parses user-supplied page specifications like
// "1, 3-5, 8" into validated, zero-based page indices.
package selection

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ValidationError reports a malformed or out-of-range page specification.
// The message is user-facing and names the offending token.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalidRange(token string, maxPage int) error {
	return &ValidationError{Message: fmt.Sprintf("Invalid range: %s. Pages must be between 1 and %d.", token, maxPage)}
}

func invalidPage(token string, maxPage int) error {
	return &ValidationError{Message: fmt.Sprintf("Invalid page: %s. Pages must be between 1 and %d.", token, maxPage)}
}

// Parse resolves a page specification against a document of maxPage pages.
// Tokens are comma-separated; each token is either a single one-based page
// number or an inclusive range "start-end". The result is the ascending,
// deduplicated list of zero-based indices. Empty tokens from stray commas
// are skipped; duplicates and overlapping ranges collapse silently.
func Parse(input string, maxPage int) ([]int, error) {
	seen := make(map[int]struct{})

	for _, raw := range strings.Split(input, ",") {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}
		if strings.Contains(token, "-") {
			start, end, err := parseRange(token)
			if err != nil || start > end || start < 1 || end > maxPage {
				return nil, invalidRange(token, maxPage)
			}
			for p := start; p <= end; p++ {
				seen[p-1] = struct{}{}
			}
			continue
		}
		page, err := strconv.Atoi(token)
		if err != nil || page < 1 || page > maxPage {
			return nil, invalidPage(token, maxPage)
		}
		seen[page-1] = struct{}{}
	}

	if len(seen) == 0 {
		if strings.TrimSpace(input) == "" {
			return nil, &ValidationError{Message: "No pages selected. Please enter page numbers to extract."}
		}
		return nil, &ValidationError{Message: "Please enter valid page numbers."}
	}

	indices := make([]int, 0, len(seen))
	for idx := range seen {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices, nil
}

// parseRange splits "start-end" into its two endpoints. Whitespace around
// either endpoint is tolerated; more or fewer than two parts is an error.
func parseRange(token string) (int, int, error) {
	parts := strings.Split(token, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("range must have exactly two endpoints")
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}
