package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by a Storage when nothing is stored under the key.
var ErrNotFound = errors.New("cart not found")

// Storage persists one opaque string per cart key. Set must replace the
// previous value atomically.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

const maxKeyLen = 128

// ValidateKey accepts keys made of letters, digits, '-' and '_'.
func ValidateKey(key string) error {
	if key == "" {
		return errors.New("cart key is required")
	}
	if len(key) > maxKeyLen {
		return fmt.Errorf("cart key exceeds %d characters", maxKeyLen)
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("cart key contains invalid character %q", r)
		}
	}
	return nil
}

func encodeLines(lines []LineItem) (string, error) {
	if lines == nil {
		lines = []LineItem{}
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		return "", fmt.Errorf("encoding cart: %w", err)
	}
	return string(payload), nil
}

// decodeLines parses a stored cart. Lines that cannot be valid cart entries
// are dropped; the count of dropped lines is returned.
func decodeLines(raw string) ([]LineItem, int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, 0, nil
	}
	var stored []LineItem
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, 0, fmt.Errorf("decoding cart: %w", err)
	}

	lines := make([]LineItem, 0, len(stored))
	seen := make(map[string]struct{}, len(stored))
	dropped := 0
	for _, line := range stored {
		if line.ProductID == "" || line.Quantity < 1 || line.Price.IsNegative() {
			dropped++
			continue
		}
		line.Key = LineKey(line.ProductID, line.Size)
		if _, dup := seen[line.Key]; dup {
			dropped++
			continue
		}
		seen[line.Key] = struct{}{}
		lines = append(lines, line)
	}
	return lines, dropped, nil
}
