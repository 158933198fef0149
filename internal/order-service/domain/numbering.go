package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OrderNumberPrefix stands for Silk Road Merchant.
const OrderNumberPrefix = "SRM"

// MaxSequence is the largest sequence that fits the 4-digit suffix.
const MaxSequence = 9999

var ErrSequenceExhausted = errors.New("order number sequence exhausted for month")

// MonthPrefix returns the per-month namespace, e.g. "SRM2610" for October 2026.
func MonthPrefix(t time.Time) string {
	return OrderNumberPrefix + t.UTC().Format("0601")
}

// FormatOrderNumber appends the zero-padded sequence to prefix.
func FormatOrderNumber(prefix string, seq int) (string, error) {
	if seq < 1 || seq > MaxSequence {
		return "", fmt.Errorf("%w: %s sequence %d", ErrSequenceExhausted, prefix, seq)
	}
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}

// ParseSequence reads the trailing 4 digits of an order number.
func ParseSequence(number string) (int, error) {
	if len(number) < 4 {
		return 0, fmt.Errorf("order number %q too short", number)
	}
	seq, err := strconv.Atoi(number[len(number)-4:])
	if err != nil {
		return 0, fmt.Errorf("order number %q: %w", number, err)
	}
	return seq, nil
}

// NextSequence returns the sequence following last, the lexicographically
// greatest number in the namespace, or 1 when last is empty.
func NextSequence(prefix, last string) (int, error) {
	if last == "" {
		return 1, nil
	}
	if !strings.HasPrefix(last, prefix) {
		return 0, fmt.Errorf("order number %q outside namespace %s", last, prefix)
	}
	seq, err := ParseSequence(last)
	if err != nil {
		return 0, err
	}
	return seq + 1, nil
}
