package store

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ID prefixes per collection.
const (
	PrefixUser        = "u_"
	PrefixEvent       = "e_"
	PrefixJoinRequest = "r_"
)

const idSuffixLen = 8

// NewID returns prefix followed by the base36 millisecond timestamp of now
// and a random suffix.
func NewID(prefix string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + strconv.FormatInt(now.UnixMilli(), 36) + suffix[:idSuffixLen]
}
