package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVs(t *testing.T) {
	out := sanitizeKVs([]interface{}{"api_key", "sk-123", "user_id", "u1", "interview_id", "i1", "dangling"})

	assert.Equal(t, "[REDACTED]", out[1])
	assert.Contains(t, out[3], "hash:")
	assert.NotEqual(t, "u1", out[3])
	assert.Equal(t, "i1", out[5])
	assert.Equal(t, "dangling", out[6])
}

func TestHashValueStable(t *testing.T) {
	assert.Equal(t, hashValue("u1"), hashValue("u1"))
	assert.Equal(t, "", hashValue(""))
}
