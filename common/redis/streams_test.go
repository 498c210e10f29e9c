package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeStreamValues(t *testing.T) {
	out, err := EncodeStreamValues(map[string]interface{}{
		"s":     "text",
		"b":     []byte("raw"),
		"i":     42,
		"i64":   int64(17),
		"f":     1.5,
		"ok":    true,
		"multi": map[string]int{"a": 1},
	})
	require.NoError(t, err)

	assert.Equal(t, "text", out["s"])
	assert.Equal(t, "raw", out["b"])
	assert.Equal(t, "42", out["i"])
	assert.Equal(t, "17", out["i64"])
	assert.Equal(t, "1.5", out["f"])
	assert.Equal(t, "true", out["ok"])
	assert.Equal(t, `{"a":1}`, out["multi"])
}

func TestEncodeStreamValues_Unencodable(t *testing.T) {
	_, err := EncodeStreamValues(map[string]interface{}{"ch": make(chan int)})
	require.Error(t, err)
}
