package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchema(t *testing.T) {
	data, err := Schema()
	require.NoError(t, err)

	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &schema))
	require.Equal(t, "zksync node configuration", schema["title"])

	properties, ok := schema["properties"].(map[string]interface{})
	require.True(t, ok)
	for _, section := range []string{"Log", "DB", "Multivm", "Settlement", "Operator"} {
		require.Contains(t, properties, section)
	}
	require.Contains(t, string(data), `"sqlite3"`)
	require.Contains(t, string(data), `"development"`)
}
