package docs

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type operation struct {
	Description string `json:"description"`
	Responses   map[string]struct {
		Description string `json:"description"`
	} `json:"responses"`
}

func TestChatDocDescribesFailureBeforeFirstByte(t *testing.T) {
	var doc struct {
		Paths map[string]map[string]operation `json:"paths"`
	}
	require.NoError(t, sonic.UnmarshalString(SwaggerInfo.ReadDoc(), &doc))

	post, ok := doc.Paths["/chat"]["post"]
	require.True(t, ok)
	assert.Contains(t, post.Description, "[Error occurred during generation]")
	assert.Contains(t, post.Description, "before the first byte returns 500")
	assert.Contains(t, post.Responses["500"].Description, "before the first byte")
}
