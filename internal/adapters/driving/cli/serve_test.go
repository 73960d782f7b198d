package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServeCmd_RequiresSearchService(t *testing.T) {
	defer setupResourceTest()()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"serve", "--port", "0"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "search service is required")
}

func TestServeCmd_Use(t *testing.T) {
	assert.Equal(t, "serve", serveCmd.Use)
}
