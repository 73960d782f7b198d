package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

func TestSearchCmd_ServiceNotConfigured(t *testing.T) {
	defer setupResourceTest()()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"search", "widgets"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "search service not configured")
}

func TestSearchCmd_TableOutput(t *testing.T) {
	defer setupResourceTest()()
	searchService = &mockSearchService{
		results: []domain.SearchResult{
			{
				ResourceID: "r-1", ResourceName: "widgets",
				Filepath: "main.go", LineStart: 10, LineEnd: 20,
				Text: "func main() {}", Score: 0.91, MatchType: domain.MatchHybrid,
			},
		},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "widgets"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "main.go:10-20")
	assert.Contains(t, buf.String(), "widgets")
}

func TestSearchCmd_NoResults(t *testing.T) {
	defer setupResourceTest()()
	searchService = &mockSearchService{}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "widgets"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "No results found.")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	defer setupResourceTest()()
	searchService = &mockSearchService{
		results: []domain.SearchResult{{Filepath: "main.go"}},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "widgets", "--json"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), `"filepath": "main.go"`)
}

func TestSearchCmd_SearchError(t *testing.T) {
	defer setupResourceTest()()
	searchService = &mockSearchService{err: errors.New("index unavailable")}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"search", "widgets"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "index unavailable")
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", truncateText("short", 10))
	assert.Equal(t, "0123456789...", truncateText("0123456789abcdef", 10))
}
