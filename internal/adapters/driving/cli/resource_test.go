package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

func setupResourceTest() func() {
	reset := func() {
		resetServices()
		resourceAddURL, resourceAddPath, resourceAddBranch = "", "", ""
	}
	reset()
	return reset
}

func TestResourceAddCmd_RequiresURLOrPath(t *testing.T) {
	defer setupResourceTest()()
	resourceService = &mockResourceService{}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"resource", "add", "myrepo"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "one of --url or --path is required")
}

func TestResourceAddCmd_GitResourceQueuesSyncAndIndex(t *testing.T) {
	defer setupResourceTest()()
	mockRes := &mockResourceService{}
	mockSched := &mockScheduler{}
	resourceService = mockRes
	scheduler = mockSched

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"resource", "add", "myrepo", "--url", "https://github.com/acme/widgets"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Len(t, mockRes.created, 1)
	assert.Equal(t, domain.KindGit, mockRes.created[0].Kind)
	assert.Equal(t, []string{"resource-1"}, mockSched.ensured)
	assert.Contains(t, buf.String(), "Registered resource")
	assert.Contains(t, buf.String(), "Queued sync and index.")
}

func TestResourceAddCmd_LocalResource(t *testing.T) {
	defer setupResourceTest()()
	mockRes := &mockResourceService{}
	resourceService = mockRes

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"resource", "add", "notes", "--path", "/home/user/notes"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Len(t, mockRes.created, 1)
	assert.Equal(t, domain.KindLocal, mockRes.created[0].Kind)
}

func TestResourceAddCmd_ServiceNotConfigured(t *testing.T) {
	defer setupResourceTest()()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"resource", "add", "myrepo", "--url", "https://github.com/acme/widgets"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "resource service not configured")
}

func TestResourceAddCmd_CreateError(t *testing.T) {
	defer setupResourceTest()()
	resourceService = &mockResourceService{err: errors.New("duplicate name")}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"resource", "add", "myrepo", "--url", "https://github.com/acme/widgets"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate name")
}

func TestResourceListCmd_NoResources(t *testing.T) {
	defer setupResourceTest()()
	resourceService = &mockResourceService{}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"resource", "list"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "No registered resources.")
}

func TestResourceListCmd_PrintsResources(t *testing.T) {
	defer setupResourceTest()()
	resourceService = &mockResourceService{
		resources: []domain.Resource{
			{ID: "r-1", Name: "widgets", ContentStatus: domain.ContentReady, VectorStatus: domain.VectorReady, ChunkCount: 42},
		},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"resource", "list"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "r-1")
	assert.Contains(t, buf.String(), "widgets")
}

func TestResourceGetCmd_PrintsStatus(t *testing.T) {
	defer setupResourceTest()()
	contentErr := "clone failed"
	resourceService = &mockResourceService{
		resource: &domain.Resource{
			ID: "r-1", Name: "widgets", Kind: domain.KindGit,
			ContentStatus: domain.ContentFailed, ContentError: &contentErr,
		},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"resource", "get", "r-1"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Resource: r-1")
	assert.Contains(t, buf.String(), "clone failed")
}

func TestResourceRemoveCmd_RemovesResource(t *testing.T) {
	defer setupResourceTest()()
	mockRes := &mockResourceService{}
	resourceService = mockRes

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"resource", "remove", "r-1"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Equal(t, []string{"r-1"}, mockRes.deleted)
	assert.Contains(t, buf.String(), "Removed resource: r-1")
}
