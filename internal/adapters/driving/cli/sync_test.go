package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

func TestSyncCmd_Use(t *testing.T) {
	assert.Equal(t, "sync [resource-id]", syncCmd.Use)
}

func TestSyncCmd_ServiceNotConfigured(t *testing.T) {
	defer setupResourceTest()()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"sync"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler not configured")
}

func TestSyncCmd_SingleResource(t *testing.T) {
	defer setupResourceTest()()
	mockSched := &mockScheduler{}
	scheduler = mockSched

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"sync", "r-1"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Equal(t, []string{"r-1"}, mockSched.ensured)
	assert.Contains(t, buf.String(), "Queued sync for resource r-1.")
}

func TestSyncCmd_AllResources(t *testing.T) {
	defer setupResourceTest()()
	mockSched := &mockScheduler{}
	scheduler = mockSched
	resourceService = &mockResourceService{
		resources: []domain.Resource{{ID: "r-1"}, {ID: "r-2"}},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"sync"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Equal(t, []string{"r-1", "r-2"}, mockSched.ensured)
	assert.Contains(t, buf.String(), "Queued sync for 2 resources.")
}

func TestSyncCmd_SingleResourceError(t *testing.T) {
	defer setupResourceTest()()
	scheduler = &mockScheduler{err: errors.New("store unavailable")}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"sync", "r-1"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store unavailable")
}

func TestSyncCmd_AllResourcesRequiresResourceService(t *testing.T) {
	defer setupResourceTest()()
	scheduler = &mockScheduler{}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"sync"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "resource service not configured")
}
