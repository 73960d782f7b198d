package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

var resourceCmd = &cobra.Command{
	Use:   "resource",
	Short: "Manage registered resources",
	Long:  `Register, list, inspect, and remove the git repositories and local directories ctxpack indexes.`,
}

var resourceAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Register a resource and queue a sync+index pass",
	Args:  cobra.ExactArgs(1),
	RunE:  runResourceAdd,
}

var resourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered resources",
	RunE:  runResourceList,
}

var resourceGetCmd = &cobra.Command{
	Use:   "get [resource-id]",
	Short: "Show a resource's status",
	Args:  cobra.ExactArgs(1),
	RunE:  runResourceGet,
}

var resourceRemoveCmd = &cobra.Command{
	Use:   "remove [resource-id]",
	Short: "Remove a resource and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runResourceRemove,
}

var (
	resourceAddURL     string
	resourceAddPath    string
	resourceAddBranch  string
	resourceAddScope   string
	resourceAddProject string
)

func init() {
	resourceAddCmd.Flags().StringVar(&resourceAddURL, "url", "", "git remote URL (for git resources)")
	resourceAddCmd.Flags().StringVar(&resourceAddPath, "path", "", "local directory path (for local resources)")
	resourceAddCmd.Flags().StringVar(&resourceAddBranch, "branch", "", "git branch to track")
	resourceAddCmd.Flags().StringVar(&resourceAddScope, "scope", "global", "resource scope: global or project")
	resourceAddCmd.Flags().StringVar(&resourceAddProject, "project", "", "project key (required for --scope project)")

	resourceCmd.AddCommand(resourceAddCmd)
	resourceCmd.AddCommand(resourceListCmd)
	resourceCmd.AddCommand(resourceGetCmd)
	resourceCmd.AddCommand(resourceRemoveCmd)
	rootCmd.AddCommand(resourceCmd)
}

func runResourceAdd(cmd *cobra.Command, args []string) error {
	if resourceService == nil {
		return errors.New("resource service not configured")
	}

	name := args[0]
	ctx := context.Background()

	r := &domain.Resource{
		Name:       name,
		Scope:      domain.Scope(resourceAddScope),
		ProjectKey: resourceAddProject,
	}

	switch {
	case resourceAddURL != "":
		r.Kind = domain.KindGit
		r.RemoteURL = &resourceAddURL
		if resourceAddBranch != "" {
			r.Branch = &resourceAddBranch
		}
	case resourceAddPath != "":
		r.Kind = domain.KindLocal
		r.LocalPath = &resourceAddPath
	default:
		return errors.New("one of --url or --path is required")
	}

	if err := resourceService.Create(ctx, r); err != nil {
		return fmt.Errorf("registering resource: %w", err)
	}

	cmd.Printf("Registered resource %s (%s)\n", r.ID, r.DisplayName())

	if scheduler != nil {
		if err := scheduler.Ensure(ctx, r.ID, domain.JobOverrides{}); err != nil {
			return fmt.Errorf("queuing sync: %w", err)
		}
		cmd.Println("Queued sync and index.")
	}

	return nil
}

func runResourceList(cmd *cobra.Command, _ []string) error {
	if resourceService == nil {
		return errors.New("resource service not configured")
	}

	resources, err := resourceService.List(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("listing resources: %w", err)
	}

	if len(resources) == 0 {
		cmd.Println("No registered resources.")
		return nil
	}

	for i := range resources {
		r := &resources[i]
		cmd.Printf("  %s  %-30s  content=%s  vector=%s  chunks=%d\n",
			r.ID, r.DisplayName(), r.ContentStatus, r.VectorStatus, r.ChunkCount)
	}
	return nil
}

func runResourceGet(cmd *cobra.Command, args []string) error {
	if resourceService == nil {
		return errors.New("resource service not configured")
	}

	r, err := resourceService.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("getting resource: %w", err)
	}

	cmd.Printf("Resource: %s\n", r.ID)
	cmd.Printf("  Name:          %s\n", r.DisplayName())
	cmd.Printf("  Kind:          %s\n", r.Kind)
	cmd.Printf("  Content:       %s\n", r.ContentStatus)
	cmd.Printf("  Vector:        %s\n", r.VectorStatus)
	cmd.Printf("  Chunks:        %d\n", r.ChunkCount)
	if r.UpdateAvailable {
		cmd.Println("  Update available: yes")
	}
	if r.ContentError != nil {
		cmd.Printf("  Content error: %s\n", *r.ContentError)
	}
	if r.VectorError != nil {
		cmd.Printf("  Vector error:  %s\n", *r.VectorError)
	}
	return nil
}

func runResourceRemove(cmd *cobra.Command, args []string) error {
	if resourceService == nil {
		return errors.New("resource service not configured")
	}

	id := args[0]
	if err := resourceService.Delete(context.Background(), id); err != nil {
		return fmt.Errorf("removing resource: %w", err)
	}

	cmd.Printf("Removed resource: %s\n", id)
	return nil
}
