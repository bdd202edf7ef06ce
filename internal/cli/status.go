package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the Odysseus containers",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.log.Sync() //nolint:errcheck

		containers, err := d.docker.ContainerList(cmd.Context(), container.ListOptions{
			All:     true,
			Filters: filters.NewArgs(filters.Arg("name", "odysseus_")),
		})
		if err != nil {
			return fmt.Errorf("failed to list containers: %w", err)
		}
		if len(containers) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no odysseus containers found, run: odyctl setup")
			return nil
		}

		sort.Slice(containers, func(i, j int) bool {
			return containerName(containers[i].Names) < containerName(containers[j].Names)
		})

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"CONTAINER", "STATE", "STATUS", "PORTS"})
		running := 0
		for _, c := range containers {
			marker := "❌"
			if c.State == "running" {
				marker = "✅"
				running++
			}
			var ports []string
			for _, p := range c.Ports {
				if p.PublicPort == 0 {
					continue
				}
				ports = append(ports, fmt.Sprintf("%d->%d/%s", p.PublicPort, p.PrivatePort, p.Type))
			}
			t.AppendRow(table.Row{
				containerName(c.Names),
				marker + " " + c.State,
				c.Status,
				strings.Join(ports, ", "),
			})
		}
		t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d/%d running", running, len(containers))})
		t.Render()
		return nil
	},
}

func containerName(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return strings.TrimPrefix(names[0], "/")
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
