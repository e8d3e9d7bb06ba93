package main

import (
	"fmt"
	"strings"

	"catchcli/internal/api"
	"catchcli/internal/diff"
	"catchcli/internal/session"
	"catchcli/internal/ui"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func (c *cli) statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [session-id]",
		Short: "Show the server-side progress of the current session",
		Long: `Fetches /session/{id}/process and renders it. Without an argument the
session id comes from the local marker. Markers are never removed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: c.runStatus,
	}
	cmd.Flags().Bool("diff", false, "Include the generated changes as unified diffs")
	return cmd
}

func (c *cli) runStatus(cmd *cobra.Command, args []string) error {
	showDiff, _ := cmd.Flags().GetBool("diff")

	id := ""
	if len(args) == 1 {
		id = args[0]
	} else {
		markers, err := session.Markers(c.cfg.TempDir())
		if err != nil {
			return err
		}
		switch len(markers) {
		case 0:
			return session.ErrNoSessionFound
		case 1:
			id = markers[0].ID
		default:
			return fmt.Errorf("%w: pass a session id", session.ErrMultipleSessionsFound)
		}
	}

	body, err := api.ExpectSuccess(c.apiClient().SessionStatus(cmd.Context(), id))
	if err != nil {
		return fmt.Errorf("failed to fetch session status: %w", err)
	}

	md := statusMarkdown(id, *body.Process, showDiff)
	width := 0
	if w, _, err := term.GetSize(int(c.stdin.Fd())); err == nil && !c.cfg.UI.NoTTY {
		width = w
	}
	rendered, err := ui.RenderMarkdown(md, width, ui.DetectTheme())
	if err != nil {
		c.logger.Sugar().Warnf("markdown rendering failed, printing raw: %v", err)
		rendered = md
	}
	fmt.Fprint(cmd.OutOrStdout(), rendered)
	return nil
}

// statusMarkdown describes a process as markdown. With showDiff each
// generated file is followed by its patch.
func statusMarkdown(id string, p api.ProcessInfo, showDiff bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Session `%s`\n\n", id)

	if p.Unclaimed() {
		sb.WriteString("No process has started. The session is free for `catch` to attach.\n")
		return sb.String()
	}
	if p.ID != nil {
		fmt.Fprintf(&sb, "- **Process:** `%s`\n", *p.ID)
	}
	if p.Status != nil {
		fmt.Fprintf(&sb, "- **Status:** %s\n", *p.Status)
	}
	sb.WriteString("\n")

	o := p.Output
	if o == nil {
		sb.WriteString("_No step output yet._\n")
		return sb.String()
	}

	sb.WriteString("## Steps\n\n| Step | Status |\n|---|---|\n")
	row := func(name, status string) {
		fmt.Fprintf(&sb, "| %s | %s |\n", name, status)
	}
	if o.FetchingCode != nil {
		row("fetching-code", o.FetchingCode.Status)
	}
	if o.IndexingCode != nil {
		row("indexing-code", o.IndexingCode.Status)
	}
	if o.AnalyzingPlatform != nil {
		row("analyzing-platform", o.AnalyzingPlatform.Status)
	}
	if o.ExtractingCandidates != nil {
		row("extracting-candidates", o.ExtractingCandidates.Status)
	}
	if o.AnalyzingModuleStructure != nil {
		row("analyzing-module-structure", o.AnalyzingModuleStructure.Status)
	}
	if o.GeneratingDiff != nil {
		row("generating-diff", o.GeneratingDiff.Status)
	}
	if o.GeneratingDocs != nil {
		row("generating-docs", o.GeneratingDocs.Status)
	}

	if pl := o.AnalyzingPlatform; pl != nil && pl.PlatformInfo.Platform != "" {
		fmt.Fprintf(&sb, "\n## Platform\n\n**%s**", pl.PlatformInfo.Platform)
		if d := pl.PlatformInfo.ArchitectureDescription; d != "" {
			fmt.Fprintf(&sb, ": %s", d)
		}
		sb.WriteString("\n")
	}
	if ec := o.ExtractingCandidates; ec != nil && len(ec.Candidates) > 0 {
		sb.WriteString("\n## Candidates\n\n")
		for _, c := range ec.Candidates {
			fmt.Fprintf(&sb, "- `%s`\n", c)
		}
	}
	if ms := o.AnalyzingModuleStructure; ms != nil && ms.Structure != "" {
		fmt.Fprintf(&sb, "\n## Module structure\n\n```\n%s\n```\n", strings.TrimRight(ms.Structure, "\n"))
	}
	if gd := o.GeneratingDiff; gd != nil && len(gd.Files) > 0 {
		sb.WriteString("\n## Changed files\n\n")
		for _, f := range gd.Files {
			fmt.Fprintf(&sb, "- `%s`\n", f.FilePath)
			if !showDiff {
				continue
			}
			if patch := filePatch(f); patch != "" {
				fmt.Fprintf(&sb, "\n```diff\n%s\n```\n\n", strings.TrimRight(patch, "\n"))
			}
		}
	}
	if len(o.Docs) > 0 {
		sb.WriteString("\n## Docs\n\n")
		for _, d := range o.Docs {
			fmt.Fprintf(&sb, "- %s\n", d)
		}
	}
	return sb.String()
}

// filePatch prefers the server's patch and otherwise diffs the original
// and modified contents.
func filePatch(f api.DiffFile) string {
	if f.PatchContent != "" {
		return f.PatchContent
	}
	return diff.Unified(f.FilePath, f.OriginalContent, f.ModifiedContent)
}
