package installcheck

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// RenderMarkdown 把 RunResult 渲染成 Markdown 报告
func RenderMarkdown(res *RunResult) string {
	var b strings.Builder
	b.WriteString("# OBDP Install Check Report\n\n")
	fmt.Fprintf(&b, "- **Run ID**: %s\n", res.RunID)
	fmt.Fprintf(&b, "- **Hostname**: %s\n", res.Hostname)
	fmt.Fprintf(&b, "- **Installer**: %s\n", res.InstallerName)
	fmt.Fprintf(&b, "- **Generated**: %s UTC\n", time.Now().UTC().Format("2006-01-02 15:04:05"))
	b.WriteString("\n## Summary\n\n")
	b.WriteString("| Total | Passed | Failed |\n")
	b.WriteString("|-------|--------|--------|\n")
	fmt.Fprintf(&b, "| %d | %d | %d |\n", res.Summary.Total, res.Summary.Passed, res.Summary.Failed)
	b.WriteString("\n## Component Results\n\n")
	for _, comp := range res.Components {
		status := "FAIL"
		if comp.Passed {
			status = "PASS"
		}
		name := comp.Name
		if name == "" {
			name = comp.ID
		}
		fmt.Fprintf(&b, "### %s — %s\n\n", name, status)
		for _, ch := range comp.Checks {
			mark := "✗"
			if ch.Passed {
				mark = "✓"
			}
			fmt.Fprintf(&b, "- %s **%s**: %s\n", mark, ch.Description, truncate(ch.Detail, 200))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderHTML 把 RunResult 渲染成单文件 HTML 报告（样式内联，方便直接打开）
func RenderHTML(res *RunResult) string {
	var rows strings.Builder
	for _, comp := range res.Components {
		status, rowClass := "FAIL", "fail"
		if comp.Passed {
			status, rowClass = "PASS", "pass"
		}
		name := comp.Name
		if name == "" {
			name = comp.ID
		}
		var checks strings.Builder
		for _, ch := range comp.Checks {
			mark, chClass := "✗", "fail"
			if ch.Passed {
				mark, chClass = "✓", "pass"
			}
			detail := html.EscapeString(truncate(ch.Detail, 300))
			fmt.Fprintf(&checks, `<li><span class="%s">%s %s</span> %s</li>`,
				chClass, mark, html.EscapeString(ch.Description), detail)
		}
		fmt.Fprintf(&rows,
			`<tr class="%s"><td>%s</td><td class="%s">%s</td><td><ul>%s</ul></td></tr>`,
			rowClass, html.EscapeString(name), rowClass, status, checks.String())
		rows.WriteString("\n")
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>OBDP Install Check — %s</title>
<style>
  body { font-family: sans-serif; margin: 1rem 2rem; background: #f5f5f5; }
  h1 { color: #333; }
  .meta { color: #666; margin-bottom: 1.5rem; }
  .summary { display: flex; gap: 1rem; margin-bottom: 1.5rem; }
  .summary span { padding: 0.5rem 1rem; border-radius: 6px; }
  .summary .total { background: #e3f2fd; }
  .summary .passed { background: #e8f5e9; }
  .summary .failed { background: #ffebee; }
  table { border-collapse: collapse; width: 100%%; background: white; box-shadow: 0 1px 3px rgba(0,0,0,0.1); }
  th, td { border: 1px solid #ddd; padding: 0.5rem 0.75rem; text-align: left; }
  th { background: #37474f; color: white; }
  tr.pass { background: #f1f8e9; }
  tr.fail { background: #ffebee; }
  .pass { color: #2e7d32; }
  .fail { color: #c62828; }
  ul { margin: 0; padding-left: 1.2rem; }
  li { margin: 0.2rem 0; font-size: 0.9rem; }
</style>
</head>
<body>
<h1>OBDP Install Check Report</h1>
<div class="meta">
  <strong>Run ID</strong>: %s &nbsp;|&nbsp;
  <strong>Hostname</strong>: %s &nbsp;|&nbsp;
  <strong>Installer</strong>: %s &nbsp;|&nbsp;
  <strong>Generated</strong>: %s UTC
</div>
<div class="summary">
  <span class="total">Total: %d</span>
  <span class="passed">Passed: %d</span>
  <span class="failed">Failed: %d</span>
</div>
<table>
<thead><tr><th>Component</th><th>Status</th><th>Checks</th></tr></thead>
<tbody>
%s</tbody>
</table>
</body>
</html>
`,
		html.EscapeString(res.RunID),
		html.EscapeString(res.RunID),
		html.EscapeString(res.Hostname),
		html.EscapeString(res.InstallerName),
		time.Now().UTC().Format("2006-01-02 15:04:05"),
		res.Summary.Total, res.Summary.Passed, res.Summary.Failed,
		rows.String())
}
