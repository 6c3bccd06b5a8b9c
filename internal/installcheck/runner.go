package installcheck

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// 单条命令的超时时间
const commandTimeout = 15 * time.Second

// detail 字段的截断上限（status 输出可能很长）
const (
	statusMaxChars  = 2000
	journalMaxChars = 3000
	detailMaxChars  = 1000
)

// systemdActiveOK systemctl status 输出里算"正常"的状态行
// active (running): 普通服务；active (exited): postgresql 这类 oneshot/meta 单元
var systemdActiveOK = []string{
	"Active: active (running)",
	"Active: active (exited)",
}

// CheckResult 一条检查的结果
type CheckResult struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Passed      bool   `json:"passed"`
	Detail      string `json:"detail"`
}

// ComponentResult 一个组件的结果（所有检查都过才算过）
type ComponentResult struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Order  int           `json:"order"`
	Checks []CheckResult `json:"checks"`
	Passed bool          `json:"passed"`
}

// Summary 汇总
type Summary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// RunResult 一次完整执行的结果（JSON 落盘，报告渲染也吃它）
type RunResult struct {
	RunID         string            `json:"run_id"`
	RunStart      string            `json:"run_start"`
	Hostname      string            `json:"hostname"`
	InstallerID   string            `json:"installer_id"`
	InstallerName string            `json:"installer_name"`
	Components    []ComponentResult `json:"components"`
	Summary       Summary           `json:"summary"`
}

// Runner 按配置执行检查
type Runner struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{logger: logger, now: time.Now}
}

// Run 按 order 执行全部组件检查
func (r *Runner) Run(cfg *Config) *RunResult {
	now := r.now()
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "unknown"
	}
	result := &RunResult{
		RunID:         now.Format("20060102_150405"),
		RunStart:      now.UTC().Format("2006-01-02T15:04:05") + "Z",
		Hostname:      hostname,
		InstallerID:   cfg.InstallerID,
		InstallerName: cfg.InstallerName,
		Components:    []ComponentResult{},
	}
	if result.InstallerID == "" {
		result.InstallerID = "unknown"
	}

	components := make([]Component, len(cfg.Components))
	copy(components, cfg.Components)
	sort.SliceStable(components, func(i, j int) bool {
		return components[i].Order < components[j].Order
	})

	for _, comp := range components {
		r.logger.Info("checking component", zap.String("id", comp.ID), zap.String("name", comp.Name))
		cr := ComponentResult{
			ID:     comp.ID,
			Name:   comp.Name,
			Order:  comp.Order,
			Checks: []CheckResult{},
			Passed: true,
		}
		for _, ch := range comp.Checks {
			passed, detail := r.runCheck(ch)
			desc := ch.Description
			if desc == "" {
				desc = ch.Type
			}
			cr.Checks = append(cr.Checks, CheckResult{
				Type:        ch.Type,
				Description: desc,
				Passed:      passed,
				Detail:      truncate(detail, detailMaxChars),
			})
			if !passed {
				cr.Passed = false
			}
			r.logger.Info("check done",
				zap.String("description", desc),
				zap.Bool("passed", passed),
				zap.String("detail", truncate(detail, 200)))
		}
		result.Components = append(result.Components, cr)
	}

	for _, c := range result.Components {
		if c.Passed {
			result.Summary.Passed++
		} else {
			result.Summary.Failed++
		}
	}
	result.Summary.Total = len(result.Components)
	r.logger.Info("summary",
		zap.Int("total", result.Summary.Total),
		zap.Int("passed", result.Summary.Passed),
		zap.Int("failed", result.Summary.Failed))
	return result
}

func (r *Runner) runCheck(ch Check) (bool, string) {
	switch ch.Type {
	case "systemd":
		if ch.Unit == "" {
			return false, "systemd: unit not specified"
		}
		return r.checkSystemd(ch.Unit)
	case "command":
		return r.checkCommand(ch)
	case "path":
		return checkPath(ch.Path, ch.ExpandUser)
	case "path_any":
		return checkPathAny(ch.Paths)
	case "journalctl":
		if ch.Unit == "" {
			return false, "journalctl: unit not specified"
		}
		lines := ch.Lines
		if lines <= 0 {
			lines = 30
		}
		return r.checkJournalctl(ch.Unit, lines)
	default:
		return false, fmt.Sprintf("unknown check type %q", ch.Type)
	}
}

// runCmd 执行命令并返回 (exit code, stdout, stderr)；超时返回 -1
func (r *Runner) runCmd(cmdline string, shell bool) (int, string, string) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var cmd *exec.Cmd
	if shell {
		cmd = exec.CommandContext(ctx, "/bin/bash", "-c", cmdline)
	} else {
		parts := strings.Fields(cmdline)
		if len(parts) == 0 {
			return -1, "", "empty command"
		}
		cmd = exec.CommandContext(ctx, parts[0], parts[1:]...)
	}
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return -1, "", "Timeout"
	}
	code := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		} else {
			return -1, "", err.Error()
		}
	}
	return code, strings.TrimSpace(stdout.String()), strings.TrimSpace(stderr.String())
}

// checkSystemd systemctl status 输出判断服务是否正常；detail 带完整 status
func (r *Runner) checkSystemd(unit string) (bool, string) {
	_, out, errOut := r.runCmd("systemctl status "+unit+" --no-pager -l", false)
	detail := strings.TrimSpace(out + "\n" + errOut)
	if detail == "" {
		detail = "no output"
	}
	detail = truncate(detail, statusMaxChars)
	for _, ok := range systemdActiveOK {
		if strings.Contains(out, ok) {
			return true, detail
		}
	}
	return false, detail
}

func (r *Runner) checkCommand(ch Check) (bool, string) {
	cmdline := ch.Cmd
	if ch.Shell {
		cmdline = expandUser(cmdline)
	}
	code, out, errOut := r.runCmd(cmdline, ch.Shell)
	combined := strings.TrimSpace(out + "\n" + errOut)
	if code != 0 {
		if combined == "" {
			combined = fmt.Sprintf("exit code %d", code)
		}
		return false, combined
	}
	if ch.ExpectStdout != "" && !strings.Contains(out, ch.ExpectStdout) {
		return false, fmt.Sprintf("Expected stdout to contain: %q; got: %q", ch.ExpectStdout, out)
	}
	if ch.ExpectStdoutContains != "" &&
		!strings.Contains(out, ch.ExpectStdoutContains) &&
		!strings.Contains(errOut, ch.ExpectStdoutContains) {
		return false, fmt.Sprintf("Expected output to contain: %q; got: %q", ch.ExpectStdoutContains, combined)
	}
	if combined == "" {
		combined = "OK"
	}
	return true, combined
}

func checkPath(path string, expand bool) (bool, string) {
	p := path
	if expand {
		p = expandUser(p)
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	if _, err := os.Stat(p); err == nil {
		return true, p
	}
	return false, "Not found: " + p
}

// checkPathAny 多个路径任意一个存在即通过
func checkPathAny(paths []string) (bool, string) {
	for _, path := range paths {
		p := path
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		if _, err := os.Stat(p); err == nil {
			return true, p
		}
	}
	return false, "Not found: " + strings.Join(paths, ", ")
}

// checkJournalctl 抓最近日志进 detail；能抓到就算通过
func (r *Runner) checkJournalctl(unit string, lines int) (bool, string) {
	code, out, errOut := r.runCmd(fmt.Sprintf("journalctl -u %s -n %d --no-pager", unit, lines), false)
	detail := strings.TrimSpace(out + "\n" + errOut)
	if detail == "" {
		detail = "no output"
	}
	return code == 0, truncate(detail, journalMaxChars)
}

func expandUser(s string) string {
	if strings.HasPrefix(s, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + strings.TrimPrefix(s, "~")
		}
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n... (truncated)"
}
