package installcheck

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config install_components.yaml 的顶层结构
type Config struct {
	InstallerID   string      `yaml:"installer_id"`
	InstallerName string      `yaml:"installer_name"`
	Components    []Component `yaml:"components"`
}

// Component 一个被检查的安装组件，order 决定执行顺序
type Component struct {
	ID     string  `yaml:"id"`
	Name   string  `yaml:"name"`
	Order  int     `yaml:"order"`
	Checks []Check `yaml:"checks"`
}

// Check 一条检查项；Type 决定哪些字段生效
// systemd: unit / command: cmd, expect_stdout, expect_stdout_contains, shell
// path: path, expand_user / path_any: paths / journalctl: unit, lines
type Check struct {
	Type                 string   `yaml:"type"`
	Description          string   `yaml:"description"`
	Unit                 string   `yaml:"unit"`
	Cmd                  string   `yaml:"cmd"`
	ExpectStdout         string   `yaml:"expect_stdout"`
	ExpectStdoutContains string   `yaml:"expect_stdout_contains"`
	Shell                bool     `yaml:"shell"`
	Path                 string   `yaml:"path"`
	ExpandUser           bool     `yaml:"expand_user"`
	Paths                []string `yaml:"paths"`
	Lines                int      `yaml:"lines"`
}

// LoadConfig 读取并解析 install_components.yaml
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
