package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/yooh1982/HS4v2/internal/installcheck"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config/install_components.yaml", "install_components.yaml 路径")
	resultsDir := flag.String("results-dir", "results", "结果 JSON 输出目录")
	reportsDir := flag.String("reports-dir", "reports", "报告输出目录")
	noReport := flag.Bool("no-report", false, "只保存结果 JSON，不生成报告")
	format := flag.String("format", "both", "报告格式: both / html / md")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := installcheck.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config not found: %v\n", err)
		return 1
	}
	logger.Info("config loaded", zap.String("path", *configPath))

	runner := installcheck.NewRunner(logger)
	result := runner.Run(cfg)

	if err := os.MkdirAll(*resultsDir, 0o755); err != nil {
		logger.Error("failed to create results dir", zap.Error(err))
		return 1
	}
	resultFile := filepath.Join(*resultsDir, "result_"+result.RunID+".json")
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Error("failed to marshal result", zap.Error(err))
		return 1
	}
	if err := os.WriteFile(resultFile, data, 0o644); err != nil {
		logger.Error("failed to write result JSON", zap.Error(err))
		return 1
	}
	logger.Info("result JSON written", zap.String("path", resultFile))

	if !*noReport {
		if err := os.MkdirAll(*reportsDir, 0o755); err != nil {
			logger.Error("failed to create reports dir", zap.Error(err))
			return 1
		}
		if *format == "both" || *format == "md" {
			mdPath := filepath.Join(*reportsDir, "report_"+result.RunID+".md")
			if err := os.WriteFile(mdPath, []byte(installcheck.RenderMarkdown(result)), 0o644); err != nil {
				logger.Error("failed to write markdown report", zap.Error(err))
			} else {
				fmt.Println("Markdown report:", mdPath)
			}
		}
		if *format == "both" || *format == "html" {
			htmlPath := filepath.Join(*reportsDir, "report_"+result.RunID+".html")
			if err := os.WriteFile(htmlPath, []byte(installcheck.RenderHTML(result)), 0o644); err != nil {
				logger.Error("failed to write html report", zap.Error(err))
			} else {
				fmt.Println("HTML report:", htmlPath)
			}
		}
	}

	if result.Summary.Failed > 0 {
		return 2
	}
	return 0
}
