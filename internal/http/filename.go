package httpapi

import (
	"regexp"
	"strings"
)

// filenamePattern 上传文件名里的船号 / IMO 号
// 形如 H2567_IMO9991862_IOList_20260125.xlsx
var filenamePattern = regexp.MustCompile(`(?i)H(\d+).*?IMO(\d+)`)

// ParseFilename 从文件名提取 (hull_no, imo)；提取不到返回 ok=false
func ParseFilename(filename string) (hullNo, imo string, ok bool) {
	if filename == "" {
		return "", "", false
	}
	// 去掉扩展名再匹配
	name := filename
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[:i]
	}
	m := filenamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	return "H" + m[1], "IMO" + m[2], true
}
