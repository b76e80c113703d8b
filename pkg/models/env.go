package models

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

var (
	reExport = regexp.MustCompile(`^\s*export\s+([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.*)\s*$`)
	reAssign = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.*)\s*$`)
)

// LoadEnvFile 读取 .env 风格的文件写入进程环境变量
// 支持 KEY=value 和 export KEY=value，值可以带单引号或双引号；
// 已存在的环境变量不会被覆盖。文件不存在时返回 false。
func LoadEnvFile(path string) (bool, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	scan := bufio.NewScanner(f)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var key, val string
		if m := reExport.FindStringSubmatch(line); m != nil {
			key, val = m[1], m[2]
		} else if m := reAssign.FindStringSubmatch(line); m != nil {
			key, val = m[1], m[2]
		} else {
			continue
		}

		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		os.Setenv(key, unquote(strings.TrimSpace(val)))
	}
	return true, scan.Err()
}

func unquote(val string) string {
	if len(val) >= 2 && strings.HasPrefix(val, `"`) && strings.HasSuffix(val, `"`) {
		v := val[1 : len(val)-1]
		v = strings.ReplaceAll(v, `\\`, `\`)
		return strings.ReplaceAll(v, `\"`, `"`)
	}
	if len(val) >= 2 && strings.HasPrefix(val, "'") && strings.HasSuffix(val, "'") {
		return val[1 : len(val)-1]
	}
	// 去掉行尾注释
	if i := strings.Index(val, " #"); i >= 0 {
		val = strings.TrimSpace(val[:i])
	}
	return val
}
