// Package health 提供存活和就绪检查接口
//
// /healthz 只要进程能响应就返回 200；/readyz 在所有检查项通过时返回 200，
// 否则返回 503，body 中列出每一项的结果。
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ccp-p/yt-dictation/pkg/utils"
	"github.com/gorilla/mux"
)

// 单项检查的超时时间
const checkTimeout = 5 * time.Second

// Checker 一个命名的检查项，Check 返回 nil 表示正常
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

type result struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler 处理 /healthz 和 /readyz，检查项在创建时固定
type Handler struct {
	checkers []Checker
}

// New 创建检查处理器，检查项按给定顺序依次执行
func New(checkers ...Checker) *Handler {
	c := make([]Checker, len(checkers))
	copy(c, checkers)
	return &Handler{checkers: c}
}

// Healthz 存活检查
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, result{Status: "ok"})
}

// Readyz 就绪检查
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(h.checkers))
	allOK := true

	for _, c := range h.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := c.Check(ctx)
		cancel()

		if err != nil {
			checks[c.Name] = "fail: " + err.Error()
			allOK = false
		} else {
			checks[c.Name] = "ok"
		}
	}

	res := result{Status: "ok", Checks: checks}
	status := http.StatusOK
	if !allOK {
		res.Status = "fail"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, res)
}

// Register 在路由上注册 /healthz 和 /readyz
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", h.Readyz).Methods(http.MethodGet)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}

// DirWritable 检查目录存在且可写
func DirWritable(dir string) Checker {
	return Checker{
		Name: "audio_dir",
		Check: func(context.Context) error {
			if !utils.CheckDirExists(dir) {
				return fmt.Errorf("目录不存在: %s", dir)
			}
			f, err := os.CreateTemp(dir, ".readyz-*")
			if err != nil {
				return fmt.Errorf("目录不可写: %w", err)
			}
			name := f.Name()
			f.Close()
			return os.Remove(filepath.Clean(name))
		},
	}
}

// Binary 检查外部命令可用
func Binary(name, binary, versionArg string) Checker {
	return Checker{
		Name: name,
		Check: func(context.Context) error {
			if !utils.CheckBinary(binary, versionArg) {
				return errors.New("未找到 " + binary)
			}
			return nil
		},
	}
}
