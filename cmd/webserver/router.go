package main

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/ccp-p/yt-dictation/internal/health"
	"github.com/ccp-p/yt-dictation/internal/metrics"
	"github.com/ccp-p/yt-dictation/pkg/utils"
	"github.com/ccp-p/yt-dictation/web"
)

// newRouter 注册全部路由
func newRouter(s *server, checks *health.Handler, m *metrics.Metrics) *mux.Router {
	r := mux.NewRouter()
	r.Use(accessLog(m))

	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))
	r.PathPrefix("/audios/").Handler(http.StripPrefix("/audios/", http.FileServer(http.Dir(s.config.AudioDir))))

	r.HandleFunc("/", s.handleHome).Methods(http.MethodGet)
	r.HandleFunc("/processing/{id}", s.handleProcessingPage).Methods(http.MethodGet)
	r.HandleFunc("/dictation/{id}", s.handleDictationPage).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/process-video", s.handleProcessVideo).Methods(http.MethodPost)
	api.HandleFunc("/videos", s.handleListVideos).Methods(http.MethodGet)
	api.HandleFunc("/video/{id}/status", s.handleVideoStatus).Methods(http.MethodGet)
	api.HandleFunc("/video/{id}/check", s.handleCheckInput).Methods(http.MethodPost)
	api.HandleFunc("/video/{id}", s.handleDeleteVideo).Methods(http.MethodDelete)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	checks.Register(r)
	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	// 子路由器不设兜底处理器，未匹配的请求统一由根路由器判断 404 还是 405
	fallback := unmatched(r)
	r.NotFoundHandler = fallback
	r.MethodNotAllowedHandler = fallback

	return r
}

// unmatched 处理没有命中路由的请求：路径存在但方法不对返回 405，否则 404
// /api/ 下返回 JSON，其余返回纯文本
func unmatched(router *mux.Router) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		isAPI := strings.HasPrefix(r.URL.Path, "/api/")

		if methods := allowedMethods(router, r.URL.Path); len(methods) > 0 {
			w.Header().Set("Allow", strings.Join(methods, ", "))
			if isAPI {
				respondWithError(w, http.StatusMethodNotAllowed, "不支持的请求方法: "+r.Method)
			} else {
				http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			}
			return
		}

		if isAPI {
			respondWithError(w, http.StatusNotFound, "未找到 API: "+r.URL.Path)
			return
		}
		http.NotFound(w, r)
	})
}

// allowedMethods 返回路径匹配 path 的路由所允许的方法，没有限定方法的路由不计入
func allowedMethods(router *mux.Router, path string) []string {
	var methods []string
	router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		routeMethods, err := route.GetMethods()
		if err != nil {
			return nil
		}
		pattern, err := route.GetPathRegexp()
		if err != nil {
			return nil
		}
		re, err := regexp.Compile(pattern)
		if err != nil || !re.MatchString(path) {
			return nil
		}
		methods = append(methods, routeMethods...)
		return nil
	})
	return lo.Uniq(methods)
}

// statusRecorder 记录响应状态码
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// accessLog 记录每个请求的方法、路径、状态码和耗时
func accessLog(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			elapsed := time.Since(start)

			route := "unmatched"
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			if m != nil {
				m.ObserveHTTP(route, r.Method, strconv.Itoa(rec.status), elapsed)
			}

			utils.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": elapsed.Round(time.Millisecond).String(),
			}).Debug("HTTP 请求")
		})
	}
}
