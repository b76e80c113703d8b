package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ccp-p/yt-dictation/internal/controller"
	"github.com/ccp-p/yt-dictation/internal/store"
	"github.com/ccp-p/yt-dictation/pkg/dictation"
	"github.com/ccp-p/yt-dictation/pkg/models"
	"github.com/ccp-p/yt-dictation/pkg/utils"
	"github.com/ccp-p/yt-dictation/pkg/youtube"
	"github.com/ccp-p/yt-dictation/web"
)

// VideoService 页面和接口依赖的处理控制器
type VideoService interface {
	Submit(ctx context.Context, youtubeURL string) (controller.SubmitResult, error)
	Status(videoID string) (models.VideoStatus, bool)
	Dictation(videoID string) (store.Entry, []models.Segment, error)
	Delete(videoID string) (bool, error)
	List() ([]store.Entry, error)
}

// server 持有处理器需要的依赖
type server struct {
	config *models.Config
	videos VideoService
	pages  *web.Templates
}

// --- Helper Functions ---

// respondWithError 发送错误 JSON 响应
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, BaseResponse{Code: code, Msg: message})
}

// respondWithJSON 发送 JSON 响应
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		utils.Error("JSON 序列化错误: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"code": 500, "msg": "内部服务器错误：无法序列化响应"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// render 渲染页面，失败时返回 500
func (s *server) render(w http.ResponseWriter, code int, page string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := s.pages.Render(w, page, data); err != nil {
		utils.Error("渲染页面 %s 失败: %v", page, err)
	}
}

func (s *server) notFound(w http.ResponseWriter, message string) {
	s.render(w, http.StatusNotFound, web.PageNotFound, notFoundPage{AppName: s.config.AppName, Message: message})
}

// --- 页面 ---

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	videos, err := s.videos.List()
	if err != nil {
		utils.Warn("读取缓存列表失败: %v", err)
	}
	s.render(w, http.StatusOK, web.PageHome, homePage{AppName: s.config.AppName, Videos: videos})
}

func (s *server) handleProcessingPage(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["id"]
	if !youtube.ValidVideoID(videoID) {
		s.notFound(w, "无效的视频ID")
		return
	}
	s.render(w, http.StatusOK, web.PageProcessing, processingPage{
		AppName:        s.config.AppName,
		VideoID:        videoID,
		PollIntervalMs: s.config.StatusPollIntervalMs,
		SettleDelayMs:  s.config.SettleDelayMs,
	})
}

func (s *server) handleDictationPage(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["id"]
	entry, segments, err := s.videos.Dictation(videoID)
	if errors.Is(err, controller.ErrNotFound) {
		s.notFound(w, err.Error())
		return
	}
	if err != nil {
		utils.Error("加载听写数据失败: %v", err)
		http.Error(w, "加载听写数据失败", http.StatusInternalServerError)
		return
	}
	s.render(w, http.StatusOK, web.PageDictation, dictationPage{
		AppName:  s.config.AppName,
		VideoID:  videoID,
		Title:    entry.Title,
		Segments: segments,
	})
}

// --- API Handlers ---

// handleProcessVideo 提交视频处理
func (s *server) handleProcessVideo(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req ProcessVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "无效的请求体: "+err.Error())
		return
	}
	if req.YoutubeURL == "" {
		respondWithError(w, http.StatusBadRequest, "缺少必要的字段 (youtube_url)")
		return
	}

	res, err := s.videos.Submit(r.Context(), req.YoutubeURL)
	if errors.Is(err, youtube.ErrInvalidURL) {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

// handleVideoStatus 查询处理状态
func (s *server) handleVideoStatus(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["id"]
	status, ok := s.videos.Status(videoID)
	if !ok {
		respondWithError(w, http.StatusNotFound, "视频 "+videoID+" 不存在，请先通过 /api/process-video 提交")
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

// handleDeleteVideo 删除缓存条目
func (s *server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["id"]
	deleted, err := s.videos.Delete(videoID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		respondWithError(w, http.StatusNotFound, "未找到要删除的视频")
		return
	}
	respondWithJSON(w, http.StatusOK, BaseResponse{Code: 0, Msg: "已删除"})
}

// handleListVideos 列出缓存
func (s *server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := s.videos.List()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if videos == nil {
		videos = []store.Entry{}
	}
	respondWithJSON(w, http.StatusOK, VideoListResponse{BaseResponse: BaseResponse{Code: 0}, Data: videos})
}

// handleCheckInput 服务端前缀校验
func (s *server) handleCheckInput(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	videoID := mux.Vars(r)["id"]
	var req CheckInputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "无效的请求体: "+err.Error())
		return
	}

	_, segments, err := s.videos.Dictation(videoID)
	if errors.Is(err, controller.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if req.SegmentID < 0 || req.SegmentID >= len(segments) {
		respondWithError(w, http.StatusBadRequest, "segment_id 超出范围")
		return
	}

	expected := segments[req.SegmentID].Text
	res := dictation.CheckPrefix(expected, req.Typed)
	resp := CheckInputResponse{
		Accepted: res.Accepted,
		Progress: res.Progress,
		Complete: res.Complete,
	}
	if !res.Accepted {
		hint := dictation.WordHint(expected, req.Typed)
		resp.Similarity = hint.Similarity
		resp.SoundsAlike = hint.SoundsAlike
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// handleHealth 简单健康检查
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok", App: s.config.AppName})
}
