package asr

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ccp-p/yt-dictation/pkg/models"
	"github.com/ccp-p/yt-dictation/pkg/utils"
	"github.com/samber/lo"
)

// 选择策略
const (
	StrategyRoundRobin     = "round_robin"
	StrategyWeightedRandom = "weighted_random"
)

// ErrNoService 没有可用的ASR服务
var ErrNoService = errors.New("没有可用的ASR服务")

// ServiceStats 服务统计数据
type ServiceStats struct {
	SuccessCount int
	TotalCount   int
	Available    bool
}

// ASRSelector 语音服务选择器，负责在多个ASR服务之间进行负载均衡
type ASRSelector struct {
	mu              sync.RWMutex
	services        map[string]ServiceCreator // 服务创建函数
	weights         map[string]int            // 权重
	counters        map[string]int            // 使用计数
	stats           map[string]*ServiceStats  // 统计信息
	roundRobinIndex int                       // 轮询索引
	serviceList     []string                  // 服务名称列表，保持注册顺序
	rng             *rand.Rand
}

// NewASRSelector 创建新的ASR服务选择器
func NewASRSelector() *ASRSelector {
	return NewASRSelectorWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewASRSelectorWithRand 使用指定随机源创建选择器
func NewASRSelectorWithRand(rng *rand.Rand) *ASRSelector {
	return &ASRSelector{
		services:        make(map[string]ServiceCreator),
		weights:         make(map[string]int),
		counters:        make(map[string]int),
		stats:           make(map[string]*ServiceStats),
		roundRobinIndex: -1,
		serviceList:     make([]string, 0),
		rng:             rng,
	}
}

// RegisterService 注册ASR服务，重复注册会替换原有服务
func (s *ASRSelector) RegisterService(name string, creator ServiceCreator, weight int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.services[name]; !exists {
		s.serviceList = append(s.serviceList, name)
	}
	s.services[name] = creator
	s.weights[name] = weight
	s.counters[name] = 0
	s.stats[name] = &ServiceStats{Available: true}

	utils.Log.Infof("注册ASR服务: %s, 权重: %d", name, weight)
}

// Services 返回已注册的服务名称
func (s *ASRSelector) Services() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.serviceList...)
}

// ReportResult 报告服务调用结果
func (s *ASRSelector) ReportResult(serviceName string, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stat, exists := s.stats[serviceName]; exists {
		if success {
			stat.SuccessCount++
		}
		stat.TotalCount++

		// 更新服务可用性
		if !success && stat.TotalCount > 5 && float64(stat.SuccessCount)/float64(stat.TotalCount) < 0.2 {
			stat.Available = false
			utils.Log.Warnf("ASR服务 %s 成功率过低，临时禁用", serviceName)
		} else if success && !stat.Available {
			stat.Available = true
			utils.Log.Infof("ASR服务 %s 恢复可用", serviceName)
		}
	}
}

// SelectService 根据策略选择一个ASR服务
func (s *ASRSelector) SelectService(strategy string) (string, ServiceCreator, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.services) == 0 {
		return "", nil, false
	}

	switch strategy {
	case StrategyRoundRobin:
		return s.selectByRoundRobin()
	default:
		return s.selectByWeightedRandom()
	}
}

func (s *ASRSelector) available() []string {
	return lo.Filter(s.serviceList, func(name string, _ int) bool {
		return s.stats[name].Available
	})
}

// selectByRoundRobin 使用轮询策略选择服务
func (s *ASRSelector) selectByRoundRobin() (string, ServiceCreator, bool) {
	availableServices := s.available()
	if len(availableServices) == 0 {
		return "", nil, false
	}

	s.roundRobinIndex = (s.roundRobinIndex + 1) % len(availableServices)
	selectedName := availableServices[s.roundRobinIndex]
	s.counters[selectedName]++

	return selectedName, s.services[selectedName], true
}

// selectByWeightedRandom 使用加权随机策略选择服务
func (s *ASRSelector) selectByWeightedRandom() (string, ServiceCreator, bool) {
	availableServices := s.available()

	totalWeight := lo.SumBy(availableServices, func(name string) int {
		return max(s.weights[name], 0)
	})
	if totalWeight == 0 {
		if len(availableServices) == 0 {
			return "", nil, false
		}
		// 权重都为0时退回第一个可用服务
		name := availableServices[0]
		s.counters[name]++
		return name, s.services[name], true
	}

	r := s.rng.Intn(totalWeight)
	cumWeight := 0
	for _, name := range availableServices {
		cumWeight += max(s.weights[name], 0)
		if r < cumWeight {
			s.counters[name]++
			return name, s.services[name], true
		}
	}

	return "", nil, false
}

// GetStats 获取服务使用统计信息
func (s *ASRSelector) GetStats() map[string]map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]map[string]interface{})
	for name, stat := range s.stats {
		successRate := 0.0
		if stat.TotalCount > 0 {
			successRate = float64(stat.SuccessCount) / float64(stat.TotalCount) * 100
		}

		result[name] = map[string]interface{}{
			"count":        s.counters[name],
			"success_rate": fmt.Sprintf("%.1f%%", successRate),
			"available":    stat.Available,
			"weight":       s.weights[name],
		}
	}

	return result
}

// RunWithService 使用指定服务或自动选择服务执行识别，返回结果与实际使用的服务名
// auto 模式下首选服务失败时依次尝试其他可用服务
func (s *ASRSelector) RunWithService(ctx context.Context, audioPath string, serviceName string, useCache bool, callback ProgressCallback) ([]models.DataSegment, string, error) {
	var candidates []string

	if serviceName == models.ASRServiceAuto {
		first, _, ok := s.SelectService(StrategyWeightedRandom)
		if !ok {
			return nil, "", ErrNoService
		}
		s.mu.RLock()
		rest := lo.Without(s.available(), first)
		s.mu.RUnlock()
		candidates = append([]string{first}, rest...)
	} else {
		s.mu.RLock()
		_, ok := s.services[serviceName]
		s.mu.RUnlock()
		if !ok {
			return nil, "", fmt.Errorf("未知的ASR服务: %s", serviceName)
		}
		candidates = []string{serviceName}
	}

	var errs []error
	for _, name := range candidates {
		segments, err := s.runOne(ctx, name, audioPath, useCache, callback)
		if err == nil {
			return segments, name, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
		if ctx.Err() != nil {
			break
		}
		if len(candidates) > 1 {
			utils.Log.Warnf("ASR服务 %s 失败，尝试下一个: %v", name, err)
		}
	}
	return nil, candidates[len(candidates)-1], errors.Join(errs...)
}

func (s *ASRSelector) runOne(ctx context.Context, name, audioPath string, useCache bool, callback ProgressCallback) ([]models.DataSegment, error) {
	s.mu.RLock()
	creator := s.services[name]
	s.mu.RUnlock()

	service, err := creator(audioPath, useCache)
	if err != nil {
		s.ReportResult(name, false)
		return nil, fmt.Errorf("创建ASR服务失败: %w", err)
	}

	segments, err := service.GetResult(ctx, callback)
	if err == nil && len(segments) == 0 {
		err = errors.New("识别结果为空")
	}
	s.ReportResult(name, err == nil)
	return segments, err
}
