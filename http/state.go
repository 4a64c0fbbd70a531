package http

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"phenomap/db"
	"phenomap/inference"
	"phenomap/schema"
)

// AssignmentLister 读取历史分配记录
type AssignmentLister interface {
	RecentAssignments(ctx context.Context, schemaName string, limit int) ([]db.AssignmentRow, error)
}

var (
	stateMu    sync.RWMutex
	services   = make(map[string]*inference.Service)
	modelErrs  = make(map[string]error)
	journal    AssignmentLister
	httpLogger = zap.NewNop()
)

// SetService 注册某个schema的分配服务
func SetService(svc *inference.Service) {
	stateMu.Lock()
	defer stateMu.Unlock()
	name := svc.Schema().Name
	services[name] = svc
	delete(modelErrs, name)
}

// SetModelError 记录模型加载失败，该schema的所有请求将返回此错误
func SetModelError(schemaName string, err error) {
	stateMu.Lock()
	defer stateMu.Unlock()
	delete(services, schemaName)
	if err == nil {
		delete(modelErrs, schemaName)
		return
	}
	modelErrs[schemaName] = err
}

// SetJournal 设置分配记录查询接口，nil表示未启用
func SetJournal(j AssignmentLister) {
	stateMu.Lock()
	defer stateMu.Unlock()
	journal = j
}

// SetLogger 设置HTTP层日志
func SetLogger(l *zap.Logger) {
	stateMu.Lock()
	defer stateMu.Unlock()
	if l == nil {
		l = zap.NewNop()
	}
	httpLogger = l
}

// ResetState 清空所有注册信息（测试使用）
func ResetState() {
	stateMu.Lock()
	defer stateMu.Unlock()
	services = make(map[string]*inference.Service)
	modelErrs = make(map[string]error)
	journal = nil
	httpLogger = zap.NewNop()
}

func currentLogger() *zap.Logger {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return httpLogger
}

func currentJournal() AssignmentLister {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return journal
}

// lookupService 返回schema及其服务；模型加载失败时返回加载错误
func lookupService(name string) (*schema.Schema, *inference.Service, error) {
	s, err := schema.Lookup(name)
	if err != nil {
		return nil, nil, err
	}
	stateMu.RLock()
	defer stateMu.RUnlock()
	if err := modelErrs[name]; err != nil {
		return s, nil, err
	}
	svc, ok := services[name]
	if !ok {
		return s, nil, fmt.Errorf("%w: no model configured for %s", inference.ErrModelUnavailable, name)
	}
	return s, svc, nil
}

func modelStatus(name string) (bool, string) {
	_, _, err := lookupService(name)
	if err != nil {
		return false, err.Error()
	}
	return true, ""
}
