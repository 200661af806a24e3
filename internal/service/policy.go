package service

import (
	"learnquest_backend/internal/config"
	"sync/atomic"
)

// Policy 运行时可热更新的业务参数，所有引擎共享同一个实例
type Policy struct {
	v atomic.Pointer[config.GamificationConfig]
}

func NewPolicy(cfg config.GamificationConfig) *Policy {
	p := &Policy{}
	p.v.Store(&cfg)
	return p
}

func (p *Policy) Get() config.GamificationConfig {
	return *p.v.Load()
}

// Update 校验通过后整体替换，进行中的请求继续使用旧值
func (p *Policy) Update(cfg config.GamificationConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	p.v.Store(&cfg)
	return nil
}
