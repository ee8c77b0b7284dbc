// 配置热重载。
//
// 文件变化后重新加载并校验配置，仅日志级别与若干运行时参数可即时生效，
// 其余字段变化只记录为需要重启。
package config

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ReloadFunc 在新配置生效后调用
type ReloadFunc func(old, next *Config)

// Reloader 持有当前配置并响应配置文件变化
type Reloader struct {
	mu sync.RWMutex

	loader  *Loader
	current *Config
	level   zap.AtomicLevel
	watcher *FileWatcher
	hooks   []ReloadFunc
	logger  *zap.Logger
}

// NewReloader 创建重载器。level 为日志器使用的原子级别
func NewReloader(loader *Loader, current *Config, level zap.AtomicLevel, logger *zap.Logger) *Reloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reloader{
		loader:  loader,
		current: current,
		level:   level,
		logger:  logger.With(zap.String("component", "config_reloader")),
	}
}

// Current 返回当前配置
func (r *Reloader) Current() *Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// OnReload 注册重载回调
func (r *Reloader) OnReload(fn ReloadFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, fn)
}

// Watch 监听配置文件，未设置配置路径时不做任何事
func (r *Reloader) Watch(ctx context.Context, opts ...WatcherOption) error {
	if r.loader.configPath == "" {
		return nil
	}
	w, err := NewFileWatcher(r.loader.configPath, append([]WatcherOption{WithWatcherLogger(r.logger)}, opts...)...)
	if err != nil {
		return err
	}
	w.OnChange(func(ev FileEvent) {
		if ev.Op == FileOpRemove {
			r.logger.Warn("config file removed, keeping current configuration", zap.String("path", ev.Path))
			return
		}
		if err := r.Reload(); err != nil {
			r.logger.Error("config reload failed", zap.Error(err))
		}
	})
	r.mu.Lock()
	r.watcher = w
	r.mu.Unlock()
	return w.Start(ctx)
}

// Stop 停止文件监听
func (r *Reloader) Stop() {
	r.mu.RLock()
	w := r.watcher
	r.mu.RUnlock()
	if w != nil {
		w.Stop()
	}
}

// Reload 重新加载配置。校验失败时保留旧配置
func (r *Reloader) Reload() error {
	next, err := r.loader.Load()
	if err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	old := r.current
	r.current = next
	hooks := make([]ReloadFunc, len(r.hooks))
	copy(hooks, r.hooks)
	r.mu.Unlock()

	if next.Log.Level != old.Log.Level {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(next.Log.Level)); err != nil {
			r.logger.Warn("invalid log level in reloaded config", zap.String("level", next.Log.Level))
		} else {
			r.level.SetLevel(lvl)
			r.logger.Info("log level changed", zap.String("from", old.Log.Level), zap.String("to", next.Log.Level))
		}
	}
	if restart := RestartRequired(old, next); len(restart) > 0 {
		r.logger.Warn("config changes require restart", zap.Strings("sections", restart))
	}

	for _, fn := range hooks {
		fn(old, next)
	}
	return nil
}

// RestartRequired 返回变化后需要重启才能生效的配置段
func RestartRequired(old, next *Config) []string {
	var out []string
	if old.Server.HTTPPort != next.Server.HTTPPort || old.Server.MetricsPort != next.Server.MetricsPort {
		out = append(out, "server")
	}
	if old.Store != next.Store {
		out = append(out, "store")
	}
	if old.Redis != next.Redis {
		out = append(out, "redis")
	}
	if old.Database != next.Database {
		out = append(out, "database")
	}
	if old.LiveKit != next.LiveKit {
		out = append(out, "livekit")
	}
	if old.Twilio != next.Twilio {
		out = append(out, "twilio")
	}
	if old.Notify.Backend != next.Notify.Backend {
		out = append(out, "notify")
	}
	return out
}
