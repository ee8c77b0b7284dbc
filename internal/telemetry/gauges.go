package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/BaSui01/warmtransfer"

// Observer 在每个采集周期返回仪表的当前值
type Observer func(ctx context.Context) (int64, error)

// Meter 返回服务的 Meter；禁用时落到全局 noop MeterProvider
func (p *Providers) Meter() metric.Meter {
	if p != nil && p.mp != nil {
		return p.mp.Meter(instrumentationName)
	}
	return otel.Meter(instrumentationName)
}

// RegisterGauge 注册按周期回调的 int64 仪表，例如活跃转接数。
// 返回的 Registration 用于注销回调。
func RegisterGauge(meter metric.Meter, name, description string, observe Observer) (metric.Registration, error) {
	gauge, err := meter.Int64ObservableGauge(name, metric.WithDescription(description))
	if err != nil {
		return nil, err
	}
	return meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		v, err := observe(ctx)
		if err != nil {
			return err
		}
		o.ObserveInt64(gauge, v)
		return nil
	}, gauge)
}
