// Package telemetry 封装 OpenTelemetry SDK 初始化，
// 为转接服务提供 TracerProvider、MeterProvider 与 W3C 传播器。
// 禁用时使用 noop 实现，不连接任何外部服务。
package telemetry
