// Package tlsutil 提供集中式 TLS 配置（TLS 1.2+，仅 AEAD 密码套件），
// 供协作方 HTTP 客户端与 HTTPS 服务端共用。
package tlsutil
