// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 管理 HTTP/HTTPS 服务器的生命周期。

Manager 封装 net/http.Server：Start 非阻塞启动，Shutdown 在超时内排空请求，
Errors 暴露后台服务错误。配置证书与私钥后以 HTTPS 提供服务，
TLS 参数来自 tlsutil。API 服务与 /metrics 服务各使用一个 Manager。
*/
package server
