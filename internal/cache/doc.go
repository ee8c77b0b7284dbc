// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 cache 管理服务共享的 Redis 连接。

Manager 在启动时 Ping 校验连通性，后台定时健康检查并记录状态变化，
Client 返回的客户端供 Redis 会话存储与 Redis 通知中继共用，
Healthy 供就绪检查使用。
*/
package cache
