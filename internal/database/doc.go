// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 database 提供基于 GORM 的数据库连接池管理。

Open 按驱动（postgres、mysql、sqlite）选择方言并打开连接，
PoolManager 负责连接池参数、后台健康检查与连接数指标上报，
DB 返回的 *gorm.DB 供 SQL 会话存储使用。
*/
package database
