// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 migration 管理 transfer_sessions 表的版本化 Schema 迁移，
基于 golang-migrate 实现，支持 PostgreSQL 与 MySQL。

# 概述

各方言的 SQL 文件通过 embed.FS 内嵌，DefaultMigrator 以 iofs 作为源、
以数据库 URL 作为目标驱动迁移。SQLite 没有版本化迁移，
使用 sqlite 存储时由 gorm AutoMigrate 建表。

# 核心类型

  - Migrator：迁移器接口（Up/Down/Steps/Force/Version/Status/Info）。
  - DefaultMigrator：golang-migrate 实现。
  - CLI：migrate 子命令的终端输出层。
*/
package migration
