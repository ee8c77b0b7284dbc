// Copyright 2024 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

/*
Package agent holds the human agent roster used by warm transfers.

# Overview

Registry is the in-process directory of human agents. It is seeded with
DefaultAgents at startup and keeps each agent's availability status:

  - List returns every agent in seed order
  - ListAvailable returns only agents whose status is available
  - Get looks up a single agent by ID
  - SetStatus records a new status and returns the previous one

All methods are safe for concurrent use. Unknown IDs yield a
types.Error with code NOT_FOUND and HTTP status 404.

The transfer state machine itself lives in the handoff subpackage.
*/
package agent
