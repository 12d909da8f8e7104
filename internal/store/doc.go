// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

// Package store owns the registry database: schema migrations and pool setup.
package store
