// CineScout - Conversational Movie & TV Recommendation Service
// Copyright 2026 Mraprguild
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mraprguild/cinescout

package catalog

import "errors"

// ErrNotFound indicates the catalog has no item with the requested
// kind and ID.
var ErrNotFound = errors.New("content not found")
