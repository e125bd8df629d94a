// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Key computes the content-addressed cache key for a request.
//
// Description:
//
//	Computes a SHA-256 hash over the trimmed request text and the
//	canonical JSON encoding of the request context. Two requests with
//	the same text and context always map to the same key, regardless
//	of context map iteration order (encoding/json emits map keys
//	sorted).
//
// Inputs:
//
//	text - The raw request text. Leading/trailing whitespace is ignored.
//	requestContext - Optional request context. Nil and empty are equivalent.
//
// Outputs:
//
//	string - Hex-encoded hash, stable across processes.
//
// Thread Safety: This function is safe for concurrent use.
func Key(text string, requestContext map[string]any) string {
	h := sha256.New()
	h.Write([]byte(strings.TrimSpace(text)))
	h.Write([]byte("|"))

	if len(requestContext) > 0 {
		if b, err := json.Marshal(requestContext); err == nil {
			h.Write(b)
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}
