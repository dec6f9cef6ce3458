// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gateway

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"
)

// APIKeyHeader is the shared-secret header every mutating endpoint
// requires.
const APIKeyHeader = "X-API-Key"

// requireAPIKey rejects requests without the shared secret before any
// other processing — no rate-limit accounting, no validation, no
// external calls happen for an unauthenticated request.
func (g *Gateway) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplied := r.Header.Get(APIKeyHeader)
		if supplied == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(g.apiKey)) != 1 {
			g.log.Warn("", requestID(r), "rejected request with invalid or missing API key", map[string]interface{}{
				"path": r.URL.Path,
			})
			writeErrorStatus(w, http.StatusForbidden, "invalid or missing API key")
			return
		}
		next(w, r)
	}
}

// callerKey identifies the caller for rate limiting by client address.
// The API key cannot serve here: it is one shared secret, so keying on
// it would collapse every caller into a single quota bucket. Behind a
// proxy the client address is the first X-Forwarded-For hop.
func callerKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
