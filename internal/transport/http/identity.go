package http

import (
	"net/http"
	"strings"

	"github.com/opentix/ledger/internal/domain"
)

// callerIDHeader carries the caller identity attached by the external
// authentication proxy. The service trusts it as already authenticated and
// never validates it; requests without one are treated as anonymous.
const callerIDHeader = "X-Caller-ID"

func callerID(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(callerIDHeader))
	if id == "" {
		return domain.AnonymousCaller
	}
	return id
}
