package main

import (
	"net/http"
	"time"
)

// outboundTimeout bounds every call to the Jira, Tempo, easter-oracle and
// LLM endpoints. None of them stream, so a flat deadline is enough.
const outboundTimeout = 30 * time.Second

var outboundHTTPClient = &http.Client{
	Timeout: outboundTimeout,
}
