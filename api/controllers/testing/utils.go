package testing

import (
	"bytes"
	"encoding/json"
	"github.com/gin-gonic/gin"
	"net/http/httptest"
)

// RawBody is sent to the router untouched, for requests that must not be valid JSON.
type RawBody string

// PerformRequest runs a JSON request against the router and records the response.
func PerformRequest(router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	reqBody := &bytes.Buffer{}
	switch b := body.(type) {
	case nil:
	case RawBody:
		reqBody.WriteString(string(b))
	default:
		if err := json.NewEncoder(reqBody).Encode(b); err != nil {
			panic("failed to marshal request body: " + err.Error())
		}
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}
