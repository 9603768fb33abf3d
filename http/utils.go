package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	gut "github.com/panyam/goutils/utils"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// SendJsonResponse writes a JSON response to the http.ResponseWriter.
// If err is nil, resp is marshaled to JSON and written with status 200 OK.
// If err is non-nil, an appropriate HTTP error code is set based on the gRPC
// status code (if present), and an error object is returned in the response body.
//
// The function handles gRPC status errors by extracting the code and message,
// and maps them to appropriate HTTP status codes via ErrorToHttpCode.
func SendJsonResponse(writer http.ResponseWriter, resp any, err error) {
	output := resp
	httpCode := ErrorToHttpCode(err)
	if err != nil {
		if er, ok := status.FromError(err); ok {
			output = gut.StrMap{
				"error":   er.Code().String(),
				"message": er.Message(),
			}
		} else {
			output = gut.StrMap{
				"error": err.Error(),
			}
		}
	}
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(httpCode)
	jsonResp, err := json.Marshal(output)
	if err != nil {
		log.Println("Error happened in JSON marshal. Err: ", err)
	}
	writer.Write(jsonResp)
}

// ErrorToHttpCode converts a Go error to an HTTP status code.
// A nil error is 200, a gRPC NotFound status is 404 and everything else is 500.
func ErrorToHttpCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if er, ok := status.FromError(err); ok && er.Code() == codes.NotFound {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// NotFoundHandler answers requests for unregistered paths with a JSON 404.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SendJsonResponse(w, nil, status.Errorf(codes.NotFound, "no websocket route on %s", r.URL.Path))
	})
}

// NormalizeWsUrl converts an HTTP(S) URL to its WebSocket equivalent.
// It performs the following transformations:
//   - Removes trailing slashes
//   - Converts "http:" to "ws:"
//   - Converts "https:" to "wss:"
//
// URLs that are already WebSocket URLs (ws: or wss:) are returned unchanged
// after removing any trailing slash.
//
// Example:
//
//	NormalizeWsUrl("https://example.com/ws/") // "wss://example.com/ws"
func NormalizeWsUrl(httpOrWsUrl string) string {
	httpOrWsUrl = strings.TrimSuffix(httpOrWsUrl, "/")
	if strings.HasPrefix(httpOrWsUrl, "http:") {
		httpOrWsUrl = "ws:" + httpOrWsUrl[len("http:"):]
	}
	if strings.HasPrefix(httpOrWsUrl, "https:") {
		httpOrWsUrl = "wss:" + httpOrWsUrl[len("https:"):]
	}
	return httpOrWsUrl
}
