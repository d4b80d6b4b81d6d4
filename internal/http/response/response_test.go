package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 41)
	if p.TotalPage != 3 {
		t.Fatalf("total page want 3 got %d", p.TotalPage)
	}
	if got := NewPagination(1, 0, 10).TotalPage; got != 0 {
		t.Fatalf("zero page size should not divide, got %d", got)
	}
}

func TestErrorWithDataAttachesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(RequestIDKey, "req-1")

	ErrorWithData(c, CodeConflict, "order state conflict", gin.H{"status": "confirmed"})

	if w.Code != http.StatusOK {
		t.Fatalf("http status want 200 got %d", w.Code)
	}
	var body struct {
		StatusCode int                    `json:"status_code"`
		Data       map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body failed: %v", err)
	}
	if body.StatusCode != CodeConflict || body.Data["request_id"] != "req-1" || body.Data["status"] != "confirmed" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestAttachRequestIDWrapsScalar(t *testing.T) {
	wrapped, ok := attachRequestID("req-2", []int{1}).(gin.H)
	if !ok || wrapped["request_id"] != "req-2" || wrapped["data"] == nil {
		t.Fatalf("scalar data should be wrapped, got %#v", wrapped)
	}
	if got := attachRequestID("", "x"); got != "x" {
		t.Fatalf("empty request id should pass data through")
	}
}
