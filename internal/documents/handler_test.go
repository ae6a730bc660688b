package documents_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"docchat-backend/internal/bootstrap"
	sharedauth "docchat-backend/internal/shared/auth"
	"docchat-backend/internal/shared/config"
)

func newTestApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")

	cfg := config.Config{
		Port:            "0",
		Env:             "dev",
		CORSAllowOrigin: []string{"http://localhost:3000"},
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		UploadLimit:     7,
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := sharedauth.SignJWT(sharedauth.Claims{
		Sub:   userID,
		Email: userID + "@example.com",
	})
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}
	return "Bearer " + token
}

func uploadFile(t *testing.T, router *gin.Engine, token, fileName, content string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fileWriter, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fileWriter.Write([]byte(content)); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestDocumentsUploadListAndUsage(t *testing.T) {
	app := newTestApp(t)
	token := bearerToken(t, "google:alice")

	resp := uploadFile(t, app.Router, token, "hello.txt", "hello world")
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var created struct {
		DocumentID string `json:"documentId"`
		FileName   string `json:"fileName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.DocumentID == "" {
		t.Fatalf("expected documentId, got empty")
	}
	if created.FileName != "hello.txt" {
		t.Fatalf("expected fileName hello.txt, got %s", created.FileName)
	}

	reqList := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	reqList.Header.Set("Authorization", token)
	respList := httptest.NewRecorder()
	app.Router.ServeHTTP(respList, reqList)

	if respList.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", respList.Code)
	}
	var listed []struct {
		DocumentID string `json:"documentId"`
	}
	if err := json.NewDecoder(respList.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(listed) != 1 || listed[0].DocumentID != created.DocumentID {
		t.Fatalf("expected the uploaded document listed, got %+v", listed)
	}

	reqUsage := httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil)
	reqUsage.Header.Set("Authorization", token)
	respUsage := httptest.NewRecorder()
	app.Router.ServeHTTP(respUsage, reqUsage)

	if respUsage.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", respUsage.Code)
	}
	var usage struct {
		Limit     int `json:"limit"`
		Used      int `json:"used"`
		Remaining int `json:"remaining"`
	}
	if err := json.NewDecoder(respUsage.Body).Decode(&usage); err != nil {
		t.Fatalf("decode usage response: %v", err)
	}
	if usage.Limit != 7 || usage.Used != 1 || usage.Remaining != 6 {
		t.Fatalf("expected limit=7 used=1 remaining=6, got %+v", usage)
	}
}

func TestDocumentsUploadRefusedAtCeiling(t *testing.T) {
	app := newTestApp(t)
	token := bearerToken(t, "google:bob")

	for i := 0; i < 7; i++ {
		resp := uploadFile(t, app.Router, token, fmt.Sprintf("doc-%d.txt", i), "body")
		if resp.Code != http.StatusCreated {
			t.Fatalf("upload %d: expected 201, got %d: %s", i, resp.Code, resp.Body.String())
		}
	}

	resp := uploadFile(t, app.Router, token, "one-too-many.txt", "body")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d: %s", resp.Code, resp.Body.String())
	}
	var errResp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Error.Code != "quota_exceeded" {
		t.Fatalf("expected quota_exceeded, got %s", errResp.Error.Code)
	}

	reqUsage := httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil)
	reqUsage.Header.Set("Authorization", token)
	respUsage := httptest.NewRecorder()
	app.Router.ServeHTTP(respUsage, reqUsage)

	var usage struct {
		Used      int `json:"used"`
		Remaining int `json:"remaining"`
	}
	if err := json.NewDecoder(respUsage.Body).Decode(&usage); err != nil {
		t.Fatalf("decode usage response: %v", err)
	}
	if usage.Used != 7 || usage.Remaining != 0 {
		t.Fatalf("expected used=7 remaining=0, got %+v", usage)
	}
}

func TestDocumentsUploadRequiresAuth(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestDocumentsCustomFileNameOverride(t *testing.T) {
	app := newTestApp(t)
	token := bearerToken(t, "google:carol")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fileWriter, err := writer.CreateFormFile("file", "original.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fileWriter.Write([]byte("hello")); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.WriteField("fileName", "renamed.txt"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", token)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		FileName string `json:"fileName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.FileName != "renamed.txt" {
		t.Fatalf("expected fileName renamed.txt, got %s", created.FileName)
	}
}
