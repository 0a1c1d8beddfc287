package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestIndexClient_Search(t *testing.T) {
	var gotReq indexSearchRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v1/search" {
			t.Errorf("path = %s, want /v1/search", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}

		_ = json.NewEncoder(w).Encode(indexSearchResponse{Results: []Chunk{
			{DocumentID: "d1", ChunkID: "c1", Snippet: "first", Score: 0.9},
			{DocumentID: "d2", ChunkID: "c4", Snippet: "second", Score: 0.5},
		}})
	}))
	defer server.Close()

	client := NewIndexClient(server.URL, "secret", 5*time.Second)

	chunks, err := client.Search(context.Background(), "replication lag", Filters{"collection": "ops"}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Query != "replication lag" || gotReq.Limit != 10 {
		t.Errorf("request = %+v", gotReq)
	}
	if gotReq.Filters["collection"] != "ops" {
		t.Errorf("filters not forwarded: %+v", gotReq.Filters)
	}
	if len(chunks) != 2 || chunks[0].DocumentID != "d1" || chunks[1].Snippet != "second" {
		t.Errorf("chunks = %+v", chunks)
	}
}

func TestIndexClient_LimitEnforcedClientSide(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := indexSearchResponse{}
		for i := 0; i < 5; i++ {
			resp.Results = append(resp.Results, Chunk{DocumentID: "d", ChunkID: string(rune('a' + i))})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewIndexClient(server.URL, "", 5*time.Second)

	chunks, err := client.Search(context.Background(), "q", nil, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(chunks) != 2 {
		t.Errorf("got %d chunks, want the limit to trim to 2", len(chunks))
	}
}

func TestIndexClient_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(indexSearchResponse{Error: "shard offline"})
	}))
	defer server.Close()

	client := NewIndexClient(server.URL, "", 5*time.Second)

	_, err := client.Search(context.Background(), "q", nil, 5)
	if err == nil || !strings.Contains(err.Error(), "shard offline") {
		t.Errorf("expected the service error message, got %v", err)
	}
}

func TestIndexClient_EmptyQuery(t *testing.T) {
	client := NewIndexClient("http://localhost:0", "", time.Second)
	if _, err := client.Search(context.Background(), "  ", nil, 5); err == nil {
		t.Error("expected error for empty query")
	}
}
