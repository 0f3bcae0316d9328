package gpt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDecodeItems(t *testing.T) {
	t.Parallel()

	items, err := decodeItems("```json\n{\"items\":[{\"food_name\":\" Oatmeal \",\"quantity\":\"1 bowl\",\"calories\":300,\"protein\":10,\"carbs\":54,\"fat\":5},{\"food_name\":\"\",\"calories\":10}]}\n```")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].FoodName != "Oatmeal" || items[0].Carbs != 54 {
		t.Fatalf("unexpected items %+v", items)
	}

	if _, err := decodeItems(`{"items":[{"food_name":"x","calories":-5}]}`); err == nil {
		t.Fatalf("expected error for negative calories")
	}
	if _, err := decodeItems("not json"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestParseMealCallsChatCompletions(t *testing.T) {
	t.Parallel()

	gotModel := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel <- body.Model

		content := `{"items":[{"food_name":"Banana","quantity":"1 medium","calories":105,"protein":1.3,"carbs":27,"fat":0.4}]}`
		resp := map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  body.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", srv.URL+"/v1").WithModel("test-model")
	items, err := c.ParseMeal(context.Background(), "a banana")
	if err != nil {
		t.Fatalf("parse meal: %v", err)
	}
	if m := <-gotModel; m != "test-model" {
		t.Fatalf("expected model test-model, got %q", m)
	}
	if len(items) != 1 || items[0].FoodName != "Banana" || items[0].Calories != 105 {
		t.Fatalf("unexpected items %+v", items)
	}
}
