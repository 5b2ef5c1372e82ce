package lti_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lhr-rocks/catbridge/internal/lti"
)

// fakePlatform serves the OAuth token endpoint and a line-items collection.
func fakePlatform(t *testing.T) (*httptest.Server, *[]lti.LineItem, *[]lti.Score) {
	t.Helper()
	var items []lti.LineItem
	var scores []lti.Score
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostFormValue("grant_type") != "client_credentials" {
			http.Error(w, "bad token request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1", "token_type": "Bearer", "expires_in": 3600})
	})
	mux.HandleFunc("/lineitems", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		switch r.Method {
		case http.MethodGet:
			rl := r.URL.Query().Get("resource_link_id")
			out := []lti.LineItem{}
			for _, it := range items {
				if rl == "" || it.ResourceLinkID == rl {
					out = append(out, it)
				}
			}
			_ = json.NewEncoder(w).Encode(out)
		case http.MethodPost:
			var li lti.LineItem
			_ = json.NewDecoder(r.Body).Decode(&li)
			li.ID = "http://" + r.Host + "/lineitems/1"
			items = append(items, li)
			_ = json.NewEncoder(w).Encode(li)
		}
	})
	mux.HandleFunc("/lineitems/1/scores", func(w http.ResponseWriter, r *http.Request) {
		var s lti.Score
		_ = json.NewDecoder(r.Body).Decode(&s)
		scores = append(scores, s)
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &items, &scores
}

func newTestAGS(srv *httptest.Server) *lti.AGSClient {
	return lti.NewAGSClient(lti.AGSConfig{
		TokenURL:     srv.URL + "/token",
		ClientID:     "client-1",
		ClientSecret: "secret",
		Timeout:      time.Second,
	})
}

func TestAGSCreateListPost(t *testing.T) {
	srv, items, scores := fakePlatform(t)
	c := newTestAGS(srv)
	ctx := context.Background()

	created, err := c.CreateLineItem(ctx, srv.URL+"/lineitems", lti.LineItem{
		ScoreMaximum:   100,
		Label:          "Grade",
		Tag:            "grade",
		ResourceLinkID: "rl-1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created line item must carry its URL")
	}
	if len(*items) != 1 || (*items)[0].Label != "Grade" || (*items)[0].Tag != "grade" {
		t.Fatalf("unexpected items on platform: %+v", *items)
	}

	listed, err := c.ListLineItems(ctx, srv.URL+"/lineitems", "rl-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("unexpected listing: %+v", listed)
	}
	if listed, _ = c.ListLineItems(ctx, srv.URL+"/lineitems", "rl-other"); len(listed) != 0 {
		t.Fatalf("filter must exclude foreign resource links: %+v", listed)
	}

	err = c.PostScore(ctx, created.ID, lti.Score{
		UserID:           "platform-sub-123",
		ScoreGiven:       73.4567,
		ScoreMaximum:     100,
		ActivityProgress: "Completed",
		GradingProgress:  "FullyGraded",
	})
	if err != nil {
		t.Fatalf("post score: %v", err)
	}
	if len(*scores) != 1 {
		t.Fatalf("expected 1 score on platform, got %d", len(*scores))
	}
	got := (*scores)[0]
	if got.ScoreGiven != 73.4567 || got.Timestamp == "" {
		t.Fatalf("unexpected score payload: %+v", got)
	}
}

func TestAGSPostScoreNon2xx(t *testing.T) {
	srv, _, _ := fakePlatform(t)
	c := newTestAGS(srv)

	err := c.PostScore(context.Background(), srv.URL+"/missing", lti.Score{UserID: "u"})
	if err == nil {
		t.Fatal("expected error for a rejected score")
	}
}
