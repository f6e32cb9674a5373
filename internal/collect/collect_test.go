package collect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const accountPage = `<html><body>
<a href="/p/AAA/">one</a>
<a href="/p/AAA/#comments">dup</a>
<a href="/explore/">nav</a>
<a href="https://www.instagram.com/reel/BBB/?utm=x">reel</a>
<a href="/p/CCC/">three</a>
</body></html>`

func TestExtractLinks(t *testing.T) {
	got, err := ExtractLinks("https://www.instagram.com/acct/", []byte(accountPage), []string{"/p/", "/reel/"}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"https://www.instagram.com/p/AAA/",
		"https://www.instagram.com/reel/BBB/?utm=x",
		"https://www.instagram.com/p/CCC/",
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("link %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExtractLinksMax(t *testing.T) {
	got, _ := ExtractLinks("https://www.instagram.com/acct/", []byte(accountPage), []string{"/p/", "/reel/"}, 2)
	if len(got) != 2 {
		t.Errorf("expected 2 links, got %v", got)
	}
}

func TestPageSourceDiscover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(accountPage))
	}))
	defer srv.Close()

	s := NewPageSource(srv.URL+"/acct/", []string{"/p/"}, 0, 0, nil)
	got, err := s.Discover(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != srv.URL+"/p/AAA/" {
		t.Errorf("unexpected links %v", got)
	}
}

func TestPageSourceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewPageSource(srv.URL, []string{"/p/"}, 0, 0, nil).Discover(context.Background()); err == nil {
		t.Error("expected error")
	}
}

const rss = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>acct</title>
<item><title>a</title><link>https://www.facebook.com/acct/posts/1</link></item>
<item><title>b</title><guid>https://www.facebook.com/acct/posts/2</guid></item>
<item><title>dup</title><link>https://www.facebook.com/acct/posts/1</link></item>
<item><title>c</title><link>https://www.facebook.com/acct/posts/3</link></item>
</channel></rss>`

func TestFeedSourceDiscover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rss))
	}))
	defer srv.Close()

	got, err := NewFeedSource(srv.URL, 0, nil).Discover(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"https://www.facebook.com/acct/posts/1",
		"https://www.facebook.com/acct/posts/2",
		"https://www.facebook.com/acct/posts/3",
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("link %d = %q, want %q", i, got[i], want[i])
		}
	}

	capped, _ := NewFeedSource(srv.URL, 1, nil).Discover(context.Background())
	if len(capped) != 1 {
		t.Errorf("expected 1 link with max, got %v", capped)
	}
}
