package medline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `<?xml version="1.0" encoding="UTF-8"?>
<nlmSearchResult>
  <list>
    <document rank="0" url="https://medlineplus.gov/diabetes.html">
      <content name="title">Diabetes <span class="qt0">Mellitus</span></content>
      <content name="FullSummary">Diabetes is a disease in which blood sugar levels are too high. It affects millions.</content>
    </document>
    <document rank="1" url="https://medlineplus.gov/a1c.html">
      <content name="title">A1C</content>
      <content name="snippet">A1C is a blood test for &lt;b&gt;type 2 diabetes&lt;/b&gt;.</content>
    </document>
    <document rank="2" url="https://medlineplus.gov/insulin.html">
      <content name="title">Insulin</content>
    </document>
    <document rank="3" url="">
      <content name="title">No URL</content>
      <content name="summary">should be skipped</content>
    </document>
    <document rank="4" url="https://medlineplus.gov/untitled.html">
      <content name="summary">no title, should be skipped</content>
    </document>
  </list>
</nlmSearchResult>`

func TestSearchParsesResponse(t *testing.T) {
	var gotQuery atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	docs := client.Search(context.Background(), "  diabetes ", 5)

	require.Len(t, docs, 3)

	// Title is tag-stripped and the full summary field wins the chain.
	assert.Equal(t, "Diabetes Mellitus", docs[0].Title)
	assert.Equal(t, "https://medlineplus.gov/diabetes.html", docs[0].URL)
	assert.Equal(t, "Diabetes is a disease in which blood sugar levels are too high. It affects millions.", docs[0].Summary)
	assert.Equal(t, "MedlinePlus", docs[0].Source)

	// Snippet is the last fallback; escaped entities are decoded then stripped.
	assert.Equal(t, "A1C is a blood test for type 2 diabetes.", docs[1].Summary)

	// No summary-like field at all: placeholder instead of dropping.
	assert.Equal(t, "description unavailable", docs[2].Summary)

	query := gotQuery.Load().(url.Values)
	assert.Equal(t, "healthTopics", query["db"][0])
	assert.Equal(t, "diabetes", query["term"][0], "term should be trimmed")
	assert.Equal(t, "5", query["retmax"][0])
}

func TestSearchEmptyTerm(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	assert.Empty(t, client.Search(context.Background(), "", 5))
	assert.Empty(t, client.Search(context.Background(), "   \t", 5))
	assert.Equal(t, int32(0), calls.Load(), "no request should be issued for an empty term")
}

func TestSearchMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<<<not xml"))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	assert.Empty(t, client.Search(context.Background(), "diabetes", 5))
}

func TestSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	assert.Empty(t, client.Search(context.Background(), "diabetes", 5))
}

func TestSearchNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := NewClient(WithBaseURL(server.URL))
	assert.Empty(t, client.Search(context.Background(), "diabetes", 5))
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "", stripHTML(""))
	assert.Equal(t, "plain", stripHTML("plain"))
	assert.Equal(t, "bold text", stripHTML("<b>bold</b> text"))
	assert.Equal(t, `a "quoted" & ampersand`, stripHTML("a &quot;quoted&quot; &amp; ampersand"))
}
