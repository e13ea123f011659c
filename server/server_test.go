package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clowder-framework/extractors-s2orc-pdf2text/internal/models"
	"github.com/clowder-framework/extractors-s2orc-pdf2text/pkg/llm"
	"github.com/clowder-framework/extractors-s2orc-pdf2text/server"
)

const helloWorld = `{"title": "T", "pdf_parse": {"abstract": [{"text":"Hello [1] world.", "section":"Abstract", "cite_spans":[{"start":6,"end":9}], "ref_spans":[]}], "body_text": []}}`

type fakeEmbedder struct{}

func (fakeEmbedder) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

type memoryStore struct {
	rows []models.SentenceRow
}

func (m *memoryStore) Store(_ context.Context, rows []models.SentenceRow) error {
	m.rows = append(m.rows, rows...)
	return nil
}

func (m *memoryStore) ByFile(_ context.Context, file string) ([]models.SentenceRow, error) {
	var out []models.SentenceRow
	for _, r := range m.rows {
		if r.File == file {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryStore) Query(_ context.Context, embedding []float32, limit int) ([]models.SentenceRow, error) {
	var out []models.SentenceRow
	for _, r := range m.rows {
		if len(r.Embedding) > 0 && r.Embedding[0] == embedding[0] && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryStore) Close() {}

func dial(t *testing.T, config server.Config) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(server.NewWSServer(config).Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType, content, data string) {
	t.Helper()
	msg := server.Message{Type: msgType, Content: content}
	if data != "" {
		msg.Data = json.RawMessage(data)
	}
	require.NoError(t, conn.WriteJSON(msg))
}

func receive(t *testing.T, conn *websocket.Conn) server.Message {
	t.Helper()
	var msg server.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(server.NewWSServer(server.Config{}).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestDocumentMessage(t *testing.T) {
	conn := dial(t, server.Config{})

	send(t, conn, server.TypeDocument, "hello.json", helloWorld)

	text := receive(t, conn)
	require.Equal(t, server.TypeText, text.Type)
	var items []string
	require.NoError(t, json.Unmarshal(text.Data, &items))
	assert.Equal(t, []string{"T", "Abstract", "Hello  world."}, items)

	var rows []models.SentenceRow
	for range 2 {
		msg := receive(t, conn)
		require.Equal(t, server.TypeRow, msg.Type)
		var row models.SentenceRow
		require.NoError(t, json.Unmarshal(msg.Data, &row))
		rows = append(rows, row)
	}
	assert.Equal(t, "title", rows[0].Section)
	assert.Equal(t, "Hello  world.", rows[0].NextSentence)
	assert.Equal(t, "hello.json", rows[1].File)
	assert.Equal(t, "T", rows[1].PrevSentence)

	done := receive(t, conn)
	assert.Equal(t, server.TypeDone, done.Type)
	assert.Equal(t, "hello.json", done.Content)
}

func TestDocumentMessageErrors(t *testing.T) {
	conn := dial(t, server.Config{})

	tests := []struct {
		name    string
		msgType string
		data    string
		want    string
	}{
		{"malformed document", server.TypeDocument, `{"title": "T"}`, "missing key"},
		{"not an object", server.TypeDocument, `"text"`, "broken.json: malformed input"},
		{"unknown type", "chat", "", "unknown message type"},
		{"query without store", server.TypeQuery, "", "embedder and a store"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send(t, conn, tt.msgType, "broken.json", tt.data)
			msg := receive(t, conn)
			assert.Equal(t, server.TypeError, msg.Type)
			assert.Contains(t, msg.Content, tt.want)
		})
	}

	// The connection survives errors.
	send(t, conn, server.TypeDocument, "hello.json", helloWorld)
	assert.Equal(t, server.TypeText, receive(t, conn).Type)
}

func TestEmbedStoreAndQuery(t *testing.T) {
	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{RateLimit: 1000, Client: fakeEmbedder{}})
	require.NoError(t, err)
	store := &memoryStore{}

	conn := dial(t, server.Config{Embedder: embedder, Store: store})

	send(t, conn, server.TypeDocument, "hello.json", helloWorld)
	for {
		msg := receive(t, conn)
		if msg.Type == server.TypeRow {
			var row models.SentenceRow
			require.NoError(t, json.Unmarshal(msg.Data, &row))
			assert.NotEmpty(t, row.Embedding)
		}
		if msg.Type == server.TypeDone {
			break
		}
	}
	require.Len(t, store.rows, 2)

	// "Hello  world." has 13 characters, and so does the query.
	send(t, conn, server.TypeQuery, "thirteen char", "")
	result := receive(t, conn)
	require.Equal(t, server.TypeResult, result.Type)

	var rows []models.SentenceRow
	require.NoError(t, json.Unmarshal(result.Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Hello  world.", rows[0].Sentence)
}
