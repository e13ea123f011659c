package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/clowder-framework/extractors-s2orc-pdf2text/internal/models"
	"github.com/clowder-framework/extractors-s2orc-pdf2text/internal/types"
	"github.com/clowder-framework/extractors-s2orc-pdf2text/pkg/document"
	"github.com/clowder-framework/extractors-s2orc-pdf2text/pkg/llm"
	"github.com/clowder-framework/extractors-s2orc-pdf2text/pkg/processor"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// Message is the frame exchanged on /ws in both directions. Data is kept raw
// so incoming documents are decoded with their key order intact.
type Message struct {
	Type    string          `json:"type"`
	Content string          `json:"content,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

const (
	TypeDocument = "document"
	TypeQuery    = "query"
	TypeText     = "text"
	TypeRow      = "row"
	TypeResult   = "result"
	TypeDone     = "done"
	TypeError    = "error"
)

type Config struct {
	Port      int
	Processor processor.ProcessorConfig
	// Embedder, when set, embeds every row before it is sent back.
	Embedder *llm.Embedder
	// Store, when set, keeps processed rows and answers query messages.
	Store       types.RowStore
	SearchLimit int
}

type WSServer struct {
	config    Config
	processor types.Processor
}

func NewWSServer(config Config) *WSServer {
	if config.Port == 0 {
		config.Port = 8080
	}
	if config.SearchLimit == 0 {
		config.SearchLimit = 5
	}

	p := processor.NewWithConfig(config.Processor)
	return &WSServer{
		config:    config,
		processor: &p,
	}
}

// Handler serves /ws and /health.
func (s *WSServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)

	// Add a simple health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

func (s *WSServer) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("Starting WebSocket server on port %d", s.config.Port)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Error reading message: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			s.sendMessage(conn, TypeError, fmt.Sprintf("invalid message: %v", err), nil)
			continue
		}

		// Replies to one message are written before the next is read, so a
		// client sees text, rows and done in order.
		s.handleMessage(r.Context(), conn, msg)
	}
}

func (s *WSServer) handleMessage(ctx context.Context, conn *websocket.Conn, msg Message) {
	switch msg.Type {
	case TypeDocument:
		s.handleDocument(ctx, conn, msg)
	case TypeQuery:
		s.handleQuery(ctx, conn, msg)
	default:
		s.sendMessage(conn, TypeError, fmt.Sprintf("unknown message type %q", msg.Type), nil)
	}
}

func (s *WSServer) handleDocument(ctx context.Context, conn *websocket.Conn, msg Message) {
	raw, err := document.DecodeBytes(msg.Data)
	if err != nil {
		s.sendMessage(conn, TypeError, fmt.Sprintf("%s: %v", msg.Content, err), nil)
		return
	}

	processed, err := s.processor.ProcessDocument(models.Document{File: msg.Content, Raw: raw})
	if err != nil {
		s.sendMessage(conn, TypeError, err.Error(), nil)
		return
	}

	if s.config.Embedder != nil {
		if err := s.config.Embedder.EmbedRows(ctx, processed.Rows); err != nil {
			s.sendMessage(conn, TypeError, fmt.Sprintf("%s: %v", msg.Content, err), nil)
			return
		}
	}
	if s.config.Store != nil {
		if err := s.config.Store.Store(ctx, processed.Rows); err != nil {
			s.sendMessage(conn, TypeError, fmt.Sprintf("%s: %v", msg.Content, err), nil)
			return
		}
	}

	s.sendMessage(conn, TypeText, "", processed.Text)
	for _, row := range processed.Rows {
		s.sendMessage(conn, TypeRow, "", row)
	}
	s.sendMessage(conn, TypeDone, msg.Content, nil)
}

func (s *WSServer) handleQuery(ctx context.Context, conn *websocket.Conn, msg Message) {
	if s.config.Embedder == nil || s.config.Store == nil {
		s.sendMessage(conn, TypeError, "queries need an embedder and a store", nil)
		return
	}

	embeddings, err := s.config.Embedder.CreateEmbedding(ctx, []string{msg.Content})
	if err != nil {
		s.sendMessage(conn, TypeError, fmt.Sprintf("Failed to create query embeddings: %v", err), nil)
		return
	}

	rows, err := s.config.Store.Query(ctx, embeddings[0], s.config.SearchLimit)
	if err != nil {
		s.sendMessage(conn, TypeError, fmt.Sprintf("Error querying sentences: %v", err), nil)
		return
	}

	s.sendMessage(conn, TypeResult, msg.Content, rows)
}

func (s *WSServer) sendMessage(conn *websocket.Conn, msgType string, content string, data any) {
	msg := Message{
		Type:    msgType,
		Content: content,
	}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			log.Printf("Error encoding %s message: %v", msgType, err)
			return
		}
		msg.Data = b
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}
