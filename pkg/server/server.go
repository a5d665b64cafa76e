package server

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bastiangx/wordgraph/pkg/config"
	"github.com/bastiangx/wordgraph/pkg/shard"
	"github.com/bastiangx/wordgraph/pkg/suggest"
)

// maxFrameSize rejects frames no sane client sends.
const maxFrameSize = 1 << 20

// Server handles the IPC for word suggestions.
type Server struct {
	ix     *suggest.Index
	reader *bufio.Reader
	writer io.Writer
	wmu    sync.Mutex

	smu      sync.Mutex
	sessions map[string]*suggest.Session

	maxTextLen int
	wg         sync.WaitGroup
}

// NewServer creates a suggestion server using stdin/stdout for IPC.
func NewServer(ix *suggest.Index, cfg *config.Config) *Server {
	return NewServerWithIO(ix, cfg, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server on explicit streams, used by tests and
// embedders that multiplex their own transport.
func NewServerWithIO(ix *suggest.Index, cfg *config.Config, r io.Reader, w io.Writer) *Server {
	maxTextLen := 0
	if cfg != nil {
		maxTextLen = cfg.Server.MaxTextLen
	}
	if maxTextLen <= 0 {
		maxTextLen = config.DefaultConfig().Server.MaxTextLen
	}
	return &Server{
		ix:         ix,
		reader:     bufio.NewReader(r),
		writer:     w,
		sessions:   make(map[string]*suggest.Session),
		maxTextLen: maxTextLen,
	}
}

// Start begins listening for IPC requests. It returns after the input
// stream closes, once all in-flight suggestion deliveries have settled.
func (s *Server) Start() error {
	log.Debug("Starting server.")

	s.send(StatusResponse{Status: "ready"})

	for {
		frame, err := s.readFrame()
		if err != nil {
			if err == io.EOF {
				s.wg.Wait()
				return nil
			}
			log.Errorf("Reading frame: %v", err)
			s.wg.Wait()
			return err
		}
		s.handleRequest(frame)
	}
}

// readFrame reads one length-prefixed msgpack payload.
func (s *Server) readFrame() ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(s.reader, header[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}

	size := binary.LittleEndian.Uint32(header[:])
	if size == 0 || size > maxFrameSize {
		return nil, fmt.Errorf("frame size %d out of range", size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(s.reader, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// handleRequest decodes and dispatches one request frame.
func (s *Server) handleRequest(frame []byte) {
	var req Request
	if err := msgpack.Unmarshal(frame, &req); err != nil {
		log.Errorf("Unmarshaling request: %v", err)
		s.send(ErrorResponse{Error: "invalid msgpack request", Code: 400})
		return
	}

	switch req.Cmd {
	case "suggest":
		s.handleSuggest(req)
	case "index":
		s.handleIndex(req)
	case "health":
		s.send(StatusResponse{ID: req.ID, Status: "ok"})
	default:
		s.send(ErrorResponse{ID: req.ID, Error: fmt.Sprintf("unknown command: %s", req.Cmd), Code: 400})
	}
}

// handleSuggest answers a suggestion request asynchronously. A request
// superseded by a newer one on the same session is dropped without a
// response; the client's newer request is the only one it still wants.
func (s *Server) handleSuggest(req Request) {
	if req.Text == "" {
		s.send(ErrorResponse{ID: req.ID, Error: "missing 'q' parameter", Code: 400})
		return
	}
	if len(req.Text) > s.maxTextLen {
		s.send(ErrorResponse{ID: req.ID, Error: fmt.Sprintf("input exceeds maximum length of %d", s.maxTextLen), Code: 400})
		return
	}

	sess := s.session(req.Session)
	q := suggest.Query{Limit: req.Limit, MinWeight: req.MinWeight}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		start := time.Now()
		result, stale := sess.Resolve(context.Background(), req.Text, q)
		if stale {
			log.Debugf("Dropping stale response for request %s", req.ID)
			return
		}

		entries := make([]SuggestionEntry, len(result))
		for i, sg := range result {
			entries[i] = SuggestionEntry{Word: sg.Word, Weight: sg.Weight}
		}
		s.send(SuggestResponse{
			ID:          req.ID,
			Suggestions: entries,
			Count:       len(entries),
			TimeTaken:   time.Since(start).Microseconds(),
		})
	}()
}

// handleIndex serves index management actions.
func (s *Server) handleIndex(req Request) {
	switch req.Action {
	case "stats":
		stats := s.ix.Snapshot()
		loaded := make([]int, len(stats.LoadedShards))
		for i, id := range stats.LoadedShards {
			loaded[i] = int(id)
		}
		s.send(IndexResponse{
			ID:           req.ID,
			Status:       "ok",
			LoadedShards: loaded,
			Words:        stats.Words,
			Edges:        stats.Edges,
			Fetches:      stats.Fetches,
		})
	case "set_capacity":
		if req.Capacity == nil || *req.Capacity < 1 {
			s.send(IndexResponse{ID: req.ID, Status: "error", Error: "set_capacity needs a positive 'capacity'"})
			return
		}
		s.ix.SetCapacity(*req.Capacity)
		s.send(IndexResponse{ID: req.ID, Status: "ok"})
	case "prewarm":
		ids := make([]shard.ID, len(req.Shards))
		for i, id := range req.Shards {
			ids[i] = shard.ID(id)
		}
		if err := s.ix.Prewarm(context.Background(), ids...); err != nil {
			s.send(IndexResponse{ID: req.ID, Status: "error", Error: err.Error()})
			return
		}
		s.send(IndexResponse{ID: req.ID, Status: "ok"})
	default:
		s.send(IndexResponse{ID: req.ID, Status: "error", Error: fmt.Sprintf("unknown action: %s", req.Action)})
	}
}

// session returns the delivery session for id, creating it on first use.
// The empty id shares one default session.
func (s *Server) session(id string) *suggest.Session {
	s.smu.Lock()
	defer s.smu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = s.ix.NewSession()
		s.sessions[id] = sess
	}
	return sess
}

// send writes one response frame. Writes are serialized because suggestion
// responses come from concurrent goroutines.
func (s *Server) send(response any) {
	data, err := msgpack.Marshal(response)
	if err != nil {
		log.Errorf("Marshaling response: %v", err)
		return
	}

	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(data)))

	s.wmu.Lock()
	defer s.wmu.Unlock()
	if _, err := s.writer.Write(header[:]); err != nil {
		log.Errorf("Writing response header: %v", err)
		return
	}
	if _, err := s.writer.Write(data); err != nil {
		log.Errorf("Writing response: %v", err)
	}
}
