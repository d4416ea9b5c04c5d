package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"frag-viewer/internal/camera"
	"frag-viewer/internal/config"
	"frag-viewer/internal/fragment"
	"frag-viewer/internal/readiness"
	"frag-viewer/internal/session"
	"frag-viewer/internal/visibility"
	"frag-viewer/pkg/debug"
)

//go:embed static
var staticFiles embed.FS

// actionQueueSize bounds buffered client actions; the worker drains
// them serially so session mutations never interleave.
const actionQueueSize = 64

// Server hosts the viewer frontend and the engine websocket.
type Server struct {
	cfg config.Config
	lib *fragment.Library
	mux *http.ServeMux

	upgrader websocket.Upgrader

	mu      sync.Mutex
	peer    *peer
	claimed bool
}

// peer is one connected rendering client with its session.
type peer struct {
	ws      *websocket.Conn
	eng     *RemoteEngine
	sess    *session.Session
	actions chan Envelope
	done    chan struct{}
}

// NewServer builds the HTTP handler set for the given config and
// fragment library.
func NewServer(cfg config.Config, lib *fragment.Library) *Server {
	s := &Server{
		cfg: cfg,
		lib: lib,
		mux: http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.mux.Handle("/", http.FileServer(http.FS(static)))
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/fragments", s.handleFragments)
	s.mux.HandleFunc("/api/fragments/", s.handleFragmentFile)
	s.mux.HandleFunc("/ws", s.handleWS)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// NotifyLibraryChanged pushes the fragment list to the connected
// client; the directory watcher calls this.
func (s *Server) NotifyLibraryChanged() {
	s.mu.Lock()
	p := s.peer
	s.mu.Unlock()
	if p != nil {
		s.pushLibrary(p)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p := s.peer
	s.mu.Unlock()

	resp := struct {
		Connected bool        `json:"connected"`
		Status    string      `json:"status,omitempty"`
		Models    []modelInfo `json:"models,omitempty"`
	}{}
	if p != nil {
		resp.Connected = true
		resp.Status = p.sess.StatusText()
		resp.Models = modelInfos(p.sess)
	}
	writeJSON(w, resp)
}

func (s *Server) handleFragments(w http.ResponseWriter, r *http.Request) {
	infos, err := s.lib.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, libraryPayload(infos))
}

func (s *Server) handleFragmentFile(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Path[len("/api/fragments/"):]
	data, err := s.lib.Read(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}

// handleWS upgrades the rendering client connection. One client at a
// time; a second connection is refused until the first disconnects.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.claimPeerSlot() {
		http.Error(w, "viewer already connected", http.StatusConflict)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.releasePeerSlot()
		log.Printf("web: websocket upgrade: %v", err)
		return
	}

	p, err := s.attach(ws)
	if err != nil {
		s.releasePeerSlot()
		log.Printf("web: client handshake failed: %v", err)
		ws.Close()
		return
	}
	log.Printf("web: rendering client connected from %s", r.RemoteAddr)

	go s.actionWorker(p)
	s.readLoop(p)
	s.detach(p)
	log.Printf("web: rendering client disconnected")
}

// attach performs the hello handshake and builds the session.
func (s *Server) attach(ws *websocket.Conn) (*peer, error) {
	_, data, err := ws.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("reading hello: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parsing hello: %w", err)
	}
	if env.Type != TypeHello {
		return nil, fmt.Errorf("expected %s, got %s", TypeHello, env.Type)
	}
	var hello helloPayload
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &hello); err != nil {
			return nil, fmt.Errorf("parsing hello payload: %w", err)
		}
	}

	eng := NewRemoteEngine(ws, hello.Perspective)

	store, err := s.registryStore()
	if err != nil {
		return nil, err
	}
	sess, err := session.New(eng,
		session.WithSettings(s.cfg.CameraSettings()),
		session.WithRegistryStore(store),
		session.WithMonitor(readiness.NewMonitor(
			readiness.WithInterval(s.cfg.ReadinessInterval()),
			readiness.WithTimeout(s.cfg.ReadinessTimeout()),
		)),
	)
	if err != nil {
		return nil, err
	}

	p := &peer{
		ws:      ws,
		eng:     eng,
		sess:    sess,
		actions: make(chan Envelope, actionQueueSize),
		done:    make(chan struct{}),
	}
	s.wireEvents(p)

	s.mu.Lock()
	s.peer = p
	s.mu.Unlock()

	s.pushLibrary(p)
	s.pushModels(p)
	s.push(p, TypePushStatus, statusPush{Text: "Ready"})
	return p, nil
}

func (s *Server) detach(p *peer) {
	close(p.done)
	p.eng.Close()
	if err := p.sess.Close(); err != nil {
		log.Printf("web: closing session: %v", err)
	}
	p.ws.Close()
	s.releasePeerSlot()
}

// claimPeerSlot reserves the single rendering-client slot. Claiming
// happens before the websocket upgrade so two simultaneous connects
// cannot both pass the busy check.
func (s *Server) claimPeerSlot() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimed {
		return false
	}
	s.claimed = true
	return true
}

func (s *Server) releasePeerSlot() {
	s.mu.Lock()
	s.claimed = false
	s.peer = nil
	s.mu.Unlock()
}

func (s *Server) registryStore() (visibility.Store, error) {
	switch s.cfg.Registry.Store {
	case config.StoreSQLite:
		return visibility.OpenSQLiteStore(s.cfg.Registry.Path)
	default:
		return visibility.NewMemoryStore(), nil
	}
}

// wireEvents forwards session events to the client as pushes.
func (s *Server) wireEvents(p *peer) {
	p.sess.On(session.EventStatusChanged, func(data interface{}) {
		if text, ok := data.(string); ok {
			s.push(p, TypePushStatus, statusPush{Text: text})
		}
	})
	modelsChanged := func(interface{}) { s.pushModels(p) }
	p.sess.On(session.EventModelLoaded, modelsChanged)
	p.sess.On(session.EventModelRemoved, modelsChanged)
	p.sess.On(session.EventSessionCleared, modelsChanged)
	p.sess.On(session.EventSelectionChanged, func(data interface{}) {
		s.push(p, TypePushSelection, data)
	})
}

// readLoop parses frames from the client: replies unblock pending
// engine calls immediately, everything else queues for the worker.
func (s *Server) readLoop(p *peer) {
	for {
		_, data, err := p.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				debug.Log("web: read: %v", err)
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Printf("web: malformed frame: %v", err)
			continue
		}
		if env.Type == TypeReply {
			p.eng.HandleReply(env)
			continue
		}
		select {
		case p.actions <- env:
		default:
			log.Printf("web: action queue full, dropping %s", env.Type)
		}
	}
}

// actionWorker drains queued client actions one at a time.
func (s *Server) actionWorker(p *peer) {
	for {
		select {
		case <-p.done:
			return
		case env := <-p.actions:
			s.dispatch(p, env)
		}
	}
}

func (s *Server) dispatch(p *peer, env Envelope) {
	ctx := context.Background()
	if err := s.runAction(ctx, p, env); err != nil {
		log.Printf("web: %s: %v", env.Type, err)
		s.push(p, TypePushStatus, statusPush{Text: err.Error()})
	}
}

func (s *Server) runAction(ctx context.Context, p *peer, env Envelope) error {
	switch env.Type {
	case TypeActionLoad:
		var a nameAction
		if err := json.Unmarshal(env.Payload, &a); err != nil {
			return err
		}
		data, err := s.lib.Read(a.Name)
		if err != nil {
			return err
		}
		_, err = p.sess.LoadFragment(ctx, a.Name, data)
		return err

	case TypeActionRemove:
		var a nameAction
		if err := json.Unmarshal(env.Payload, &a); err != nil {
			return err
		}
		return p.sess.RemoveModel(ctx, a.Name)

	case TypeActionClear:
		p.sess.Clear(ctx)
		return nil

	case TypeActionFit:
		var a modeAction
		if err := json.Unmarshal(env.Payload, &a); err != nil {
			return err
		}
		if a.Mode == "far" {
			p.sess.FitFar(ctx)
		} else {
			p.sess.FitClose(ctx)
		}
		return nil

	case TypeActionPreset:
		var a modeAction
		if err := json.Unmarshal(env.Payload, &a); err != nil {
			return err
		}
		preset, ok := camera.ParsePreset(a.Mode)
		if !ok {
			return fmt.Errorf("unknown view preset %q", a.Mode)
		}
		p.sess.ApplyPreset(ctx, preset)
		return nil

	case TypeActionToggle:
		var a categoryAction
		if err := json.Unmarshal(env.Payload, &a); err != nil {
			return err
		}
		_, err := p.sess.ToggleCategory(ctx, a.Category)
		return err

	case TypeActionShowAll:
		p.sess.ShowAll(ctx)
		return nil

	case TypeActionHideAll:
		p.sess.HideAll(ctx)
		return nil

	case TypeActionPick:
		var a pickAction
		if err := json.Unmarshal(env.Payload, &a); err != nil {
			return err
		}
		_, err := p.sess.PickAt(ctx, a.X, a.Y)
		return err

	case TypeActionSettings:
		var u camera.SettingsUpdate
		if err := json.Unmarshal(env.Payload, &u); err != nil {
			return err
		}
		p.sess.UpdateSettings(ctx, u)
		return nil

	default:
		return errors.New("unknown action")
	}
}

// push sends a server-initiated notification to the client.
func (s *Server) push(p *peer, msgType string, payload interface{}) {
	env := Envelope{Type: msgType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Printf("web: encoding %s push: %v", msgType, err)
			return
		}
		env.Payload = data
	}
	if err := p.eng.conn.writeEnvelope(env); err != nil {
		debug.Log("web: %s push: %v", msgType, err)
	}
}

func (s *Server) pushModels(p *peer) {
	s.push(p, TypePushModels, modelsPush{Models: modelInfos(p.sess)})
}

func (s *Server) pushLibrary(p *peer) {
	infos, err := s.lib.List()
	if err != nil {
		log.Printf("web: listing fragments: %v", err)
		return
	}
	s.push(p, TypePushLibrary, libraryPayload(infos))
}

func modelInfos(sess *session.Session) []modelInfo {
	models := sess.Models()
	out := make([]modelInfo, len(models))
	for i, m := range models {
		out[i] = modelInfo{ID: m.ID, Filename: m.Filename, Ready: m.Ready}
	}
	return out
}

func libraryPayload(infos []fragment.Info) libraryPush {
	entries := make([]libraryEntry, len(infos))
	for i, info := range infos {
		entries[i] = libraryEntry{
			Filename: info.Name,
			SizeMB:   info.SizeMB(),
			Modified: info.Modified.Format("2006-01-02 15:04"),
		}
	}
	return libraryPush{Fragments: entries, Count: len(entries)}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: encoding response: %v", err)
	}
}
