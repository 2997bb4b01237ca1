package session

import (
	"log/slog"
	"sync"

	"github.com/eleven-am/voicestream/internal/feed"
	"github.com/eleven-am/voicestream/internal/transcription"
)

// Registry maps client ids to live sessions. It is mutated only on connect
// and disconnect; the steady-state audio path never iterates it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	engine transcription.Transcriber
	feed   feed.Publisher
	cfg    Config
	log    *slog.Logger
}

type RegistryConfig struct {
	Engine  transcription.Transcriber
	Feed    feed.Publisher
	Session Config
	Log     *slog.Logger
}

func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Feed == nil {
		cfg.Feed = feed.NewNop()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		engine:   cfg.Engine,
		feed:     cfg.Feed,
		cfg:      cfg.Session,
		log:      cfg.Log.With("component", "session_registry"),
	}
}

// Connect registers a session for the client id and starts its processing
// loop. A session already registered under the same id is closed and
// replaced.
func (r *Registry) Connect(id string, sender Sender) *Session {
	r.mu.Lock()
	old := r.sessions[id]
	sess := New(id, r.engine, sender, r.feed, r.cfg, r.log)
	sess.SetOnFatal(r.Disconnect)
	r.sessions[id] = sess
	r.mu.Unlock()

	if old != nil {
		old.Close()
		r.log.Warn("replaced existing session", "session_id", id)
	}

	sess.Start()
	r.log.Info("client connected", "session_id", id)
	return sess
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// Disconnect tears down the session for id: cancels its processing task and
// releases its queue and buffer. Calling it again for the same id is a no-op.
func (r *Registry) Disconnect(id string) {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	sess.Close()
	r.log.Info("client disconnected", "session_id", id)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll tears down every session, used at process shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}
