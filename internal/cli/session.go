package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"thoughtline/internal/actions"
	"thoughtline/internal/commands"
	"thoughtline/internal/dispatch"
	"thoughtline/internal/history"
	"thoughtline/internal/model"
	"thoughtline/internal/notify"
	"thoughtline/internal/state"
	"thoughtline/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	kvSession = "session"
	kvHistory = "history"
)

// session is one CLI invocation's view of a workspace: the loaded graph,
// the persisted selection and undo history, and a dispatcher over them.
type session struct {
	app     *App
	persist store.Persistence
	kv      store.KV
	cfg     *store.GlobalConfig
	logger  *zap.Logger
	alerts  *notify.Alerts
	d       *dispatch.Dispatcher

	// loaded is the graph as read; save writes only what differs from it.
	loaded *store.Graph
}

func openSession(ctx context.Context, app *App) (*session, error) {
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, err
	}
	s, err := loadStore(app, cfg)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	g, err := s.LoadGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	st := state.New(g)
	var sess state.Session
	if ok, err := getJSON(ctx, s, kvSession, &sess); err != nil {
		return nil, err
	} else if ok {
		st.ApplySession(sess)
	}

	hist := history.NewEngine(
		history.WithMaxEntries(cfg.History.MaxEntries),
		history.WithLogger(logger),
	)
	var stacks history.Stacks
	if ok, err := getJSON(ctx, s, kvHistory, &stacks); err != nil {
		return nil, err
	} else if ok {
		hist.Restore(stacks)
	}

	alerts := notify.NewAlerts(time.Duration(cfg.Alerts.AutoDismissMs) * time.Millisecond)
	d := dispatch.New(st, hist, commands.Default(),
		dispatch.WithLogger(logger),
		dispatch.WithNotifier(notify.Tee{alerts, notify.Log{Logger: logger}}),
	)
	return &session{
		app:     app,
		persist: s,
		kv:      s,
		cfg:     cfg,
		logger:  logger,
		alerts:  alerts,
		d:       d,
		loaded:  g.Clone(),
	}, nil
}

func (s *session) state() *state.State { return s.d.State() }

func (s *session) dispatch(as ...actions.Action) { s.d.Dispatch(as...) }

// save persists the net graph change, the session and the history.
func (s *session) save(ctx context.Context) error {
	st := s.state()
	if s.cfg.IsDevelopment() {
		if err := st.Graph.Check(); err != nil {
			return fmt.Errorf("refusing to save: %w", err)
		}
	}
	thoughts, lexemes := store.GraphUpdates(s.loaded, st.Graph)
	if len(thoughts) > 0 || len(lexemes) > 0 {
		if err := s.persist.ApplyUpdates(ctx, thoughts, lexemes); err != nil {
			return fmt.Errorf("apply updates: %w", err)
		}
		s.logger.Debug("saved graph", zap.Int("thoughts", len(thoughts)), zap.Int("lexemes", len(lexemes)))
	}
	if err := setJSON(ctx, s.kv, kvSession, st.Session()); err != nil {
		return err
	}
	if err := setJSON(ctx, s.kv, kvHistory, s.d.History().Snapshot()); err != nil {
		return err
	}
	s.loaded = st.Graph.Clone()
	return nil
}

func (s *session) close() { _ = s.logger.Sync() }

// pathArg turns CLI ids into a cursor action. A single id names a thought
// and resolves to its simple path; several ids are taken as the path itself.
func (s *session) pathArg(ids []string) (actions.SetCursor, error) {
	if len(ids) == 1 {
		if !s.state().Graph.Exists(ids[0]) {
			return actions.SetCursor{}, &store.NotFoundError{Kind: "thought", ID: ids[0]}
		}
		return actions.SetCursor{Path: s.state().Resolver().ThoughtToPath(ids[0])}, nil
	}
	return actions.CursorFromIDs(ids), nil
}

func (s *session) resolveID(id string) (model.Path, error) {
	if !s.state().Graph.Exists(id) {
		return model.Path{}, &store.NotFoundError{Kind: "thought", ID: id}
	}
	return s.state().Resolver().ThoughtToPath(id), nil
}

// mutate opens a session, runs fn, saves and prints the resulting view.
func mutate(cmd *cobra.Command, app *App, fn func(s *session) error) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer s.close()
	if err := fn(s); err != nil {
		return writeErr(cmd, err)
	}
	if err := s.save(ctx); err != nil {
		return writeErr(cmd, err)
	}
	return writeEnvelope(cmd, app, s.view(), s.alerts)
}

// read opens a session and prints fn's result without saving.
func read(cmd *cobra.Command, app *App, fn func(s *session) (any, error)) error {
	s, err := openSession(cmd.Context(), app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer s.close()
	v, err := fn(s)
	if err != nil {
		return writeErr(cmd, err)
	}
	return writeOut(cmd, app, v)
}

type sessionView struct {
	Cursor       model.Path     `json:"cursor"`
	Thought      *model.Thought `json:"thought,omitempty"`
	Multicursors []model.Path   `json:"multicursors"`
	ContextViews []model.Path   `json:"contextViews"`
	Expanded     []model.Path   `json:"expanded"`
	CanUndo      bool           `json:"canUndo"`
	CanRedo      bool           `json:"canRedo"`
}

func (s *session) view() sessionView {
	st := s.state()
	sess := st.Session()
	v := sessionView{
		Cursor:       sess.Cursor,
		Multicursors: sess.Multicursors,
		ContextViews: sess.ContextViews,
		Expanded:     sess.Expanded,
		CanUndo:      s.d.History().CanUndo(),
		CanRedo:      s.d.History().CanRedo(),
	}
	if !sess.Cursor.IsNull() {
		if t, ok := st.Graph.Thought(sess.Cursor.Head()); ok {
			v.Thought = t
		}
	}
	return v
}

func getJSON(ctx context.Context, kv store.KV, key string, v any) (bool, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func setJSON(ctx context.Context, kv store.KV, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Set(ctx, key, string(b))
}
