package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"folio/cmd/folio/page"
	"folio/cmd/folio/ui"
	"folio/internal/logging"
	"folio/internal/prefs"
	"folio/internal/relay"
	"folio/internal/viewstate"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// session is everything one page run owns, built before the terminal is taken over.
type session struct {
	kv      prefs.KV
	store   *viewstate.Store
	model   *page.Model
	watched *prefs.FileKV
	unaudit func()
}

func newSession(ctx context.Context) *session {
	kv, adapter := openPreferences(ctx)
	secs := sections()

	theme := prefs.ResolveTheme(ctx, adapter, prefs.EnvSignal{}.Signal)
	logging.Audit(logging.AuditThemeResolved, zap.String("theme", string(theme)))
	ui.ApplyDarkFlag(theme == viewstate.ThemeDark)

	store := viewstate.NewStore(viewstate.InitialState(theme, secs), secs,
		viewstate.WithThemePersister(adapter),
		viewstate.WithDarkFlag(ui.ApplyDarkFlag),
		viewstate.WithPersistTimeout(cfg.GetPersistTimeout()),
		viewstate.WithRejectHook(auditReject),
		viewstate.WithLogger(logging.Get(logging.CategoryStore)),
	)
	unaudit := store.Subscribe(func(s viewstate.State) {
		logging.Audit(logging.AuditCommit,
			zap.Uint64("version", store.Version()),
			zap.String("theme", string(s.Theme)),
			zap.String("section", string(s.ActiveSection)),
			zap.String("pointer", string(s.PointerVariant)),
			zap.Bool("menu_open", s.MenuOpen),
			zap.String("submission", string(s.Submission)),
		)
	})

	var rl relay.Relay
	if cfg.Relay.Enabled() {
		rl = relay.NewHTTPRelay(relay.Options{
			Endpoint:   cfg.Relay.Endpoint,
			ServiceID:  cfg.Relay.ServiceID,
			TemplateID: cfg.Relay.TemplateID,
			PublicKey:  cfg.Relay.PublicKey,
			Timeout:    cfg.GetRelayTimeout(),
			MaxRetries: uint(max(cfg.Relay.MaxRetries, 0)),
			Logger:     logging.Get(logging.CategoryRelay),
		})
	} else {
		logger.Info("no relay endpoint configured, the contact form will report errors")
	}

	s := &session{
		kv:      kv,
		store:   store,
		unaudit: unaudit,
		model: page.New(page.Options{
			Config: cfg,
			Store:  store,
			Relay:  rl,
			Logger: logging.Get(logging.CategoryUI),
		}),
	}
	if fkv, ok := kv.(*prefs.FileKV); ok && cfg.Preferences.Watch {
		s.watched = fkv
	}
	return s
}

func auditReject(a viewstate.Action, err error) {
	kind := "unknown"
	if a != nil {
		kind = string(a.Kind())
	}
	logging.Audit(logging.AuditReject, zap.String("kind", kind), zap.Error(err))
}

func (s *session) close() {
	s.model.Close()
	s.unaudit()
	if err := s.kv.Close(); err != nil {
		logger.Warn("failed to close preferences", zap.Error(err))
	}
}

// runShell opens the page and blocks until the user quits or the process is signalled.
func runShell(cmd *cobra.Command, args []string) error {
	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	s := newSession(ctx)
	defer s.close()
	logging.Audit(logging.AuditSession, zap.String("state", "start"), zap.String("workspace", workspace))
	defer logging.Audit(logging.AuditSession, zap.String("state", "stop"))

	p := tea.NewProgram(s.model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithReportFocus(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) && sigCtx.Err() != nil {
			logger.Info("received shutdown signal")
			return nil
		}
		return err
	})

	if s.watched != nil {
		w, err := prefs.NewWatcher(s.watched, func(t viewstate.Theme) {
			p.Send(page.ThemeChangedMsg{Theme: t})
		}, logging.Get(logging.CategoryPrefs))
		if err != nil {
			logger.Warn("theme watcher unavailable", zap.Error(err))
		} else if err := w.Start(gctx); err != nil {
			logger.Warn("theme watcher unavailable", zap.Error(err))
		} else {
			g.Go(func() error {
				<-gctx.Done()
				w.Stop()
				return nil
			})
		}
	}

	return g.Wait()
}
