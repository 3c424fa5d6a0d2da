package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"codequest/internal/devtools"
	"codequest/internal/practice"
	"codequest/internal/remote"
	"codequest/internal/session"
	"codequest/internal/state"
	"codequest/internal/telemetry"
	"codequest/internal/ui"
	"codequest/internal/workspace"
)

// offlineToken is the bearer used against the in-process practice server.
const offlineToken = "offline"

type App struct {
	cfg Config

	logger  *telemetry.JSONLogger
	store   Store
	session *session.Source
	client  *remote.Client
	offline *devtools.Server

	layout    *workspace.Layout
	ws        Workspace
	view      ui.View
	clipboard workspace.Clipboard

	sessionID string

	mu            sync.Mutex
	solved        map[string]bool
	dataStructure string
	topic         string
}

func New(cfg Config) (*App, error) {
	return build(cfg, func(layout *workspace.Layout) ui.View {
		return ui.New(ui.Options{
			Layout:       layout,
			ASCIIOnly:    cfg.UI.ASCII,
			Debug:        cfg.DebugLayout,
			StyleVariant: cfg.UI.StyleVariant,
			MotionLevel:  cfg.UI.MotionLevel,
			MouseScope:   cfg.UI.MouseScope,
		})
	})
}

func build(cfg Config, newView viewFactory) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}

	logger, err := telemetry.NewJSONLogger(cfg.LogPath)
	if err != nil {
		return nil, err
	}

	store, err := state.NewSQLite(filepath.Join(cfg.DataDir, "state.db"))
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	if err := store.EnsureSchema(context.Background()); err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		clipboard: workspace.SystemClipboard{},
		sessionID: uuid.NewString(),
		solved:    map[string]bool{},
	}

	if cfg.Offline {
		if err := a.startOffline(); err != nil {
			a.Close()
			return nil, err
		}
	}

	switch {
	case cfg.Token != "":
		a.session = session.NewStatic(cfg.Token)
	case cfg.Offline:
		a.session = session.NewStatic(offlineToken)
	case cfg.TokenFile != "":
		a.session = session.NewFile(cfg.TokenFile)
	default:
		a.session = session.NewStatic("")
	}

	a.client = remote.New(remote.Config{
		BaseURL:    a.cfg.APIURL,
		HTTPClient: &http.Client{},
		Retries:    cfg.Remote.Retries,
		Breaker:    cfg.Remote.Breaker,
		OnBreakerChange: func(from, to string) {
			a.logger.Info("remote.breaker.change", map[string]any{"from": from, "to": to})
			if strings.EqualFold(to, "open") && a.view != nil {
				a.view.FlashStatus("Practice service unavailable; pausing requests")
			}
		},
	})

	settings, err := store.LoadSettings(context.Background())
	if err != nil {
		a.logger.Error("settings.load_failed", map[string]any{"error": err.Error()})
		settings = map[string]string{}
	}
	a.dataStructure = settings[state.SettingDataStructure]
	a.topic = settings[state.SettingTopic]
	a.loadProgress()

	a.layout = workspace.NewLayout(cfg.UI.CompactBreakpoint)
	orch := workspace.NewOrchestrator(workspace.Options{
		Service:     a.client,
		Credentials: a.session,
		Panes:       a.layout,
		Recorder:    a,
		Logger:      a.logger,
		Timeout:     cfg.Remote.Timeout,
		Language:    practice.LanguageFor(settings[state.SettingLanguage]).ID,
	})
	a.ws = orch

	a.view = newView(a.layout)
	a.view.SetController(a)
	orch.OnChange(a.push)
	a.view.SetTopic(a.dataStructure, a.topic)
	a.push(orch.Snapshot())
	return a, nil
}

// startOffline serves the bundled problem packs on a loopback port and points
// the client at it.
func (a *App) startOffline() error {
	var (
		packs []devtools.Pack
		err   error
	)
	if a.cfg.PacksDir != "" {
		packs, err = devtools.LoadDir(a.cfg.PacksDir)
	} else {
		packs, err = devtools.BuiltinPacks()
	}
	if err != nil {
		return fmt.Errorf("load problem packs: %w", err)
	}
	catalog, err := devtools.NewCatalog(packs)
	if err != nil {
		return err
	}
	srv := devtools.NewServer(devtools.Options{Catalog: catalog, Logger: a.logger})
	url, err := srv.Start("127.0.0.1:0")
	if err != nil {
		return err
	}
	a.offline = srv
	a.cfg.APIURL = url
	a.logger.Info("offline.start", map[string]any{"url": url, "problems": catalog.Size()})
	return nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("app.start", map[string]any{
		"session": a.sessionID,
		"api_url": a.client.BaseURL(),
		"offline": a.cfg.Offline,
	})
	if !a.session.LoggedIn() {
		a.view.FlashStatus("Not logged in; generating problems needs a token")
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			a.view.Stop()
		case <-done:
		}
	}()
	return a.view.Run()
}

func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.layout != nil {
		a.layout.Close()
	}
	if a.ws != nil {
		a.ws.Cancel()
	}
	if a.offline != nil {
		if err := a.offline.Shutdown(ctx); err != nil {
			a.logger.Error("offline.shutdown_failed", map[string]any{"error": err.Error()})
		}
	}
	_ = a.store.Close()
	a.logger.Info("app.stop", map[string]any{"session": a.sessionID})
	_ = a.logger.Close()
}

func (a *App) OnGenerate(dataStructure, topic string) {
	dataStructure, topic = strings.TrimSpace(dataStructure), strings.TrimSpace(topic)
	err := a.ws.Generate(context.Background(), dataStructure, topic)
	if err == nil {
		a.mu.Lock()
		a.dataStructure, a.topic = dataStructure, topic
		a.mu.Unlock()
		a.saveSettings(map[string]string{
			state.SettingDataStructure: dataStructure,
			state.SettingTopic:         topic,
		})
	}
	a.flashError(err, "Already generating problems")
}

func (a *App) OnRunTests() {
	a.flashError(a.ws.RunTests(context.Background()), "Wait for the current evaluation to finish")
}

func (a *App) OnSubmit() {
	a.flashError(a.ws.Submit(context.Background()), "Wait for the current evaluation to finish")
}

func (a *App) OnSelectProblem(id string) {
	if err := a.ws.SelectProblem(id); err != nil {
		a.logger.Error("workspace.select_failed", map[string]any{"problem_id": id, "error": err.Error()})
		a.view.FlashStatus("Problem is no longer available")
	}
}

func (a *App) OnEdit(code string) {
	a.ws.Edit(code)
}

func (a *App) OnCycleLanguage() {
	next := practice.NextLanguage(a.ws.Snapshot().Buffer.Language)
	if err := a.ws.SetLanguage(next.ID); err != nil {
		a.view.FlashStatus(err.Error())
		return
	}
	a.saveSettings(map[string]string{state.SettingLanguage: next.ID})
	a.view.FlashStatus("Language: " + next.Name)
}

func (a *App) OnToggleOptimal() {
	snap := a.ws.Snapshot()
	if snap.Selected == nil || !snap.Selected.HasOptimal() {
		a.view.FlashStatus("No optimal solution for this problem")
		return
	}
	if !a.ws.ToggleOptimal() {
		if snap.Result == nil || !snap.Result.Passed {
			a.view.FlashStatus("Pass the tests to unlock the optimal solution")
			return
		}
		a.view.FlashStatus("Optimal solution hidden")
	}
}

func (a *App) OnCopyCode() {
	if err := a.ws.CopyCode(a.clipboard); err != nil {
		a.logger.Info("workspace.copy.fallback", map[string]any{"error": err.Error()})
		a.view.FlashStatus("Copied through the terminal clipboard")
		return
	}
	a.view.FlashStatus("Copied solution to clipboard")
}

func (a *App) OnDownloadCode() {
	path, err := a.ws.DownloadCode(a.cfg.ExportDir)
	if err != nil {
		a.logger.Error("workspace.download_failed", map[string]any{"error": err.Error()})
		a.view.FlashStatus("Download failed: " + err.Error())
		return
	}
	a.logger.Info("workspace.download", map[string]any{"path": path})
	a.view.FlashStatus("Saved " + path)
}

func (a *App) OnCancel() {
	if a.ws.Cancel() {
		a.view.FlashStatus("Canceled")
	}
}

func (a *App) OnQuit() {
	a.view.Stop()
}

// RecordAttempt persists a finished operation and refreshes solved marks
// after an accepted submission.
func (a *App) RecordAttempt(ctx context.Context, at workspace.Attempt) error {
	err := a.store.RecordAttempt(ctx, state.Attempt{
		SessionID:  a.sessionID,
		Kind:       at.Kind,
		ProblemID:  at.ProblemID,
		Language:   at.Language,
		Topic:      at.Topic,
		Outcome:    at.Outcome,
		Message:    at.Message,
		DurationMS: at.Duration.Milliseconds(),
		TS:         at.At,
	})
	if at.Kind == "submit" && at.Outcome == workspace.OutcomePassed && at.ProblemID != "" {
		a.mu.Lock()
		fresh := !a.solved[at.ProblemID]
		a.solved[at.ProblemID] = true
		a.mu.Unlock()
		if fresh {
			a.push(a.ws.Snapshot())
		}
	}
	return err
}

// flashError surfaces errors that never reach the workspace banner.
func (a *App) flashError(err error, busy string) {
	switch {
	case err == nil, errors.Is(err, workspace.ErrSuperseded):
	case errors.Is(err, workspace.ErrBusy):
		a.view.FlashStatus(busy)
	case errors.Is(err, workspace.ErrNoProblem):
		a.view.FlashStatus("Select a problem first")
	}
}

func (a *App) push(snap workspace.Snapshot) {
	if a.view == nil {
		return
	}
	a.view.SetWorkspace(a.workspaceState(snap))
}

func (a *App) workspaceState(snap workspace.Snapshot) ui.WorkspaceState {
	rows := make([]ui.ProblemRow, 0, len(snap.Problems))
	a.mu.Lock()
	for _, p := range snap.Problems {
		rows = append(rows, ui.ProblemRow{
			ID:         p.ID,
			Title:      p.Title,
			Difficulty: p.Difficulty,
			Solved:     a.solved[p.ID],
		})
	}
	a.mu.Unlock()
	return ui.WorkspaceState{
		LoggedIn:       a.session.LoggedIn(),
		Problems:       rows,
		Problem:        snap.Selected,
		Code:           snap.Buffer.Text,
		CodeRevision:   snap.Buffer.Revision,
		Language:       practice.LanguageFor(snap.Buffer.Language),
		Result:         snap.Result,
		ResultAt:       snap.ResultAt,
		OptimalVisible: snap.OptimalVisible(),
		Error:          snap.ErrorMessage(),
		Generating:     snap.Generating(),
		Testing:        snap.Testing(),
		Submitting:     snap.Submitting(),
	}
}

func (a *App) loadProgress() {
	progress, err := a.store.GetProblemProgressMap(context.Background())
	if err != nil {
		a.logger.Error("progress.load_failed", map[string]any{"error": err.Error()})
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, p := range progress {
		if p.PassedCount > 0 {
			a.solved[id] = true
		}
	}
}

func (a *App) saveSettings(values map[string]string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.store.SaveSettings(ctx, values); err != nil {
		a.logger.Error("settings.save_failed", map[string]any{"error": err.Error()})
	}
}
