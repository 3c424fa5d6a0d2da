package app

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"codequest/internal/devtools"
	"codequest/internal/practice"
	"codequest/internal/ui"
	"codequest/internal/workspace"
)

type fakeView struct {
	mu      sync.Mutex
	ctrl    ui.Controller
	states  []ui.WorkspaceState
	flashes []string
	ds      string
	topic   string
	stopped int
}

func (f *fakeView) Run() error { return nil }

func (f *fakeView) Stop() {
	f.mu.Lock()
	f.stopped++
	f.mu.Unlock()
}

func (f *fakeView) SetController(c ui.Controller) { f.ctrl = c }

func (f *fakeView) SetWorkspace(s ui.WorkspaceState) {
	f.mu.Lock()
	f.states = append(f.states, s)
	f.mu.Unlock()
}

func (f *fakeView) SetTopic(ds, topic string) {
	f.mu.Lock()
	f.ds, f.topic = ds, topic
	f.mu.Unlock()
}

func (f *fakeView) FlashStatus(msg string) {
	f.mu.Lock()
	f.flashes = append(f.flashes, msg)
	f.mu.Unlock()
}

func (f *fakeView) last() ui.WorkspaceState {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.states) == 0 {
		return ui.WorkspaceState{}
	}
	return f.states[len(f.states)-1]
}

func (f *fakeView) lastFlash() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.flashes) == 0 {
		return ""
	}
	return f.flashes[len(f.flashes)-1]
}

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Offline = true
	cfg.DataDir = t.TempDir()
	cfg.ExportDir = t.TempDir()
	cfg.Remote.Timeout = 10 * time.Second
	cfg.Remote.Retries = 0
	return cfg
}

func newTestApp(t *testing.T, cfg Config) (*App, *fakeView) {
	t.Helper()
	fv := &fakeView{}
	a, err := build(cfg, func(*workspace.Layout) ui.View { return fv })
	if err != nil {
		t.Fatalf("build app: %v", err)
	}
	return a, fv
}

func TestOfflineGenerateSubmitMarksSolved(t *testing.T) {
	a, fv := newTestApp(t, testConfig(t))
	defer a.Close()

	if fv.ctrl != a {
		t.Fatalf("expected app registered as view controller")
	}
	a.OnGenerate(" Arrays ", "hashing")
	st := fv.last()
	if !st.LoggedIn || len(st.Problems) != 3 {
		t.Fatalf("expected three problems while logged in, got %+v", st.Problems)
	}
	if st.Problem == nil || st.Problem.ID != "two-sum" || st.Code != st.Problem.StarterCode {
		t.Fatalf("expected first problem selected with starter code")
	}

	a.OnSelectProblem("contains-duplicate")
	st = fv.last()
	if st.SelectedID() != "contains-duplicate" {
		t.Fatalf("expected contains-duplicate selected, got %q", st.SelectedID())
	}

	a.OnSubmit()
	st = fv.last()
	if st.Result == nil || st.Result.Passed || st.OptimalVisible {
		t.Fatalf("expected failing submission for starter code, got %+v", st.Result)
	}

	a.OnEdit(st.Problem.OptimalSolution)
	a.OnSubmit()
	st = fv.last()
	if st.Result == nil || !st.Result.Passed {
		t.Fatalf("expected optimal solution to pass, got %+v", st.Result)
	}
	if !st.OptimalVisible {
		t.Fatalf("expected optimal solution revealed after passing submission")
	}
	var solved bool
	for _, row := range st.Problems {
		if row.ID == "contains-duplicate" {
			solved = row.Solved
		}
	}
	if !solved {
		t.Fatalf("expected contains-duplicate marked solved")
	}

	a.OnToggleOptimal()
	if fv.last().OptimalVisible {
		t.Fatalf("expected toggle to hide the optimal solution")
	}
}

func TestRunWithoutProblemFlashes(t *testing.T) {
	a, fv := newTestApp(t, testConfig(t))
	defer a.Close()

	a.OnRunTests()
	if fv.lastFlash() != "Select a problem first" {
		t.Fatalf("unexpected flash %q", fv.lastFlash())
	}
}

func TestMissingTopicShowsBanner(t *testing.T) {
	a, fv := newTestApp(t, testConfig(t))
	defer a.Close()

	a.OnGenerate("Arrays", "  ")
	if got := fv.last().Error; got != "Please enter both Data Structure and Topic" {
		t.Fatalf("unexpected banner %q", got)
	}
}

func TestLoggedOutGenerateShowsBanner(t *testing.T) {
	packs, err := devtools.BuiltinPacks()
	if err != nil {
		t.Fatalf("packs: %v", err)
	}
	catalog, err := devtools.NewCatalog(packs)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	srv := httptest.NewServer(devtools.NewServer(devtools.Options{Catalog: catalog}).Handler())
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Offline = false
	cfg.APIURL = srv.URL
	cfg.TokenFile = filepath.Join(t.TempDir(), "token")
	a, fv := newTestApp(t, cfg)
	defer a.Close()

	if fv.last().LoggedIn {
		t.Fatalf("expected logged out without a token file")
	}
	a.OnGenerate("Arrays", "hashing")
	if got := fv.last().Error; got != "Please log in to generate problems" {
		t.Fatalf("unexpected banner %q", got)
	}

	if err := os.WriteFile(cfg.TokenFile, []byte("tok\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	a.OnGenerate("Arrays", "hashing")
	st := fv.last()
	if st.Error != "" || len(st.Problems) == 0 {
		t.Fatalf("expected problems after login, got error %q", st.Error)
	}
}

func TestDownloadAndCopyCode(t *testing.T) {
	cfg := testConfig(t)
	a, fv := newTestApp(t, cfg)
	defer a.Close()
	a.OnGenerate("Arrays", "hashing")
	code := fv.last().Code

	a.OnDownloadCode()
	path := filepath.Join(cfg.ExportDir, "solution.py")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if string(data) != code {
		t.Fatalf("unexpected download contents %q", string(data))
	}
	if !strings.Contains(fv.lastFlash(), path) {
		t.Fatalf("expected saved path in flash, got %q", fv.lastFlash())
	}

	cb := &fakeClipboard{}
	a.clipboard = cb
	a.OnCopyCode()
	if cb.text != code || fv.lastFlash() != "Copied solution to clipboard" {
		t.Fatalf("expected code copied, got %q / %q", cb.text, fv.lastFlash())
	}

	a.clipboard = &fakeClipboard{err: errors.New("no xclip")}
	a.OnCopyCode()
	if fv.lastFlash() != "Copied through the terminal clipboard" {
		t.Fatalf("expected terminal fallback flash, got %q", fv.lastFlash())
	}
}

func TestSettingsPersistAcrossRestart(t *testing.T) {
	cfg := testConfig(t)
	a, fv := newTestApp(t, cfg)
	a.OnGenerate("Arrays", "hashing")
	a.OnCycleLanguage()
	want := practice.NextLanguage(practice.DefaultLanguageID)
	if fv.last().Language.ID != want.ID {
		t.Fatalf("expected language %s, got %s", want.ID, fv.last().Language.ID)
	}
	a.Close()

	b, fv2 := newTestApp(t, cfg)
	defer b.Close()
	if fv2.ds != "Arrays" || fv2.topic != "hashing" {
		t.Fatalf("expected saved topic, got %q/%q", fv2.ds, fv2.topic)
	}
	if fv2.last().Language.ID != want.ID {
		t.Fatalf("expected saved language %s, got %s", want.ID, fv2.last().Language.ID)
	}
}

func TestQuitStopsView(t *testing.T) {
	a, fv := newTestApp(t, testConfig(t))
	defer a.Close()
	a.OnQuit()
	if fv.stopped != 1 {
		t.Fatalf("expected view stopped once, got %d", fv.stopped)
	}
}

func TestWriteHistory(t *testing.T) {
	cfg := testConfig(t)
	a, _ := newTestApp(t, cfg)
	a.OnGenerate("Arrays", "hashing")
	a.OnRunTests()
	a.Close()

	var out strings.Builder
	if err := WriteHistory(context.Background(), &out, cfg, 10); err != nil {
		t.Fatalf("history: %v", err)
	}
	text := out.String()
	for _, want := range []string{"1 generated", "1 runs", "two-sum", "Arrays/hashing"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in history:\n%s", want, text)
		}
	}
}

func TestLoadConfigLayersFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "api_url: https://practice.example.com\nremote:\n  timeout: 30s\n  retries: 4\nui:\n  style_variant: daylight\n  compact_breakpoint: 120\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CODEQUEST_UI_STYLE_VARIANT", "retro")
	t.Setenv("CODEQUEST_EXPORT_DIR", dir)

	cfg, err := LoadConfig(path, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "https://practice.example.com" || cfg.Remote.Timeout != 30*time.Second || cfg.Remote.Retries != 4 {
		t.Fatalf("expected file values, got %+v", cfg)
	}
	if cfg.UI.StyleVariant != "retro" || cfg.ExportDir != dir {
		t.Fatalf("expected environment overrides, got %+v", cfg.UI)
	}
	if cfg.UI.CompactBreakpoint != 120 || cfg.UI.MouseScope != "scoped" {
		t.Fatalf("expected defaults kept under file values, got %+v", cfg.UI)
	}
}

func TestLoadConfigExplicitMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), ""); err == nil {
		t.Fatalf("expected error for explicit missing config")
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected error for explicit missing env file")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.APIURL = "ftp://example.com"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unsupported scheme error")
	}

	cfg.APIURL = "http://localhost:8000"
	cfg.UI.MouseScope = "everywhere"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid mouse scope error")
	}

	cfg.UI.MouseScope = ""
	cfg.Remote.Timeout = 0
	cfg.UI.CompactBreakpoint = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.UI.MouseScope != "scoped" || cfg.Remote.Timeout <= 0 || cfg.UI.CompactBreakpoint != workspace.DefaultCompactBreakpoint {
		t.Fatalf("expected defaults filled in, got %+v", cfg)
	}
}

func TestLoginAndLogoutManageTokenFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Offline = false
	cfg.TokenFile = filepath.Join(t.TempDir(), "nested", "token")

	if _, err := Login(cfg, "   "); err == nil {
		t.Fatalf("expected empty token to be rejected")
	}
	path, err := Login(cfg, " tok-123 \n")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if path != cfg.TokenFile {
		t.Fatalf("expected token written to %s, got %s", cfg.TokenFile, path)
	}
	data, err := os.ReadFile(path)
	if err != nil || strings.TrimSpace(string(data)) != "tok-123" {
		t.Fatalf("unexpected token file %q err=%v", string(data), err)
	}

	a, fv := newTestApp(t, cfg)
	if !fv.last().LoggedIn {
		t.Fatalf("expected logged in after login")
	}
	a.Close()

	if _, err := Logout(cfg); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected token file removed, got %v", err)
	}
	if _, err := Logout(cfg); err != nil {
		t.Fatalf("second logout should be a no-op, got %v", err)
	}
}
