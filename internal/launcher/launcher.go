package launcher

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/muesli/termenv"
)

// Launcher is the runtime state machine:
//
//	Start → CredentialCheck → MenuLoop → {Dispatching → Executing → Finished} | Exit
//
// Single-threaded and blocking throughout: credential entry, menu reads,
// and child execution all block the launcher's only goroutine. Ordering
// is guaranteed by construction: credential validation strictly
// precedes the menu, the menu precedes dispatch, and extraction
// precedes execution.
type Launcher struct {
	cfg     *Config
	in      *bufio.Reader
	out     *termenv.Output
	locator *ResourceLocator
	exec    Executor

	// setEnv is the single credential mutation point; replaced in tests.
	setEnv func(key, value string) error
}

// New creates a launcher reading menu and credential input from in and
// writing all user-facing text to out.
func New(cfg *Config, in io.Reader, out io.Writer, locator *ResourceLocator, executor Executor) *Launcher {
	return &Launcher{
		cfg:     cfg,
		in:      bufio.NewReader(in),
		out:     termenv.NewOutput(out),
		locator: locator,
		exec:    executor,
		setEnv:  os.Setenv,
	}
}

// Run drives the state machine to completion and returns the process
// exit code. The launcher's exit status mirrors the chosen child's.
func (l *Launcher) Run(ctx context.Context) int {
	if !l.ensureCredential() {
		return 1
	}
	return l.menuLoop(ctx)
}

// ensureCredential validates the credential before anything else. A key
// already present in the environment is accepted as-is; otherwise the
// user is prompted until a well-formed key arrives. Returns false only
// when input is exhausted without a valid key.
func (l *Launcher) ensureCredential() bool {
	if l.cfg.APIKey != "" {
		return true
	}

	fmt.Fprintln(l.out, "=== Stardock Game Launcher ===")
	fmt.Fprintln(l.out, "This game requires a Gemini API key to generate AI images.")
	fmt.Fprintln(l.out, "Get your free API key from: https://aistudio.google.com/app/apikey")
	fmt.Fprintln(l.out)

	for {
		fmt.Fprint(l.out, "Enter your Gemini API key (or press Ctrl+C to exit): ")
		line, readErr := l.in.ReadString('\n')
		key := strings.TrimSpace(line)

		if err := ValidateKey(key); err == nil {
			if err := l.setEnv(CredentialVar, key); err != nil {
				fmt.Fprintf(l.out, "Error: could not store API key: %v\n", err)
				return false
			}
			l.cfg.APIKey = key
			fmt.Fprintln(l.out, l.out.String("✓ API key accepted!").Foreground(termenv.ANSIGreen))
			fmt.Fprintln(l.out)
			return true
		}

		fmt.Fprintln(l.out, "Invalid API key format. API keys should start with 'AIza'")
		fmt.Fprintln(l.out, "Please get a valid key from: https://aistudio.google.com/app/apikey")
		fmt.Fprintln(l.out)

		if readErr != nil {
			fmt.Fprintln(l.out, "Error: no API key provided")
			return false
		}
	}
}

// menuLoop presents the fixed three-option menu until the user makes a
// valid choice. Invalid input re-displays the menu; it never terminates
// the launcher and no attempt limit applies.
func (l *Launcher) menuLoop(ctx context.Context) int {
	for {
		l.showMenu()
		fmt.Fprint(l.out, "Enter your choice (1-3): ")
		line, readErr := l.in.ReadString('\n')
		choice := strings.TrimSpace(line)

		switch choice {
		case "1":
			fmt.Fprintln(l.out, "🎨 Launching with AI visualization (PipeDream GUI)...")
			return l.launch(ctx, ResourceVisualization, "--art-style", l.cfg.ArtStyle)
		case "2":
			fmt.Fprintln(l.out, "🚀 Launching terminal-only version (PyTrek)...")
			return l.launch(ctx, ResourceGame)
		case "3":
			l.Farewell()
			return 0
		default:
			fmt.Fprintln(l.out, "Invalid choice. Please enter 1, 2, or 3.")
			fmt.Fprintln(l.out)
		}

		if readErr != nil {
			fmt.Fprintln(l.out, "Error: no choice provided")
			return 1
		}
	}
}

func (l *Launcher) showMenu() {
	fmt.Fprintln(l.out, "🎮 Select Game Mode:")
	fmt.Fprintln(l.out, "1. Play with AI Visualization (Recommended)")
	fmt.Fprintln(l.out, "2. Play Terminal-Only Version")
	fmt.Fprintln(l.out, "3. Exit")
	fmt.Fprintln(l.out)
}

// Farewell prints the goodbye message. Also used by the top-level
// interrupt handler, where interruption is a user-initiated graceful
// exit rather than an error.
func (l *Launcher) Farewell() {
	fmt.Fprintln(l.out, "Goodbye! 🖖")
}

// launch extracts the named embedded application and executes it,
// blocking until it exits. Extraction failure short-circuits execution.
func (l *Launcher) launch(ctx context.Context, name string, args ...string) int {
	src, err := l.locator.Locate(name)
	if err != nil {
		fmt.Fprintln(l.out, l.out.String(fmt.Sprintf("Error: %v", err)).Foreground(termenv.ANSIRed))
		return 1
	}

	bin, cleanup, err := l.extract(src)
	if err != nil {
		fmt.Fprintln(l.out, l.out.String(fmt.Sprintf("Error: %v", err)).Foreground(termenv.ANSIRed))
		return 1
	}
	defer cleanup()

	code, err := l.exec.SpawnAndWait(ctx, bin, args, os.Environ())
	if err != nil {
		fmt.Fprintf(l.out, "Error: application not found or not executable: %v\n", err)
		return 1
	}
	if code != 0 {
		fmt.Fprintf(l.out, "Error running %s: exit status %d\n", name, code)
		return code
	}
	return 0
}

// extract copies the resource bytes into a fresh private temporary
// directory and marks the copy executable. The returned cleanup is
// best-effort: removal failures are reported but never change the
// launcher's exit status.
func (l *Launcher) extract(src string) (string, func(), error) {
	runDir := filepath.Join(os.TempDir(), "stardock-run-"+uuid.NewString())
	if err := os.Mkdir(runDir, 0700); err != nil {
		return "", nil, fmt.Errorf("create extraction dir: %w", err)
	}

	dst := filepath.Join(runDir, filepath.Base(src))
	if err := copyFile(src, dst); err != nil {
		os.RemoveAll(runDir)
		return "", nil, fmt.Errorf("extract %s: %w", filepath.Base(src), err)
	}

	if err := os.Chmod(dst, 0755); err != nil {
		os.RemoveAll(runDir)
		return "", nil, fmt.Errorf("set executable: %w", err)
	}

	cleanup := func() {
		if err := os.RemoveAll(runDir); err != nil {
			fmt.Fprintf(l.out, "warning: could not remove %s: %v\n", runDir, err)
		}
	}
	return dst, cleanup, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
