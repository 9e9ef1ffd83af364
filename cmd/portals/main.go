// portals - walk through linked portals in your terminal.
//
// Controls:
//
//	W/A/S/D     - Move
//	Mouse drag  - Look around
//	Arrow keys  - Look around
//	Space       - Push the prop in front of you
//	G           - Grab or drop a prop
//	P           - Save a snapshot
//	F           - Toggle field/slab wireframe
//	?           - Toggle HUD overlay
//	Esc         - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/portals/pkg/portal"
	"github.com/taigrr/portals/pkg/render"
	"github.com/taigrr/portals/pkg/scene"
)

var (
	configPath   = flag.String("config", "", "Path to a JSON level (default: built-in two-room level)")
	fov          = flag.Float64("fov", 0, "Vertical field of view in degrees")
	targetScale  = flag.Float64("scale", 0, "Portal render target scale (0,1]")
	targetFPS    = flag.Int("fps", 0, "Target FPS")
	modelPath    = flag.String("model", "", "GLB model to use for every prop")
	debug        = flag.Bool("debug", false, "Draw portal fields and slabs")
	verbose      = flag.Bool("v", false, "Log portal events to stderr")
	frames       = flag.Int("frames", 0, "Run headless for N frames and exit")
	snapshotPath = flag.String("snapshot", "portals.webp", "Snapshot path (.png or .webp)")
	size         = flag.String("size", "160x90", "Headless framebuffer size")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "portals - Terminal portal walker\n\n")
		fmt.Fprintf(os.Stderr, "Usage: portals [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  W/A/S/D     - Move\n")
		fmt.Fprintf(os.Stderr, "  Mouse drag  - Look around\n")
		fmt.Fprintf(os.Stderr, "  Space       - Push prop\n")
		fmt.Fprintf(os.Stderr, "  G           - Grab/drop prop\n")
		fmt.Fprintf(os.Stderr, "  P           - Snapshot\n")
		fmt.Fprintf(os.Stderr, "  F           - Toggle wireframe\n")
		fmt.Fprintf(os.Stderr, "  ?           - Toggle HUD overlay\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	if *verbose {
		portal.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	s, err := load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *frames > 0 {
		err = runHeadless(s, *frames)
	} else {
		err = run(s)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func load() (*scene.Scene, error) {
	cfg := scene.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = scene.Load(*configPath); err != nil {
			return nil, err
		}
	}
	cfg.Resolve(scene.Flags{
		FOV:         *fov,
		TargetScale: *targetScale,
		FPS:         *targetFPS,
		Model:       *modelPath,
		Debug:       *debug,
	})
	return scene.Build(cfg)
}

// Autopilot walks the viewer forward, easing in to full speed.
type Autopilot struct {
	speed, accel float64
	spring       harmonica.Spring
}

// NewAutopilot creates an autopilot stepping at fps.
func NewAutopilot(fps int) *Autopilot {
	return &Autopilot{spring: harmonica.NewSpring(harmonica.FPS(fps), 2.0, 1.0)}
}

// Step moves the scene one frame.
func (a *Autopilot) Step(s *scene.Scene) int {
	a.speed, a.accel = a.spring.Update(a.speed, a.accel, 1)
	s.Move(a.speed, 0)
	return s.Step()
}

func runHeadless(s *scene.Scene, n int) error {
	var w, h int
	if _, err := fmt.Sscanf(*size, "%dx%d", &w, &h); err != nil || w <= 0 || h <= 0 {
		return fmt.Errorf("bad size %q", *size)
	}
	fb := render.NewFramebuffer(w, h)
	rasterizer := render.NewRasterizer(s.Camera, fb)
	s.Resize(w, h)

	pilot := NewAutopilot(s.Config.FPS)
	teleports := 0
	for range n {
		teleports += pilot.Step(s)
		s.Render(rasterizer)
	}

	if err := fb.SaveSnapshot(*snapshotPath); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	fmt.Printf("%d frames, %d teleports, player at %.2f; wrote %s\n",
		n, teleports, s.Player.Pose().Position, *snapshotPath)
	return nil
}

// LookAxis smooths one look axis: input accumulates a target angle and
// the applied angle springs after it.
type LookAxis struct {
	target, current, vel float64
	spring               harmonica.Spring
}

// NewLookAxis creates an axis updated at fps.
func NewLookAxis(fps int) LookAxis {
	return LookAxis{spring: harmonica.NewSpring(harmonica.FPS(fps), 10.0, 1.0)}
}

// Update advances the spring and returns how far the axis moved this frame.
func (a *LookAxis) Update() float64 {
	prev := a.current
	a.current, a.vel = a.spring.Update(a.current, a.vel, a.target)
	return a.current - prev
}

// Input is the control state shared between the event loop and the frame loop.
type Input struct {
	mu sync.Mutex

	forward, strafe float64
	yaw, pitch      LookAxis

	push, grab, snapshot bool
	toggleDebug, hud     bool
	resized              bool
	width, height        int
}

// HUD renders an overlay with frame and portal info
type HUD struct {
	fps       float64
	fpsFrames int
	fpsTime   time.Time
	teleports int
	note      string
}

// NewHUD creates a new HUD
func NewHUD() *HUD {
	return &HUD{fpsTime: time.Now()}
}

// UpdateFPS updates the FPS counter (call once per frame)
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

// Render draws the HUD overlay directly to the terminal
func (h *HUD) Render(width, height int, show bool, s *scene.Scene) {
	const (
		reset     = "\x1b[0m"
		bold      = "\x1b[1m"
		bgBlack   = "\x1b[40m"
		fgWhite   = "\x1b[97m"
		fgGreen   = "\x1b[92m"
		fgYellow  = "\x1b[93m"
		fgCyan    = "\x1b[96m"
		clearLine = "\x1b[2K"
	)
	moveTo := func(row, col int) string {
		return fmt.Sprintf("\x1b[%d;%dH", row, col)
	}

	fmt.Print(moveTo(1, 1) + clearLine)
	fmt.Print(moveTo(height, 1) + clearLine)
	if !show {
		return
	}

	fmt.Printf("%s%s%s %.0f FPS %s", moveTo(1, 1), bgBlack, fgGreen, h.fps, reset)

	st := s.Driver.Stats
	stats := fmt.Sprintf(" portals %d drawn %d culled %d closed ", st.Rendered, st.Culled, st.Inactive)
	fmt.Print(moveTo(1, max((width-len(stats))/2, 1)) + bgBlack + fgCyan + stats + reset)

	tp := fmt.Sprintf(" %d teleports ", h.teleports)
	fmt.Print(moveTo(1, max(width-len(tp), 1)) + bgBlack + bold + fgYellow + tp + reset)

	p := s.Player.Pose().Position
	held := "nothing"
	if e := s.Hand.Held(); e != nil {
		held = e.Name
	}
	status := fmt.Sprintf(" pos %.1f %.1f %.1f  holding %s %s", p.X, p.Y, p.Z, held, h.note)
	fmt.Print(moveTo(height, 1) + bgBlack + fgWhite + status + reset)
}

func run(s *scene.Scene) error {
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Enable any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // Enable SGR extended mouse mode

	termRenderer := render.NewTerminalRenderer(term, width, height)
	fbWidth, fbHeight := termRenderer.FramebufferSize()
	fb := render.NewFramebuffer(fbWidth, fbHeight)
	rasterizer := render.NewRasterizer(s.Camera, fb)
	s.Resize(fbWidth, fbHeight)

	fps := s.Config.FPS
	in := &Input{yaw: NewLookAxis(fps), pitch: NewLookAxis(fps), hud: true}
	hud := NewHUD()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	const lookStep = 0.08

	var mouseDown bool
	var lastMouseX, lastMouseY int

	go func() {
		for ev := range term.Events() {
			in.mu.Lock()
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				in.width, in.height = ev.Width, ev.Height
				in.resized = true

			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape", "ctrl+c"):
					in.mu.Unlock()
					cancel()
					return
				case ev.MatchString("w"):
					in.forward = 1
				case ev.MatchString("s"):
					in.forward = -1
				case ev.MatchString("a"):
					in.strafe = -1
				case ev.MatchString("d"):
					in.strafe = 1
				case ev.MatchString("left"):
					in.yaw.target += lookStep
				case ev.MatchString("right"):
					in.yaw.target -= lookStep
				case ev.MatchString("up"):
					in.pitch.target += lookStep
				case ev.MatchString("down"):
					in.pitch.target -= lookStep
				case ev.MatchString("space"):
					in.push = true
				case ev.MatchString("g"):
					in.grab = true
				case ev.MatchString("p"):
					in.snapshot = true
				case ev.MatchString("f"):
					in.toggleDebug = true
				case ev.MatchString("?"), ev.MatchString("shift+/"):
					in.hud = !in.hud
				}

			case uv.KeyReleaseEvent:
				switch {
				case ev.MatchString("w"), ev.MatchString("s"):
					in.forward = 0
				case ev.MatchString("a"), ev.MatchString("d"):
					in.strafe = 0
				}

			case uv.MouseClickEvent:
				mouseDown = true
				lastMouseX, lastMouseY = ev.X, ev.Y

			case uv.MouseReleaseEvent:
				mouseDown = false

			case uv.MouseMotionEvent:
				if mouseDown {
					in.yaw.target -= float64(ev.X-lastMouseX) * 0.03
					in.pitch.target -= float64(ev.Y-lastMouseY) * 0.05
					lastMouseX, lastMouseY = ev.X, ev.Y
				}
			}
			in.mu.Unlock()
		}
	}()

	targetDuration := time.Second / time.Duration(fps)

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}

	for {
		select {
		case <-ctx.Done():
			cleanup()
			return nil
		default:
		}

		now := time.Now()

		in.mu.Lock()
		if in.resized {
			width, height = in.width, in.height
			term.Erase()
			term.Resize(width, height)
			termRenderer = render.NewTerminalRenderer(term, width, height)
			fbWidth, fbHeight = termRenderer.FramebufferSize()
			fb = render.NewFramebuffer(fbWidth, fbHeight)
			rasterizer = render.NewRasterizer(s.Camera, fb)
			s.Resize(fbWidth, fbHeight)
			in.resized = false
		}
		s.Look(in.yaw.Update(), in.pitch.Update())
		s.Move(in.forward, in.strafe)
		// key release events are unreliable
		in.forward *= 0.9
		in.strafe *= 0.9

		if in.push {
			if e := s.Push(4); e != nil {
				hud.note = "pushed " + e.Name
			}
			in.push = false
		}
		if in.grab {
			s.ToggleGrab()
			in.grab = false
		}
		if in.toggleDebug {
			s.Drawer.Debug = !s.Drawer.Debug
			in.toggleDebug = false
		}
		snapshot := in.snapshot
		in.snapshot = false
		showHUD := in.hud
		in.mu.Unlock()

		hud.teleports += s.Step()
		s.Render(rasterizer)

		if snapshot {
			name := fmt.Sprintf("portals-%d.png", s.Frames())
			if err := fb.SaveSnapshot(name); err != nil {
				hud.note = err.Error()
			} else {
				hud.note = "saved " + name
			}
		}

		termRenderer.Render(fb)
		if err := termRenderer.Flush(); err != nil {
			cleanup()
			return fmt.Errorf("flush: %w", err)
		}

		hud.UpdateFPS()
		hud.Render(width, height, showHUD, s)

		elapsed := time.Since(now)
		if elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}
