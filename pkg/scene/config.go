// Package scene builds a walkable portal level from a JSON description and
// draws it through the software rasterizer.
package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrUnknownPortal is returned when a portal links to a name that does not exist.
	ErrUnknownPortal = errors.New("scene: unknown portal")
	// ErrDuplicateName is returned when two portals or two props share a name.
	ErrDuplicateName = errors.New("scene: duplicate name")
)

// Vec is a JSON-friendly 3D vector.
type Vec [3]float64

// PortalConfig describes one portal surface. Angles are in degrees.
type PortalConfig struct {
	Name     string  `json:"name"`
	Position Vec     `json:"position"`
	Yaw      float64 `json:"yaw"`
	Pitch    float64 `json:"pitch"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`

	// Link names the partner portal; empty leaves the portal closed.
	Link   string `json:"link"`
	OneWay bool   `json:"one_way"`

	ClipOffset float64 `json:"clip_offset"`
}

// PropConfig describes a movable object. Model, when set, is a .glb file;
// otherwise the prop is a box with half extents Size.
type PropConfig struct {
	Name     string     `json:"name"`
	Model    string     `json:"model"`
	Size     Vec        `json:"size"`
	Color    [4]float64 `json:"color"`
	Position Vec        `json:"position"`
	Yaw      float64    `json:"yaw"`
	Velocity Vec        `json:"velocity"`
	Spin     Vec        `json:"spin"`

	Kinematic bool `json:"kinematic"`
}

// WallConfig is a static box with half extents Size.
type WallConfig struct {
	Position Vec        `json:"position"`
	Size     Vec        `json:"size"`
	Color    [4]float64 `json:"color"`
}

// PlayerConfig places the viewer.
type PlayerConfig struct {
	Position  Vec     `json:"position"`
	Yaw       float64 `json:"yaw"`
	Radius    float64 `json:"radius"`
	EyeHeight float64 `json:"eye_height"`
	Speed     float64 `json:"speed"`
}

// Config is the full scene description.
type Config struct {
	Portals []PortalConfig `json:"portals"`
	Props   []PropConfig   `json:"props"`
	Walls   []WallConfig   `json:"walls"`
	Player  PlayerConfig   `json:"player"`

	// FloorSize and FloorCenter default to a square covering every portal,
	// wall, prop and the player.
	FloorSize    float64 `json:"floor_size"`
	FloorCenter  *Vec    `json:"floor_center"`
	FloorTexture string  `json:"floor_texture"`

	// Lens, degrees and world units
	FOV  float64 `json:"fov"`
	Near float64 `json:"near"`
	Far  float64 `json:"far"`

	FPS         int     `json:"fps"`
	Gravity     float64 `json:"gravity"`
	TargetScale float64 `json:"target_scale"`
	SlabMargin  float64 `json:"slab_margin"`
	FieldDepth  float64 `json:"field_depth"`
	HoldDist    float64 `json:"hold_distance"`
	Debug       bool    `json:"debug"`

	// BaseDir resolves relative model and texture paths. Load sets it to
	// the config file's directory.
	BaseDir string `json:"-"`
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	FOV         float64
	TargetScale float64
	FPS         int
	Model       string // replaces the model of every prop
	Debug       bool
}

// Load reads a JSON config file. Fields not set in the file keep their
// zero values until Resolve.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.BaseDir = filepath.Dir(path)

	return cfg, nil
}

// Resolve applies flag overrides and fills every unset field with a default.
func (c *Config) Resolve(flags Flags) {
	if flags.FOV > 0 {
		c.FOV = flags.FOV
	}
	if flags.TargetScale > 0 {
		c.TargetScale = flags.TargetScale
	}
	if flags.FPS > 0 {
		c.FPS = flags.FPS
	}
	if flags.Debug {
		c.Debug = true
	}
	if flags.Model != "" {
		for i := range c.Props {
			c.Props[i].Model = flags.Model
		}
	}

	if c.FOV <= 0 {
		c.FOV = 70
	}
	if c.Near <= 0 {
		c.Near = 0.05
	}
	if c.Far <= c.Near {
		c.Far = 100
	}
	if c.FPS <= 0 {
		c.FPS = 60
	}
	if c.Gravity == 0 {
		c.Gravity = -9.81
	}
	if c.TargetScale <= 0 || c.TargetScale > 1 {
		c.TargetScale = 1
	}
	if c.SlabMargin <= 0 {
		c.SlabMargin = 0.1
	}
	if c.FieldDepth <= 0 {
		c.FieldDepth = 1
	}
	if c.HoldDist <= 0 {
		c.HoldDist = 1.5
	}
	p := &c.Player
	if p.Radius <= 0 {
		p.Radius = 0.3
	}
	if p.EyeHeight <= 0 {
		p.EyeHeight = 1.6
	}
	if p.Speed <= 0 {
		p.Speed = 3
	}

	for i := range c.Portals {
		if c.Portals[i].Width <= 0 {
			c.Portals[i].Width = 2
		}
		if c.Portals[i].Height <= 0 {
			c.Portals[i].Height = 3
		}
	}
	for i := range c.Props {
		pr := &c.Props[i]
		if pr.Size == (Vec{}) {
			pr.Size = Vec{0.25, 0.25, 0.25}
		}
		if pr.Color == ([4]float64{}) {
			pr.Color = [4]float64{0.8, 0.5, 0.2, 1}
		}
	}
	for i := range c.Walls {
		if c.Walls[i].Color == ([4]float64{}) {
			c.Walls[i].Color = [4]float64{0.7, 0.7, 0.75, 1}
		}
	}

	lo, hi := c.extent()
	if c.FloorCenter == nil {
		c.FloorCenter = &Vec{(lo[0] + hi[0]) / 2, 0, (lo[2] + hi[2]) / 2}
	}
	if c.FloorSize <= 0 {
		c.FloorSize = max(minFloorSize, hi[0]-lo[0]+floorMargin, hi[2]-lo[2]+floorMargin)
	}
}

const (
	minFloorSize = 20
	floorMargin  = 10
)

// extent returns the horizontal bounds of everything placed in the scene.
func (c *Config) extent() (lo, hi Vec) {
	lo, hi = c.Player.Position, c.Player.Position
	grow := func(p, half Vec) {
		for i := range 3 {
			lo[i] = min(lo[i], p[i]-half[i])
			hi[i] = max(hi[i], p[i]+half[i])
		}
	}
	for _, pc := range c.Portals {
		grow(pc.Position, Vec{pc.Width / 2, 0, pc.Width / 2})
	}
	for _, w := range c.Walls {
		grow(w.Position, w.Size)
	}
	for _, pr := range c.Props {
		grow(pr.Position, pr.Size)
	}
	return lo, hi
}

// path resolves p against BaseDir.
func (c *Config) path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// Validate checks names and links.
func (c *Config) Validate() error {
	portals := make(map[string]bool)
	for _, p := range c.Portals {
		if portals[p.Name] {
			return fmt.Errorf("portal %q: %w", p.Name, ErrDuplicateName)
		}
		portals[p.Name] = true
	}
	for _, p := range c.Portals {
		if p.Link != "" && !portals[p.Link] {
			return fmt.Errorf("portal %q links to %q: %w", p.Name, p.Link, ErrUnknownPortal)
		}
		if p.Link == p.Name && p.Link != "" {
			return fmt.Errorf("portal %q links to itself: %w", p.Name, ErrUnknownPortal)
		}
	}

	props := make(map[string]bool)
	for _, p := range c.Props {
		if props[p.Name] {
			return fmt.Errorf("prop %q: %w", p.Name, ErrDuplicateName)
		}
		props[p.Name] = true
	}
	return nil
}

// DefaultConfig returns two rooms joined by a portal pair: portal A at the
// origin facing +Z and portal B ten units along X facing -Z.
func DefaultConfig() Config {
	wall := [4]float64{0.55, 0.6, 0.7, 1}
	return Config{
		Portals: []PortalConfig{
			{Name: "A", Position: Vec{0, 1.5, 0}, Yaw: 0, Width: 2, Height: 3, Link: "B"},
			{Name: "B", Position: Vec{10, 1.5, 0}, Yaw: 180, Width: 2, Height: 3, Link: "A"},
		},
		Props: []PropConfig{
			{Name: "crate", Size: Vec{0.3, 0.3, 0.3}, Color: [4]float64{0.85, 0.55, 0.2, 1}, Position: Vec{0.6, 0.3, -2.5}},
			{Name: "cube", Size: Vec{0.2, 0.2, 0.2}, Color: [4]float64{0.2, 0.7, 0.9, 1}, Position: Vec{11, 0.2, -3}, Spin: Vec{0, 1.5, 0}},
		},
		Walls: []WallConfig{
			// room around A, open towards -Z
			{Position: Vec{-3, 1.5, 0}, Size: Vec{0.1, 1.5, 4}, Color: wall},
			{Position: Vec{3, 1.5, 0}, Size: Vec{0.1, 1.5, 4}, Color: wall},
			{Position: Vec{-2, 1.5, 0}, Size: Vec{1, 1.5, 0.1}, Color: wall},
			{Position: Vec{2, 1.5, 0}, Size: Vec{1, 1.5, 0.1}, Color: wall},
			// room around B
			{Position: Vec{7, 1.5, 0}, Size: Vec{0.1, 1.5, 4}, Color: [4]float64{0.75, 0.55, 0.55, 1}},
			{Position: Vec{13, 1.5, 0}, Size: Vec{0.1, 1.5, 4}, Color: [4]float64{0.75, 0.55, 0.55, 1}},
			{Position: Vec{8, 1.5, 0}, Size: Vec{1, 1.5, 0.1}, Color: [4]float64{0.75, 0.55, 0.55, 1}},
			{Position: Vec{12, 1.5, 0}, Size: Vec{1, 1.5, 0.1}, Color: [4]float64{0.75, 0.55, 0.55, 1}},
		},
		Player: PlayerConfig{Position: Vec{0, 0, -5}, Yaw: 180},
	}
}
