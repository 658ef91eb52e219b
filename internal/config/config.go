// Package config loads the clock's YAML configuration. Every key can be
// overridden by an ACLOCK_* environment variable, e.g. ACLOCK_RING_COUNT.
package config

import (
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-aclock/internal/display/hw"
	"github.com/coreman2200/funtimes-aclock/internal/loop"
	"github.com/coreman2200/funtimes-aclock/internal/render"
	"github.com/coreman2200/funtimes-aclock/internal/solar"
)

const EnvPrefix = "ACLOCK"

// Drivers accepted by the live command.
var Drivers = []string{"hardware", "sim", "term", "png", "ws"}

type Config struct {
	Driver   string   `mapstructure:"driver" yaml:"driver"`
	Location Location `mapstructure:"location" yaml:"location"`
	Render   Render   `mapstructure:"render" yaml:"render"`
	Loop     Loop     `mapstructure:"loop" yaml:"loop"`
	Matrix   Matrix   `mapstructure:"matrix" yaml:"matrix"`
	Ring     Ring     `mapstructure:"ring" yaml:"ring"`
	Sim      Sim      `mapstructure:"sim" yaml:"sim"`
	Preview  Preview  `mapstructure:"preview" yaml:"preview"`
	Video    Video    `mapstructure:"video" yaml:"video"`
	Logging  Logging  `mapstructure:"logging" yaml:"logging"`
}

type Location struct {
	Latitude  float64 `mapstructure:"latitude" yaml:"latitude"`
	Longitude float64 `mapstructure:"longitude" yaml:"longitude"`
}

type Render struct {
	Scale     int    `mapstructure:"scale" yaml:"scale"`
	FaceColor string `mapstructure:"face_color" yaml:"face_color"` // #rrggbb
}

type Loop struct {
	Interval     time.Duration `mapstructure:"interval" yaml:"interval"`
	Speed        float64       `mapstructure:"speed" yaml:"speed"`
	MaxTransient int           `mapstructure:"max_transient" yaml:"max_transient"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	Align        bool          `mapstructure:"align" yaml:"align"`
}

type Matrix struct {
	Enabled         bool   `mapstructure:"enabled" yaml:"enabled"`
	Rows            int    `mapstructure:"rows" yaml:"rows"`
	Cols            int    `mapstructure:"cols" yaml:"cols"`
	Chain           int    `mapstructure:"chain" yaml:"chain"`
	Parallel        int    `mapstructure:"parallel" yaml:"parallel"`
	HardwareMapping string `mapstructure:"hardware_mapping" yaml:"hardware_mapping"`
	Brightness      int    `mapstructure:"brightness" yaml:"brightness"`
}

type Ring struct {
	SPIPort    string  `mapstructure:"spi_port" yaml:"spi_port"`
	Count      int     `mapstructure:"count" yaml:"count"`
	ColorOrder string  `mapstructure:"color_order" yaml:"color_order"`
	SpeedHz    int64   `mapstructure:"speed_hz" yaml:"speed_hz"`
	Brightness float64 `mapstructure:"brightness" yaml:"brightness"`
	Offset     int     `mapstructure:"offset" yaml:"offset"`
	Reverse    bool    `mapstructure:"reverse" yaml:"reverse"`
	ChannelmA  float64 `mapstructure:"channel_ma" yaml:"channel_ma"`
	BudgetmA   float64 `mapstructure:"budget_ma" yaml:"budget_ma"`
	PixelCap   float64 `mapstructure:"pixel_cap" yaml:"pixel_cap"`
}

type Sim struct {
	PNGPath string `mapstructure:"png_path" yaml:"png_path"`
}

type Preview struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

type Video struct {
	Workers int           `mapstructure:"workers" yaml:"workers"`
	Window  int           `mapstructure:"window" yaml:"window"`
	FPS     float64       `mapstructure:"fps" yaml:"fps"`
	FFmpeg  string        `mapstructure:"ffmpeg" yaml:"ffmpeg"`
	Output  string        `mapstructure:"output" yaml:"output"`
	Step    time.Duration `mapstructure:"step" yaml:"step"`
	Span    time.Duration `mapstructure:"span" yaml:"span"`
}

type Logging struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("driver", "sim")

	v.SetDefault("location.latitude", 38.8895)
	v.SetDefault("location.longitude", -77.0353)

	v.SetDefault("render.scale", 1)
	v.SetDefault("render.face_color", "#ff0000")

	v.SetDefault("loop.interval", "1s")
	v.SetDefault("loop.speed", 1.0)
	v.SetDefault("loop.max_transient", 2)
	v.SetDefault("loop.write_timeout", "250ms")
	v.SetDefault("loop.align", true)

	v.SetDefault("matrix.enabled", true)
	v.SetDefault("matrix.rows", hw.DefaultMatrix.Rows)
	v.SetDefault("matrix.cols", hw.DefaultMatrix.Cols)
	v.SetDefault("matrix.chain", hw.DefaultMatrix.Chain)
	v.SetDefault("matrix.parallel", hw.DefaultMatrix.Parallel)
	v.SetDefault("matrix.hardware_mapping", hw.DefaultMatrix.HardwareMapping)
	v.SetDefault("matrix.brightness", hw.DefaultMatrix.Brightness)

	v.SetDefault("ring.spi_port", "")
	v.SetDefault("ring.count", 60)
	v.SetDefault("ring.color_order", "RGBW")
	v.SetDefault("ring.speed_hz", 2400000)
	v.SetDefault("ring.brightness", 0.1)
	v.SetDefault("ring.offset", 0)
	v.SetDefault("ring.reverse", false)
	v.SetDefault("ring.channel_ma", 20.0)
	v.SetDefault("ring.budget_ma", 0.0)
	v.SetDefault("ring.pixel_cap", 0.0)

	v.SetDefault("sim.png_path", "aclock.png")

	v.SetDefault("preview.enabled", false)
	v.SetDefault("preview.addr", ":8080")

	v.SetDefault("video.workers", 0)
	v.SetDefault("video.window", 0)
	v.SetDefault("video.fps", 15.0)
	v.SetDefault("video.ffmpeg", "ffmpeg")
	v.SetDefault("video.output", "aclock.webp")
	v.SetDefault("video.step", "24h")
	v.SetDefault("video.span", "8760h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads path, if given, over the defaults and applies ACLOCK_*
// environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default is the configuration with no file and no environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) Validate() error {
	var problems []string
	if _, err := c.Geo(); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Render.Scale < 1 {
		problems = append(problems, fmt.Sprintf("render.scale %d must be >= 1", c.Render.Scale))
	}
	if _, err := ParseColor(c.Render.FaceColor); err != nil {
		problems = append(problems, err.Error())
	}
	if !validDriver(c.Driver) {
		problems = append(problems, fmt.Sprintf("driver %q must be one of %s", c.Driver, strings.Join(Drivers, "|")))
	}
	if c.Loop.Interval <= 0 || c.Loop.Speed <= 0 {
		problems = append(problems, "loop.interval and loop.speed must be positive")
	}
	if c.Ring.Count < 1 {
		problems = append(problems, fmt.Sprintf("ring.count %d must be >= 1", c.Ring.Count))
	}
	if err := hw.Order(c.Ring.ColorOrder).Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Ring.BudgetmA < 0 || c.Ring.PixelCap < 0 {
		problems = append(problems, "ring.budget_ma and ring.pixel_cap must not be negative")
	}
	if c.Ring.Brightness < 0 || c.Ring.Brightness > 1 {
		problems = append(problems, fmt.Sprintf("ring.brightness %g out of 0..1", c.Ring.Brightness))
	}
	if c.Matrix.Enabled {
		if err := c.MatrixOpts().Validate(); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if c.Video.Workers < 0 || c.Video.Window < 0 || c.Video.FPS < 0 {
		problems = append(problems, "video.workers, video.window and video.fps must not be negative")
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		problems = append(problems, fmt.Sprintf("logging.level %q", c.Logging.Level))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", solar.ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

func validDriver(d string) bool {
	for _, ok := range Drivers {
		if d == ok {
			return true
		}
	}
	return false
}

func (c *Config) Geo() (solar.Geo, error) {
	return solar.NewGeo(c.Location.Latitude, c.Location.Longitude)
}

// Params builds render parameters from the render section.
func (c *Config) Params() (render.Params, error) {
	p, err := render.NewParams(c.Render.Scale)
	if err != nil {
		return p, err
	}
	face, err := ParseColor(c.Render.FaceColor)
	if err != nil {
		return p, err
	}
	return p.WithFace(face), nil
}

func (c *Config) MatrixOpts() hw.MatrixOpts {
	return hw.MatrixOpts{
		Rows:            c.Matrix.Rows,
		Cols:            c.Matrix.Cols,
		Chain:           c.Matrix.Chain,
		Parallel:        c.Matrix.Parallel,
		HardwareMapping: c.Matrix.HardwareMapping,
		Brightness:      c.Matrix.Brightness,
	}
}

// Hardware builds the hardware backend configuration.
func (c *Config) Hardware() hw.Config {
	return hw.Config{
		Matrix:   c.MatrixOpts(),
		NoMatrix: !c.Matrix.Enabled,
		SPIPort:  c.Ring.SPIPort,
		Ring: hw.RingOpts{
			Count:      c.Ring.Count,
			Order:      hw.Order(c.Ring.ColorOrder),
			Freq:       physic.Frequency(c.Ring.SpeedHz) * physic.Hertz,
			Brightness: c.Ring.Brightness,
			Power: hw.Power{
				ChannelmA: c.Ring.ChannelmA,
				BudgetmA:  c.Ring.BudgetmA,
				PixelCap:  c.Ring.PixelCap,
			},
		},
		Layout: hw.Layout{
			RingCount:   c.Ring.Count,
			RingOffset:  c.Ring.Offset,
			RingReverse: c.Ring.Reverse,
		},
		WriteTimeout: c.Loop.WriteTimeout,
	}
}

// LoopConfig builds the render loop configuration. Epoch and Location are
// left for the caller.
func (c *Config) LoopConfig() loop.Config {
	return loop.Config{
		Interval:     c.Loop.Interval,
		Speed:        c.Loop.Speed,
		MaxTransient: c.Loop.MaxTransient,
		Align:        c.Loop.Align && c.Loop.Speed == 1,
	}
}

// ParseColor reads #rrggbb.
func ParseColor(s string) (color.RGBA, error) {
	var r, g, b uint8
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("color %q must be #rrggbb", s)
	}
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}
