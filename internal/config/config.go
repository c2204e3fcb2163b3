package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Server struct {
	Port            string        `yaml:"port"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	PublicURL       string        `yaml:"public_url"` // used in share links, e.g. https://permits.madmatrix.site
}

type Source struct {
	Name      string `yaml:"name"`
	Kind      string `yaml:"kind"`  // sheetdb | xlsx | postgres
	URL       string `yaml:"url"`   // sheetdb
	Sheet     string `yaml:"sheet"` // sheetdb query param, xlsx sheet or postgres sheet key
	Path      string `yaml:"path"`  // xlsx
	Token     string `yaml:"token"` // optional bearer token for sheetdb
	UserAgent string `yaml:"user_agent"`
}

type Registry struct {
	Sources     []Source      `yaml:"sources"`
	Match       string        `yaml:"match"` // any | email_columns
	Timeout     time.Duration `yaml:"timeout"`
	Parallel    bool          `yaml:"parallel"`
	MaxInFlight int           `yaml:"max_in_flight"`
}

type Greeting struct {
	Provider  string        `yaml:"provider"` // gemini | static
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"api_key"`
	Timeout   time.Duration `yaml:"timeout"`
	Fallbacks []string      `yaml:"fallbacks"`
}

type QR struct {
	Mode    string `yaml:"mode"` // remote | local
	Payload string `yaml:"payload"`
	BaseURL string `yaml:"base_url"`
	Size    int    `yaml:"size"`
}

type Ticket struct {
	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
	EventName     string `yaml:"event_name"`
	Tagline       string `yaml:"tagline"`
	Dates         string `yaml:"dates"`
	Year          string `yaml:"year"`
	Campus        string `yaml:"campus"`
	Venue         string `yaml:"venue"`
	Organizer     string `yaml:"organizer"`
	LogoURL       string `yaml:"logo_url"`
	BackgroundURL string `yaml:"background_url"`
	QR            QR     `yaml:"qr"`
}

type Export struct {
	Scale         float64       `yaml:"scale"`
	ImageAttempts int           `yaml:"image_attempts"`
	PollDelay     time.Duration `yaml:"poll_delay"`
	SettleDelay   time.Duration `yaml:"settle_delay"`
	JPEGQuality   int           `yaml:"jpeg_quality"`
	MaxConcurrent int           `yaml:"max_concurrent"`
	Timeout       time.Duration `yaml:"timeout"`
	ChromeBin     string        `yaml:"chrome_bin"`
	ControlURL    string        `yaml:"control_url"` // attach to a running Chrome instead of launching one
}

type Database struct {
	URL string `yaml:"url"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | console
}

type Config struct {
	Server   Server   `yaml:"server"`
	Registry Registry `yaml:"registry"`
	Greeting Greeting `yaml:"greeting"`
	Ticket   Ticket   `yaml:"ticket"`
	Export   Export   `yaml:"export"`
	Database Database `yaml:"database"`
	Log      Log      `yaml:"log"`
}

const sheetDBBase = "https://sheetdb.io/api/v1/06ca0hvc7hw5j"

// DefaultSources are the five sheets of the event registry.
func DefaultSources() []Source {
	return []Source{
		{Name: "main", Kind: "sheetdb", URL: sheetDBBase},
		{Name: "mobile-games", Kind: "sheetdb", URL: sheetDBBase, Sheet: "MOBILE GAMES & mad sports"},
		{Name: "off-stage", Kind: "sheetdb", URL: sheetDBBase, Sheet: "OFF STAGE"},
		{Name: "on-stage", Kind: "sheetdb", URL: sheetDBBase, Sheet: "ON STAGE"},
		{Name: "sports", Kind: "sheetdb", URL: sheetDBBase, Sheet: "SPORTS FORM"},
	}
}

// DefaultFallbacks are the static greetings used when generation fails.
func DefaultFallbacks() []string {
	return []string{
		"Access granted. Protocol initiated.",
		"Welcome to the grid, runner.",
		"Identity verified. The Matrix awaits.",
		"Signal locked. Enter the MadMatrix.",
	}
}

// Load reads the YAML file at path (optional), applies env overrides and defaults.
// A .env file in the working directory is loaded first without overriding
// variables that are already set.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}
	c.applyEnv()
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = ParseCSV(v)
	}
	if v := os.Getenv("PUBLIC_URL"); v != "" {
		c.Server.PublicURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if c.Greeting.APIKey == "" {
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			c.Greeting.APIKey = v
		} else if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
			c.Greeting.APIKey = v
		}
	}
	if v := os.Getenv("CHROME_BIN"); v != "" {
		c.Export.ChromeBin = v
	}
	if v := os.Getenv("CHROME_CONTROL_URL"); v != "" {
		c.Export.ControlURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 150 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 90 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	if len(c.Registry.Sources) == 0 {
		c.Registry.Sources = DefaultSources()
	}
	for i := range c.Registry.Sources {
		s := &c.Registry.Sources[i]
		if s.Kind == "" {
			s.Kind = "sheetdb"
		}
		if s.Name == "" {
			s.Name = fmt.Sprintf("%s-%d", s.Kind, i+1)
		}
	}
	if c.Registry.Match == "" {
		c.Registry.Match = "any"
	}
	if c.Registry.Timeout == 0 {
		c.Registry.Timeout = 15 * time.Second
	}
	if c.Registry.MaxInFlight <= 0 {
		c.Registry.MaxInFlight = 5
	}

	if c.Greeting.Provider == "" {
		c.Greeting.Provider = "gemini"
	}
	if c.Greeting.Model == "" {
		c.Greeting.Model = "gemini-2.5-flash"
	}
	if c.Greeting.Timeout == 0 {
		c.Greeting.Timeout = 6 * time.Second
	}
	if len(c.Greeting.Fallbacks) == 0 {
		c.Greeting.Fallbacks = DefaultFallbacks()
	}

	t := &c.Ticket
	if t.Width == 0 {
		t.Width = 850
	}
	if t.Height == 0 {
		t.Height = 480
	}
	if t.EventName == "" {
		t.EventName = "MADMATRIX"
	}
	if t.Tagline == "" {
		t.Tagline = "NATIONAL LEVEL SYMPOSIUM"
	}
	if t.Dates == "" {
		t.Dates = "MAR 13-14"
	}
	if t.Year == "" {
		t.Year = "2026"
	}
	if t.Campus == "" {
		t.Campus = "SIMATS"
	}
	if t.Venue == "" {
		t.Venue = "SIMATS ENGINEERING CAMPUS, CHENNAI"
	}
	if t.Organizer == "" {
		t.Organizer = "SIMATS ENGINEERING"
	}
	if t.QR.Mode == "" {
		t.QR.Mode = "remote"
	}
	if t.QR.Payload == "" {
		t.QR.Payload = "https://www.madmatrix.site/"
	}
	if t.QR.BaseURL == "" {
		t.QR.BaseURL = "https://api.qrserver.com/v1/create-qr-code/"
	}
	if t.QR.Size == 0 {
		t.QR.Size = 250
	}

	e := &c.Export
	if e.Scale == 0 {
		e.Scale = 3
	}
	if e.ImageAttempts == 0 {
		e.ImageAttempts = 10
	}
	if e.PollDelay == 0 {
		e.PollDelay = 200 * time.Millisecond
	}
	if e.SettleDelay == 0 {
		e.SettleDelay = 300 * time.Millisecond
	}
	if e.JPEGQuality == 0 {
		e.JPEGQuality = 95
	}
	if e.MaxConcurrent == 0 {
		e.MaxConcurrent = 2
	}
	if e.Timeout == 0 {
		e.Timeout = 45 * time.Second
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if len(c.Registry.Sources) == 0 {
		return errors.New("registry.sources: at least one source is required")
	}
	seen := make(map[string]struct{}, len(c.Registry.Sources))
	for i, s := range c.Registry.Sources {
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("registry.sources[%d]: duplicate name %q", i, s.Name)
		}
		seen[s.Name] = struct{}{}
		switch s.Kind {
		case "sheetdb":
			if s.URL == "" {
				return fmt.Errorf("registry.sources[%d]: url is required for sheetdb", i)
			}
		case "xlsx":
			if s.Path == "" {
				return fmt.Errorf("registry.sources[%d]: path is required for xlsx", i)
			}
		case "postgres":
			if c.Database.URL == "" {
				return fmt.Errorf("registry.sources[%d]: database.url is required for postgres sources", i)
			}
		default:
			return fmt.Errorf("registry.sources[%d]: unknown kind %q", i, s.Kind)
		}
	}
	switch c.Registry.Match {
	case "any", "email_columns":
	default:
		return fmt.Errorf("registry.match: unknown rule %q", c.Registry.Match)
	}
	switch c.Greeting.Provider {
	case "gemini", "static":
	default:
		return fmt.Errorf("greeting.provider: unknown provider %q", c.Greeting.Provider)
	}
	switch c.Ticket.QR.Mode {
	case "remote", "local":
	default:
		return fmt.Errorf("ticket.qr.mode: unknown mode %q", c.Ticket.QR.Mode)
	}
	if c.Export.Scale < 1 {
		return fmt.Errorf("export.scale must be >= 1, got %g", c.Export.Scale)
	}
	if c.Export.JPEGQuality < 1 || c.Export.JPEGQuality > 100 {
		return fmt.Errorf("export.jpeg_quality must be within 1..100, got %d", c.Export.JPEGQuality)
	}
	// A download looks the attendee up again before capturing, and both must
	// finish before the server gives up on the response.
	if need := c.Registry.WorstCase() + c.Export.Timeout; need >= c.Server.WriteTimeout {
		return fmt.Errorf("server.write_timeout (%s) must exceed the worst-case lookup plus export.timeout (%s)",
			c.Server.WriteTimeout, need)
	}
	return nil
}

// WorstCase is the longest a lookup can take when every source times out.
func (r Registry) WorstCase() time.Duration {
	rounds := len(r.Sources)
	if r.Parallel && r.MaxInFlight > 0 {
		rounds = (len(r.Sources) + r.MaxInFlight - 1) / r.MaxInFlight
	}
	return time.Duration(rounds) * r.Timeout
}

// ParseCSV splits a comma separated list, dropping blanks.
func ParseCSV(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
