package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Date is a wrapper around time.Time for YAML date parsing.
type Date struct {
	Time time.Time
}

func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	t, err := time.Parse("2006-01-02", value.Value)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", value.Value, err)
	}
	d.Time = t
	return nil
}

func (d Date) MarshalYAML() (interface{}, error) {
	return d.Time.Format("2006-01-02"), nil
}

type BlackoutDate struct {
	Date   Date   `yaml:"date"`
	Reason string `yaml:"reason"`
}

// Season controls how matchday numbers map onto calendar dates.
type Season struct {
	StartDate            Date           `yaml:"start_date"`
	DaysBetweenMatchdays int            `yaml:"days_between_matchdays"`
	BlackoutDates        []BlackoutDate `yaml:"blackout_dates"`
}

type Tournament struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type Group struct {
	ID    string   `yaml:"id" json:"id"`
	Name  string   `yaml:"name" json:"name"`
	Teams []string `yaml:"teams" json:"teams"`
}

type Knockout struct {
	Enabled bool `yaml:"enabled"`
}

// Store selects the persistence backend. Path is used by the file and sqlite
// backends, DSN by postgres, ProjectID and CredentialsFile by firestore.
type Store struct {
	Backend         string `yaml:"backend"`
	Path            string `yaml:"path"`
	DSN             string `yaml:"dsn"`
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

type Server struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type Config struct {
	Tournament Tournament `yaml:"tournament"`
	Season     Season     `yaml:"season"`
	Groups     []Group    `yaml:"groups"`
	Strategy   string     `yaml:"strategy"`
	Knockout   Knockout   `yaml:"knockout"`
	Store      Store      `yaml:"store"`
	Server     Server     `yaml:"server"`
}

// Store backends understood by store.Open.
const (
	BackendMemory    = "memory"
	BackendFile      = "file"
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
)

var knownStrategies = map[string]bool{
	"":                   true,
	"double_round_robin": true,
	"single_round_robin": true,
}

// AllTeams returns all team names across all groups.
func (c *Config) AllTeams() []string {
	var teams []string
	for _, g := range c.Groups {
		teams = append(teams, g.Teams...)
	}
	return teams
}

// Group returns the group with the given id.
func (c *Config) Group(id string) (Group, bool) {
	for _, g := range c.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

// LoadFromBytes parses YAML bytes into a Config, applies defaults and
// environment overrides, and validates it.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnv(os.Getenv)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads and parses a YAML config file. A .env file next to the
// working directory is loaded first when present.
func LoadFromFile(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromBytes(data)
}

func (c *Config) applyDefaults() {
	if c.Tournament.ID == "" {
		c.Tournament.ID = "default"
	}
	if c.Season.DaysBetweenMatchdays == 0 {
		c.Season.DaysBetweenMatchdays = 7
	}
	if c.Store.Backend == "" {
		c.Store.Backend = BackendMemory
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	for i := range c.Groups {
		if c.Groups[i].Name == "" {
			c.Groups[i].Name = c.Groups[i].ID
		}
	}
}

// applyEnv overrides store and server settings from the environment.
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("KICKOFF_STORE"); v != "" {
		c.Store.Backend = v
	}
	if v := getenv("KICKOFF_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.Store.DSN = v
	}
	if v := getenv("FIRESTORE_PROJECT_ID"); v != "" {
		c.Store.ProjectID = v
	}
	if v := getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" && c.Store.CredentialsFile == "" {
		c.Store.CredentialsFile = v
	}
	if v := getenv("KICKOFF_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

func (c *Config) validate() error {
	if len(c.Groups) == 0 {
		return fmt.Errorf("at least one group is required")
	}

	if c.Season.DaysBetweenMatchdays < 0 {
		return fmt.Errorf("days_between_matchdays must be positive, got %d", c.Season.DaysBetweenMatchdays)
	}

	if !knownStrategies[c.Strategy] {
		return fmt.Errorf("unknown strategy: %q", c.Strategy)
	}

	if err := ValidateGroups(c.Groups); err != nil {
		return err
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendFile, BackendSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store backend %q requires a path", c.Store.Backend)
		}
	case BackendPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store backend %q requires a dsn (or DATABASE_URL)", c.Store.Backend)
		}
	case BackendFirestore:
		if c.Store.ProjectID == "" {
			return fmt.Errorf("store backend %q requires a project_id (or FIRESTORE_PROJECT_ID)", c.Store.Backend)
		}
	default:
		return fmt.Errorf("unknown store backend: %q", c.Store.Backend)
	}

	return nil
}

// ValidateGroups checks group ids and team names. Ids must be set and
// unique; team names must be non-blank and unique case-insensitively across
// the whole tournament.
func ValidateGroups(groups []Group) error {
	groupIDs := make(map[string]bool)
	seen := make(map[string]string)
	for _, g := range groups {
		if strings.TrimSpace(g.ID) == "" {
			return fmt.Errorf("group %q has no id", g.Name)
		}
		if groupIDs[g.ID] {
			return fmt.Errorf("group id %q is used more than once", g.ID)
		}
		groupIDs[g.ID] = true

		for _, team := range g.Teams {
			if strings.TrimSpace(team) == "" {
				return fmt.Errorf("group %q has a blank team name", g.ID)
			}
			key := strings.ToLower(team)
			if prev, ok := seen[key]; ok {
				if prev == g.ID {
					return fmt.Errorf("team %q appears twice in group %q", team, g.ID)
				}
				return fmt.Errorf("team %q appears in both %q and %q groups", team, prev, g.ID)
			}
			seen[key] = g.ID
		}
	}
	return nil
}
