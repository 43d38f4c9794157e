// Package config defines the JSON configuration model for pisaetl runs.
//
// Example:
//
//	{
//	  "job": "pisa2018-bra",
//	  "mode": "required",
//	  "source":  { "root": "/mnt/pisa", "cache": { "dir": "/tmp/pisa", "remote_prefix": "/mnt/" } },
//	  "storage": { "kind": "mssql", "dsn_env": "MSSQL_DSN", "database": "PISA", "schema": "dbo",
//	               "drop_existing": true, "create_database": true },
//	  "runtime": { "batch_size": 50000 }
//	}
package config

import "encoding/json"

// Run modes.
const (
	ModeRequired = "required" // STU, SCH and codebook workbooks
	ModeFolder   = "folder"   // every .xlsx under source.root
)

// Pipeline describes one ingestion run.
type Pipeline struct {
	// Job labels logs and metrics.
	Job string `json:"job"`
	// Mode selects ModeRequired or ModeFolder.
	Mode    string        `json:"mode"`
	Source  Source        `json:"source"`
	Storage Storage       `json:"storage"`
	Runtime RuntimeConfig `json:"runtime"`

	// Entities overrides per-entity settings, keyed by entity name, e.g.
	// {"student": {"file": "STU_BRA_2018.xlsx", "target": "STU"}, "codebook": {"enabled": false}}.
	Entities Options `json:"entities"`
}

// Source locates input workbooks.
type Source struct {
	Root string `json:"root"`
	// MaxDepth bounds the directory walk; -1 is unbounded, 0 is root only.
	MaxDepth        int      `json:"max_depth"`
	CaseInsensitive bool     `json:"case_insensitive"`
	Recursive       bool     `json:"recursive"`
	OnlyPrefixes    []string `json:"only_prefixes"`
	Cache           Cache    `json:"cache"`
}

// Cache configures local copies of files read from a remote mount.
type Cache struct {
	Dir string `json:"dir"`
	// RemotePrefix marks paths that are copied before reading, e.g. "/mnt/drive/".
	RemotePrefix string `json:"remote_prefix"`
}

// Storage selects the sink.
type Storage struct {
	// Kind is a registered storage kind: mongo, mssql, postgres, mysql, sqlite.
	Kind string `json:"kind"`
	// DSN wins over DSNEnv; see ResolveDSN.
	DSN     string `json:"dsn"`
	DSNEnv  string `json:"dsn_env"`
	EnvFile string `json:"env_file"`

	Database       string `json:"database"`
	Schema         string `json:"schema"`
	DropExisting   bool   `json:"drop_existing"`
	CreateDatabase bool   `json:"create_database"`
}

// RuntimeConfig controls batching.
type RuntimeConfig struct {
	BatchSize int `json:"batch_size"`
}

// Default returns the settings used for keys a config file leaves out.
func Default() Pipeline {
	return Pipeline{
		Job:  "pisa2018",
		Mode: ModeRequired,
		Source: Source{
			MaxDepth:        -1,
			CaseInsensitive: true,
			Recursive:       true,
		},
		Storage: Storage{
			Kind:         "mongo",
			DSNEnv:       "MONGO_URI",
			Database:     "pisa2018",
			DropExisting: true,
		},
		Runtime:  RuntimeConfig{BatchSize: 50_000},
		Entities: Options{},
	}
}

// Options fetches typed values from free-form JSON maps, returning def when a
// key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// StringSlice returns a []string for key when the value is an array of
// strings; nil otherwise.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// Sub returns the nested object under key as Options (empty if absent).
func (o Options) Sub(key string) Options {
	if v, ok := o[key]; ok {
		switch m := v.(type) {
		case map[string]any:
			return Options(m)
		case Options:
			return m
		}
	}
	return Options{}
}

// UnmarshalJSON decodes a missing or null object to an empty, non-nil map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
