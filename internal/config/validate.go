package config

import (
	"fmt"
	"sort"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into the
// config, e.g. "storage.kind".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

var (
	knownStorage  = map[string]struct{}{"mongo": {}, "mssql": {}, "postgres": {}, "mysql": {}, "sqlite": {}}
	knownEntities = map[string]struct{}{"student": {}, "school": {}, "codebook": {}}
)

// ValidatePipeline lints p without mutating it.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels logs and metrics",
		})
	}
	switch p.Mode {
	case ModeRequired, ModeFolder:
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "mode",
			Message:  fmt.Sprintf("unknown mode %q; want %q or %q", p.Mode, ModeRequired, ModeFolder),
		})
	}
	issues = append(issues, validateSource(p.Mode, p.Source)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateRuntime(p.Runtime)...)
	issues = append(issues, validateEntities(p.Entities)...)
	return issues
}

func validateSource(mode string, s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Root) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.root",
			Message:  "source.root must not be empty",
		})
	}
	if s.MaxDepth < -1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.max_depth",
			Message:  fmt.Sprintf("max_depth=%d; use -1 for unbounded", s.MaxDepth),
		})
	}
	if mode == ModeRequired && len(s.OnlyPrefixes) > 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.only_prefixes",
			Message:  "only_prefixes is ignored in required mode",
		})
	}
	if s.Cache.RemotePrefix != "" && s.Cache.Dir == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.cache.dir",
			Message:  "remote_prefix set without cache.dir; the system temp dir is used",
		})
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
	}
	if _, ok := knownStorage[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}
	if strings.TrimSpace(s.DSN) == "" && strings.TrimSpace(s.DSNEnv) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.dsn",
			Message:  "either storage.dsn or storage.dsn_env must be set",
		})
	}
	if s.CreateDatabase && s.Kind != "mssql" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.create_database",
			Message:  fmt.Sprintf("create_database is only honored by mssql, not %q", s.Kind),
		})
	}
	if s.Kind == "mongo" && s.Schema != "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.schema",
			Message:  "schema has no meaning for mongo",
		})
	}
	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	if r.BatchSize < 1 {
		return []Issue{{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  fmt.Sprintf("batch_size=%d; must be >= 1", r.BatchSize),
		}}
	}
	return nil
}

func validateEntities(o Options) []Issue {
	var issues []Issue
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := knownEntities[k]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "entities." + k,
				Message:  fmt.Sprintf("unknown entity %q is ignored", k),
			})
		}
	}
	return issues
}
