package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"orlop/internal/platform"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// Validate checks the config for values the installer cannot use.
func (c Config) Validate() []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateInstall()...)
	results = append(results, c.validateLog()...)
	results = append(results, c.validateTools()...)
	return results
}

// Errors returns only the error-level findings.
func Errors(results []ValidationResult) []ValidationResult {
	var errs []ValidationResult
	for _, r := range results {
		if r.Level == "error" {
			errs = append(errs, r)
		}
	}
	return errs
}

func (c Config) validateInstall() []ValidationResult {
	var results []ValidationResult
	if c.Install.Jobs < 0 {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("install.jobs must be positive, got %d", c.Install.Jobs),
		})
	}
	if c.Install.RetriesValue() < 0 {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("install.retries must not be negative, got %d", c.Install.RetriesValue()),
		})
	}
	if c.Install.Timeout < 0 {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("install.timeout must not be negative, got %s", c.Install.Timeout),
		})
	}
	if c.Install.ReleaseCacheTTLValue() < 0 {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: "install.release_cache_ttl must not be negative",
		})
	}
	return results
}

func (c Config) validateLog() []ValidationResult {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return []ValidationResult{{
			Level:   "error",
			Message: fmt.Sprintf("log.level %q is not a known level", c.Log.Level),
		}}
	}
	return nil
}

func (c Config) validateTools() []ValidationResult {
	var results []ValidationResult
	seen := map[string]bool{}
	for i, entry := range c.Tools {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("tools[%d] is missing a name", i),
			})
			continue
		}
		if seen[name] {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("tool %q is listed more than once; the last entry wins", name),
			})
		}
		seen[name] = true

		keys := make([]string, 0, len(entry.Platforms))
		for key := range entry.Platforms {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			pc := entry.Platforms[key]
			if !platform.Key(key).Valid() {
				results = append(results, ValidationResult{
					Level:   "warning",
					Message: fmt.Sprintf("tool %q: platform %q is not supported and will be ignored", name, key),
				})
			}
			if strings.TrimSpace(pc.Pattern) == "" {
				results = append(results, ValidationResult{
					Level:   "error",
					Message: fmt.Sprintf("tool %q: platform %q has no pattern", name, key),
				})
			}
			if !pc.NoExtract && strings.TrimSpace(pc.ExtractPath) == "" {
				results = append(results, ValidationResult{
					Level:   "warning",
					Message: fmt.Sprintf("tool %q: platform %q has no extract_path; the binary name is assumed", name, key),
				})
			}
		}
	}
	return results
}
