package detect

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vigil/metrics"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// manifest is the on-disk source artifact for a detection unit. The
// predicate and extractors are compiled in; the manifest selects a
// catalog entry and may override its static attributes.
type manifest struct {
	// Detection names the catalog entry; defaults to the file stem.
	Detection string   `yaml:"detection" json:"detection"`
	Enabled   *bool    `yaml:"enabled" json:"enabled"`
	LogTypes  []string `yaml:"log_types" json:"log_types"`
	Tags      []string `yaml:"tags" json:"tags"`
}

// Loader materializes units from manifest files and registers them.
type Loader struct {
	registry *Registry
	logger   *zap.SugaredLogger
}

// NewLoader creates a loader that registers into the given registry.
func NewLoader(registry *Registry, logger *zap.SugaredLogger) *Loader {
	return &Loader{registry: registry, logger: logger}
}

// LoadOne loads a single unit from a manifest file and registers it
// under the file stem, replacing any prior unit with the same ID.
//
// Failure taxonomy: *NotFoundError when the file does not exist,
// *LoadError when the manifest cannot be parsed or fails schema
// validation, *ContractError when the referenced detection is not in
// the catalog or builds without a predicate.
func (l *Loader) LoadOne(path string) (*Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, &LoadError{Source: path, Err: err}
	}

	id := stem(path)

	var m manifest
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		err = yaml.Unmarshal(data, &m)
	} else {
		// JSON manifests are validated against the manifest schema when
		// one sits next to them; YAML ones are parse-checked only.
		if schemaErr := l.validateManifestSchema(path, data); schemaErr != nil {
			return nil, &LoadError{Source: path, Err: schemaErr}
		}
		err = json.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, &LoadError{Source: path, Err: fmt.Errorf("failed to unmarshal manifest: %w", err)}
	}

	name := m.Detection
	if name == "" {
		name = id
	}
	builder, ok := LookupBuiltin(name)
	if !ok {
		return nil, &ContractError{Source: path, Reason: fmt.Sprintf("detection %q is not in the catalog", name)}
	}

	unit := builder()
	if unit == nil || unit.Rule == nil {
		return nil, &ContractError{Source: path, Reason: "detection does not define a rule predicate"}
	}

	unit.ID = id
	unit.SourceRef = path
	if m.Enabled != nil {
		unit.Enabled = *m.Enabled
	}
	if m.LogTypes != nil {
		unit.LogTypes = m.LogTypes
	}
	if m.Tags != nil {
		unit.Tags = m.Tags
	}

	l.registry.Register(unit)
	metrics.UnitsLoaded.Inc()
	return unit, nil
}

// LoadMany loads every eligible manifest in a directory. Files whose
// name starts with "_" are treated as private and skipped. A failure on
// one manifest is logged and counted, never aborts the batch; only
// successfully loaded units are returned.
func (l *Loader) LoadMany(dir string) ([]*Unit, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: dir}
		}
		return nil, &LoadError{Source: dir, Err: err}
	}

	var loaded []*Unit
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "_") || !eligibleManifest(name) {
			continue
		}
		unit, err := l.LoadOne(filepath.Join(dir, name))
		if err != nil {
			l.logger.Warnf("Skipping detection %s: %v", name, err)
			metrics.UnitLoadFailures.WithLabelValues(failureReason(err)).Inc()
			continue
		}
		loaded = append(loaded, unit)
	}

	l.logger.Infof("Loaded %d detections from %s", len(loaded), dir)
	return loaded, nil
}

// validateManifestSchema validates JSON manifest bytes against
// manifest_schema.json in the same directory, when present.
func (l *Loader) validateManifestSchema(path string, data []byte) error {
	schemaPath := filepath.Join(filepath.Dir(path), "manifest_schema.json")
	schemaData, err := os.ReadFile(schemaPath)
	if err != nil {
		l.logger.Debugf("Manifest schema not found, skipping validation: %v", err)
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaData),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("failed to validate manifest against schema: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("manifest validation failed: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func eligibleManifest(name string) bool {
	switch filepath.Ext(name) {
	case ".yaml", ".yml", ".json":
		return name != "manifest_schema.json"
	}
	return false
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func failureReason(err error) string {
	switch err.(type) {
	case *NotFoundError:
		return "not_found"
	case *ContractError:
		return "contract"
	default:
		return "load"
	}
}
