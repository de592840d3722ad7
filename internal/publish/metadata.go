package publish

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidMetadata reports a metadata file that cannot back an upload.
var ErrInvalidMetadata = errors.New("invalid upload metadata")

var validPrivacyStatuses = map[string]struct{}{
	"public":   {},
	"unlisted": {},
	"private":  {},
}

// LoadMetadata reads an upload metadata file in YAML form.
func LoadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("read metadata file: %w", err)
	}
	var meta Metadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	if err := meta.Validate(); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

// Validate checks the listing fields against platform constraints.
func (m Metadata) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidMetadata)
	}
	if m.PrivacyStatus != "" {
		if _, ok := validPrivacyStatuses[m.PrivacyStatus]; !ok {
			return fmt.Errorf("%w: privacy_status %q (must be public, unlisted, or private)", ErrInvalidMetadata, m.PrivacyStatus)
		}
	}
	return nil
}

// ApplyDefaults fills unset fields from configured channel defaults.
func (m *Metadata) ApplyDefaults(categoryID, privacyStatus, language string, notifySubscribers bool) {
	if m.CategoryID == "" {
		m.CategoryID = categoryID
	}
	if m.PrivacyStatus == "" {
		m.PrivacyStatus = privacyStatus
	}
	if m.Language == "" {
		m.Language = language
	}
	if !m.NotifySubscribers {
		m.NotifySubscribers = notifySubscribers
	}
}
