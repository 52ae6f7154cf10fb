package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	appName      = "ranobed"
	DefaultLabel = "Default"
	profileExt   = ".yaml"
)

var (
	ErrNoConfig     = errors.New("no config selected")
	ErrEmptyLabel   = errors.New("label cannot be empty")
	ErrInvalidLabel = errors.New("label must not contain path separators")
)

// ConfigRoot resolves the settings directory. RANOBED_CONFIG_DIR wins
// over the platform locations.
func ConfigRoot() string {
	if dir := os.Getenv("RANOBED_CONFIG_DIR"); dir != "" {
		return dir
	}

	// Windows
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		return filepath.Join(appdata, appName)
	}

	// Linux/macOS XDG
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

func ConfigsDir() string {
	return filepath.Join(ConfigRoot(), "configs")
}

func CurrentLabelFile() string {
	return filepath.Join(ConfigRoot(), "current_config")
}

func ensureDirs() error {
	return os.MkdirAll(ConfigsDir(), 0o755)
}

// profilePath validates label and maps it to its YAML file.
func profilePath(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", ErrEmptyLabel
	}
	if strings.ContainsAny(label, `/\`) || label == "." || label == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	return filepath.Join(ConfigsDir(), label+profileExt), nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func setCurrent(label string) error {
	return os.WriteFile(CurrentLabelFile(), []byte(label), 0o644)
}

func CurrentLabel() (string, error) {
	if err := ensureDirs(); err != nil {
		return "", err
	}

	b, err := os.ReadFile(CurrentLabelFile())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoConfig
	}
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(b)), nil
}

func ActiveConfigPath() (string, error) {
	label, err := CurrentLabel()
	if err != nil {
		return "", err
	}
	if label == "" {
		return "", ErrNoConfig
	}
	return profilePath(label)
}

type ConfigInfo struct {
	Label  string
	Path   string
	Active bool
}

func ListConfigs() ([]ConfigInfo, error) {
	if err := ensureDirs(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(ConfigsDir())
	if err != nil {
		return nil, err
	}

	active, _ := CurrentLabel()
	var out []ConfigInfo
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, profileExt) {
			continue
		}
		label := strings.TrimSuffix(name, profileExt)
		out = append(out, ConfigInfo{
			Label:  label,
			Path:   filepath.Join(ConfigsDir(), name),
			Active: label == active,
		})
	}

	slices.SortFunc(out, func(a, b ConfigInfo) int { return strings.Compare(a.Label, b.Label) })
	return out, nil
}

// Labels lists profile names for interactive selection.
func Labels() ([]string, error) {
	infos, err := ListConfigs()
	if err != nil {
		return nil, err
	}
	labels := make([]string, len(infos))
	for i, info := range infos {
		labels[i] = info.Label
	}
	return labels, nil
}

func SwitchConfig(label string) error {
	path, err := profilePath(label)
	if err != nil {
		return err
	}
	if err := ensureDirs(); err != nil {
		return err
	}
	if !exists(path) {
		return fmt.Errorf("config %q does not exist", label)
	}
	return setCurrent(strings.TrimSpace(label))
}

// AddConfig imports an existing YAML file as a new profile. The file
// must parse as a config.
func AddConfig(label, srcPath string) error {
	dst, err := profilePath(label)
	if err != nil {
		return err
	}
	if err := ensureDirs(); err != nil {
		return err
	}
	if exists(dst) {
		return fmt.Errorf("config %q already exists", label)
	}

	cfg, err := loadYAML(srcPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", srcPath, err)
	}
	return SaveYAML(cfg, dst)
}

func CreateEmptyConfig(label string) (string, error) {
	path, err := profilePath(label)
	if err != nil {
		return "", err
	}
	if err := ensureDirs(); err != nil {
		return "", err
	}
	if exists(path) {
		return "", fmt.Errorf("config %q already exists", label)
	}
	if err := SaveYAML(DefaultConfig(), path); err != nil {
		return "", err
	}
	return path, nil
}

func RenameConfig(oldLabel, newLabel string) error {
	oldPath, err := profilePath(oldLabel)
	if err != nil {
		return err
	}
	newPath, err := profilePath(newLabel)
	if err != nil {
		return err
	}
	if err := ensureDirs(); err != nil {
		return err
	}

	if !exists(oldPath) {
		return fmt.Errorf("config %q does not exist", oldLabel)
	}
	if exists(newPath) {
		return fmt.Errorf("config %q already exists", newLabel)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return err
	}

	if active, _ := CurrentLabel(); active == oldLabel {
		return setCurrent(newLabel)
	}
	return nil
}

// RemoveConfig deletes a profile. Removing the active one needs force
// and switches back to the Default profile; the returned flag reports
// that switch.
func RemoveConfig(label string, force bool) (switched bool, err error) {
	path, err := profilePath(label)
	if err != nil {
		return false, err
	}
	if label == DefaultLabel {
		return false, errors.New("cannot remove the Default config")
	}
	if !exists(path) {
		return false, fmt.Errorf("config %q does not exist", label)
	}

	if active, _ := CurrentLabel(); active == label {
		if !force {
			return false, fmt.Errorf("config %q is active, use --force to remove it", label)
		}
		if err := SwitchConfig(DefaultLabel); err != nil {
			return false, fmt.Errorf("failed switching to Default: %w", err)
		}
		switched = true
	}

	return switched, os.Remove(path)
}

// ResetConfig overwrites a profile with the defaults.
func ResetConfig(label string) (string, error) {
	path, err := profilePath(label)
	if err != nil {
		return "", err
	}
	if !exists(path) {
		return "", fmt.Errorf("config %q does not exist", label)
	}
	return path, SaveYAML(DefaultConfig(), path)
}

// InitDefaultConfig creates the Default profile and makes it active. An
// existing profile is kept and os.ErrExist returned.
func InitDefaultConfig() (string, error) {
	if err := ensureDirs(); err != nil {
		return "", err
	}

	defPath, _ := profilePath(DefaultLabel)
	if exists(defPath) {
		_ = setCurrent(DefaultLabel)
		return defPath, os.ErrExist
	}

	if err := SaveYAML(DefaultConfig(), defPath); err != nil {
		return "", err
	}

	return defPath, setCurrent(DefaultLabel)
}
