package export

// This file implements the interactive export wizard used when -export is
// given without a destination on a terminal.

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	json "github.com/goccy/go-json"
	"golang.org/x/term"
)

// WizardConfig holds the answers collected by the wizard. It is saved next to
// the user config so the next run can offer the same settings.
type WizardConfig struct {
	Format     Format `json:"format"`
	OutputPath string `json:"output_path"`
	Title      string `json:"title,omitempty"`
	Guides     bool   `json:"guides"`
	Indicators bool   `json:"indicators"`
	Preset     string `json:"preset,omitempty"` // "compact" or "roomy"; images only
}

// DefaultWizardConfig returns the settings offered on a first run.
func DefaultWizardConfig() *WizardConfig {
	return &WizardConfig{
		Format:     FormatText,
		OutputPath: "tree.txt",
		Guides:     true,
		Indicators: true,
		Preset:     "compact",
	}
}

// Options converts the answers into Save options.
func (c *WizardConfig) Options(totalItems int) Options {
	return Options{
		Title:      c.Title,
		Outline:    OutlineOptions{Guides: c.Guides, Indicators: c.Indicators},
		Preset:     c.Preset,
		TotalItems: totalItems,
	}
}

// Wizard walks the user through the export settings.
type Wizard struct {
	config    *WizardConfig
	configDir string
	out       io.Writer
	isUpdate  bool // true when the saved settings were accepted unchanged
}

// NewWizard creates a wizard that keeps its settings under configDir. An
// empty configDir disables saving.
func NewWizard(configDir string) *Wizard {
	return &Wizard{
		config:    DefaultWizardConfig(),
		configDir: configDir,
		out:       os.Stdout,
	}
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// Run executes the interactive flow and returns the chosen settings. The
// settings are saved on success.
func (w *Wizard) Run() (*WizardConfig, error) {
	saved, err := LoadWizardConfig(w.configDir)
	if err == nil && saved != nil && saved.OutputPath != "" {
		useSaved, err := w.offerSavedConfig(saved)
		if err != nil {
			return nil, err
		}
		if useSaved {
			w.config = saved
			w.isUpdate = true
			return w.config, nil
		}
		w.config = saved
	}

	if err := w.collectFormat(); err != nil {
		return nil, err
	}
	if err := w.collectOptions(); err != nil {
		return nil, err
	}

	if w.configDir != "" {
		if err := SaveWizardConfig(w.configDir, w.config); err != nil {
			fmt.Fprintf(w.out, "Warning: could not save export settings: %v\n", err)
		}
	}
	return w.config, nil
}

// Config returns the collected settings.
func (w *Wizard) Config() *WizardConfig {
	return w.config
}

// IsUpdate reports whether the saved settings were reused.
func (w *Wizard) IsUpdate() bool {
	return w.isUpdate
}

func (w *Wizard) offerSavedConfig(saved *WizardConfig) (bool, error) {
	fmt.Fprintln(w.out, "Found previous export settings:")
	fmt.Fprintln(w.out, "────────────────────────────────")
	fmt.Fprintf(w.out, "  Format: %s\n", saved.Format)
	fmt.Fprintf(w.out, "  Path:   %s\n", saved.OutputPath)
	if saved.Title != "" {
		fmt.Fprintf(w.out, "  Title:  %s\n", saved.Title)
	}
	fmt.Fprintln(w.out)

	useSaved := true
	form := newForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Export again with these settings?").
				Description("Select No to choose new settings").
				Value(&useSaved).
				Affirmative("Yes").
				Negative("No, reconfigure"),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return useSaved, nil
}

func (w *Wizard) collectFormat() error {
	format := string(w.config.Format)
	path := w.config.OutputPath

	form := newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Export format").
				Options(
					huh.NewOption("Text outline", string(FormatText)),
					huh.NewOption("JSON rows", string(FormatJSON)),
					huh.NewOption("SVG image", string(FormatSVG)),
					huh.NewOption("PNG image", string(FormatPNG)),
				).
				Value(&format),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Output file").
				Description("The extension is adjusted to match the format").
				Value(&path).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("output file is required")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	w.config.Format = Format(format)
	w.config.OutputPath = WithExtension(strings.TrimSpace(path), w.config.Format)
	return nil
}

func (w *Wizard) collectOptions() error {
	var fields []huh.Field
	switch w.config.Format {
	case FormatText:
		fields = append(fields,
			huh.NewConfirm().Title("Draw connector guides?").Value(&w.config.Guides),
			huh.NewConfirm().Title("Show expand indicators?").Value(&w.config.Indicators),
		)
	case FormatSVG, FormatPNG:
		fields = append(fields,
			huh.NewSelect[string]().
				Title("Layout").
				Options(huh.NewOption("Compact", "compact"), huh.NewOption("Roomy", "roomy")).
				Value(&w.config.Preset),
		)
	}
	if w.config.Format != FormatText {
		fields = append(fields, huh.NewInput().Title("Title (optional)").Value(&w.config.Title))
	}
	return newForm(huh.NewGroup(fields...)).Run()
}

// WithExtension replaces path's extension with the one for format.
func WithExtension(path string, format Format) string {
	ext := filepath.Ext(path)
	if f, err := FormatFor(path); err == nil && f == format && ext != "" {
		return path
	}
	return strings.TrimSuffix(path, ext) + "." + string(format)
}

// WizardConfigPath returns the settings file inside configDir.
func WizardConfigPath(configDir string) string {
	if configDir == "" {
		return ""
	}
	return filepath.Join(configDir, "export.json")
}

// LoadWizardConfig loads saved settings. It returns nil, nil when none exist.
func LoadWizardConfig(configDir string) (*WizardConfig, error) {
	path := WizardConfigPath(configDir)
	if path == "" {
		return nil, fmt.Errorf("could not determine config path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	config := DefaultWizardConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return config, nil
}

// SaveWizardConfig saves settings for future runs.
func SaveWizardConfig(configDir string, config *WizardConfig) error {
	path := WizardConfigPath(configDir)
	if path == "" {
		return fmt.Errorf("could not determine config path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
