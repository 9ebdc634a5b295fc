package wizard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/tessro/flipbook/internal/config"
	"github.com/tessro/flipbook/internal/source"
)

var commonExtensions = []string{"svg", "txt", "png", "jpg", "gif"}

// Answers are the values collected by the config init form.
type Answers struct {
	URL       string
	Extension string
	FrameRate string
	Frames    string
}

// AnswersFrom prefills answers from cfg.
func AnswersFrom(cfg *config.Config) Answers {
	rate := cfg.Source.FrameRate
	if rate <= 0 {
		rate = config.DefaultFrameRate
	}
	a := Answers{
		URL:       cfg.Source.URL,
		Extension: source.NormalizeExtension(cfg.Source.Extension),
		FrameRate: strconv.FormatFloat(rate, 'f', -1, 64),
	}
	if cfg.Source.Frames > 0 {
		a.Frames = strconv.Itoa(cfg.Source.Frames)
	}
	return a
}

// Apply validates the answers and copies them into cfg.
func (a Answers) Apply(cfg *config.Config) error {
	rate, err := parseFrameRate(a.FrameRate)
	if err != nil {
		return err
	}
	frames, err := parseFrames(a.Frames)
	if err != nil {
		return err
	}

	cfg.Source.URL = strings.TrimSpace(a.URL)
	cfg.Source.Extension = source.NormalizeExtension(a.Extension)
	cfg.Source.FrameRate = rate
	cfg.Source.Frames = frames
	return cfg.Validate()
}

// RunInit shows the config init form, prefilled from cfg, and applies the
// answers to cfg.
func RunInit(cfg *config.Config) error {
	a := AnswersFrom(cfg)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Frame source").
				Description("URL or directory holding 0.svg, 1.svg, ...").
				Value(&a.URL),
			huh.NewSelect[string]().
				Title("Frame extension").
				Options(huh.NewOptions(extensionOptions(a.Extension)...)...).
				Value(&a.Extension),
			huh.NewInput().
				Title("Frame rate").
				Description("Frames per second").
				Validate(func(s string) error {
					_, err := parseFrameRate(s)
					return err
				}).
				Value(&a.FrameRate),
			huh.NewInput().
				Title("Frame count").
				Description("Leave empty to read manifest.json from the source").
				Validate(func(s string) error {
					_, err := parseFrames(s)
					return err
				}).
				Value(&a.Frames),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("config init cancelled: %w", err)
	}
	return a.Apply(cfg)
}

// extensionOptions returns the common extensions, with current first if it
// is not one of them.
func extensionOptions(current string) []string {
	for _, ext := range commonExtensions {
		if ext == current {
			return commonExtensions
		}
	}
	return append([]string{current}, commonExtensions...)
}

func parseFrameRate(s string) (float64, error) {
	rate, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || rate <= 0 {
		return 0, errors.New("frame rate must be a positive number")
	}
	return rate, nil
}

func parseFrames(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("frame count must be a positive integer")
	}
	return n, nil
}
