package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"vidsub/internal/config"
	"vidsub/internal/services"
	"vidsub/internal/services/ytdlp"
)

// Kind selects the artifact a run produces.
type Kind string

const (
	KindAudio Kind = "Audio"
	KindVideo Kind = "Video"
)

var kindCaser = cases.Title(language.English)

// ParseKind accepts "audio" or "video" in any case.
func ParseKind(value string) (Kind, error) {
	kind := Kind(kindCaser.String(strings.ToLower(strings.TrimSpace(value))))
	switch kind {
	case KindAudio, KindVideo:
		return kind, nil
	default:
		return "", services.Wrap(services.ErrValidation, "", "kind", fmt.Sprintf("unknown kind %q (want audio or video)", value), nil)
	}
}

// RunConfig is the immutable input of one run.
type RunConfig struct {
	URL               string `validate:"required"`
	OutputDir         string `validate:"required"`
	Kind              Kind   `validate:"oneof=Audio Video"`
	Quality           string `validate:"required_if=Kind Video,omitempty,oneof=Best 1080p 720p 480p"`
	Language          string `validate:"required_if=Kind Video,omitempty,langtag"`
	Model             string `validate:"required_if=Kind Video,omitempty,oneof=tiny base small medium large turbo"`
	Credential        string `validate:"required_if=Kind Video"`
	TargetLanguage    string
	KeepIntermediates bool
}

// NewRunConfig seeds a RunConfig for url from the configured defaults.
func NewRunConfig(cfg *config.Config, url string) RunConfig {
	kind, err := ParseKind(cfg.Pipeline.DefaultKind)
	if err != nil {
		kind = KindVideo
	}
	return RunConfig{
		URL:               ytdlp.CleanURL(strings.TrimSpace(url)),
		OutputDir:         cfg.Paths.OutputDir,
		Kind:              kind,
		Quality:           cfg.Pipeline.DefaultQuality,
		Language:          cfg.Pipeline.DefaultLanguage,
		Model:             cfg.Pipeline.DefaultModel,
		Credential:        cfg.Translation.APIKey,
		TargetLanguage:    cfg.Translation.TargetLanguage,
		KeepIntermediates: cfg.Pipeline.KeepIntermediates,
	}
}

// QualityLabel is what the ledger records for this run.
func (c RunConfig) QualityLabel() string {
	if c.Kind == KindAudio || strings.TrimSpace(c.Quality) == "" {
		return "N/A"
	}
	return c.Quality
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func runValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("langtag", func(fl validator.FieldLevel) bool {
			_, err := language.Parse(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// Validate checks c before any stage runs. A missing credential is a
// configuration error; everything else is a validation error.
func (c RunConfig) Validate() error {
	err := runValidator().Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return services.Wrap(services.ErrValidation, "", "validate", "invalid run configuration", err)
	}
	first := fieldErrs[0]
	if first.Field() == "Credential" {
		return services.Wrap(services.ErrConfiguration, "", "validate",
			"DeepSeek API key is required for video processing", nil)
	}
	return services.Wrap(services.ErrValidation, "", "validate", describeFieldError(first), nil)
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s %q is not one of: %s", field, fmt.Sprint(fe.Value()), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "langtag":
		return fmt.Sprintf("%s %q is not a valid language code", field, fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
