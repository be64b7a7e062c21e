// Package config loads the sweep configuration from defaults, an optional
// file, environment variables and command line flags.
package config

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gonum.org/v1/plot/vg"

	"github.com/nozzle/tsne"
	"github.com/nozzle/tsne/chart"
	"github.com/nozzle/tsne/distance"
)

// EnvPrefix prefixes every environment variable, e.g. TSNE_OUTPUT_DIR.
const EnvPrefix = "tsne"

// Config is the complete sweep configuration.
type Config struct {
	Input      string `mapstructure:"input" validate:"required"`
	OutputDir  string `mapstructure:"output_dir" validate:"required"`
	DataPrefix string `mapstructure:"data_prefix" validate:"required"`
	PlotPrefix string `mapstructure:"plot_prefix" validate:"required"`

	// Perplexities is the outer loop of the sweep
	Perplexities []float64 `mapstructure:"perplexities" validate:"required,min=1,dive,gt=0"`
	// Columns is the inner loop of the sweep
	Columns []int `mapstructure:"columns" validate:"required,min=1,dive,gte=1"`

	Seed              int64   `mapstructure:"seed" validate:"gte=0,lte=4294967295"`
	Components        int     `mapstructure:"components" validate:"gte=1"`
	Method            string  `mapstructure:"method" validate:"oneof=barnes_hut exact"`
	Init              string  `mapstructure:"init" validate:"oneof=random pca"`
	MaxIter           int     `mapstructure:"max_iter" validate:"gte=250"`
	LearningRate      float64 `mapstructure:"learning_rate" validate:"gte=0"`
	EarlyExaggeration float64 `mapstructure:"early_exaggeration" validate:"gte=1"`
	Angle             float64 `mapstructure:"angle" validate:"gte=0,lte=1"`
	Metric            string  `mapstructure:"metric" validate:"metric"`
	// Threads bounds the parallelism inside one t-SNE run (0 = all cores)
	Threads int `mapstructure:"threads" validate:"gte=0"`

	// Workers is the number of combinations run concurrently
	Workers         int  `mapstructure:"workers" validate:"gte=1"`
	Normalize       bool `mapstructure:"normalize"`
	ExportEmbedding bool `mapstructure:"export_embedding"`
	Verbose         bool `mapstructure:"verbose"`
	Progress        bool `mapstructure:"progress"`

	OriginalColor  string  `mapstructure:"original_color" validate:"hexcolor"`
	EmbeddingColor string  `mapstructure:"embedding_color" validate:"hexcolor"`
	FigureInches   float64 `mapstructure:"figure_inches" validate:"gt=0"`
}

// Default returns the configuration of the classic swiss-roll sweep.
func Default() Config {
	model := tsne.DefaultConfig()
	return Config{
		Input:             "swissB.csv",
		OutputDir:         ".",
		DataPrefix:        "swissB",
		PlotPrefix:        "swiss",
		Perplexities:      []float64{5, 10, 50, 100},
		Columns:           []int{3, 50, 100},
		Seed:              0,
		Components:        2,
		Method:            tsne.MethodBarnesHut,
		Init:              "random",
		MaxIter:           model.MaxIter,
		LearningRate:      0,
		EarlyExaggeration: model.EarlyExaggeration,
		Angle:             model.Angle,
		Metric:            model.Metric,
		Threads:           0,
		Workers:           1,
		Normalize:         false,
		ExportEmbedding:   false,
		Verbose:           true,
		Progress:          true,
		OriginalColor:     "#0000ff",
		EmbeddingColor:    "#ff0000",
		FigureInches:      6,
	}
}

// defaults maps every key to its default value.
func defaults() map[string]any {
	d := Default()
	return map[string]any{
		"input":              d.Input,
		"output_dir":         d.OutputDir,
		"data_prefix":        d.DataPrefix,
		"plot_prefix":        d.PlotPrefix,
		"perplexities":       d.Perplexities,
		"columns":            d.Columns,
		"seed":               d.Seed,
		"components":         d.Components,
		"method":             d.Method,
		"init":               d.Init,
		"max_iter":           d.MaxIter,
		"learning_rate":      d.LearningRate,
		"early_exaggeration": d.EarlyExaggeration,
		"angle":              d.Angle,
		"metric":             d.Metric,
		"threads":            d.Threads,
		"workers":            d.Workers,
		"normalize":          d.Normalize,
		"export_embedding":   d.ExportEmbedding,
		"verbose":            d.Verbose,
		"progress":           d.Progress,
		"original_color":     d.OriginalColor,
		"embedding_color":    d.EmbeddingColor,
		"figure_inches":      d.FigureInches,
	}
}

// Load reads the configuration. Sources in increasing priority: defaults,
// the file at path (skipped when empty, format by extension), TSNE_*
// environment variables, and changed flags whose names match a key with
// dashes for underscores.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		keys := lo.Keys(defaults())
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if bindErr == nil && lo.Contains(keys, key) {
				bindErr = v.BindPFlag(key, f)
			}
		})
		if bindErr != nil {
			return nil, errors.Trace(bindErr)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "read config %s", path)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Annotate(err, "decode config")
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &c, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("metric", func(fl validator.FieldLevel) bool {
		_, ok := distance.ForAffinity(fl.Field().String())
		return ok
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.NewNotValid(err, "config")
	}
	if c.Method == tsne.MethodBarnesHut && c.Components != 2 {
		return errors.NotValidf("components %d with method %s", c.Components, c.Method)
	}
	return nil
}

// Model returns the t-SNE configuration for one run at the given perplexity.
func (c *Config) Model(perplexity float64) tsne.Config {
	model := tsne.DefaultConfig()
	model.NComponents = c.Components
	model.Perplexity = perplexity
	model.EarlyExaggeration = c.EarlyExaggeration
	model.LearningRate = c.LearningRate
	model.MaxIter = c.MaxIter
	model.Metric = c.Metric
	model.Init = c.Init
	model.Method = c.Method
	model.Angle = c.Angle
	model.Seed = c.Seed
	model.NumWorkers = c.Threads
	model.Verbose = c.Verbose
	return model
}

// Style returns the plot style for the configured colors and figure size.
func (c *Config) Style() (chart.Style, error) {
	original, err := ParseColor(c.OriginalColor)
	if err != nil {
		return chart.Style{}, errors.Trace(err)
	}
	embedding, err := ParseColor(c.EmbeddingColor)
	if err != nil {
		return chart.Style{}, errors.Trace(err)
	}

	style := chart.DefaultStyle()
	style.OriginalColor = original
	style.EmbeddingColor = embedding
	style.Size = vg.Length(c.FigureInches) * vg.Inch
	return style, nil
}

// ParseColor parses #rrggbb or #rgb.
func ParseColor(s string) (color.RGBA, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return color.RGBA{}, errors.NotValidf("color %q", s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, errors.NotValidf("color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, errors.NewNotValid(err, "color "+s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
