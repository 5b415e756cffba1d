package config

import (
	"context"
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"paceline/internal/domain/model"
)

// templateFile mirrors the YAML layout of a periodization template.
// Dates are strings in YYYY-MM-DD form.
type templateFile struct {
	Name      string             `koanf:"name"`
	StartDate string             `koanf:"start_date"`
	Weeks     []templateFileWeek `koanf:"weeks"`
}

type templateFileWeek struct {
	Index              int     `koanf:"week_index"`
	Phase              string  `koanf:"phase"`
	TargetWeeklyStress float64 `koanf:"target_weekly_stress"`
	SessionCount       int     `koanf:"session_count"`
}

// LoadTemplate reads a periodization template from a YAML file.
func LoadTemplate(_ context.Context, path string) (model.PlanTemplate, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return model.PlanTemplate{}, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	var raw templateFile
	if err := k.UnmarshalWithConf("", &raw, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return model.PlanTemplate{}, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	start, err := time.Parse(time.DateOnly, raw.StartDate)
	if err != nil {
		return model.PlanTemplate{}, fmt.Errorf("%w: bad start_date %q: %w", ErrInvalidTemplate, raw.StartDate, err)
	}
	if len(raw.Weeks) == 0 {
		return model.PlanTemplate{}, fmt.Errorf("%w: no weeks defined", ErrInvalidTemplate)
	}

	tpl := model.PlanTemplate{
		Name:      raw.Name,
		StartDate: model.DateOf(start),
	}
	for _, w := range raw.Weeks {
		phase := model.PlanPhase(w.Phase)
		if !model.ValidPhase(phase) {
			return model.PlanTemplate{}, fmt.Errorf("%w: unknown phase %q in week %d", ErrInvalidTemplate, w.Phase, w.Index)
		}
		if w.TargetWeeklyStress < 0 {
			return model.PlanTemplate{}, fmt.Errorf("%w: negative weekly target in week %d", ErrInvalidTemplate, w.Index)
		}
		tpl.Weeks = append(tpl.Weeks, model.PlanWeek{
			Index:              w.Index,
			Phase:              phase,
			TargetWeeklyStress: w.TargetWeeklyStress,
			SessionCount:       w.SessionCount,
		})
	}
	return tpl, nil
}
