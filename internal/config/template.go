package config

import (
	_ "embed"
	"fmt"

	"github.com/go-ini/ini"
)

//go:embed template.ini
var templateINI []byte

type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindList   Kind = "list"
)

// Setting describes one environment variable.
type Setting struct {
	Name     string
	Kind     Kind
	Default  string
	Allowed  []string
	Min, Max *float64
	Required bool
	Secret   bool
}

func Template() ([]Setting, error) {
	return parseTemplate(templateINI)
}

func parseTemplate(src []byte) ([]Setting, error) {
	f, err := ini.Load(src)
	if err != nil {
		return nil, fmt.Errorf("parse settings template: %w", err)
	}

	var out []Setting
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}

		s := Setting{
			Name:     sec.Name(),
			Kind:     Kind(sec.Key("type").MustString(string(KindString))),
			Default:  sec.Key("default").String(),
			Required: sec.Key("required").MustBool(false),
			Secret:   sec.Key("secret").MustBool(false),
		}
		switch s.Kind {
		case KindString, KindInt, KindFloat, KindList:
		default:
			return nil, fmt.Errorf("setting %s: unknown type %q", s.Name, s.Kind)
		}
		if sec.HasKey("allowed") {
			s.Allowed = sec.Key("allowed").Strings(",")
		}
		if s.Min, err = bound(sec, "min"); err != nil {
			return nil, err
		}
		if s.Max, err = bound(sec, "max"); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func bound(sec *ini.Section, name string) (*float64, error) {
	if !sec.HasKey(name) {
		return nil, nil
	}
	v, err := sec.Key(name).Float64()
	if err != nil {
		return nil, fmt.Errorf("setting %s: bad %s: %w", sec.Name(), name, err)
	}
	return &v, nil
}
