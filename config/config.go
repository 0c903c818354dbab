package config

import (
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	db "wasmfn/debug"
)

// Env overrides, applied after the config file is read.
const (
	WASMFNLISTEN     = "WASMFNLISTEN"
	WASMFNCACHEDIR   = "WASMFNCACHEDIR"
	WASMFNSTORE      = "WASMFNSTORE"
	WASMFNSTOREADDR  = "WASMFNSTOREADDR"
	WASMFNSTORETABLE = "WASMFNSTORETABLE"
	WASMFNDEFAULTFN  = "WASMFNDEFAULTFN"
)

type StoreConfig struct {
	Kind  string `yaml:"kind,omitempty" mapstructure:"kind"`
	Addr  string `yaml:"addr,omitempty" mapstructure:"addr"`
	Table string `yaml:"table,omitempty" mapstructure:"table"`
}

// FnSpec names where a function's wasm module lives (a local path or
// an s3:// URL) and, optionally, a datastore overriding the gateway
// default.
type FnSpec struct {
	Src   string       `yaml:"src" mapstructure:"src"`
	Store *StoreConfig `yaml:"store,omitempty" mapstructure:"store"`
}

type FnConfig struct {
	ListenAddr string             `yaml:"listenaddr,omitempty" mapstructure:"listenaddr"`
	CacheDir   string             `yaml:"cachedir,omitempty" mapstructure:"cachedir"`
	DefaultFn  string             `yaml:"defaultfn,omitempty" mapstructure:"defaultfn"`
	Store      StoreConfig        `yaml:"store,omitempty" mapstructure:"store"`
	Fns        map[string]*FnSpec `yaml:"fns,omitempty" mapstructure:"fns"`
}

func NewFnConfig() *FnConfig {
	return &FnConfig{
		ListenAddr: ":8080",
		CacheDir:   "/tmp/wasmfn-cache",
		Store:      StoreConfig{Kind: "mem"},
		Fns:        make(map[string]*FnSpec),
	}
}

// ReadFnConfig loads a YAML file over the defaults. The file decodes
// through a loose map so partial configs and unknown scalar shapes
// don't error out field-by-field.
func ReadFnConfig(pn string) (*FnConfig, error) {
	cfg := NewFnConfig()
	b, err := os.ReadFile(pn)
	if err != nil {
		return nil, err
	}
	raw := make(map[string]interface{})
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	if err := mapstructure.Decode(raw, cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// GetFnConfig is for mains: config file if given, else defaults, with
// env overrides either way.
func GetFnConfig(pn string) *FnConfig {
	if pn == "" {
		cfg := NewFnConfig()
		cfg.applyEnv()
		return cfg
	}
	cfg, err := ReadFnConfig(pn)
	if err != nil {
		db.DFatalf("ReadFnConfig %v err %v", pn, err)
	}
	return cfg
}

func (cfg *FnConfig) applyEnv() {
	if v := os.Getenv(WASMFNLISTEN); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(WASMFNCACHEDIR); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv(WASMFNSTORE); v != "" {
		cfg.Store.Kind = v
	}
	if v := os.Getenv(WASMFNSTOREADDR); v != "" {
		cfg.Store.Addr = v
	}
	if v := os.Getenv(WASMFNSTORETABLE); v != "" {
		cfg.Store.Table = v
	}
	if v := os.Getenv(WASMFNDEFAULTFN); v != "" {
		cfg.DefaultFn = v
	}
}

func (cfg *FnConfig) Marshal() string {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		db.DFatalf("Error marshal fnconfig: %v", err)
	}
	return string(b)
}
