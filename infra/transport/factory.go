package transport

import (
	"github.com/kilianp07/dingo/core/factory"
	"github.com/kilianp07/dingo/core/ingest"
)

var registry = factory.NewRegistry[ingest.Transport]()

// Register adds a transport factory identified by name.
func Register(name string, f factory.Factory[ingest.Transport]) error {
	return registry.Register(name, f)
}

// New builds the transport described by cfg. An empty type selects auto.
func New(cfg factory.ModuleConfig) (ingest.Transport, error) {
	if cfg.Type == "" {
		cfg.Type = "auto"
	}
	return registry.Create(cfg)
}

// Names lists the registered transport types.
func Names() []string { return registry.Names() }

// WithDefaults returns a copy of cfg whose conf carries url and api_key when
// they are not already set. Transports that do not use them ignore them.
func WithDefaults(cfg factory.ModuleConfig, url, apiKey string) factory.ModuleConfig {
	conf := make(map[string]any, len(cfg.Conf)+2)
	for k, v := range cfg.Conf {
		conf[k] = v
	}
	if _, ok := conf["url"]; !ok && url != "" {
		conf["url"] = url
	}
	if _, ok := conf["api_key"]; !ok && apiKey != "" {
		conf["api_key"] = apiKey
	}
	return factory.ModuleConfig{Type: cfg.Type, Conf: conf}
}

func decodeInto[C any, T ingest.Transport](build func(C) (T, error)) factory.Factory[ingest.Transport] {
	return func(conf map[string]any) (ingest.Transport, error) {
		var c C
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		t, err := build(c)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
}

func init() {
	_ = Register("http", decodeInto(NewHTTP))
	_ = Register("auto", decodeInto(NewHTTP))
	_ = Register("curl", decodeInto(NewCurl))
	_ = Register("mqtt", decodeInto(NewMQTT))
	_ = Register("influx", decodeInto(NewInflux))
	_ = Register("redis", decodeInto(NewRedis))
	_ = Register("nats", decodeInto(NewNATS))
	_ = Register("nop", func(map[string]any) (ingest.Transport, error) { return NewNop(), nil })
}
