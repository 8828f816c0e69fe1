package config

import (
	"fmt"
	"os"
	"time"

	"github.com/itohio/reactiontest/pkg/experiment"
	"github.com/itohio/reactiontest/pkg/trial"
	"gopkg.in/yaml.v3"
)

// Config represents the monitor configuration.
type Config struct {
	Serial     SerialConfig     `yaml:"serial"`
	Experiment ExperimentConfig `yaml:"experiment"`
	Results    ResultsConfig    `yaml:"results"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Cues       CuesConfig       `yaml:"cues"`
	Mock       MockConfig       `yaml:"mock"`
}

// CuesConfig controls the sounds played to the participant.
type CuesConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"` // countdown.wav, wrong.wav, success.wav, final_result.wav
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// ExperimentConfig mirrors the firmware constants. The mock device runs with
// it; the real board has its own copy compiled in.
type ExperimentConfig struct {
	TrialCount        int           `yaml:"trial_count"`
	MinWaitSeconds    int           `yaml:"min_wait_seconds"`
	MaxWaitSeconds    int           `yaml:"max_wait_seconds"`
	ThresholdFraction float32       `yaml:"threshold_fraction"`
	Targeting         string        `yaml:"targeting"` // "sensor" or "category"
	Layout            []string      `yaml:"layout"`    // category per sensor
	SkipArming        bool          `yaml:"skip_arming"`
	ArmDelay          time.Duration `yaml:"arm_delay"`
	SettleDelay       time.Duration `yaml:"settle_delay"`
}

// ResultsConfig controls where finished sessions are written.
type ResultsConfig struct {
	Dir   string `yaml:"dir"`
	XLSX  bool   `yaml:"xlsx"`
	Stats bool   `yaml:"stats"` // print descriptive statistics after a session
}

// MQTTConfig enables event forwarding when Broker is set.
type MQTTConfig struct {
	Broker   string        `yaml:"broker"` // e.g. tcp://localhost:1883
	Topic    string        `yaml:"topic"`
	ClientID string        `yaml:"client_id"`
	QoS      byte          `yaml:"qos"`
	Timeout  time.Duration `yaml:"timeout"`
}

// MockConfig describes the simulated subject.
type MockConfig struct {
	ReactionMean   time.Duration `yaml:"reaction_mean"`   // Mean reaction time
	ReactionJitter time.Duration `yaml:"reaction_jitter"` // Uniform +/- jitter
	PressDuration  time.Duration `yaml:"press_duration"`  // How long a pad is held
	EarlyRate      float64       `yaml:"early_rate"`      // Probability of an early touch per wait phase
	WrongRate      float64       `yaml:"wrong_rate"`      // Probability of touching a wrong pad
	Speed          float64       `yaml:"speed"`           // Virtual/real time ratio (0 = as fast as possible)
	Seed           int64         `yaml:"seed"`            // 0 picks a time-based seed
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	p := experiment.DefaultParams()
	layout := make([]string, len(p.Layout))
	for i, c := range p.Layout {
		layout[i] = c.String()
	}

	return &Config{
		Serial: SerialConfig{
			Port:     "COM3", // Default for Windows, should be "/dev/ttyUSB0" on Linux/Mac
			BaudRate: 115200,
		},
		Experiment: ExperimentConfig{
			TrialCount:        p.TrialCount,
			MinWaitSeconds:    p.MinWaitSeconds,
			MaxWaitSeconds:    p.MaxWaitSeconds,
			ThresholdFraction: p.ThresholdFraction,
			Targeting:         p.Targeting.String(),
			Layout:            layout,
			ArmDelay:          p.ArmDelay,
			SettleDelay:       p.SettleDelay,
		},
		Results: ResultsConfig{
			Dir: ".",
		},
		MQTT: MQTTConfig{
			Topic:    "reactiontest",
			ClientID: "reactiontest-monitor",
			Timeout:  5 * time.Second,
		},
		Cues: CuesConfig{
			Dir: ".",
		},
		Mock: MockConfig{
			ReactionMean:   350 * time.Millisecond,
			ReactionJitter: 100 * time.Millisecond,
			PressDuration:  150 * time.Millisecond,
			EarlyRate:      0.05,
			WrongRate:      0.05,
			Speed:          1,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Params converts the experiment section and validates it.
func (e ExperimentConfig) Params() (experiment.Params, error) {
	targeting, err := trial.ParseTargeting(e.Targeting)
	if err != nil {
		return experiment.Params{}, err
	}
	layout := make(trial.Layout, len(e.Layout))
	for i, name := range e.Layout {
		c, err := trial.ParseCategory(name)
		if err != nil {
			return experiment.Params{}, fmt.Errorf("layout sensor %d: %w", i, err)
		}
		layout[i] = c
	}

	p := experiment.Params{
		TrialCount:        e.TrialCount,
		MinWaitSeconds:    e.MinWaitSeconds,
		MaxWaitSeconds:    e.MaxWaitSeconds,
		ThresholdFraction: e.ThresholdFraction,
		Targeting:         targeting,
		Layout:            layout,
		ArmOnTouch:        !e.SkipArming,
		ArmDelay:          e.ArmDelay,
		SettleDelay:       e.SettleDelay,
	}
	if err := p.Validate(); err != nil {
		return experiment.Params{}, err
	}
	return p, nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Experiment.TrialCount == 0 {
		c.Experiment.TrialCount = def.Experiment.TrialCount
	}
	if c.Experiment.MaxWaitSeconds == 0 {
		c.Experiment.MinWaitSeconds = def.Experiment.MinWaitSeconds
		c.Experiment.MaxWaitSeconds = def.Experiment.MaxWaitSeconds
	}
	if c.Experiment.ThresholdFraction == 0 {
		c.Experiment.ThresholdFraction = def.Experiment.ThresholdFraction
	}
	if c.Experiment.Targeting == "" {
		c.Experiment.Targeting = def.Experiment.Targeting
	}
	if len(c.Experiment.Layout) == 0 {
		c.Experiment.Layout = def.Experiment.Layout
	}
	if c.Experiment.ArmDelay == 0 {
		c.Experiment.ArmDelay = def.Experiment.ArmDelay
	}
	if c.Experiment.SettleDelay == 0 {
		c.Experiment.SettleDelay = def.Experiment.SettleDelay
	}

	if c.Results.Dir == "" {
		c.Results.Dir = def.Results.Dir
	}

	if c.MQTT.Topic == "" {
		c.MQTT.Topic = def.MQTT.Topic
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.Timeout == 0 {
		c.MQTT.Timeout = def.MQTT.Timeout
	}

	if c.Cues.Dir == "" {
		c.Cues.Dir = def.Cues.Dir
	}

	if c.Mock.ReactionMean == 0 {
		c.Mock.ReactionMean = def.Mock.ReactionMean
	}
	if c.Mock.PressDuration == 0 {
		c.Mock.PressDuration = def.Mock.PressDuration
	}
}
