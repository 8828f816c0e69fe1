package config

import (
	"os"
	"testing"
	"time"

	"github.com/itohio/reactiontest/pkg/experiment"
	"github.com/itohio/reactiontest/pkg/trial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, 12, cfg.Experiment.TrialCount)
	assert.Equal(t, 3, cfg.Experiment.MinWaitSeconds)
	assert.Equal(t, 7, cfg.Experiment.MaxWaitSeconds)
	assert.Equal(t, float32(0.75), cfg.Experiment.ThresholdFraction)
	assert.Equal(t, "sensor", cfg.Experiment.Targeting)
	assert.Equal(t, []string{"normal", "normal", "disgust", "disgust"}, cfg.Experiment.Layout)
	assert.Equal(t, 3*time.Second, cfg.Experiment.ArmDelay)
	assert.Equal(t, time.Second, cfg.Experiment.SettleDelay)
	assert.Empty(t, cfg.MQTT.Broker)
	assert.False(t, cfg.Cues.Enabled)
	assert.Equal(t, ".", cfg.Cues.Dir)
}

func TestDefault_ParamsMatchFirmware(t *testing.T) {
	p, err := Default().Experiment.Params()
	require.NoError(t, err)
	assert.Equal(t, experiment.DefaultParams(), p)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyUSB0"
  baud_rate: 9600

experiment:
  trial_count: 8
  min_wait_seconds: 1
  max_wait_seconds: 2
  threshold_fraction: 0.5
  targeting: category
  layout: [disgust, normal]
  skip_arming: true
  arm_delay: 500ms
  settle_delay: 250ms

results:
  dir: /tmp/results
  xlsx: true

mqtt:
  broker: tcp://localhost:1883
  topic: lab/rt
  qos: 1

cues:
  enabled: true
  dir: /usr/share/sounds/rt

mock:
  reaction_mean: 300ms
  wrong_rate: 0.2
  speed: 0
  seed: 42
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, "/tmp/results", cfg.Results.Dir)
	assert.True(t, cfg.Results.XLSX)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, "lab/rt", cfg.MQTT.Topic)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
	assert.True(t, cfg.Cues.Enabled)
	assert.Equal(t, "/usr/share/sounds/rt", cfg.Cues.Dir)
	assert.Equal(t, 300*time.Millisecond, cfg.Mock.ReactionMean)
	assert.Equal(t, 0.2, cfg.Mock.WrongRate)
	assert.Equal(t, int64(42), cfg.Mock.Seed)

	p, err := cfg.Experiment.Params()
	require.NoError(t, err)
	assert.Equal(t, 8, p.TrialCount)
	assert.Equal(t, 1, p.MinWaitSeconds)
	assert.Equal(t, 2, p.MaxWaitSeconds)
	assert.Equal(t, float32(0.5), p.ThresholdFraction)
	assert.Equal(t, trial.TargetCategory, p.Targeting)
	assert.Equal(t, trial.Layout{trial.Disgust, trial.Normal}, p.Layout)
	assert.False(t, p.ArmOnTouch)
	assert.Equal(t, 500*time.Millisecond, p.ArmDelay)
	assert.Equal(t, 250*time.Millisecond, p.SettleDelay)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("serial:\n  port: \"/dev/ttyACM0\"\n")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)     // default
	assert.Equal(t, 12, cfg.Experiment.TrialCount)   // default
	assert.Equal(t, "reactiontest", cfg.MQTT.Topic)  // default
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Experiment.TrialCount = 16

	tmpfile, err := os.CreateTemp("", "test_save_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	require.NoError(t, cfg.Save(tmpfile.Name()))

	loaded, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Serial.Port)
	assert.Equal(t, 16, loaded.Experiment.TrialCount)
}

func TestExperimentConfig_ParamsErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(e *ExperimentConfig)
		wantErr error
	}{
		{"odd count", func(e *ExperimentConfig) { e.TrialCount = 9 }, experiment.ErrOddTrialCount},
		{"per sensor", func(e *ExperimentConfig) { e.TrialCount = 10 }, experiment.ErrTrialCountNotPerSensor},
		{"uneven layout", func(e *ExperimentConfig) { e.Layout = []string{"normal", "disgust", "disgust"} }, trial.ErrUnevenLayout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Default().Experiment
			tt.mutate(&e)
			_, err := e.Params()
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	e := Default().Experiment
	e.Targeting = "pad"
	_, err := e.Params()
	assert.Error(t, err)

	e = Default().Experiment
	e.Layout = []string{"normal", "fruit"}
	_, err = e.Params()
	assert.Error(t, err)
}
